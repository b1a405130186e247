package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vacancy/internal/api"
	"vacancy/internal/config"
	"vacancy/internal/database"
	"vacancy/internal/domain"
	"vacancy/internal/events"
	"vacancy/internal/export"
	"vacancy/internal/logging"
	"vacancy/internal/metrics"
	"vacancy/internal/repository"
	"vacancy/internal/service"
	"vacancy/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"vacancy/internal/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rooms, err := loadRooms(cfg, logger)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}
	if err := seedRooms(ctx, db, rooms, logger); err != nil {
		return fmt.Errorf("seed rooms: %w", err)
	}

	holds, redisClient := buildHoldRepository(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	bus := events.NewBus(logger)
	bus.Subscribe(func(eventType string, payload []byte) {
		logger.Info().
			Str("event_type", eventType).
			RawJSON("payload", payload).
			Msg("Domain event dispatched")
	})

	locks := service.NewRoomLocks()
	availability := service.NewAvailabilityService(db, holds, logger)
	waitlistSvc := service.NewWaitlistService(db, availability, logger)
	holdSvc := service.NewHoldService(db, holds, availability, locks, cfg.Holds.DefaultTTL, cfg.Holds.MaxTTL, logger)
	bookingSvc := service.NewBookingService(db, holds, availability, locks, waitlistSvc, logger)
	blockSvc := service.NewBlockService(db, locks, waitlistSvc, logger)
	calendarSvc := service.NewCalendarService(db, holds, logger)
	exporter := export.NewExporter(db, logger)

	dispatcher := worker.NewDispatcher(
		db, bus, redisClient,
		worker.DefaultRetryPolicy(cfg.Dispatcher.MaxRetries),
		cfg.Dispatcher.PollInterval,
		cfg.Dispatcher.BatchSize,
		logger,
	)
	bookingSvc.OnEnqueue(dispatcher.Wake)
	blockSvc.OnEnqueue(dispatcher.Wake)
	waitlistSvc.OnEnqueue(dispatcher.Wake)
	go dispatcher.Start(ctx)

	reaper := worker.NewReaper(holds, cfg.Holds.ReaperInterval, logger)
	go reaper.Start(ctx)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
		go backup.Start(ctx)
	}

	if cfg.Monitoring.PrometheusEnabled {
		go serveMetrics(cfg.Monitoring.PrometheusPort, logger)
	}

	if !cfg.API.Enabled {
		logger.Info().Msg("HTTP API disabled, running workers only")
		<-ctx.Done()
		return nil
	}

	server := api.NewServer(cfg.API, availability, holdSvc, bookingSvc, blockSvc, waitlistSvc, calendarSvc, exporter, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loadRooms merges the inventory from the main config with the optional
// standalone rooms file. The standalone file wins on id collisions so
// operators can override inventory without touching the service config.
func loadRooms(cfg *config.Config, logger *zerolog.Logger) ([]models.Room, error) {
	roomsPath := os.Getenv("ROOMS_PATH")
	if roomsPath == "" {
		roomsPath = "configs/rooms.yaml"
	}

	rooms := append([]models.Room(nil), cfg.Rooms...)

	data, err := os.ReadFile(roomsPath)
	if os.IsNotExist(err) {
		return rooms, nil
	}
	if err != nil {
		return nil, err
	}

	var roomsFile struct {
		Rooms []models.Room `yaml:"rooms"`
	}
	if err := yaml.Unmarshal(data, &roomsFile); err != nil {
		return nil, fmt.Errorf("parse %s: %w", roomsPath, err)
	}

	byID := make(map[int64]int, len(rooms))
	for i := range rooms {
		byID[rooms[i].ID] = i
	}
	for _, room := range roomsFile.Rooms {
		if i, ok := byID[room.ID]; ok {
			rooms[i] = room
		} else {
			rooms = append(rooms, room)
		}
	}

	if err := config.ValidateRooms(rooms); err != nil {
		return nil, err
	}
	logger.Info().Str("rooms_path", roomsPath).Int("rooms", len(roomsFile.Rooms)).Msg("Room inventory file loaded")
	return rooms, nil
}

// seedRooms upserts the inventory so a fresh deployment has its rooms
// without a separate admin step.
func seedRooms(ctx context.Context, db *database.DB, rooms []models.Room, logger *zerolog.Logger) error {
	for i := range rooms {
		room := rooms[i]
		if err := db.UpsertRoom(ctx, &room); err != nil {
			return fmt.Errorf("upsert room %d: %w", room.ID, err)
		}
	}
	if len(rooms) > 0 {
		logger.Info().Int("rooms", len(rooms)).Msg("Room inventory seeded")
	}
	return nil
}

// buildHoldRepository returns the Redis-backed store with in-memory failover
// when Redis is configured, the plain in-memory store otherwise.
func buildHoldRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.HoldRepository, *redis.Client) {
	memory := repository.NewMemoryHoldRepository()
	if !cfg.Redis.Enabled {
		logger.Info().Msg("Hold storage: in-memory")
		return memory, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unreachable at startup, holds start on the in-memory fallback")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("Hold storage: redis with in-memory failover")
	}

	return repository.NewFailoverHoldRepository(
		repository.NewRedisHoldRepository(client),
		memory,
		logger,
	), client
}

func serveMetrics(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("Prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server failed")
	}
}
