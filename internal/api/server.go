package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"vacancy/internal/config"
	"vacancy/internal/domain"
	"vacancy/internal/export"
	"vacancy/internal/metrics"
	"vacancy/internal/models"
	"vacancy/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Server exposes the reservation engine over HTTP. It translates wire shapes
// to service calls and domain errors to status codes; no availability or
// lifecycle rule lives here.
type Server struct {
	availability *service.AvailabilityService
	holds        *service.HoldService
	bookings     *service.BookingService
	blocks       *service.BlockService
	waitlist     *service.WaitlistService
	calendar     *service.CalendarService
	exporter     *export.Exporter
	auth         *Auth
	logger       *zerolog.Logger
	httpServer   *http.Server
}

func NewServer(
	cfg config.APIConfig,
	availability *service.AvailabilityService,
	holds *service.HoldService,
	bookings *service.BookingService,
	blocks *service.BlockService,
	waitlist *service.WaitlistService,
	calendar *service.CalendarService,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		availability: availability,
		holds:        holds,
		bookings:     bookings,
		blocks:       blocks,
		waitlist:     waitlist,
		calendar:     calendar,
		exporter:     exporter,
		auth:         NewAuth(cfg.Auth, cfg.RateLimit, logger),
		logger:       logger,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/v1/rooms", s.auth.Middleware("read", s.handleListRooms))
	mux.HandleFunc("GET /api/v1/availability", s.auth.Middleware("read", s.handleCheckAvailability))
	mux.HandleFunc("GET /api/v1/rooms/available", s.auth.Middleware("read", s.handleAvailableRooms))
	mux.HandleFunc("GET /api/v1/rooms/{id}/calendar", s.auth.Middleware("read", s.handleCalendar))
	mux.HandleFunc("GET /api/v1/export/occupancy.xlsx", s.auth.Middleware("read", s.handleExport))

	mux.HandleFunc("POST /api/v1/holds", s.auth.Middleware("write", s.handleAcquireHold))
	mux.HandleFunc("POST /api/v1/holds/{id}/renew", s.auth.Middleware("write", s.handleRenewHold))
	mux.HandleFunc("DELETE /api/v1/holds/{id}", s.auth.Middleware("write", s.handleReleaseHold))

	mux.HandleFunc("POST /api/v1/bookings", s.auth.Middleware("write", s.handleCreateBooking))
	mux.HandleFunc("POST /api/v1/bookings/{id}/confirm", s.auth.Middleware("write", s.handleConfirmBooking))
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", s.auth.Middleware("write", s.handleCancelBooking))
	mux.HandleFunc("POST /api/v1/bookings/{id}/complete", s.auth.Middleware("write", s.handleCompleteBooking))

	mux.HandleFunc("POST /api/v1/rooms/{id}/blocks", s.auth.Middleware("admin", s.handleBlockDate))
	mux.HandleFunc("DELETE /api/v1/rooms/{id}/blocks/{date}", s.auth.Middleware("admin", s.handleUnblockDate))
	mux.HandleFunc("POST /api/v1/rooms/{id}/retire", s.auth.Middleware("admin", s.handleRetireRoom))
	mux.HandleFunc("POST /api/v1/guests/{id}/release", s.auth.Middleware("admin", s.handleReleaseGuest))

	mux.HandleFunc("POST /api/v1/waitlist", s.auth.Middleware("write", s.handleRegisterWaitlist))

	return s.requestLog(mux)
}

// requestLog tags every request with an id and logs it on completion.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP API listening")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms_list")

	rooms, err := s.availability.ActiveRooms(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
}

func (s *Server) handleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")

	roomID, err := strconv.ParseInt(r.URL.Query().Get("room_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room_id")
		return
	}
	rng, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}

	checkErr := s.availability.Check(r.Context(), roomID, rng, r.URL.Query().Get("exclude_holder"))
	switch checkErr {
	case nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{"available": true})
	case domain.ErrUnavailable, domain.ErrMinimumStayNotMet, domain.ErrRoomInactive:
		writeJSON(w, http.StatusOK, map[string]interface{}{"available": false, "reason": checkErr.Error()})
	default:
		s.writeDomainError(w, checkErr)
	}
}

func (s *Server) handleAvailableRooms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms_available")

	rng, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}
	rooms, err := s.availability.AvailableRooms(r.Context(), rng)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
}

type acquireHoldRequest struct {
	RoomID     int64  `json:"room_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	HolderID   string `json:"holder_id"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

func (s *Server) handleAcquireHold(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("holds_acquire")

	var req acquireHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HolderID == "" {
		writeError(w, http.StatusBadRequest, "holder_id is required")
		return
	}
	rng, err := models.ParseDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date range")
		return
	}

	hold, err := s.holds.Acquire(r.Context(), req.RoomID, rng, req.HolderID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hold)
}

type renewHoldRequest struct {
	HolderID   string `json:"holder_id"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

func (s *Server) handleRenewHold(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("holds_renew")

	var req renewHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hold, err := s.holds.Renew(r.Context(), r.PathValue("id"), req.HolderID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hold)
}

func (s *Server) handleReleaseHold(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("holds_release")

	if err := s.holds.Release(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createBookingRequest struct {
	HoldID     string `json:"hold_id"`
	GuestID    int64  `json:"guest_id"`
	Guests     int    `json:"guests"`
	TotalPrice int64  `json:"total_price"`
	Notes      string `json:"notes"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_create")

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HoldID == "" {
		writeError(w, http.StatusBadRequest, "hold_id is required")
		return
	}

	booking, err := s.bookings.CreateFromHold(r.Context(), req.HoldID, req.GuestID, req.Guests, req.TotalPrice, req.Notes)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_confirm")
	s.handleTransition(w, r, s.bookings.Confirm)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_cancel")
	s.handleTransition(w, r, s.bookings.Cancel)
}

func (s *Server) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_complete")
	s.handleTransition(w, r, s.bookings.Complete)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (*models.Booking, error)) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := fn(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type blockDateRequest struct {
	Date          string `json:"date"`
	PriceOverride *int64 `json:"price_override"`
}

func (s *Server) handleBlockDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("blocks_create")

	roomID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	var req blockDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := time.ParseInLocation(models.DateLayout, req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	block, err := s.blocks.Block(r.Context(), roomID, date, req.PriceOverride)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (s *Server) handleUnblockDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("blocks_delete")

	roomID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	date, err := time.ParseInLocation(models.DateLayout, r.PathValue("date"), time.UTC)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	if err := s.blocks.Unblock(r.Context(), roomID, date); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRetireRoom(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms_retire")

	roomID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	released, err := s.bookings.ReleaseAllForRoom(r.Context(), roomID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"released": released})
}

func (s *Server) handleReleaseGuest(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("guests_release")

	guestID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid guest id")
		return
	}

	released, err := s.bookings.ReleaseAllForGuest(r.Context(), guestID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"released": released})
}

type waitlistRequest struct {
	RoomID   int64  `json:"room_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	GuestID  int64  `json:"guest_id"`
	Contact  string `json:"contact"`
}

func (s *Server) handleRegisterWaitlist(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("waitlist_register")

	var req waitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rng, err := models.ParseDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date range")
		return
	}

	entry := &models.WaitlistEntry{
		RoomID:   req.RoomID,
		CheckIn:  rng.CheckIn,
		CheckOut: rng.CheckOut,
		GuestID:  req.GuestID,
		Contact:  req.Contact,
	}
	if err := s.waitlist.Register(r.Context(), entry); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar")

	roomID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	rng, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}

	occ, err := s.calendar.Occupancy(r.Context(), roomID, rng)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")

	rng, ok := rangeFromQuery(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="occupancy.xlsx"`)
	if err := s.exporter.WriteOccupancy(r.Context(), rng, w); err != nil {
		s.logger.Error().Err(err).Msg("Occupancy export failed")
	}
}

func rangeFromQuery(w http.ResponseWriter, r *http.Request) (models.DateRange, bool) {
	rng, err := models.ParseDateRange(r.URL.Query().Get("check_in"), r.URL.Query().Get("check_out"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date range")
		return models.DateRange{}, false
	}
	return rng, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrMinimumStayNotMet):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, domain.ErrAlreadyBlocked),
		errors.Is(err, domain.ErrRoomInactive),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrHoldNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrHoldExpired):
		writeError(w, http.StatusGone, err.Error())
	default:
		s.logger.Error().Err(err).Msg("Unhandled error in HTTP handler")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
