package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	holdKeyPrefix   = "hold:"
	roomIndexPrefix = "room_holds:"
	holderIndex     = "holder_holds:"
)

// RedisHoldRepository stores each hold as a JSON value with a native TTL, so
// Redis itself reaps expired holds. Room and holder index sets can reference
// already-expired keys; lookups skip dangling members and prune them lazily.
type RedisHoldRepository struct {
	client *redis.Client
}

func NewRedisHoldRepository(client *redis.Client) *RedisHoldRepository {
	return &RedisHoldRepository{client: client}
}

func holdKey(id string) string {
	return holdKeyPrefix + id
}

func roomIndexKey(roomID int64) string {
	return fmt.Sprintf("%s%d", roomIndexPrefix, roomID)
}

func holderIndexKey(holderID string) string {
	return holderIndex + holderID
}

func (r *RedisHoldRepository) Save(ctx context.Context, hold *models.ReservationHold) error {
	data, err := json.Marshal(hold)
	if err != nil {
		return fmt.Errorf("failed to marshal hold: %w", err)
	}

	ttl := time.Until(hold.ExpiresAt)
	if ttl <= 0 {
		return domain.ErrHoldExpired
	}

	// Index sets must outlive every hold they reference.
	indexTTL := models.MaxHoldTTL
	if ttl > indexTTL {
		indexTTL = ttl
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, holdKey(hold.ID), data, ttl)
	pipe.SAdd(ctx, roomIndexKey(hold.RoomID), hold.ID)
	pipe.Expire(ctx, roomIndexKey(hold.RoomID), indexTTL)
	pipe.SAdd(ctx, holderIndexKey(hold.HolderID), hold.ID)
	pipe.Expire(ctx, holderIndexKey(hold.HolderID), indexTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save hold: %w", err)
	}
	return nil
}

func (r *RedisHoldRepository) Get(ctx context.Context, id string) (*models.ReservationHold, error) {
	data, err := r.client.Get(ctx, holdKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hold: %w", err)
	}

	var hold models.ReservationHold
	if err := json.Unmarshal(data, &hold); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hold: %w", err)
	}
	return &hold, nil
}

func (r *RedisHoldRepository) Delete(ctx context.Context, id string) error {
	hold, err := r.Get(ctx, id)
	if err == domain.ErrHoldNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, holdKey(id))
	pipe.SRem(ctx, roomIndexKey(hold.RoomID), id)
	pipe.SRem(ctx, holderIndexKey(hold.HolderID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete hold: %w", err)
	}
	return nil
}

func (r *RedisHoldRepository) ListByRoom(ctx context.Context, roomID int64) ([]*models.ReservationHold, error) {
	return r.listFromIndex(ctx, roomIndexKey(roomID))
}

func (r *RedisHoldRepository) ListByHolder(ctx context.Context, holderID string) ([]*models.ReservationHold, error) {
	return r.listFromIndex(ctx, holderIndexKey(holderID))
}

func (r *RedisHoldRepository) listFromIndex(ctx context.Context, indexKey string) ([]*models.ReservationHold, error) {
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hold index: %w", err)
	}

	var result []*models.ReservationHold
	var dangling []interface{}
	for _, id := range ids {
		hold, err := r.Get(ctx, id)
		if err == domain.ErrHoldNotFound {
			dangling = append(dangling, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, hold)
	}

	if len(dangling) > 0 {
		r.client.SRem(ctx, indexKey, dangling...)
	}
	return result, nil
}

// DeleteExpired is a no-op: Redis evicts expired hold keys itself, and index
// sets are pruned lazily on read.
func (r *RedisHoldRepository) DeleteExpired(_ context.Context) (int, error) {
	return 0, nil
}

// Ping checks connectivity for the failover wrapper.
func (r *RedisHoldRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
