package repository

import (
	"context"
	"sync"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/models"
)

// MemoryHoldRepository keeps holds in process memory. Used standalone in
// single-instance deployments and as the failover target when Redis is down.
type MemoryHoldRepository struct {
	mu    sync.RWMutex
	holds map[string]*models.ReservationHold
}

func NewMemoryHoldRepository() *MemoryHoldRepository {
	return &MemoryHoldRepository{
		holds: make(map[string]*models.ReservationHold),
	}
}

func (r *MemoryHoldRepository) Save(_ context.Context, hold *models.ReservationHold) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *hold
	r.holds[hold.ID] = &copied
	return nil
}

func (r *MemoryHoldRepository) Get(_ context.Context, id string) (*models.ReservationHold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hold, ok := r.holds[id]
	if !ok {
		return nil, domain.ErrHoldNotFound
	}
	copied := *hold
	return &copied, nil
}

func (r *MemoryHoldRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.holds, id)
	return nil
}

func (r *MemoryHoldRepository) ListByRoom(_ context.Context, roomID int64) ([]*models.ReservationHold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.ReservationHold
	for _, hold := range r.holds {
		if hold.RoomID == roomID {
			copied := *hold
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *MemoryHoldRepository) ListByHolder(_ context.Context, holderID string) ([]*models.ReservationHold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.ReservationHold
	for _, hold := range r.holds {
		if hold.HolderID == holderID {
			copied := *hold
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *MemoryHoldRepository) DeleteExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, hold := range r.holds {
		if !hold.Live(now) {
			delete(r.holds, id)
			removed++
		}
	}
	return removed, nil
}
