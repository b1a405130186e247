package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/models"
)

func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	query := `INSERT INTO rooms (tenant_id, name, is_active, min_nights, check_in_time, check_out_time, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	minNights := room.MinNights
	if minNights <= 0 {
		minNights = models.DefaultMinNights
	}
	result, err := db.ExecContext(ctx, query,
		room.TenantID,
		room.Name,
		room.IsActive,
		minNights,
		room.CheckInTime,
		room.CheckOutTime,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	room.ID = id
	room.MinNights = minNights
	room.CreatedAt = now
	room.UpdatedAt = now
	return nil
}

// UpsertRoom inserts or refreshes a room with a fixed id. Used when seeding
// rooms from the configuration file at startup.
func (db *DB) UpsertRoom(ctx context.Context, room *models.Room) error {
	query := `INSERT INTO rooms (id, tenant_id, name, is_active, min_nights, check_in_time, check_out_time, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  tenant_id = excluded.tenant_id,
                  name = excluded.name,
                  is_active = excluded.is_active,
                  min_nights = excluded.min_nights,
                  check_in_time = excluded.check_in_time,
                  check_out_time = excluded.check_out_time,
                  updated_at = excluded.updated_at`
	now := time.Now()
	minNights := room.MinNights
	if minNights <= 0 {
		minNights = models.DefaultMinNights
	}
	_, err := db.ExecContext(ctx, query,
		room.ID,
		room.TenantID,
		room.Name,
		room.IsActive,
		minNights,
		room.CheckInTime,
		room.CheckOutTime,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert room: %w", err)
	}
	return nil
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	query := `SELECT id, tenant_id, name, is_active, min_nights, check_in_time, check_out_time, created_at, updated_at
              FROM rooms WHERE id = ?`
	var room models.Room
	err := db.QueryRowContext(ctx, query, id).Scan(
		&room.ID, &room.TenantID, &room.Name, &room.IsActive, &room.MinNights,
		&room.CheckInTime, &room.CheckOutTime, &room.CreatedAt, &room.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func (db *DB) GetActiveRooms(ctx context.Context) ([]*models.Room, error) {
	query := `SELECT id, tenant_id, name, is_active, min_nights, check_in_time, check_out_time, created_at, updated_at
              FROM rooms WHERE is_active = 1 ORDER BY id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(
			&room.ID, &room.TenantID, &room.Name, &room.IsActive, &room.MinNights,
			&room.CheckInTime, &room.CheckOutTime, &room.CreatedAt, &room.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// DeactivateRoom stops new bookings; existing bookings stay untouched.
func (db *DB) DeactivateRoom(ctx context.Context, id int64) error {
	query := `UPDATE rooms SET is_active = 0, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), id)
	return err
}
