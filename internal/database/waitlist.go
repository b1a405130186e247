package database

import (
	"context"
	"fmt"
	"time"

	"vacancy/internal/models"
)

func (db *DB) CreateWaitlistEntry(ctx context.Context, entry *models.WaitlistEntry) error {
	query := `INSERT INTO waitlist (room_id, check_in, check_out, guest_id, contact, notified, created_at)
              VALUES (?, ?, ?, ?, ?, 0, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		entry.RoomID,
		entry.CheckIn.Format(models.DateLayout),
		entry.CheckOut.Format(models.DateLayout),
		entry.GuestID,
		entry.Contact,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	entry.Notified = false
	entry.CreatedAt = now
	return nil
}

func (db *DB) UnnotifiedByRoom(ctx context.Context, roomID int64) ([]*models.WaitlistEntry, error) {
	query := `SELECT id, room_id, check_in, check_out, guest_id, contact, notified, created_at
              FROM waitlist WHERE room_id = ? AND notified = 0 ORDER BY created_at`
	rows, err := db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.WaitlistEntry
	for rows.Next() {
		e := &models.WaitlistEntry{}
		var checkIn, checkOut string
		if err := rows.Scan(&e.ID, &e.RoomID, &checkIn, &checkOut, &e.GuestID, &e.Contact, &e.Notified, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan waitlist entry: %w", err)
		}
		if e.CheckIn, err = time.ParseInLocation(models.DateLayout, checkIn, time.UTC); err != nil {
			return nil, fmt.Errorf("failed to parse waitlist check_in %s: %w", checkIn, err)
		}
		if e.CheckOut, err = time.ParseInLocation(models.DateLayout, checkOut, time.UTC); err != nil {
			return nil, fmt.Errorf("failed to parse waitlist check_out %s: %w", checkOut, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkWaitlistNotified flips the notified flag exactly once. The notified = 0
// guard makes concurrent sweeps race-safe: only one caller sees true.
func (db *DB) MarkWaitlistNotified(ctx context.Context, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE waitlist SET notified = 1 WHERE id = ? AND notified = 0`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark waitlist entry notified: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}
