package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/models"
)

// InsertBlockedDate checks and inserts inside a single transaction. Returns
// ErrAlreadyBlocked when an active block already covers the room-date; the
// dashboard treats that as idempotent success.
func (db *DB) InsertBlockedDate(ctx context.Context, block *models.BlockedDate) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	dateStr := models.Day(block.Date).Format(models.DateLayout)

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blocked_dates WHERE room_id = ? AND date = ? AND blocked = 1`,
		block.RoomID, dateStr,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("failed to check existing block: %w", err)
	}
	if existing > 0 {
		return domain.ErrAlreadyBlocked
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO blocked_dates (room_id, date, blocked, price_override, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(room_id, date) DO UPDATE SET
             blocked = excluded.blocked,
             price_override = excluded.price_override`,
		block.RoomID, dateStr, block.Blocked, block.PriceOverride, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert blocked date: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		block.ID = id
	}
	block.Date = models.Day(block.Date)
	block.CreatedAt = now

	return tx.Commit()
}

// DeleteBlockedDate is idempotent: removing an absent block is not an error.
func (db *DB) DeleteBlockedDate(ctx context.Context, roomID int64, date time.Time) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM blocked_dates WHERE room_id = ? AND date = ?`,
		roomID, models.Day(date).Format(models.DateLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to delete blocked date: %w", err)
	}
	return nil
}

func (db *DB) BlockedDatesInRange(ctx context.Context, roomID int64, rng models.DateRange) ([]*models.BlockedDate, error) {
	query := `SELECT id, room_id, date, blocked, price_override, created_at
              FROM blocked_dates
              WHERE room_id = ? AND date >= ? AND date < ?
              ORDER BY date`
	rows, err := db.QueryContext(ctx, query, roomID,
		rng.CheckIn.Format(models.DateLayout), rng.CheckOut.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get blocked dates: %w", err)
	}
	defer rows.Close()
	return scanBlockedDates(rows)
}

// CountActiveBlocks returns the number of blocked dates inside rng. Used on
// the availability decision path.
func (db *DB) CountActiveBlocks(ctx context.Context, roomID int64, rng models.DateRange) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blocked_dates WHERE room_id = ? AND blocked = 1 AND date >= ? AND date < ?`,
		roomID, rng.CheckIn.Format(models.DateLayout), rng.CheckOut.Format(models.DateLayout),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active blocks: %w", err)
	}
	return count, nil
}

func scanBlockedDates(rows *sql.Rows) ([]*models.BlockedDate, error) {
	var blocks []*models.BlockedDate
	for rows.Next() {
		b := &models.BlockedDate{}
		var dateStr string
		if err := rows.Scan(&b.ID, &b.RoomID, &dateStr, &b.Blocked, &b.PriceOverride, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blocked date: %w", err)
		}
		date, err := time.ParseInLocation(models.DateLayout, dateStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse blocked date %s: %w", dateStr, err)
		}
		b.Date = date
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
