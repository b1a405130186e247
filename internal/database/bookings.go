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

const bookingColumns = `id, room_id, guest_id, check_in, check_out, guests, status, total_price, notes, created_at, updated_at, version`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (room_id, guest_id, check_in, check_out, guests, status, total_price, notes, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.RoomID,
		booking.GuestID,
		booking.CheckIn.Format(models.DateLayout),
		booking.CheckOut.Format(models.DateLayout),
		booking.Guests,
		booking.Status,
		booking.TotalPrice,
		booking.Notes,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

// CreateBookingExclusive re-checks for overlapping active bookings and
// inserts inside a single transaction. The caller already serializes on the
// room lock; the transaction keeps the no-overlap invariant even if a future
// code path ever writes without it.
func (db *DB) CreateBookingExclusive(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var overlapping int
	queryCount := `SELECT COUNT(*) FROM bookings
                   WHERE room_id = ? AND status IN (?, ?)
                   AND check_in < ? AND check_out > ?`
	err = tx.QueryRowContext(ctx, queryCount,
		booking.RoomID, models.StatusPending, models.StatusConfirmed,
		booking.CheckOut.Format(models.DateLayout),
		booking.CheckIn.Format(models.DateLayout),
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if overlapping > 0 {
		return domain.ErrUnavailable
	}

	queryInsert := `INSERT INTO bookings (room_id, guest_id, check_in, check_out, guests, status, total_price, notes, created_at, updated_at, version)
                    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.RoomID,
		booking.GuestID,
		booking.CheckIn.Format(models.DateLayout),
		booking.CheckOut.Format(models.DateLayout),
		booking.Guests,
		booking.Status,
		booking.TotalPrice,
		booking.Notes,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	row := db.QueryRowContext(ctx, query, id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// OverlappingBookings returns pending and confirmed bookings whose range
// overlaps rng under the half-open convention.
func (db *DB) OverlappingBookings(ctx context.Context, roomID int64, rng models.DateRange) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE room_id = ? AND status IN (?, ?)
              AND check_in < ? AND check_out > ?
              ORDER BY check_in`
	rows, err := db.QueryContext(ctx, query,
		roomID, models.StatusPending, models.StatusConfirmed,
		rng.CheckOut.Format(models.DateLayout), rng.CheckIn.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get overlapping bookings: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

// BookingsIntersecting returns every non-cancelled booking intersecting rng,
// completed stays included. Used by the calendar projection.
func (db *DB) BookingsIntersecting(ctx context.Context, roomID int64, rng models.DateRange) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE room_id = ? AND status != ?
              AND check_in < ? AND check_out > ?
              ORDER BY check_in`
	rows, err := db.QueryContext(ctx, query,
		roomID, models.StatusCancelled,
		rng.CheckOut.Format(models.DateLayout), rng.CheckIn.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get intersecting bookings: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (db *DB) ListPendingByGuest(ctx context.Context, guestID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE guest_id = ? AND status = ? ORDER BY check_in`
	rows, err := db.QueryContext(ctx, query, guestID, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending bookings by guest: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (db *DB) ListPendingByRoom(ctx context.Context, roomID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE room_id = ? AND status = ? ORDER BY check_in`
	rows, err := db.QueryContext(ctx, query, roomID, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending bookings by room: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var checkIn, checkOut string
	err := row.Scan(
		&b.ID, &b.RoomID, &b.GuestID, &checkIn, &checkOut, &b.Guests,
		&b.Status, &b.TotalPrice, &b.Notes, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	if b.CheckIn, err = time.ParseInLocation(models.DateLayout, checkIn, time.UTC); err != nil {
		return nil, fmt.Errorf("failed to parse check_in %s: %w", checkIn, err)
	}
	if b.CheckOut, err = time.ParseInLocation(models.DateLayout, checkOut, time.UTC); err != nil {
		return nil, fmt.Errorf("failed to parse check_out %s: %w", checkOut, err)
	}
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
