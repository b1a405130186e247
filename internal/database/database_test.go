package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"vacancy/internal/domain"
	"vacancy/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustRange(t *testing.T, checkIn, checkOut string) models.DateRange {
	t.Helper()
	r, err := models.ParseDateRange(checkIn, checkOut)
	require.NoError(t, err)
	return r
}

func insertBooking(t *testing.T, db *DB, roomID, guestID int64, checkIn, checkOut, status string) *models.Booking {
	t.Helper()
	r := mustRange(t, checkIn, checkOut)
	b := &models.Booking{
		RoomID: roomID, GuestID: guestID,
		CheckIn: r.CheckIn, CheckOut: r.CheckOut,
		Guests: 2, Status: status,
	}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

func TestRooms_CreateGetDeactivate(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	room := &models.Room{Name: "Garden Suite", IsActive: true}
	require.NoError(t, db.CreateRoom(ctx, room))
	require.NotZero(t, room.ID)
	assert.Equal(t, models.DefaultMinNights, room.MinNights)

	got, err := db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garden Suite", got.Name)
	assert.True(t, got.IsActive)

	_, err = db.GetRoom(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	require.NoError(t, db.DeactivateRoom(ctx, room.ID))
	got, err = db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := db.GetActiveRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRooms_UpsertKeepsID(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertRoom(ctx, &models.Room{ID: 7, Name: "Attic", IsActive: true, MinNights: 2}))
	require.NoError(t, db.UpsertRoom(ctx, &models.Room{ID: 7, Name: "Attic Deluxe", IsActive: true, MinNights: 3}))

	got, err := db.GetRoom(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Attic Deluxe", got.Name)
	assert.Equal(t, 3, got.MinNights)
}

func TestBookings_OverlapQueriesHalfOpen(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	insertBooking(t, db, 1, 100, "2026-07-01", "2026-07-05", models.StatusConfirmed)

	overlapping, err := db.OverlappingBookings(ctx, 1, mustRange(t, "2026-07-04", "2026-07-06"))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)

	// Adjacent ranges share a boundary date but no night.
	overlapping, err = db.OverlappingBookings(ctx, 1, mustRange(t, "2026-07-05", "2026-07-08"))
	require.NoError(t, err)
	assert.Empty(t, overlapping)

	overlapping, err = db.OverlappingBookings(ctx, 1, mustRange(t, "2026-06-28", "2026-07-01"))
	require.NoError(t, err)
	assert.Empty(t, overlapping)

	// Other rooms are unaffected.
	overlapping, err = db.OverlappingBookings(ctx, 2, mustRange(t, "2026-07-01", "2026-07-05"))
	require.NoError(t, err)
	assert.Empty(t, overlapping)
}

func TestBookings_OverlapIgnoresCancelledAndCompleted(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	insertBooking(t, db, 1, 100, "2026-07-01", "2026-07-05", models.StatusCancelled)
	insertBooking(t, db, 1, 101, "2026-07-01", "2026-07-05", models.StatusCompleted)

	overlapping, err := db.OverlappingBookings(ctx, 1, mustRange(t, "2026-07-01", "2026-07-05"))
	require.NoError(t, err)
	assert.Empty(t, overlapping)

	// The calendar projection still sees the completed stay.
	intersecting, err := db.BookingsIntersecting(ctx, 1, mustRange(t, "2026-07-01", "2026-07-05"))
	require.NoError(t, err)
	assert.Len(t, intersecting, 1)
	assert.Equal(t, models.StatusCompleted, intersecting[0].Status)
}

func TestBookings_CreateExclusiveRejectsOverlap(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	first := &models.Booking{
		RoomID: 1, GuestID: 100,
		CheckIn:  mustRange(t, "2026-07-01", "2026-07-05").CheckIn,
		CheckOut: mustRange(t, "2026-07-01", "2026-07-05").CheckOut,
		Status:   models.StatusPending,
	}
	require.NoError(t, db.CreateBookingExclusive(ctx, first))
	require.NotZero(t, first.ID)

	second := &models.Booking{
		RoomID: 1, GuestID: 200,
		CheckIn:  mustRange(t, "2026-07-03", "2026-07-07").CheckIn,
		CheckOut: mustRange(t, "2026-07-03", "2026-07-07").CheckOut,
		Status:   models.StatusPending,
	}
	assert.ErrorIs(t, db.CreateBookingExclusive(ctx, second), domain.ErrUnavailable)

	adjacent := &models.Booking{
		RoomID: 1, GuestID: 200,
		CheckIn:  mustRange(t, "2026-07-05", "2026-07-08").CheckIn,
		CheckOut: mustRange(t, "2026-07-05", "2026-07-08").CheckOut,
		Status:   models.StatusPending,
	}
	assert.NoError(t, db.CreateBookingExclusive(ctx, adjacent))
}

func TestBookings_ConcurrentExclusiveInsertsSingleWinner(t *testing.T) {
	db := setupDB(t)
	r := mustRange(t, "2026-07-01", "2026-07-05")

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			results <- db.CreateBookingExclusive(context.Background(), &models.Booking{
				RoomID: 1, GuestID: n,
				CheckIn: r.CheckIn, CheckOut: r.CheckOut,
				Status: models.StatusPending,
			})
		}(int64(i))
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrUnavailable)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestBookings_OptimisticVersioning(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	b := insertBooking(t, db, 1, 100, "2026-07-01", "2026-07-05", models.StatusPending)
	require.Equal(t, int64(1), b.Version)

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusConfirmed))

	// Stale version loses.
	err := db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, 2, models.StatusCancelled))
}

func TestBookings_ListPending(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	insertBooking(t, db, 1, 100, "2026-07-01", "2026-07-05", models.StatusPending)
	insertBooking(t, db, 2, 100, "2026-08-01", "2026-08-05", models.StatusPending)
	insertBooking(t, db, 1, 100, "2026-09-01", "2026-09-05", models.StatusConfirmed)
	insertBooking(t, db, 1, 200, "2026-10-01", "2026-10-05", models.StatusPending)

	byGuest, err := db.ListPendingByGuest(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, byGuest, 2)

	byRoom, err := db.ListPendingByRoom(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byRoom, 2)
}

func TestBlockedDates_InsertDuplicateAndDelete(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	day := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.InsertBlockedDate(ctx, &models.BlockedDate{RoomID: 1, Date: day, Blocked: true}))

	err := db.InsertBlockedDate(ctx, &models.BlockedDate{RoomID: 1, Date: day, Blocked: true})
	assert.ErrorIs(t, err, domain.ErrAlreadyBlocked)

	// Same date on another room is independent.
	require.NoError(t, db.InsertBlockedDate(ctx, &models.BlockedDate{RoomID: 2, Date: day, Blocked: true}))

	count, err := db.CountActiveBlocks(ctx, 1, mustRange(t, "2026-07-01", "2026-07-05"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Half-open: a range ending on the blocked date does not include it.
	count, err = db.CountActiveBlocks(ctx, 1, mustRange(t, "2026-07-01", "2026-07-03"))
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, db.DeleteBlockedDate(ctx, 1, day))
	require.NoError(t, db.DeleteBlockedDate(ctx, 1, day))

	count, err = db.CountActiveBlocks(ctx, 1, mustRange(t, "2026-07-01", "2026-07-05"))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBlockedDates_PriceOverrideRoundTrip(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	price := int64(12000)
	require.NoError(t, db.InsertBlockedDate(ctx, &models.BlockedDate{
		RoomID: 1, Date: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC), Blocked: true, PriceOverride: &price,
	}))

	blocks, err := db.BlockedDatesInRange(ctx, 1, mustRange(t, "2026-07-01", "2026-07-05"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].PriceOverride)
	assert.Equal(t, price, *blocks[0].PriceOverride)
}

func TestWaitlist_MarkNotifiedExactlyOnce(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	r := mustRange(t, "2026-07-01", "2026-07-05")
	entry := &models.WaitlistEntry{
		RoomID: 1, CheckIn: r.CheckIn, CheckOut: r.CheckOut,
		GuestID: 200, Contact: "b@example.com",
	}
	require.NoError(t, db.CreateWaitlistEntry(ctx, entry))
	require.NotZero(t, entry.ID)

	unnotified, err := db.UnnotifiedByRoom(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unnotified, 1)

	won, err := db.MarkWaitlistNotified(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, won)

	// The guarded update only succeeds once.
	won, err = db.MarkWaitlistNotified(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, won)

	unnotified, err = db.UnnotifiedByRoom(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, unnotified)
}

func TestOutbox_PendingAndStatusTransitions(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := &models.Notification{
		EventType: "booking_created", BookingID: 1,
		Payload: `{"booking_id":1}`, Status: models.NotificationPending,
	}
	require.NoError(t, db.CreateNotification(ctx, n))
	require.NotZero(t, n.ID)

	pending, err := db.PendingNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Scheduling a retry in the future hides the row until it is due.
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateNotificationStatus(ctx, n.ID, models.NotificationRetry, "boom", &future))

	pending, err = db.PendingNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.UpdateNotificationStatus(ctx, n.ID, models.NotificationRetry, "boom", &past))

	pending, err = db.PendingNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)

	require.NoError(t, db.UpdateNotificationStatus(ctx, n.ID, models.NotificationFailed, "gave up", nil))

	failed, err := db.FailedNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "gave up", *failed[0].LastError)
}
