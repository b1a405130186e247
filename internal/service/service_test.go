package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"vacancy/internal/database"
	"vacancy/internal/domain"
	"vacancy/internal/models"
	"vacancy/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEngine struct {
	store        *database.DB
	holds        domain.HoldRepository
	availability *AvailabilityService
	holdSvc      *HoldService
	bookingSvc   *BookingService
	blockSvc     *BlockService
	waitlistSvc  *WaitlistService
	calendarSvc  *CalendarService
}

func setupEngine(t *testing.T) *testEngine {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	holds := repository.NewMemoryHoldRepository()
	locks := NewRoomLocks()
	availability := NewAvailabilityService(db, holds, &logger)
	waitlistSvc := NewWaitlistService(db, availability, &logger)
	holdSvc := NewHoldService(db, holds, availability, locks, models.DefaultHoldTTL, models.MaxHoldTTL, &logger)
	bookingSvc := NewBookingService(db, holds, availability, locks, waitlistSvc, &logger)
	blockSvc := NewBlockService(db, locks, waitlistSvc, &logger)
	calendarSvc := NewCalendarService(db, holds, &logger)

	require.NoError(t, db.UpsertRoom(context.Background(), &models.Room{
		ID: 1, Name: "Garden Suite", IsActive: true, MinNights: 1,
	}))
	require.NoError(t, db.UpsertRoom(context.Background(), &models.Room{
		ID: 2, Name: "Attic Room", IsActive: true, MinNights: 3,
	}))
	require.NoError(t, db.UpsertRoom(context.Background(), &models.Room{
		ID: 3, Name: "Old Barn", IsActive: false, MinNights: 1,
	}))

	return &testEngine{
		store:        db,
		holds:        holds,
		availability: availability,
		holdSvc:      holdSvc,
		bookingSvc:   bookingSvc,
		blockSvc:     blockSvc,
		waitlistSvc:  waitlistSvc,
		calendarSvc:  calendarSvc,
	}
}

func rng(t *testing.T, checkIn, checkOut string) models.DateRange {
	t.Helper()
	r, err := models.ParseDateRange(checkIn, checkOut)
	require.NoError(t, err)
	return r
}

func (e *testEngine) bookDirect(t *testing.T, roomID, guestID int64, r models.DateRange, status string) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		RoomID:  roomID,
		GuestID: guestID,
		CheckIn: r.CheckIn, CheckOut: r.CheckOut,
		Guests: 2,
		Status: status,
	}
	require.NoError(t, e.store.CreateBooking(context.Background(), booking))
	return booking
}

func TestAvailability_CheckFailureOrder(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	t.Run("invalid range", func(t *testing.T) {
		bad := models.DateRange{
			CheckIn:  time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC),
			CheckOut: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		}
		assert.ErrorIs(t, e.availability.Check(ctx, 1, bad, ""), domain.ErrInvalidRange)
	})

	t.Run("zero nights", func(t *testing.T) {
		day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, e.availability.Check(ctx, 1, models.DateRange{CheckIn: day, CheckOut: day}, ""), domain.ErrInvalidRange)
	})

	t.Run("unknown room", func(t *testing.T) {
		assert.ErrorIs(t, e.availability.Check(ctx, 999, rng(t, "2026-07-01", "2026-07-05"), ""), domain.ErrRoomNotFound)
	})

	t.Run("inactive room", func(t *testing.T) {
		assert.ErrorIs(t, e.availability.Check(ctx, 3, rng(t, "2026-07-01", "2026-07-05"), ""), domain.ErrRoomInactive)
	})

	t.Run("minimum stay", func(t *testing.T) {
		assert.ErrorIs(t, e.availability.Check(ctx, 2, rng(t, "2026-07-01", "2026-07-03"), ""), domain.ErrMinimumStayNotMet)
	})

	t.Run("free range passes", func(t *testing.T) {
		assert.NoError(t, e.availability.Check(ctx, 1, rng(t, "2026-07-01", "2026-07-05"), ""))
	})
}

func TestAvailability_AdjacentStaysDoNotConflict(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	e.bookDirect(t, 1, 100, rng(t, "2026-07-01", "2026-07-05"), models.StatusConfirmed)

	// Checkout day equals the next check-in day; both stays fit.
	assert.NoError(t, e.availability.Check(ctx, 1, rng(t, "2026-07-05", "2026-07-08"), ""))
	assert.NoError(t, e.availability.Check(ctx, 1, rng(t, "2026-06-28", "2026-07-01"), ""))

	assert.ErrorIs(t, e.availability.Check(ctx, 1, rng(t, "2026-07-04", "2026-07-06"), ""), domain.ErrUnavailable)
}

func TestAvailability_CancelledBookingFreesRange(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	booking := e.bookDirect(t, 1, 100, rng(t, "2026-07-01", "2026-07-05"), models.StatusPending)
	require.ErrorIs(t, e.availability.Check(ctx, 1, rng(t, "2026-07-02", "2026-07-04"), ""), domain.ErrUnavailable)

	_, err := e.bookingSvc.Cancel(ctx, booking.ID)
	require.NoError(t, err)

	assert.NoError(t, e.availability.Check(ctx, 1, rng(t, "2026-07-02", "2026-07-04"), ""))
}

func TestHolds_AcquireConflictsAndExpiry(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()
	r := rng(t, "2026-07-01", "2026-07-05")

	hold, err := e.holdSvc.Acquire(ctx, 1, r, "guest-a", 15*time.Minute)
	require.NoError(t, err)

	_, err = e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-03", "2026-07-07"), "guest-b", 15*time.Minute)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	// Adjacent hold is fine.
	_, err = e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-05", "2026-07-08"), "guest-b", 15*time.Minute)
	assert.NoError(t, err)

	// Expire the first hold in place; the range frees without any reaper run.
	hold.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, e.holds.Save(ctx, hold))

	_, err = e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-03", "2026-07-05"), "guest-c", 15*time.Minute)
	assert.NoError(t, err)
}

func TestHolds_OwnHoldDoesNotBlockHolder(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()
	r := rng(t, "2026-07-01", "2026-07-05")

	_, err := e.holdSvc.Acquire(ctx, 1, r, "guest-a", 15*time.Minute)
	require.NoError(t, err)

	// Same holder retrying checkout gets a fresh hold instead of a conflict.
	_, err = e.holdSvc.Acquire(ctx, 1, r, "guest-a", 15*time.Minute)
	assert.NoError(t, err)
}

func TestHolds_TTLClamping(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	hold, err := e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-01", "2026-07-05"), "guest-a", 10*models.MaxHoldTTL)
	require.NoError(t, err)
	assert.LessOrEqual(t, time.Until(hold.ExpiresAt), models.MaxHoldTTL)

	hold2, err := e.holdSvc.Acquire(ctx, 2, rng(t, "2026-07-01", "2026-07-05"), "guest-a", 0)
	require.NoError(t, err)
	assert.InDelta(t, models.DefaultHoldTTL.Seconds(), time.Until(hold2.ExpiresAt).Seconds(), 5)
}

func TestHolds_RenewAndRelease(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	hold, err := e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-01", "2026-07-05"), "guest-a", time.Minute)
	require.NoError(t, err)

	renewed, err := e.holdSvc.Renew(ctx, hold.ID, "guest-a", 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, renewed.ExpiresAt.After(hold.ExpiresAt))

	// Wrong holder cannot touch it.
	_, err = e.holdSvc.Renew(ctx, hold.ID, "guest-b", 30*time.Minute)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)

	require.NoError(t, e.holdSvc.Release(ctx, hold.ID))
	require.NoError(t, e.holdSvc.Release(ctx, hold.ID))

	_, err = e.holdSvc.Get(ctx, hold.ID)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestHolds_RenewExpiredFails(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	hold, err := e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-01", "2026-07-05"), "guest-a", time.Minute)
	require.NoError(t, err)

	hold.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, e.holds.Save(ctx, hold))

	_, err = e.holdSvc.Renew(ctx, hold.ID, "guest-a", 30*time.Minute)
	assert.ErrorIs(t, err, domain.ErrHoldExpired)
}

func TestHolds_ConcurrentAcquireSingleWinner(t *testing.T) {
	e := setupEngine(t)
	r := rng(t, "2026-07-01", "2026-07-05")

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := e.holdSvc.Acquire(context.Background(), 1, r, HolderForGuest(int64(n)), 15*time.Minute)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	granted, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			granted++
		case err == domain.ErrUnavailable:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, granted)
	assert.Equal(t, attempts-1, conflicts)
}

func TestBooking_CreateFromHoldLifecycle(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()
	r := rng(t, "2026-07-01", "2026-07-05")

	hold, err := e.holdSvc.Acquire(ctx, 1, r, HolderForGuest(100), 15*time.Minute)
	require.NoError(t, err)

	booking, err := e.bookingSvc.CreateFromHold(ctx, hold.ID, 100, 2, 40000, "late arrival")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.True(t, r.CheckIn.Equal(booking.CheckIn))

	// Hold is consumed by conversion.
	_, err = e.holdSvc.Get(ctx, hold.ID)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)

	// Range stays taken by the pending booking.
	_, err = e.holdSvc.Acquire(ctx, 1, r, "guest-x", 15*time.Minute)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	confirmed, err := e.bookingSvc.Confirm(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.Equal(t, booking.Version+1, confirmed.Version)

	// Confirming twice is an invalid transition.
	_, err = e.bookingSvc.Confirm(ctx, booking.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestBooking_CreateFromExpiredHold(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	hold, err := e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-01", "2026-07-05"), "guest-a", time.Minute)
	require.NoError(t, err)

	hold.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, e.holds.Save(ctx, hold))

	_, err = e.bookingSvc.CreateFromHold(ctx, hold.ID, 100, 2, 0, "")
	assert.ErrorIs(t, err, domain.ErrHoldExpired)

	// The dead hold was dropped on the way out.
	_, err = e.holds.Get(ctx, hold.ID)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestBooking_CompleteRequiresCheckoutPassed(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	past := e.bookDirect(t, 1, 100, rng(t, "2026-01-01", "2026-01-05"), models.StatusConfirmed)
	future := e.bookDirect(t, 1, 100, rng(t, "2099-01-01", "2099-01-05"), models.StatusConfirmed)

	completed, err := e.bookingSvc.Complete(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)

	_, err = e.bookingSvc.Complete(ctx, future.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Pending bookings cannot complete either.
	pending := e.bookDirect(t, 1, 100, rng(t, "2026-02-01", "2026-02-05"), models.StatusPending)
	_, err = e.bookingSvc.Complete(ctx, pending.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestBooking_CancelTerminalStatesRejected(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	booking := e.bookDirect(t, 1, 100, rng(t, "2026-07-01", "2026-07-05"), models.StatusPending)

	_, err := e.bookingSvc.Cancel(ctx, booking.ID)
	require.NoError(t, err)

	_, err = e.bookingSvc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	completed := e.bookDirect(t, 1, 100, rng(t, "2026-01-01", "2026-01-05"), models.StatusCompleted)
	_, err = e.bookingSvc.Cancel(ctx, completed.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestBooking_ReleaseAllForGuest(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	pending := e.bookDirect(t, 1, 100, rng(t, "2026-07-01", "2026-07-05"), models.StatusPending)
	confirmed := e.bookDirect(t, 1, 100, rng(t, "2026-08-01", "2026-08-05"), models.StatusConfirmed)
	otherGuest := e.bookDirect(t, 1, 200, rng(t, "2026-09-01", "2026-09-05"), models.StatusPending)

	_, err := e.holdSvc.Acquire(ctx, 2, rng(t, "2026-07-10", "2026-07-14"), HolderForGuest(100), 15*time.Minute)
	require.NoError(t, err)

	released, err := e.bookingSvc.ReleaseAllForGuest(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	got, err := e.store.GetBooking(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	// Confirmed stays and other guests' bookings survive.
	got, err = e.store.GetBooking(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	got, err = e.store.GetBooking(ctx, otherGuest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	holds, err := e.holds.ListByHolder(ctx, HolderForGuest(100))
	require.NoError(t, err)
	assert.Empty(t, holds)
}

func TestBooking_ReleaseAllForRoom(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	pending := e.bookDirect(t, 1, 100, rng(t, "2026-07-01", "2026-07-05"), models.StatusPending)
	confirmed := e.bookDirect(t, 1, 200, rng(t, "2026-08-01", "2026-08-05"), models.StatusConfirmed)

	_, err := e.holdSvc.Acquire(ctx, 1, rng(t, "2026-09-01", "2026-09-05"), "guest-x", 15*time.Minute)
	require.NoError(t, err)

	released, err := e.bookingSvc.ReleaseAllForRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	got, err := e.store.GetBooking(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	got, err = e.store.GetBooking(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	room, err := e.store.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.False(t, room.IsActive)

	holds, err := e.holds.ListByRoom(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, holds)
}

func TestBlocks_BlockDoesNotTouchBookings(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	booking := e.bookDirect(t, 1, 100, rng(t, "2026-07-01", "2026-07-05"), models.StatusConfirmed)

	_, err := e.blockSvc.Block(ctx, 1, time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	got, err := e.store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	// Claims over the blocked date are refused; other ranges stay open.
	assert.ErrorIs(t, e.availability.Check(ctx, 1, rng(t, "2026-07-03", "2026-07-06"), ""), domain.ErrUnavailable)
	assert.NoError(t, e.availability.Check(ctx, 1, rng(t, "2026-07-05", "2026-07-08"), ""))
	assert.NoError(t, e.availability.Check(ctx, 1, rng(t, "2026-08-03", "2026-08-04"), ""))
}

func TestBlocks_BlockRefusesClaimsOnDate(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	_, err := e.blockSvc.Block(ctx, 1, time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	_, err = e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-01", "2026-07-05"), "guest-a", 15*time.Minute)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	// A range ending on the blocked date is fine under half-open semantics.
	_, err = e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-01", "2026-07-03"), "guest-a", 15*time.Minute)
	assert.NoError(t, err)
}

func TestBlocks_DoubleBlockAndUnblock(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()
	day := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)

	_, err := e.blockSvc.Block(ctx, 1, day, nil)
	require.NoError(t, err)

	_, err = e.blockSvc.Block(ctx, 1, day, nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyBlocked)

	require.NoError(t, e.blockSvc.Unblock(ctx, 1, day))
	require.NoError(t, e.blockSvc.Unblock(ctx, 1, day))

	assert.NoError(t, e.availability.Check(ctx, 1, rng(t, "2026-07-03", "2026-07-04"), ""))
}

func TestWaitlist_NotifiedExactlyOnceOnCancellation(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	// Guest A holds and books July 1-5.
	holdA, err := e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-01", "2026-07-05"), HolderForGuest(100), 15*time.Minute)
	require.NoError(t, err)
	bookingA, err := e.bookingSvc.CreateFromHold(ctx, holdA.ID, 100, 2, 0, "")
	require.NoError(t, err)
	_, err = e.bookingSvc.Confirm(ctx, bookingA.ID)
	require.NoError(t, err)

	// Guest B wants July 3-6, is refused, joins the waitlist.
	_, err = e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-03", "2026-07-06"), HolderForGuest(200), 15*time.Minute)
	require.ErrorIs(t, err, domain.ErrUnavailable)

	entry := &models.WaitlistEntry{
		RoomID:  1,
		CheckIn: rng(t, "2026-07-03", "2026-07-06").CheckIn, CheckOut: rng(t, "2026-07-03", "2026-07-06").CheckOut,
		GuestID: 200,
		Contact: "guest-b@example.com",
	}
	require.NoError(t, e.waitlistSvc.Register(ctx, entry))

	// Guest A cancels; the cancel path sweeps and notifies B.
	_, err = e.bookingSvc.Cancel(ctx, bookingA.ID)
	require.NoError(t, err)

	entries, err := e.store.UnnotifiedByRoom(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)

	notifications, err := e.store.PendingNotifications(ctx, 100)
	require.NoError(t, err)
	waitlisted := 0
	for _, n := range notifications {
		if n.EventType == "waitlist_notified" {
			waitlisted++
		}
	}
	assert.Equal(t, 1, waitlisted)

	// A second sweep finds nothing to do.
	notified, err := e.waitlistSvc.Sweep(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, notified)
}

func TestWaitlist_SweepSkipsStillTakenRanges(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	first := e.bookDirect(t, 1, 100, rng(t, "2026-07-01", "2026-07-05"), models.StatusConfirmed)
	e.bookDirect(t, 1, 101, rng(t, "2026-07-05", "2026-07-10"), models.StatusConfirmed)

	require.NoError(t, e.waitlistSvc.Register(ctx, &models.WaitlistEntry{
		RoomID:  1,
		CheckIn: rng(t, "2026-07-02", "2026-07-04").CheckIn, CheckOut: rng(t, "2026-07-02", "2026-07-04").CheckOut,
		GuestID: 200, Contact: "b@example.com",
	}))
	require.NoError(t, e.waitlistSvc.Register(ctx, &models.WaitlistEntry{
		RoomID:  1,
		CheckIn: rng(t, "2026-07-06", "2026-07-08").CheckIn, CheckOut: rng(t, "2026-07-06", "2026-07-08").CheckOut,
		GuestID: 300, Contact: "c@example.com",
	}))

	// Only the first stay is cancelled; the second entry's range stays taken.
	_, err := e.bookingSvc.Cancel(ctx, first.ID)
	require.NoError(t, err)

	entries, err := e.store.UnnotifiedByRoom(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(300), entries[0].GuestID)
}

func TestWaitlist_ConcurrentSweepsSingleNotification(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, e.waitlistSvc.Register(ctx, &models.WaitlistEntry{
		RoomID:  1,
		CheckIn: rng(t, "2026-07-01", "2026-07-05").CheckIn, CheckOut: rng(t, "2026-07-01", "2026-07-05").CheckOut,
		GuestID: 200, Contact: "b@example.com",
	}))

	const sweepers = 8
	var wg sync.WaitGroup
	total := make(chan int, sweepers)
	for i := 0; i < sweepers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := e.waitlistSvc.Sweep(ctx, 1)
			assert.NoError(t, err)
			total <- n
		}()
	}
	wg.Wait()
	close(total)

	sum := 0
	for n := range total {
		sum += n
	}
	assert.Equal(t, 1, sum)
}

func TestCalendar_OccupancyProjection(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	e.bookDirect(t, 1, 100, rng(t, "2026-07-01", "2026-07-05"), models.StatusConfirmed)
	e.bookDirect(t, 1, 101, rng(t, "2026-06-20", "2026-06-25"), models.StatusCompleted)
	cancelled := e.bookDirect(t, 1, 102, rng(t, "2026-07-10", "2026-07-12"), models.StatusPending)
	_, err := e.bookingSvc.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	_, err = e.blockSvc.Block(ctx, 1, time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	occ, err := e.calendarSvc.Occupancy(ctx, 1, rng(t, "2026-06-01", "2026-08-01"))
	require.NoError(t, err)

	// Completed stays appear; cancelled ones do not.
	assert.Len(t, occ.Bookings, 2)
	assert.Len(t, occ.Blocked, 1)
}

func TestCalendar_LiveHoldsFilterExpired(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	live, err := e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-01", "2026-07-05"), "guest-a", 15*time.Minute)
	require.NoError(t, err)

	dead, err := e.holdSvc.Acquire(ctx, 1, rng(t, "2026-07-10", "2026-07-12"), "guest-b", 15*time.Minute)
	require.NoError(t, err)
	dead.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, e.holds.Save(ctx, dead))

	holds, err := e.calendarSvc.LiveHolds(ctx, 1)
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, live.ID, holds[0].ID)
}

func TestAvailability_AvailableRooms(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	e.bookDirect(t, 1, 100, rng(t, "2026-07-01", "2026-07-05"), models.StatusConfirmed)

	rooms, err := e.availability.AvailableRooms(ctx, rng(t, "2026-07-02", "2026-07-04"))
	require.NoError(t, err)

	// Room 1 is taken, room 2 needs 3 nights, room 3 is inactive.
	assert.Empty(t, rooms)

	rooms, err = e.availability.AvailableRooms(ctx, rng(t, "2026-08-01", "2026-08-05"))
	require.NoError(t, err)
	require.Len(t, rooms, 2)
}
