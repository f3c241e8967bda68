package bookings

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"cineplex/internal/shared/apperror"
	"cineplex/internal/shared/config"
	"cineplex/internal/showtimes"
	"cineplex/pkg/lock"
	"cineplex/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []string
	cancelled []string
	wg        sync.WaitGroup
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, b Booking) {
	defer n.wg.Done()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b.BookingReference)
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, b Booking) {
	defer n.wg.Done()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b.BookingReference)
}

type fixture struct {
	repo     *MemoryRepository
	svc      *service
	notifier *recordingNotifier
	showtime showtimes.Showtime
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	st := showtimes.Showtime{
		ID:             uuid.New(),
		MovieID:        uuid.New(),
		TheaterID:      uuid.New(),
		ScreenID:       uuid.New(),
		TotalSeats:     10,
		AvailableSeats: 10,
		IsActive:       true,
	}
	repo := NewMemoryRepository()
	repo.PutShowtime(st)

	notifier := &recordingNotifier{}
	svc := NewService(repo, NewGuard(repo, lock.NewLocalLocker(lock.Options{WaitTimeout: time.Second})), config.BookingConfig{
		HoldWindow:         15 * time.Minute,
		CancellationCutoff: 2 * time.Hour,
		SweepBatchSize:     50,
		ReferencePrefix:    "TML",
	}, logger.Nop(), notifier).(*service)
	svc.now = func() time.Time { return now }

	return &fixture{repo: repo, svc: svc, notifier: notifier, showtime: st, now: now}
}

// seed places a pending booking holding seats A1..An and takes them off the counter.
func (f *fixture) seed(t *testing.T, userID uuid.UUID, n int, startsIn time.Duration) Booking {
	t.Helper()
	ref, err := NewReferenceGenerator("TML")()
	require.NoError(t, err)

	b := Booking{
		ID:               uuid.New(),
		BookingReference: ref,
		UserID:           userID,
		ShowtimeID:       f.showtime.ID,
		ShowtimeStartsAt: f.now.Add(startsIn),
		ShowtimeEndsAt:   f.now.Add(startsIn + 2*time.Hour),
		TotalAmount:      float64(10 * n),
		FinalAmount:      float64(10 * n),
		PaymentStatus:    PaymentPending,
		PaymentMethod:    MethodMoMo,
		Status:           StatusConfirmed,
		HoldExpiresAt:    f.now.Add(15 * time.Minute),
		CreatedAt:        f.now,
	}
	for i := 1; i <= n; i++ {
		b.Seats = append(b.Seats, BookedSeat{ID: uuid.New(), BookingID: b.ID, ShowtimeID: f.showtime.ID, Row: "A", Number: i, Category: "regular", Price: 10, Active: true})
	}
	f.repo.PutBooking(b)

	require.NoError(t, f.repo.WithShowtimeLock(context.Background(), f.showtime.ID, func(tx Tx) error {
		return tx.AdjustAvailable(-n)
	}))
	return b
}

func (f *fixture) available(t *testing.T) int {
	t.Helper()
	st, ok := f.repo.Showtime(f.showtime.ID)
	require.True(t, ok)
	return st.AvailableSeats
}

func TestTransitionPaymentPaidKeepsSeats(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, uuid.New(), 2, 24*time.Hour)

	f.notifier.wg.Add(1)
	got, err := f.svc.TransitionPayment(context.Background(), b.ID, PaymentPaid, "momo-123")
	require.NoError(t, err)
	f.notifier.wg.Wait()

	assert.Equal(t, PaymentPaid, got.PaymentStatus)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, "momo-123", got.PaymentTransactionID)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, 8, f.available(t))
	assert.Equal(t, 2, f.repo.ActiveSeatCount(f.showtime.ID))
	assert.Equal(t, []string{b.BookingReference}, f.notifier.confirmed)
}

func TestTransitionPaymentRejectsIllegalMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.seed(t, uuid.New(), 1, 24*time.Hour)

	_, err := f.svc.TransitionPayment(ctx, b.ID, PaymentRefunded, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	f.notifier.wg.Add(1)
	_, err = f.svc.TransitionPayment(ctx, b.ID, PaymentPaid, "")
	require.NoError(t, err)
	f.notifier.wg.Wait()

	for _, next := range []PaymentStatus{PaymentPaid, PaymentPending, PaymentFailed} {
		_, err = f.svc.TransitionPayment(ctx, b.ID, next, "")
		assert.ErrorIs(t, err, ErrInvalidTransition, "paid -> %s", next)
	}

	_, err = f.svc.TransitionPayment(ctx, uuid.New(), PaymentPaid, "")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestPaymentFailureReleasesSeats(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, uuid.New(), 3, 24*time.Hour)

	got, err := f.svc.TransitionPayment(context.Background(), b.ID, PaymentFailed, "")
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)
	assert.Equal(t, 10, f.available(t))
	assert.Zero(t, f.repo.ActiveSeatCount(f.showtime.ID))

	// A late paid callback cannot resurrect a cancelled booking.
	_, err = f.svc.TransitionPayment(context.Background(), b.ID, PaymentPaid, "late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 10, f.available(t))
}

func TestCancelPendingBooking(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	b := f.seed(t, userID, 2, time.Hour)

	f.notifier.wg.Add(1)
	got, err := f.svc.Cancel(context.Background(), b.ID, "", Requester{UserID: userID})
	require.NoError(t, err)
	f.notifier.wg.Wait()

	assert.Equal(t, PaymentFailed, got.PaymentStatus)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, "cancelled by user", got.CancellationReason)
	assert.Equal(t, 10, f.available(t))
	assert.Equal(t, []string{b.BookingReference}, f.notifier.cancelled)

	_, err = f.svc.Cancel(context.Background(), b.ID, "", Requester{UserID: userID})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelPaidBookingRespectsCutoff(t *testing.T) {
	cases := []struct {
		name     string
		startsIn time.Duration
		wantErr  error
	}{
		{name: "well before cutoff", startsIn: 5 * time.Hour},
		{name: "exactly at cutoff", startsIn: 2 * time.Hour, wantErr: ErrCancellationClosed},
		{name: "inside cutoff", startsIn: 90 * time.Minute, wantErr: ErrCancellationClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			userID := uuid.New()
			b := f.seed(t, userID, 2, tc.startsIn)

			f.notifier.wg.Add(1)
			_, err := f.svc.TransitionPayment(context.Background(), b.ID, PaymentPaid, "")
			require.NoError(t, err)
			f.notifier.wg.Wait()

			if tc.wantErr == nil {
				f.notifier.wg.Add(1)
			}
			got, err := f.svc.Cancel(context.Background(), b.ID, "plans changed", Requester{UserID: userID})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, 8, f.available(t))
				return
			}
			require.NoError(t, err)
			f.notifier.wg.Wait()
			assert.Equal(t, PaymentRefunded, got.PaymentStatus)
			assert.Equal(t, "plans changed", got.CancellationReason)
			assert.Equal(t, 10, f.available(t))
		})
	}
}

func TestCancelHidesOtherUsersBookings(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, uuid.New(), 1, 24*time.Hour)

	_, err := f.svc.Cancel(context.Background(), b.ID, "", Requester{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.Equal(t, 9, f.available(t))

	f.notifier.wg.Add(1)
	got, err := f.svc.Cancel(context.Background(), b.ID, "", Requester{UserID: uuid.New(), Admin: true})
	require.NoError(t, err)
	f.notifier.wg.Wait()
	assert.Equal(t, "cancelled by admin", got.CancellationReason)
}

func TestExpireReleasesOnce(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, uuid.New(), 3, 24*time.Hour)
	ctx := context.Background()

	n, err := f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "hold has not lapsed yet")
	assert.Equal(t, 7, f.available(t))

	f.svc.now = func() time.Time { return f.now.Add(16 * time.Minute) }

	n, err = f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 10, f.available(t))

	// A second sweep and a direct retry find nothing left to release.
	n, err = f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	released, err := f.svc.Expire(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.Equal(t, 10, f.available(t))

	got, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentFailed, got.PaymentStatus)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, "hold expired", got.CancellationReason)
}

func TestExpireSkipsPaidBookings(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, uuid.New(), 2, 24*time.Hour)

	f.notifier.wg.Add(1)
	_, err := f.svc.TransitionPayment(context.Background(), b.ID, PaymentPaid, "")
	require.NoError(t, err)
	f.notifier.wg.Wait()

	f.svc.now = func() time.Time { return f.now.Add(time.Hour) }
	released, err := f.svc.Expire(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.Equal(t, 8, f.available(t))
}

func TestConcurrentExpiryAndCancelReleaseOnce(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	b := f.seed(t, userID, 4, 24*time.Hour)
	f.svc.now = func() time.Time { return f.now.Add(20 * time.Minute) }
	f.notifier.wg.Add(1)

	var wg sync.WaitGroup
	var cancelErr error
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 0 {
				_, cancelErr = f.svc.Cancel(context.Background(), b.ID, "", Requester{UserID: userID})
				if cancelErr != nil {
					f.notifier.wg.Done()
				}
				return
			}
			_, err := f.svc.Expire(context.Background(), b.ID)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	f.notifier.wg.Wait()

	if cancelErr != nil {
		assert.ErrorIs(t, cancelErr, ErrInvalidTransition)
	}
	assert.Equal(t, 10, f.available(t))
	assert.Zero(t, f.repo.ActiveSeatCount(f.showtime.ID))
}

func TestCompleteFinished(t *testing.T) {
	f := newFixture(t)
	paid := f.seed(t, uuid.New(), 1, time.Hour)
	f.notifier.wg.Add(1)
	_, err := f.svc.TransitionPayment(context.Background(), paid.ID, PaymentPaid, "")
	require.NoError(t, err)
	f.notifier.wg.Wait()

	f.svc.now = func() time.Time { return f.now.Add(4 * time.Hour) }
	n, err := f.svc.CompleteFinished(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.repo.GetByID(context.Background(), paid.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestListByUserNewestFirst(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	var refs []string
	for i := 0; i < 3; i++ {
		b := Booking{
			ID:               uuid.New(),
			BookingReference: fmt.Sprintf("REF%d", i),
			UserID:           userID,
			ShowtimeID:       f.showtime.ID,
			Status:           StatusConfirmed,
			PaymentStatus:    PaymentPaid,
			CreatedAt:        f.now.Add(time.Duration(i) * time.Minute),
		}
		f.repo.PutBooking(b)
		refs = append(refs, b.BookingReference)
	}
	f.repo.PutBooking(Booking{ID: uuid.New(), UserID: uuid.New(), ShowtimeID: f.showtime.ID, CreatedAt: f.now})

	page, err := f.svc.ListByUser(context.Background(), userID, ListQuery{Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Bookings, 2)
	assert.Equal(t, refs[2], page.Bookings[0].BookingReference)
	assert.Equal(t, refs[1], page.Bookings[1].BookingReference)
}

func TestGetByReference(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	b := f.seed(t, userID, 1, 24*time.Hour)

	got, err := f.svc.GetByReference(context.Background(), b.BookingReference, Requester{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	got, err = f.svc.GetByReference(context.Background(), " "+strings.ToLower(b.BookingReference), Requester{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.GetByReference(context.Background(), "TML00000000X", Requester{UserID: userID})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.svc.GetByReference(context.Background(), b.BookingReference, Requester{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestTicketQRRequiresPayment(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	b := f.seed(t, userID, 2, 24*time.Hour)
	who := Requester{UserID: userID}

	_, err := f.svc.TicketQR(context.Background(), b.ID, who)
	assert.ErrorIs(t, err, ErrTicketNotAvailable)

	f.notifier.wg.Add(1)
	_, err = f.svc.TransitionPayment(context.Background(), b.ID, PaymentPaid, "")
	require.NoError(t, err)
	f.notifier.wg.Wait()

	png, err := f.svc.TicketQR(context.Background(), b.ID, who)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestGuardBusyMapsToAppError(t *testing.T) {
	f := newFixture(t)
	locker := lock.NewLocalLocker(lock.Options{WaitTimeout: 20 * time.Millisecond})
	guard := NewGuard(f.repo, locker)

	lease, err := locker.Acquire(context.Background(), lock.ShowtimeKey(f.showtime.ID.String()))
	require.NoError(t, err)
	defer lease.Release(context.Background())

	err = guard.Do(context.Background(), f.showtime.ID, func(Tx) error { return nil })
	assert.ErrorIs(t, err, apperror.ErrBusy)
}
