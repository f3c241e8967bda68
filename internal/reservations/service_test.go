package reservations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cineplex/internal/bookings"
	"cineplex/internal/promotions"
	"cineplex/internal/seats"
	"cineplex/internal/shared/apperror"
	"cineplex/internal/shared/config"
	"cineplex/internal/showtimes"
	"cineplex/internal/theaters"
	"cineplex/pkg/lock"
	"cineplex/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryShowtimes struct {
	repo *bookings.MemoryRepository
}

func (m memoryShowtimes) GetByID(_ context.Context, id uuid.UUID) (*showtimes.Showtime, error) {
	st, ok := m.repo.Showtime(id)
	if !ok {
		return nil, showtimes.ErrShowtimeNotFound
	}
	return &st, nil
}

type staticLayouts map[uuid.UUID][]theaters.Seat

func (s staticLayouts) GetSeatLayout(_ context.Context, screenID uuid.UUID) ([]theaters.Seat, error) {
	layout, ok := s[screenID]
	if !ok {
		return nil, theaters.ErrScreenNotFound
	}
	return layout, nil
}

type fixture struct {
	repo     *bookings.MemoryRepository
	coord    *coordinator
	showtime showtimes.Showtime
	now      time.Time
}

// newFixture builds a showtime tomorrow at 19:30 on a screen with the given seats.
func newFixture(t *testing.T, layout []theaters.Seat) *fixture {
	t.Helper()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	screenID := uuid.New()
	st := showtimes.Showtime{
		ID:             uuid.New(),
		MovieID:        uuid.New(),
		TheaterID:      uuid.New(),
		ScreenID:       screenID,
		Date:           time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		StartTime:      "19:30",
		EndTime:        "21:45",
		TotalSeats:     len(layout),
		AvailableSeats: len(layout),
		IsActive:       true,
	}

	repo := bookings.NewMemoryRepository()
	repo.PutShowtime(st)

	cfg := config.BookingConfig{HoldWindow: 15 * time.Minute, Timezone: "UTC", ReferencePrefix: "TML"}
	guard := bookings.NewGuard(repo, lock.NewLocalLocker(lock.Options{WaitTimeout: 5 * time.Second}))
	coord := NewCoordinator(guard, memoryShowtimes{repo}, staticLayouts{screenID: layout}, cfg, logger.Nop()).(*coordinator)
	coord.now = func() time.Time { return now }

	return &fixture{repo: repo, coord: coord, showtime: st, now: now}
}

func row(r string, n int, category theaters.SeatCategory, price float64) []theaters.Seat {
	out := make([]theaters.Seat, n)
	for i := range out {
		out[i] = theaters.Seat{ID: uuid.New(), Row: r, Number: i + 1, Category: category, Price: price}
	}
	return out
}

func (f *fixture) available(t *testing.T) int {
	t.Helper()
	st, ok := f.repo.Showtime(f.showtime.ID)
	require.True(t, ok)
	return st.AvailableSeats
}

func (f *fixture) claim(seatKeys ...seats.SeatKey) ClaimRequest {
	return ClaimRequest{
		ShowtimeID:    f.showtime.ID,
		Seats:         seatKeys,
		UserID:        uuid.New(),
		PaymentMethod: bookings.MethodMoMo,
	}
}

func key(label string) seats.SeatKey {
	k, err := seats.ParseSeatKey(label)
	if err != nil {
		panic(err)
	}
	return k
}

func TestClaimSeatsCreatesPendingBooking(t *testing.T) {
	f := newFixture(t, append(row("A", 5, theaters.CategoryRegular, 9.5), row("B", 5, theaters.CategoryVIP, 15)...))

	res, err := f.coord.ClaimSeats(context.Background(), f.claim(key("B2"), key("A1")))
	require.NoError(t, err)

	b := res.Booking
	assert.Empty(t, res.Warnings)
	assert.Equal(t, bookings.PaymentPending, b.PaymentStatus)
	assert.Equal(t, bookings.StatusConfirmed, b.Status)
	assert.True(t, bookings.ValidReference("TML", b.BookingReference))
	assert.Equal(t, f.now.Add(15*time.Minute), b.HoldExpiresAt)
	assert.Equal(t, time.Date(2026, 3, 15, 19, 30, 0, 0, time.UTC), b.ShowtimeStartsAt)
	assert.Equal(t, f.showtime.MovieID, b.MovieID)

	require.Len(t, b.Seats, 2)
	assert.Equal(t, "B", b.Seats[0].Row)
	assert.Equal(t, "vip", b.Seats[0].Category)
	assert.Equal(t, 15.0, b.Seats[0].Price)
	assert.Equal(t, 24.5, b.TotalAmount)
	assert.Equal(t, b.TotalAmount-b.DiscountAmount, b.FinalAmount)

	assert.Equal(t, 8, f.available(t))
	assert.Equal(t, 2, f.repo.ActiveSeatCount(f.showtime.ID))
}

func TestClaimSeatsUsesShowtimePriceTable(t *testing.T) {
	f := newFixture(t, append(row("A", 2, theaters.CategoryRegular, 9), row("B", 2, theaters.CategoryPremium, 11)...))
	st := f.showtime
	st.Prices = showtimes.PriceTable{Regular: 12}
	f.repo.PutShowtime(st)

	res, err := f.coord.ClaimSeats(context.Background(), f.claim(key("A1"), key("B1")))
	require.NoError(t, err)

	assert.Equal(t, 12.0, res.Booking.Seats[0].Price)
	assert.Equal(t, 11.0, res.Booking.Seats[1].Price, "no table entry falls back to the template")
	assert.Equal(t, 23.0, res.Booking.TotalAmount)
}

// Two claims race for the last seat: one wins, the other sees SeatUnavailable.
func TestClaimSeatsLastSeatRace(t *testing.T) {
	f := newFixture(t, row("A", 1, theaters.CategoryRegular, 12))

	const racers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.ClaimSeats(context.Background(), f.claim(key("A1")))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, bookings.ErrSeatTaken):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, racers-1, conflicts)
	assert.Equal(t, 0, f.available(t))
	assert.Equal(t, 1, f.repo.ActiveSeatCount(f.showtime.ID))
}

func TestClaimSeatsOverlappingSelectionsNeverShareSeats(t *testing.T) {
	f := newFixture(t, row("C", 6, theaters.CategoryRegular, 10))

	selections := [][]seats.SeatKey{
		{key("C1"), key("C2")},
		{key("C2"), key("C3")},
		{key("C3"), key("C4")},
		{key("C5")},
		{key("C5"), key("C6")},
	}

	var wg sync.WaitGroup
	for _, sel := range selections {
		wg.Add(1)
		go func(sel []seats.SeatKey) {
			defer wg.Done()
			_, err := f.coord.ClaimSeats(context.Background(), f.claim(sel...))
			if err != nil {
				assert.ErrorIs(t, err, bookings.ErrSeatTaken)
			}
		}(sel)
	}
	wg.Wait()

	held := f.repo.ActiveSeatCount(f.showtime.ID)
	assert.Equal(t, f.showtime.TotalSeats, f.available(t)+held)
	assert.LessOrEqual(t, held, 6)
}

func TestClaimSeatsWithPromotion(t *testing.T) {
	f := newFixture(t, row("A", 4, theaters.CategoryRegular, 10))
	limit := 100
	minOrder := 20.0
	f.repo.PutPromotion(promotions.Promotion{
		ID:             uuid.New(),
		Code:           "WEEKEND20",
		Type:           promotions.TypePercentage,
		Value:          20,
		MinOrderAmount: &minOrder,
		UsageLimit:     &limit,
		UsedCount:      45,
		StartDate:      f.now.Add(-24 * time.Hour),
		EndDate:        f.now.Add(24 * time.Hour),
		IsActive:       true,
	})

	req := f.claim(key("A1"), key("A2"))
	req.PromoCode = "weekend20"
	res, err := f.coord.ClaimSeats(context.Background(), req)
	require.NoError(t, err)

	b := res.Booking
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 20.0, b.TotalAmount)
	assert.Equal(t, 4.0, b.DiscountAmount)
	assert.Equal(t, 16.0, b.FinalAmount)
	assert.Equal(t, "WEEKEND20", b.PromotionCode)

	p, ok := f.repo.Promotion("WEEKEND20")
	require.True(t, ok)
	assert.Equal(t, 46, p.UsedCount)
}

func TestClaimSeatsPromotionWarnings(t *testing.T) {
	f := newFixture(t, row("A", 6, theaters.CategoryRegular, 10))
	limit := 3
	f.repo.PutPromotion(promotions.Promotion{
		ID:         uuid.New(),
		Code:       "SOLDOUT",
		Type:       promotions.TypeFixed,
		Value:      5,
		UsageLimit: &limit,
		UsedCount:  3,
		StartDate:  f.now.Add(-time.Hour),
		EndDate:    f.now.Add(time.Hour),
		IsActive:   true,
	})

	cases := map[string]string{
		"NOSUCHCODE": promotions.WarningInvalidCode,
		"SOLDOUT":    promotions.WarningExhausted,
	}
	n := 1
	for code, want := range cases {
		t.Run(code, func(t *testing.T) {
			req := f.claim(seats.SeatKey{Row: "A", Number: n})
			n++
			req.PromoCode = code

			res, err := f.coord.ClaimSeats(context.Background(), req)
			require.NoError(t, err)
			require.Len(t, res.Warnings, 1)
			assert.Equal(t, want, res.Warnings[0].Code)
			assert.Zero(t, res.Booking.DiscountAmount)
			assert.Equal(t, 10.0, res.Booking.FinalAmount)
			assert.Nil(t, res.Booking.PromotionID)
		})
	}

	p, _ := f.repo.Promotion("SOLDOUT")
	assert.Equal(t, 3, p.UsedCount)
}

func TestClaimSeatsRejectsSeatsNotInLayout(t *testing.T) {
	f := newFixture(t, row("A", 3, theaters.CategoryRegular, 10))

	_, err := f.coord.ClaimSeats(context.Background(), f.claim(key("A1"), key("Z9"), key("A4")))
	require.ErrorIs(t, err, ErrInvalidSeatReference)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string][]string{"seats": {"A4", "Z9"}}, appErr.Details)
	assert.Equal(t, 3, f.available(t))
}

func TestClaimSeatsReportsTakenSeats(t *testing.T) {
	f := newFixture(t, row("A", 4, theaters.CategoryRegular, 10))

	_, err := f.coord.ClaimSeats(context.Background(), f.claim(key("A2"), key("A3")))
	require.NoError(t, err)

	_, err = f.coord.ClaimSeats(context.Background(), f.claim(key("A1"), key("A3"), key("A2")))
	require.ErrorIs(t, err, bookings.ErrSeatTaken)
	appErr, _ := apperror.As(err)
	assert.Equal(t, map[string][]string{"seats": {"A2", "A3"}}, appErr.Details)
	assert.Equal(t, 2, f.available(t))
}

func TestClaimSeatsShowtimeChecks(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		f := newFixture(t, row("A", 2, theaters.CategoryRegular, 10))
		req := f.claim(key("A1"))
		req.ShowtimeID = uuid.New()
		_, err := f.coord.ClaimSeats(context.Background(), req)
		assert.ErrorIs(t, err, showtimes.ErrShowtimeNotFound)
	})

	t.Run("inactive", func(t *testing.T) {
		f := newFixture(t, row("A", 2, theaters.CategoryRegular, 10))
		st := f.showtime
		st.IsActive = false
		f.repo.PutShowtime(st)
		_, err := f.coord.ClaimSeats(context.Background(), f.claim(key("A1")))
		assert.ErrorIs(t, err, ErrShowtimeNotActive)
	})

	t.Run("started", func(t *testing.T) {
		f := newFixture(t, row("A", 2, theaters.CategoryRegular, 10))
		f.coord.now = func() time.Time { return time.Date(2026, 3, 15, 19, 30, 0, 0, time.UTC) }
		_, err := f.coord.ClaimSeats(context.Background(), f.claim(key("A1")))
		assert.ErrorIs(t, err, ErrShowtimeStarted)
	})

	t.Run("insufficient inventory", func(t *testing.T) {
		f := newFixture(t, row("A", 3, theaters.CategoryRegular, 10))
		st := f.showtime
		st.AvailableSeats = 1
		f.repo.PutShowtime(st)
		_, err := f.coord.ClaimSeats(context.Background(), f.claim(key("A1"), key("A2")))
		assert.ErrorIs(t, err, ErrInsufficientInventory)
		assert.Equal(t, 1, f.available(t))
	})
}

func TestClaimSeatsValidation(t *testing.T) {
	f := newFixture(t, row("A", 12, theaters.CategoryRegular, 10))

	many := make([]seats.SeatKey, MaxSeatsPerClaim+1)
	for i := range many {
		many[i] = seats.SeatKey{Row: "A", Number: i + 1}
	}

	noMethod := f.claim(key("A1"))
	noMethod.PaymentMethod = "paypal"

	cases := map[string]struct {
		req  ClaimRequest
		want error
	}{
		"no seats":       {f.claim(), ErrNoSeats},
		"too many seats": {f.claim(many...), ErrTooManySeats},
		"duplicate seat": {f.claim(key("A1"), key("A1")), ErrDuplicateSeat},
		"payment method": {noMethod, ErrInvalidPaymentMethod},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.coord.ClaimSeats(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 12, f.available(t))
}

func TestClaimSeatsReferenceCollisionsExhaust(t *testing.T) {
	f := newFixture(t, row("A", 3, theaters.CategoryRegular, 10))
	f.coord.newRef = func() (string, error) { return "TMLAAAAAAAAA", nil }

	_, err := f.coord.ClaimSeats(context.Background(), f.claim(key("A1")))
	require.NoError(t, err)

	_, err = f.coord.ClaimSeats(context.Background(), f.claim(key("A2")))
	assert.ErrorIs(t, err, bookings.ErrReferenceExhausted)
	assert.Equal(t, 2, f.available(t), "failed claim rolls back")
	assert.Equal(t, 1, f.repo.ActiveSeatCount(f.showtime.ID))
}

func TestClaimThenExpireRestoresInventory(t *testing.T) {
	f := newFixture(t, row("A", 1, theaters.CategoryRegular, 12))
	res, err := f.coord.ClaimSeats(context.Background(), f.claim(key("A1")))
	require.NoError(t, err)
	assert.Equal(t, 0, f.available(t))

	guard := bookings.NewGuard(f.repo, lock.NewLocalLocker(lock.Options{WaitTimeout: time.Second}))
	ledger := bookings.NewService(f.repo, guard, config.BookingConfig{SweepBatchSize: 10}, logger.Nop(), nil)

	// The ledger runs on the wall clock, long after the fixture hold lapsed.
	for i := 0; i < 2; i++ {
		_, err := ledger.ExpireOverdue(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.available(t))
	got, err := f.repo.GetByID(context.Background(), res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.PaymentFailed, got.PaymentStatus)

	_, err = f.coord.ClaimSeats(context.Background(), f.claim(key("A1")))
	assert.NoError(t, err, "released seat can be claimed again")
}
