package bookings

import (
	"errors"
	"fmt"
	"testing"

	"cineplex/internal/shared/apperror"
	"cineplex/internal/showtimes"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPgError(t *testing.T) {
	plain := errors.New("connection reset by peer")

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"active seat index", &pgconn.PgError{Code: "23505", ConstraintName: "idx_booked_seats_active"}, ErrSeatTaken},
		{"wrapped active seat index", fmt.Errorf("insert booked seats: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_booked_seats_active"}), ErrSeatTaken},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, apperror.ErrBusy},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperror.ErrBusy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapPgError(tc.err)
			assert.ErrorIs(t, got, tc.want)
			var pgErr *pgconn.PgError
			assert.True(t, errors.As(got, &pgErr), "driver error stays in the chain")
		})
	}

	t.Run("other unique constraint passes through", func(t *testing.T) {
		err := &pgconn.PgError{Code: "23505", ConstraintName: "idx_bookings_reference"}
		got := mapPgError(err)
		assert.Same(t, err, got)
		assert.False(t, errors.Is(got, ErrSeatTaken))
	})

	t.Run("check violation passes through", func(t *testing.T) {
		err := &pgconn.PgError{Code: "23514", ConstraintName: "chk_showtimes_available_seats"}
		assert.Same(t, err, mapPgError(err))
	})

	t.Run("non driver error passes through", func(t *testing.T) {
		assert.Same(t, plain, mapPgError(plain))
		assert.Nil(t, mapPgError(nil))
	})
}

func TestAdjustAvailableStaysWithinBounds(t *testing.T) {
	tx := &memoryTx{showtime: showtimes.Showtime{ID: uuid.New(), TotalSeats: 2, AvailableSeats: 1}}

	require.NoError(t, tx.AdjustAvailable(-1))
	assert.ErrorIs(t, tx.AdjustAvailable(-1), ErrInventoryInvariant)
	assert.Equal(t, 0, tx.showtime.AvailableSeats)

	require.NoError(t, tx.AdjustAvailable(2))
	assert.ErrorIs(t, tx.AdjustAvailable(1), ErrInventoryInvariant)
	assert.Equal(t, 2, tx.showtime.AvailableSeats)
}
