package bookings

import (
	"context"
	"errors"
	"fmt"

	"cineplex/internal/shared/apperror"
	"cineplex/pkg/lock"

	"github.com/google/uuid"
)

// Guard is the single serialization path for a showtime's inventory: a
// per-showtime lock around a transaction that holds the showtime row lock.
// Claims, cancellations, expiry and payment failures all run through Do.
type Guard struct {
	repo   Repository
	locker lock.Locker
}

func NewGuard(repo Repository, locker lock.Locker) *Guard {
	return &Guard{repo: repo, locker: locker}
}

func (g *Guard) Do(ctx context.Context, showtimeID uuid.UUID, fn func(tx Tx) error) error {
	lease, err := g.locker.Acquire(ctx, lock.ShowtimeKey(showtimeID.String()))
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			return apperror.ErrBusy.Wrap(err)
		}
		return fmt.Errorf("acquire showtime lock: %w", err)
	}
	defer lease.Release(context.WithoutCancel(ctx))

	return g.repo.WithShowtimeLock(ctx, showtimeID, fn)
}

// ReleaseLocked is the one release path: it deactivates the booking's seats
// and returns exactly that many to the showtime counter. Calling it again for
// the same booking releases nothing.
func ReleaseLocked(tx Tx, bookingID uuid.UUID) (int, error) {
	n, err := tx.ReleaseSeats(bookingID)
	if err != nil {
		return 0, fmt.Errorf("release seats: %w", err)
	}
	if n > 0 {
		if err := tx.AdjustAvailable(n); err != nil {
			return 0, err
		}
	}
	return n, nil
}
