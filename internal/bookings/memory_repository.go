package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"cineplex/internal/promotions"
	"cineplex/internal/seats"
	"cineplex/internal/showtimes"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process ledger with the same transactional
// guarantees as the Postgres repository: one showtime transaction at a time,
// rollback on error, and a unique active seat per showtime. It is exported so
// the reservations and payments service tests can drive a real ledger.
type MemoryRepository struct {
	mu         sync.Mutex
	showtimes  map[uuid.UUID]showtimes.Showtime
	bookings   map[uuid.UUID]Booking
	promotions map[string]promotions.Promotion
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		showtimes:  map[uuid.UUID]showtimes.Showtime{},
		bookings:   map[uuid.UUID]Booking{},
		promotions: map[string]promotions.Promotion{},
	}
}

func (m *MemoryRepository) PutShowtime(st showtimes.Showtime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showtimes[st.ID] = st
}

func (m *MemoryRepository) PutPromotion(p promotions.Promotion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promotions[promotions.NormalizeCode(p.Code)] = p
}

// PutBooking stores b as-is, bypassing the claim path. Tests use it to set up history.
func (m *MemoryRepository) PutBooking(b Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = cloneBooking(b)
}

func (m *MemoryRepository) Showtime(id uuid.UUID) (showtimes.Showtime, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.showtimes[id]
	return st, ok
}

func (m *MemoryRepository) Promotion(code string) (promotions.Promotion, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promotions[promotions.NormalizeCode(code)]
	return p, ok
}

// ActiveSeatCount counts active booked-seat rows for a showtime.
func (m *MemoryRepository) ActiveSeatCount(showtimeID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		for _, s := range b.Seats {
			if s.ShowtimeID == showtimeID && s.Active {
				n++
			}
		}
	}
	return n
}

func (m *MemoryRepository) WithShowtimeLock(ctx context.Context, showtimeID uuid.UUID, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.showtimes[showtimeID]
	if !ok {
		return showtimes.ErrShowtimeNotFound
	}

	tx := &memoryTx{
		showtime:   st,
		bookings:   map[uuid.UUID]Booking{},
		promotions: map[string]promotions.Promotion{},
		parent:     m,
	}
	if err := fn(tx); err != nil {
		return err
	}

	// commit
	m.showtimes[showtimeID] = tx.showtime
	for id, b := range tx.bookings {
		m.bookings[id] = b
	}
	for code, p := range tx.promotions {
		m.promotions[code] = p
	}
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := cloneBooking(b)
	return &cp, nil
}

func (m *MemoryRepository) GetByReference(_ context.Context, ref string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.BookingReference == ref {
			cp := cloneBooking(b)
			return &cp, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (m *MemoryRepository) List(_ context.Context, filter ListFilter) ([]Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Booking
	for _, b := range m.bookings {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if filter.ShowtimeID != nil && b.ShowtimeID != *filter.ShowtimeID {
			continue
		}
		if filter.PaymentStatus != "" && b.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneBooking(b))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []Booking{}, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func (m *MemoryRepository) ExpiredPending(_ context.Context, now time.Time, limit int) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.Status == StatusConfirmed && b.PaymentStatus == PaymentPending && !b.HoldExpiresAt.After(now) {
			out = append(out, Booking{ID: b.ID, ShowtimeID: b.ShowtimeID, HoldExpiresAt: b.HoldExpiresAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HoldExpiresAt.Before(out[j].HoldExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) MarkCompleted(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, b := range m.bookings {
		if b.Status == StatusConfirmed && b.PaymentStatus == PaymentPaid && b.ShowtimeEndsAt.Before(now) {
			b.Status = StatusCompleted
			m.bookings[id] = b
			n++
		}
	}
	return n, nil
}

// memoryTx buffers writes until the callback returns without error.
type memoryTx struct {
	showtime   showtimes.Showtime
	bookings   map[uuid.UUID]Booking
	promotions map[string]promotions.Promotion
	parent     *MemoryRepository
}

func (t *memoryTx) booking(id uuid.UUID) (Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return b, true
	}
	b, ok := t.parent.bookings[id]
	if ok {
		b = cloneBooking(b)
	}
	return b, ok
}

func (t *memoryTx) eachBooking(fn func(b Booking)) {
	for id, b := range t.parent.bookings {
		if staged, ok := t.bookings[id]; ok {
			b = staged
		}
		fn(b)
	}
	for id, b := range t.bookings {
		if _, ok := t.parent.bookings[id]; !ok {
			fn(b)
		}
	}
}

func (t *memoryTx) Showtime() *showtimes.Showtime {
	return &t.showtime
}

func (t *memoryTx) OccupiedSeats() (seats.SeatSet, error) {
	set := seats.SeatSet{}
	t.eachBooking(func(b Booking) {
		if b.ShowtimeID != t.showtime.ID || !b.HoldsSeats() {
			return
		}
		for _, s := range b.Seats {
			if s.Active {
				set[seats.SeatKey{Row: s.Row, Number: s.Number}] = struct{}{}
			}
		}
	})
	return set, nil
}

func (t *memoryTx) ReferenceTaken(ref string) (bool, error) {
	taken := false
	t.eachBooking(func(b Booking) {
		if b.BookingReference == ref {
			taken = true
		}
	})
	return taken, nil
}

func (t *memoryTx) Create(b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.UpdatedAt = b.CreatedAt

	// Mirror the partial unique index on active seats.
	active := seats.SeatSet{}
	t.eachBooking(func(other Booking) {
		for _, s := range other.Seats {
			if s.ShowtimeID == b.ShowtimeID && s.Active {
				active[seats.SeatKey{Row: s.Row, Number: s.Number}] = struct{}{}
			}
		}
	})
	for i := range b.Seats {
		b.Seats[i].ID = uuid.New()
		b.Seats[i].BookingID = b.ID
		b.Seats[i].ShowtimeID = b.ShowtimeID
		b.Seats[i].Active = true
		if active.Has(seats.SeatKey{Row: b.Seats[i].Row, Number: b.Seats[i].Number}) {
			return ErrSeatTaken
		}
	}

	t.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (t *memoryTx) LockBooking(id uuid.UUID) (*Booking, error) {
	b, ok := t.booking(id)
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (t *memoryTx) Update(b *Booking) error {
	cur, ok := t.booking(b.ID)
	if !ok {
		return ErrBookingNotFound
	}
	cur.PaymentStatus = b.PaymentStatus
	cur.PaymentTransactionID = b.PaymentTransactionID
	cur.Status = b.Status
	cur.PaidAt = b.PaidAt
	cur.CancelledAt = b.CancelledAt
	cur.CancellationReason = b.CancellationReason
	cur.UpdatedAt = time.Now()
	t.bookings[b.ID] = cur
	return nil
}

func (t *memoryTx) ReleaseSeats(bookingID uuid.UUID) (int, error) {
	b, ok := t.booking(bookingID)
	if !ok {
		return 0, nil
	}
	n := 0
	for i := range b.Seats {
		if b.Seats[i].Active {
			b.Seats[i].Active = false
			n++
		}
	}
	t.bookings[bookingID] = b
	return n, nil
}

func (t *memoryTx) AdjustAvailable(delta int) error {
	next := t.showtime.AvailableSeats + delta
	if next < 0 || next > t.showtime.TotalSeats {
		return ErrInventoryInvariant
	}
	t.showtime.AvailableSeats = next
	return nil
}

func (t *memoryTx) PromotionByCode(code string) (*promotions.Promotion, error) {
	code = promotions.NormalizeCode(code)
	if p, ok := t.promotions[code]; ok {
		return &p, nil
	}
	p, ok := t.parent.promotions[code]
	if !ok {
		return nil, promotions.ErrPromotionNotFound
	}
	return &p, nil
}

func (t *memoryTx) ConsumePromotion(id uuid.UUID) (bool, error) {
	var p *promotions.Promotion
	for _, candidate := range t.parent.promotions {
		if candidate.ID == id {
			c := candidate
			if staged, ok := t.promotions[promotions.NormalizeCode(c.Code)]; ok {
				c = staged
			}
			p = &c
			break
		}
	}
	if p == nil || (p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit) {
		return false, nil
	}
	p.UsedCount++
	t.promotions[promotions.NormalizeCode(p.Code)] = *p
	return true, nil
}

func cloneBooking(b Booking) Booking {
	b.Seats = append([]BookedSeat(nil), b.Seats...)
	return b
}
