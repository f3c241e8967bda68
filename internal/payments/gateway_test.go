package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"cineplex/internal/bookings"
	"cineplex/internal/shared/config"
	"cineplex/internal/showtimes"
	"cineplex/pkg/lock"
	"cineplex/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	momoCfg = config.MoMoConfig{PartnerCode: "MOMOTEST", AccessKey: "access", SecretKey: "momo-secret"}
	zaloCfg = config.ZaloPayConfig{AppID: "2553", Key1: "key1", Key2: "key2"}
)

type memoryTransactions struct {
	mu   sync.Mutex
	byID map[string]Transaction
}

func newMemoryTransactions() *memoryTransactions {
	return &memoryTransactions{byID: map[string]Transaction{}}
}

func (m *memoryTransactions) Create(_ context.Context, tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.ID = uuid.New()
	m.byID[tx.OrderID] = *tx
	return nil
}

func (m *memoryTransactions) GetByOrderID(_ context.Context, orderID string) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.byID[orderID]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return &tx, nil
}

func (m *memoryTransactions) RecordCallback(_ context.Context, orderID string, status TransactionStatus, providerTxID, resultCode, raw string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.byID[orderID]
	if !ok {
		return ErrTransactionNotFound
	}
	tx.Status = status
	tx.ProviderTransactionID = providerTxID
	tx.ResultCode = resultCode
	tx.RawCallback = raw
	tx.CallbackAt = &at
	m.byID[orderID] = tx
	return nil
}

type fixture struct {
	repo     *bookings.MemoryRepository
	txs      *memoryTransactions
	gw       *gateway
	momo     *MoMo
	zalo     *ZaloPay
	booking  bookings.Booking
	showtime uuid.UUID
}

// newFixture holds seat A1 for a pending booking of 16 (after a 4 discount).
func newFixture(t *testing.T, method bookings.PaymentMethod) *fixture {
	t.Helper()
	repo := bookings.NewMemoryRepository()
	st := showtimes.Showtime{ID: uuid.New(), TotalSeats: 2, AvailableSeats: 1, IsActive: true}
	repo.PutShowtime(st)

	now := time.Now()
	b := bookings.Booking{
		ID:               uuid.New(),
		BookingReference: "TMLAB12CD34E",
		UserID:           uuid.New(),
		ShowtimeID:       st.ID,
		ShowtimeStartsAt: now.Add(48 * time.Hour),
		ShowtimeEndsAt:   now.Add(50 * time.Hour),
		Seats:            []bookings.BookedSeat{{ID: uuid.New(), ShowtimeID: st.ID, Row: "A", Number: 1, Category: "regular", Price: 20, Active: true}},
		TotalAmount:      20,
		DiscountAmount:   4,
		FinalAmount:      16,
		PaymentStatus:    bookings.PaymentPending,
		PaymentMethod:    method,
		Status:           bookings.StatusConfirmed,
		HoldExpiresAt:    now.Add(15 * time.Minute),
		CreatedAt:        now,
	}
	b.Seats[0].BookingID = b.ID
	repo.PutBooking(b)

	guard := bookings.NewGuard(repo, lock.NewLocalLocker(lock.Options{WaitTimeout: time.Second}))
	ledger := bookings.NewService(repo, guard, config.BookingConfig{CancellationCutoff: 2 * time.Hour}, logger.Nop(), nil)

	client := NewClient(time.Second, 100, 10)
	momo := NewMoMo(momoCfg, client)
	zalo := NewZaloPay(zaloCfg, client)
	txs := newMemoryTransactions()
	gw := NewGateway(ledger, txs, config.PaymentConfig{CallbackBaseURL: "https://api.example.com/api/v1/payments/"}, logger.Nop(), momo, zalo).(*gateway)

	return &fixture{repo: repo, txs: txs, gw: gw, momo: momo, zalo: zalo, booking: b, showtime: st.ID}
}

func (f *fixture) momoCallback(t *testing.T, resultCode int, amount, transID int64, tamper bool) []byte {
	t.Helper()
	cb := momoCallback{
		PartnerCode:  momoCfg.PartnerCode,
		OrderID:      "TMLAB12CD34E1700000000000",
		RequestID:    "req-1",
		Amount:       amount,
		OrderInfo:    "Cineplex booking TMLAB12CD34E",
		OrderType:    "momo_wallet",
		TransID:      transID,
		ResultCode:   resultCode,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: 1700000000000,
		ExtraData:    encodeMoMoExtra(f.booking.ID),
	}
	cb.Signature = Sign(f.momo.callbackSignature(cb), momoCfg.SecretKey)
	if tamper {
		cb.Amount++
	}
	raw, err := json.Marshal(cb)
	require.NoError(t, err)
	return raw
}

func (f *fixture) zaloCallback(t *testing.T, amount, zpTransID int64, key string) url.Values {
	t.Helper()
	embed, _ := json.Marshal(zaloEmbed{BookingID: f.booking.ID.String()})
	data, _ := json.Marshal(zaloCallbackData{
		AppID:      2553,
		AppTransID: "260314_TMLAB12CD34E",
		Amount:     amount,
		EmbedData:  string(embed),
		ZpTransID:  zpTransID,
	})
	return url.Values{"data": {string(data)}, "mac": {Sign(string(data), key)}, "type": {"1"}}
}

func (f *fixture) current(t *testing.T) *bookings.Booking {
	t.Helper()
	b, err := f.repo.GetByID(context.Background(), f.booking.ID)
	require.NoError(t, err)
	return b
}

func (f *fixture) available(t *testing.T) int {
	t.Helper()
	st, ok := f.repo.Showtime(f.showtime)
	require.True(t, ok)
	return st.AvailableSeats
}

func TestCallbackMarksPaidAndIsIdempotent(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)
	body := f.momoCallback(t, 0, 16, 4088123, false)

	ack, err := f.gw.HandleCallback(context.Background(), ProviderMoMo, body, "application/json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, ack.Status)

	b := f.current(t)
	assert.Equal(t, bookings.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, "4088123", b.PaymentTransactionID)
	require.NotNil(t, b.PaidAt)
	paidAt := *b.PaidAt

	ack, err = f.gw.HandleCallback(context.Background(), ProviderMoMo, body, "application/json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, ack.Status)

	again := f.current(t)
	assert.Equal(t, bookings.PaymentPaid, again.PaymentStatus)
	assert.Equal(t, paidAt, *again.PaidAt)
	assert.Equal(t, 1, f.available(t))
}

func TestCallbackWithBadSignatureIsRejected(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)

	ack, err := f.gw.HandleCallback(context.Background(), ProviderMoMo, f.momoCallback(t, 0, 16, 1, true), "application/json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, ack.Status)

	b := f.current(t)
	assert.Equal(t, bookings.PaymentPending, b.PaymentStatus)
	assert.Empty(t, b.PaymentTransactionID)
	assert.Equal(t, 1, f.available(t))
	assert.Equal(t, 1, f.repo.ActiveSeatCount(f.showtime))
}

func TestFailedCallbackReleasesSeats(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)

	_, err := f.gw.HandleCallback(context.Background(), ProviderMoMo, f.momoCallback(t, 1006, 16, 0, false), "application/json")
	require.NoError(t, err)

	b := f.current(t)
	assert.Equal(t, bookings.PaymentFailed, b.PaymentStatus)
	assert.Equal(t, bookings.StatusCancelled, b.Status)
	assert.Equal(t, 2, f.available(t))

	// A success arriving after the failure is acknowledged and ignored.
	ack, err := f.gw.HandleCallback(context.Background(), ProviderMoMo, f.momoCallback(t, 0, 16, 99, false), "application/json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, ack.Status)
	assert.Equal(t, bookings.PaymentFailed, f.current(t).PaymentStatus)
	assert.Equal(t, 2, f.available(t))
}

func TestCallbackAmountMismatchLeavesBookingPending(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)

	ack, err := f.gw.HandleCallback(context.Background(), ProviderMoMo, f.momoCallback(t, 0, 20, 5, false), "application/json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, ack.Status)
	assert.Equal(t, bookings.PaymentPending, f.current(t).PaymentStatus)
}

func TestMalformedCallbackIsAcknowledged(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)

	ack, err := f.gw.HandleCallback(context.Background(), ProviderMoMo, []byte("{not json"), "application/json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, ack.Status)
	assert.Equal(t, bookings.PaymentPending, f.current(t).PaymentStatus)

	_, err = f.gw.HandleCallback(context.Background(), "paypal", nil, "")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestZaloPayFormCallback(t *testing.T) {
	f := newFixture(t, bookings.MethodZaloPay)
	form := f.zaloCallback(t, 16, 240314000123, zaloCfg.Key2)

	ack, err := f.gw.HandleCallback(context.Background(), ProviderZaloPay, []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"return_code": 1, "return_message": "success"}, ack.Body)
	assert.Equal(t, "240314000123", f.current(t).PaymentTransactionID)

	bad := f.zaloCallback(t, 16, 1, "wrong-key")
	ack, err = f.gw.HandleCallback(context.Background(), ProviderZaloPay, []byte(bad.Encode()), "application/x-www-form-urlencoded")
	require.NoError(t, err)
	assert.Equal(t, -1, ack.Body.(map[string]any)["return_code"])
}

func TestZaloPayJSONCallback(t *testing.T) {
	f := newFixture(t, bookings.MethodZaloPay)
	form := f.zaloCallback(t, 16, 77, zaloCfg.Key2)
	body, _ := json.Marshal(map[string]any{"data": form.Get("data"), "mac": form.Get("mac"), "type": 1})

	_, err := f.gw.HandleCallback(context.Background(), ProviderZaloPay, body, "application/json")
	require.NoError(t, err)
	assert.Equal(t, bookings.PaymentPaid, f.current(t).PaymentStatus)
}

func TestCreatePaymentMoMo(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)

	var got momoCreateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(momoCreateResponse{ResultCode: 0, PayURL: "https://pay.example/abc"})
	}))
	defer srv.Close()

	cfg := momoCfg
	cfg.Endpoint = srv.URL
	f.gw.providers[ProviderMoMo] = NewMoMo(cfg, NewClient(time.Second, 100, 10))

	who := bookings.Requester{UserID: f.booking.UserID}
	resp, err := f.gw.CreatePayment(context.Background(), ProviderMoMo, f.booking.ID, who)
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/abc", resp.PayURL)
	assert.Equal(t, int64(16), resp.Amount)
	assert.Equal(t, int64(16), got.Amount)
	assert.Equal(t, "https://api.example.com/api/v1/payments/momo/callback", got.IpnURL)
	assert.Equal(t, f.momo.createSignature(got), got.Signature)

	tx, err := f.txs.GetByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, TransactionCreated, tx.Status)

	// The callback for this order is recorded against the transaction.
	cb := momoCallback{
		PartnerCode: momoCfg.PartnerCode, OrderID: resp.OrderID, RequestID: got.RequestID,
		Amount: 16, TransID: 42, ResultCode: 0, ExtraData: got.ExtraData, ResponseTime: 1,
	}
	cb.Signature = Sign(f.momo.callbackSignature(cb), momoCfg.SecretKey)
	body, _ := json.Marshal(cb)
	_, err = f.gw.HandleCallback(context.Background(), ProviderMoMo, body, "application/json")
	require.NoError(t, err)

	tx, err = f.txs.GetByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, TransactionSucceeded, tx.Status)
	assert.Equal(t, "42", tx.ProviderTransactionID)
}

func TestCreatePaymentRejections(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)
	owner := bookings.Requester{UserID: f.booking.UserID}

	_, err := f.gw.CreatePayment(context.Background(), ProviderZaloPay, f.booking.ID, owner)
	assert.ErrorIs(t, err, ErrMethodMismatch)

	_, err = f.gw.CreatePayment(context.Background(), ProviderMoMo, f.booking.ID, bookings.Requester{UserID: uuid.New()})
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)

	fractional := f.booking
	fractional.FinalAmount = 16.5
	f.repo.PutBooking(fractional)
	_, err = f.gw.CreatePayment(context.Background(), ProviderMoMo, f.booking.ID, owner)
	assert.ErrorIs(t, err, ErrFractionalAmount)
	f.repo.PutBooking(f.booking)

	f.gw.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = f.gw.CreatePayment(context.Background(), ProviderMoMo, f.booking.ID, owner)
	assert.ErrorIs(t, err, ErrHoldExpired)
}

func TestCallbackForFractionalLedgerAmountIsNotApplied(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)
	fractional := f.booking
	fractional.FinalAmount = 16.4
	f.repo.PutBooking(fractional)

	ack, err := f.gw.HandleCallback(context.Background(), ProviderMoMo, f.momoCallback(t, 0, 16, 8, false), "application/json")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, ack.Status)
	assert.Equal(t, bookings.PaymentPending, f.current(t).PaymentStatus)
}
