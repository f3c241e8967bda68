package payments

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cineplex/internal/bookings"
	"cineplex/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paymentsSecret = "payments-secret"

func newPaymentsRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupPaymentRoutes(r.Group("/api/v1"), NewController(f.gw), middleware.JWTAuth(paymentsSecret))
	return r
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"email":   "fan@example.com",
		"role":    "USER",
		"type":    "access",
		"exp":     time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(paymentsSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func post(r *gin.Engine, path, contentType, authz string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMoMoCallbackEndpoint(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)
	r := newPaymentsRouter(f)

	w := post(r, "/api/v1/payments/momo/callback", "application/json", "", f.momoCallback(t, 0, 16, 7, true))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, bookings.PaymentPending, f.current(t).PaymentStatus)

	w = post(r, "/api/v1/payments/momo/callback", "application/json", "", f.momoCallback(t, 0, 16, 7, false))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, bookings.PaymentPaid, f.current(t).PaymentStatus)
}

func TestZaloPayCallbackEndpoint(t *testing.T) {
	f := newFixture(t, bookings.MethodZaloPay)
	r := newPaymentsRouter(f)

	form := f.zaloCallback(t, 16, 555, zaloCfg.Key2)
	w := post(r, "/api/v1/payments/zalopay/callback", "application/x-www-form-urlencoded", "", []byte(form.Encode()))
	require.Equal(t, http.StatusOK, w.Code)

	var ack map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.EqualValues(t, 1, ack["return_code"])
	assert.Equal(t, "555", f.current(t).PaymentTransactionID)
}

func TestCallbackEndpointUnknownProvider(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)
	w := post(newPaymentsRouter(f), "/api/v1/payments/paypal/callback", "application/json", "", []byte(`{}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_PROVIDER")
}

func TestCreatePaymentEndpoint(t *testing.T) {
	f := newFixture(t, bookings.MethodMoMo)
	r := newPaymentsRouter(f)
	body := []byte(`{"bookingId":"` + f.booking.ID.String() + `"}`)

	w := post(r, "/api/v1/payments/momo/create", "application/json", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, "/api/v1/payments/momo/create", "application/json", bearer(t, f.booking.UserID), []byte(`{"bookingId":"nope"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, "/api/v1/payments/zalopay/create", "application/json", bearer(t, f.booking.UserID), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "PAYMENT_METHOD_MISMATCH"))

	w = post(r, "/api/v1/payments/momo/create", "application/json", bearer(t, uuid.New()), body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
