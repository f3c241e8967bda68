package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"cineplex/internal/shared/config"

	"github.com/google/uuid"
)

const momoRequestType = "captureWallet"

// MoMo implements the captureWallet flow of the MoMo v2 gateway.
type MoMo struct {
	cfg    config.MoMoConfig
	client *Client
}

func NewMoMo(cfg config.MoMoConfig, client *Client) *MoMo {
	return &MoMo{cfg: cfg, client: client}
}

func (m *MoMo) Name() ProviderName { return ProviderMoMo }

type momoExtra struct {
	BookingID string `json:"bookingId"`
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
	Deeplink   string `json:"deeplink"`
}

// momoCallback is the IPN body. Numeric fields arrive as JSON numbers.
type momoCallback struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

func encodeMoMoExtra(bookingID uuid.UUID) string {
	raw, _ := json.Marshal(momoExtra{BookingID: bookingID.String()})
	return base64.StdEncoding.EncodeToString(raw)
}

func (m *MoMo) createSignature(r momoCreateRequest) string {
	raw := "accessKey=" + r.AccessKey +
		"&amount=" + strconv.FormatInt(r.Amount, 10) +
		"&extraData=" + r.ExtraData +
		"&ipnUrl=" + r.IpnURL +
		"&orderId=" + r.OrderID +
		"&orderInfo=" + r.OrderInfo +
		"&partnerCode=" + r.PartnerCode +
		"&redirectUrl=" + r.RedirectURL +
		"&requestId=" + r.RequestID +
		"&requestType=" + r.RequestType
	return Sign(raw, m.cfg.SecretKey)
}

func (m *MoMo) callbackSignature(cb momoCallback) string {
	return "accessKey=" + m.cfg.AccessKey +
		"&amount=" + strconv.FormatInt(cb.Amount, 10) +
		"&extraData=" + cb.ExtraData +
		"&message=" + cb.Message +
		"&orderId=" + cb.OrderID +
		"&orderInfo=" + cb.OrderInfo +
		"&orderType=" + cb.OrderType +
		"&partnerCode=" + cb.PartnerCode +
		"&payType=" + cb.PayType +
		"&requestId=" + cb.RequestID +
		"&responseTime=" + strconv.FormatInt(cb.ResponseTime, 10) +
		"&resultCode=" + strconv.Itoa(cb.ResultCode) +
		"&transId=" + strconv.FormatInt(cb.TransID, 10)
}

func (m *MoMo) CreatePayment(ctx context.Context, order Order) (*Checkout, error) {
	if m.cfg.PartnerCode == "" || m.cfg.AccessKey == "" || m.cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	req := momoCreateRequest{
		PartnerCode: m.cfg.PartnerCode,
		AccessKey:   m.cfg.AccessKey,
		RequestID:   order.RequestID,
		Amount:      order.Amount,
		OrderID:     order.OrderID,
		OrderInfo:   order.Description,
		RedirectURL: order.ReturnURL,
		IpnURL:      order.CallbackURL,
		ExtraData:   encodeMoMoExtra(order.BookingID),
		RequestType: momoRequestType,
		Lang:        "vi",
	}
	req.Signature = m.createSignature(req)

	var resp momoCreateResponse
	if err := m.client.PostJSON(ctx, m.cfg.Endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("momo create payment: %w", err)
	}
	if resp.ResultCode != 0 {
		return nil, ErrProviderRejected.WithDetails(map[string]any{"resultCode": resp.ResultCode, "message": resp.Message})
	}
	return &Checkout{PayURL: resp.PayURL, Deeplink: resp.Deeplink}, nil
}

func (m *MoMo) ParseCallback(body []byte, _ string) (*Callback, error) {
	var cb momoCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, ErrMalformed.Wrap(err)
	}
	if !VerifySignature(m.callbackSignature(cb), cb.Signature, m.cfg.SecretKey) {
		return nil, ErrInvalidSignature
	}

	raw, err := base64.StdEncoding.DecodeString(cb.ExtraData)
	if err != nil {
		return nil, ErrMalformed.Wrap(err)
	}
	var extra momoExtra
	if err := json.Unmarshal(raw, &extra); err != nil {
		return nil, ErrMalformed.Wrap(err)
	}
	bookingID, err := uuid.Parse(extra.BookingID)
	if err != nil {
		return nil, ErrMalformed.Wrap(err)
	}

	return &Callback{
		OrderID:       cb.OrderID,
		BookingID:     bookingID,
		TransactionID: strconv.FormatInt(cb.TransID, 10),
		Amount:        cb.Amount,
		Success:       cb.ResultCode == 0,
		ResultCode:    strconv.Itoa(cb.ResultCode),
	}, nil
}

// Ack answers an IPN: 204 once handled, 400 for a bad signature, 500 to
// make MoMo retry.
func (m *MoMo) Ack(err error) Ack {
	switch {
	case err == nil:
		return Ack{Status: http.StatusNoContent}
	case errors.Is(err, ErrInvalidSignature):
		return Ack{Status: http.StatusBadRequest, Body: map[string]string{"message": "invalid signature"}}
	default:
		return Ack{Status: http.StatusInternalServerError, Body: map[string]string{"message": "retry later"}}
	}
}
