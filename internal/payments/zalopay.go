package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cineplex/internal/shared/config"

	"github.com/google/uuid"
)

// ZaloPay implements the ZaloPay v2 order flow. key1 signs outbound orders,
// key2 verifies callbacks.
type ZaloPay struct {
	cfg    config.ZaloPayConfig
	client *Client
	now    func() time.Time
}

func NewZaloPay(cfg config.ZaloPayConfig, client *Client) *ZaloPay {
	return &ZaloPay{cfg: cfg, client: client, now: time.Now}
}

func (z *ZaloPay) Name() ProviderName { return ProviderZaloPay }

type zaloEmbed struct {
	RedirectURL string `json:"redirecturl"`
	BookingID   string `json:"bookingId"`
}

type zaloCreateRequest struct {
	AppID       int64  `json:"app_id"`
	AppUser     string `json:"app_user"`
	AppTime     int64  `json:"app_time"`
	Amount      int64  `json:"amount"`
	AppTransID  string `json:"app_trans_id"`
	EmbedData   string `json:"embed_data"`
	Item        string `json:"item"`
	Description string `json:"description"`
	CallbackURL string `json:"callback_url"`
	Mac         string `json:"mac"`
}

type zaloCreateResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	OrderURL      string `json:"order_url"`
	ZpTransToken  string `json:"zp_trans_token"`
}

type zaloEnvelope struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

type zaloCallbackData struct {
	AppID      int64  `json:"app_id"`
	AppTransID string `json:"app_trans_id"`
	AppTime    int64  `json:"app_time"`
	AppUser    string `json:"app_user"`
	Amount     int64  `json:"amount"`
	EmbedData  string `json:"embed_data"`
	ZpTransID  int64  `json:"zp_trans_id"`
	ServerTime int64  `json:"server_time"`
	// Present only on failure notifications.
	ReturnCode *int `json:"return_code,omitempty"`
}

// AppTransID formats the yymmdd_ prefixed order id ZaloPay requires.
func (z *ZaloPay) AppTransID(suffix string) string {
	return z.now().Format("060102") + "_" + suffix
}

func (z *ZaloPay) CreatePayment(ctx context.Context, order Order) (*Checkout, error) {
	appID, err := strconv.ParseInt(z.cfg.AppID, 10, 64)
	if err != nil || z.cfg.Key1 == "" {
		return nil, ErrNotConfigured
	}

	embed, _ := json.Marshal(zaloEmbed{RedirectURL: order.ReturnURL, BookingID: order.BookingID.String()})
	req := zaloCreateRequest{
		AppID:       appID,
		AppUser:     order.BookingID.String(),
		AppTime:     z.now().UnixMilli(),
		Amount:      order.Amount,
		AppTransID:  order.OrderID,
		EmbedData:   string(embed),
		Item:        "[]",
		Description: order.Description,
		CallbackURL: order.CallbackURL,
	}
	req.Mac = Sign(strings.Join([]string{
		z.cfg.AppID, req.AppTransID, req.AppUser,
		strconv.FormatInt(req.Amount, 10), strconv.FormatInt(req.AppTime, 10),
		req.EmbedData, req.Item,
	}, "|"), z.cfg.Key1)

	var resp zaloCreateResponse
	if err := z.client.PostJSON(ctx, z.cfg.Endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("zalopay create order: %w", err)
	}
	if resp.ReturnCode != 1 {
		return nil, ErrProviderRejected.WithDetails(map[string]any{"returnCode": resp.ReturnCode, "message": resp.ReturnMessage})
	}
	return &Checkout{PayURL: resp.OrderURL, Token: resp.ZpTransToken}, nil
}

// ParseCallback accepts the JSON envelope or its form-encoded equivalent.
func (z *ZaloPay) ParseCallback(body []byte, contentType string) (*Callback, error) {
	var env zaloEnvelope
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, ErrMalformed.Wrap(err)
		}
		env.Data = form.Get("data")
		env.Mac = form.Get("mac")
	} else if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrMalformed.Wrap(err)
	}

	if !VerifySignature(env.Data, env.Mac, z.cfg.Key2) {
		return nil, ErrInvalidSignature
	}

	var data zaloCallbackData
	if err := json.Unmarshal([]byte(env.Data), &data); err != nil {
		return nil, ErrMalformed.Wrap(err)
	}
	var embed zaloEmbed
	if err := json.Unmarshal([]byte(data.EmbedData), &embed); err != nil {
		return nil, ErrMalformed.Wrap(err)
	}
	bookingID, err := uuid.Parse(embed.BookingID)
	if err != nil {
		return nil, ErrMalformed.Wrap(err)
	}

	code := 1
	if data.ReturnCode != nil {
		code = *data.ReturnCode
	}
	return &Callback{
		OrderID:       data.AppTransID,
		BookingID:     bookingID,
		TransactionID: strconv.FormatInt(data.ZpTransID, 10),
		Amount:        data.Amount,
		Success:       code == 1,
		ResultCode:    strconv.Itoa(code),
	}, nil
}

// Ack always answers 200; ZaloPay reads the outcome from return_code and
// retries on 0.
func (z *ZaloPay) Ack(err error) Ack {
	switch {
	case err == nil:
		return jsonAck(map[string]any{"return_code": 1, "return_message": "success"})
	case errors.Is(err, ErrInvalidSignature):
		return jsonAck(map[string]any{"return_code": -1, "return_message": "mac not equal"})
	default:
		return jsonAck(map[string]any{"return_code": 0, "return_message": err.Error()})
	}
}
