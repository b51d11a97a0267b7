package cashfree

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clubhive/clubhive/internal/config"
	"github.com/clubhive/clubhive/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	sandboxBaseURL    = "https://sandbox.cashfree.com/pg"
	productionBaseURL = "https://api.cashfree.com/pg"
	apiVersion        = "2023-08-01"
)

// Client talks to the Cashfree PG REST API. Amounts cross the wire as major
// units, so minor units convert at this boundary and nowhere else.
type Client struct {
	baseURL       string
	appID         string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
	log           *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Client {
	baseURL := sandboxBaseURL
	if cfg.CashfreeEnv == "PRODUCTION" {
		baseURL = productionBaseURL
	}
	return &Client{
		baseURL:       baseURL,
		appID:         cfg.CashfreeAppID,
		secretKey:     cfg.CashfreeSecretKey,
		webhookSecret: cfg.CashfreeWebhookSecret,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		log:           log.Named("payment.cashfree"),
	}
}

func (c *Client) Name() string { return domain.ProviderCashfree }

type orderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	OrderNote       string          `json:"order_note,omitempty"`
	CustomerDetails customerDetails `json:"customer_details"`
	OrderMeta       orderMeta       `json:"order_meta"`
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type orderResponse struct {
	OrderID          string `json:"order_id"`
	OrderStatus      string `json:"order_status"`
	PaymentSessionID string `json:"payment_session_id"`
}

func (c *Client) CreateOrder(ctx context.Context, req domain.ProviderOrderRequest) (*domain.ProviderOrder, error) {
	body := orderRequest{
		OrderID:       req.OrderID,
		OrderAmount:   float64(req.Amount) / 100,
		OrderCurrency: req.Currency,
		OrderNote:     req.Note,
		CustomerDetails: customerDetails{
			CustomerID:    req.CustomerID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
		},
		OrderMeta: orderMeta{ReturnURL: req.ReturnURL},
	}
	return c.do(ctx, http.MethodPost, "/orders", body)
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (*domain.ProviderOrder, error) {
	return c.do(ctx, http.MethodGet, "/orders/"+orderID, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*domain.ProviderOrder, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-version", apiVersion)
	req.Header.Set("x-client-id", c.appID)
	req.Header.Set("x-client-secret", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("cashfree request failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.log.Warn("cashfree server error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstream, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("cashfree rejected %s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}

	var parsed orderResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode cashfree response: %w", err)
	}
	return &domain.ProviderOrder{
		OrderID:      parsed.OrderID,
		SessionToken: parsed.PaymentSessionID,
		Status:       parsed.OrderStatus,
		Raw:          raw,
	}, nil
}

// VerifyWebhook checks the HMAC-SHA256 signature Cashfree computes over
// timestamp + raw payload.
func (c *Client) VerifyWebhook(payload []byte, headers http.Header) error {
	signature := headers.Get("x-webhook-signature")
	timestamp := headers.Get("x-webhook-timestamp")
	if signature == "" || timestamp == "" {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrInvalidSignature
	}
	return nil
}
