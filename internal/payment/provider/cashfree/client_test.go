package cashfree

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubhive/clubhive/internal/config"
	"github.com/clubhive/clubhive/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(config.Config{
		CashfreeEnv:           "SANDBOX",
		CashfreeAppID:         "app_test",
		CashfreeSecretKey:     "secret_test",
		CashfreeWebhookSecret: "whsec_test",
	}, zap.NewNop())
	client.baseURL = srv.URL
	return client
}

func TestCreateOrder_SendsCredentialsAndMajorUnits(t *testing.T) {
	var captured orderRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "app_test", r.Header.Get("x-client-id"))
		assert.Equal(t, "secret_test", r.Header.Get("x-client-secret"))
		assert.Equal(t, apiVersion, r.Header.Get("x-api-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order_id":"booking_42","order_status":"ACTIVE","payment_session_id":"session_abc"}`))
	}))

	order, err := client.CreateOrder(context.Background(), domain.ProviderOrderRequest{
		OrderID:    "booking_42",
		Amount:     123_450,
		Currency:   "INR",
		CustomerID: "99",
	})
	require.NoError(t, err)

	assert.Equal(t, "booking_42", order.OrderID)
	assert.Equal(t, "session_abc", order.SessionToken)
	assert.Equal(t, "ACTIVE", order.Status)
	assert.InDelta(t, 1234.50, captured.OrderAmount, 0.001)
}

func TestFetchOrder_ReturnsStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/orders/booking_42", r.URL.Path)
		_, _ = w.Write([]byte(`{"order_id":"booking_42","order_status":"PAID"}`))
	}))

	order, err := client.FetchOrder(context.Background(), "booking_42")
	require.NoError(t, err)
	assert.Equal(t, "PAID", order.Status)
}

func TestDo_ServerErrorIsUpstream(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.FetchOrder(context.Background(), "booking_42")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestDo_ClientErrorIsNotUpstream(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"order_id invalid"}`))
	}))

	_, err := client.FetchOrder(context.Background(), "booking_42")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUpstream)
}

func TestVerifyWebhook(t *testing.T) {
	client := New(config.Config{
		CashfreeEnv:           "SANDBOX",
		CashfreeWebhookSecret: "whsec_test",
	}, zap.NewNop())

	payload := []byte(`{"data":{"order":{"order_id":"booking_42"}}}`)
	timestamp := "1717236000"

	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write([]byte(timestamp))
	mac.Write(payload)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	headers := http.Header{}
	headers.Set("x-webhook-signature", signature)
	headers.Set("x-webhook-timestamp", timestamp)
	assert.NoError(t, client.VerifyWebhook(payload, headers))

	headers.Set("x-webhook-signature", "bogus")
	assert.ErrorIs(t, client.VerifyWebhook(payload, headers), domain.ErrInvalidSignature)

	assert.ErrorIs(t, client.VerifyWebhook(payload, http.Header{}), domain.ErrInvalidSignature)
}
