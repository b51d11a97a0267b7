package domain

import (
	"context"
	"net/http"
)

type ProviderOrderRequest struct {
	OrderID       string
	Amount        int64
	Currency      string
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	ReturnURL     string
	Note          string
}

type ProviderOrder struct {
	OrderID      string
	SessionToken string
	Status       string
	Raw          []byte
}

// Provider is the payment gateway port. Implementations translate transport
// failures into ErrUpstream so callers can treat them as retryable.
type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req ProviderOrderRequest) (*ProviderOrder, error)
	FetchOrder(ctx context.Context, orderID string) (*ProviderOrder, error)
	VerifyWebhook(payload []byte, headers http.Header) error
}
