package domain

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/clubhive/clubhive/internal/user/domain"
)

var (
	ErrNotFound         = errors.New("payment_not_found")
	ErrNotOwner         = errors.New("payment_not_owner")
	ErrInvalidState     = errors.New("payment_invalid_state")
	ErrInvalidAmount    = errors.New("payment_invalid_amount")
	ErrInvalidPayload   = errors.New("payment_invalid_payload")
	ErrInvalidSignature = errors.New("payment_invalid_signature")

	// ErrUpstream marks a transient provider failure; the booking stays
	// PENDING and the caller may retry.
	ErrUpstream = errors.New("payment_provider_unavailable")
)

type CreateOrderResponse struct {
	BookingID    snowflake.ID `json:"booking_id"`
	OrderID      string       `json:"order_id"`
	SessionToken string       `json:"payment_session_id,omitempty"`
}

type SettlementStatus struct {
	OrderID       string        `json:"order_id"`
	Status        PaymentStatus `json:"status"`
	BookingID     snowflake.ID  `json:"booking_id"`
	BookingStatus string        `json:"booking_status,omitempty"`
}

type Service interface {
	// CreateOrder creates (or reuses) the provider order for a PENDING
	// booking owned by the requester. Retried calls reuse the deterministic
	// booking-derived order id and the existing INITIATED payment row.
	CreateOrder(ctx context.Context, requester userdomain.Requester, bookingID snowflake.ID) (*CreateOrderResponse, error)

	// IngestWebhook verifies and applies an asynchronous provider callback.
	IngestWebhook(ctx context.Context, payload []byte, headers http.Header) (*SettlementStatus, error)

	// Poll fetches the order from the provider and applies the same
	// settlement rules as the webhook path.
	Poll(ctx context.Context, requester userdomain.Requester, orderID string) (*SettlementStatus, error)

	// Status is the read-only projection of the stored payment status.
	Status(ctx context.Context, orderID string) (*SettlementStatus, error)
}
