package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/clubhive/clubhive/internal/user/domain"
)

type CreateBookingRequest struct {
	EventID      snowflake.ID
	TicketTypeID snowflake.ID
	Quantity     int64
}

type BookingSummary struct {
	ID            snowflake.ID  `json:"id"`
	Status        BookingStatus `json:"status"`
	Quantity      int64         `json:"quantity"`
	TotalAmount   int64         `json:"total_amount"`
	Currency      string        `json:"currency"`
	HoldExpiresAt *time.Time    `json:"hold_expires_at,omitempty"`
	QRUrl         string        `json:"qr_url,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type PaymentSummary struct {
	ID              snowflake.ID `json:"id"`
	Provider        string       `json:"provider"`
	Status          string       `json:"status"`
	Amount          int64        `json:"amount"`
	Currency        string       `json:"currency"`
	ProviderOrderID string       `json:"provider_order_id,omitempty"`
}

type EventSummary struct {
	ID        snowflake.ID `json:"id"`
	Title     string       `json:"title"`
	StartTime *time.Time   `json:"start_time,omitempty"`
}

type TicketSummary struct {
	ID    snowflake.ID `json:"id"`
	Name  string       `json:"name"`
	Price int64        `json:"price"`
}

type CreateBookingResponse struct {
	Booking BookingSummary `json:"booking"`
	Payment PaymentSummary `json:"payment"`
}

// BookingListItem embeds collaborator summaries for booking-history views.
type BookingListItem struct {
	BookingSummary
	Event   *EventSummary   `json:"event,omitempty"`
	Ticket  *TicketSummary  `json:"ticket_type,omitempty"`
	Payment *PaymentSummary `json:"payment,omitempty"`
}

type CancelEventResponse struct {
	EventID           snowflake.ID `json:"event_id"`
	BookingsCancelled int64        `json:"bookings_cancelled"`
	WalletReversals   int64        `json:"wallet_reversals"`
	PaymentsRefunded  int64        `json:"payments_refunded"`
}

var (
	ErrNotFound        = errors.New("booking_not_found")
	ErrNotOwner        = errors.New("booking_not_owner")
	ErrInvalidState    = errors.New("booking_invalid_state")
	ErrInvalidQuantity = errors.New("booking_invalid_quantity")
)

type Service interface {
	Create(ctx context.Context, requester userdomain.Requester, req CreateBookingRequest) (*CreateBookingResponse, error)
	ListMine(ctx context.Context, requester userdomain.Requester) ([]BookingListItem, error)
	Cancel(ctx context.Context, requester userdomain.Requester, bookingID snowflake.ID) (*BookingSummary, error)

	// ExpireStaleHolds transitions every PENDING booking with a lapsed hold to
	// EXPIRED and returns the number of rows transitioned. Safe to call
	// repeatedly; availability already excludes lapsed holds at read time.
	ExpireStaleHolds(ctx context.Context) (int64, error)

	// CancelEvent is the host-initiated flow: cancels the event, cancels all
	// its bookings and reverses the organizer credit for confirmed, settled
	// ones. Refunding the payer at the gateway is a separate concern.
	CancelEvent(ctx context.Context, requester userdomain.Requester, eventID snowflake.ID) (*CancelEventResponse, error)
}
