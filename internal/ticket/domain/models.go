package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// TicketType is created by event setup (out of scope) and effectively
// read-only here except for deactivation.
type TicketType struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	EventID     snowflake.ID `gorm:"not null;index" json:"event_id"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description,omitempty"`
	Price       int64        `gorm:"not null;default:0" json:"price"`
	Quota       *int64       `json:"quota"` // nil = unlimited
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	SalesStart  *time.Time   `json:"sales_start,omitempty"`
	SalesEnd    *time.Time   `json:"sales_end,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TicketType) TableName() string { return "ticket_types" }

// TicketAvailability is the per-type projection of remaining seats.
// Quota and Available are nil for unlimited ticket types.
type TicketAvailability struct {
	TicketTypeID snowflake.ID `json:"ticket_type_id"`
	Name         string       `json:"name"`
	Price        int64        `json:"price"`
	Quota        *int64       `json:"quota"`
	Used         int64        `json:"used"`
	Available    *int64       `json:"available"`
}

type AvailabilitySummary struct {
	EventID        snowflake.ID         `json:"event_id"`
	Tickets        []TicketAvailability `json:"tickets"`
	TotalQuota     int64                `json:"total_quota"`
	TotalUsed      int64                `json:"total_used"`
	TotalAvailable int64                `json:"total_available"`
}

var (
	ErrTicketTypeNotFound = errors.New("ticket_type_not_found")
	ErrCapacityExceeded   = errors.New("capacity_exceeded")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
)

type Service interface {
	// ComputeAvailability derives remaining seats for every active ticket
	// type of the event. Read-only; safe outside a transaction.
	ComputeAvailability(ctx context.Context, eventID snowflake.ID) (*AvailabilitySummary, error)

	// EnsureAvailable locks the ticket type row and fails with
	// ErrCapacityExceeded unless quantity seats are free right now. Must run
	// inside the same transaction as the booking insert that depends on it.
	EnsureAvailable(ctx context.Context, tx *gorm.DB, eventID, ticketTypeID snowflake.ID, quantity int64) (*TicketType, error)
}
