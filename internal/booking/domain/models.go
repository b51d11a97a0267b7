package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusRefunded  BookingStatus = "REFUNDED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// Booking rows are never hard-deleted; every lifecycle change is a status
// transition so the financial history stays intact.
type Booking struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID  `gorm:"not null;index" json:"user_id"`
	EventID       snowflake.ID  `gorm:"not null;index" json:"event_id"`
	TicketTypeID  snowflake.ID  `gorm:"not null;index:ix_bookings_ticket_type_status" json:"ticket_type_id"`
	Quantity      int64         `gorm:"not null" json:"quantity"`
	Status        BookingStatus `gorm:"type:text;not null;default:PENDING;index:ix_bookings_ticket_type_status" json:"status"`
	TotalAmount   int64         `gorm:"not null" json:"total_amount"`
	Currency      string        `gorm:"type:text;not null" json:"currency"`
	HoldExpiresAt *time.Time    `json:"hold_expires_at"`
	QRUrl         string        `gorm:"column:qr_url" json:"qr_url,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// HoldLapsed reports whether the PENDING hold no longer reserves seats.
func (b *Booking) HoldLapsed(now time.Time) bool {
	return b.HoldExpiresAt == nil || !b.HoldExpiresAt.After(now)
}
