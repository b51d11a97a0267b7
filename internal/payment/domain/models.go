package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "INITIATED"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Payment is 1:1 with a Booking. RawPayload always keeps the last provider
// payload for audit, whatever the reported status was.
type Payment struct {
	ID               snowflake.ID   `gorm:"primaryKey" json:"id"`
	BookingID        snowflake.ID   `gorm:"not null;uniqueIndex" json:"booking_id"`
	Provider         string         `gorm:"type:text;not null" json:"provider"`
	ProviderOrderID  string         `gorm:"type:text;uniqueIndex" json:"provider_order_id,omitempty"`
	Status           PaymentStatus  `gorm:"type:text;not null;default:INITIATED" json:"status"`
	Amount           int64          `gorm:"not null" json:"amount"`
	Currency         string         `gorm:"type:text;not null" json:"currency"`
	GatewayFee       int64          `gorm:"not null;default:0" json:"gateway_fee"`
	CommissionAmount int64          `gorm:"not null;default:0" json:"commission_amount"`
	NetAmount        int64          `gorm:"not null;default:0" json:"net_amount"`
	RawPayload       datatypes.JSON `gorm:"type:jsonb" json:"-"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

const ProviderCashfree = "CASHFREE"

// MapProviderStatus translates the provider's status vocabulary into the
// closed internal set at the boundary. Unrecognized statuses return ok=false
// and must never force a booking transition.
func MapProviderStatus(raw string) (PaymentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PAID", "SUCCESS":
		return PaymentStatusSuccess, true
	case "FAILED", "FAILURE":
		return PaymentStatusFailed, true
	case "REFUNDED":
		return PaymentStatusRefunded, true
	default:
		return "", false
	}
}
