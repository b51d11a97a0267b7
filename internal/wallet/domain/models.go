package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/clubhive/clubhive/internal/booking/domain"
	paymentdomain "github.com/clubhive/clubhive/internal/payment/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionTypeCredit   TransactionType = "CREDIT"
	TransactionTypeReversal TransactionType = "REVERSAL"
)

type ReferenceType string

const (
	ReferenceTypeBooking     ReferenceType = "BOOKING"
	ReferenceTypeEventCancel ReferenceType = "EVENT_CANCEL"
)

// Wallet is created lazily on the organizer's first settlement.
// BalanceAvailable is floored at zero; a shortfall is recorded in the ledger
// metadata, never carried as debt.
type Wallet struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizerID      snowflake.ID `gorm:"not null;uniqueIndex" json:"organizer_id"`
	BalanceAvailable int64        `gorm:"not null;default:0" json:"balance_available"`
	BalanceLocked    int64        `gorm:"not null;default:0" json:"balance_locked"`
	Currency         string       `gorm:"type:text;not null" json:"currency"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

// WalletTransaction is an append-only ledger row; it is never updated or
// deleted once written.
type WalletTransaction struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	WalletID      snowflake.ID      `gorm:"not null;index" json:"wallet_id"`
	Type          TransactionType   `gorm:"type:text;not null" json:"type"`
	Amount        int64             `gorm:"not null" json:"amount"`
	ReferenceType ReferenceType     `gorm:"type:text;not null" json:"reference_type"`
	ReferenceID   snowflake.ID      `gorm:"not null" json:"reference_id"`
	Description   string            `json:"description,omitempty"`
	Meta          datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"meta"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }

var (
	ErrInvalidOrganizer = errors.New("wallet_invalid_organizer")
	ErrInvalidAmount    = errors.New("wallet_invalid_amount")
	ErrNotFound         = errors.New("wallet_not_found")
)

type CreditResult struct {
	WalletID         snowflake.ID
	CommissionAmount int64
	GatewayFee       int64
	NetAmount        int64
	Balance          int64
}

type ReversalResult struct {
	WalletID  snowflake.ID
	Reversed  int64
	Shortfall int64
	Balance   int64
}

// Service methods are transaction-scoped: they run inside the caller's
// settlement transaction so booking, payment and wallet mutate atomically.
type Service interface {
	CreditForBooking(ctx context.Context, tx *gorm.DB, organizerID snowflake.ID, booking *bookingdomain.Booking, payment *paymentdomain.Payment) (*CreditResult, error)
	ReverseCredit(ctx context.Context, tx *gorm.DB, organizerID snowflake.ID, booking *bookingdomain.Booking, payment *paymentdomain.Payment, eventID snowflake.ID) (*ReversalResult, error)
	Balance(ctx context.Context, organizerID snowflake.ID) (*Wallet, error)
	ListTransactions(ctx context.Context, organizerID snowflake.ID) ([]WalletTransaction, error)
}
