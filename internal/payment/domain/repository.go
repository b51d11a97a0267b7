package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, payment *Payment) error
	FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*Payment, error)
	FindByBookingIDForUpdate(ctx context.Context, tx *gorm.DB, bookingID snowflake.ID) (*Payment, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*Payment, error)
	FindByOrderIDForUpdate(ctx context.Context, tx *gorm.DB, orderID string) (*Payment, error)
	AttachOrder(ctx context.Context, tx *gorm.DB, id snowflake.ID, orderID string, raw datatypes.JSON, now time.Time) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status PaymentStatus, raw datatypes.JSON, now time.Time) error
	UpdateSettlementAmounts(ctx context.Context, tx *gorm.DB, id snowflake.ID, commission, gatewayFee, net int64, now time.Time) error
}
