package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Booking, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*Booking, error)
	ListByEventForUpdate(ctx context.Context, tx *gorm.DB, eventID snowflake.ID) ([]*Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status BookingStatus, now time.Time) error
	AttachQRUrl(ctx context.Context, tx *gorm.DB, id snowflake.ID, qrURL string, now time.Time) error
	ExpireStale(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}
