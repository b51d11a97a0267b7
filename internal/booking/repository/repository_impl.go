package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubhive/clubhive/internal/booking/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const bookingColumns = `id, user_id, event_id, ticket_type_id, quantity, status,
	total_amount, currency, hold_expires_at, qr_url, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, booking *domain.Booking) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO bookings (
			id, user_id, event_id, ticket_type_id, quantity, status,
			total_amount, currency, hold_expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.UserID,
		booking.EventID,
		booking.TicketTypeID,
		booking.Quantity,
		booking.Status,
		booking.TotalAmount,
		booking.Currency,
		booking.HoldExpiresAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var item domain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var item domain.Booking
	err := tx.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE id = ?
		 FOR UPDATE`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*domain.Booking, error) {
	var items []*domain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByEventForUpdate(ctx context.Context, tx *gorm.DB, eventID snowflake.ID) ([]*domain.Booking, error) {
	var items []*domain.Booking
	err := tx.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE event_id = ?
		 FOR UPDATE`,
		eventID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status domain.BookingStatus, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE bookings
		 SET status = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		now,
		id,
	).Error
}

func (r *repo) AttachQRUrl(ctx context.Context, tx *gorm.DB, id snowflake.ID, qrURL string, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE bookings
		 SET qr_url = ?, updated_at = ?
		 WHERE id = ?`,
		qrURL,
		now,
		id,
	).Error
}

// ExpireStale takes the implicit row locks of a bulk UPDATE; the predicate
// matches exactly the rows availability already stopped counting, including
// holds with no deadline at all.
func (r *repo) ExpireStale(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	result := tx.WithContext(ctx).Exec(
		`UPDATE bookings
		 SET status = ?, updated_at = ?
		 WHERE status = ? AND (hold_expires_at <= ? OR hold_expires_at IS NULL)`,
		domain.BookingStatusExpired,
		now,
		domain.BookingStatusPending,
		now,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
