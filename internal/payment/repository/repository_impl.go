package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubhive/clubhive/internal/payment/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const paymentColumns = `id, booking_id, provider, provider_order_id, status, amount, currency,
	gateway_fee, commission_amount, net_amount, raw_payload, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, payment *domain.Payment) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, booking_id, provider, provider_order_id, status, amount, currency,
			gateway_fee, commission_amount, net_amount, raw_payload, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.BookingID,
		payment.Provider,
		nullableString(payment.ProviderOrderID),
		payment.Status,
		payment.Amount,
		payment.Currency,
		payment.GatewayFee,
		payment.CommissionAmount,
		payment.NetAmount,
		payment.RawPayload,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*domain.Payment, error) {
	return r.findOne(ctx, db, `booking_id = ?`, "", bookingID)
}

func (r *repo) FindByBookingIDForUpdate(ctx context.Context, tx *gorm.DB, bookingID snowflake.ID) (*domain.Payment, error) {
	return r.findOne(ctx, tx, `booking_id = ?`, " FOR UPDATE", bookingID)
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*domain.Payment, error) {
	return r.findOne(ctx, db, `provider_order_id = ?`, "", orderID)
}

func (r *repo) FindByOrderIDForUpdate(ctx context.Context, tx *gorm.DB, orderID string) (*domain.Payment, error) {
	return r.findOne(ctx, tx, `provider_order_id = ?`, " FOR UPDATE", orderID)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, suffix string, arg any) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE `+where+suffix,
		arg,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) AttachOrder(ctx context.Context, tx *gorm.DB, id snowflake.ID, orderID string, raw datatypes.JSON, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE payments
		 SET provider_order_id = ?, raw_payload = ?, updated_at = ?
		 WHERE id = ?`,
		orderID,
		raw,
		now,
		id,
	).Error
}

func (r *repo) UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, status domain.PaymentStatus, raw datatypes.JSON, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, raw_payload = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		raw,
		now,
		id,
	).Error
}

func (r *repo) UpdateSettlementAmounts(ctx context.Context, tx *gorm.DB, id snowflake.ID, commission, gatewayFee, net int64, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE payments
		 SET commission_amount = ?, gateway_fee = ?, net_amount = ?, updated_at = ?
		 WHERE id = ?`,
		commission,
		gatewayFee,
		net,
		now,
		id,
	).Error
}

// nullableString keeps the unique index on provider_order_id happy: rows
// without an order yet must store NULL, not "".
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
