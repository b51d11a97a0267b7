package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/clubhive/clubhive/internal/booking/domain"
	"github.com/clubhive/clubhive/internal/clock"
	"github.com/clubhive/clubhive/internal/config"
	paymentdomain "github.com/clubhive/clubhive/internal/payment/domain"
	walletdomain "github.com/clubhive/clubhive/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Cfg         config.Config
	Clock       clock.Clock
	PaymentRepo paymentdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	cfg         config.Config
	clock       clock.Clock
	paymentRepo paymentdomain.Repository
}

func NewService(p Params) walletdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("wallet.service"),
		genID:       p.GenID,
		cfg:         p.Cfg,
		clock:       p.Clock,
		paymentRepo: p.PaymentRepo,
	}
}

func (s *Service) CreditForBooking(ctx context.Context, tx *gorm.DB, organizerID snowflake.ID, booking *bookingdomain.Booking, payment *paymentdomain.Payment) (*walletdomain.CreditResult, error) {
	if organizerID == 0 {
		return nil, walletdomain.ErrInvalidOrganizer
	}
	gross := payment.Amount
	if gross <= 0 {
		return nil, walletdomain.ErrInvalidAmount
	}

	commission := roundedCommission(gross, s.cfg.CommissionPercent)
	gatewayFee := s.cfg.GatewayFeeFlat
	net := gross - commission - gatewayFee
	if net < 0 {
		net = 0
	}

	now := s.clock.Now()
	if err := s.paymentRepo.UpdateSettlementAmounts(ctx, tx, payment.ID, commission, gatewayFee, net, now); err != nil {
		return nil, err
	}

	wallet, err := s.lockOrCreateWallet(ctx, tx, organizerID, payment.Currency)
	if err != nil {
		return nil, err
	}

	balance := wallet.BalanceAvailable + net
	if err := s.updateBalance(ctx, tx, wallet.ID, balance, now); err != nil {
		return nil, err
	}

	entry := &walletdomain.WalletTransaction{
		ID:            s.genID.Generate(),
		WalletID:      wallet.ID,
		Type:          walletdomain.TransactionTypeCredit,
		Amount:        net,
		ReferenceType: walletdomain.ReferenceTypeBooking,
		ReferenceID:   booking.ID,
		Description:   fmt.Sprintf("Payout for booking %s", booking.ID),
		Meta: datatypes.JSONMap{
			"gross":              gross,
			"commission_percent": s.cfg.CommissionPercent,
			"commission_amount":  commission,
			"gateway_fee":        gatewayFee,
		},
		CreatedAt: now,
	}
	if err := s.insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}

	s.log.Info("organizer wallet credited",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.Int64("net_amount", net),
	)

	return &walletdomain.CreditResult{
		WalletID:         wallet.ID,
		CommissionAmount: commission,
		GatewayFee:       gatewayFee,
		NetAmount:        net,
		Balance:          balance,
	}, nil
}

func (s *Service) ReverseCredit(ctx context.Context, tx *gorm.DB, organizerID snowflake.ID, booking *bookingdomain.Booking, payment *paymentdomain.Payment, eventID snowflake.ID) (*walletdomain.ReversalResult, error) {
	if organizerID == 0 {
		return nil, walletdomain.ErrInvalidOrganizer
	}
	net := payment.NetAmount
	if net <= 0 {
		return nil, walletdomain.ErrInvalidAmount
	}

	wallet, err := s.lockWallet(ctx, tx, organizerID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, walletdomain.ErrNotFound
	}

	now := s.clock.Now()
	balance := wallet.BalanceAvailable - net
	var shortfall int64
	if balance < 0 {
		// Never persist a negative balance; the uncovered remainder is
		// recorded in the ledger metadata instead.
		shortfall = -balance
		balance = 0
	}
	if err := s.updateBalance(ctx, tx, wallet.ID, balance, now); err != nil {
		return nil, err
	}

	entry := &walletdomain.WalletTransaction{
		ID:            s.genID.Generate(),
		WalletID:      wallet.ID,
		Type:          walletdomain.TransactionTypeReversal,
		Amount:        net,
		ReferenceType: walletdomain.ReferenceTypeEventCancel,
		ReferenceID:   eventID,
		Description:   fmt.Sprintf("Reversal for cancelled booking %s", booking.ID),
		Meta: datatypes.JSONMap{
			"booking_id": booking.ID.String(),
			"payment_id": payment.ID.String(),
			"shortfall":  shortfall,
		},
		CreatedAt: now,
	}
	if err := s.insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}

	// Bookkeeping only: asking the gateway to return funds is out of scope
	// and must be triggered separately.
	if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, paymentdomain.PaymentStatusRefunded, payment.RawPayload, now); err != nil {
		return nil, err
	}

	s.log.Info("organizer credit reversed",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.Int64("reversed", net),
		zap.Int64("shortfall", shortfall),
	)

	return &walletdomain.ReversalResult{
		WalletID:  wallet.ID,
		Reversed:  net,
		Shortfall: shortfall,
		Balance:   balance,
	}, nil
}

func (s *Service) Balance(ctx context.Context, organizerID snowflake.ID) (*walletdomain.Wallet, error) {
	var wallet walletdomain.Wallet
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, organizer_id, balance_available, balance_locked, currency, created_at, updated_at
		 FROM wallets
		 WHERE organizer_id = ?
		 LIMIT 1`,
		organizerID,
	).Scan(&wallet).Error
	if err != nil {
		return nil, err
	}
	if wallet.ID == 0 {
		return nil, walletdomain.ErrNotFound
	}
	return &wallet, nil
}

func (s *Service) ListTransactions(ctx context.Context, organizerID snowflake.ID) ([]walletdomain.WalletTransaction, error) {
	wallet, err := s.Balance(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	var items []walletdomain.WalletTransaction
	err = s.db.WithContext(ctx).Raw(
		`SELECT id, wallet_id, type, amount, reference_type, reference_id, description, meta, created_at
		 FROM wallet_transactions
		 WHERE wallet_id = ?
		 ORDER BY created_at DESC`,
		wallet.ID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// roundedCommission rounds half-up in integer minor units.
func roundedCommission(gross, percent int64) int64 {
	if percent <= 0 {
		return 0
	}
	return (gross*percent + 50) / 100
}

func (s *Service) lockWallet(ctx context.Context, tx *gorm.DB, organizerID snowflake.ID) (*walletdomain.Wallet, error) {
	var wallet walletdomain.Wallet
	err := tx.WithContext(ctx).Raw(
		`SELECT id, organizer_id, balance_available, balance_locked, currency, created_at, updated_at
		 FROM wallets
		 WHERE organizer_id = ?
		 FOR UPDATE`,
		organizerID,
	).Scan(&wallet).Error
	if err != nil {
		return nil, err
	}
	if wallet.ID == 0 {
		return nil, nil
	}
	return &wallet, nil
}

func (s *Service) lockOrCreateWallet(ctx context.Context, tx *gorm.DB, organizerID snowflake.ID, currency string) (*walletdomain.Wallet, error) {
	wallet, err := s.lockWallet(ctx, tx, organizerID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	now := s.clock.Now()
	wallet = &walletdomain.Wallet{
		ID:          s.genID.Generate(),
		OrganizerID: organizerID,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = tx.WithContext(ctx).Exec(
		`INSERT INTO wallets (
			id, organizer_id, balance_available, balance_locked, currency, created_at, updated_at
		) VALUES (?, ?, 0, 0, ?, ?, ?)`,
		wallet.ID,
		wallet.OrganizerID,
		wallet.Currency,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	).Error
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *Service) updateBalance(ctx context.Context, tx *gorm.DB, walletID snowflake.ID, balance int64, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE wallets
		 SET balance_available = ?, updated_at = ?
		 WHERE id = ?`,
		balance,
		now,
		walletID,
	).Error
}

func (s *Service) insertTransaction(ctx context.Context, tx *gorm.DB, entry *walletdomain.WalletTransaction) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO wallet_transactions (
			id, wallet_id, type, amount, reference_type, reference_id, description, meta, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.WalletID,
		entry.Type,
		entry.Amount,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.Description,
		entry.Meta,
		entry.CreatedAt,
	).Error
}
