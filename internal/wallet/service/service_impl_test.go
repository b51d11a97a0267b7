package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/clubhive/clubhive/internal/booking/domain"
	"github.com/clubhive/clubhive/internal/clock"
	"github.com/clubhive/clubhive/internal/config"
	"github.com/clubhive/clubhive/internal/dbtest"
	paymentdomain "github.com/clubhive/clubhive/internal/payment/domain"
	paymentrepo "github.com/clubhive/clubhive/internal/payment/repository"
	walletdomain "github.com/clubhive/clubhive/internal/wallet/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	clock  *clock.FakeClock
	node   *snowflake.Node
	repo   paymentdomain.Repository
	svc    walletdomain.Service
	ctx    context.Context
	cancel context.CancelFunc
}

func newFixture(t *testing.T, commissionPercent, gatewayFeeFlat int64) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	fakeClock := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	repo := paymentrepo.Provide()
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg: config.Config{
			Currency:          "INR",
			CommissionPercent: commissionPercent,
			GatewayFeeFlat:    gatewayFeeFlat,
		},
		Clock:       fakeClock,
		PaymentRepo: repo,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &fixture{db: db, clock: fakeClock, node: node, repo: repo, svc: svc, ctx: ctx, cancel: cancel}
}

func (f *fixture) seedSettledPayment(t *testing.T, amount int64) (*bookingdomain.Booking, *paymentdomain.Payment) {
	t.Helper()
	now := f.clock.Now()
	booking := &bookingdomain.Booking{
		ID:           f.node.Generate(),
		UserID:       f.node.Generate(),
		EventID:      f.node.Generate(),
		TicketTypeID: f.node.Generate(),
		Quantity:     1,
		Status:       bookingdomain.BookingStatusConfirmed,
		TotalAmount:  amount,
		Currency:     "INR",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.db.Create(booking).Error)
	payment := &paymentdomain.Payment{
		ID:              f.node.Generate(),
		BookingID:       booking.ID,
		Provider:        paymentdomain.ProviderCashfree,
		ProviderOrderID: "booking_" + booking.ID.String(),
		Status:          paymentdomain.PaymentStatusSuccess,
		Amount:          amount,
		Currency:        "INR",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, f.db.Create(payment).Error)
	return booking, payment
}

func (f *fixture) credit(organizerID snowflake.ID, booking *bookingdomain.Booking, payment *paymentdomain.Payment) (*walletdomain.CreditResult, error) {
	var result *walletdomain.CreditResult
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = f.svc.CreditForBooking(f.ctx, tx, organizerID, booking, payment)
		return err
	})
	return result, err
}

func (f *fixture) reverse(organizerID snowflake.ID, booking *bookingdomain.Booking, payment *paymentdomain.Payment, eventID snowflake.ID) (*walletdomain.ReversalResult, error) {
	var result *walletdomain.ReversalResult
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = f.svc.ReverseCredit(f.ctx, tx, organizerID, booking, payment, eventID)
		return err
	})
	return result, err
}

func TestCreditForBooking_CommissionRoundsHalfUp(t *testing.T) {
	f := newFixture(t, 10, 0)
	organizer := f.node.Generate()
	booking, payment := f.seedSettledPayment(t, 999)

	result, err := f.credit(organizer, booking, payment)
	require.NoError(t, err)

	// 10% of 999 is 99.9, rounded half-up to 100.
	assert.Equal(t, int64(100), result.CommissionAmount)
	assert.Equal(t, int64(899), result.NetAmount)
	assert.Equal(t, int64(899), result.Balance)

	stored, err := f.repo.FindByBookingID(f.ctx, f.db, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.CommissionAmount)
	assert.Equal(t, int64(899), stored.NetAmount)
}

func TestCreditForBooking_GatewayFeeDeducted(t *testing.T) {
	f := newFixture(t, 10, 500)
	organizer := f.node.Generate()
	booking, payment := f.seedSettledPayment(t, 50_000)

	result, err := f.credit(organizer, booking, payment)
	require.NoError(t, err)

	assert.Equal(t, int64(5_000), result.CommissionAmount)
	assert.Equal(t, int64(500), result.GatewayFee)
	assert.Equal(t, int64(44_500), result.NetAmount)
}

func TestCreditForBooking_LazyWalletAndAccumulation(t *testing.T) {
	f := newFixture(t, 10, 0)
	organizer := f.node.Generate()

	_, err := f.svc.Balance(f.ctx, organizer)
	assert.ErrorIs(t, err, walletdomain.ErrNotFound)

	b1, p1 := f.seedSettledPayment(t, 10_000)
	b2, p2 := f.seedSettledPayment(t, 20_000)

	_, err = f.credit(organizer, b1, p1)
	require.NoError(t, err)
	result, err := f.credit(organizer, b2, p2)
	require.NoError(t, err)

	assert.Equal(t, int64(9_000+18_000), result.Balance)

	wallet, err := f.svc.Balance(f.ctx, organizer)
	require.NoError(t, err)
	assert.Equal(t, result.Balance, wallet.BalanceAvailable)
}

func TestReverseCredit_ClampsAtZero(t *testing.T) {
	f := newFixture(t, 10, 0)
	organizer := f.node.Generate()
	booking, payment := f.seedSettledPayment(t, 50_000)

	_, err := f.credit(organizer, booking, payment)
	require.NoError(t, err)

	// Drain most of the balance to force a shortfall on reversal.
	require.NoError(t, f.db.Exec(
		`UPDATE wallets SET balance_available = ? WHERE organizer_id = ?`,
		int64(10_000), organizer,
	).Error)

	payment, err = f.repo.FindByBookingID(f.ctx, f.db, booking.ID)
	require.NoError(t, err)

	result, err := f.reverse(organizer, booking, payment, booking.EventID)
	require.NoError(t, err)

	assert.Equal(t, int64(45_000), result.Reversed)
	assert.Equal(t, int64(35_000), result.Shortfall)
	assert.Zero(t, result.Balance)

	wallet, err := f.svc.Balance(f.ctx, organizer)
	require.NoError(t, err)
	assert.Zero(t, wallet.BalanceAvailable)

	stored, err := f.repo.FindByBookingID(f.ctx, f.db, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.PaymentStatusRefunded, stored.Status)
}

func TestLedger_ReconcilesWithBalance(t *testing.T) {
	f := newFixture(t, 10, 0)
	organizer := f.node.Generate()

	b1, p1 := f.seedSettledPayment(t, 30_000)
	b2, p2 := f.seedSettledPayment(t, 10_000)

	_, err := f.credit(organizer, b1, p1)
	require.NoError(t, err)
	_, err = f.credit(organizer, b2, p2)
	require.NoError(t, err)

	p2, err = f.repo.FindByBookingID(f.ctx, f.db, b2.ID)
	require.NoError(t, err)
	_, err = f.reverse(organizer, b2, p2, b2.EventID)
	require.NoError(t, err)

	entries, err := f.svc.ListTransactions(f.ctx, organizer)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var fromLedger int64
	for _, entry := range entries {
		switch entry.Type {
		case walletdomain.TransactionTypeCredit:
			fromLedger += entry.Amount
		case walletdomain.TransactionTypeReversal:
			fromLedger -= entry.Amount
		}
	}

	wallet, err := f.svc.Balance(f.ctx, organizer)
	require.NoError(t, err)
	assert.Equal(t, fromLedger, wallet.BalanceAvailable)
	assert.Equal(t, int64(27_000+9_000-9_000), wallet.BalanceAvailable)
}

func TestCreditForBooking_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t, 10, 0)
	booking, payment := f.seedSettledPayment(t, 10_000)

	_, err := f.credit(0, booking, payment)
	assert.ErrorIs(t, err, walletdomain.ErrInvalidOrganizer)

	payment.Amount = 0
	_, err = f.credit(f.node.Generate(), booking, payment)
	assert.ErrorIs(t, err, walletdomain.ErrInvalidAmount)
}
