package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/clubhive/clubhive/internal/booking/domain"
	"github.com/clubhive/clubhive/internal/clock"
	"github.com/clubhive/clubhive/internal/dbtest"
	ticketdomain "github.com/clubhive/clubhive/internal/ticket/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node
	svc   ticketdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	fakeClock := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Clock: fakeClock})
	return &fixture{db: db, clock: fakeClock, node: node, svc: svc}
}

func (f *fixture) seedTicketType(t *testing.T, eventID snowflake.ID, name string, price int64, quota *int64) *ticketdomain.TicketType {
	t.Helper()
	ticket := &ticketdomain.TicketType{
		ID:        f.node.Generate(),
		EventID:   eventID,
		Name:      name,
		Price:     price,
		Quota:     quota,
		IsActive:  true,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(ticket).Error)
	return ticket
}

func (f *fixture) seedBooking(t *testing.T, eventID, ticketTypeID snowflake.ID, quantity int64, status bookingdomain.BookingStatus, holdExpiresAt time.Time) {
	t.Helper()
	booking := &bookingdomain.Booking{
		ID:            f.node.Generate(),
		UserID:        f.node.Generate(),
		EventID:       eventID,
		TicketTypeID:  ticketTypeID,
		Quantity:      quantity,
		Status:        status,
		TotalAmount:   quantity * 10_000,
		Currency:      "INR",
		HoldExpiresAt: &holdExpiresAt,
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}
	require.NoError(t, f.db.Create(booking).Error)
}

func quotaOf(n int64) *int64 { return &n }

func TestComputeAvailability_CountsOnlyHoldingStates(t *testing.T) {
	f := newFixture(t)
	eventID := f.node.Generate()
	ticket := f.seedTicketType(t, eventID, "General", 10_000, quotaOf(10))
	now := f.clock.Now()

	f.seedBooking(t, eventID, ticket.ID, 2, bookingdomain.BookingStatusConfirmed, now.Add(-time.Hour))
	f.seedBooking(t, eventID, ticket.ID, 3, bookingdomain.BookingStatusPending, now.Add(10*time.Minute))
	f.seedBooking(t, eventID, ticket.ID, 4, bookingdomain.BookingStatusPending, now.Add(-time.Minute)) // lapsed hold
	f.seedBooking(t, eventID, ticket.ID, 5, bookingdomain.BookingStatusCancelled, now.Add(10*time.Minute))
	f.seedBooking(t, eventID, ticket.ID, 5, bookingdomain.BookingStatusExpired, now.Add(-time.Hour))

	summary, err := f.svc.ComputeAvailability(context.Background(), eventID)
	require.NoError(t, err)
	require.Len(t, summary.Tickets, 1)

	assert.Equal(t, int64(5), summary.Tickets[0].Used)
	require.NotNil(t, summary.Tickets[0].Available)
	assert.Equal(t, int64(5), *summary.Tickets[0].Available)
	assert.Equal(t, int64(10), summary.TotalQuota)
	assert.Equal(t, int64(5), summary.TotalUsed)
}

func TestComputeAvailability_LapsedHoldFreesSeatsImmediately(t *testing.T) {
	f := newFixture(t)
	eventID := f.node.Generate()
	ticket := f.seedTicketType(t, eventID, "General", 10_000, quotaOf(5))
	now := f.clock.Now()

	f.seedBooking(t, eventID, ticket.ID, 5, bookingdomain.BookingStatusPending, now.Add(15*time.Minute))

	summary, err := f.svc.ComputeAvailability(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), *summary.Tickets[0].Available)

	// No sweep runs; the clock alone frees the seats.
	f.clock.Advance(16 * time.Minute)

	summary, err = f.svc.ComputeAvailability(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), *summary.Tickets[0].Available)
}

func TestComputeAvailability_UnlimitedQuota(t *testing.T) {
	f := newFixture(t)
	eventID := f.node.Generate()
	ticket := f.seedTicketType(t, eventID, "Free Entry", 0, nil)
	f.seedBooking(t, eventID, ticket.ID, 7, bookingdomain.BookingStatusConfirmed, f.clock.Now())

	summary, err := f.svc.ComputeAvailability(context.Background(), eventID)
	require.NoError(t, err)
	require.Len(t, summary.Tickets, 1)
	assert.Nil(t, summary.Tickets[0].Quota)
	assert.Nil(t, summary.Tickets[0].Available)
	assert.Equal(t, int64(7), summary.Tickets[0].Used)
}

func TestEnsureAvailable_Capacity(t *testing.T) {
	f := newFixture(t)
	eventID := f.node.Generate()
	ticket := f.seedTicketType(t, eventID, "General", 10_000, quotaOf(3))
	now := f.clock.Now()

	f.seedBooking(t, eventID, ticket.ID, 2, bookingdomain.BookingStatusPending, now.Add(10*time.Minute))

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.EnsureAvailable(context.Background(), tx, eventID, ticket.ID, 2)
		return err
	})
	assert.ErrorIs(t, err, ticketdomain.ErrCapacityExceeded)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		got, err := f.svc.EnsureAvailable(context.Background(), tx, eventID, ticket.ID, 1)
		if err != nil {
			return err
		}
		assert.Equal(t, ticket.ID, got.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestEnsureAvailable_Validation(t *testing.T) {
	f := newFixture(t)
	eventID := f.node.Generate()
	ticket := f.seedTicketType(t, eventID, "General", 10_000, quotaOf(3))

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.EnsureAvailable(context.Background(), tx, eventID, ticket.ID, 0)
		return err
	})
	assert.ErrorIs(t, err, ticketdomain.ErrInvalidQuantity)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.EnsureAvailable(context.Background(), tx, eventID, f.node.Generate(), 1)
		return err
	})
	assert.ErrorIs(t, err, ticketdomain.ErrTicketTypeNotFound)

	require.NoError(t, f.db.Exec(`UPDATE ticket_types SET is_active = ? WHERE id = ?`, false, ticket.ID).Error)
	err = f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.EnsureAvailable(context.Background(), tx, eventID, ticket.ID, 1)
		return err
	})
	assert.ErrorIs(t, err, ticketdomain.ErrTicketTypeNotFound)
}
