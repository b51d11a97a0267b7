package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clubhive/clubhive/internal/clock"
	ticketdomain "github.com/clubhive/clubhive/internal/ticket/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) ticketdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ticket.service"),
		clock: p.Clock,
	}
}

func (s *Service) ComputeAvailability(ctx context.Context, eventID snowflake.ID) (*ticketdomain.AvailabilitySummary, error) {
	return s.computeAvailability(ctx, s.db, eventID)
}

func (s *Service) EnsureAvailable(ctx context.Context, tx *gorm.DB, eventID, ticketTypeID snowflake.ID, quantity int64) (*ticketdomain.TicketType, error) {
	if quantity <= 0 {
		return nil, ticketdomain.ErrInvalidQuantity
	}

	// Lock the ticket type row so concurrent holds on the same type
	// serialize; both checking availability and inserting the booking happen
	// under this lock.
	ticket, err := s.lockTicketType(ctx, tx, eventID, ticketTypeID)
	if err != nil {
		return nil, err
	}
	if ticket == nil || !ticket.IsActive {
		return nil, ticketdomain.ErrTicketTypeNotFound
	}

	if ticket.Quota == nil {
		return ticket, nil
	}

	used, err := s.usedSeats(ctx, tx, ticketTypeID)
	if err != nil {
		return nil, err
	}

	available := *ticket.Quota - used
	if available < 0 {
		available = 0
	}
	if quantity > available {
		return nil, ticketdomain.ErrCapacityExceeded
	}
	return ticket, nil
}

func (s *Service) computeAvailability(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (*ticketdomain.AvailabilitySummary, error) {
	var tickets []ticketdomain.TicketType
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_id, name, description, price, quota, is_active,
		        sales_start, sales_end, created_at, updated_at
		 FROM ticket_types
		 WHERE event_id = ? AND is_active = ?
		 ORDER BY price ASC`,
		eventID,
		true,
	).Scan(&tickets).Error
	if err != nil {
		return nil, err
	}

	summary := &ticketdomain.AvailabilitySummary{
		EventID: eventID,
		Tickets: make([]ticketdomain.TicketAvailability, 0, len(tickets)),
	}
	if len(tickets) == 0 {
		return summary, nil
	}

	usedMap, err := s.usedSeatsByType(ctx, db, eventID)
	if err != nil {
		return nil, err
	}

	for _, t := range tickets {
		used := usedMap[t.ID]
		item := ticketdomain.TicketAvailability{
			TicketTypeID: t.ID,
			Name:         t.Name,
			Price:        t.Price,
			Quota:        t.Quota,
			Used:         used,
		}
		if t.Quota != nil {
			available := *t.Quota - used
			if available < 0 {
				available = 0
			}
			item.Available = &available
			summary.TotalQuota += *t.Quota
			summary.TotalAvailable += available
		}
		summary.TotalUsed += used
		summary.Tickets = append(summary.Tickets, item)
	}
	return summary, nil
}

type usedRow struct {
	TicketTypeID snowflake.ID
	Used         int64
}

// usedSeatsByType sums quantities over CONFIRMED bookings and PENDING
// bookings whose hold has not lapsed. Expired holds drop out of the count
// without waiting for the sweep.
func (s *Service) usedSeatsByType(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (map[snowflake.ID]int64, error) {
	now := s.clock.Now()
	var rows []usedRow
	err := db.WithContext(ctx).Raw(
		`SELECT ticket_type_id, COALESCE(SUM(quantity), 0) AS used
		 FROM bookings
		 WHERE event_id = ?
		   AND (status = 'CONFIRMED' OR (status = 'PENDING' AND hold_expires_at > ?))
		 GROUP BY ticket_type_id`,
		eventID,
		now,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	usedMap := make(map[snowflake.ID]int64, len(rows))
	for _, row := range rows {
		usedMap[row.TicketTypeID] = row.Used
	}
	return usedMap, nil
}

func (s *Service) usedSeats(ctx context.Context, db *gorm.DB, ticketTypeID snowflake.ID) (int64, error) {
	now := s.clock.Now()
	var used int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(quantity), 0)
		 FROM bookings
		 WHERE ticket_type_id = ?
		   AND (status = 'CONFIRMED' OR (status = 'PENDING' AND hold_expires_at > ?))`,
		ticketTypeID,
		now,
	).Scan(&used).Error
	if err != nil {
		return 0, err
	}
	return used, nil
}

func (s *Service) lockTicketType(ctx context.Context, tx *gorm.DB, eventID, ticketTypeID snowflake.ID) (*ticketdomain.TicketType, error) {
	var ticket ticketdomain.TicketType
	err := tx.WithContext(ctx).Raw(
		`SELECT id, event_id, name, description, price, quota, is_active,
		        sales_start, sales_end, created_at, updated_at
		 FROM ticket_types
		 WHERE id = ? AND event_id = ?
		 FOR UPDATE`,
		ticketTypeID,
		eventID,
	).Scan(&ticket).Error
	if err != nil {
		return nil, err
	}
	if ticket.ID == 0 {
		return nil, nil
	}
	return &ticket, nil
}
