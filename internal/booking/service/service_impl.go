package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubhive/clubhive/internal/booking/domain"
	"github.com/clubhive/clubhive/internal/broadcast"
	"github.com/clubhive/clubhive/internal/clock"
	"github.com/clubhive/clubhive/internal/config"
	eventdomain "github.com/clubhive/clubhive/internal/event/domain"
	"github.com/clubhive/clubhive/internal/observability/metrics"
	paymentdomain "github.com/clubhive/clubhive/internal/payment/domain"
	ticketdomain "github.com/clubhive/clubhive/internal/ticket/domain"
	userdomain "github.com/clubhive/clubhive/internal/user/domain"
	walletdomain "github.com/clubhive/clubhive/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Cfg         config.Config
	Clock       clock.Clock
	Repo        domain.Repository
	EventRepo   eventdomain.Repository
	PaymentRepo paymentdomain.Repository
	Tickets     ticketdomain.Service
	Wallet      walletdomain.Service
	Publisher   broadcast.Publisher
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	cfg         config.Config
	clock       clock.Clock
	repo        domain.Repository
	eventRepo   eventdomain.Repository
	paymentRepo paymentdomain.Repository
	tickets     ticketdomain.Service
	wallet      walletdomain.Service
	publisher   broadcast.Publisher
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("booking.service"),
		genID:       p.GenID,
		cfg:         p.Cfg,
		clock:       p.Clock,
		repo:        p.Repo,
		eventRepo:   p.EventRepo,
		paymentRepo: p.PaymentRepo,
		tickets:     p.Tickets,
		wallet:      p.Wallet,
		publisher:   p.Publisher,
	}
}

// Create places a seat hold and opens the payment record in one transaction.
// TotalAmount is computed from the ticket price at hold time and never
// recomputed afterwards.
func (s *Service) Create(ctx context.Context, requester userdomain.Requester, req domain.CreateBookingRequest) (*domain.CreateBookingResponse, error) {
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	holdUntil := now.Add(time.Duration(s.cfg.HoldMinutes) * time.Minute)

	var (
		booking *domain.Booking
		payment *paymentdomain.Payment
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		event, err := s.eventRepo.FindByID(ctx, tx, req.EventID)
		if err != nil {
			return err
		}
		if event == nil {
			return eventdomain.ErrNotFound
		}
		if event.Status != eventdomain.EventStatusPublished {
			return eventdomain.ErrNotPublished
		}
		if event.StartTime != nil && !event.StartTime.After(now) {
			return eventdomain.ErrStarted
		}

		ticketType, err := s.tickets.EnsureAvailable(ctx, tx, req.EventID, req.TicketTypeID, req.Quantity)
		if err != nil {
			return err
		}

		booking = &domain.Booking{
			ID:            s.genID.Generate(),
			UserID:        requester.ID,
			EventID:       req.EventID,
			TicketTypeID:  req.TicketTypeID,
			Quantity:      req.Quantity,
			Status:        domain.BookingStatusPending,
			TotalAmount:   ticketType.Price * req.Quantity,
			Currency:      s.cfg.Currency,
			HoldExpiresAt: &holdUntil,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, booking); err != nil {
			return err
		}

		payment = &paymentdomain.Payment{
			ID:        s.genID.Generate(),
			BookingID: booking.ID,
			Provider:  paymentdomain.ProviderCashfree,
			Status:    paymentdomain.PaymentStatusInitiated,
			Amount:    booking.TotalAmount,
			Currency:  booking.Currency,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.paymentRepo.Insert(ctx, tx, payment)
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	s.broadcastSeats(ctx, req.EventID)
	s.log.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("event_id", req.EventID.String()),
		zap.Int64("quantity", req.Quantity),
		zap.Time("hold_expires_at", holdUntil),
	)

	return &domain.CreateBookingResponse{
		Booking: toBookingSummary(booking),
		Payment: toPaymentSummary(payment),
	}, nil
}

func (s *Service) ListMine(ctx context.Context, requester userdomain.Requester) ([]domain.BookingListItem, error) {
	bookings, err := s.repo.ListByUser(ctx, s.db, requester.ID)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return []domain.BookingListItem{}, nil
	}

	eventIDs := make([]snowflake.ID, 0, len(bookings))
	ticketIDs := make([]snowflake.ID, 0, len(bookings))
	bookingIDs := make([]snowflake.ID, 0, len(bookings))
	for _, b := range bookings {
		eventIDs = append(eventIDs, b.EventID)
		ticketIDs = append(ticketIDs, b.TicketTypeID)
		bookingIDs = append(bookingIDs, b.ID)
	}

	events, err := s.findEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	ticketTypes, err := s.findTicketTypes(ctx, ticketIDs)
	if err != nil {
		return nil, err
	}
	payments, err := s.findPayments(ctx, bookingIDs)
	if err != nil {
		return nil, err
	}

	items := make([]domain.BookingListItem, 0, len(bookings))
	for _, b := range bookings {
		item := domain.BookingListItem{BookingSummary: toBookingSummary(b)}
		if ev, ok := events[b.EventID]; ok {
			item.Event = &domain.EventSummary{ID: ev.ID, Title: ev.Title, StartTime: ev.StartTime}
		}
		if tt, ok := ticketTypes[b.TicketTypeID]; ok {
			item.Ticket = &domain.TicketSummary{ID: tt.ID, Name: tt.Name, Price: tt.Price}
		}
		if pay, ok := payments[b.ID]; ok {
			summary := toPaymentSummary(pay)
			item.Payment = &summary
		}
		items = append(items, item)
	}
	return items, nil
}

// Cancel releases the attendee's own booking before the event starts. It
// frees the seats but deliberately leaves the payment record alone; money
// movement happens only through settlement and event cancellation.
func (s *Service) Cancel(ctx context.Context, requester userdomain.Requester, bookingID snowflake.ID) (*domain.BookingSummary, error) {
	now := s.clock.Now()

	var booking *domain.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = s.repo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return domain.ErrNotFound
		}
		if booking.UserID != requester.ID && !requester.IsAdmin() {
			return domain.ErrNotOwner
		}
		if booking.Status != domain.BookingStatusPending && booking.Status != domain.BookingStatusConfirmed {
			return domain.ErrInvalidState
		}

		event, err := s.eventRepo.FindByID(ctx, tx, booking.EventID)
		if err != nil {
			return err
		}
		if event != nil && event.StartTime != nil && !event.StartTime.After(now) {
			return eventdomain.ErrStarted
		}

		booking.Status = domain.BookingStatusCancelled
		booking.UpdatedAt = now
		return s.repo.UpdateStatus(ctx, tx, booking.ID, domain.BookingStatusCancelled, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingsCancelled.Inc()
	s.broadcastSeats(ctx, booking.EventID)
	s.log.Info("booking cancelled",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", requester.ID.String()),
	)

	summary := toBookingSummary(booking)
	return &summary, nil
}

func (s *Service) ExpireStaleHolds(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	var expired int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		expired, err = s.repo.ExpireStale(ctx, tx, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		metrics.BookingsExpired.Add(float64(expired))
		s.log.Info("stale holds expired", zap.Int64("count", expired))
	}
	return expired, nil
}

// CancelEvent is the host flow: it finalizes the event as CANCELLED, cancels
// every live booking and reverses the organizer credit for settled ones, all
// in one transaction.
func (s *Service) CancelEvent(ctx context.Context, requester userdomain.Requester, eventID snowflake.ID) (*domain.CancelEventResponse, error) {
	now := s.clock.Now()
	resp := &domain.CancelEventResponse{EventID: eventID}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return eventdomain.ErrNotFound
		}
		if event.OrganizerID != requester.ID && !requester.IsAdmin() {
			return eventdomain.ErrNotOwner
		}
		if event.Status == eventdomain.EventStatusCancelled || event.Status == eventdomain.EventStatusCompleted {
			return eventdomain.ErrFinalState
		}

		if err := s.eventRepo.UpdateStatus(ctx, tx, eventID, eventdomain.EventStatusCancelled, now); err != nil {
			return err
		}

		bookings, err := s.repo.ListByEventForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if b.Status != domain.BookingStatusPending && b.Status != domain.BookingStatusConfirmed {
				continue
			}
			if err := s.repo.UpdateStatus(ctx, tx, b.ID, domain.BookingStatusCancelled, now); err != nil {
				return err
			}
			resp.BookingsCancelled++

			if b.Status != domain.BookingStatusConfirmed {
				continue
			}
			payment, err := s.paymentRepo.FindByBookingIDForUpdate(ctx, tx, b.ID)
			if err != nil {
				return err
			}
			if payment == nil || payment.Status != paymentdomain.PaymentStatusSuccess {
				continue
			}
			if _, err := s.wallet.ReverseCredit(ctx, tx, event.OrganizerID, b, payment, eventID); err != nil {
				return err
			}
			resp.WalletReversals++
			resp.PaymentsRefunded++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingsCancelled.Add(float64(resp.BookingsCancelled))
	metrics.WalletReversals.Add(float64(resp.WalletReversals))
	s.broadcastSeats(ctx, eventID)
	s.log.Info("event cancelled by host",
		zap.String("event_id", eventID.String()),
		zap.Int64("bookings_cancelled", resp.BookingsCancelled),
		zap.Int64("wallet_reversals", resp.WalletReversals),
	)
	return resp, nil
}

func (s *Service) broadcastSeats(ctx context.Context, eventID snowflake.ID) {
	summary, err := s.tickets.ComputeAvailability(ctx, eventID)
	if err != nil {
		s.log.Warn("availability recompute for broadcast failed",
			zap.String("event_id", eventID.String()),
			zap.Error(err),
		)
		return
	}
	_ = s.publisher.PublishSeatsUpdate(ctx, summary)
}

func (s *Service) findEvents(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]*eventdomain.Event, error) {
	var rows []*eventdomain.Event
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, organizer_id, title, status, start_time, created_at, updated_at
		 FROM events
		 WHERE id IN ?`,
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]*eventdomain.Event, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (s *Service) findTicketTypes(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]*ticketdomain.TicketType, error) {
	var rows []*ticketdomain.TicketType
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, event_id, name, description, price, quota, is_active, sales_start, sales_end, created_at, updated_at
		 FROM ticket_types
		 WHERE id IN ?`,
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]*ticketdomain.TicketType, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (s *Service) findPayments(ctx context.Context, bookingIDs []snowflake.ID) (map[snowflake.ID]*paymentdomain.Payment, error) {
	var rows []*paymentdomain.Payment
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, booking_id, provider, provider_order_id, status, amount, currency,
			gateway_fee, commission_amount, net_amount, raw_payload, created_at, updated_at
		 FROM payments
		 WHERE booking_id IN ?`,
		bookingIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]*paymentdomain.Payment, len(rows))
	for _, row := range rows {
		out[row.BookingID] = row
	}
	return out, nil
}

func toBookingSummary(b *domain.Booking) domain.BookingSummary {
	return domain.BookingSummary{
		ID:            b.ID,
		Status:        b.Status,
		Quantity:      b.Quantity,
		TotalAmount:   b.TotalAmount,
		Currency:      b.Currency,
		HoldExpiresAt: b.HoldExpiresAt,
		QRUrl:         b.QRUrl,
		CreatedAt:     b.CreatedAt,
	}
}

func toPaymentSummary(p *paymentdomain.Payment) domain.PaymentSummary {
	return domain.PaymentSummary{
		ID:              p.ID,
		Provider:        p.Provider,
		Status:          string(p.Status),
		Amount:          p.Amount,
		Currency:        p.Currency,
		ProviderOrderID: p.ProviderOrderID,
	}
}
