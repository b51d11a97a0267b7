package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubhive/clubhive/internal/artifact"
	bookingdomain "github.com/clubhive/clubhive/internal/booking/domain"
	"github.com/clubhive/clubhive/internal/broadcast"
	"github.com/clubhive/clubhive/internal/clock"
	"github.com/clubhive/clubhive/internal/config"
	eventdomain "github.com/clubhive/clubhive/internal/event/domain"
	"github.com/clubhive/clubhive/internal/observability/metrics"
	"github.com/clubhive/clubhive/internal/payment/domain"
	ticketdomain "github.com/clubhive/clubhive/internal/ticket/domain"
	userdomain "github.com/clubhive/clubhive/internal/user/domain"
	walletdomain "github.com/clubhive/clubhive/internal/wallet/domain"
	"github.com/clubhive/clubhive/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cfg         config.Config
	Clock       clock.Clock
	Repo        domain.Repository
	BookingRepo bookingdomain.Repository
	EventRepo   eventdomain.Repository
	Provider    domain.Provider
	Wallet      walletdomain.Service
	Tickets     ticketdomain.Service
	Generator   artifact.Generator
	Store       artifact.Store
	Publisher   broadcast.Publisher
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         config.Config
	clock       clock.Clock
	repo        domain.Repository
	bookingRepo bookingdomain.Repository
	eventRepo   eventdomain.Repository
	provider    domain.Provider
	wallet      walletdomain.Service
	tickets     ticketdomain.Service
	generator   artifact.Generator
	store       artifact.Store
	publisher   broadcast.Publisher
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		cfg:         p.Cfg,
		clock:       p.Clock,
		repo:        p.Repo,
		bookingRepo: p.BookingRepo,
		eventRepo:   p.EventRepo,
		provider:    p.Provider,
		wallet:      p.Wallet,
		tickets:     p.Tickets,
		generator:   p.Generator,
		store:       p.Store,
		publisher:   p.Publisher,
	}
}

// orderIDFor derives the provider order id from the booking id, so retried
// order creation can never mint a second order for the same booking.
func orderIDFor(bookingID snowflake.ID) string {
	return fmt.Sprintf("booking_%s", bookingID)
}

func (s *Service) CreateOrder(ctx context.Context, requester userdomain.Requester, bookingID snowflake.ID) (*domain.CreateOrderResponse, error) {
	booking, err := s.bookingRepo.FindByID(ctx, s.db, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, bookingdomain.ErrNotFound
	}
	if booking.UserID != requester.ID && !requester.IsAdmin() {
		return nil, domain.ErrNotOwner
	}

	now := s.clock.Now()
	if booking.Status != bookingdomain.BookingStatusPending || booking.HoldLapsed(now) {
		return nil, domain.ErrInvalidState
	}

	payment, err := s.repo.FindByBookingID(ctx, s.db, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	if payment.Amount != booking.TotalAmount {
		return nil, domain.ErrInvalidAmount
	}

	// Retried calls reuse the existing order instead of minting a new one.
	if payment.ProviderOrderID != "" {
		order, err := s.provider.FetchOrder(ctx, payment.ProviderOrderID)
		if err != nil {
			return nil, err
		}
		return &domain.CreateOrderResponse{
			BookingID:    bookingID,
			OrderID:      payment.ProviderOrderID,
			SessionToken: order.SessionToken,
		}, nil
	}

	orderID := orderIDFor(bookingID)
	order, err := s.provider.CreateOrder(ctx, domain.ProviderOrderRequest{
		OrderID:    orderID,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		CustomerID: booking.UserID.String(),
		ReturnURL:  s.cfg.PublicBaseURL + "/api/payments/" + orderID + "/status",
		Note:       fmt.Sprintf("Tickets for event %s", booking.EventID),
	})
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.repo.AttachOrder(ctx, tx, payment.ID, order.OrderID, order.Raw, s.clock.Now())
	})
	if err != nil {
		// A concurrent retry can win the attach; the order id is the same
		// either way, so the loser just returns it.
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
	}

	s.log.Info("provider order created",
		zap.String("booking_id", bookingID.String()),
		zap.String("order_id", order.OrderID),
	)
	return &domain.CreateOrderResponse{
		BookingID:    bookingID,
		OrderID:      order.OrderID,
		SessionToken: order.SessionToken,
	}, nil
}

func (s *Service) IngestWebhook(ctx context.Context, payload []byte, headers http.Header) (*domain.SettlementStatus, error) {
	if err := s.provider.VerifyWebhook(payload, headers); err != nil {
		return nil, err
	}
	orderID, rawStatus, err := extractOrder(payload)
	if err != nil {
		return nil, err
	}
	return s.applySettlement(ctx, orderID, rawStatus, payload)
}

func (s *Service) Poll(ctx context.Context, requester userdomain.Requester, orderID string) (*domain.SettlementStatus, error) {
	payment, err := s.repo.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	booking, err := s.bookingRepo.FindByID(ctx, s.db, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if booking != nil && booking.UserID != requester.ID && !requester.IsAdmin() {
		return nil, domain.ErrNotOwner
	}

	order, err := s.provider.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.applySettlement(ctx, orderID, order.Status, order.Raw)
}

func (s *Service) Status(ctx context.Context, orderID string) (*domain.SettlementStatus, error) {
	payment, err := s.repo.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	status := &domain.SettlementStatus{
		OrderID:   orderID,
		Status:    payment.Status,
		BookingID: payment.BookingID,
	}
	if booking, err := s.bookingRepo.FindByID(ctx, s.db, payment.BookingID); err == nil && booking != nil {
		status.BookingStatus = string(booking.Status)
	}
	return status, nil
}

// applySettlement is the single write path shared by webhook and poll, so a
// result observed twice (or through both channels) settles exactly once.
func (s *Service) applySettlement(ctx context.Context, orderID, rawStatus string, payload []byte) (*domain.SettlementStatus, error) {
	now := s.clock.Now()

	var (
		result      *domain.SettlementStatus
		seatEventID snowflake.ID
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByOrderIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrNotFound
		}
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, payment.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrNotFound
		}

		result = &domain.SettlementStatus{
			OrderID:       orderID,
			Status:        payment.Status,
			BookingID:     booking.ID,
			BookingStatus: string(booking.Status),
		}

		mapped, ok := domain.MapProviderStatus(rawStatus)
		if !ok {
			// Unknown vocabulary: keep the payload for audit, change nothing.
			s.log.Warn("unrecognized provider status",
				zap.String("order_id", orderID),
				zap.String("raw_status", rawStatus),
			)
			metrics.Settlements.WithLabelValues(metrics.OutcomeIgnored).Inc()
			return s.repo.UpdateStatus(ctx, tx, payment.ID, payment.Status, payload, now)
		}

		if payment.Status == mapped {
			metrics.Settlements.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return s.repo.UpdateStatus(ctx, tx, payment.ID, payment.Status, payload, now)
		}

		switch mapped {
		case domain.PaymentStatusSuccess:
			if err := s.repo.UpdateStatus(ctx, tx, payment.ID, domain.PaymentStatusSuccess, payload, now); err != nil {
				return err
			}
			payment.Status = domain.PaymentStatusSuccess
			result.Status = domain.PaymentStatusSuccess

			if booking.Status != bookingdomain.BookingStatusPending || booking.HoldLapsed(now) {
				// Money arrived for a booking that can no longer confirm.
				// Record it and leave reconciliation to operators.
				s.log.Warn("settlement recorded without confirmation",
					zap.String("order_id", orderID),
					zap.String("booking_id", booking.ID.String()),
					zap.String("booking_status", string(booking.Status)),
				)
				metrics.Settlements.WithLabelValues(metrics.OutcomeAuditOnly).Inc()
				return nil
			}

			if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, bookingdomain.BookingStatusConfirmed, now); err != nil {
				return err
			}
			booking.Status = bookingdomain.BookingStatusConfirmed
			result.BookingStatus = string(bookingdomain.BookingStatusConfirmed)

			s.attachTicketArtifact(ctx, tx, booking, now)

			event, err := s.eventRepo.FindByID(ctx, tx, booking.EventID)
			if err != nil {
				return err
			}
			if event == nil {
				return eventdomain.ErrNotFound
			}
			if _, err := s.wallet.CreditForBooking(ctx, tx, event.OrganizerID, booking, payment); err != nil {
				return err
			}
			metrics.WalletCredits.Inc()
			metrics.Settlements.WithLabelValues(metrics.OutcomeConfirmed).Inc()
			seatEventID = booking.EventID
			return nil

		case domain.PaymentStatusFailed:
			if err := s.repo.UpdateStatus(ctx, tx, payment.ID, domain.PaymentStatusFailed, payload, now); err != nil {
				return err
			}
			result.Status = domain.PaymentStatusFailed
			if booking.Status == bookingdomain.BookingStatusPending {
				if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, bookingdomain.BookingStatusCancelled, now); err != nil {
					return err
				}
				result.BookingStatus = string(bookingdomain.BookingStatusCancelled)
				seatEventID = booking.EventID
			}
			metrics.Settlements.WithLabelValues(metrics.OutcomeCancelled).Inc()
			return nil

		default: // REFUNDED
			result.Status = mapped
			return s.repo.UpdateStatus(ctx, tx, payment.ID, mapped, payload, now)
		}
	})
	if err != nil {
		return nil, err
	}

	if seatEventID != 0 {
		s.broadcastSeats(ctx, seatEventID)
	}
	return result, nil
}

// attachTicketArtifact renders the entry QR for a just-confirmed booking.
// Artifact failures are logged and never roll back the confirmation.
func (s *Service) attachTicketArtifact(ctx context.Context, tx *gorm.DB, booking *bookingdomain.Booking, now time.Time) {
	data, err := s.generator.Generate(artifact.TicketClaim{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		UserID:    booking.UserID,
		Quantity:  booking.Quantity,
		IssuedAt:  now,
	})
	if err != nil {
		s.log.Warn("ticket artifact render failed",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err),
		)
		return
	}
	url, err := s.store.Put(ctx, booking.ID.String()+".png", data)
	if err != nil {
		s.log.Warn("ticket artifact store failed",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.bookingRepo.AttachQRUrl(ctx, tx, booking.ID, url, now); err != nil {
		s.log.Warn("ticket artifact attach failed",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err),
		)
		return
	}
	booking.QRUrl = url
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

// webhookEnvelope accepts both the nested Cashfree shape and a flat
// order_id/order_status form.
type webhookEnvelope struct {
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"`
	Data        struct {
		Order struct {
			OrderID     string `json:"order_id"`
			OrderStatus string `json:"order_status"`
		} `json:"order"`
		Payment struct {
			PaymentStatus string `json:"payment_status"`
		} `json:"payment"`
	} `json:"data"`
}

func extractOrder(payload []byte) (orderID, rawStatus string, err error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return "", "", domain.ErrInvalidPayload
	}

	orderID = envelope.Data.Order.OrderID
	if orderID == "" {
		orderID = envelope.OrderID
	}
	if orderID == "" {
		return "", "", domain.ErrInvalidPayload
	}

	rawStatus = envelope.Data.Payment.PaymentStatus
	if rawStatus == "" {
		rawStatus = envelope.Data.Order.OrderStatus
	}
	if rawStatus == "" {
		rawStatus = envelope.OrderStatus
	}
	return orderID, rawStatus, nil
}
