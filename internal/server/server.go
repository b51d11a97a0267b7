package server

import (
	"context"
	"net/http"
	"time"

	"github.com/clubhive/clubhive/internal/artifact"
	"github.com/clubhive/clubhive/internal/booking"
	bookingdomain "github.com/clubhive/clubhive/internal/booking/domain"
	"github.com/clubhive/clubhive/internal/broadcast"
	"github.com/clubhive/clubhive/internal/config"
	"github.com/clubhive/clubhive/internal/event"
	"github.com/clubhive/clubhive/internal/payment"
	paymentdomain "github.com/clubhive/clubhive/internal/payment/domain"
	"github.com/clubhive/clubhive/internal/ticket"
	ticketdomain "github.com/clubhive/clubhive/internal/ticket/domain"
	"github.com/clubhive/clubhive/internal/wallet"
	walletdomain "github.com/clubhive/clubhive/internal/wallet/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	artifact.Module,
	broadcast.Module,
	event.Module,
	ticket.Module,
	wallet.Module,
	booking.Module,
	payment.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(IdentityMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	bookingSvc bookingdomain.Service
	paymentSvc paymentdomain.Service
	ticketSvc  ticketdomain.Service
	walletSvc  walletdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	BookingSvc bookingdomain.Service
	PaymentSvc paymentdomain.Service
	TicketSvc  ticketdomain.Service
	WalletSvc  walletdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		bookingSvc: p.BookingSvc,
		paymentSvc: p.PaymentSvc,
		ticketSvc:  p.TicketSvc,
		walletSvc:  p.WalletSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/events/:id/seats", s.GetEventSeats)

	api.POST("/bookings", s.CreateBooking)
	api.GET("/bookings/me", s.ListMyBookings)
	api.POST("/bookings/:id/cancel", s.CancelBooking)
	api.POST("/bookings/expire-holds", s.ExpireHolds)

	api.POST("/payments/order", s.CreatePaymentOrder)
	api.POST("/payments/webhook", s.HandlePaymentWebhook)
	api.GET("/payments/:orderId/status", s.GetPaymentStatus)
	api.POST("/payments/:orderId/poll", s.PollPayment)

	hosts := api.Group("/hosts")
	hosts.POST("/events/:id/cancel", s.CancelHostEvent)
	hosts.GET("/wallet", s.GetHostWallet)
	hosts.GET("/wallet/transactions", s.ListHostWalletTransactions)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
