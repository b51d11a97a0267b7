package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clubhive",
		Subsystem: "booking",
		Name:      "created_total",
		Help:      "Bookings created with an active seat hold.",
	})

	BookingsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clubhive",
		Subsystem: "booking",
		Name:      "expired_total",
		Help:      "Pending bookings expired by the hold sweeper.",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clubhive",
		Subsystem: "booking",
		Name:      "cancelled_total",
		Help:      "Bookings cancelled by the user, an admin or a host event cancel.",
	})

	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubhive",
		Subsystem: "payment",
		Name:      "settlements_total",
		Help:      "Settlement attempts by outcome.",
	}, []string{"outcome"})

	WalletCredits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clubhive",
		Subsystem: "wallet",
		Name:      "credits_total",
		Help:      "Organizer wallet credits applied.",
	})

	WalletReversals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clubhive",
		Subsystem: "wallet",
		Name:      "reversals_total",
		Help:      "Organizer wallet reversals applied on event cancel.",
	})
)

// Settlement outcome label values.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeAuditOnly = "audit_only"
	OutcomeCancelled = "cancelled"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
)
