package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the booking engine. Registered once on the
// default registry; exported through /metrics.
var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ticketing",
		Subsystem: "bookings",
		Name:      "created_total",
		Help:      "Number of bookings created.",
	})

	SeatSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketing",
		Subsystem: "seats",
		Name:      "selections_total",
		Help:      "Seat selection attempts by outcome.",
	}, []string{"outcome"}) // ok, conflict, error

	PaymentCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketing",
		Subsystem: "payments",
		Name:      "gateway_calls_total",
		Help:      "Payment gateway calls by operation and outcome.",
	}, []string{"operation", "outcome"}) // init/check/confirm x success/failure/rejected

	PaymentsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketing",
		Subsystem: "payments",
		Name:      "resolved_total",
		Help:      "Payment transactions driven to a terminal state.",
	}, []string{"status"}) // completed, failed, expired

	CircuitBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ticketing",
		Subsystem: "payments",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	})

	ReaperSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ticketing",
		Subsystem: "reaper",
		Name:      "sweeps_total",
		Help:      "Completed reaper sweeps.",
	})

	ReaperCleaned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketing",
		Subsystem: "reaper",
		Name:      "cleaned_total",
		Help:      "Records cleaned by the reaper, by kind.",
	}, []string{"kind"}) // expired_payment, empty_booking, stale_booking, orphan_lock

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketing",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Cache lookups by cache name and result.",
	}, []string{"cache", "result"}) // hit, miss
)
