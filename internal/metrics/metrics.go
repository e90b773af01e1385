// Package metrics exposes booking engine and HTTP counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"laundry-booking-backend/internal/booking"
)

// Metrics implements booking.Recorder and records HTTP traffic.
type Metrics struct {
	bookingsCreated     prometheus.Counter
	bookingsRejected    *prometheus.CounterVec
	bookingsCanceled    *prometheus.CounterVec
	bookingsRescheduled prometheus.Counter
	overridesCreated    prometheus.Counter
	bookingsCompleted   prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "bookings_created_total",
			Help:      "Bookings successfully created.",
		}),
		bookingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "bookings_rejected_total",
			Help:      "Booking attempts rejected, by reason.",
		}, []string{"reason"}),
		bookingsCanceled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "bookings_canceled_total",
			Help:      "Bookings canceled, by role of the caller.",
		}, []string{"role"}),
		bookingsRescheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "bookings_rescheduled_total",
			Help:      "Bookings moved to another slot.",
		}),
		overridesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "slot_overrides_created_total",
			Help:      "Slot overrides created by administrators.",
		}),
		bookingsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "bookings_completed_total",
			Help:      "Elapsed bookings persisted as completed by the sweeper.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laundry",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "laundry",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		m.bookingsCreated,
		m.bookingsRejected,
		m.bookingsCanceled,
		m.bookingsRescheduled,
		m.overridesCreated,
		m.bookingsCompleted,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) BookingCreated() {
	m.bookingsCreated.Inc()
}

func (m *Metrics) BookingRejected(reason string) {
	m.bookingsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) BookingCanceled(role booking.Role) {
	m.bookingsCanceled.WithLabelValues(string(role)).Inc()
}

func (m *Metrics) BookingRescheduled() {
	m.bookingsRescheduled.Inc()
}

func (m *Metrics) OverridesCreated(n int) {
	m.overridesCreated.Add(float64(n))
}

// BookingsCompleted counts bookings the sweeper transitioned.
func (m *Metrics) BookingsCompleted(n int64) { m.bookingsCompleted.Add(float64(n)) }

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
