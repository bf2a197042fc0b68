package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)

	ProvisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "provision_total", Help: "Provisioning transactions by flow and outcome"},
		[]string{"flow", "outcome"},
	)
	ProvisionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provision_duration_seconds",
			Help:    "Provisioning transaction duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"flow"},
	)
	VerifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "credential_verify_total", Help: "Credential verifications by outcome"},
		[]string{"outcome"},
	)
	SeededRoles = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "seeded_roles", Help: "Roles inserted by the last seeding run"},
	)
)

func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		RequestsTotal, ReqDuration, InFlight,
		ProvisionTotal, ProvisionDuration, VerifyTotal, SeededRoles,
	)
}

// ObserveProvision records one finished provisioning transaction.
func ObserveProvision(flow, outcome string, started time.Time) {
	ProvisionTotal.WithLabelValues(flow, outcome).Inc()
	ProvisionDuration.WithLabelValues(flow).Observe(time.Since(started).Seconds())
}

// Instrument is gin middleware feeding the HTTP collectors.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		InFlight.Inc()
		start := time.Now()
		c.Next()
		InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
