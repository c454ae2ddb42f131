package metrics

import (
	"strconv"
	"sync"
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
	// AdoptionOutcomes cuenta los intentos de adopción por resultado
	// (adopted, conflict, invalid, not_found, error).
	AdoptionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pawadopt_adoption_attempts_total", Help: "Adoption attempts by outcome"},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

// MustRegister registra los colectores en el registry por defecto una sola vez.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, ReqDuration, InFlight, AdoptionOutcomes)
	})
}

// Middleware mide cada request usando la ruta de gin (no el path crudo) como label.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		InFlight.Inc()
		start := time.Now()
		c.Next()
		InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		RequestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		ReqDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// ObserveAdoption registra el resultado de un intento de adopción.
func ObserveAdoption(outcome string) {
	AdoptionOutcomes.WithLabelValues(outcome).Inc()
}
