package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventory"

var (
	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	tokenValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Bearer token validations by result.",
		},
		[]string{"result"},
	)

	keySetRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keyset_refreshes_total",
			Help:      "Fetches of the identity provider's key set by result.",
		},
		[]string{"result"},
	)

	keySetKeys = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "keyset_keys",
			Help:      "Number of keys in the cached key set.",
		},
	)

	usersProvisioned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_provisioned_total",
			Help:      "Users created on their first login.",
		},
	)

	assetChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_changes_total",
			Help:      "Asset writes by action.",
		},
		[]string{"action"},
	)
)

var registerOnce sync.Once

// Init registers all metrics with the default registry. It is safe to call
// more than once.
func Init() {
	registerOnce.Do(
		func() {
			prometheus.MustRegister(
				httpInFlight, httpRequestsTotal, httpRequestDuration,
				tokenValidations, keySetRefreshes, keySetKeys,
				usersProvisioned, assetChanges,
			)
		},
	)
}

// Handler returns the prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records count and latency of every request. The route pattern
// is used as label to keep the cardinality bounded.
func Middleware(c *fiber.Ctx) error {
	httpInFlight.Inc()
	defer httpInFlight.Dec()
	start := time.Now()

	// the error handler sets the final status, so it has to run before the
	// status is read
	if err := c.Next(); err != nil {
		if handlerErr := c.App().Config().ErrorHandler(c, err); handlerErr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	route := c.Route().Path
	status := strconv.Itoa(c.Response().StatusCode())
	httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
	httpRequestsTotal.WithLabelValues(c.Method(), route, status).Inc()
	return nil
}

// TokenValidation counts a bearer token validation with the given result,
// e.g. "ok", "unauthenticated" or "unavailable"
func TokenValidation(result string) {
	tokenValidations.WithLabelValues(result).Inc()
}

// KeySetRefresh counts a key set fetch and, if it succeeded, records the
// number of keys
func KeySetRefresh(err error, keys int) {
	if err != nil {
		keySetRefreshes.WithLabelValues("error").Inc()
		return
	}
	keySetRefreshes.WithLabelValues("ok").Inc()
	keySetKeys.Set(float64(keys))
}

// UserProvisioned counts a user created on first login
func UserProvisioned() {
	usersProvisioned.Inc()
}

// AssetChange counts an asset write
func AssetChange(action string) {
	assetChanges.WithLabelValues(action).Inc()
}
