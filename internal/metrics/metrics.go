package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"method", "route", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auth_api_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_login_attempts_total",
		Help: "Password login attempts by outcome",
	}, []string{"status"})

	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_otp_issued_total",
		Help: "One-time codes issued by purpose",
	}, []string{"purpose"})

	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_otp_verifications_total",
		Help: "One-time code verifications by purpose and outcome",
	}, []string{"purpose", "status"})

	OTPDeliveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_otp_delivery_total",
		Help: "One-time code deliveries by outcome",
	}, []string{"status"})

	QRSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_qr_sessions_total",
		Help: "QR login handshake transitions",
	}, []string{"event"})

	SessionsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_api_sessions_issued_total",
		Help: "Session tokens minted",
	})

	CSRFRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_api_csrf_rejections_total",
		Help: "State-changing requests rejected by the CSRF check",
	})

	LogEntriesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_api_log_entries_dropped_total",
		Help: "Log entries that never reached Logstash, by reason",
	}, []string{"reason"})
)

// Outcome folds an error into a "success"/"failure" label.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// Middleware records request counts and latency keyed by the matched route
// pattern so path parameters do not explode label cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Resolve the status now; echo's error handler skips committed responses.
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
