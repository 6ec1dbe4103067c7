package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/api"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/api/handler"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/metrics"
)

// Options はルーター構築に必要な依存
type Options struct {
	Reservations handler.ReservationServiceInterface
	HealthChecks []handler.HealthCheck

	// Metrics が nil の場合は /metrics を公開しない
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	MetricsAuth *middleware.MetricsConfig
}

// New はミドルウェアとルートを設定したEchoインスタンスを返す
func New(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e, opts.Metrics)

	healthHandler := handler.NewHealthHandler(opts.HealthChecks...)
	e.GET("/health", healthHandler.Check)

	if opts.Metrics != nil {
		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
			middleware.MetricsBasicAuth(opts.MetricsAuth))
	}

	reservationHandler := handler.NewReservationHandler(opts.Reservations)

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)
	v1.GET("/reservations", reservationHandler.List)
	v1.POST("/reservations", reservationHandler.Create)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.DELETE("/reservations/:id", reservationHandler.Cancel)

	return e
}
