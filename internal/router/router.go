package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/arvinth/campus-parking/internal/config"
	"github.com/arvinth/campus-parking/internal/handler"    // import the handlers that implement business logic
	"github.com/arvinth/campus-parking/internal/middleware" // import middleware for rate limiting
)

// RegisterRoutes registers infrastructure routes on the provided Echo
// instance: the health check used by load balancers and the static /media
// route under which generated QR images are served.
func RegisterRoutes(e *echo.Echo, mediaRoot string) {
	e.GET("/healthz", handler.Health)
	// QR images are written beneath mediaRoot and referenced by the
	// relative paths returned from the cancel endpoint.
	e.Static("/media", mediaRoot)
}

// RegisterAPI registers the parking API under /v1.  Route names follow the
// public frontend contract: reserve, monthly-pass, yearly-pass,
// new-employee, cancel-reservation, mark-as-scanned, check-scan-status.
// The redis-backed rate limiter is attached only to cancel-reservation,
// the one endpoint that checks a credential.
func RegisterAPI(e *echo.Echo, res *handler.ReservationHandler, pass *handler.PassHandler,
	emp *handler.EmployeeHandler, cancel *handler.CancellationHandler,
	rlCfg config.RateLimitConfig, rdb *redis.Client) {

	g := e.Group("/v1")

	// Record creation endpoints.  Plain pass-through validation + persist.
	g.POST("/reserve", res.CreateReservation)
	g.POST("/monthly-pass", pass.CreateMonthlyPass)
	g.POST("/yearly-pass", pass.CreateYearlyPass)
	g.POST("/new-employee", emp.CreateEmployee)

	// Cancellation protocol.  The scan endpoint is opened by whatever
	// device reads the QR code; the status endpoint is polled by the
	// frontend until the scan is observed.
	g.POST("/cancel-reservation", cancel.Cancel, middleware.NewTokenBucket(rlCfg, rdb))
	g.GET("/mark-as-scanned/:spot_id", cancel.MarkScanned)
	g.GET("/check-scan-status/:spot_id", cancel.CheckScanStatus)
}
