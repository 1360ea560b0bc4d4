package http

import (
	"net/http"

	"credit-risk-monitor/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	swagger "github.com/swaggo/echo-swagger"
)

// Handlers groups every route handler of the monitor API.
type Handlers struct {
	Company   *CompanyHandler
	Score     *ScoreHandler
	Alert     *AlertHandler
	Scheduler *SchedulerHandler
	Metrics   *metrics.Registry
}

// NewServer builds the echo server with the API under /api/v1, /metrics,
// /health and the swagger UI.
func NewServer(h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	apiV1 := e.Group("/api/v1")
	h.Company.RegisterRoutes(apiV1.Group("/companies"))
	h.Score.RegisterRoutes(apiV1.Group("/scores"))
	h.Alert.RegisterRoutes(apiV1.Group("/alerts"))
	h.Scheduler.RegisterRoutes(apiV1.Group("/scheduler"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics.Handler()))
	}
	e.GET("/swagger/*", swagger.WrapHandler)

	return e
}
