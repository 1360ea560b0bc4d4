package http

import (
	"net/http"
	"strconv"
	"strings"

	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertHandler handles HTTP requests for alerts.
type AlertHandler struct {
	alerts service.AlertService
	logger *logger.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alerts service.AlertService, logger *logger.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, logger: logger}
}

// RegisterRoutes registers the alert routes to the Echo group.
func (h *AlertHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListAlerts)
	g.GET("/summary", h.GetSummary)
	g.GET("/:id", h.GetAlert)
	g.PUT("/:id/read", h.MarkRead)
	g.PUT("/:id/acknowledge", h.Acknowledge)
}

// ListAlerts godoc
// @Summary List alerts
// @Tags alerts
// @Produce  json
// @Param   ticker  query    string false    "Ticker filter"
// @Param   severity  query    string false    "low, medium, high or critical"
// @Param   unread  query    bool false    "Only unread alerts"
// @Param   limit  query    int false    "Maximum items (default 50)"
// @Success 200 {array} entity.Alert
// @Failure 400 {object} dto.ErrorResponse
// @Router /alerts [get]
func (h *AlertHandler) ListAlerts(c echo.Context) error {
	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return badRequest(c, "Invalid limit")
	}
	severity := entity.Severity(strings.ToLower(c.QueryParam("severity")))
	if severity != "" && severity.Rank() == 0 {
		return badRequest(c, "Invalid severity")
	}

	alerts, err := h.alerts.List(c.Request().Context(), repository.AlertFilter{
		Ticker:     c.QueryParam("ticker"),
		Severity:   severity,
		UnreadOnly: c.QueryParam("unread") == "true",
		Limit:      limit,
	})
	if err != nil {
		h.logger.Error("Failed to list alerts", logger.ErrorField(err))
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, alerts)
}

// GetSummary godoc
// @Summary Alert counts
// @Tags alerts
// @Produce  json
// @Success 200 {object} repository.AlertSummary
// @Failure 500 {object} dto.ErrorResponse
// @Router /alerts/summary [get]
func (h *AlertHandler) GetSummary(c echo.Context) error {
	summary, err := h.alerts.Summary(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GetAlert godoc
// @Summary Get an alert
// @Tags alerts
// @Produce  json
// @Param   id  path    int true    "Alert ID"
// @Success 200 {object} entity.Alert
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /alerts/{id} [get]
func (h *AlertHandler) GetAlert(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest(c, "Invalid alert ID")
	}
	alert, err := h.alerts.Get(c.Request().Context(), uint(id))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, alert)
}

// MarkRead godoc
// @Summary Mark an alert read
// @Tags alerts
// @Produce  json
// @Param   id  path    int true    "Alert ID"
// @Success 200 {object} entity.Alert
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /alerts/{id}/read [put]
func (h *AlertHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest(c, "Invalid alert ID")
	}
	alert, err := h.alerts.MarkRead(c.Request().Context(), uint(id))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, alert)
}

// Acknowledge godoc
// @Summary Acknowledge an alert
// @Description The first acknowledgement is kept
// @Tags alerts
// @Accept  json
// @Produce  json
// @Param   id  path    int true    "Alert ID"
// @Param   body  body    dto.AcknowledgeAlertRequest   true    "Acknowledger"
// @Success 200 {object} entity.Alert
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /alerts/{id}/acknowledge [put]
func (h *AlertHandler) Acknowledge(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest(c, "Invalid alert ID")
	}
	var req dto.AcknowledgeAlertRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.AcknowledgedBy) == "" {
		return badRequest(c, "acknowledged_by is required")
	}

	alert, err := h.alerts.Acknowledge(c.Request().Context(), uint(id), req.AcknowledgedBy)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, alert)
}
