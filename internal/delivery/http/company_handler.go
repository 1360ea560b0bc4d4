package http

import (
	"context"
	"net/http"
	"strings"

	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RefreshScheduler is the part of the orchestrator the company routes use.
type RefreshScheduler interface {
	ScheduleRefresh(ticker string) string
	ComputeScore(ctx context.Context, ticker string) (*entity.CreditScore, error)
}

// CompanyHandler handles HTTP requests for monitored companies.
type CompanyHandler struct {
	companies service.CompanyService
	news      service.NewsService
	alerts    service.AlertService
	scheduler RefreshScheduler
	logger    *logger.Logger
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companies service.CompanyService, news service.NewsService, alerts service.AlertService, scheduler RefreshScheduler, logger *logger.Logger) *CompanyHandler {
	return &CompanyHandler{companies: companies, news: news, alerts: alerts, scheduler: scheduler, logger: logger}
}

// RegisterRoutes registers the company routes to the Echo group.
func (h *CompanyHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.RegisterCompany)
	g.GET("", h.ListCompanies)
	g.GET("/:ticker", h.GetCompany)
	g.DELETE("/:ticker", h.DeactivateCompany)
	g.POST("/:ticker/refresh", h.ScheduleRefresh)
	g.POST("/:ticker/compute", h.ComputeScore)
	g.GET("/:ticker/news", h.GetNews)
	g.GET("/:ticker/alerts", h.GetCompanyAlerts)
}

// RegisterCompany godoc
// @Summary Register a company
// @Description Start monitoring a ticker and schedule its first refresh
// @Tags companies
// @Accept  json
// @Produce  json
// @Param   company  body    dto.RegisterCompanyRequest   true    "Ticker to monitor"
// @Success 201 {object} entity.Company
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /companies [post]
func (h *CompanyHandler) RegisterCompany(c echo.Context) error {
	var req dto.RegisterCompanyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.Ticker) == "" {
		return badRequest(c, "ticker is required")
	}

	company, err := h.companies.Register(c.Request().Context(), req.Ticker)
	if err != nil {
		h.logger.Error("Failed to register company", logger.ErrorField(err), logger.StringField("ticker", req.Ticker))
		return errorJSON(c, err)
	}

	h.scheduler.ScheduleRefresh(company.Ticker)
	return c.JSON(http.StatusCreated, company)
}

// ListCompanies godoc
// @Summary List companies
// @Tags companies
// @Produce  json
// @Param   include_inactive  query    bool false    "Include deactivated companies"
// @Success 200 {array} entity.Company
// @Failure 500 {object} dto.ErrorResponse
// @Router /companies [get]
func (h *CompanyHandler) ListCompanies(c echo.Context) error {
	companies, err := h.companies.List(c.Request().Context(), c.QueryParam("include_inactive") == "true")
	if err != nil {
		h.logger.Error("Failed to list companies", logger.ErrorField(err))
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, companies)
}

// GetCompany godoc
// @Summary Get a company
// @Tags companies
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Success 200 {object} entity.Company
// @Failure 404 {object} dto.ErrorResponse
// @Router /companies/{ticker} [get]
func (h *CompanyHandler) GetCompany(c echo.Context) error {
	company, err := h.companies.Get(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

// DeactivateCompany godoc
// @Summary Stop monitoring a company
// @Description History is kept
// @Tags companies
// @Param   ticker  path    string true    "Ticker"
// @Success 204 {object} nil
// @Failure 404 {object} dto.ErrorResponse
// @Router /companies/{ticker} [delete]
func (h *CompanyHandler) DeactivateCompany(c echo.Context) error {
	if err := h.companies.Deactivate(c.Request().Context(), c.Param("ticker")); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ScheduleRefresh godoc
// @Summary Schedule an ad-hoc refresh
// @Description Registers a one-shot refresh job and returns immediately
// @Tags companies
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Success 202 {object} map[string]string
// @Failure 404 {object} dto.ErrorResponse
// @Router /companies/{ticker}/refresh [post]
func (h *CompanyHandler) ScheduleRefresh(c echo.Context) error {
	company, err := h.companies.Get(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return errorJSON(c, err)
	}
	jobID := h.scheduler.ScheduleRefresh(company.Ticker)
	return c.JSON(http.StatusAccepted, echo.Map{"ticker": company.Ticker, "job_id": jobID})
}

// ComputeScore godoc
// @Summary Compute a score now
// @Description Runs a full refresh cycle synchronously and returns the new score
// @Tags companies
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Success 200 {object} entity.CreditScore
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /companies/{ticker}/compute [post]
func (h *CompanyHandler) ComputeScore(c echo.Context) error {
	score, err := h.scheduler.ComputeScore(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, score)
}

// GetNews godoc
// @Summary Recent news signals of a company
// @Tags companies
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Param   days  query    int false    "Lookback in days (default 7)"
// @Param   event_type  query    string false    "Event type filter"
// @Param   limit  query    int false    "Maximum items (default 50)"
// @Success 200 {array} entity.NewsSignal
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /companies/{ticker}/news [get]
func (h *CompanyHandler) GetNews(c echo.Context) error {
	days, ok := intQuery(c, "days", 7)
	if !ok {
		return badRequest(c, "Invalid days")
	}
	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return badRequest(c, "Invalid limit")
	}

	news, err := h.news.Recent(c.Request().Context(), c.Param("ticker"), days, c.QueryParam("event_type"), limit)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, news)
}

// GetCompanyAlerts godoc
// @Summary Alerts of a company
// @Tags companies
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Param   days  query    int false    "Lookback in days (default 7)"
// @Success 200 {array} entity.Alert
// @Failure 404 {object} dto.ErrorResponse
// @Router /companies/{ticker}/alerts [get]
func (h *CompanyHandler) GetCompanyAlerts(c echo.Context) error {
	days, ok := intQuery(c, "days", 7)
	if !ok {
		return badRequest(c, "Invalid days")
	}
	alerts, err := h.alerts.ForCompany(c.Request().Context(), c.Param("ticker"), days)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, alerts)
}
