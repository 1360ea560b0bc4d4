package http

import (
	"net/http"

	"credit-risk-monitor/internal/scheduler"
	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SchedulerHandler handles HTTP requests for the orchestrator.
type SchedulerHandler struct {
	scheduler scheduler.SchedulerService
	runs      service.JobRunService
	logger    *logger.Logger
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(s scheduler.SchedulerService, runs service.JobRunService, logger *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s, runs: runs, logger: logger}
}

// RegisterRoutes registers the scheduler routes to the Echo group.
func (h *SchedulerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/status", h.GetStatus)
	g.POST("/pause", h.Pause)
	g.POST("/resume", h.Resume)
	g.GET("/runs", h.GetRuns)
	g.GET("/runs/:run_id", h.GetRun)
}

// GetStatus godoc
// @Summary Orchestrator status
// @Tags scheduler
// @Produce  json
// @Success 200 {object} dto.SchedulerStatusResponse
// @Router /scheduler/status [get]
func (h *SchedulerHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// Pause godoc
// @Summary Pause job dispatching
// @Tags scheduler
// @Produce  json
// @Success 200 {object} dto.SchedulerStatusResponse
// @Router /scheduler/pause [post]
func (h *SchedulerHandler) Pause(c echo.Context) error {
	h.scheduler.Pause()
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// Resume godoc
// @Summary Resume job dispatching
// @Tags scheduler
// @Produce  json
// @Success 200 {object} dto.SchedulerStatusResponse
// @Router /scheduler/resume [post]
func (h *SchedulerHandler) Resume(c echo.Context) error {
	h.scheduler.Resume()
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// GetRuns godoc
// @Summary Recent job runs
// @Tags scheduler
// @Produce  json
// @Param   job_id  query    string false    "Job ID filter"
// @Param   limit  query    int false    "Maximum items (default 50)"
// @Success 200 {array} dto.JobRunResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /scheduler/runs [get]
func (h *SchedulerHandler) GetRuns(c echo.Context) error {
	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return badRequest(c, "Invalid limit")
	}
	runs, err := h.runs.Recent(c.Request().Context(), c.QueryParam("job_id"), limit)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, runs)
}

// GetRun godoc
// @Summary Get a job run
// @Tags scheduler
// @Produce  json
// @Param   run_id  path    string true    "Run ID"
// @Success 200 {object} dto.JobRunResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /scheduler/runs/{run_id} [get]
func (h *SchedulerHandler) GetRun(c echo.Context) error {
	run, err := h.runs.Get(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, run)
}
