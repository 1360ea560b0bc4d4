package http

import (
	"net/http"

	"credit-risk-monitor/internal/service"
	"credit-risk-monitor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScoreHandler handles HTTP requests for credit scores.
type ScoreHandler struct {
	scores service.ScoreService
	logger *logger.Logger
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(scores service.ScoreService, logger *logger.Logger) *ScoreHandler {
	return &ScoreHandler{scores: scores, logger: logger}
}

// RegisterRoutes registers the score routes to the Echo group.
func (h *ScoreHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/leaderboard", h.GetLeaderboard)
	g.GET("/:ticker", h.GetLatestScore)
	g.GET("/:ticker/history", h.GetScoreHistory)
	g.GET("/:ticker/explanation", h.GetExplanation)
	g.GET("/:ticker/feature-importance", h.GetFeatureImportance)
	g.GET("/:ticker/trend", h.GetTrend)
}

// GetLatestScore godoc
// @Summary Latest credit score
// @Tags scores
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Success 200 {object} entity.CreditScore
// @Failure 404 {object} dto.ErrorResponse
// @Router /scores/{ticker} [get]
func (h *ScoreHandler) GetLatestScore(c echo.Context) error {
	score, err := h.scores.Latest(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, score)
}

// GetScoreHistory godoc
// @Summary Score history
// @Tags scores
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Param   days  query    int false    "Lookback in days (default 30)"
// @Success 200 {array} entity.CreditScore
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /scores/{ticker}/history [get]
func (h *ScoreHandler) GetScoreHistory(c echo.Context) error {
	days, ok := intQuery(c, "days", 30)
	if !ok {
		return badRequest(c, "Invalid days")
	}
	scores, err := h.scores.History(c.Request().Context(), c.Param("ticker"), days)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, scores)
}

// GetExplanation godoc
// @Summary Explanation of the latest score
// @Tags scores
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Success 200 {object} dto.ScoreExplanationResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /scores/{ticker}/explanation [get]
func (h *ScoreHandler) GetExplanation(c echo.Context) error {
	resp, err := h.scores.Explanation(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetFeatureImportance godoc
// @Summary Feature importance of the latest score
// @Tags scores
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Success 200 {object} dto.FeatureImportanceResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /scores/{ticker}/feature-importance [get]
func (h *ScoreHandler) GetFeatureImportance(c echo.Context) error {
	resp, err := h.scores.FeatureImportance(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetTrend godoc
// @Summary Score trend over a window
// @Tags scores
// @Produce  json
// @Param   ticker  path    string true    "Ticker"
// @Param   days  query    int false    "Window in days (default 30)"
// @Success 200 {object} dto.ScoreTrendResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /scores/{ticker}/trend [get]
func (h *ScoreHandler) GetTrend(c echo.Context) error {
	days, ok := intQuery(c, "days", 30)
	if !ok {
		return badRequest(c, "Invalid days")
	}
	resp, err := h.scores.Trend(c.Request().Context(), c.Param("ticker"), days)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetLeaderboard godoc
// @Summary Companies ranked by latest score
// @Tags scores
// @Produce  json
// @Param   limit  query    int false    "Maximum entries (default 10)"
// @Param   order  query    string false    "desc (best first, default) or asc (riskiest first)"
// @Success 200 {array} repository.LeaderboardEntry
// @Failure 400 {object} dto.ErrorResponse
// @Router /scores/leaderboard [get]
func (h *ScoreHandler) GetLeaderboard(c echo.Context) error {
	limit, ok := intQuery(c, "limit", 10)
	if !ok {
		return badRequest(c, "Invalid limit")
	}
	order := c.QueryParam("order")
	if order != "" && order != "asc" && order != "desc" {
		return badRequest(c, "order must be asc or desc")
	}

	entries, err := h.scores.Leaderboard(c.Request().Context(), limit, order == "asc")
	if err != nil {
		h.logger.Error("Failed to build leaderboard", logger.ErrorField(err))
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}
