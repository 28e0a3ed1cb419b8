package api

import (
	"net/http"

	models "FXAdvisor/internal/domain/models"
	domrepo "FXAdvisor/internal/domain/repository"
	"FXAdvisor/internal/usecase"
	xhttp "FXAdvisor/pkg/http"
	xlogger "FXAdvisor/pkg/logger"
	"FXAdvisor/pkg/util"

	"github.com/labstack/echo/v4"
)

// ForecastEchoHandler exposes the forecast pipeline and the read-only
// inspection endpoints over Echo.
type ForecastEchoHandler struct {
	logger   *xlogger.Logger
	forecast *usecase.ForecastUseCase
	recent   *usecase.RecentUseCase
	storage  domrepo.TickStorage
	apiKey   string
}

func NewForecastEchoHandler(
	logger *xlogger.Logger,
	forecast *usecase.ForecastUseCase,
	recent *usecase.RecentUseCase,
	storage domrepo.TickStorage,
	apiKey string,
) *ForecastEchoHandler {
	return &ForecastEchoHandler{
		logger:   logger,
		forecast: forecast,
		recent:   recent,
		storage:  storage,
		apiKey:   apiKey,
	}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/v1", h.requireKey)
	g.GET("/forecast", h.Forecast)
	g.GET("/bars/recent", h.RecentBars)
	g.GET("/news/recent", h.RecentNews)
	g.GET("/sentiment/recent", h.RecentSentiment)
}

// requireKey rejects requests whose X-API-Key header does not match the
// configured key.
func (h *ForecastEchoHandler) requireKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.apiKey != "" && c.Request().Header.Get("X-API-Key") != h.apiKey {
			return xhttp.UnauthorizedResponse(c, "invalid api key")
		}
		return next(c)
	}
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.storage != nil {
		if err := h.storage.Health(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["clickhouse"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
		}
		status["clickhouse"] = "ok"
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Pair = util.NormalizePair(req.Pair)

	res, err := h.forecast.Forecast(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) RecentBars(c echo.Context) error {
	req := &models.RecentBarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	bars, err := h.recent.Bars(c.Request().Context(), util.NormalizePair(req.Pair), req.Limit)
	if err != nil {
		h.logger.Error("recent bars usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"count": len(bars), "bars": bars})
}

func (h *ForecastEchoHandler) RecentNews(c echo.Context) error {
	req := &models.RecentNewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	items, err := h.recent.News(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("recent news usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"count": len(items), "news": items})
}

func (h *ForecastEchoHandler) RecentSentiment(c echo.Context) error {
	req := &models.RecentSentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	samples, err := h.recent.Sentiment(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("recent sentiment usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"count": len(samples), "sentiment": samples})
}
