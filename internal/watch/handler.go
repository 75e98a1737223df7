package watch

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eleven-am/vision-service/internal/capture"
	"github.com/eleven-am/vision-service/internal/dto"
	"github.com/eleven-am/vision-service/internal/shared"
)

type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		manager: manager,
		logger:  logger.With("handler", "watch"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/start", h.Start)
	g.POST("/stop", h.Stop)
	g.GET("/status", h.Status)
}

func (h *Handler) Start(c echo.Context) error {
	var req dto.WatchStartRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	region, err := capture.ParseRegion(req.Region)
	if err != nil {
		return shared.BadRequest("invalid_region", err.Error())
	}

	cfg := Config{
		VLMChangeThreshold: req.VLMChangeThreshold,
		RunOCR:             req.RunOCR,
		RunVLM:             req.RunVLM,
		Task:               req.Task,
		Region:             region,
	}
	if req.IntervalMS != nil {
		cfg.IntervalMS = *req.IntervalMS
	}
	if req.ChangeThreshold != nil {
		cfg.ChangeThreshold = *req.ChangeThreshold
	}

	snap, err := h.manager.Start(cfg)
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyRunning) {
			return shared.Conflict("watch_already_running", "a watch session is already running")
		}
		return shared.BadRequest("invalid_watch_config", err.Error())
	}

	return c.JSON(http.StatusOK, shared.Success(snap))
}

func (h *Handler) Stop(c echo.Context) error {
	snap := h.manager.Stop()
	return c.JSON(http.StatusOK, shared.Success(snap))
}

func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, shared.Success(h.manager.Status()))
}
