package ocr

import (
	"context"
	"image"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eleven-am/vision-service/internal/capture"
	"github.com/eleven-am/vision-service/internal/dto"
	"github.com/eleven-am/vision-service/internal/shared"
)

type Capturer interface {
	Capture(ctx context.Context, region *capture.Region) (*image.RGBA, error)
}

type Handler struct {
	capturer Capturer
	engine   *Engine
	logger   *slog.Logger
}

func NewHandler(capturer Capturer, engine *Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		capturer: capturer,
		engine:   engine,
		logger:   logger.With("handler", "ocr"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/ocr", h.Extract)
}

func ItemsToDTO(items []Item) []dto.OCRItem {
	out := make([]dto.OCRItem, len(items))
	for i, it := range items {
		out[i] = dto.OCRItem{
			Text:       it.Text,
			BBox:       it.BBox,
			Confidence: it.Confidence,
		}
	}
	return out
}

func (h *Handler) Extract(c echo.Context) error {
	var req dto.OCRRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	region, err := capture.ParseRegion(req.Region)
	if err != nil {
		return shared.BadRequest("invalid_region", err.Error())
	}

	ctx := c.Request().Context()

	img, err := h.capturer.Capture(ctx, region)
	if err != nil {
		h.logger.Error("capture failed", "error", err)
		return shared.InternalError("ocr_failed", err.Error())
	}

	items, err := h.engine.ExtractText(ctx, img, req.Language)
	if err != nil {
		h.logger.Error("ocr failed", "error", err)
		return shared.InternalError("ocr_failed", err.Error())
	}

	return c.JSON(http.StatusOK, shared.Success(dto.OCRData{
		Items:  ItemsToDTO(items),
		Concat: Concat(items),
		Count:  len(items),
		Region: req.Region,
	}))
}
