package capture

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eleven-am/vision-service/internal/dto"
	"github.com/eleven-am/vision-service/internal/shared"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger.With("handler", "capture"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/capture", h.Capture)
}

func (h *Handler) Capture(c echo.Context) error {
	var req dto.CaptureRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	region, err := ParseRegion(req.Region)
	if err != nil {
		return shared.BadRequest("invalid_region", err.Error())
	}

	img, err := h.service.Capture(c.Request().Context(), region)
	if err != nil {
		h.logger.Error("capture failed", "error", err)
		return shared.InternalError("capture_failed", err.Error())
	}

	encoded, err := EncodePNG(img)
	if err != nil {
		h.logger.Error("encode failed", "error", err)
		return shared.InternalError("capture_failed", err.Error())
	}

	bounds := img.Bounds()
	return c.JSON(http.StatusOK, shared.Success(dto.CaptureData{
		PNGBase64: encoded,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Region:    req.Region,
	}))
}
