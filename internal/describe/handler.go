package describe

import (
	"context"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eleven-am/vision-service/internal/cache"
	"github.com/eleven-am/vision-service/internal/capture"
	"github.com/eleven-am/vision-service/internal/dto"
	"github.com/eleven-am/vision-service/internal/fingerprint"
	"github.com/eleven-am/vision-service/internal/memory"
	"github.com/eleven-am/vision-service/internal/ocr"
	"github.com/eleven-am/vision-service/internal/shared"
)

type Capturer interface {
	Capture(ctx context.Context, region *capture.Region) (*image.RGBA, error)
}

type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image, languageHint string) ([]ocr.Item, error)
}

type MemoryStore interface {
	Store(ctx context.Context, r memory.Result) error
}

// Handler serves scene descriptions. OCR and VLM run as independent optional
// steps merged at the end: a failed tier degrades the response instead of
// failing it.
type Handler struct {
	capturer Capturer
	ocr      TextExtractor
	engine   *Engine
	cache    *cache.Cache
	memory   MemoryStore
	logger   *slog.Logger
}

func NewHandler(capturer Capturer, textExtractor TextExtractor, engine *Engine, descCache *cache.Cache, memoryStore MemoryStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		capturer: capturer,
		ocr:      textExtractor,
		engine:   engine,
		cache:    descCache,
		memory:   memoryStore,
		logger:   logger.With("handler", "describe"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/describe", h.Describe)
}

func (h *Handler) Describe(c echo.Context) error {
	var req dto.DescribeRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	includeOCR := req.IncludeOCR == nil || *req.IncludeOCR
	storeToMemory := req.StoreToMemory == nil || *req.StoreToMemory

	region, err := capture.ParseRegion(req.Region)
	if err != nil {
		return shared.BadRequest("invalid_region", err.Error())
	}

	ctx := c.Request().Context()

	img, err := h.capturer.Capture(ctx, region)
	if err != nil {
		h.logger.Error("capture failed", "error", err)
		return shared.InternalError("describe_failed", err.Error())
	}

	bounds := img.Bounds()
	data := dto.DescribeData{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Region: req.Region,
	}

	var ocrConcat string
	if includeOCR {
		items, err := h.ocr.ExtractText(ctx, img, "")
		if err != nil {
			h.logger.Warn("ocr failed", "error", err)
			data.OCRError = err.Error()
		} else {
			ocrConcat = ocr.Concat(items)
			data.OCR = &dto.OCRBlock{
				Items:  ocr.ItemsToDTO(items),
				Concat: ocrConcat,
			}
		}
	}

	if h.engine.Disabled() {
		data.VLMDisabled = true
		h.logger.Info("vlm disabled, serving ocr only")
	} else {
		cacheKey := cache.Key(fingerprint.Compute(img).Hash(), req.Task)
		if cached, ok := h.cache.Get(ctx, cacheKey); ok {
			data.Description = &cached
			data.Cached = true
		} else {
			description, err := h.engine.Describe(ctx, img, req.Task)
			if err != nil {
				h.logger.Error("vlm failed", "error", err)
				data.VLMError = err.Error()
				if ocrConcat != "" {
					fallback := "Screen content (OCR): " + truncate(ocrConcat, 500)
					data.Description = &fallback
				}
			} else {
				data.Description = &description
				h.cache.Set(ctx, cacheKey, description)
			}
		}
	}

	if storeToMemory && data.Description != nil {
		result := memory.Result{
			Description: *data.Description,
			OCRText:     ocrConcat,
			Timestamp:   time.Now(),
			Task:        req.Task,
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			Region:      req.Region,
		}
		if err := h.memory.Store(ctx, result); err != nil {
			h.logger.Warn("memory store failed", "error", err)
			data.MemoryStorageError = err.Error()
		} else {
			data.StoredToMemory = true
		}
	}

	return c.JSON(http.StatusOK, shared.Success(data))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
