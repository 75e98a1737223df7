package bootstrap

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/eleven-am/vision-service/internal/auth"
	"github.com/eleven-am/vision-service/internal/cache"
	"github.com/eleven-am/vision-service/internal/capture"
	"github.com/eleven-am/vision-service/internal/describe"
	"github.com/eleven-am/vision-service/internal/events"
	"github.com/eleven-am/vision-service/internal/health"
	"github.com/eleven-am/vision-service/internal/memory"
	"github.com/eleven-am/vision-service/internal/ocr"
	"github.com/eleven-am/vision-service/internal/watch"
)

func ProvideAPIKeyMiddleware(cfg *Config) *auth.Middleware {
	return auth.NewMiddleware(cfg.APIKey)
}

func ProvideCaptureHandler(svc *capture.Service, logger *slog.Logger) *capture.Handler {
	return capture.NewHandler(svc, logger)
}

func ProvideOCRHandler(svc *capture.Service, engine *ocr.Engine, logger *slog.Logger) *ocr.Handler {
	return ocr.NewHandler(svc, engine, logger)
}

func ProvideDescribeHandler(
	svc *capture.Service,
	ocrEngine *ocr.Engine,
	vlmEngine *describe.Engine,
	descCache *cache.Cache,
	memoryClient *memory.Client,
	logger *slog.Logger,
) *describe.Handler {
	return describe.NewHandler(svc, ocrEngine, vlmEngine, descCache, memoryClient, logger)
}

func ProvideWatchHandler(manager *watch.Manager, logger *slog.Logger) *watch.Handler {
	return watch.NewHandler(manager, logger)
}

func ProvideEventsHandler(hub *events.Hub, logger *slog.Logger) *events.Handler {
	return events.NewHandler(hub, logger)
}

func ProvideHealthHandler(cfg *Config, svc *capture.Service, ocrEngine *ocr.Engine, vlmEngine *describe.Engine) *health.Handler {
	return health.NewHandler(svc, ocrEngine, vlmEngine, cfg.MemoryServiceURL)
}

type HandlerParams struct {
	fx.In

	CaptureHandler  *capture.Handler
	OCRHandler      *ocr.Handler
	DescribeHandler *describe.Handler
	WatchHandler    *watch.Handler
	EventsHandler   *events.Handler
	HealthHandler   *health.Handler
	APIKey          *auth.Middleware
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	params.HealthHandler.RegisterRoutes(e)

	root := e.Group("", params.APIKey.RequireAPIKey)
	params.CaptureHandler.RegisterRoutes(root)

	vision := e.Group("/vision", params.APIKey.RequireAPIKey)
	params.OCRHandler.RegisterRoutes(vision)
	params.DescribeHandler.RegisterRoutes(vision)

	watchGroup := vision.Group("/watch")
	params.WatchHandler.RegisterRoutes(watchGroup)
	params.EventsHandler.RegisterRoutes(watchGroup)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideAPIKeyMiddleware,
		ProvideCaptureHandler,
		ProvideOCRHandler,
		ProvideDescribeHandler,
		ProvideWatchHandler,
		ProvideEventsHandler,
		ProvideHealthHandler,
	),
	fx.Invoke(RegisterRoutes),
)
