package bootstrap

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/eleven-am/vision-service/internal/cache"
	"github.com/eleven-am/vision-service/internal/capture"
	"github.com/eleven-am/vision-service/internal/describe"
	"github.com/eleven-am/vision-service/internal/events"
	"github.com/eleven-am/vision-service/internal/memory"
	"github.com/eleven-am/vision-service/internal/ocr"
	"github.com/eleven-am/vision-service/internal/watch"
)

func ProvideCaptureService(cfg *Config, logger *slog.Logger) *capture.Service {
	return capture.NewService(cfg.CaptureTimeout, logger)
}

func ProvideOCREngine(cfg *Config, logger *slog.Logger) *ocr.Engine {
	return ocr.NewEngine(ocr.Config{Language: cfg.OCRLanguage}, logger)
}

func ProvideVLMEngine(cfg *Config, logger *slog.Logger) *describe.Engine {
	return describe.NewEngine(describe.Config{
		Enabled:   cfg.VLMEnabled,
		BaseURL:   cfg.OllamaURL,
		Model:     cfg.VLMModel,
		Device:    cfg.VLMDevice,
		MaxTokens: cfg.VLMMaxTokens,
	}, logger)
}

func ProvideMemoryClient(cfg *Config, logger *slog.Logger) *memory.Client {
	return memory.NewClient(memory.Config{
		BaseURL: cfg.MemoryServiceURL,
		APIKey:  cfg.MemoryAPIKey,
	}, logger)
}

func ProvideCache(cfg *Config, redisClient *redis.Client, logger *slog.Logger) *cache.Cache {
	return cache.New(redisClient, cfg.CacheTTL, logger)
}

func ProvideEventHub(logger *slog.Logger) *events.Hub {
	return events.NewHub(logger)
}

func ProvideWatchManager(
	lc fx.Lifecycle,
	cfg *Config,
	captureSvc *capture.Service,
	ocrEngine *ocr.Engine,
	vlmEngine *describe.Engine,
	memoryClient *memory.Client,
	hub *events.Hub,
	logger *slog.Logger,
) *watch.Manager {
	manager := watch.NewManager(watch.ManagerConfig{
		Capturer:               captureSvc,
		OCR:                    ocrEngine,
		VLM:                    vlmEngine,
		Sink:                   memoryClient,
		Hub:                    hub,
		Logger:                 logger,
		DefaultIntervalMS:      cfg.WatchIntervalMS,
		DefaultChangeThreshold: cfg.WatchChangeThreshold,
	})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			manager.Stop()
			return ocrEngine.Close()
		},
	})

	return manager
}

var EnginesModule = fx.Options(
	fx.Provide(
		ProvideCaptureService,
		ProvideOCREngine,
		ProvideVLMEngine,
		ProvideMemoryClient,
		ProvideCache,
		ProvideEventHub,
		ProvideWatchManager,
	),
)
