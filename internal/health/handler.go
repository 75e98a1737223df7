package health

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

const serviceVersion = "1.0.0"

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// CaptureProbe reports whether the display can be captured.
type CaptureProbe interface {
	Available() bool
}

// EngineProbe reports whether an analysis engine can still serve requests.
type EngineProbe interface {
	Available() bool
}

// VLMProbe distinguishes operator-disabled from load-failed.
type VLMProbe interface {
	Disabled() bool
	Available() bool
}

type Capabilities struct {
	Screenshot bool `json:"screenshot"`
	OCR        bool `json:"ocr"`
	VLM        bool `json:"vlm"`
}

type RuntimeStats struct {
	Goroutines    int    `json:"goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

type HealthResponse struct {
	Status        Status       `json:"status"`
	Service       string       `json:"service"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Capabilities  Capabilities `json:"capabilities"`
	Runtime       RuntimeStats `json:"runtime"`
}

type Endpoint struct {
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Description string   `json:"description"`
	Params      []string `json:"params,omitempty"`
}

type CapabilitiesResponse struct {
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Endpoints    []Endpoint        `json:"endpoints"`
	Dependencies map[string]string `json:"dependencies"`
}

type Handler struct {
	capture   CaptureProbe
	ocr       EngineProbe
	vlm       VLMProbe
	memoryURL string
	startTime time.Time
}

func NewHandler(capture CaptureProbe, ocr EngineProbe, vlm VLMProbe, memoryURL string) *Handler {
	return &Handler{
		capture:   capture,
		ocr:       ocr,
		vlm:       vlm,
		memoryURL: memoryURL,
		startTime: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/service.capabilities", h.Capabilities)
}

func (h *Handler) Health(c echo.Context) error {
	screenshotOK := h.capture.Available()
	ocrOK := h.ocr.Available()

	status := StatusOK
	if !screenshotOK || !ocrOK {
		status = StatusDegraded
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return c.JSON(http.StatusOK, HealthResponse{
		Status:        status,
		Service:       "vision",
		Version:       serviceVersion,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Capabilities: Capabilities{
			Screenshot: screenshotOK,
			OCR:        ocrOK,
			VLM:        !h.vlm.Disabled() && h.vlm.Available(),
		},
		Runtime: RuntimeStats{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: memStats.Alloc / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	})
}

// Capabilities returns the MCP discovery document.
func (h *Handler) Capabilities(c echo.Context) error {
	return c.JSON(http.StatusOK, CapabilitiesResponse{
		Service: "vision",
		Version: serviceVersion,
		Endpoints: []Endpoint{
			{Path: "/capture", Method: http.MethodPost, Description: "Capture screenshot", Params: []string{"region", "format"}},
			{Path: "/vision/ocr", Method: http.MethodPost, Description: "Extract text from screen", Params: []string{"region", "language"}},
			{Path: "/vision/describe", Method: http.MethodPost, Description: "Describe screen content using VLM", Params: []string{"region", "task", "include_ocr", "store_to_memory"}},
			{Path: "/vision/watch/start", Method: http.MethodPost, Description: "Start continuous screen monitoring", Params: []string{"interval_ms", "change_threshold", "run_ocr", "run_vlm", "task", "region"}},
			{Path: "/vision/watch/stop", Method: http.MethodPost, Description: "Stop screen monitoring"},
			{Path: "/vision/watch/status", Method: http.MethodGet, Description: "Get watch status"},
			{Path: "/vision/watch/events", Method: http.MethodGet, Description: "Stream watch events over websocket"},
		},
		Dependencies: map[string]string{
			"user-memory": h.memoryURL,
		},
	})
}
