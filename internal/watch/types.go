package watch

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/eleven-am/vision-service/internal/capture"
	"github.com/eleven-am/vision-service/internal/events"
	"github.com/eleven-am/vision-service/internal/memory"
	"github.com/eleven-am/vision-service/internal/ocr"
)

// Capturer grabs one frame of the watched region.
type Capturer interface {
	Capture(ctx context.Context, region *capture.Region) (*image.RGBA, error)
}

// TextExtractor is the OCR escalation tier.
type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image, languageHint string) ([]ocr.Item, error)
	Available() bool
}

// Describer is the VLM escalation tier.
type Describer interface {
	Describe(ctx context.Context, img image.Image, task string) (string, error)
	Disabled() bool
	Available() bool
}

// Sink receives analysis results; delivery is advisory.
type Sink interface {
	Send(ctx context.Context, r memory.Result)
}

// Publisher receives tick/change/error events from the loop.
type Publisher interface {
	Broadcast(ev events.Event)
}

// Config describes one watch session. Zero interval and thresholds fall back
// to the manager defaults.
type Config struct {
	IntervalMS      int
	ChangeThreshold float64
	// VLMChangeThreshold optionally demands a larger change before the VLM
	// tier runs. Zero means "same threshold as OCR".
	VLMChangeThreshold float64
	RunOCR             bool
	RunVLM             bool
	Task               string
	Region             *capture.Region
}

func (c Config) validate() error {
	if c.IntervalMS <= 0 {
		return fmt.Errorf("interval_ms must be positive, got %d", c.IntervalMS)
	}
	if c.ChangeThreshold <= 0 || c.ChangeThreshold > 1 {
		return fmt.Errorf("change_threshold must be in (0,1], got %g", c.ChangeThreshold)
	}
	if c.VLMChangeThreshold < 0 || c.VLMChangeThreshold > 1 {
		return fmt.Errorf("vlm_change_threshold must be in [0,1], got %g", c.VLMChangeThreshold)
	}
	if err := c.Region.Validate(); err != nil {
		return err
	}
	return nil
}

// Snapshot is a point-in-time view of the watch session, safe to read while
// a cycle is in flight.
type Snapshot struct {
	Running            bool       `json:"running"`
	IntervalMS         int        `json:"interval_ms"`
	ChangeThreshold    float64    `json:"change_threshold"`
	VLMChangeThreshold float64    `json:"vlm_change_threshold,omitempty"`
	RunOCR             bool       `json:"run_ocr"`
	RunVLM             bool       `json:"run_vlm"`
	Task               string     `json:"task,omitempty"`
	Region             []int      `json:"region,omitempty"`
	CyclesRun          uint64     `json:"cycles_run"`
	ChangesDetected    uint64     `json:"changes_detected"`
	LastChangeAt       *time.Time `json:"last_change_at,omitempty"`
	VLMDisabled        bool       `json:"vlm_disabled,omitempty"`
	OCRDegraded        bool       `json:"ocr_degraded,omitempty"`
	VLMDegraded        bool       `json:"vlm_degraded,omitempty"`
}
