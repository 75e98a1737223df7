package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"time"

	"github.com/kbinani/screenshot"
)

var ErrNoDisplay = errors.New("no active display")

// Service grabs bitmaps from the local display. Frames live in memory only;
// nothing is ever written to disk.
type Service struct {
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(timeout time.Duration, logger *slog.Logger) *Service {
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		timeout: timeout,
		logger:  logger.With("component", "capture"),
	}
}

// Available reports whether at least one display can be captured.
func (s *Service) Available() bool {
	return screenshot.NumActiveDisplays() > 0
}

// Capture grabs the given region, or the entire primary display when region
// is nil. The grab runs under a short timeout since a wedged display server
// would otherwise hang the caller indefinitely.
func (s *Service) Capture(ctx context.Context, region *Region) (*image.RGBA, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if screenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoDisplay
	}

	var bounds image.Rectangle
	if region != nil {
		bounds = region.Rect()
	} else {
		bounds = screenshot.GetDisplayBounds(0)
	}

	type grabResult struct {
		img *image.RGBA
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan grabResult, 1)
	go func() {
		img, err := screenshot.CaptureRect(bounds)
		done <- grabResult{img: img, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("capture %v: %w", bounds, res.err)
		}
		return res.img, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("capture %v: %w", bounds, ctx.Err())
	}
}

// EncodePNG renders a frame as a base64 PNG string for the wire.
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
