package capture

import (
	"context"
	"testing"
	"time"
)

// Capture tests need an attached display; they skip on headless CI.
func testService(t *testing.T) *Service {
	t.Helper()
	s := NewService(2*time.Second, nil)
	if !s.Available() {
		t.Skip("no active display")
	}
	return s
}

func TestService_CaptureFullScreen(t *testing.T) {
	s := testService(t)

	img, err := s.Capture(context.Background(), nil)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		t.Errorf("empty frame %v", img.Bounds())
	}
}

func TestService_CaptureRegion(t *testing.T) {
	s := testService(t)

	img, err := s.Capture(context.Background(), &Region{X: 0, Y: 0, Width: 100, Height: 80})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 80 {
		t.Errorf("expected 100x80 frame, got %v", img.Bounds())
	}
}

func TestService_CaptureInvalidRegion(t *testing.T) {
	s := NewService(time.Second, nil)

	if _, err := s.Capture(context.Background(), &Region{Width: -1, Height: 10}); err == nil {
		t.Error("invalid region must be rejected before touching the display")
	}
}

func TestService_CancelledContext(t *testing.T) {
	s := testService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Capture(ctx, nil); err == nil {
		t.Error("cancelled context should abort the capture")
	}
}
