package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestHandle_States(t *testing.T) {
	h := NewHandle("test", func(ctx context.Context) error { return nil }, nil)

	if h.State() != StateUnloaded {
		t.Errorf("expected unloaded before first use, got %s", h.State())
	}

	if err := h.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if h.State() != StateReady {
		t.Errorf("expected ready after load, got %s", h.State())
	}
}

func TestHandle_SingleFlight(t *testing.T) {
	var loads int32
	h := NewHandle("test", func(ctx context.Context) error {
		atomic.AddInt32(&loads, 1)
		time.Sleep(50 * time.Millisecond)
		return nil
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.Ensure(context.Background()); err != nil {
				t.Errorf("Ensure failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("expected exactly one load attempt, got %d", n)
	}
}

func TestHandle_FailedShortCircuits(t *testing.T) {
	loadErr := errors.New("model asset missing")
	var loads int32
	h := NewHandle("test", func(ctx context.Context) error {
		atomic.AddInt32(&loads, 1)
		return loadErr
	}, nil)

	if err := h.Ensure(context.Background()); !errors.Is(err, loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
	if h.State() != StateFailed {
		t.Errorf("expected failed state, got %s", h.State())
	}

	for i := 0; i < 5; i++ {
		if err := h.Ensure(context.Background()); !errors.Is(err, loadErr) {
			t.Errorf("expected cached load error, got %v", err)
		}
	}
	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("failed engine must not retry on Ensure, got %d loads", n)
	}
	if !errors.Is(h.Err(), loadErr) {
		t.Errorf("Err should return the load error, got %v", h.Err())
	}
}

func TestHandle_ReloadAfterFailure(t *testing.T) {
	var loads int32
	h := NewHandle("test", func(ctx context.Context) error {
		if atomic.AddInt32(&loads, 1) == 1 {
			return errors.New("transient failure")
		}
		return nil
	}, nil)

	if err := h.Ensure(context.Background()); err == nil {
		t.Fatal("expected first load to fail")
	}
	if err := h.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if h.State() != StateReady {
		t.Errorf("expected ready after reload, got %s", h.State())
	}
	if h.Err() != nil {
		t.Errorf("expected nil error after successful reload, got %v", h.Err())
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateUnloaded: "unloaded",
		StateLoading:  "loading",
		StateReady:    "ready",
		StateFailed:   "failed",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
