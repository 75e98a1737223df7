// Package engine provides the lazy-loading lifecycle shared by the OCR and
// scene description engines: load once on first use, collapse concurrent
// loads into a single attempt, and short-circuit after a failed load instead
// of paying the load cost again on every request.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle wraps an expensive one-time load. Concurrent Ensure calls during
// loading wait on the same in-flight attempt.
type Handle struct {
	name   string
	load   func(context.Context) error
	logger *slog.Logger

	mu      sync.RWMutex
	state   State
	loadErr error

	group singleflight.Group
}

func NewHandle(name string, load func(context.Context) error, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		name:   name,
		load:   load,
		logger: logger.With("engine", name),
	}
}

func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Err returns the load error after a failed load, nil otherwise.
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadErr
}

// Ensure loads the engine if needed, blocking until the load resolves. Once
// a load has failed every subsequent call returns the same error without
// retrying; use Reload to attempt recovery explicitly.
func (h *Handle) Ensure(ctx context.Context) error {
	h.mu.RLock()
	switch h.state {
	case StateReady:
		h.mu.RUnlock()
		return nil
	case StateFailed:
		err := h.loadErr
		h.mu.RUnlock()
		return err
	}
	h.mu.RUnlock()

	_, err, _ := h.group.Do("load", func() (any, error) {
		h.mu.Lock()
		if h.state == StateReady {
			h.mu.Unlock()
			return nil, nil
		}
		if h.state == StateFailed {
			err := h.loadErr
			h.mu.Unlock()
			return nil, err
		}
		h.state = StateLoading
		h.mu.Unlock()

		h.logger.Info("loading engine")
		err := h.load(ctx)

		h.mu.Lock()
		if err != nil {
			h.state = StateFailed
			h.loadErr = err
			h.logger.Error("engine load failed", "error", err)
		} else {
			h.state = StateReady
			h.loadErr = nil
			h.logger.Info("engine ready")
		}
		h.mu.Unlock()
		return nil, err
	})
	return err
}

// Reload clears a failed state and attempts the load again.
func (h *Handle) Reload(ctx context.Context) error {
	h.mu.Lock()
	if h.state == StateFailed {
		h.state = StateUnloaded
		h.loadErr = nil
	}
	h.mu.Unlock()
	return h.Ensure(ctx)
}
