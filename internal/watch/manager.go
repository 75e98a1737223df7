package watch

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/eleven-am/vision-service/internal/events"
	"github.com/eleven-am/vision-service/internal/fingerprint"
	"github.com/eleven-am/vision-service/internal/memory"
	"github.com/eleven-am/vision-service/internal/ocr"
	"github.com/eleven-am/vision-service/internal/shared"
)

// Manager owns the single watch session a process may run: it drives the
// capture/fingerprint/escalation loop on a background goroutine and guards
// the Running/Stopped state machine. Status queries never wait on a cycle in
// progress.
type Manager struct {
	capturer Capturer
	ocr      TextExtractor
	vlm      Describer
	sink     Sink
	hub      Publisher
	logger   *slog.Logger

	defaultIntervalMS int
	defaultThreshold  float64

	mu              sync.RWMutex
	running         bool
	cfg             Config
	cancel          context.CancelFunc
	done            chan struct{}
	cyclesRun       uint64
	changesDetected uint64
	lastChangeAt    *time.Time
	ocrDegraded     bool
	vlmDegraded     bool
}

type ManagerConfig struct {
	Capturer Capturer
	OCR      TextExtractor
	VLM      Describer
	Sink     Sink
	Hub      Publisher
	Logger   *slog.Logger

	DefaultIntervalMS      int
	DefaultChangeThreshold float64
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DefaultIntervalMS <= 0 {
		cfg.DefaultIntervalMS = 2000
	}
	if cfg.DefaultChangeThreshold <= 0 {
		cfg.DefaultChangeThreshold = 0.08
	}
	return &Manager{
		capturer:          cfg.Capturer,
		ocr:               cfg.OCR,
		vlm:               cfg.VLM,
		sink:              cfg.Sink,
		hub:               cfg.Hub,
		logger:            cfg.Logger.With("component", "watch"),
		defaultIntervalMS: cfg.DefaultIntervalMS,
		defaultThreshold:  cfg.DefaultChangeThreshold,
	}
}

// Start begins a new session. It fails with shared.ErrAlreadyRunning while a
// session is active; the existing session is left untouched.
func (m *Manager) Start(cfg Config) (Snapshot, error) {
	if cfg.IntervalMS == 0 {
		cfg.IntervalMS = m.defaultIntervalMS
	}
	if cfg.ChangeThreshold == 0 {
		cfg.ChangeThreshold = m.defaultThreshold
	}
	if err := cfg.validate(); err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return m.snapshotLocked(), shared.ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cfg = cfg
	m.cancel = cancel
	m.done = make(chan struct{})
	m.cyclesRun = 0
	m.changesDetected = 0
	m.lastChangeAt = nil
	m.ocrDegraded = false
	m.vlmDegraded = false

	go m.loop(ctx, cfg, m.done)

	m.logger.Info("watch started",
		"interval_ms", cfg.IntervalMS,
		"change_threshold", cfg.ChangeThreshold,
		"run_ocr", cfg.RunOCR,
		"run_vlm", cfg.RunVLM)

	return m.snapshotLocked(), nil
}

// Stop ends the session. A pending tick is cancelled immediately; a cycle
// already in flight is allowed to finish before Stop returns. Stopping a
// stopped manager is a no-op.
func (m *Manager) Stop() Snapshot {
	m.mu.Lock()
	if !m.running {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	<-done

	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.cancel = nil
	m.done = nil
	m.logger.Info("watch stopped", "cycles_run", m.cyclesRun)
	return m.snapshotLocked()
}

// Status returns a snapshot without mutating the session.
func (m *Manager) Status() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		Running:            m.running,
		IntervalMS:         m.cfg.IntervalMS,
		ChangeThreshold:    m.cfg.ChangeThreshold,
		VLMChangeThreshold: m.cfg.VLMChangeThreshold,
		RunOCR:             m.cfg.RunOCR,
		RunVLM:             m.cfg.RunVLM,
		Task:               m.cfg.Task,
		Region:             m.cfg.Region.Coords(),
		CyclesRun:          m.cyclesRun,
		ChangesDetected:    m.changesDetected,
		OCRDegraded:        m.ocrDegraded,
		VLMDegraded:        m.vlmDegraded,
	}
	if m.lastChangeAt != nil {
		t := *m.lastChangeAt
		snap.LastChangeAt = &t
	}
	if m.vlm != nil {
		snap.VLMDisabled = m.vlm.Disabled()
	}
	return snap
}

// loop runs the first cycle immediately, then on a fixed-rate ticker. Ticks
// that fire while a cycle is still running are dropped, so slow analysis
// never builds a backlog.
func (m *Manager) loop(ctx context.Context, cfg Config, done chan struct{}) {
	defer close(done)

	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last fingerprint.Fingerprint
	m.runCycle(ctx, cfg, &last)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runCycle(ctx, cfg, &last)
		}
	}
}

// runCycle performs one capture/fingerprint/escalate pass. Nothing that
// happens here may kill the loop: errors are logged and contained, panics
// recovered.
func (m *Manager) runCycle(ctx context.Context, cfg Config, last *fingerprint.Fingerprint) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("watch cycle panic", "panic", r)
		}
	}()

	if ctx.Err() != nil {
		return
	}

	img, err := m.capturer.Capture(ctx, cfg.Region)
	if err != nil {
		m.logger.Error("capture failed", "error", err)
		m.recordCycle(false)
		m.publish(events.EventError, map[string]any{"message": err.Error()})
		return
	}

	fp := fingerprint.Compute(img)
	first := *last == nil
	delta := fingerprint.Distance(*last, fp)
	changed := first || delta >= cfg.ChangeThreshold

	vlmThreshold := cfg.VLMChangeThreshold
	if vlmThreshold == 0 {
		vlmThreshold = cfg.ChangeThreshold
	}
	vlmWarranted := first || delta >= vlmThreshold

	// Always advance the baseline so slow continuous drift stays visible
	// and an already-reported change is not reprocessed every tick.
	*last = fp

	bounds := img.Bounds()
	now := time.Now()
	payload := map[string]any{
		"timestamp": now.UTC().Format(time.RFC3339Nano),
		"delta":     math.Round(delta*1e5) / 1e5,
		"changed":   changed,
		"width":     bounds.Dx(),
		"height":    bounds.Dy(),
	}
	if cfg.Region != nil {
		payload["region"] = cfg.Region.Coords()
	}

	var (
		ocrText     string
		description string
		analysisRan bool
	)

	if changed && cfg.RunOCR {
		items, err := m.ocr.ExtractText(ctx, img, "")
		if err != nil {
			m.logger.Error("ocr failed", "error", err)
			payload["ocr_error"] = err.Error()
			m.setOCRDegraded(!m.ocr.Available())
		} else {
			ocrText = ocr.Concat(items)
			payload["ocr"] = map[string]any{
				"items":  items,
				"concat": ocrText,
			}
			analysisRan = true
		}
	}

	if vlmWarranted && cfg.RunVLM {
		if m.vlm.Disabled() {
			payload["vlm_disabled"] = true
		} else {
			desc, err := m.vlm.Describe(ctx, img, cfg.Task)
			if err != nil {
				m.logger.Error("vlm failed", "error", err)
				payload["vlm_error"] = err.Error()
				m.setVLMDegraded(!m.vlm.Available())
			} else {
				description = desc
				payload["description"] = desc
				analysisRan = true
			}
		}
	}

	m.recordCycle(changed)

	m.publish(events.EventTick, payload)
	if changed {
		m.publish(events.EventChange, payload)
		m.logger.Debug("screen changed", "delta", delta)
	}

	if analysisRan {
		m.sink.Send(ctx, memory.Result{
			Description: description,
			OCRText:     ocrText,
			Changed:     changed,
			ChangeScore: delta,
			Timestamp:   now,
			Task:        cfg.Task,
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			Region:      cfg.Region.Coords(),
		})
	}
}

func (m *Manager) recordCycle(changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cyclesRun++
	if changed {
		m.changesDetected++
		now := time.Now()
		m.lastChangeAt = &now
	}
}

func (m *Manager) setOCRDegraded(degraded bool) {
	if !degraded {
		return
	}
	m.mu.Lock()
	m.ocrDegraded = true
	m.mu.Unlock()
}

func (m *Manager) setVLMDegraded(degraded bool) {
	if !degraded {
		return
	}
	m.mu.Lock()
	m.vlmDegraded = true
	m.mu.Unlock()
}

func (m *Manager) publish(eventType string, data map[string]any) {
	if m.hub == nil {
		return
	}
	m.hub.Broadcast(events.Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}
