package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/eleven-am/vision-service/internal/engine"
)

// Item is one detected line of text with its screen-space bounding box and a
// confidence score normalized to [0,1].
type Item struct {
	Text       string  `json:"text"`
	BBox       [4]int  `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// Concat joins detected items into a single string, the shape the memory
// service and the VLM fallback path consume.
func Concat(items []Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if it.Text != "" {
			parts = append(parts, it.Text)
		}
	}
	return strings.Join(parts, " ")
}

type Config struct {
	Language string
}

// client is the slice of the gosseract API the engine uses, split out so the
// lifecycle can be tested without a Tesseract install.
type client interface {
	SetLanguage(langs ...string) error
	SetImageFromBytes(data []byte) error
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

// Engine extracts text from frames via Tesseract. The underlying client is
// not safe for concurrent use, so calls are serialized; model data loads
// lazily on first use.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	handle *engine.Handle

	mu        sync.Mutex
	client    client
	newClient func() client
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger.With("component", "ocr"),
		newClient: func() client {
			return gosseract.NewClient()
		},
	}
	e.handle = engine.NewHandle("ocr", e.load, logger)
	return e
}

func (e *Engine) load(_ context.Context) error {
	c := e.newClient()
	if err := c.SetLanguage(e.cfg.Language); err != nil {
		c.Close()
		return fmt.Errorf("set language %q: %w", e.cfg.Language, err)
	}

	e.mu.Lock()
	e.client = c
	e.mu.Unlock()
	return nil
}

// Available reports whether the engine can still serve requests. It stays
// true before the first (lazy) load and flips false only after a load fails.
func (e *Engine) Available() bool {
	return e.handle.State() != engine.StateFailed
}

func (e *Engine) State() engine.State {
	return e.handle.State()
}

// ExtractText runs OCR on the frame. The first call blocks on the one-time
// model load; languageHint overrides the configured language for this call
// only.
func (e *Engine) ExtractText(ctx context.Context, img image.Image, languageHint string) ([]Item, error) {
	if err := e.handle.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("ocr engine not ready: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if languageHint != "" && languageHint != e.cfg.Language {
		if err := e.client.SetLanguage(languageHint); err != nil {
			return nil, fmt.Errorf("set language %q: %w", languageHint, err)
		}
		defer e.client.SetLanguage(e.cfg.Language)
	}

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	items := make([]Item, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		items = append(items, Item{
			Text:       text,
			BBox:       [4]int{b.Box.Min.X, b.Box.Min.Y, b.Box.Max.X, b.Box.Max.Y},
			Confidence: b.Confidence / 100.0,
		})
	}

	e.logger.Debug("extracted text", "items", len(items))
	return items, nil
}

// Close releases the Tesseract client if one was loaded.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}
