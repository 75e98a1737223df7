package describe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eleven-am/vision-service/internal/engine"
)

// ErrDisabled is returned when the operator has turned the VLM off by
// configuration; callers report it as graceful degradation rather than a
// failure.
var ErrDisabled = errors.New("vlm disabled by configuration")

const defaultPrompt = "Describe this desktop screenshot in detail. Identify applications, windows, dialogs, errors, and actionable buttons or elements."

type Config struct {
	Enabled   bool
	BaseURL   string
	Model     string
	Device    string // auto, cpu, or accelerated
	MaxTokens int
	KeepAlive time.Duration
	Timeout   time.Duration
}

// Engine generates scene descriptions through an Ollama-served vision model.
// Loading means verifying the model is present and warming it into memory,
// which can take tens of seconds; the load runs once, lazily, and a failed
// load disables the engine for the rest of the process.
type Engine struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	handle     *engine.Handle
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 256
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("component", "vlm"),
	}
	e.handle = engine.NewHandle("vlm", e.load, logger)
	return e
}

type generateRequest struct {
	Model     string         `json:"model"`
	Prompt    string         `json:"prompt"`
	Images    []string       `json:"images,omitempty"`
	Stream    bool           `json:"stream"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (e *Engine) options() map[string]any {
	opts := map[string]any{"num_predict": e.cfg.MaxTokens}
	if e.cfg.Device == "cpu" {
		opts["num_gpu"] = 0
	}
	return opts
}

// load checks the model is available and issues an empty generate call so
// the weights are resident before the first real request.
func (e *Engine) load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}

	found := false
	for _, m := range tags.Models {
		if m.Name == e.cfg.Model || strings.SplitN(m.Name, ":", 2)[0] == e.cfg.Model {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("model %q not available", e.cfg.Model)
	}

	e.logger.Info("warming model", "model", e.cfg.Model, "device", e.cfg.Device)
	_, err = e.generate(ctx, generateRequest{
		Model:     e.cfg.Model,
		KeepAlive: e.cfg.KeepAlive.String(),
		Options:   e.options(),
	})
	if err != nil {
		return fmt.Errorf("warm up: %w", err)
	}
	return nil
}

func (e *Engine) generate(ctx context.Context, genReq generateRequest) (string, error) {
	body, err := json.Marshal(genReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return genResp.Response, nil
}

// Disabled reports whether the operator turned the VLM off. Distinct from a
// failed load: disabled is a configuration choice, failed is a runtime fact.
func (e *Engine) Disabled() bool {
	return !e.cfg.Enabled
}

// Available is true when the engine is enabled and has not failed to load.
func (e *Engine) Available() bool {
	return e.cfg.Enabled && e.handle.State() != engine.StateFailed
}

func (e *Engine) State() engine.State {
	return e.handle.State()
}

// Describe generates a natural-language description of the frame. The
// optional task biases the description toward the caller's stated focus.
func (e *Engine) Describe(ctx context.Context, img image.Image, task string) (string, error) {
	if e.Disabled() {
		return "", ErrDisabled
	}
	if err := e.handle.Ensure(ctx); err != nil {
		return "", fmt.Errorf("vlm engine not ready: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}

	prompt := defaultPrompt
	if task != "" {
		prompt += "\n\nFocus: " + task
	}

	description, err := e.generate(ctx, generateRequest{
		Model:     e.cfg.Model,
		Prompt:    prompt,
		Images:    []string{base64.StdEncoding.EncodeToString(buf.Bytes())},
		KeepAlive: e.cfg.KeepAlive.String(),
		Options:   e.options(),
	})
	if err != nil {
		return "", err
	}

	e.logger.Debug("generated description", "length", len(description))
	return description, nil
}
