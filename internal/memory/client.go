// Package memory forwards analysis results to the external user-memory
// service, which embeds and stores them. Results are advisory: delivery
// failures are logged and the result is dropped, never surfaced to the
// watch loop.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Result is the outcome of one analysis pass, transient by design: it is
// handed to the memory service and then discarded.
type Result struct {
	Description string
	OCRText     string
	Changed     bool
	ChangeScore float64
	Timestamp   time.Time
	Task        string
	Width       int
	Height      int
	Region      []int
}

type storePayload struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     logger.With("component", "memory"),
	}
}

func (r Result) content() string {
	content := r.Description
	if r.OCRText != "" {
		if content != "" {
			content += "\n\n"
		}
		content += "Extracted text: " + r.OCRText
	}
	return content
}

func (r Result) metadata() map[string]any {
	md := map[string]any{
		"type":            "screen_capture",
		"source":          "vision-service",
		"width":           r.Width,
		"height":          r.Height,
		"change_score":    r.ChangeScore,
		"changed":         r.Changed,
		"captured_at":     r.Timestamp.UTC().Format(time.RFC3339),
		"has_ocr":         r.OCRText != "",
		"has_description": r.Description != "",
	}
	if r.Region != nil {
		md["region"] = r.Region
	}
	if r.Task != "" {
		md["task"] = r.Task
	}
	return md
}

// Store delivers one result and reports delivery failure to the caller, for
// surfaces that flag storage status in their response.
func (c *Client) Store(ctx context.Context, r Result) error {
	content := r.content()
	if content == "" {
		return fmt.Errorf("empty result content")
	}

	body, err := json.Marshal(storePayload{Content: content, Metadata: r.metadata()})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/memory/store", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("memory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("memory service returned status %d", resp.StatusCode)
	}
	return nil
}

// Send is the fire-and-forget path used by the watch loop: one retry, then
// the result is dropped with a logged warning.
func (c *Client) Send(ctx context.Context, r Result) {
	err := c.Store(ctx, r)
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}

	if err = c.Store(ctx, r); err != nil {
		c.logger.Warn("dropping analysis result", "error", err)
		return
	}
}
