package capture

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func captureRequest(t *testing.T, body string) error {
	t.Helper()
	h := NewHandler(NewService(time.Second, nil), nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/capture", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return h.Capture(e.NewContext(req, rec))
}

func TestCapture_InvalidRegion(t *testing.T) {
	cases := []string{
		`{"region": [1, 2]}`,
		`{"region": [-1, 0, 100, 100]}`,
		`{"region": [0, 0, 0, 100]}`,
	}
	for _, body := range cases {
		err := captureRequest(t, body)
		httpErr, ok := err.(*echo.HTTPError)
		if !ok {
			t.Errorf("body %s: expected *echo.HTTPError, got %v", body, err)
			continue
		}
		if httpErr.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, httpErr.Code)
		}
	}
}

func TestCapture_InvalidBody(t *testing.T) {
	err := captureRequest(t, `{"region": "whole screen"}`)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}
