package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runRequest(t *testing.T, m *Middleware, configure func(*http.Request)) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if configure != nil {
		configure(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.RequireAPIKey(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return rec, handler(c)
}

func TestMiddleware_DisabledWhenNoKey(t *testing.T) {
	m := NewMiddleware("")
	if m.Enabled() {
		t.Error("middleware without a key must report disabled")
	}

	rec, err := runRequest(t, m, nil)
	if err != nil {
		t.Fatalf("expected pass-through, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMiddleware_BearerToken(t *testing.T) {
	m := NewMiddleware("secret-key")

	if _, err := runRequest(t, m, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer secret-key")
	}); err != nil {
		t.Errorf("valid bearer token rejected: %v", err)
	}

	if _, err := runRequest(t, m, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer wrong-key")
	}); err == nil {
		t.Error("wrong bearer token must be rejected")
	}
}

func TestMiddleware_APIKeyHeader(t *testing.T) {
	m := NewMiddleware("secret-key")

	if _, err := runRequest(t, m, func(r *http.Request) {
		r.Header.Set("x-api-key", "secret-key")
	}); err != nil {
		t.Errorf("valid x-api-key rejected: %v", err)
	}

	if _, err := runRequest(t, m, func(r *http.Request) {
		r.Header.Set("x-api-key", "wrong-key")
	}); err == nil {
		t.Error("wrong x-api-key must be rejected")
	}
}

func TestMiddleware_MissingCredentials(t *testing.T) {
	m := NewMiddleware("secret-key")

	_, err := runRequest(t, m, nil)
	if err == nil {
		t.Fatal("request without credentials must be rejected")
	}

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}
