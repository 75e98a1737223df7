package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eleven-am/vision-service/internal/shared"
)

// Middleware checks the static service API key on protected routes. When no
// key is configured the check is skipped entirely, which is the expected
// local development setup.
type Middleware struct {
	apiKey string
}

func NewMiddleware(apiKey string) *Middleware {
	return &Middleware{apiKey: apiKey}
}

func (m *Middleware) Enabled() bool {
	return m.apiKey != ""
}

// RequireAPIKey accepts the key as either a bearer token or an x-api-key
// header.
func (m *Middleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.apiKey == "" {
			return next(c)
		}

		if key, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer "); ok {
			if subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1 {
				return next(c)
			}
		}

		if key := c.Request().Header.Get("x-api-key"); key != "" {
			if subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1 {
				return next(c)
			}
		}

		return shared.Unauthorized("invalid_api_key", "invalid or missing API key")
	}
}
