package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/YildirimDemir/social-platform/internal/clients"
)

func serveWithToken(t *testing.T, expected, presented string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.POST("/internal/authenticate", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireServiceToken(expected))

	req := httptest.NewRequest(http.MethodPost, "/internal/authenticate", nil)
	if presented != "" {
		req.Header.Set(clients.ServiceTokenHeader, presented)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireServiceToken(t *testing.T) {
	assert.Equal(t, http.StatusOK, serveWithToken(t, "secret", "secret").Code)
	assert.Equal(t, http.StatusUnauthorized, serveWithToken(t, "secret", "").Code)
	assert.Equal(t, http.StatusForbidden, serveWithToken(t, "secret", "wrong").Code)
}

func TestRequireServiceTokenEmptyExpectedLocksShut(t *testing.T) {
	// A deployment that forgot to configure the shared token must not
	// leave the internal endpoint open.
	assert.Equal(t, http.StatusUnauthorized, serveWithToken(t, "", "anything").Code)
}
