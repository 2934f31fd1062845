package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/YildirimDemir/social-platform/internal/clients"
)

// RequireServiceToken guards internal endpoints against anything that is
// not a sibling service. The comparison is constant-time; an empty
// expected token locks the endpoint shut rather than leaving it open.
func RequireServiceToken(expected string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			presented := c.Request().Header.Get(clients.ServiceTokenHeader)
			if expected == "" || presented == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing_service_token"})
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid_service_token"})
			}
			return next(c)
		}
	}
}
