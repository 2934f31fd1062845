package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/YildirimDemir/social-platform/internal/authgate"
	"github.com/YildirimDemir/social-platform/internal/handler"
)

// RegisterRoutes wires the gateway surface: health, the graph endpoint
// and a gate-protected plain HTTP route for the HTTPCall shape.
func RegisterRoutes(e *echo.Echo, gate *authgate.Gate) {
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: false,
	}))

	e.GET("/healthz", handler.Health)

	g := NewGraphHandler(gate)
	e.POST("/graph", g.Serve)

	protected := e.Group("/v1")
	protected.Use(authgate.Middleware(gate))
	protected.GET("/whoami", func(c echo.Context) error {
		account, ok := authgate.AccountFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusOK, account)
	})
}
