// Package router wires the identity service's HTTP surface onto an Echo
// instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/YildirimDemir/social-platform/internal/authgate"
	"github.com/YildirimDemir/social-platform/internal/config"
	"github.com/YildirimDemir/social-platform/internal/handler"
	"github.com/YildirimDemir/social-platform/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the full authentication surface. Unauthenticated
// flows live under /v1/auth, session-bound endpoints under /v1 behind the
// gate, and the sibling-service RPC under /internal behind the shared
// service token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, gate *authgate.Gate, cfg config.Config, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1/auth")
	// The code endpoints are the cheapest way to make us send email, so
	// they sit behind the token bucket.
	g.POST("/send-verification", a.SendVerification, limiter)
	g.POST("/verify-email", a.VerifyEmail, limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(authgate.Middleware(gate))
	auth.GET("/me", a.Me)
	auth.DELETE("/me", a.DeleteMe)

	internal := e.Group("/internal")
	internal.Use(middleware.RequireServiceToken(cfg.ServiceAuthToken))
	internal.POST("/authenticate", a.Authenticate)
}
