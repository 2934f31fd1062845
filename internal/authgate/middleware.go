package authgate

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/YildirimDemir/social-platform/internal/model"
)

// accountContextKey carries the resolved identity in a request context so
// code below the HTTP layer can read it without knowing about echo.
type accountContextKey struct{}

const accountEchoKey = "account"

// Middleware returns an echo middleware that authorizes each request
// through the gate and attaches the resolved account to both the echo
// context and the request context. Denials become 401 responses without
// detail about which check failed.
func Middleware(g *Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, err := g.Authorize(c.Request().Context(), HTTPCall{Request: c.Request()})
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set(accountEchoKey, account)
			ctx := WithAccount(c.Request().Context(), account)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// AccountFrom returns the account attached by Middleware.
func AccountFrom(c echo.Context) (model.PublicAccount, bool) {
	account, ok := c.Get(accountEchoKey).(model.PublicAccount)
	return account, ok
}

// WithAccount attaches a resolved identity to a plain context.
func WithAccount(ctx context.Context, account model.PublicAccount) context.Context {
	return context.WithValue(ctx, accountContextKey{}, account)
}

// AccountFromContext reads the identity attached by WithAccount.
func AccountFromContext(ctx context.Context) (model.PublicAccount, bool) {
	account, ok := ctx.Value(accountContextKey{}).(model.PublicAccount)
	return account, ok
}
