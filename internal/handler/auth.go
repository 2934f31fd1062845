package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/YildirimDemir/social-platform/internal/authgate"
	"github.com/YildirimDemir/social-platform/internal/config"
	"github.com/YildirimDemir/social-platform/internal/identity"
)

// AuthHandler bundles dependencies for the identity service endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Ident *identity.Service
}

func NewAuthHandler(cfg config.Config, ident *identity.Service) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Ident: ident}
}

// ----- DTOs -----

type sendVerificationReq struct {
	Email string `json:"email"`
}
type verifyEmailReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SendVerification issues a fresh verification code for an unregistered
// email. Re-requesting invalidates any earlier code.
func (h *AuthHandler) SendVerification(c echo.Context) error {
	var req sendVerificationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Ident.SendVerificationCode(ctx, req.Email); err != nil {
		return writeIdentityError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent"})
}

// VerifyEmail exchanges a live code for a verified-email marker.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Ident.VerifyEmailCode(ctx, req.Email, req.Code); err != nil {
		return writeIdentityError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// Register creates the account once the email holds a live verified
// marker.
func (h *AuthHandler) Register(c echo.Context) error {
	var req identity.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	account, err := h.Ident.Register(ctx, req)
	if err != nil {
		return writeIdentityError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered",
		"user":    account,
	})
}

// Login verifies credentials, issues a session token and mirrors it into
// the Authentication cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	result, err := h.Ident.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeIdentityError(c, err)
	}

	c.SetCookie(h.sessionCookie(result.Token.Value, result.Token.ExpiresAt))
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "login successful",
		"accessToken": result.Token.Value,
		"expiresAt":   result.Token.ExpiresAt.UTC().Format(time.RFC3339),
		"user":        result.Account,
	})
}

// Logout clears the Authentication cookie. The token itself stays valid
// until natural expiry; there is no server-side deny-list.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}

// Me returns the identity the gate attached to this request.
func (h *AuthHandler) Me(c echo.Context) error {
	account, ok := authgate.AccountFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, account)
}

// DeleteMe removes the calling account and clears its cookie.
func (h *AuthHandler) DeleteMe(c echo.Context) error {
	account, ok := authgate.AccountFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Ident.DeleteAccount(ctx, account.ID, account.Email); err != nil {
		return writeIdentityError(c, err)
	}
	c.SetCookie(h.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}

type authenticateReq struct {
	Authentication string `json:"authentication"`
}

// Authenticate is the RPC entry point for sibling services' gates. It is
// registered behind the service-token middleware, never exposed publicly.
func (h *AuthHandler) Authenticate(c echo.Context) error {
	var req authenticateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	account, err := h.Ident.Authenticate(ctx, req.Authentication)
	if err != nil {
		return writeIdentityError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     authgate.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: sameSite(h.Cfg.CookieSameSite),
	}
}

func sameSite(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// writeIdentityError maps the identity error taxonomy onto HTTP statuses.
// All credential and token failures collapse into one 401 body.
func writeIdentityError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, identity.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already registered"})
	case errors.Is(err, identity.ErrNotVerified):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email not verified"})
	case errors.Is(err, identity.ErrCodeInvalid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired verification code"})
	case errors.Is(err, identity.ErrPasswordMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	case errors.Is(err, identity.ErrBadRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrUnauthenticated),
		errors.Is(err, identity.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, identity.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
}
