// Package authgate is the per-call interceptor every service puts in
// front of protected operations. It extracts a bearer credential from the
// inbound call, resolves it to an identity through the identity service's
// authenticate RPC, enforces optional role requirements, and attaches the
// resolved identity to the call. Every failure path denies access; there
// is no anonymous fallthrough.
package authgate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YildirimDemir/social-platform/internal/model"
)

// CookieName is the cookie carrying the session token.
const CookieName = "Authentication"

// ErrAccessDenied is the single outcome for every authorization failure:
// missing credential, failed token resolution, vanished account, RPC
// error or timeout, missing role. Callers see one denial, logs see the
// wrapped cause.
var ErrAccessDenied = errors.New("access denied")

// Authenticator resolves a raw bearer credential to a password-stripped
// account. In-process it is the identity service itself; across the
// network it is the RPC client in internal/clients.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (model.PublicAccount, error)
}

// CallContext is the tagged union over the two call shapes the gate
// authorizes. Business logic never learns which transport a request
// arrived through.
type CallContext interface {
	credential() string
}

// HTTPCall is a direct HTTP invocation.
type HTTPCall struct {
	Request *http.Request
}

// GraphCall is a graph-query invocation: by the time a resolver runs, only
// the transport headers and cookies of the originating request remain.
type GraphCall struct {
	Headers http.Header
	Cookies []*http.Cookie
}

func (c HTTPCall) credential() string {
	if c.Request == nil {
		return ""
	}
	if tok := bearerToken(c.Request.Header.Get("Authorization")); tok != "" {
		return tok
	}
	if cookie, err := c.Request.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimSpace(c.Request.Header.Get(CookieName))
}

func (c GraphCall) credential() string {
	if tok := bearerToken(c.Headers.Get("Authorization")); tok != "" {
		return tok
	}
	for _, cookie := range c.Cookies {
		if cookie != nil && cookie.Name == CookieName && cookie.Value != "" {
			return cookie.Value
		}
	}
	return strings.TrimSpace(c.Headers.Get(CookieName))
}

// Gate authorizes calls against an Authenticator, optionally requiring a
// set of role names. Gates are immutable; WithRoles derives a stricter one.
type Gate struct {
	auth    Authenticator
	roles   []string
	timeout time.Duration
}

// New builds a gate with no role requirement and a default RPC timeout.
func New(auth Authenticator) *Gate {
	return &Gate{auth: auth, timeout: 5 * time.Second}
}

// WithRoles derives a gate that additionally requires every named role.
func (g *Gate) WithRoles(roles ...string) *Gate {
	derived := *g
	derived.roles = append(append([]string(nil), g.roles...), roles...)
	return &derived
}

// WithTimeout derives a gate with a different RPC timeout.
func (g *Gate) WithTimeout(d time.Duration) *Gate {
	derived := *g
	derived.timeout = d
	return &derived
}

// Authorize runs the full check: extract credential, resolve identity,
// enforce roles. The returned account is only valid when err is nil;
// identity is never partially attached.
func (g *Gate) Authorize(ctx context.Context, call CallContext) (model.PublicAccount, error) {
	credential := call.credential()
	if credential == "" {
		return model.PublicAccount{}, fmt.Errorf("%w: no credential", ErrAccessDenied)
	}

	rpcCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	account, err := g.auth.Authenticate(rpcCtx, credential)
	if err != nil {
		return model.PublicAccount{}, fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}

	for _, role := range g.roles {
		if !account.HasRole(role) {
			return model.PublicAccount{}, fmt.Errorf("%w: missing role %q", ErrAccessDenied, role)
		}
	}
	return account, nil
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
