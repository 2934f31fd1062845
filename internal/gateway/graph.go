// Package gateway is the edge service surface. It resolves identities
// through the identity service RPC and demonstrates the gate on both
// plain HTTP routes and the graph-query endpoint.
package gateway

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/YildirimDemir/social-platform/internal/authgate"
)

// graphRequest is the operation envelope accepted by POST /graph. It is
// deliberately not a full GraphQL document; a named operation with an
// optional variables bag is enough for the edge resolvers we expose.
type graphRequest struct {
	Operation string                 `json:"operation"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphResponse struct {
	Data   interface{} `json:"data,omitempty"`
	Errors []string    `json:"errors,omitempty"`
}

// GraphHandler dispatches graph operations. Operations that need an
// identity authorize through the gate using the GraphCall shape, since
// the envelope arrives over POST and carries no echo-bound credential.
type GraphHandler struct {
	Gate *authgate.Gate
}

func NewGraphHandler(gate *authgate.Gate) *GraphHandler {
	return &GraphHandler{Gate: gate}
}

func (h *GraphHandler) Serve(c echo.Context) error {
	var req graphRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, graphResponse{Errors: []string{"invalid body"}})
	}

	switch req.Operation {
	case "me":
		return h.me(c)
	case "health":
		return c.JSON(http.StatusOK, graphResponse{Data: echo.Map{"status": "ok"}})
	default:
		return c.JSON(http.StatusBadRequest, graphResponse{Errors: []string{"unknown operation"}})
	}
}

// me resolves the calling identity. Headers and cookies are lifted off
// the transport request into a GraphCall, the shape sibling resolvers
// would receive once detached from net/http.
func (h *GraphHandler) me(c echo.Context) error {
	call := authgate.GraphCall{
		Headers: c.Request().Header,
		Cookies: c.Request().Cookies(),
	}

	account, err := h.Gate.Authorize(c.Request().Context(), call)
	if err != nil {
		if errors.Is(err, authgate.ErrAccessDenied) {
			return c.JSON(http.StatusUnauthorized, graphResponse{Errors: []string{"access denied"}})
		}
		return c.JSON(http.StatusInternalServerError, graphResponse{Errors: []string{"server error"}})
	}
	return c.JSON(http.StatusOK, graphResponse{Data: echo.Map{"me": account}})
}
