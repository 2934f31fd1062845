// Package clients holds the service-to-service RPC clients. Calls travel
// over plain HTTP+JSON on the internal network and carry a shared service
// token; the callee rejects anything without it.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YildirimDemir/social-platform/internal/model"
)

// ServiceTokenHeader authenticates internal callers to one another.
const ServiceTokenHeader = "X-Service-Token"

// ErrUnauthorized is returned when the identity service rejects the
// presented credential. Transport failures are returned as-is so the gate
// can treat them as denial without conflating them with a bad token.
var ErrUnauthorized = errors.New("identity: credential rejected")

// IdentityClient is the point-to-point RPC client for the identity
// service's authenticate endpoint. It satisfies authgate.Authenticator.
type IdentityClient struct {
	baseURL      string
	serviceToken string
	http         *http.Client
}

func NewIdentityClient(baseURL, serviceToken string, timeout time.Duration) *IdentityClient {
	return &IdentityClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: serviceToken,
		http:         &http.Client{Timeout: timeout},
	}
}

type authenticateRequest struct {
	Authentication string `json:"authentication"`
}

// Authenticate resolves a raw bearer credential to its account by calling
// the identity service. The caller's context bounds the round trip.
func (c *IdentityClient) Authenticate(ctx context.Context, credential string) (model.PublicAccount, error) {
	body, err := json.Marshal(authenticateRequest{Authentication: credential})
	if err != nil {
		return model.PublicAccount{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/internal/authenticate", bytes.NewReader(body))
	if err != nil {
		return model.PublicAccount{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ServiceTokenHeader, c.serviceToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.PublicAccount{}, fmt.Errorf("identity rpc: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var account model.PublicAccount
		if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
			return model.PublicAccount{}, fmt.Errorf("identity rpc: decode: %w", err)
		}
		return account, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return model.PublicAccount{}, ErrUnauthorized
	default:
		return model.PublicAccount{}, fmt.Errorf("identity rpc: unexpected status %d", resp.StatusCode)
	}
}
