package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fraudlens/transaction-intake/pkg/utils"
	"go.uber.org/zap"
)

// Verifier checks whether a user identifier is valid/active with the
// external Identity Provider. The lookup is best effort: an unreachable
// provider must never block transaction intake.
type Verifier interface {
	// Verify returns (valid, err). err is non-nil only when the provider
	// could not be consulted; callers fail open in that case.
	Verify(ctx context.Context, userID string) (bool, error)
}

type httpVerifier struct {
	logger  *zap.Logger
	baseURL string
	client  *http.Client
}

// NewHTTPVerifier builds a Verifier against the Identity Provider's
// GET /api/auth/users/{id}/verify/ endpoint.
func NewHTTPVerifier(logger *zap.Logger, baseURL string, timeout time.Duration) Verifier {
	return &httpVerifier{
		logger:  logger,
		baseURL: baseURL,
		client:  utils.NewHTTPClient(utils.WithClientTimeout(timeout)),
	}
}

func (v *httpVerifier) Verify(ctx context.Context, userID string) (bool, error) {
	url := fmt.Sprintf("%s/api/auth/users/%s/verify/", v.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var out struct {
		Valid bool `json:"valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

type noopVerifier struct{}

// NewNoopVerifier is used when no Identity Provider is configured; every
// user id passes.
func NewNoopVerifier() Verifier {
	return noopVerifier{}
}

func (noopVerifier) Verify(ctx context.Context, userID string) (bool, error) {
	return true, nil
}
