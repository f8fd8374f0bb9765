// Package identity looks up review authors in the identity service for
// credibility scoring.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/veriwork/trustengine/internal/domain"
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// AuthorLookup resolves a user ID to the author profile used for
// credibility scoring.
type AuthorLookup interface {
	AuthorProfile(ctx context.Context, userID string) (domain.AuthorProfile, error)
}

// Client calls the identity service over HTTP.
type Client struct {
	client  HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewClient creates an identity service client.
func NewClient(client HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{client: client, baseURL: baseURL, logger: logger}
}

// AuthorProfile fetches the author profile for a user. Lookup failures
// degrade to a neutral unverified profile rather than failing the scoring
// path; credibility is advisory, not load-bearing.
func (c *Client) AuthorProfile(ctx context.Context, userID string) (domain.AuthorProfile, error) {
	neutral := domain.AuthorProfile{UserID: userID}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/users/%s/author-profile", c.baseURL, userID), nil)
	if err != nil {
		return neutral, fmt.Errorf("build author profile request: %w", err)
	}

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "identity lookup failed, using neutral profile",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return neutral, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "identity lookup returned non-200, using neutral profile",
			slog.String("user_id", userID),
			slog.Int("status", resp.StatusCode),
		)
		return neutral, nil
	}

	var profile domain.AuthorProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		c.logger.WarnContext(ctx, "identity response decode failed, using neutral profile",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return neutral, nil
	}
	profile.UserID = userID
	return profile, nil
}
