package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/syncmeet/realtime/internal/auth"
)

// Login exchanges credentials for a bearer token and stores it on the
// client's session.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) error {
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// Sent without the current token.
	c.session.Clear()

	var resp LoginResponse
	if err := c.post(ctx, "/req/login", creds, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return errors.New("login: response has no token")
	}

	c.session.SetToken(resp.Token)
	c.logger.Info("logged in", "email", creds.Email)
	return nil
}

// Logout invalidates the token server-side and clears the session. The
// session is cleared even if the request fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.session.Clear()

	if err := c.post(ctx, "/req/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// GetUserProfile fetches the authenticated user's profile.
func (c *Client) GetUserProfile(ctx context.Context) (*UserProfile, error) {
	var resp UserProfile
	if err := c.get(ctx, "/req/user/profile", nil, &resp); err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return &resp, nil
}
