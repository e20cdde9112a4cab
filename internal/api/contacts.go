package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetContacts lists the user's contacts.
func (c *Client) GetContacts(ctx context.Context) ([]Contact, error) {
	var resp []Contact
	if err := c.get(ctx, "/req/contacts", nil, &resp); err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	return resp, nil
}

// SearchContacts finds contacts matching query.
func (c *Client) SearchContacts(ctx context.Context, query string) ([]Contact, error) {
	var resp []Contact
	if err := c.get(ctx, "/req/contacts/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("search contacts %q: %w", query, err)
	}
	return resp, nil
}
