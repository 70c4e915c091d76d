// Package shopapi is the HTTP client for the storefront backend. It covers
// the surfaces the sync core needs: conversations, incremental message
// fetches, multipart image sends, read receipts, and the notification feed.
// The server is the source of truth; this client never caches.
package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TokenProvider supplies the bearer token for the active session. An empty
// token means the request goes out unauthenticated.
type TokenProvider interface {
	Token() string
}

// StaticToken is a TokenProvider for a fixed token, mainly useful in tests.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to the storefront backend.
type Client struct {
	client  *http.Client
	baseURL string
	tokens  TokenProvider
}

// NewClient creates a backend client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(baseURL string, tokens TokenProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		client:  httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  tokens,
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// doJSON sends an optional JSON body and decodes the JSON response into out.
// A nil out discards the response body; non-2xx responses become errors via
// handleAPIError.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("shopapi: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return handleAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return decodeJSONBody(resp.Body, out)
}

func decodeJSONBody(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("shopapi: failed to decode response: %w", err)
	}
	return nil
}
