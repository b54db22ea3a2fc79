package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// send issues a request to the service. A non-nil in is sent as a JSON body;
// a non-empty token as a bearer credential.
func (c *SDKClient) send(ctx context.Context, method, path, token string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// send on a Session fails fast when the session was logged out.
func (s *Session) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	return s.client.send(ctx, method, path, token, in)
}

// readJSON closes the body and decodes it into out when the status is 200.
// Any other status becomes an *APIError.
func readJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func expectNoContent(resp *http.Response) error {
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	return parseErrorResponse(resp, raw)
}

// fetch is the common GET-and-decode path of the unauthenticated calls.
func fetch[T any](ctx context.Context, c *SDKClient, path string) (*T, error) {
	resp, err := c.send(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	var out T
	if err := readJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
