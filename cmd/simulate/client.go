package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/api"
)

// client calls the API with locally minted bearer tokens.
type client struct {
	baseURL string
	http    *http.Client
	auth    *api.Authenticator
	admin   string
}

func newClient(baseURL string, auth *api.Authenticator) (*client, error) {
	admin, err := auth.Issue(api.Principal{ID: uuid.New(), Role: api.RoleAdmin}, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("issue admin token: %w", err)
	}
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		auth:    auth,
		admin:   admin,
	}, nil
}

func (c *client) tokenFor(role api.Role, id uuid.UUID) string {
	tok, err := c.auth.Issue(api.Principal{ID: id, Role: role}, time.Hour)
	if err != nil {
		// Issue only fails for unknown roles.
		panic(err)
	}
	return tok
}

// do sends body as JSON and decodes a 2xx response into out. It returns the
// status code even when err is non-nil.
func (c *client) do(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return resp.StatusCode, fmt.Errorf("%s %s: %d %s %s", method, path, resp.StatusCode, apiErr.Error, apiErr.Details)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}
