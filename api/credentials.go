package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// CredentialClient talks to the identity provider's management API to change
// a user's password. Credentials live entirely on the provider's side; this
// client only forwards the change request.
type CredentialClient struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewCredentialClient creates a client for the management API at baseURL,
// authenticating with the given management token. An empty baseURL yields a
// client whose calls fail, for deployments without password management.
func NewCredentialClient(baseURL, token string) *CredentialClient {
	return &CredentialClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

type passwordUpdate struct {
	Password string `json:"password"`
}

// UpdatePassword sets a new password for the user on the identity provider.
func (c *CredentialClient) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if c.baseURL == "" {
		return errors.New("credential manager not configured")
	}

	payload, err := sonic.Marshal(passwordUpdate{Password: newPassword})
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("credential manager returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
