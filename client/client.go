// Package client is a small HTTP client for the Somo API. It speaks the
// session and identity endpoints and satisfies the interfaces auth.Bridge
// needs, so a command line tool can bridge a web session into a directory
// session the same way the web app does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core/auth"
	"github.com/mwalimu/somo/core/identity"
)

type Client struct {
	baseURL string
	http    *http.Client

	// sessionToken is the web session JWT obtained out of band
	// (Google sign-in in a browser).
	sessionToken string

	mu      sync.Mutex
	idToken string
	uid     string
}

var (
	_ auth.CustomTokenSource = (*Client)(nil)
	_ auth.DirectoryClient   = (*Client)(nil)
)

func New(baseURL, sessionToken string) *Client {
	return &Client{
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		sessionToken: sessionToken,
	}
}

// CustomToken mints a custom token for the client's web session.
func (c *Client) CustomToken(ctx context.Context) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/custom-token", c.sessionToken, nil, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) SignInWithCustomToken(ctx context.Context, token string) (identity.Session, error) {
	var resp sessionPayload
	err := c.do(ctx, http.MethodPost, "/api/identity/sign-in", "", map[string]string{"token": token}, &resp)
	if err != nil {
		return identity.Session{}, err
	}
	return c.rememberSession(resp)
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (identity.Session, error) {
	var resp sessionPayload
	err := c.do(ctx, http.MethodPost, "/api/identity/refresh", "", map[string]string{"refresh_token": refreshToken}, &resp)
	if err != nil {
		return identity.Session{}, err
	}
	return c.rememberSession(resp)
}

// SignOut revokes the directory session established by this client.
func (c *Client) SignOut(ctx context.Context, uid string) error {
	c.mu.Lock()
	idToken := c.idToken
	c.mu.Unlock()
	if idToken == "" {
		return errors.New("no active directory session")
	}

	if err := c.do(ctx, http.MethodPost, "/api/identity/sign-out", idToken, nil, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.idToken = ""
	c.uid = ""
	c.mu.Unlock()
	return nil
}

// Admin endpoints. These require a bridged session whose account passes the
// admin gate.

type AdminUser struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	LastLogin time.Time         `json:"last_login"`
	Disabled  bool              `json:"disabled"`
	Claims    identity.ClaimMap `json:"claims"`
}

type Access struct {
	UID      string            `json:"uid"`
	Email    string            `json:"email"`
	Disabled bool              `json:"disabled"`
	Claims   identity.ClaimMap `json:"claims"`
}

func (c *Client) ListUsers(ctx context.Context) ([]AdminUser, error) {
	var resp []AdminUser
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", c.currentIDToken(), nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) UpdateAccess(ctx context.Context, uid string, role *string, disabled *bool) (Access, error) {
	body := make(map[string]interface{}, 2)
	if role != nil {
		body["role"] = *role
	}
	if disabled != nil {
		body["disabled"] = *disabled
	}

	var resp Access
	err := c.do(ctx, http.MethodPatch, "/api/admin/users/"+uid, c.currentIDToken(), body, &resp)
	if err != nil {
		return Access{}, err
	}
	return resp, nil
}

// Internals

type sessionPayload struct {
	UID          string            `json:"uid"`
	Email        string            `json:"email"`
	IDToken      string            `json:"id_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Claims       identity.ClaimMap `json:"claims"`
}

func (c *Client) rememberSession(p sessionPayload) (identity.Session, error) {
	claims, err := identity.ClaimSetFromMap(p.Claims)
	if err != nil {
		return identity.Session{}, err
	}

	c.mu.Lock()
	c.idToken = p.IDToken
	c.uid = p.UID
	c.mu.Unlock()

	return identity.Session{
		UID:          p.UID,
		Email:        p.Email,
		IDToken:      p.IDToken,
		RefreshToken: p.RefreshToken,
		Claims:       claims,
		ExpiresAt:    p.ExpiresAt,
	}, nil
}

func (c *Client) currentIDToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idToken
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err = json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response body")
	}
	return nil
}
