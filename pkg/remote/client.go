// Package remote is a typed wrapper over the remote chat server's HTTP API.
//
// Every call carries the shared-secret credential as a query parameter.
// Success is any 2xx response; everything else (including transport failures)
// surfaces as a *Error carrying the HTTP status and the message parsed from
// the response body's "error" or "message" field.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/edulinkhq/chansync/pkg/logger"
)

// Config holds remote client configuration.
type Config struct {
	// BaseURL is the base URL of the remote API, e.g. https://chat.example.edu/api
	BaseURL string
	// APISecret is the shared-secret credential sent on every call
	APISecret string
	// TeamSlug is the team namespace channels are created under
	TeamSlug string
	// Timeout bounds each request; defaults to 30s
	Timeout time.Duration
}

// Client talks to the remote chat server.
type Client struct {
	baseURL  *url.URL
	secret   string
	teamSlug string
	http     *http.Client
}

// NewClient validates the configuration and constructs a client.
// Missing base URL, secret, or team slug is fatal here, not at call time.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote base URL is required")
	}
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("remote API secret is required")
	}
	if cfg.TeamSlug == "" {
		return nil, fmt.Errorf("remote team slug is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote base URL %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  base,
		secret:   cfg.APISecret,
		teamSlug: cfg.TeamSlug,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// TeamSlug returns the configured team namespace.
func (c *Client) TeamSlug() string { return c.teamSlug }

// Channel is a channel record returned by the remote API.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// User is a remote user record.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UserProfile is the payload for creating a remote user.
type UserProfile struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	AuthService string `json:"auth_service,omitempty"`
	AuthData    string `json:"auth_data,omitempty"`
}

// Member is a channel member record.
type Member struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// CreateChannel creates a private channel in the configured team.
func (c *Client) CreateChannel(ctx context.Context, name string) (Channel, error) {
	var channel Channel
	err := c.do(ctx, http.MethodPost, "/channels", nil, map[string]string{
		"name": name,
		"team": c.teamSlug,
	}, &channel)
	return channel, err
}

// GetChannel fetches a channel by id.
func (c *Client) GetChannel(ctx context.Context, channelID string) (Channel, error) {
	var channel Channel
	err := c.do(ctx, http.MethodGet, "/channels/"+url.PathEscape(channelID), nil, nil, &channel)
	return channel, err
}

// Ping verifies connectivity and credentials with a lookup of a channel
// that cannot exist. A 404 means the server answered and accepted the
// secret; anything else is surfaced as-is.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetChannel(ctx, "connection-test")
	if err == nil || IsNotFound(err) {
		return nil
	}
	return err
}

// ArchiveChannel archives (soft-deletes) a channel.
func (c *Client) ArchiveChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+url.PathEscape(channelID), nil, nil, nil)
}

// CreateUser creates a remote user.
func (c *Client) CreateUser(ctx context.Context, profile UserProfile) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/users", nil, profile, &user)
	return user, err
}

// GetUserByEmail fetches a remote user by email. Returns a 404 *Error if the
// user does not exist.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(email), nil, nil, &user)
	return user, err
}

// AddMember adds a remote user to a channel with the given privilege.
func (c *Client) AddMember(ctx context.Context, channelID, userID string, isAdmin bool) (Member, error) {
	var member Member
	err := c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/members", nil, map[string]interface{}{
		"user_id":  userID,
		"is_admin": isAdmin,
	}, &member)
	return member, err
}

// RemoveMember removes a remote user from a channel.
func (c *Client) RemoveMember(ctx context.Context, channelID, userID string) error {
	path := "/channels/" + url.PathEscape(channelID) + "/members/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// UpdateMemberRole flips a member between admin and plain member.
func (c *Client) UpdateMemberRole(ctx context.Context, channelID, userID string, isAdmin bool) error {
	path := "/channels/" + url.PathEscape(channelID) + "/members/roles"
	return c.do(ctx, http.MethodPatch, path, nil, map[string]interface{}{
		"user_id":  userID,
		"is_admin": isAdmin,
	}, nil)
}

// ListMembers fetches one page of a channel's member list.
func (c *Client) ListMembers(ctx context.Context, channelID string, page, perPage int) ([]Member, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	var members []Member
	path := "/channels/" + url.PathEscape(channelID) + "/members"
	err := c.do(ctx, http.MethodGet, path, query, nil, &members)
	return members, err
}

// do performs one JSON request against the remote API. A nil out skips
// response decoding. path arrives with its segments already escaped;
// JoinPath keeps them escaped instead of encoding the escapes again.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL.JoinPath(path)

	if query == nil {
		query = url.Values{}
	}
	query.Set("secret", c.secret)
	endpoint.RawQuery = query.Encode()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("remote %s %s transport failure: %v", method, path, err)
		return &Error{Status: 0, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Debug("remote %s %s read failure: %v", method, path, err)
		return &Error{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := parseErrorMessage(respBody)
		logger.Debug("remote %s %s failed: status=%d message=%s", method, path, resp.StatusCode, message)
		return &Error{Status: resp.StatusCode, Message: message}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// parseErrorMessage extracts the "error" or "message" field from an error
// body, falling back to the raw body.
func parseErrorMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(body)
}
