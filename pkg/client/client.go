package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the sign-up API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Config holds configuration for the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a new Client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Identity is the account created by the service's identity provider.
type Identity struct {
	Provider      string    `json:"provider"`
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	IDToken       string    `json:"id_token,omitempty"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	ExpiresIn     int       `json:"expires_in,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpResponse struct {
	Identity *Identity `json:"identity"`
}

type checkEmailRequest struct {
	Email string `json:"email"`
}

type checkEmailResponse struct {
	Valid bool `json:"valid"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// APIError is a failed sign-up as reported by the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// SignUp creates an account and returns the provider identity.
// Rejections are returned as *APIError carrying the user-facing message.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	var res signUpResponse
	err := c.doRequest(ctx, http.MethodPost, "/v1/signup", signUpRequest{Email: email, Password: password}, &res)
	if err != nil {
		return nil, err
	}
	if res.Identity == nil {
		return nil, errors.New("sign-up response missing identity")
	}
	return res.Identity, nil
}

// CheckEmail asks the service whether email passes local validation.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	var res checkEmailResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/email/check", checkEmailRequest{Email: email}, &res); err != nil {
		return false, err
	}
	return res.Valid, nil
}

// doRequest helper to perform JSON requests.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Error}
		}
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}

	return nil
}
