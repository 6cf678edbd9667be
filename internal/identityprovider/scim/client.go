package scim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dhawalhost/signupgate/internal/identityprovider"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	providerName = "scim"

	userSchema  = "urn:ietf:params:scim:schemas:core:2.0:User"
	contentType = "application/scim+json"

	// DefaultServiceHeader carries the static service token when no OAuth2
	// client credentials are configured.
	DefaultServiceHeader = "X-Service-Token"
)

// Config holds the settings for the SCIM provider.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// OAuth2 client credentials. Used when TokenURL is set.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// Static service token, used when TokenURL is empty.
	ServiceToken  string
	ServiceHeader string

	// HTTPClient is the base client. With client credentials it is used for
	// the token endpoint and as the transport under the oauth2 client.
	HTTPClient *http.Client
}

// Provider provisions accounts in a SCIM 2.0 directory.
type Provider struct {
	baseURL       string
	httpClient    *http.Client
	serviceToken  string
	serviceHeader string
	now           func() time.Time
}

// New returns a Provider for the directory at cfg.BaseURL.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("scim: base url is required")
	}

	base := cfg.HTTPClient
	if base == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		base = &http.Client{Timeout: timeout}
	}

	p := &Provider{
		baseURL:       baseURL,
		httpClient:    base,
		serviceToken:  cfg.ServiceToken,
		serviceHeader: cfg.ServiceHeader,
		now:           time.Now,
	}
	if p.serviceHeader == "" {
		p.serviceHeader = DefaultServiceHeader
	}

	if cfg.TokenURL != "" {
		if cfg.ClientID == "" {
			return nil, errors.New("scim: client id is required with a token url")
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		// The context is retained by the token source for refreshes, so it
		// must outlive individual requests.
		tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base)
		client := cc.Client(tokenCtx)
		client.Timeout = base.Timeout
		p.httpClient = client
		p.serviceToken = ""
	}

	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

type email struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
	Type    string `json:"type"`
}

type user struct {
	Schemas  []string `json:"schemas"`
	ID       string   `json:"id,omitempty"`
	UserName string   `json:"userName"`
	Password string   `json:"password,omitempty"`
	Active   bool     `json:"active"`
	Emails   []email  `json:"emails,omitempty"`
}

type scimError struct {
	Schemas  []string `json:"schemas"`
	Status   string   `json:"status"`
	Detail   string   `json:"detail,omitempty"`
	ScimType string   `json:"scimType,omitempty"`
}

// CreateUser provisions a user with POST /Users.
func (p *Provider) CreateUser(ctx context.Context, emailAddr, password string) (*identityprovider.Identity, error) {
	payload, err := json.Marshal(user{
		Schemas:  []string{userSchema},
		UserName: emailAddr,
		Password: password,
		Active:   true,
		Emails:   []email{{Value: emailAddr, Primary: true, Type: "work"}},
	})
	if err != nil {
		return nil, &identityprovider.Error{Code: identityprovider.CodeInternal, Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/Users", bytes.NewReader(payload))
	if err != nil {
		return nil, &identityprovider.Error{Code: identityprovider.CodeInternal, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	if p.serviceToken != "" {
		req.Header.Set(p.serviceHeader, p.serviceToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &identityprovider.Error{
			Code:    identityprovider.CodeNetworkRequestFailed,
			Message: "directory request failed: " + err.Error(),
			Err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var created user
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, &identityprovider.Error{
			Code:    identityprovider.CodeInternal,
			Message: "failed to decode created user",
			Err:     err,
		}
	}
	if created.ID == "" {
		return nil, &identityprovider.Error{
			Code:    identityprovider.CodeInternal,
			Message: "directory response missing user id",
		}
	}

	userName := created.UserName
	if userName == "" {
		userName = emailAddr
	}
	return &identityprovider.Identity{
		Provider:  providerName,
		UID:       created.ID,
		Email:     userName,
		CreatedAt: p.now().UTC(),
	}, nil
}

func decodeError(resp *http.Response) error {
	var body scimError
	_ = json.NewDecoder(resp.Body).Decode(&body)

	message := body.Detail
	if message == "" {
		message = fmt.Sprintf("directory returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &identityprovider.Error{
		Code:    classify(resp.StatusCode, body),
		Message: message,
	}
}

func classify(status int, body scimError) string {
	detail := strings.ToLower(body.Detail)
	switch {
	case status == http.StatusConflict || body.ScimType == "uniqueness":
		return identityprovider.CodeEmailAlreadyInUse
	case status == http.StatusTooManyRequests:
		return identityprovider.CodeTooManyRequests
	case status == http.StatusForbidden:
		return identityprovider.CodeOperationNotAllowed
	case body.ScimType == "invalidValue" && strings.Contains(detail, "password"):
		return identityprovider.CodeWeakPassword
	case body.ScimType == "invalidValue" && (strings.Contains(detail, "username") || strings.Contains(detail, "email")):
		return identityprovider.CodeInvalidEmail
	default:
		return identityprovider.CodeInternal
	}
}
