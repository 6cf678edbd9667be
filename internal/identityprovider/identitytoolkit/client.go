package identitytoolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dhawalhost/signupgate/internal/identityprovider"
)

const (
	providerName = "identitytoolkit"

	// apiKeyHeader carries the API key so it never appears in request URLs.
	apiKeyHeader = "X-Goog-Api-Key"
)

// DefaultBaseURL is the production Identity Toolkit v1 endpoint. The Auth
// emulator serves the same API under http://<host>/identitytoolkit.googleapis.com/v1.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// Config holds the settings for the Identity Toolkit provider.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Provider creates email/password accounts through the Identity Toolkit
// accounts:signUp REST call.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// New validates cfg and returns a Provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("identitytoolkit: api key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("identitytoolkit: invalid base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: client,
		now:        time.Now,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

type signUpRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signUpResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateUser calls accounts:signUp and returns the created account.
func (p *Provider) CreateUser(ctx context.Context, email, password string) (*identityprovider.Identity, error) {
	body, err := json.Marshal(signUpRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, &identityprovider.Error{Code: identityprovider.CodeInternal, Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/accounts:signUp", bytes.NewReader(body))
	if err != nil {
		return nil, &identityprovider.Error{Code: identityprovider.CodeInternal, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Report the cause only; the request URL is not for end users.
		cause := err
		var uerr *url.Error
		if errors.As(err, &uerr) {
			cause = uerr.Err
		}
		return nil, &identityprovider.Error{
			Code:    identityprovider.CodeNetworkRequestFailed,
			Message: "identity toolkit request failed: " + cause.Error(),
			Err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var out signUpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &identityprovider.Error{
			Code:    identityprovider.CodeInternal,
			Message: "failed to decode sign-up response",
			Err:     err,
		}
	}

	if out.LocalID == "" {
		return nil, &identityprovider.Error{
			Code:    identityprovider.CodeInternal,
			Message: "sign-up response missing local id",
		}
	}

	var expiresIn int
	if out.ExpiresIn != "" {
		expiresIn, err = strconv.Atoi(out.ExpiresIn)
		if err != nil {
			return nil, &identityprovider.Error{
				Code:    identityprovider.CodeInternal,
				Message: "invalid expiresIn in sign-up response",
				Err:     err,
			}
		}
	}
	return &identityprovider.Identity{
		Provider:     providerName,
		UID:          out.LocalID,
		Email:        out.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    expiresIn,
		CreatedAt:    p.now().UTC(),
	}, nil
}

func decodeError(resp *http.Response) error {
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Message == "" {
		return &identityprovider.Error{
			Code:    identityprovider.CodeInternal,
			Message: fmt.Sprintf("identity toolkit returned status %d", resp.StatusCode),
		}
	}
	return &identityprovider.Error{
		Code:    classify(body.Error.Message),
		Message: body.Error.Message,
	}
}

// classify maps an Identity Toolkit error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to a code.
func classify(message string) string {
	reason, _, _ := strings.Cut(message, " : ")
	switch strings.TrimSpace(reason) {
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return identityprovider.CodeInvalidEmail
	case "EMAIL_EXISTS":
		return identityprovider.CodeEmailAlreadyInUse
	case "WEAK_PASSWORD":
		return identityprovider.CodeWeakPassword
	case "MISSING_PASSWORD":
		return identityprovider.CodeMissingPassword
	case "OPERATION_NOT_ALLOWED", "ADMIN_ONLY_OPERATION":
		return identityprovider.CodeOperationNotAllowed
	case "TOO_MANY_ATTEMPTS_TRY_LATER", "QUOTA_EXCEEDED":
		return identityprovider.CodeTooManyRequests
	default:
		return identityprovider.CodeInternal
	}
}
