package identitytoolkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dhawalhost/signupgate/internal/identityprovider"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{BaseURL: srv.URL, APIKey: "test-key", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return p
}

func TestCreateUserSuccess(t *testing.T) {
	var got signUpRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/accounts:signUp" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(apiKeyHeader) != "test-key" {
			t.Fatalf("expected api key header, got %q", r.Header.Get(apiKeyHeader))
		}
		if r.URL.RawQuery != "" {
			t.Fatalf("api key must not be sent in the query, got %q", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"localId":"uid-1","email":"user@example.com","idToken":"id-tok","refreshToken":"ref-tok","expiresIn":"3600"}`))
	})

	identity, err := p.CreateUser(context.Background(), "user@example.com", "s3cret!!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != "user@example.com" || got.Password != "s3cret!!" || !got.ReturnSecureToken {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if identity.UID != "uid-1" || identity.IDToken != "id-tok" || identity.RefreshToken != "ref-tok" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.ExpiresIn != 3600 {
		t.Fatalf("expected expires in 3600, got %d", identity.ExpiresIn)
	}
	if identity.Provider != providerName {
		t.Fatalf("expected provider %s, got %s", providerName, identity.Provider)
	}
}

func TestCreateUserClassifiesErrors(t *testing.T) {
	cases := []struct {
		message string
		code    string
	}{
		{"INVALID_EMAIL", identityprovider.CodeInvalidEmail},
		{"MISSING_EMAIL", identityprovider.CodeInvalidEmail},
		{"EMAIL_EXISTS", identityprovider.CodeEmailAlreadyInUse},
		{"WEAK_PASSWORD : Password should be at least 6 characters", identityprovider.CodeWeakPassword},
		{"MISSING_PASSWORD", identityprovider.CodeMissingPassword},
		{"OPERATION_NOT_ALLOWED", identityprovider.CodeOperationNotAllowed},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", identityprovider.CodeTooManyRequests},
		{"SOMETHING_NEW", identityprovider.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"code": 400, "message": tc.message},
				})
			})

			_, err := p.CreateUser(context.Background(), "user@example.com", "pw")
			if err == nil {
				t.Fatalf("expected error")
			}
			perr, ok := err.(*identityprovider.Error)
			if !ok {
				t.Fatalf("expected *identityprovider.Error, got %T", err)
			}
			if perr.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, perr.Code)
			}
			if perr.Message != tc.message {
				t.Fatalf("expected raw message %q, got %q", tc.message, perr.Message)
			}
		})
	}
}

func TestCreateUserUnparseableErrorBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := p.CreateUser(context.Background(), "user@example.com", "pw")
	if identityprovider.CodeOf(err) != identityprovider.CodeInternal {
		t.Fatalf("expected internal error code, got %v", err)
	}
}

func TestCreateUserNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	p, err := New(Config{BaseURL: baseURL, APIKey: "SECRET-API-KEY"})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	_, err = p.CreateUser(context.Background(), "user@example.com", "pw")
	perr, ok := err.(*identityprovider.Error)
	if !ok {
		t.Fatalf("expected *identityprovider.Error, got %T (%v)", err, err)
	}
	if perr.Code != identityprovider.CodeNetworkRequestFailed {
		t.Fatalf("expected network failure code, got %s", perr.Code)
	}
	if strings.Contains(perr.Message, "SECRET-API-KEY") || strings.Contains(perr.Message, baseURL) {
		t.Fatalf("error message exposes request details: %q", perr.Message)
	}
}

func TestCreateUserRejectsIncompleteResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing local id", `{"email":"user@example.com","idToken":"tok","expiresIn":"3600"}`},
		{"bad expires in", `{"localId":"uid-1","email":"user@example.com","expiresIn":"soon"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			})

			identity, err := p.CreateUser(context.Background(), "user@example.com", "pw")
			if identity != nil {
				t.Fatalf("expected nil identity, got %+v", identity)
			}
			if identityprovider.CodeOf(err) != identityprovider.CodeInternal {
				t.Fatalf("expected internal error code, got %v", err)
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
