package signup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dhawalhost/signupgate/internal/identityprovider"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mockSignupService struct {
	identity *identityprovider.Identity
	err      error

	called    bool
	lastCreds Credentials
}

func (m *mockSignupService) SignUp(ctx context.Context, creds Credentials) (*identityprovider.Identity, error) {
	m.called = true
	m.lastCreds = creds
	return m.identity, m.err
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHTTPHandler(svc, zap.NewNop()).RegisterRoutes(r)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSignUpCreated(t *testing.T) {
	svc := &mockSignupService{identity: &identityprovider.Identity{Provider: "stub", UID: "uid-1", Email: "user@example.com"}}
	r := newTestRouter(svc)

	resp := doJSON(r, http.MethodPost, "/v1/signup", `{"email":"user@example.com","password":"password123"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCreds.Email != "user@example.com" || svc.lastCreds.Password != "password123" {
		t.Fatalf("unexpected credentials passed: %+v", svc.lastCreds)
	}

	var payload SignUpResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Identity == nil || payload.Identity.UID != "uid-1" {
		t.Fatalf("unexpected identity: %+v", payload.Identity)
	}
}

func TestSignUpErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    *Error
		status int
	}{
		{"local invalid email", ErrInvalidEmail, http.StatusBadRequest},
		{"provider invalid email", &Error{Code: CodeProviderInvalidEmail, Message: MessageInvalidEmail, ProviderCode: identityprovider.CodeInvalidEmail}, http.StatusBadRequest},
		{"email in use", &Error{Code: CodeProviderError, Message: "EMAIL_EXISTS", ProviderCode: identityprovider.CodeEmailAlreadyInUse}, http.StatusConflict},
		{"weak password", &Error{Code: CodeProviderError, Message: "WEAK_PASSWORD", ProviderCode: identityprovider.CodeWeakPassword}, http.StatusBadRequest},
		{"throttled", &Error{Code: CodeProviderError, Message: "slow down", ProviderCode: identityprovider.CodeTooManyRequests}, http.StatusTooManyRequests},
		{"not allowed", &Error{Code: CodeProviderError, Message: "OPERATION_NOT_ALLOWED", ProviderCode: identityprovider.CodeOperationNotAllowed}, http.StatusForbidden},
		{"network", &Error{Code: CodeProviderError, Message: "dial tcp: refused", ProviderCode: identityprovider.CodeNetworkRequestFailed}, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&mockSignupService{err: tc.err})
			resp := doJSON(r, http.MethodPost, "/v1/signup", `{"email":"user@example.com","password":"password123"}`)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}

			var payload ErrorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if payload.Code != tc.err.Code || payload.Error != tc.err.Message {
				t.Fatalf("unexpected error payload: %+v", payload)
			}
		})
	}
}

func TestSignUpMalformedBody(t *testing.T) {
	svc := &mockSignupService{}
	r := newTestRouter(svc)

	resp := doJSON(r, http.MethodPost, "/v1/signup", `{"email":`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.called {
		t.Fatalf("service should not be called for malformed body")
	}
}

func TestSignUpThroughRealServiceRejectsBadEmail(t *testing.T) {
	p := &stubProvider{}
	svc, err := NewService(Config{Provider: p})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	r := newTestRouter(svc)

	resp := doJSON(r, http.MethodPost, "/v1/signup", `{"email":"bad-email","password":"password123"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Invalid email format") {
		t.Fatalf("expected invalid email message, got %s", resp.Body.String())
	}
	if p.calls != 0 {
		t.Fatalf("provider should not be called")
	}
}

func TestCheckEmail(t *testing.T) {
	r := newTestRouter(&mockSignupService{})

	for email, want := range map[string]bool{"user@example.com": true, "bad-email": false} {
		resp := doJSON(r, http.MethodPost, "/v1/email/check", `{"email":"`+email+`"}`)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		var payload CheckEmailResponse
		if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if payload.Valid != want {
			t.Fatalf("expected valid=%v for %q, got %v", want, email, payload.Valid)
		}
	}
}
