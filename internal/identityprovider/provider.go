package identityprovider

import (
	"context"
	"errors"
	"time"
)

// Classification codes reported by providers. They follow the codes the
// Firebase client SDKs expose so callers can branch on them the same way.
const (
	CodeInvalidEmail         = "auth/invalid-email"
	CodeEmailAlreadyInUse    = "auth/email-already-in-use"
	CodeWeakPassword         = "auth/weak-password"
	CodeMissingPassword      = "auth/missing-password"
	CodeOperationNotAllowed  = "auth/operation-not-allowed"
	CodeTooManyRequests      = "auth/too-many-requests"
	CodeNetworkRequestFailed = "auth/network-request-failed"
	CodeInternal             = "auth/internal-error"
)

// Identity is the account record returned by a provider after creation.
// Its contents are provider-defined; callers should pass it along unchanged.
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

// Provider creates accounts in an external identity service.
// Implementations must not keep any account state of their own.
type Provider interface {
	// Name returns the provider identifier (e.g. "identitytoolkit", "scim").
	Name() string

	// CreateUser registers a new email/password account. Failures are
	// reported as *Error so the classification code survives.
	CreateUser(ctx context.Context, email, password string) (*Identity, error)
}

// Error is a classified provider failure.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the classification code carried by err, or "" when err is
// not (or does not wrap) a provider *Error.
func CodeOf(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}
