package signup

import (
	"context"
	"errors"
	"time"

	"github.com/dhawalhost/signupgate/internal/identityprovider"
	"github.com/dhawalhost/signupgate/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/dhawalhost/signupgate/internal/signup"

// errNoIdentity stands in for a provider that reported success without an account.
var errNoIdentity = &identityprovider.Error{
	Code:    identityprovider.CodeInternal,
	Message: "identity provider returned no account",
}

// Credentials are supplied by the caller for a single sign-up and never stored.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service defines the interface for the sign-up service.
type Service interface {
	// SignUp validates the email and creates the account with the provider.
	// On failure the identity is nil and the error is always a *Error.
	SignUp(ctx context.Context, creds Credentials) (*identityprovider.Identity, error)
}

// Config carries the dependencies of the sign-up service.
type Config struct {
	Provider identityprovider.Provider
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Tracer   trace.Tracer
}

type signupService struct {
	provider identityprovider.Provider
	logger   *zap.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

// NewService creates a new sign-up service.
func NewService(cfg Config) (Service, error) {
	if cfg.Provider == nil {
		return nil, errors.New("signup: identity provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.Tracer(tracerName)
	}
	return &signupService{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
	}, nil
}

func (s *signupService) SignUp(ctx context.Context, creds Credentials) (*identityprovider.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "signup.SignUp",
		trace.WithAttributes(attribute.String("signup.provider", s.provider.Name())))
	defer span.End()

	// 1. Reject malformed emails before touching the network.
	if !IsValidEmail(creds.Email) {
		s.metrics.ObserveSignup(CodeInvalidEmail)
		span.SetAttributes(attribute.String("signup.outcome", CodeInvalidEmail))
		return nil, ErrInvalidEmail
	}

	// 2. Delegate account creation.
	start := time.Now()
	identity, err := s.provider.CreateUser(ctx, creds.Email, creds.Password)
	s.metrics.ObserveProvider(s.provider.Name(), time.Since(start))
	if err == nil && identity == nil {
		err = errNoIdentity
	}
	if err == nil {
		s.metrics.ObserveSignup("success")
		span.SetAttributes(attribute.String("signup.outcome", "success"))
		return identity, nil
	}

	// 3. Translate the provider failure.
	providerCode := identityprovider.CodeOf(err)
	s.logger.Error("Identity provider rejected sign-up",
		zap.String("provider", s.provider.Name()),
		zap.String("provider_code", providerCode),
		zap.Error(err),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, "provider failure")

	serr := translate(providerCode, err)
	s.metrics.ObserveSignup(serr.Code)
	span.SetAttributes(attribute.String("signup.outcome", serr.Code))
	return nil, serr
}

func translate(providerCode string, err error) *Error {
	if providerCode == identityprovider.CodeInvalidEmail {
		return &Error{
			Code:         CodeProviderInvalidEmail,
			Message:      MessageInvalidEmail,
			ProviderCode: providerCode,
			err:          err,
		}
	}

	message := err.Error()
	var perr *identityprovider.Error
	if errors.As(err, &perr) {
		message = perr.Message
	}
	return &Error{
		Code:         CodeProviderError,
		Message:      message,
		ProviderCode: providerCode,
		err:          err,
	}
}
