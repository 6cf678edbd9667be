package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Provider kinds accepted in SIGNUP_PROVIDER.
const (
	ProviderIdentityToolkit = "identitytoolkit"
	ProviderSCIM            = "scim"
)

// Config is the sign-up service configuration.
type Config struct {
	HTTPAddr        string        `env:"SIGNUP_HTTP_ADDR" envDefault:":8080" validate:"required"`
	LogLevel        string        `env:"SIGNUP_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Provider        string        `env:"SIGNUP_PROVIDER" envDefault:"identitytoolkit" validate:"oneof=identitytoolkit scim"`
	ProviderTimeout time.Duration `env:"SIGNUP_PROVIDER_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	IdentityToolkit IdentityToolkitConfig `envPrefix:"SIGNUP_IDENTITYTOOLKIT_"`
	SCIM            SCIMConfig            `envPrefix:"SIGNUP_SCIM_"`

	CORSAllowedOrigins []string `env:"SIGNUP_CORS_ALLOWED_ORIGINS" envSeparator:","`

	ServiceName  string `env:"SIGNUP_SERVICE_NAME" envDefault:"signupsvc"`
	Environment  string `env:"SIGNUP_ENVIRONMENT" envDefault:"development"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// IdentityToolkitConfig configures the Identity Toolkit provider.
type IdentityToolkitConfig struct {
	BaseURL string `env:"BASE_URL" envDefault:"https://identitytoolkit.googleapis.com/v1" validate:"required,url"`
	APIKey  string `env:"API_KEY" validate:"required"`
}

// SCIMConfig configures the SCIM directory provider.
type SCIMConfig struct {
	BaseURL       string   `env:"BASE_URL" validate:"required,url"`
	TokenURL      string   `env:"TOKEN_URL" validate:"omitempty,url"`
	ClientID      string   `env:"CLIENT_ID" validate:"required_with=TokenURL"`
	ClientSecret  string   `env:"CLIENT_SECRET"`
	Scopes        []string `env:"SCOPES" envSeparator:" "`
	ServiceToken  string   `env:"SERVICE_TOKEN"`
	ServiceHeader string   `env:"SERVICE_HEADER" envDefault:"X-Service-Token"`
}

// Load reads optional dotenv files, then parses and validates the
// environment. Missing dotenv files are ignored; variables already set in
// the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the top-level settings and the block of the selected provider.
func (c Config) Validate() error {
	validate := validator.New()

	// Provider blocks are validated on their own, only for the selected provider.
	if err := validate.StructExcept(c, "IdentityToolkit", "SCIM"); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var err error
	switch c.Provider {
	case ProviderIdentityToolkit:
		err = validate.Struct(c.IdentityToolkit)
	case ProviderSCIM:
		err = validate.Struct(c.SCIM)
	}
	if err != nil {
		return fmt.Errorf("invalid %s config: %w", c.Provider, err)
	}
	return nil
}
