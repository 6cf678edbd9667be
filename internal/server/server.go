package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dhawalhost/signupgate/internal/config"
	"github.com/dhawalhost/signupgate/internal/identityprovider"
	"github.com/dhawalhost/signupgate/internal/identityprovider/identitytoolkit"
	"github.com/dhawalhost/signupgate/internal/identityprovider/scim"
	"github.com/dhawalhost/signupgate/internal/signup"
	"github.com/dhawalhost/signupgate/pkg/middleware"
	"github.com/dhawalhost/signupgate/pkg/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Server owns the HTTP listener of the sign-up service.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewProvider builds the identity provider selected in cfg.
func NewProvider(ctx context.Context, cfg config.Config) (identityprovider.Provider, error) {
	switch cfg.Provider {
	case config.ProviderIdentityToolkit:
		p, err := identitytoolkit.New(identitytoolkit.Config{
			BaseURL:    cfg.IdentityToolkit.BaseURL,
			APIKey:     cfg.IdentityToolkit.APIKey,
			HTTPClient: &http.Client{Timeout: cfg.ProviderTimeout},
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderSCIM:
		p, err := scim.New(ctx, scim.Config{
			BaseURL:       cfg.SCIM.BaseURL,
			Timeout:       cfg.ProviderTimeout,
			TokenURL:      cfg.SCIM.TokenURL,
			ClientID:      cfg.SCIM.ClientID,
			ClientSecret:  cfg.SCIM.ClientSecret,
			Scopes:        cfg.SCIM.Scopes,
			ServiceToken:  cfg.SCIM.ServiceToken,
			ServiceHeader: cfg.SCIM.ServiceHeader,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
	}
}

// RouterConfig carries what NewRouter needs.
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics
	Gatherer       prometheus.Gatherer
}

// NewRouter wires middleware and routes around the sign-up service.
func NewRouter(svc signup.Service, logger *zap.Logger, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.AccessLog(logger))
	if cfg.Metrics != nil {
		router.Use(observability.PrometheusMiddleware(cfg.Metrics))
	}
	if cors := middleware.CORS(cfg.AllowedOrigins); cors != nil {
		router.Use(cors)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(observability.PrometheusHandler(cfg.Gatherer)))

	signup.NewHTTPHandler(svc, logger).RegisterRoutes(router)
	return router
}

// New assembles the service from cfg.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	svc, err := signup.NewService(signup.Config{
		Provider: provider,
		Logger:   logger.Named("signup"),
		Metrics:  metrics,
	})
	if err != nil {
		return nil, err
	}

	router := NewRouter(svc, logger, RouterConfig{
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        metrics,
		Gatherer:       reg,
	})

	logger.Info("Identity provider configured", zap.String("provider", provider.Name()))

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}, nil
}

// Run blocks serving HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("HTTP server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight sign-ups.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
