package signup

import (
	"errors"
	"net/http"

	"github.com/dhawalhost/signupgate/internal/identityprovider"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignUpRequest is the body of POST /v1/signup.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpResponse is returned when the account was created.
type SignUpResponse struct {
	Identity *identityprovider.Identity `json:"identity"`
}

// CheckEmailRequest is the body of POST /v1/email/check.
type CheckEmailRequest struct {
	Email string `json:"email"`
}

// CheckEmailResponse reports the local validation result.
type CheckEmailResponse struct {
	Valid bool `json:"valid"`
}

// ErrorResponse is the body of every failed sign-up.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// HTTPHandler represents the HTTP API handlers for the sign-up service.
type HTTPHandler struct {
	svc    Service
	logger *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(svc Service, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the sign-up routes.
func (h *HTTPHandler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/v1")
	{
		v1.POST("/signup", h.signUp)
		v1.POST("/email/check", h.checkEmail)
	}
}

func (h *HTTPHandler) signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Failed to bind sign-up request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	identity, err := h.svc.SignUp(c.Request.Context(), Credentials(req))
	if err != nil {
		var serr *Error
		if !errors.As(err, &serr) {
			h.logger.Error("Sign-up returned an unexpected error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Code: CodeProviderError, Error: "internal error"})
			return
		}
		c.JSON(statusFor(serr), ErrorResponse{Code: serr.Code, Error: serr.Message})
		return
	}

	c.JSON(http.StatusCreated, SignUpResponse{Identity: identity})
}

func (h *HTTPHandler) checkEmail(c *gin.Context) {
	var req CheckEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	c.JSON(http.StatusOK, CheckEmailResponse{Valid: IsValidEmail(req.Email)})
}

func statusFor(e *Error) int {
	switch e.Code {
	case CodeInvalidEmail, CodeProviderInvalidEmail:
		return http.StatusBadRequest
	}
	switch e.ProviderCode {
	case identityprovider.CodeEmailAlreadyInUse:
		return http.StatusConflict
	case identityprovider.CodeWeakPassword, identityprovider.CodeMissingPassword:
		return http.StatusBadRequest
	case identityprovider.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case identityprovider.CodeOperationNotAllowed:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}
