package signup

// Error codes returned by SignUp.
const (
	CodeInvalidEmail         = "invalid_email"
	CodeProviderInvalidEmail = "provider_invalid_email"
	CodeProviderError        = "provider_error"
)

// MessageInvalidEmail is shown for both local and provider-side email rejections.
const MessageInvalidEmail = "Invalid email format"

// ErrInvalidEmail is returned when the email fails local validation.
var ErrInvalidEmail = &Error{Code: CodeInvalidEmail, Message: MessageInvalidEmail}

// Error represents a sign-up failure. Message is safe to show to the user.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// ProviderCode is the provider classification for provider failures.
	ProviderCode string `json:"provider_code,omitempty"`
	err          error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the provider error behind a provider failure.
func (e *Error) Unwrap() error {
	return e.err
}
