package converter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/maximbilan/esmify/internal/config"
)

var (
	// ErrAuthentication means the provider rejected the credential
	ErrAuthentication = errors.New("invalid or expired credential")
	// ErrRateLimited means the provider throttled the request
	ErrRateLimited = errors.New("rate limit exceeded, retry later")
	// ErrEmptyResponse means the call succeeded but carried no text
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// ConfigurationError is returned before any request when the client cannot be set up
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TransportError wraps an unclassified provider failure when inline errors are disabled
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InlineErrorPrefix starts the commented diagnostic returned in place of output
const InlineErrorPrefix = "// SYSTEM ERROR: "

// InlineError renders err as JavaScript comments so it can be shown as output
func InlineError(err error) string {
	msg := strings.ReplaceAll(err.Error(), "\n", "\n// ")
	return InlineErrorPrefix + msg + "\n// Please check your network or API quota."
}

// IsInlineError reports whether output is a diagnostic produced by InlineError
func IsInlineError(output string) bool {
	return strings.HasPrefix(output, InlineErrorPrefix)
}

// UserMessage turns a conversion error into the text shown to the user
func UserMessage(err error) string {
	var cfgErr *ConfigurationError
	var transportErr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		reason := capitalize(cfgErr.Reason)
		if cfgErr.Err != nil {
			reason += " (" + cfgErr.Err.Error() + ")"
		}
		return "Configuration Error: " + reason + ".\n\n" + config.SetupInstructions()
	case errors.Is(err, ErrAuthentication):
		return "Authentication Failed: Your API Key is invalid or expired."
	case errors.Is(err, ErrRateLimited):
		return "Rate Limit Exceeded: The system is under heavy load. Please wait a moment."
	case errors.Is(err, ErrEmptyResponse):
		return "The model returned an empty response. Please try again."
	case errors.As(err, &transportErr):
		return "Request Failed: " + transportErr.Err.Error() + "\nPlease check your network or API quota."
	default:
		return err.Error()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
