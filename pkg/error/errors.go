package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	domainerror "github.com/myblog/myblog/domain/error"
)

var (
	// ErrAuthExpired means the session can no longer be renewed: the refresh
	// call failed or no refresh token was stored. Stored tokens are cleared.
	ErrAuthExpired = domainerror.NewAppError(domainerror.ErrCodeAuthExpired, "Session expired, please log in again", "", nil)

	// ErrInvalidCredentials is returned by login for a 4xx rejection.
	ErrInvalidCredentials = domainerror.NewAppError(domainerror.ErrCodeInvalidCredentials, "Invalid email or password", "", nil)

	// ErrInvalidInput is returned before any request is made when local
	// validation of a form payload fails.
	ErrInvalidInput = domainerror.NewAppError(domainerror.ErrCodeInvalidInput, "Invalid input", "", nil)

	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = domainerror.NewAppError(domainerror.ErrCodeNotAuthenticated, "Not logged in", "", nil)
)

// NetworkError is a transport failure: no HTTP response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) ErrorCode() domainerror.ErrorCode {
	return domainerror.ErrCodeNetwork
}

// APIError is a non-2xx response. Payload holds the raw response body.
type APIError struct {
	Status  int
	Payload []byte
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// Message extracts a human readable message from the payload. The API uses
// either {"error": "..."} or {"detail": "..."}; anything else is returned raw.
func (e *APIError) Message() string {
	if len(e.Payload) == 0 {
		return ""
	}
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(e.Payload, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	return strings.TrimSpace(string(e.Payload))
}

func (e *APIError) ErrorCode() domainerror.ErrorCode {
	return domainerror.ErrCodeAPI
}

func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Invalid wraps a validation failure as ErrInvalidInput.
func Invalid(cause error) error {
	return domainerror.NewAppError(domainerror.ErrCodeInvalidInput, "Invalid input", cause.Error(), cause)
}

// InvalidCredentials wraps the login rejection so both errors.Is(err,
// ErrInvalidCredentials) and errors.As(err, **APIError) hold.
func InvalidCredentials(apiErr *APIError) error {
	return domainerror.NewAppError(domainerror.ErrCodeInvalidCredentials, "Invalid email or password", apiErr.Message(), apiErr)
}

// AuthExpired wraps the refresh failure cause as ErrAuthExpired.
func AuthExpired(cause error) error {
	if cause == nil {
		return ErrAuthExpired
	}
	return domainerror.NewAppError(domainerror.ErrCodeAuthExpired, "Session expired, please log in again", cause.Error(), cause)
}

// StatusOf returns the HTTP status of the first APIError in the chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
