package shared

import (
	"errors"

	"github.com/praxis-clinic/praxis/internal/platform/httpx"
)

// ErrInvalidCredentials indicates login failure.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserSafeMessage returns a message that can be shown to end users without
// leaking internals. Unknown errors collapse to a generic message.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, httpx.ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, httpx.ErrConflict):
		return "The record is not in a state that allows this change."
	case errors.Is(err, httpx.ErrDuplicate):
		return "A record with the same identifier already exists."
	case errors.Is(err, httpx.ErrValidation):
		return "Some of the submitted fields are invalid."
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is incorrect."
	default:
		return "Something went wrong. Please try again."
	}
}
