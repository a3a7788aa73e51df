package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownToken is returned when a bearer token does not match any
// enrolled user. Callers should answer 401 and ask for a reconnect.
var ErrUnknownToken = errors.New("unknown access token")

// ValidationError marks malformed input to a reconciliation operation.
// It is fatal for the enclosing request and is never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError is raised at the request-handling layer when a caller asks
// for a resource it does not own or that does not exist. The two cases are
// indistinguishable on purpose.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
