package marketplace

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/favo-app/favo-web/internal/session"
)

var (
	// ErrValidation is matched by every FieldError.
	ErrValidation = errors.New("marketplace: validation failed")
	// ErrNotAllowed is matched by every NotAllowedError.
	ErrNotAllowed = errors.New("marketplace: action not allowed")
	// ErrUnauthorized means the action needs a signed-in user.
	ErrUnauthorized = fmt.Errorf("marketplace: not signed in: %w", session.ErrNoSession)
)

// FieldError is a client-side validation failure. Nothing was sent to the backend.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("marketplace: %s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrValidation }
func (e *FieldError) HTTPStatus() int { return http.StatusBadRequest }
func (e *FieldError) PublicMessage() string { return e.Message }

// NotAllowedError reports an action that is not legal for the user on the
// request's current state.
type NotAllowedError struct {
	Action    Action
	RequestID int64
	Reason    string
}

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("marketplace: %s on pedido %d: %s", e.Action, e.RequestID, e.Reason)
}

func (e *NotAllowedError) Unwrap() error { return ErrNotAllowed }
func (e *NotAllowedError) HTTPStatus() int { return http.StatusForbidden }
func (e *NotAllowedError) PublicMessage() string { return e.Reason }
