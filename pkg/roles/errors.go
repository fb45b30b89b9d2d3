package roles

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is returned when an action is neither add nor remove
var ErrInvalidAction = errors.New("invalid action")

// PermissionError is returned when the bot is not allowed to manage a role
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

// Is reports whether target is a PermissionError
func (e *PermissionError) Is(target error) bool {
	_, ok := target.(*PermissionError)
	return ok
}

// NotFoundError is returned when a guild, member or role does not exist
type NotFoundError struct {
	// Kind is one of "Guild", "Member" or "Role"
	Kind string
	ID   string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a NotFoundError
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
