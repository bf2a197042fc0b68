package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is; transports map them to status codes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrEmailRequired      = fmt.Errorf("%w: email is required for authentication", ErrInvalidInput)
	ErrEmailExists        = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrWorkspaceNotFound  = fmt.Errorf("%w: user's workspace not found", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
)
