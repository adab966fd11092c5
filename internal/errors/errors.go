package errors

import (
	"errors"
	"fmt"
)

// Common error types for the link broker
var (
	// Link session errors
	ErrSessionNotFound = errors.New("link session not found")
	ErrSessionExpired  = errors.New("link session expired")

	// State parameter errors
	ErrInvalidState  = errors.New("invalid or corrupted state parameter")
	ErrNonceMismatch = errors.New("invalid session nonce")

	// Flow initiation errors
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrOriginRequired   = errors.New("origin header required")
	ErrProviderNotFound = errors.New("unknown provider")

	// Callback errors
	ErrMissingParameters = errors.New("missing OAuth parameters")
	ErrExchangeFailed    = errors.New("token exchange failed")

	// Persistence errors
	ErrAccountNotFound = errors.New("linked account not found")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
