package config

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors - Configuration
var (
	ErrMissingSecret = errors.New("config: required secret is not set")
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// MissingSecretError names every required secret that was absent or empty.
type MissingSecretError struct {
	Keys []string
}

// Error implements the error interface.
func (e *MissingSecretError) Error() string {
	if len(e.Keys) == 1 {
		return fmt.Sprintf("%s is not set in environment or .env file", e.Keys[0])
	}
	return fmt.Sprintf("%s are not set in environment or .env file", strings.Join(e.Keys, ", "))
}

// Is allows errors.Is(err, ErrMissingSecret).
func (e *MissingSecretError) Is(target error) bool {
	return target == ErrMissingSecret
}
