/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Error kinds for the melting engine. Configuration and plan problems are
sentinel-backed so callers can classify them with errors.Is; invariant violations abort
the run immediately.
*/

package melt

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every *ConfigError
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyPlan is returned when a plan has no samples behind it
	ErrEmptyPlan = errors.New("empty extraction plan")

	// ErrInconsistentPlan is returned when plan rules contradict each other or the config
	ErrInconsistentPlan = errors.New("inconsistent extraction plan")

	// ErrInvariant marks structural violations inside the engine
	ErrInvariant = errors.New("melt invariant violated")
)

// ConfigError describes one invalid configuration field
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidConfig
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func invariantf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

func inconsistentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInconsistentPlan, fmt.Sprintf(format, args...))
}
