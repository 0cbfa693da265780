// Package apperr defines the error categories surfaced at the load,
// generate and submit boundaries. Each category is a distinct type so
// callers can branch with errors.As (or the Is* helpers) after wrapping.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports missing or invalid external configuration.
type ConfigError struct {
	Component string
	Fields    []string
	Message   string
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "missing required configuration"
	}
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Component, msg)
}

// IntegrityReason classifies a DataIntegrityError.
type IntegrityReason string

const (
	ReasonEmptyCollection  IntegrityReason = "empty_collection"
	ReasonNoOwnerMapped    IntegrityReason = "no_owner_mapped"
	ReasonEmptyPortfolio   IntegrityReason = "empty_portfolio"
	ReasonUnknownReference IntegrityReason = "unknown_reference"
)

// DataIntegrityError reports that the reference data cannot support the
// requested operation. Entity names the missing collection or record.
type DataIntegrityError struct {
	Reason  IntegrityReason
	Entity  string
	Message string
}

func (e *DataIntegrityError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Reason {
	case ReasonNoOwnerMapped:
		return fmt.Sprintf("no owner mapped for property %s", e.Entity)
	case ReasonEmptyPortfolio:
		return fmt.Sprintf("no properties in portfolio %q", e.Entity)
	case ReasonEmptyCollection:
		return fmt.Sprintf("no %s found in reference data", e.Entity)
	default:
		return fmt.Sprintf("data integrity error: %s", e.Entity)
	}
}

// ValidationError reports required inputs that were not supplied.
type ValidationError struct {
	Subject string
	Missing []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" && len(e.Missing) == 0 {
		return e.Message
	}
	prefix := "missing required field"
	if len(e.Missing) > 1 {
		prefix += "s"
	}
	if e.Subject != "" {
		prefix += " for " + e.Subject
	}
	msg := prefix + ": " + strings.Join(e.Missing, ", ")
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	return msg
}

// TransportError reports a failure to reach a remote collaborator.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsConfigError reports whether err (or any error in its chain) is a ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsDataIntegrityError reports whether err (or any error in its chain) is a DataIntegrityError.
func IsDataIntegrityError(err error) bool {
	var target *DataIntegrityError
	return errors.As(err, &target)
}

// IsValidationError reports whether err (or any error in its chain) is a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsTransportError reports whether err (or any error in its chain) is a TransportError.
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IntegrityReasonOf returns the reason of the first DataIntegrityError in
// err's chain, or the empty string.
func IntegrityReasonOf(err error) IntegrityReason {
	var target *DataIntegrityError
	if errors.As(err, &target) {
		return target.Reason
	}
	return ""
}
