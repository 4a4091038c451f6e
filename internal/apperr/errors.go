// Package apperr defines the typed failure taxonomy shared by every
// component: a tagged error variant carrying an exit code and an
// operator-facing remediation hint, in place of an exception hierarchy.
package apperr

import (
	"errors"
	"fmt"
)

// Process exit codes, one per failure kind.
const (
	ExitOK             = 0
	ExitConfigError    = 2
	ExitDbConnectivity = 3
	ExitValidation     = 4
	ExitPrint          = 5
	ExitInternal       = 10
)

// Kind identifies which of the five failure families an Error belongs to.
type Kind string

const (
	KindConfig         Kind = "CONFIG"
	KindDbConnectivity Kind = "DB_CONNECTIVITY"
	KindValidation     Kind = "VALIDATION"
	KindPrint          Kind = "PRINT"
	KindInternal       Kind = "INTERNAL"
)

// Error is the single concrete error type every component returns.
type Error struct {
	Kind            Kind
	Message         string
	Details         map[string]string
	ExitCode        int
	RemediationHint string
	Err             error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches a single diagnostic key/value to the error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func newError(kind Kind, message string, exitCode int, hint string) *Error {
	return &Error{
		Kind:            kind,
		Message:         message,
		ExitCode:        exitCode,
		RemediationHint: hint,
	}
}

// ConfigError reports a missing/malformed configuration key, or a
// routing rule naming an unknown or disabled printer.
func ConfigError(message string) *Error {
	return newError(KindConfig, message, ExitConfigError,
		"check the named configuration key or reference-data file and retry")
}

// DbConnectivityError reports an I/O or SQLSTATE failure talking to the
// relational store.
func DbConnectivityError(message string) *Error {
	return newError(KindDbConnectivity, message, ExitDbConnectivity,
		"verify database connectivity (host, port, credentials) and retry")
}

// ValidationError reports invalid caller input.
func ValidationError(message string) *Error {
	return newError(KindValidation, message, ExitValidation,
		"correct the input and retry")
}

// PrintError reports a transport failure after retry exhaustion, or an
// interrupted retry sleep.
func PrintError(message string) *Error {
	return newError(KindPrint, message, ExitPrint,
		"check printer connectivity and rerun with --dry-run to isolate")
}

// InternalError reports an unexpected failure with no better home.
func InternalError(message string) *Error {
	return newError(KindInternal, message, ExitInternal,
		"this is unexpected; capture logs and file a defect")
}

// As reports whether err is (or wraps) an *Error and, if so, returns it.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ExitCodeFor returns the exit code to use for err: the Error's own
// code if err is one, ExitInternal otherwise.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if appErr, ok := As(err); ok {
		return appErr.ExitCode
	}
	return ExitInternal
}
