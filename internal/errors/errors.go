// Package errors provides structured error types and exit codes for goldtest.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/AndreyAkinshin/goldtest/pkg/dbsnap"
	"github.com/AndreyAkinshin/goldtest/pkg/gold"
)

// Exit codes of the goldtest command.
const (
	ExitSuccess          = 0 // Success
	ExitFailure          = 1 // Gold mismatch or failed command
	ExitConfigError      = 2 // Invalid configuration or malformed gold text
	ExitEnvironmentError = 3 // Storage or database failure, missing tool
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindMismatch
	KindConfig
	KindParse
	KindNotFound
	KindValidation
	KindStorage
	KindEnvironment
)

func (k ErrorKind) String() string {
	switch k {
	case KindMismatch:
		return "mismatch"
	case KindConfig:
		return "config"
	case KindParse:
		return "parse"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	case KindEnvironment:
		return "environment"
	default:
		return "runtime"
	}
}

// GoldtestError is the base error type of the command.
type GoldtestError struct {
	Kind    ErrorKind
	Message string
	Path    string // gold file, if applicable
	Cause   error  // Underlying error
}

func (e *GoldtestError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

func (e *GoldtestError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *GoldtestError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindParse, KindValidation:
		return ExitConfigError
	case KindStorage, KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitFailure
	}
}

// New creates a new runtime error.
func New(message string) *GoldtestError {
	return &GoldtestError{Kind: KindRuntime, Message: message}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *GoldtestError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *GoldtestError {
	return &GoldtestError{Kind: KindConfig, Message: message}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *GoldtestError {
	return Config(fmt.Sprintf(format, args...))
}

// Environment creates a new environment error.
func Environment(message string) *GoldtestError {
	return &GoldtestError{Kind: KindEnvironment, Message: message}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *GoldtestError {
	return Environment(fmt.Sprintf(format, args...))
}

// Validationf creates a validation error with formatting.
func Validationf(format string, args ...interface{}) *GoldtestError {
	return &GoldtestError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Mismatch creates the error reported when a gold differs from its
// counterpart. The report has already been shown to the user.
func Mismatch(path string) *GoldtestError {
	return &GoldtestError{Kind: KindMismatch, Path: path, Message: "difference found"}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *GoldtestError {
	return &GoldtestError{Kind: KindRuntime, Message: message, Cause: err}
}

// NotFound creates a not found error.
func NotFound(what, name string) *GoldtestError {
	return &GoldtestError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// FromGold classifies an error returned by pkg/gold or pkg/dbsnap.
// Errors that are already a *GoldtestError are returned unchanged.
func FromGold(err error) error {
	if err == nil {
		return nil
	}

	var ge *GoldtestError
	if stderrors.As(err, &ge) {
		return err
	}

	var (
		mismatch *gold.MismatchError
		parse    *gold.ParseError
		missing  *gold.MissingGoldError
		storage  *gold.StorageError
		alloc    *gold.AllocationError
		ordering *dbsnap.OrderingError
	)
	switch {
	case stderrors.As(err, &mismatch):
		return &GoldtestError{Kind: KindMismatch, Path: mismatch.Path, Message: "difference found", Cause: err}
	case stderrors.As(err, &parse):
		return &GoldtestError{Kind: KindParse, Message: err.Error(), Cause: err}
	case stderrors.As(err, &missing):
		return &GoldtestError{Kind: KindNotFound, Message: err.Error(), Cause: err}
	case stderrors.As(err, &storage):
		return &GoldtestError{Kind: KindStorage, Message: err.Error(), Cause: err}
	case stderrors.As(err, &alloc):
		return &GoldtestError{Kind: KindValidation, Message: err.Error(), Cause: err}
	case stderrors.As(err, &ordering):
		return &GoldtestError{Kind: KindEnvironment, Message: err.Error(), Cause: err}
	}
	return &GoldtestError{Kind: KindRuntime, Message: err.Error(), Cause: err}
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ge *GoldtestError
	if stderrors.As(err, &ge) {
		return ge.ExitCode()
	}
	return ExitFailure
}
