package app

import (
	"errors"
	"fmt"
)

const (
	ExitSuccess   = 0
	ExitUserError = 1
	ExitPartial   = 2
	ExitIOFailure = 4
)

var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrToolNotConfigured = errors.New("tool not configured or disabled")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

type ProviderNotFoundError struct {
	Name string
}

func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("provider not found: %s", e.Name)
}

func (e *ProviderNotFoundError) Unwrap() error { return ErrProviderNotFound }

type ToolNotConfiguredError struct {
	Tool string
}

func (e *ToolNotConfiguredError) Error() string {
	return fmt.Sprintf("tool not configured or disabled: %s", e.Tool)
}

func (e *ToolNotConfiguredError) Unwrap() error { return ErrToolNotConfigured }

type UnsupportedFormatError struct {
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported type: %s", e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// ParseFault reports a settings file that exists but could not be decoded.
// Readers collapse it into an empty document; it is never returned from
// an apply call.
type ParseFault struct {
	Path string
	Err  error
}

func (e *ParseFault) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseFault) Unwrap() error { return e.Err }

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func WrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUserError
}
