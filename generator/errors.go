package generator

import (
	"errors"
	"fmt"

	"funnel_copy_generator/sections"
)

// ValidationError rejects a malformed snapshot or job before any LLM call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// TransientProviderError is a failed LLM call that may succeed if retried.
type TransientProviderError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *TransientProviderError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	if e.Err != nil && e.Message == "" {
		msg = e.Provider + ": " + e.Err.Error()
	}
	return msg
}

func (e *TransientProviderError) Unwrap() error { return e.Err }

// FatalPartError aborts a job: one part could not be produced.
type FatalPartError struct {
	Label    string
	Index    int
	Attempts int
	Stage    string
	Err      error
}

func (e *FatalPartError) Error() string {
	return fmt.Sprintf("%s part %q (index %d) failed after %d attempt(s): %v", e.Stage, e.Label, e.Index, e.Attempts, e.Err)
}

func (e *FatalPartError) Unwrap() error { return e.Err }

// AssemblyError is re-exported so callers only need this package.
type AssemblyError = sections.AssemblyError

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var te *TransientProviderError
	return errors.As(err, &te)
}
