// Package errors defines the error taxonomy shared by the component registry
// and the entity metadata builder.
//
// Every failure carries one of the Kind sentinels below, so callers match on
// the category with the standard library:
//
//	if errors.Is(err, mferrors.ErrNotReady) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

var (
	// ErrResolution is returned when a component identifier cannot be turned
	// into a usable descriptor.
	ErrResolution = stderrors.New("resolution error")

	// ErrDuplicateLabel is returned when two components resolve to the same label.
	ErrDuplicateLabel = stderrors.New("duplicate label")

	// ErrConfiguration is returned when a configuration or entity declaration
	// is structurally invalid.
	ErrConfiguration = stderrors.New("configuration error")

	// ErrConflictingDefinition is returned when two different definitions
	// register under the same owning label and entity name.
	ErrConflictingDefinition = stderrors.New("conflicting definition")

	// ErrNotReady is returned when a lookup runs before the phase it depends on.
	ErrNotReady = stderrors.New("not ready")

	// ErrLookup is returned when a lookup by label or name finds nothing.
	ErrLookup = stderrors.New("lookup error")
)

// Error is a categorized registry error with optional remediation hint
type Error struct {
	Kind    error  // one of the Err* sentinels
	Subject string // identifier, label or entity the error is about
	Message string
	Hint    string
	Err     error // underlying cause, if any
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
		b.WriteString(": ")
	}
	if e.Subject != "" {
		b.WriteString(e.Subject)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// WithHint returns e with a remediation hint attached
func (e *Error) WithHint(format string, args ...any) *Error {
	e.Hint = fmt.Sprintf(format, args...)
	return e
}

// WithCause returns e wrapping cause
func (e *Error) WithCause(cause error) *Error {
	e.Err = cause
	return e
}

func newError(kind error, subject, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	}
}

// Resolution creates an ErrResolution error
func Resolution(subject, format string, args ...any) *Error {
	return newError(ErrResolution, subject, format, args...)
}

// DuplicateLabel creates an ErrDuplicateLabel error for label
func DuplicateLabel(label string) *Error {
	return newError(ErrDuplicateLabel, label,
		"component label %q is already registered", label).
		WithHint("give one of the components an explicit Label()")
}

// Configuration creates an ErrConfiguration error
func Configuration(subject, format string, args ...any) *Error {
	return newError(ErrConfiguration, subject, format, args...)
}

// ConflictingDefinition creates an ErrConflictingDefinition error
func ConflictingDefinition(subject, format string, args ...any) *Error {
	return newError(ErrConflictingDefinition, subject, format, args...)
}

// NotReady creates an ErrNotReady error
func NotReady(what string) *Error {
	return newError(ErrNotReady, "", "%s aren't loaded yet", what)
}

// Lookup creates an ErrLookup error
func Lookup(subject, format string, args ...any) *Error {
	return newError(ErrLookup, subject, format, args...)
}

// Join reports several problems of the same kind as one error, listing each
// on its own line.
func Join(kind error, subject string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return newError(kind, subject, "%d problem(s):\n- %s",
		len(problems), strings.Join(problems, "\n- "))
}
