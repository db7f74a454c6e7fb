package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// New creates an error with a stack trace.
func New(msg string) error {
	return crdb.NewWithDepth(1, msg)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...any) error {
	return crdb.NewWithDepthf(1, format, args...)
}

// Wrap annotates err with a message. It returns nil when err is nil.
func Wrap(err error, msg string) error {
	return crdb.WrapWithDepth(1, err, msg)
}

// Wrapf annotates err with a formatted message. It returns nil when err is nil.
func Wrapf(err error, format string, args ...any) error {
	return crdb.WrapWithDepthf(1, err, format, args...)
}

// WithHint attaches a user-facing hint that [FlattenHints] can recover.
func WithHint(err error, hint string) error {
	return crdb.WithHint(err, hint)
}

// FlattenHints returns every hint attached to the chain, one per line.
func FlattenHints(err error) string {
	return crdb.FlattenHints(err)
}

// Is reports whether any error in err's chain matches reference.
func Is(err, reference error) bool {
	return crdb.Is(err, reference)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return crdb.As(err, target)
}

// Join combines errs into one error, discarding nils. It returns nil when every
// element is nil.
func Join(errs ...error) error {
	return crdb.Join(errs...)
}
