package errors

import (
	"fmt"
	"io/fs"

	crdb "github.com/cockroachdb/errors"
)

// Process exit codes.
const (
	ExitSuccess = 0
	// ExitUser covers bad flags, bad configuration and declined prompts.
	ExitUser = 1
	// ExitSystem covers I/O failures and missing sources.
	ExitSystem = 2
	// ExitPartial means the job finished but some entries failed.
	ExitPartial = 3
)

// Sentinel errors for the failure taxonomy.
var (
	// ErrConfig indicates missing or malformed settings.
	ErrConfig = crdb.New("invalid configuration")

	// ErrSourceNotFound indicates the snapshot source file or mirror source
	// directory does not exist.
	ErrSourceNotFound = crdb.New("source not found")

	// ErrIO indicates a filesystem operation failed on a specific path.
	ErrIO = crdb.New("i/o failure")

	// ErrCompletedWithErrors indicates a job ran to completion with per-entry failures.
	ErrCompletedWithErrors = crdb.New("completed with errors")
)

// PathError records a failed operation on a path together with its taxonomy kind.
// Err is usually the OS error and may be nil.
type PathError struct {
	Op   string // "copy", "remove", "mkdir"
	Path string
	Kind error // ErrIO, ErrSourceNotFound
	Err  error
}

// NewPathError creates a PathError of the given kind.
func NewPathError(kind error, op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Kind: kind, Err: err}
}

// NewIOError creates a PathError of kind ErrIO.
func NewIOError(op, path string, err error) *PathError {
	return NewPathError(ErrIO, op, path, err)
}

// NewSourceNotFound creates a PathError of kind ErrSourceNotFound.
func NewSourceNotFound(path string, err error) *PathError {
	return NewPathError(ErrSourceNotFound, "stat", path, err)
}

func (e *PathError) Error() string {
	cause := e.Err
	if cause == nil {
		cause = e.Kind
	}
	// An OS error on the same path already names it.
	if pe, ok := cause.(*fs.PathError); ok && pe.Path == e.Path {
		cause = pe.Err
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, cause)
}

// Unwrap returns the underlying error so OS errors stay reachable.
func (e *PathError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the taxonomy kind of this error.
func (e *PathError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// ExitError carries the process exit code for an error, plus an optional
// hint printed under the message.
type ExitError struct {
	Err        error
	Code       int
	Suggestion string
}

// NewExitError attaches code to err. err may be nil.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// NewUserError marks err as the caller's fault (exit 1).
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitUser, Suggestion: suggestion}
}

// NewSystemError marks err as an environment failure (exit 2).
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitSystem, Suggestion: suggestion}
}

// NewConfigError is a user error that points at the effective configuration.
func NewConfigError(err error) *ExitError {
	return NewUserError(err, "Run: snapkeep config show")
}

// NewPartialError reports a job that finished with per-entry failures (exit 3).
func NewPartialError(err error) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitPartial,
		Suggestion: "Inspect the failed entries above and rerun the job",
	}
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error to a process exit code.
// An ExitError anywhere in the chain wins; otherwise the taxonomy decides.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if crdb.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case crdb.Is(err, ErrConfig):
		return ExitUser
	case crdb.Is(err, ErrCompletedWithErrors):
		return ExitPartial
	default:
		return ExitSystem
	}
}

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }

func (e *kindError) Unwrap() error { return e.err }

func (e *kindError) Is(target error) bool { return target == e.kind }

// Mark tags err with a taxonomy kind without changing its message, so that
// Is(err, kind) holds. It returns nil when err is nil.
func Mark(err, kind error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}
