// Package errors provides error handling conventions for the snapkeep CLI.
//
// The package is a thin layer over [github.com/cockroachdb/errors]. It defines
// the failure taxonomy shared by every job, a path-carrying error type, an
// ExitError type for CLI exit code handling, and exit code constants.
//
// # Failure Taxonomy
//
//   - [ErrConfig]: missing or malformed settings; fatal before any mutation
//   - [ErrSourceNotFound]: the snapshot source file or mirror source directory is missing
//   - [ErrIO]: a create, copy, or delete failure on one path
//   - [ErrCompletedWithErrors]: the job ran to the end but some entries failed
//
// Unparseable snapshot names are not errors; the pruner records them as skipped.
//
// # Path Errors
//
// [PathError] carries the operation, the offending path, the taxonomy kind
// and the underlying OS error. Both the kind and the OS error are reachable
// through [Is]:
//
//	err := apperrors.NewIOError("remove", "/srv/mirror/a.txt", osErr)
//	errors.Is(err, apperrors.ErrIO)    // true
//	errors.Is(err, fs.ErrPermission)   // true when osErr is EACCES
//
// # Exit Codes
//
//   - ExitSuccess (0): the job completed successfully
//   - ExitUser (1): user-related error (flags, configuration)
//   - ExitSystem (2): fatal system error (missing source, I/O)
//   - ExitPartial (3): the job completed with per-entry errors
package errors
