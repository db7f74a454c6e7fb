// Package logging builds the slog handlers snapkeep logs through.
//
// Terminal output goes through [Handler], one colored line per record, or
// slog's JSON handler when --log-format=json:
//
//	h := logging.NewFormatHandler(logging.FormatText, os.Stderr,
//		&slog.HandlerOptions{Level: logging.LevelFromVerbosity(2)})
//
// Scheduled runs also append JSON records to a [RotatingFile], which opens a
// new file per day and prunes old ones. [NewRotatingFile] defers creating
// anything until the first record. [NewMultiHandler] fans records out to
// both, and [NewFilterHandler] drops records whose string values contain an
// excluded substring:
//
//	f := logging.NewRotatingFile(dir, logging.DefaultLogName, 7)
//	defer f.Close()
//	h = logging.NewMultiHandler(h, slog.NewJSONHandler(f, nil))
//	logger := slog.New(logging.NewFilterHandler(h, ".snapkeep-"))
//
// Loggers travel in a context via [NewContext] and [FromContext]. Tests use
// [ForTest], whose output shows up only for failing or verbose tests.
package logging
