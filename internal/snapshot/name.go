package snapshot

import (
	"strings"
	"time"
)

const (
	// Prefix starts every snapshot file name.
	Prefix = "backup_"

	// DefaultExt is used when the source file has no extension.
	DefaultExt = "bak"

	timestampLayout = "20060102_150405"
	dateLayout      = "20060102"
)

// Name returns the snapshot file name for an instant, e.g. backup_20240315_093000.db.
// ext may be given with or without its leading dot.
func Name(t time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultExt
	}
	return Prefix + t.Format(timestampLayout) + "." + ext
}

// ParseName recovers the creation time embedded in a snapshot file name.
// It is the only place that knows the name encoding.
//
// Names carrying only a valid date field (backup_20240315.db,
// backup_20240315_x.db) parse to midnight of that date. Anything else
// reports false; callers treat such entries as foreign.
func ParseName(name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, Prefix)
	if !ok {
		return time.Time{}, false
	}

	stem, _, _ := strings.Cut(rest, ".")
	if t, err := time.ParseInLocation(timestampLayout, stem, time.Local); err == nil {
		return t, true
	}

	datePart, _, _ := strings.Cut(stem, "_")
	if len(datePart) != len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, datePart, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
