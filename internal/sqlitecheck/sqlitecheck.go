// Package sqlitecheck verifies that a file is a readable, uncorrupted SQLite
// database. It backs the optional snapshot and restore verification.
package sqlitecheck

import (
	"context"
	"database/sql"
	"net/url"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// ErrCorrupt is returned when SQLite reports problems with the database file.
var ErrCorrupt = errors.New("sqlite database failed integrity check")

// QuickCheck opens the database at path read-only and runs PRAGMA quick_check.
// The path must be on the OS filesystem.
func QuickCheck(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}
	dsn := (&url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "mode=ro",
	}).String()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, "PRAGMA quick_check")
	if err != nil {
		return errors.Wrapf(errors.Mark(err, ErrCorrupt), "quick_check %s", path)
	}
	defer func() { _ = rows.Close() }()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return errors.Wrapf(err, "quick_check %s", path)
		}
		if line != "ok" {
			problems = append(problems, line)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrapf(errors.Mark(err, ErrCorrupt), "quick_check %s", path)
	}

	if len(problems) > 0 {
		return errors.Wrapf(ErrCorrupt, "%s: %v", path, problems)
	}
	return nil
}
