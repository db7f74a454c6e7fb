// Package snapshot creates and catalogs point-in-time copies of a single data file.
//
// # Naming
//
// Every snapshot lives directly in the backup directory and is named
//
//	backup_<YYYYMMDD_HHMMSS>.<ext>
//
// where ext is the source file's extension. Fixed-width fields make the
// lexicographic order of names equal to their chronological order. The
// timestamp embedded in the name, recovered with [ParseName], is the
// authoritative creation time; file modification times are not consulted
// because they follow the source file.
//
// # Creating Snapshots
//
//	eng := snapshot.NewEngine()
//	path, err := eng.Create(ctx, "/srv/app/data/app.db", "/srv/backups")
//
// The copy is written to a hidden temp file, synced, stamped with the source's
// permission bits and modification time, optionally verified, and renamed
// into place. A failed copy never leaves a backup_* file behind.
//
// # Listing and Restoring
//
// [List] returns the snapshots in a directory, newest first.
// [Engine.Restore] copies a snapshot back over the data file atomically.
package snapshot
