// Package mirror makes a destination directory an exact copy of a source
// directory.
//
// A sync runs in two strictly ordered phases. The clear phase walks the
// destination depth-first and removes every entry beneath it, children
// before parents; the destination root itself is only emptied. The copy
// phase then walks the source pre-order, creating directories before their
// contents and copying each file's bytes, permission bits and modification
// time through a temp file and rename.
//
// Every entry visit produces one [event.Event] and, on failure, one
// [Failure] in the [Report]. A failing entry never stops the walk; a
// directory that cannot be read or created is reported once and its
// subtree is not visited.
//
// Symlinks are handled as follows. In the destination they are removed,
// never followed. In the source, a link to a file is copied as a regular
// file holding the target's contents, and a link to a directory is skipped
// with a skipped event so a link cycle cannot recurse forever.
package mirror
