// Package paths resolves the locations snapkeep reads and writes.
//
// The per-user config directory follows the XDG base directory layout through
// github.com/adrg/xdg:
//
//	ConfigDir() ~/.config/snapkeep
//
// Config files are looked up as config.ini, config.yaml, config.yml or
// config.toml, first in the working directory and then in ConfigDir:
//
//	path := paths.FindConfig(paths.ConfigSearchDirs()...)
//
// [Resolve] turns configured paths into absolute ones, expanding ~ and
// anchoring relative paths at a base directory, normally the directory of
// the config file they came from.
package paths
