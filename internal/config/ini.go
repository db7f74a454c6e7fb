package config

import (
	"strings"

	"gopkg.in/ini.v1"
)

// readINI flattens an INI file into nested maps keyed by lower-cased section
// and key names, the shape viper expects. Keys outside any section become
// top-level keys.
func readINI(file string) (map[string]any, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		Insensitive:         true,
	}, file)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	for _, sec := range f.Sections() {
		if strings.EqualFold(sec.Name(), ini.DefaultSection) {
			for _, key := range sec.Keys() {
				out[strings.ToLower(key.Name())] = key.String()
			}
			continue
		}

		values := make(map[string]any, len(sec.Keys()))
		for _, key := range sec.Keys() {
			values[strings.ToLower(key.Name())] = key.String()
		}
		out[strings.ToLower(sec.Name())] = values
	}
	return out, nil
}
