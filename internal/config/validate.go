package config

import (
	"fmt"
	"strings"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// FieldError describes one missing or malformed key.
type FieldError struct {
	Key    string
	Value  any
	Reason string
}

func (e FieldError) Error() string {
	if e.Value == nil || e.Value == "" {
		return e.Key + ": " + e.Reason
	}
	return fmt.Sprintf("%s: %s (got %v)", e.Key, e.Reason, e.Value)
}

// ValidationError lists every problem found in a configuration. It matches
// [errors.ErrConfig].
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) add(key string, value any, reason string) {
	e.Fields = append(e.Fields, FieldError{Key: key, Value: value, Reason: reason})
}

func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Is reports whether target is errors.ErrConfig.
func (e *ValidationError) Is(target error) bool {
	return target == errors.ErrConfig
}

// Has reports whether key is among the invalid fields.
func (e *ValidationError) Has(key string) bool {
	for _, f := range e.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}
