package cmd

import (
	"fmt"
	"strings"
)

// FileErrors accumulates per-file failures.
type FileErrors struct {
	Errors []error
}

func (e *FileErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, "  • "+err.Error())
	}
	return fmt.Sprintf("%d file(s) failed:\n%s", len(e.Errors), strings.Join(msgs, "\n"))
}

func (e *FileErrors) Add(path string, err error) {
	e.Errors = append(e.Errors, fmt.Errorf("%s: %w", displayName(path), err))
}

func (e *FileErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *FileErrors) Unwrap() []error {
	return e.Errors
}
