package imageset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// OpReadConfig names the loader phase in IOError messages.
const OpReadConfig = "reading config"

// ErrMissingField classifies parse failures caused by an absent or null
// required key. Use errors.Is(err, ErrMissingField).
var ErrMissingField = errors.New("missing required field")

// IOError is returned when a configuration source cannot be read.
type IOError struct {
	Op     string // high-level operation, always OpReadConfig from this package
	Source string // path or stream name
	Err    error
}

func (e *IOError) Error() string {
	return e.Op + ": " + strings.ToLower(e.Err.Error())
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError is returned when text cannot be decoded into a Document.
type ParseError struct {
	Line int // 1-based, 0 when the decoder did not report one
	Err  error
}

func (e *ParseError) Error() string {
	return "parsing config: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// FieldError reports a required key that is missing or null.
type FieldError struct {
	Line   int
	Column int
	Record string // e.g. "Document", "Channel"
	Field  string // wire key, e.g. "apiVersion"
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("line %d: %s: %s %q", e.Line, e.Record, ErrMissingField, e.Field)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrMissingField
}

// newParseError wraps a decoder error, lifting the line number out of the
// errors this package produces.
func newParseError(err error) *ParseError {
	pe := &ParseError{Err: err}
	var fe *FieldError
	var ke *KindError
	var te *yaml.TypeError
	switch {
	case errors.As(err, &fe):
		pe.Line = fe.Line
	case errors.As(err, &ke):
		pe.Line = ke.Line
	case errors.As(err, &te) && len(te.Errors) > 0:
		// Entries look like "line 7: cannot unmarshal ...".
		pe.Line = lineNumber(te.Errors[0], "")
	default:
		pe.Line = lineNumber(err.Error(), "yaml: ")
	}
	return pe
}

// lineNumber reads N from a message shaped like prefix+"line N: ...".
// It returns 0 when the message carries no line.
func lineNumber(msg, prefix string) int {
	rest, ok := strings.CutPrefix(msg, prefix+"line ")
	if !ok {
		return 0
	}
	digits, _, ok := strings.Cut(rest, ":")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// KindError reports a node of the wrong YAML kind where a record was expected.
type KindError struct {
	Line   int
	Record string
	Got    string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("line %d: %s: expected a mapping, got %s", e.Line, e.Record, e.Got)
}
