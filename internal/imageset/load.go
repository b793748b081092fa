package imageset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// ErrInvalidUTF8 is wrapped by the IOError returned for non UTF-8 content.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

// Load reads the configuration file at path and returns its text unchanged.
// Every failure is an *IOError; Load never panics or exits.
func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &IOError{Op: OpReadConfig, Source: path, Err: err}
	}
	defer f.Close()

	return readNamed(f, path)
}

// Read is Load for an already-open stream, such as stdin.
func Read(r io.Reader) (string, error) {
	return readNamed(r, "")
}

func readNamed(r io.Reader, source string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &IOError{Op: OpReadConfig, Source: source, Err: err}
	}
	if !utf8.Valid(data) {
		return "", &IOError{Op: OpReadConfig, Source: source, Err: ErrInvalidUTF8}
	}
	return string(data), nil
}

// LoadAndParse composes Load and Parse.
func LoadAndParse(path string) (*Document, error) {
	text, err := Load(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
