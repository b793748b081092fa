package imageset

import (
	"errors"

	"gopkg.in/yaml.v3"
)

var errEmptyDocument = errors.New("document is empty")

// Parse decodes text into a Document. Only the first YAML document of a
// stream is read and unknown keys are ignored. On failure the error is a
// *ParseError and no Document is returned.
//
// Parse performs no cross-field checks: a package whose minVersion sorts
// after its maxVersion parses without complaint.
func Parse(text string) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, newParseError(err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, newParseError(errEmptyDocument)
	}

	// The record hooks below each run their own decoder, so the alias
	// expansion limit only holds across one pass over the whole tree.
	var expanded any
	if err := root.Decode(&expanded); err != nil {
		return nil, newParseError(err)
	}

	// Called directly so a null root reaches the required-key checks; the
	// decoder would zero it without calling the hook.
	var doc Document
	if err := doc.UnmarshalYAML(root.Content[0]); err != nil {
		return nil, newParseError(err)
	}
	return &doc, nil
}
