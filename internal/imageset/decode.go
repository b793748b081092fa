package imageset

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	nullTag  = "!!null"
	mergeTag = "!!merge"
)

// checkRecord verifies that node is a mapping carrying every required key
// with a non-null value, and that the sequences under seqs hold no null items.
// yaml.v3 zeroes nulls silently, which would otherwise let a missing record
// through as an empty one.
func checkRecord(node *yaml.Node, record string, required []string, seqs ...string) error {
	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		return &KindError{Line: node.Line, Record: record, Got: describe(node)}
	}

	fields := mappingFields(node)
	for _, key := range required {
		v, ok := fields[key]
		if !ok || isNull(v) {
			return &FieldError{Line: node.Line, Column: node.Column, Record: record, Field: key}
		}
	}

	for _, key := range seqs {
		v, ok := fields[key]
		if !ok || v.Kind != yaml.SequenceNode {
			continue
		}
		for i, item := range v.Content {
			if isNull(item) {
				return &FieldError{
					Line:   item.Line,
					Column: item.Column,
					Record: record,
					Field:  fmt.Sprintf("%s[%d]", key, i),
				}
			}
		}
	}
	return nil
}

// mappingFields indexes the keys of a mapping node, following merge keys.
// Explicit keys win over merged ones.
func mappingFields(node *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], resolve(node.Content[i+1])
		if k.Kind != yaml.ScalarNode || k.ShortTag() != mergeTag {
			continue
		}
		var sources []*yaml.Node
		switch v.Kind {
		case yaml.MappingNode:
			sources = []*yaml.Node{v}
		case yaml.SequenceNode:
			for _, s := range v.Content {
				sources = append(sources, resolve(s))
			}
		}
		for _, src := range sources {
			if src.Kind != yaml.MappingNode {
				continue
			}
			for key, val := range mappingFields(src) {
				if _, seen := fields[key]; !seen {
					fields[key] = val
				}
			}
		}
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := node.Content[i]
		if k.Kind != yaml.ScalarNode || k.ShortTag() == mergeTag {
			continue
		}
		fields[k.Value] = resolve(node.Content[i+1])
	}
	return fields
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	node = resolve(node)
	return node.Kind == yaml.ScalarNode && node.ShortTag() == nullTag
}

func describe(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		if node.ShortTag() == nullTag {
			return "null"
		}
		return fmt.Sprintf("scalar %q", node.Value)
	case yaml.DocumentNode:
		return "a document"
	default:
		return "an unexpected node"
	}
}
