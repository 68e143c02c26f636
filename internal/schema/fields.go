package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the flavour of a file-reference field.
type Kind int

const (
	// KindScalar inlines the referenced file's raw content.
	KindScalar Kind = iota
	// KindObject inlines one or more child JSON files, always as a list.
	KindObject
	// KindList inlines a child JSON file holding a list of records.
	KindList
	// KindCompiled inlines source text and compiles it into a sibling field.
	KindCompiled
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	case KindCompiled:
		return "compiled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FieldSpec describes how one file-reference field is resolved.
type FieldSpec struct {
	Kind Kind
	// FileType is the file extension for scalar fields and the compiler
	// language for compiled fields.
	FileType string
	// CompiledField names the field receiving compiler output.
	CompiledField string
}

// UnmarshalYAML accepts either a bare file type ("object", "list", "json",
// "html", ...) or a mapping with FileType and CompiledField.
func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		value := strings.TrimSpace(node.Value)
		switch strings.ToLower(value) {
		case "object":
			*f = FieldSpec{Kind: KindObject}
		case "list":
			*f = FieldSpec{Kind: KindList}
		case "":
			return fmt.Errorf("line %d: empty field definition", node.Line)
		default:
			*f = FieldSpec{Kind: KindScalar, FileType: value}
		}
		return nil
	case yaml.MappingNode:
		var raw struct {
			FileType      string `yaml:"FileType"`
			CompiledField string `yaml:"CompiledField"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw.CompiledField) == "" {
			if raw.FileType == "" {
				return fmt.Errorf("line %d: field definition needs FileType", node.Line)
			}
			*f = FieldSpec{Kind: KindScalar, FileType: raw.FileType}
			return nil
		}
		*f = FieldSpec{Kind: KindCompiled, FileType: raw.FileType, CompiledField: raw.CompiledField}
		return nil
	default:
		return fmt.Errorf("line %d: unsupported field definition", node.Line)
	}
}

// MarshalYAML writes the field back in the form UnmarshalYAML accepts.
func (f FieldSpec) MarshalYAML() (any, error) {
	switch f.Kind {
	case KindObject:
		return "object", nil
	case KindList:
		return "list", nil
	case KindCompiled:
		return map[string]string{"FileType": f.FileType, "CompiledField": f.CompiledField}, nil
	default:
		return f.FileType, nil
	}
}
