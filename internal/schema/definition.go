package schema

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed definition.yaml
var defaultDefinition []byte

// Entry holds the policy and hashing keys that may appear at any level of
// the document. Nil pointers and nil slices mean "not set here".
type Entry struct {
	SupportParallel     *bool    `yaml:"SupportParallel,omitempty"`
	SoloDeploy          *bool    `yaml:"SoloDeploy,omitempty"`
	HeadersOnly         *bool    `yaml:"HeadersOnly,omitempty"`
	MaxDeploy           *int     `yaml:"MaxDeploy,omitempty"`
	FilterFields        []string `yaml:"FilterFields,omitempty"`
	UnhashableFields    []string `yaml:"UnhashableFields,omitempty"`
	JSONFields          []string `yaml:"JsonFields,omitempty"`
	CompiledFields      []string `yaml:"CompiledFields,omitempty"`
	SourceKeyDefinition []string `yaml:"SourceKeyDefinition,omitempty"`
}

// Section is the definition of one record sub-type or child field inside a
// DataPack type.
type Section struct {
	Entry  `yaml:",inline"`
	Fields map[string]FieldSpec `yaml:"Fields,omitempty"`
}

// TypeDef is the definition of one DataPack type. Keys other than the Entry
// keys name sections.
type TypeDef struct {
	Entry    `yaml:",inline"`
	Sections map[string]Section `yaml:",inline"`
}

// Document is the decoded definition file.
type Document struct {
	DataPacks            map[string]TypeDef `yaml:"DataPacks"`
	SObjects             map[string]Entry   `yaml:"SObjects"`
	DataPacksDefault     Entry              `yaml:"DataPacksDefault"`
	SObjectsDefault      Entry              `yaml:"SObjectsDefault"`
	GuaranteedParentKeys []string           `yaml:"GuaranteedParentKeys"`
}

// Definitions is an immutable base document plus an optional override.
type Definitions struct {
	base     *Document
	override *Document
}

// Default returns the definitions compiled into the binary.
func Default() (*Definitions, error) {
	return Parse(defaultDefinition)
}

// Load reads a definition document from path.
func Load(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Parse decodes a definition document.
func Parse(data []byte) (*Definitions, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return &Definitions{base: doc}, nil
}

// WithOverride returns definitions shadowed by the override document in
// data. Custom field names in the override are rewritten to carry the
// namespace placeholder used by exported files.
func (d *Definitions) WithOverride(data []byte) (*Definitions, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse override: %w", err)
	}
	tree = rewriteNamespace(tree)
	normalized, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode override: %w", err)
	}
	doc, err := decodeDocument(normalized)
	if err != nil {
		return nil, fmt.Errorf("override: %w", err)
	}
	return &Definitions{base: d.base, override: doc}, nil
}

// LoadOverride reads an override document from path and layers it on d.
func (d *Definitions) LoadOverride(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read override %s: %w", path, err)
	}
	return d.WithOverride(data)
}

func decodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}
	return &doc, nil
}

func (d *Definitions) layers() []*Document {
	if d.override != nil {
		return []*Document{d.override, d.base}
	}
	return []*Document{d.base}
}
