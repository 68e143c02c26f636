package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// Project writes DataPack directories under a root for tests.
type Project struct {
	t    testing.TB
	Root string
}

// NewProject returns a builder rooted at root, creating it if needed.
func NewProject(t testing.TB, root string) *Project {
	t.Helper()
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir project: %v", err)
	}
	return &Project{t: t, Root: root}
}

// Pack describes one record directory.
type Pack struct {
	Type  string
	Name  string
	Label string
	// Data is written as <label>_DataPack.json.
	Data map[string]any
	// Parents is written as <label>_ParentKeys.json when non-nil.
	Parents []string
	// Files are extra sibling files keyed by file name. Non-string values
	// are JSON encoded.
	Files map[string]any
}

// Add writes pack and returns its directory.
func (p *Project) Add(pack Pack) string {
	p.t.Helper()
	label := pack.Label
	if label == "" {
		label = pack.Name
	}
	dir := filepath.Join(p.Root, pack.Type, pack.Name)
	if pack.Data != nil {
		p.WriteJSON(filepath.Join(dir, label+"_DataPack.json"), pack.Data)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		p.t.Fatalf("mkdir %s: %v", dir, err)
	}
	if pack.Parents != nil {
		p.WriteJSON(filepath.Join(dir, label+"_ParentKeys.json"), pack.Parents)
	}
	for name, content := range pack.Files {
		target := filepath.Join(dir, name)
		if text, ok := content.(string); ok {
			p.WriteText(target, text)
			continue
		}
		p.WriteJSON(target, content)
	}
	return dir
}

// WriteJSON encodes value into path.
func (p *Project) WriteJSON(path string, value any) {
	p.t.Helper()
	data, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		p.t.Fatalf("encode %s: %v", path, err)
	}
	p.WriteText(path, string(data))
}

// WriteText writes content into path, creating parent directories.
func (p *Project) WriteText(path, content string) {
	p.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		p.t.Fatalf("write %s: %v", path, err)
	}
}

// SObject returns a minimal metadata record of the given record type.
func SObject(recordType, name string, fields map[string]any) map[string]any {
	rec := map[string]any{
		"VlocityDataPackType":      "SObject",
		"VlocityRecordSObjectType": recordType,
		"Name":                     name,
	}
	for k, v := range fields {
		rec[k] = v
	}
	return rec
}
