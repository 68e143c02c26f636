package discovery_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"datapacks/internal/datapack"
	"datapacks/internal/discovery"
	"datapacks/internal/filecache"
	"datapacks/internal/logging"
	"datapacks/internal/schema"
	"datapacks/internal/status"
	"datapacks/internal/testsupport"
)

func newScanner(t *testing.T) (*discovery.Scanner, *filecache.Cache) {
	t.Helper()
	defs, err := schema.Default()
	if err != nil {
		t.Fatalf("schema.Default: %v", err)
	}
	cache := filecache.New()
	return discovery.New(defs, cache, logging.NewNop()), cache
}

func buildTree(t *testing.T) *testsupport.Project {
	t.Helper()
	project := testsupport.NewProject(t, t.TempDir())
	project.Add(testsupport.Pack{
		Type: "TypeA", Name: "Foo",
		Data: testsupport.SObject("TypeA__c", "Foo", nil),
	})
	project.Add(testsupport.Pack{
		Type: "TypeB", Name: "Bar",
		Data:    testsupport.SObject("TypeB__c", "Bar", nil),
		Parents: []string{"TypeA/Foo"},
		Files:   map[string]any{"logo.png": "\x89PNG"},
	})
	project.Add(testsupport.Pack{Type: "TypeB", Name: "Broken"})
	return project
}

func TestScanSeedsEveryRecord(t *testing.T) {
	scanner, cache := newScanner(t)
	project := buildTree(t)

	result, err := scanner.Scan(context.Background(), discovery.Options{Root: project.Root, Workers: 2})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	m := status.NewMap()
	if n := result.Seed(m); n != 3 {
		t.Fatalf("Seed inserted %d keys, want 3", n)
	}
	got := m.Entries()
	want := []status.Entry{
		{Key: "TypeA/Foo", Status: status.Ready},
		{Key: "TypeB/Bar", Status: status.Ready},
		{Key: "TypeB/Broken", Status: status.Error},
	}
	if diff := cmp.Diff(want, got, cmpIgnoreReason()); diff != "" {
		t.Fatalf("status entries mismatch (-want +got):\n%s", diff)
	}
	if m.Reason("TypeB/Broken") == "" {
		t.Fatal("expected a failure reason for the record without metadata")
	}

	idx := result.Index()
	bar := idx["TypeB/Bar"]
	if bar.Label != "Bar" || bar.Dir != filepath.Join(project.Root, "TypeB", "Bar") {
		t.Fatalf("unexpected index entry %+v", bar)
	}
	if !errors.Is(idx["TypeB/Broken"].Err, discovery.ErrNoLabel) {
		t.Fatalf("expected ErrNoLabel, got %v", idx["TypeB/Broken"].Err)
	}

	entry, ok := cache.Get(filepath.Join(project.Root, "TYPEB", "bar", "LOGO.png"))
	if !ok {
		t.Fatal("expected binary sibling file in cache under a case-folded key")
	}
	if entry.Encoding != filecache.Base64 {
		t.Fatalf("encoding = %s, want base64", entry.Encoding)
	}
	if result.Files != 4 {
		t.Fatalf("files = %d, want 4", result.Files)
	}
}

func cmpIgnoreReason() cmp.Option {
	return cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Reason"
	}, cmp.Ignore())
}

func TestSeedKeepsExistingStatus(t *testing.T) {
	scanner, _ := newScanner(t)
	project := buildTree(t)

	m := status.NewMap()
	m.Seed("TypeA/Foo", status.Ready)
	if err := m.Mark("TypeA/Foo", status.Success); err != nil {
		t.Fatal(err)
	}

	result, err := scanner.Scan(context.Background(), discovery.Options{Root: project.Root})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	result.Seed(m)
	if s, _ := m.Get("TypeA/Foo"); s != status.Success {
		t.Fatalf("status = %s, want Success to survive re-discovery", s)
	}
}

func TestScanAppliesManifestList(t *testing.T) {
	scanner, _ := newScanner(t)
	project := buildTree(t)
	project.Add(testsupport.Pack{
		Type: "TypeA", Name: "My-Widget",
		Data: testsupport.SObject("TypeA__c", "My Widget", nil),
	})

	manifest := discovery.Manifest{
		"TypeA": []any{"My Widget"},
		"TypeC": []any{"Ghost"},
	}
	result, err := scanner.Scan(context.Background(), discovery.Options{Root: project.Root, Manifest: manifest})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	m := status.NewMap()
	result.Seed(m)
	if diff := cmp.Diff([]datapack.Key{"TypeA/My-Widget"}, m.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string][]string{"TypeC": {"Ghost"}}, result.Unmatched); diff != "" {
		t.Fatalf("unmatched mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestMatch(t *testing.T) {
	manifest := discovery.Manifest{
		"List":    []string{"Alpha Beta"},
		"Payload": map[string]any{"Id": "Widget-2"},
		"Text":    "Gamma",
	}
	cases := []struct {
		dataPackType, name string
		want               bool
	}{
		{"List", "Alpha-Beta", true},
		{"List", "Alpha", false},
		{"Payload", "Widget", true},
		{"Payload", "Other", false},
		{"Text", "Gamma", true},
		{"Missing", "Gamma", false},
	}
	for _, tc := range cases {
		if got := manifest.Match(tc.dataPackType, tc.name); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.dataPackType, tc.name, got, tc.want)
		}
	}
}

func TestScanCollectsDeploySummary(t *testing.T) {
	scanner, _ := newScanner(t)
	project := testsupport.NewProject(t, t.TempDir())
	project.Add(testsupport.Pack{
		Type: "Product2", Name: "Widget", Label: "Product2_Widget",
		Data: testsupport.SObject("Product2", "Widget", map[string]any{
			"ProductCode": "W-1",
			"Description": "not part of the summary",
		}),
	})

	result, err := scanner.Scan(context.Background(), discovery.Options{Root: project.Root})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := datapack.Record{
		"VlocityRecordSObjectType": "Product2",
		"Name":                     "Widget",
		"ProductCode":              "W-1",
	}
	if diff := cmp.Diff(want, result.AllDeploySummary["Product2/Widget"]); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if len(result.PreDeploySummary) != 1 {
		t.Fatalf("pre-deploy summary has %d entries, want 1", len(result.PreDeploySummary))
	}
}

func TestLabel(t *testing.T) {
	dir := t.TempDir()
	if _, err := discovery.Label(dir); !errors.Is(err, discovery.ErrNoLabel) {
		t.Fatalf("expected ErrNoLabel, got %v", err)
	}
	for _, name := range []string{"One_DataPack.json", "One_ParentKeys.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	label, err := discovery.Label(dir)
	if err != nil || label != "One" {
		t.Fatalf("Label = %q, %v", label, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Two_DataPack.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := discovery.Label(dir); !errors.Is(err, discovery.ErrAmbiguousLabel) {
		t.Fatalf("expected ErrAmbiguousLabel, got %v", err)
	}
}
