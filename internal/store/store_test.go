package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"datapacks/internal/datapack"
	"datapacks/internal/status"
	"datapacks/internal/store"
	"datapacks/internal/testsupport"
)

func TestSaveAndLoadStatusesKeepsOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entries := []status.Entry{
		{Key: "TypeB/Bar", Status: status.Success},
		{Key: "TypeA/Foo", Status: status.Error, Reason: "no _DataPack.json metadata file"},
		{Key: "Tree/Oak", Status: status.Header},
	}
	if err := st.SaveStatuses(ctx, "/projects/one", entries); err != nil {
		t.Fatalf("SaveStatuses: %v", err)
	}
	if err := st.SaveStatuses(ctx, "/projects/two", entries[:1]); err != nil {
		t.Fatalf("SaveStatuses: %v", err)
	}

	got, err := st.LoadStatuses(ctx, "/projects/one")
	if err != nil {
		t.Fatalf("LoadStatuses: %v", err)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}

	// Saving again replaces rather than appends.
	if err := st.SaveStatuses(ctx, "/projects/one", entries[2:]); err != nil {
		t.Fatalf("SaveStatuses: %v", err)
	}
	got, err = st.LoadStatuses(ctx, "/projects/one")
	if err != nil {
		t.Fatalf("LoadStatuses: %v", err)
	}
	if len(got) != 1 || got[0].Key != "Tree/Oak" {
		t.Fatalf("expected replaced statuses, got %+v", got)
	}

	m := status.NewMap()
	if err := m.Restore(got); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if s, _ := m.Get("Tree/Oak"); s != status.Header {
		t.Fatalf("restored status = %s", s)
	}
}

func TestRetryErroredAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entries := []status.Entry{
		{Key: "TypeA/Foo", Status: status.Error, Reason: "boom"},
		{Key: "TypeA/Bar", Status: status.Error},
		{Key: "TypeA/Baz", Status: status.Success},
	}
	if err := st.SaveStatuses(ctx, "p", entries); err != nil {
		t.Fatalf("SaveStatuses: %v", err)
	}

	moved, err := st.RetryErrored(ctx, "p")
	if err != nil {
		t.Fatalf("RetryErrored: %v", err)
	}
	if moved != 2 {
		t.Fatalf("moved = %d, want 2", moved)
	}
	got, err := st.LoadStatuses(ctx, "p")
	if err != nil {
		t.Fatalf("LoadStatuses: %v", err)
	}
	want := []status.Entry{
		{Key: "TypeA/Foo", Status: status.Ready},
		{Key: "TypeA/Bar", Status: status.Ready},
		{Key: "TypeA/Baz", Status: status.Success},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}

	cleared, err := st.Clear(ctx, "p")
	if err != nil || cleared != 3 {
		t.Fatalf("Clear = %d, %v", cleared, err)
	}
	if got, _ := st.LoadStatuses(ctx, "p"); len(got) != 0 {
		t.Fatalf("expected no statuses after Clear, got %+v", got)
	}
}

func TestRunsRecordOutcome(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.BeginRun(ctx, "run-1", "p"); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := st.BeginRun(ctx, "run-2", "p"); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := st.FinishRun(ctx, "run-1", 3, 12, "compile failed"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := st.FinishRun(ctx, "missing", 0, 0, ""); err == nil {
		t.Fatal("expected error finishing an unknown run")
	}

	runs, err := st.Runs(ctx, "p", 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if runs[0].Finished() {
		t.Fatal("run-2 should still be open")
	}
	first := runs[1]
	if !first.Finished() || first.Batches != 3 || first.Records != 12 || first.ErrorMessage != "compile failed" {
		t.Fatalf("unexpected run-1 %+v", first)
	}

	deleted, err := st.DeleteRuns(ctx, []string{"run-1", "missing"})
	if err != nil || deleted != 1 {
		t.Fatalf("DeleteRuns = %d, %v", deleted, err)
	}
	runs, err = st.Runs(ctx, "p", 10)
	if err != nil || len(runs) != 1 || runs[0].ID != "run-2" {
		t.Fatalf("unexpected runs after delete %+v (%v)", runs, err)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if err := st.SaveStatuses(context.Background(), "p", nil); err != nil {
		t.Fatalf("SaveStatuses: %v", err)
	}
	reopened, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Close()

	bumped, err := store.OpenPath(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	defer bumped.Close()
	if err := store.SetSchemaVersionForTest(bumped, 99); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if _, err := store.OpenPath(cfg.DatabasePath()); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRequeueMovesChangedKeys(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entries := []status.Entry{
		{Key: "Product2/Widget", Status: status.Success},
		{Key: "Product2/Gadget", Status: status.Error, Reason: "boom"},
		{Key: "OmniScript/Flow", Status: status.Success},
	}
	if err := st.SaveStatuses(ctx, "p", entries); err != nil {
		t.Fatalf("SaveStatuses: %v", err)
	}

	moved, err := st.Requeue(ctx, "p", []datapack.Key{"Product2/Widget", "Product2/Gadget", "Missing/Key"})
	if err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if moved != 2 {
		t.Fatalf("moved = %d, want 2", moved)
	}
	got, _ := st.LoadStatuses(ctx, "p")
	want := []status.Entry{
		{Key: "Product2/Widget", Status: status.Ready},
		{Key: "Product2/Gadget", Status: status.Ready},
		{Key: "OmniScript/Flow", Status: status.Success},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}

	moved, err = st.RequeueAll(ctx, "p")
	if err != nil || moved != 1 {
		t.Fatalf("RequeueAll = %d, %v", moved, err)
	}
	if moved, _ := st.Requeue(ctx, "p", nil); moved != 0 {
		t.Fatalf("empty requeue moved %d", moved)
	}
}
