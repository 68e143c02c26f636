package report_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"datapacks/internal/builder"
	"datapacks/internal/datapack"
	"datapacks/internal/report"
	"datapacks/internal/status"
)

func newJob(t *testing.T) *builder.Job {
	t.Helper()
	job := builder.NewJob(t.TempDir())
	for _, key := range []datapack.Key{"Product2/Widget", "Product2/Gadget", "VlocityUITemplate/card", "AttributeCategory/Color", "OmniScript/Flow"} {
		job.Status.Seed(key, status.Ready)
	}
	mustDo(t, job.Status.Transition("Product2/Widget", status.Added))
	mustDo(t, job.Status.Mark("Product2/Widget", status.Success))
	mustDo(t, job.Status.Fail("VlocityUITemplate/card", "compile failed: undefined variable"))
	mustDo(t, job.Status.Mark("AttributeCategory/Color", status.Ignored))
	mustDo(t, job.Status.Transition("OmniScript/Flow", status.Header))
	return job
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSummarizeGroupsByStatusAndType(t *testing.T) {
	job := newJob(t)
	job.SupportParallelAgain = true

	sum := report.Summarize(job)
	if sum.RunID != job.ID {
		t.Fatalf("run id = %q, want %q", sum.RunID, job.ID)
	}
	if sum.Total != 5 || sum.Remaining != 2 || sum.Success != 1 || sum.Errors != 1 || sum.Ignored != 1 {
		t.Fatalf("unexpected counts %+v", sum)
	}
	wantKeys := map[string]map[string][]string{
		"Success":   {"Product2": {"Widget"}},
		"Error":     {"VlocityUITemplate": {"card"}},
		"Ignored":   {"AttributeCategory": {"Color"}},
		"Remaining": {"Product2": {"Gadget"}, "OmniScript": {"Flow"}},
	}
	if diff := cmp.Diff(wantKeys, sum.Keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if got := sum.Reasons["VlocityUITemplate/card"]; got != "compile failed: undefined variable" {
		t.Fatalf("reason = %q", got)
	}
	if diff := cmp.Diff([]string{"Success", "Error", "Ignored", "Remaining"}, sum.Groups()); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
	if !sum.SupportParallelAgain || sum.Empty() {
		t.Fatalf("unexpected flags %+v", sum)
	}
}

func TestSummarizeEmptyJob(t *testing.T) {
	sum := report.Summarize(builder.NewJob(t.TempDir()))
	if !sum.Empty() || sum.Total != 0 || len(sum.Groups()) != 0 {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
	if !report.Summarize(nil).Empty() {
		t.Fatal("nil job should summarize as empty")
	}
}

func TestWriteJobLogRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "jobs")
	job := newJob(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	log := report.JobLog{RunID: job.ID, StartedAt: started}
	batch := &datapack.Batch{
		DataPacks: []*datapack.DataPack{{Key: "OmniScript/Flow"}},
		Remaining: 3,
	}
	if n := log.AddBatch(batch, "batch-0001.json", true); n != 1 {
		t.Fatalf("first batch number = %d", n)
	}
	log.AddBatch(&datapack.Batch{DataPacks: []*datapack.DataPack{{Key: "Product2/Widget"}, {Key: "Product2/Gadget"}}}, "batch-0002.json", false)
	log.FinishedAt = started.Add(2 * time.Second)
	log.Errors = []string{"compile failed: undefined variable"}
	log.Summary = report.Summarize(job)

	if log.Records() != 3 {
		t.Fatalf("records = %d, want 3", log.Records())
	}

	path, err := report.WriteJobLog(dir, log)
	if err != nil {
		t.Fatalf("WriteJobLog: %v", err)
	}
	if filepath.Base(path) != job.ID+".yaml" {
		t.Fatalf("unexpected path %s", path)
	}

	got, err := report.ReadJobLog(path)
	if err != nil {
		t.Fatalf("ReadJobLog: %v", err)
	}
	if diff := cmp.Diff(log, got); diff != "" {
		t.Fatalf("job log mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJobLogRequiresRunID(t *testing.T) {
	if _, err := report.WriteJobLog(t.TempDir(), report.JobLog{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}
