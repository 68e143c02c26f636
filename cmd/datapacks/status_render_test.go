package main

import (
	"strings"
	"testing"

	"datapacks/internal/report"
	"datapacks/internal/status"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Product2/Widget", statusError, "compile failed", false)
	if !strings.HasPrefix(line, "  Product2/Widget:") {
		t.Fatalf("unexpected prefix %q", line)
	}
	if !strings.HasSuffix(line, "[ERROR] compile failed") {
		t.Fatalf("unexpected suffix %q", line)
	}
	colored := renderStatusLine("Product2/Widget", statusOK, "", true)
	if !strings.HasPrefix(colored, kindStyles[statusOK].color) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green line, got %q", colored)
	}
}

func TestGroupKind(t *testing.T) {
	cases := map[string]statusKind{
		string(status.Success): statusOK,
		string(status.Error):   statusError,
		string(status.Ignored): statusWarn,
		report.RemainingGroup:  statusWarn,
		"Other":                statusInfo,
	}
	for group, want := range cases {
		if got := groupKind(group); got != want {
			t.Fatalf("groupKind(%q) = %v, want %v", group, got, want)
		}
	}
}

func TestRenderSummaryCounts(t *testing.T) {
	sum := report.Summary{
		Success: 2, Errors: 1, Remaining: 1, SupportParallel: true,
		Keys: map[string]map[string][]string{
			"Success":   {"Product2": {"Widget", "Gadget"}},
			"Error":     {"VlocityUITemplate": {"card"}},
			"Remaining": {"OmniScript": {"Flow"}},
		},
		Reasons:   map[string]string{"VlocityUITemplate/card": "compile failed"},
		Unmatched: map[string][]string{"Product2": {"Missing"}},
	}
	out := renderSummary(sum, false)
	for _, want := range []string{
		"== Build summary ==",
		"2 successful, 1 errors, 1 remaining",
		"VlocityUITemplate/card:",
		"Product2: no match for Missing",
		"Total",
	} {
		requireContains(t, out, want)
	}
	if strings.Contains(out, "Parallel:") {
		t.Fatal("parallel notice should only show when parallel mode is off")
	}

	rows, footer := summaryRows(sum)
	if len(rows) != 3 {
		t.Fatalf("expected one row per type, got %v", rows)
	}
	if strings.Join(footer, ",") != "Total,2,1,0,1" {
		t.Fatalf("unexpected footer %v", footer)
	}

	if !strings.Contains(renderSummary(report.Summary{}, false), "nothing to build") {
		t.Fatal("empty summary should say nothing to build")
	}
}
