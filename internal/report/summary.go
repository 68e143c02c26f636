package report

import (
	"slices"

	"datapacks/internal/builder"
	"datapacks/internal/status"
)

// RemainingGroup collects every status that still needs work.
const RemainingGroup = "Remaining"

// Summary is the per-run view of a job's status map.
type Summary struct {
	RunID     string `yaml:"run_id" json:"run_id"`
	Project   string `yaml:"project" json:"project"`
	Total     int    `yaml:"total" json:"total"`
	Remaining int    `yaml:"remaining" json:"remaining"`
	Success   int    `yaml:"success" json:"success"`
	Errors    int    `yaml:"errors" json:"errors"`
	Ignored   int    `yaml:"ignored" json:"ignored"`

	Counts map[status.Status]int `yaml:"counts" json:"counts"`
	// Keys groups names by status group then by DataPack type. Ready,
	// Header, Added and ReadySeparate share the Remaining group.
	Keys map[string]map[string][]string `yaml:"keys,omitempty" json:"keys,omitempty"`
	// Reasons maps failed keys to their recorded failure reason.
	Reasons map[string]string `yaml:"reasons,omitempty" json:"reasons,omitempty"`

	Unmatched            map[string][]string `yaml:"unmatched_manifest,omitempty" json:"unmatched_manifest,omitempty"`
	HeadersOnly          bool                `yaml:"headers_only" json:"headers_only"`
	SupportParallel      bool                `yaml:"support_parallel" json:"support_parallel"`
	SupportParallelAgain bool                `yaml:"support_parallel_again,omitempty" json:"support_parallel_again,omitempty"`
}

// Empty reports whether nothing was scheduled, built or failed.
func (s Summary) Empty() bool {
	return s.Remaining == 0 && s.Success == 0 && s.Errors == 0
}

// Summarize groups the statuses of job.
func Summarize(job *builder.Job) Summary {
	sum := Summary{
		Counts: make(map[status.Status]int),
		Keys:   make(map[string]map[string][]string),
	}
	if job == nil {
		return sum
	}
	sum.RunID = job.ID
	sum.Project = job.ImportPath()
	sum.Unmatched = job.UnmatchedManifest
	sum.HeadersOnly = job.HeadersOnly
	sum.SupportParallel = job.SupportParallel
	sum.SupportParallelAgain = job.SupportParallelAgain
	if job.Status == nil {
		return sum
	}

	for _, e := range job.Status.Entries() {
		sum.Total++
		sum.Counts[e.Status]++

		group := string(e.Status)
		switch {
		case status.IsRemaining(e.Status):
			group = RemainingGroup
			sum.Remaining++
		case e.Status == status.Success:
			sum.Success++
		case e.Status == status.Error:
			sum.Errors++
		case e.Status == status.Ignored:
			sum.Ignored++
		}
		if e.Reason != "" {
			if sum.Reasons == nil {
				sum.Reasons = make(map[string]string)
			}
			sum.Reasons[e.Key.String()] = e.Reason
		}

		typ, name := e.Key.Type(), e.Key.Name()
		if typ == "" {
			continue
		}
		byType := sum.Keys[group]
		if byType == nil {
			byType = make(map[string][]string)
			sum.Keys[group] = byType
		}
		if !slices.Contains(byType[typ], name) {
			byType[typ] = append(byType[typ], name)
		}
	}
	return sum
}

// Groups lists the status groups present in s in a stable order: Success,
// Error, Ignored, then Remaining.
func (s Summary) Groups() []string {
	order := []string{string(status.Success), string(status.Error), string(status.Ignored), RemainingGroup}
	out := make([]string, 0, len(order))
	for _, g := range order {
		if len(s.Keys[g]) > 0 {
			out = append(out, g)
		}
	}
	return out
}
