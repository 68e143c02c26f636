package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"datapacks/internal/datapack"
	"datapacks/internal/fileutil"
	"datapacks/internal/textutil"
)

// BatchLog records one batch handed off during a run.
type BatchLog struct {
	Number    int      `yaml:"number"`
	File      string   `yaml:"file,omitempty"`
	Keys      []string `yaml:"keys"`
	Remaining int      `yaml:"remaining"`
	// HeadersOnly marks batches from the header pass.
	HeadersOnly bool `yaml:"headers_only,omitempty"`
}

// JobLog is the YAML document written for each build run.
type JobLog struct {
	RunID      string     `yaml:"run_id"`
	StartedAt  time.Time  `yaml:"started_at"`
	FinishedAt time.Time  `yaml:"finished_at"`
	Batches    []BatchLog `yaml:"batches,omitempty"`
	Errors     []string   `yaml:"errors,omitempty"`
	Summary    Summary    `yaml:"summary"`
}

// AddBatch appends batch to the log and returns the entry's number.
func (l *JobLog) AddBatch(batch *datapack.Batch, file string, headersOnly bool) int {
	entry := BatchLog{
		Number:      len(l.Batches) + 1,
		File:        file,
		HeadersOnly: headersOnly,
	}
	if batch != nil {
		entry.Remaining = batch.Remaining
		for _, key := range batch.Keys() {
			entry.Keys = append(entry.Keys, key.String())
		}
	}
	l.Batches = append(l.Batches, entry)
	return entry.Number
}

// Records counts the keys across every logged batch.
func (l *JobLog) Records() int {
	total := 0
	for _, b := range l.Batches {
		total += len(b.Keys)
	}
	return total
}

// WriteJobLog writes log to <dir>/<run-id>.yaml and returns the path.
func WriteJobLog(dir string, log JobLog) (string, error) {
	runID := textutil.SanitizeFileName(strings.TrimSpace(log.RunID))
	if runID == "" {
		return "", errors.New("job log: run id is required")
	}
	data, err := yaml.Marshal(log)
	if err != nil {
		return "", fmt.Errorf("encode job log: %w", err)
	}
	path := filepath.Join(dir, runID+".yaml")
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write job log: %w", err)
	}
	return path, nil
}

// ReadJobLog loads a job log written by WriteJobLog.
func ReadJobLog(path string) (JobLog, error) {
	var log JobLog
	data, err := os.ReadFile(path)
	if err != nil {
		return log, fmt.Errorf("read job log: %w", err)
	}
	if err := yaml.Unmarshal(data, &log); err != nil {
		return log, fmt.Errorf("decode job log %s: %w", path, err)
	}
	return log, nil
}
