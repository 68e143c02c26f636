package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"datapacks/internal/logging"
)

// Entry is one decoded line of the JSON log file.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	RunID     string
	Key       string
	Fields    map[string]any
}

// ParseLine decodes a JSON log line. Lines that are not JSON objects are
// rejected.
func ParseLine(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	e := Entry{Fields: make(map[string]any)}
	for k, v := range raw {
		s, _ := v.(string)
		switch k {
		case "ts":
			e.Time, _ = time.Parse(time.RFC3339, s)
		case "level":
			_ = e.Level.UnmarshalText([]byte(s))
		case "msg":
			e.Message = s
		case logging.FieldComponent:
			e.Component = s
		case logging.FieldRunID:
			e.RunID = s
		case logging.FieldDataPackKey:
			e.Key = s
		default:
			e.Fields[k] = v
		}
	}
	return e, true
}

// Format renders e as a single console line.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.UTC().Format(time.RFC3339))
		b.WriteByte(' ')
	}
	b.WriteString(e.Level.String())
	b.WriteByte(' ')
	if e.Component != "" {
		b.WriteString(e.Component)
		b.WriteString(": ")
	}
	if e.Key != "" {
		b.WriteString("[" + e.Key + "] ")
	}
	b.WriteString(e.Message)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}

// Filter selects entries. Empty fields match anything.
type Filter struct {
	RunID     string
	Component string
	Key       string
	MinLevel  slog.Level
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if e.Level < f.MinLevel {
		return false
	}
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.Component != "" && !strings.EqualFold(e.Component, f.Component) {
		return false
	}
	if f.Key != "" && e.Key != f.Key {
		return false
	}
	return true
}
