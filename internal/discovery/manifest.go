package discovery

import (
	"maps"
	"slices"
	"strings"

	"datapacks/internal/canonical"
)

// Manifest restricts discovery to selected records, keyed by DataPack type.
// A type maps either to a list of names or to an opaque payload.
type Manifest map[string]any

// Match reports whether the record dataPackType/name passes the manifest.
// A nil manifest includes everything; a type absent from it is excluded.
//
// List entries match when, with spaces replaced by dashes, they equal the
// folder name. Any other payload is serialized and matched by substring. The
// substring branch is a best-effort legacy behavior and can over-match
// (e.g. "Widget" also matches inside "Widget-2").
func (m Manifest) Match(dataPackType, name string) bool {
	if m == nil {
		return false
	}
	payload, ok := m[dataPackType]
	if !ok || payload == nil {
		return false
	}
	if entries, ok := listEntries(payload); ok {
		return slices.ContainsFunc(entries, func(entry string) bool {
			return folderName(entry) == name
		})
	}
	return strings.Contains(payloadString(payload), name)
}

func folderName(entry string) string {
	return strings.ReplaceAll(entry, " ", "-")
}

func listEntries(payload any) ([]string, bool) {
	switch v := payload.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func payloadString(payload any) string {
	if s, ok := payload.(string); ok {
		return s
	}
	text, err := canonical.Stringify(payload)
	if err != nil {
		return ""
	}
	return text
}

// pending tracks manifest entries not yet matched by any record.
type pending struct {
	lists   map[string][]string
	payload map[string]string
}

func newPending(m Manifest) *pending {
	p := &pending{lists: map[string][]string{}, payload: map[string]string{}}
	for dataPackType, value := range m {
		if entries, ok := listEntries(value); ok {
			p.lists[dataPackType] = slices.Clone(entries)
			continue
		}
		if text := payloadString(value); text != "" {
			p.payload[dataPackType] = text
		}
	}
	return p
}

func (p *pending) matched(dataPackType, name string) {
	if entries, ok := p.lists[dataPackType]; ok {
		p.lists[dataPackType] = slices.DeleteFunc(entries, func(entry string) bool {
			return folderName(entry) == name
		})
		return
	}
	delete(p.payload, dataPackType)
}

// unmatched returns the remaining entries per type. Opaque payloads that
// matched nothing are reported as their serialized form.
func (p *pending) unmatched() map[string][]string {
	out := map[string][]string{}
	for dataPackType, entries := range p.lists {
		if len(entries) > 0 {
			out[dataPackType] = entries
		}
	}
	for dataPackType, text := range p.payload {
		out[dataPackType] = []string{text}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// UnmatchedTypes lists the types of an unmatched report in sorted order.
func UnmatchedTypes(unmatched map[string][]string) []string {
	return slices.Sorted(maps.Keys(unmatched))
}
