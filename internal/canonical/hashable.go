package canonical

import "encoding/json"

// FieldLookup supplies the per-record field lists removed from the
// hashable form.
type FieldLookup interface {
	UnhashableFields(dataPackType, subType string) []string
	FilterFields(dataPackType, subType string) []string
}

// identityFields never count as data changes.
var identityFields = []string{
	"VlocityMatchingRecordSourceKey",
	"VlocityRecordSourceKey",
	"VlocityRecordSourceKeyOriginal",
	"VlocityLookupRecordSourceKey",
	"VlocityDataPackType",
	"Id",
}

// StripUnhashable removes volatile and identity fields from rec and its
// typed descendants in place. Only records carrying a record type tag are
// rewritten. Empty values are dropped and string values holding JSON are
// replaced by their stable encoding.
func StripUnhashable(lookup FieldLookup, dataPackType string, rec map[string]any) {
	subType, _ := rec["VlocityRecordSObjectType"].(string)
	if rec == nil || subType == "" {
		return
	}
	for _, field := range lookup.UnhashableFields(dataPackType, subType) {
		delete(rec, field)
	}
	for _, field := range lookup.FilterFields(dataPackType, subType) {
		delete(rec, field)
	}
	for _, field := range identityFields {
		delete(rec, field)
	}

	for key, child := range rec {
		if isEmpty(child) {
			delete(rec, key)
			continue
		}
		switch v := child.(type) {
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					StripUnhashable(lookup, dataPackType, m)
				}
			}
		case map[string]any:
			StripUnhashable(lookup, dataPackType, v)
		case string:
			rec[key] = CanonicalString(v)
		}
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case int:
		return t == 0
	default:
		return false
	}
}
