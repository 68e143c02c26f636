package datapack

import (
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Wire field names used in metadata files and batch payloads.
const (
	FieldKey              = "VlocityDataPackKey"
	FieldType             = "VlocityDataPackType"
	FieldName             = "VlocityDataPackName"
	FieldParents          = "VlocityDataPackParents"
	FieldStatus           = "VlocityDataPackStatus"
	FieldIsIncluded       = "VlocityDataPackIsIncluded"
	FieldData             = "VlocityDataPackData"
	FieldAllRelationships = "VlocityDataPackAllRelationships"
	FieldRecordType       = "VlocityRecordSObjectType"
	FieldRecordSourceKey  = "VlocityRecordSourceKey"
)

// Record is a decoded JSON object from a metadata or child file.
type Record = map[string]any

// Key identifies a DataPack as "Type/Name".
type Key string

var whitespace = regexp.MustCompile(`\s+`)

// NewKey joins a type and name into a key.
func NewKey(dataPackType, name string) Key {
	return Key(dataPackType + "/" + name)
}

// NormalizeKey replaces whitespace runs with "-", the form parent keys are
// written in.
func NormalizeKey(raw string) Key {
	return Key(whitespace.ReplaceAllString(strings.TrimSpace(raw), "-"))
}

// Type returns the portion before the first slash.
func (k Key) Type() string {
	s := string(k)
	if idx := strings.Index(s, "/"); idx >= 0 {
		return s[:idx]
	}
	return s
}

// Name returns the portion after the last slash.
func (k Key) Name() string {
	s := string(k)
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

func (k Key) String() string { return string(k) }

// DataPack is an expanded record ready for deployment.
type DataPack struct {
	Key              Key      `json:"VlocityDataPackKey"`
	Type             string   `json:"VlocityDataPackType"`
	Name             string   `json:"VlocityDataPackName"`
	Parents          []string `json:"VlocityDataPackParents"`
	Status           string   `json:"VlocityDataPackStatus"`
	IsIncluded       bool     `json:"VlocityDataPackIsIncluded"`
	Data             Record   `json:"VlocityDataPackData"`
	AllRelationships Record   `json:"VlocityDataPackAllRelationships,omitempty"`
}

// Batch is an ordered set of DataPacks handed off for deployment together.
type Batch struct {
	DataPacks []*DataPack `json:"dataPacks"`
	Remaining int         `json:"remaining"`
}

// Len reports the number of DataPacks in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.DataPacks)
}

// Keys lists the keys in batch order.
func (b *Batch) Keys() []Key {
	if b == nil {
		return nil
	}
	keys := make([]Key, 0, len(b.DataPacks))
	for _, dp := range b.DataPacks {
		keys = append(keys, dp.Key)
	}
	return keys
}

// Contains reports whether key is already in the batch.
func (b *Batch) Contains(key Key) bool {
	if b == nil {
		return false
	}
	for _, dp := range b.DataPacks {
		if dp.Key == key {
			return true
		}
	}
	return false
}

// PrimaryField returns the data key holding the primary record collection:
// the first non-empty array whose first element carries a record type tag.
// Keys are inspected in sorted order.
func PrimaryField(data Record) (string, bool) {
	for _, name := range slices.Sorted(maps.Keys(data)) {
		items, ok := data[name].([]any)
		if !ok || len(items) == 0 {
			continue
		}
		first, ok := items[0].(Record)
		if !ok {
			continue
		}
		if _, tagged := first[FieldRecordType]; tagged {
			return name, true
		}
	}
	return "", false
}

// RecordType returns the record type tag of rec, if any.
func RecordType(rec Record) string {
	if rec == nil {
		return ""
	}
	value, _ := rec[FieldRecordType].(string)
	return value
}
