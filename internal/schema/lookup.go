package schema

import (
	"maps"
	"slices"
)

// baseImportDataKeys are always collected into the deploy data summary.
var baseImportDataKeys = []string{"VlocityRecordSObjectType", "Name"}

func resolve[T any](d *Definitions, dataPackType, subType string, pick func(*Entry) (T, bool)) (T, bool) {
	for _, doc := range d.layers() {
		if v, ok := fromDocument(doc, dataPackType, subType, pick); ok {
			return v, true
		}
	}
	if subType != "" {
		if v, ok := pick(&d.base.SObjectsDefault); ok {
			return v, true
		}
	}
	return pick(&d.base.DataPacksDefault)
}

func fromDocument[T any](doc *Document, dataPackType, subType string, pick func(*Entry) (T, bool)) (T, bool) {
	if dataPackType != "" {
		if def, ok := doc.DataPacks[dataPackType]; ok {
			if subType != "" {
				if section, ok := def.Sections[subType]; ok {
					if v, ok := pick(&section.Entry); ok {
						return v, true
					}
				}
			}
			if v, ok := pick(&def.Entry); ok {
				return v, true
			}
		}
	}
	if subType != "" {
		if entry, ok := doc.SObjects[subType]; ok {
			if v, ok := pick(&entry); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}

func pickBool(get func(*Entry) *bool) func(*Entry) (bool, bool) {
	return func(e *Entry) (bool, bool) {
		p := get(e)
		if p == nil {
			return false, false
		}
		return *p, true
	}
}

func pickList(get func(*Entry) []string) func(*Entry) ([]string, bool) {
	return func(e *Entry) ([]string, bool) {
		list := get(e)
		return list, list != nil
	}
}

func (d *Definitions) flag(dataPackType string, get func(*Entry) *bool) bool {
	v, _ := resolve(d, dataPackType, "", pickBool(get))
	return v
}

func (d *Definitions) list(dataPackType, subType string, get func(*Entry) []string) []string {
	v, _ := resolve(d, dataPackType, subType, pickList(get))
	return slices.Clone(v)
}

// IsSoloDeploy reports whether records of this type must be batched alone.
func (d *Definitions) IsSoloDeploy(dataPackType string) bool {
	return d.flag(dataPackType, func(e *Entry) *bool { return e.SoloDeploy })
}

// AllowParallel reports whether this type is safe to deploy in parallel.
func (d *Definitions) AllowParallel(dataPackType string) bool {
	return d.flag(dataPackType, func(e *Entry) *bool { return e.SupportParallel })
}

// AllowHeadersOnly reports whether this type may be deployed as a header.
func (d *Definitions) AllowHeadersOnly(dataPackType string) bool {
	return d.flag(dataPackType, func(e *Entry) *bool { return e.HeadersOnly })
}

// MaxDeploy returns the per-batch cap for the type, if one is defined.
func (d *Definitions) MaxDeploy(dataPackType string) (int, bool) {
	v, ok := resolve(d, dataPackType, "", func(e *Entry) (int, bool) {
		if e.MaxDeploy == nil {
			return 0, false
		}
		return *e.MaxDeploy, true
	})
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// FilterFields lists fields dropped from records before comparison.
func (d *Definitions) FilterFields(dataPackType, subType string) []string {
	return d.list(dataPackType, subType, func(e *Entry) []string { return e.FilterFields })
}

// UnhashableFields lists fields excluded from the hashable form.
func (d *Definitions) UnhashableFields(dataPackType, subType string) []string {
	return d.list(dataPackType, subType, func(e *Entry) []string { return e.UnhashableFields })
}

// JSONFields lists fields holding serialized JSON text.
func (d *Definitions) JSONFields(dataPackType, subType string) []string {
	return d.list(dataPackType, subType, func(e *Entry) []string { return e.JSONFields })
}

// CompiledFields lists source fields that are replaced by compiler output
// when compiling on build.
func (d *Definitions) CompiledFields(dataPackType, subType string) []string {
	return d.list(dataPackType, subType, func(e *Entry) []string { return e.CompiledFields })
}

// SourceKeyDefinition lists the identifying fields of a record sub-type.
func (d *Definitions) SourceKeyDefinition(subType string) []string {
	return d.list("", subType, func(e *Entry) []string { return e.SourceKeyDefinition })
}

// ImportDataKeys lists the fields collected into the deploy data summary for
// a record sub-type.
func (d *Definitions) ImportDataKeys(subType string) []string {
	keys := slices.Clone(baseImportDataKeys)
	return append(keys, d.SourceKeyDefinition(subType)...)
}

// IsGuaranteedParentKey reports whether key is known to exist in every
// target, so it never blocks a child.
func (d *Definitions) IsGuaranteedParentKey(key string) bool {
	for _, doc := range d.layers() {
		if slices.Contains(doc.GuaranteedParentKeys, key) {
			return true
		}
	}
	return false
}

// HasType reports whether the type is declared in any layer.
func (d *Definitions) HasType(dataPackType string) bool {
	for _, doc := range d.layers() {
		if _, ok := doc.DataPacks[dataPackType]; ok {
			return true
		}
	}
	return false
}

// Fields returns the file-reference fields of a section. Override fields
// shadow base fields of the same name.
func (d *Definitions) Fields(dataPackType, section string) (map[string]FieldSpec, bool) {
	var merged map[string]FieldSpec
	layers := d.layers()
	for i := len(layers) - 1; i >= 0; i-- {
		def, ok := layers[i].DataPacks[dataPackType]
		if !ok {
			continue
		}
		sec, ok := def.Sections[section]
		if !ok {
			continue
		}
		if merged == nil {
			merged = make(map[string]FieldSpec, len(sec.Fields))
		}
		maps.Copy(merged, sec.Fields)
	}
	return merged, merged != nil
}
