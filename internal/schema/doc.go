// Package schema is the read-only lookup service over the expanded DataPack
// definition.
//
// The definition is a YAML document describing, per DataPack type and per
// section (record sub-type or child field), which fields reference sibling
// files and how to inline them, plus policy flags used by the scheduler and
// the hashing lists used by the canonicalizer. Lookups resolve through an
// optional override layer first, then the base document, then the
// SObjectsDefault and DataPacksDefault blocks.
//
// Definitions are immutable once loaded. WithOverride returns a new value
// that shadows individual keys without touching the base.
package schema
