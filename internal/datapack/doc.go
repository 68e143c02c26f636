// Package datapack defines the record model shared by the scheduler, the
// expander and the canonicalizer.
//
// A DataPack is keyed by "Type/Name". Before it is assembled into a batch it
// exists only as files on disk plus a status entry; once assembled it carries
// its fully inlined data tree under the wire field names consumed by the
// deployment tooling.
package datapack
