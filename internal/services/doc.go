// Package services defines shared utilities consumed by the build phases.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, DataPack keys, and phase names for
//     logging.
//   - Structured error markers plus the Wrap helper that separate per-record
//     failures (recorded in the status map) from structural failures that
//     abort a run.
package services
