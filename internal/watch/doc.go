// Package watch observes a DataPack project tree and reports debounced
// batches of changed paths. Callers use a change to force a fresh scan on
// the next build.
package watch
