// Package preflight provides readiness checks for the directories and
// binaries a build depends on.
//
// The build command calls RunAll before scheduling anything and refuses to
// start while a required check fails. The check command prints every result.
//
// Checks for optional features are skipped when the feature is disabled.
package preflight
