// Package status holds the per-record lifecycle used by the batch scheduler.
//
// Statuses form a closed set with an explicit transition table. The Map type
// keeps one status per discovered key in discovery order; the scheduler drives
// Ready/Header/Added transitions while callers feed back deployment outcomes
// through Mark between scheduler calls.
package status
