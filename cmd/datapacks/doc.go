// Package main hosts the datapacks CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, opens the status database and
// drives the batch builder. Scheduling, persistence and reporting live in
// the internal packages; commands here only wire them together and render
// their results.
package main
