// Package logs reads the JSON log file written next to each build and
// filters it by run, component and DataPack key. The logs command uses it to
// show what happened during a run after the terminal output is gone.
package logs
