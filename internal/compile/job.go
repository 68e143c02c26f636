package compile

import "errors"

// Options are passed through to the compiler.
type Options struct {
	// IncludePaths are searched in order when resolving imports.
	IncludePaths []string
}

// Job is one queued compilation. Callback receives the compiled text or the
// failure and runs before the next job starts.
type Job struct {
	Filename string
	Language string
	Source   string
	Options  Options
	Callback func(compiled string, err error)
}

// Result summarizes one drain.
type Result struct {
	Compiled int
	Errors   []error
}

// HasErrors reports whether any job failed.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err joins every job failure, or returns nil.
func (r Result) Err() error {
	return errors.Join(r.Errors...)
}
