package compile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"datapacks/internal/logging"
)

// Queue holds pending jobs. Push is safe from any goroutine; Drain runs jobs
// in FIFO order one at a time and serializes concurrent drains.
type Queue struct {
	compiler Compiler
	logger   *slog.Logger

	mu   sync.Mutex
	jobs []Job

	drainMu sync.Mutex
}

// NewQueue returns an empty queue that compiles with c.
func NewQueue(c Compiler, logger *slog.Logger) *Queue {
	return &Queue{
		compiler: c,
		logger:   logging.NewComponentLogger(logger, "compile"),
	}
}

// Push appends a job.
func (q *Queue) Push(job Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
}

// Len reports the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Reset drops pending jobs without running them.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.jobs = nil
	q.mu.Unlock()
}

func (q *Queue) pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return Job{}, false
	}
	job := q.jobs[0]
	q.jobs[0] = Job{}
	q.jobs = q.jobs[1:]
	return job, true
}

// Drain runs every pending job, including jobs pushed by callbacks while
// draining. Job failures are collected, never returned early.
func (q *Queue) Drain(ctx context.Context) Result {
	q.drainMu.Lock()
	defer q.drainMu.Unlock()

	var result Result
	for {
		job, ok := q.pop()
		if !ok {
			break
		}
		compiled, err := q.run(ctx, job)
		if err != nil {
			err = fmt.Errorf("compile %s: %w", job.Filename, err)
			result.Errors = append(result.Errors, err)
			q.logger.Warn("compile failed",
				logging.String("file", job.Filename),
				logging.String("language", job.Language),
				logging.Error(err),
			)
		} else {
			result.Compiled++
			q.logger.Debug("compiled",
				logging.String("file", job.Filename),
				logging.Int("bytes", len(compiled)),
			)
		}
		if job.Callback != nil {
			job.Callback(compiled, err)
		}
	}
	return result
}

func (q *Queue) run(ctx context.Context, job Job) (string, error) {
	if q.compiler == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, job.Language)
	}
	return q.compiler.Compile(ctx, job.Language, job.Source, job.Options)
}
