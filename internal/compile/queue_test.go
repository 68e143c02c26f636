package compile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"datapacks/internal/logging"
)

func TestDrainRunsJobsInOrderOneAtATime(t *testing.T) {
	var events []string
	compiler := CompilerFunc(func(_ context.Context, _ string, source string, _ Options) (string, error) {
		events = append(events, "compile:"+source)
		return strings.ToUpper(source), nil
	})

	q := NewQueue(compiler, logging.NewNop())
	for _, src := range []string{"a", "b", "c", "d"} {
		q.Push(Job{
			Filename: src + ".scss",
			Language: "scss",
			Source:   src,
			Callback: func(compiled string, err error) {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				events = append(events, "done:"+compiled)
			},
		})
	}

	result := q.Drain(context.Background())
	if result.Compiled != 4 || result.HasErrors() {
		t.Fatalf("unexpected result %+v", result)
	}
	want := "compile:a done:A compile:b done:B compile:c done:C compile:d done:D"
	if got := strings.Join(events, " "); got != want {
		t.Fatalf("events = %q, want %q", got, want)
	}
	if q.Len() != 0 {
		t.Fatalf("queue not empty after drain: %d", q.Len())
	}
}

func TestDrainCollectsErrorsWithoutStopping(t *testing.T) {
	registry := NewRegistry()
	registry.Register("upper", CompilerFunc(func(_ context.Context, _ string, source string, _ Options) (string, error) {
		if source == "bad" {
			return "", errors.New("syntax error")
		}
		return strings.ToUpper(source), nil
	}))

	q := NewQueue(registry, nil)
	var got []string
	var failures int
	record := func(compiled string, err error) {
		if err != nil {
			failures++
			return
		}
		got = append(got, compiled)
	}
	q.Push(Job{Filename: "1", Language: "upper", Source: "ok", Callback: record})
	q.Push(Job{Filename: "2", Language: "cobol", Source: "x", Callback: record})
	q.Push(Job{Filename: "3", Language: "UPPER", Source: "bad", Callback: record})
	q.Push(Job{Filename: "4", Language: "upper", Source: "fine", Callback: record})

	result := q.Drain(context.Background())
	if result.Compiled != 2 || len(result.Errors) != 2 || failures != 2 {
		t.Fatalf("unexpected result %+v failures=%d", result, failures)
	}
	if !errors.Is(result.Err(), ErrUnknownLanguage) {
		t.Fatalf("expected unknown language in joined error, got %v", result.Err())
	}
	if strings.Join(got, ",") != "OK,FINE" {
		t.Fatalf("compiled outputs = %v", got)
	}
}

func TestDrainPicksUpJobsPushedByCallbacks(t *testing.T) {
	q := NewQueue(CompilerFunc(func(_ context.Context, _ string, source string, _ Options) (string, error) {
		return source, nil
	}), nil)
	q.Push(Job{Filename: "first", Source: "1", Callback: func(string, error) {
		q.Push(Job{Filename: "second", Source: "2"})
	}})
	if result := q.Drain(context.Background()); result.Compiled != 2 {
		t.Fatalf("Compiled = %d, want 2", result.Compiled)
	}
}

func TestConcurrentDrainsNeverOverlap(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	compiler := CompilerFunc(func(_ context.Context, _ string, source string, _ Options) (string, error) {
		n := inFlight.Add(1)
		if n > maxSeen.Load() {
			maxSeen.Store(n)
		}
		inFlight.Add(-1)
		return source, nil
	})
	q := NewQueue(compiler, nil)
	for i := 0; i < 100; i++ {
		q.Push(Job{Filename: "f", Source: "s"})
	}

	var wg sync.WaitGroup
	var total atomic.Int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			total.Add(int32(q.Drain(context.Background()).Compiled))
		}()
	}
	wg.Wait()
	if maxSeen.Load() != 1 {
		t.Fatalf("saw %d concurrent compiler calls", maxSeen.Load())
	}
	if total.Load() != 100 {
		t.Fatalf("compiled %d jobs, want 100", total.Load())
	}
}
