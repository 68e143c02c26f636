package status_test

import (
	"errors"
	"sync"
	"testing"

	"datapacks/internal/datapack"
	"datapacks/internal/status"
)

func TestParseIgnoresCase(t *testing.T) {
	got, ok := status.Parse(" readyseparate ")
	if !ok || got != status.ReadySeparate {
		t.Fatalf("Parse = %q, %v", got, ok)
	}
	if _, ok := status.Parse("Deployed"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to status.Status
		want     bool
	}{
		{status.Ready, status.Added, true},
		{status.Ready, status.Header, true},
		{status.Header, status.Added, true},
		{status.Header, status.Ready, false},
		{status.Added, status.Success, true},
		{status.Added, status.Header, false},
		{status.Success, status.Ready, false},
		{status.Error, status.Added, false},
		{status.Ignored, status.Ignored, true},
		{status.ReadySeparate, status.Added, true},
	}
	for _, tc := range tests {
		if got := status.CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestMapSeedKeepsExistingStatus(t *testing.T) {
	m := status.NewMap()
	if !m.Seed("TypeA/Foo", status.Ready) {
		t.Fatal("expected first seed to insert")
	}
	if err := m.Transition("TypeA/Foo", status.Added); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if m.Seed("TypeA/Foo", status.Ready) {
		t.Fatal("expected second seed to be ignored")
	}
	if got, _ := m.Get("TypeA/Foo"); got != status.Added {
		t.Fatalf("status = %s, want Added", got)
	}
}

func TestMapRejectsDisallowedTransition(t *testing.T) {
	m := status.NewMap()
	m.Seed("TypeA/Foo", status.Success)
	err := m.Transition("TypeA/Foo", status.Added)
	var terr *status.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if err := m.Transition("TypeA/Missing", status.Added); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestMarkAcceptsOnlyExternalStatuses(t *testing.T) {
	m := status.NewMap()
	m.Seed("TypeA/Foo", status.Ready)
	if err := m.Mark("TypeA/Foo", status.Added); err == nil {
		t.Fatal("expected Added to be rejected by Mark")
	}
	if err := m.Mark("TypeA/Foo", status.Success); err != nil {
		t.Fatalf("Mark Success: %v", err)
	}
}

func TestRetryAndSummary(t *testing.T) {
	m := status.NewMap()
	m.Seed("A/1", status.Ready)
	m.Seed("A/2", status.Ready)
	m.Seed("B/1", status.Ready)
	if err := m.Fail("A/2", "missing label"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := m.Mark("B/1", status.Success); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if m.Reason("A/2") != "missing label" {
		t.Fatalf("reason = %q", m.Reason("A/2"))
	}

	sum := m.Summary()
	if sum.Total != 3 || sum.Remaining != 1 || sum.Counts[status.Error] != 1 || sum.Counts[status.Success] != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	if moved := m.Retry(); moved != 1 {
		t.Fatalf("Retry moved %d, want 1", moved)
	}
	if got, _ := m.Get("A/2"); got != status.Ready {
		t.Fatalf("status after retry = %s", got)
	}
	if m.Reason("A/2") != "" {
		t.Fatal("expected reason cleared after retry")
	}
}

func TestRestorePreservesOrder(t *testing.T) {
	m := status.NewMap()
	err := m.Restore([]status.Entry{
		{Key: "B/2", Status: status.Success},
		{Key: "A/1", Status: status.Error, Reason: "boom"},
		{Key: "B/2", Status: status.Ready},
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "B/2" || keys[1] != "A/1" {
		t.Fatalf("keys = %v", keys)
	}
	if err := m.Restore([]status.Entry{{Key: "A/1", Status: "Bogus"}}); err == nil {
		t.Fatal("expected unknown status to fail restore")
	}
}

func TestSeedConcurrent(t *testing.T) {
	m := status.NewMap()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Seed(datapack.NewKey("T", string(rune('a'+i%10))), status.Ready)
		}(i)
	}
	wg.Wait()
	if m.Len() != 10 {
		t.Fatalf("Len = %d, want 10", m.Len())
	}
}
