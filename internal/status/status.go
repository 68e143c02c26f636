package status

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a single DataPack key.
type Status string

const (
	Ready         Status = "Ready"
	Header        Status = "Header"
	Added         Status = "Added"
	Success       Status = "Success"
	Error         Status = "Error"
	Ignored       Status = "Ignored"
	ReadySeparate Status = "ReadySeparate"
)

var allStatuses = []Status{
	Ready,
	Header,
	Added,
	Success,
	Error,
	Ignored,
	ReadySeparate,
}

var statusSet = func() map[string]Status {
	set := make(map[string]Status, len(allStatuses))
	for _, s := range allStatuses {
		set[strings.ToLower(string(s))] = s
	}
	return set
}()

// All returns the known statuses in lifecycle order.
func All() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// Parse converts a string into a known Status, ignoring case.
func Parse(value string) (Status, bool) {
	s, ok := statusSet[strings.ToLower(strings.TrimSpace(value))]
	return s, ok
}

// IsRemaining reports whether a key in this state still needs work.
func IsRemaining(s Status) bool {
	switch s {
	case Ready, Header, Added, ReadySeparate:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave s.
func IsTerminal(s Status) bool {
	switch s {
	case Success, Error, Ignored:
		return true
	default:
		return false
	}
}

// SatisfiesDependents reports whether a parent in state s no longer blocks
// its children.
func SatisfiesDependents(s Status) bool {
	return s == Success || s == Header
}

// IsExternal reports whether s may be set by a caller through Map.Mark.
func IsExternal(s Status) bool {
	switch s {
	case Success, Error, Ignored, ReadySeparate:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from -> to is permitted. Writing the current
// status again is always permitted.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case Ready:
		return to == Added || to == Header || to == Error || to == Ignored || to == Success || to == ReadySeparate
	case Header:
		return to == Added || to == Error || to == Ignored || to == Success
	case Added:
		return to == Success || to == Error || to == Ignored || to == ReadySeparate
	case ReadySeparate:
		return to == Added || to == Success || to == Error || to == Ignored
	default:
		return false
	}
}

// TransitionError reports a transition rejected by the table.
type TransitionError struct {
	Key  string
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("disallowed transition for %q: %s -> %s", e.Key, e.From, e.To)
}
