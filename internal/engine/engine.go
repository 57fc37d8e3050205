package engine

import (
	"time"

	"go.uber.org/zap"

	"twaggregate/internal/domain"
)

type Engine struct {
	Log *zap.Logger
}

func New(log *zap.Logger) Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return Engine{Log: log}
}

// Result is the outcome of one attribution pass.
type Result struct {
	// Groups are snapshots of the input groups with Spent filled in, in
	// declaration order.
	Groups []domain.WorkGroup
	// Unmatched counts entries no group claimed; their time is dropped.
	Unmatched     int
	UnmatchedTime time.Duration
}

// Attribute assigns each entry to the first group, in declaration order,
// whose tags it carries. The input slice is not modified.
func (e Engine) Attribute(groups []domain.WorkGroup, entries []domain.TimeEntry) Result {
	res := Result{Groups: append([]domain.WorkGroup(nil), groups...)}
	for _, entry := range entries {
		idx := FirstMatch(res.Groups, entry)
		if idx < 0 {
			res.Unmatched++
			res.UnmatchedTime += entry.Duration()
			continue
		}
		res.Groups[idx] = res.Groups[idx].Accrue(entry)
	}
	if e.Log != nil && res.Unmatched > 0 {
		e.Log.Debug("entries matched no work group",
			zap.Int("count", res.Unmatched),
			zap.Duration("time", res.UnmatchedTime))
	}
	return res
}

// FirstMatch returns the index of the first group matching entry, or -1.
func FirstMatch(groups []domain.WorkGroup, entry domain.TimeEntry) int {
	for i, g := range groups {
		if g.Matches(entry) {
			return i
		}
	}
	return -1
}
