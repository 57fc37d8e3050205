package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the Timewarrior interval timestamp format (UTC).
const TimestampLayout = "20060102T150405Z"

// ParseTimestamp parses a YYYYMMDDThhmmssZ timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, strings.TrimSpace(s))
}

// TagSet is an immutable set of tags.
type TagSet struct {
	tags map[string]struct{}
}

// NewTagSet builds a set from tags; duplicates collapse.
func NewTagSet(tags ...string) TagSet {
	m := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		m[t] = struct{}{}
	}
	return TagSet{tags: m}
}

func (s TagSet) Len() int { return len(s.tags) }

func (s TagSet) Contains(tag string) bool {
	_, ok := s.tags[tag]
	return ok
}

// IsSubsetOf reports whether every tag in s is present in other.
// The empty set is a subset of everything.
func (s TagSet) IsSubsetOf(other TagSet) bool {
	for t := range s.tags {
		if !other.Contains(t) {
			return false
		}
	}
	return true
}

// ContainsAll reports whether s carries every tag in required.
func (s TagSet) ContainsAll(required TagSet) bool {
	return required.IsSubsetOf(s)
}

// Sorted returns the tags in lexicographic order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Label is the space-joined sorted tag list used as a report row label.
func (s TagSet) Label() string {
	return strings.Join(s.Sorted(), " ")
}

// TimeEntry is one tracked interval. End is fixed at construction.
type TimeEntry struct {
	Tags  TagSet
	Start time.Time
	End   time.Time
}

// Duration may be negative when the upstream data is inconsistent.
func (e TimeEntry) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// RawEntry is an interval record as Timewarrior exports it.
type RawEntry struct {
	ID    int       `json:"id,omitempty"`
	Tags  *[]string `json:"tags"`
	Start *string   `json:"start"`
	End   *string   `json:"end,omitempty"`
}

// ParseTimeEntry decodes one interval record. An open interval (no end)
// is closed at now.
func ParseTimeEntry(data []byte, now time.Time) (TimeEntry, error) {
	var raw RawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return TimeEntry{}, malformedEntry(err, "decode interval")
	}
	return raw.ToEntry(now)
}

// ToEntry validates the record and builds a TimeEntry.
func (r RawEntry) ToEntry(now time.Time) (TimeEntry, error) {
	if r.Tags == nil {
		return TimeEntry{}, malformedEntry(nil, "interval %s has no tags", r.ref())
	}
	if r.Start == nil {
		return TimeEntry{}, malformedEntry(nil, "interval %s has no start", r.ref())
	}
	start, err := ParseTimestamp(*r.Start)
	if err != nil {
		return TimeEntry{}, malformedEntry(err, "interval %s start %q", r.ref(), *r.Start)
	}
	end := now
	if r.End != nil {
		end, err = ParseTimestamp(*r.End)
		if err != nil {
			return TimeEntry{}, malformedEntry(err, "interval %s end %q", r.ref(), *r.End)
		}
	}
	return TimeEntry{Tags: NewTagSet(*r.Tags...), Start: start, End: end}, nil
}

func (r RawEntry) ref() string {
	if r.ID == 0 {
		return "?"
	}
	return fmt.Sprintf("@%d", r.ID)
}

// WorkGroup is a budget bucket: the tags an entry must carry and the time
// allocated to it. Spent is the accrued total.
type WorkGroup struct {
	Tags      TagSet
	Allocated time.Duration
	Spent     time.Duration
}

// RawWorkGroup is one record of an allocation file.
type RawWorkGroup struct {
	Tags       *[]string `json:"tags"`
	Allocation *float64  `json:"allocation"`
}

// ParseWorkGroup decodes one allocation record. Allocation is in hours and
// truncated to whole seconds.
func ParseWorkGroup(data []byte) (WorkGroup, error) {
	var raw RawWorkGroup
	if err := json.Unmarshal(data, &raw); err != nil {
		return WorkGroup{}, malformedWorkGroup(err, "decode work group")
	}
	return raw.ToWorkGroup()
}

func (r RawWorkGroup) ToWorkGroup() (WorkGroup, error) {
	if r.Tags == nil {
		return WorkGroup{}, malformedWorkGroup(nil, "work group has no tags")
	}
	if r.Allocation == nil {
		return WorkGroup{}, malformedWorkGroup(nil, "work group %q has no allocation", strings.Join(*r.Tags, " "))
	}
	secs := int64(*r.Allocation * 3600)
	return WorkGroup{
		Tags:      NewTagSet(*r.Tags...),
		Allocated: time.Duration(secs) * time.Second,
	}, nil
}

// Matches reports whether the entry carries every tag the group requires.
func (g WorkGroup) Matches(e TimeEntry) bool {
	return g.Tags.IsSubsetOf(e.Tags)
}

// Accrue returns a copy of g with the entry's duration added to Spent.
func (g WorkGroup) Accrue(e TimeEntry) WorkGroup {
	g.Spent += e.Duration()
	return g
}

// Remaining is Allocated minus Spent, never below zero.
func (g WorkGroup) Remaining() time.Duration {
	return Remaining(g.Allocated, g.Spent)
}

func Remaining(allocated, spent time.Duration) time.Duration {
	if spent >= allocated {
		return 0
	}
	return allocated - spent
}

// ReportingWindow is the span Timewarrior was asked to report on.
type ReportingWindow struct {
	Start time.Time
	End   time.Time
}

// Days is the calendar-date distance between Start and End in loc.
func (w ReportingWindow) Days(loc *time.Location) int {
	s := civilDate(w.Start.In(loc))
	e := civilDate(w.End.In(loc))
	return int(e.Sub(s).Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
