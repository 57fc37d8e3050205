package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMalformedEntry          = errors.New("malformed interval")
	ErrMalformedWorkGroup      = errors.New("malformed work group")
	ErrUnsupportedWindow       = errors.New("unsupported report window")
	ErrAllocationFileMissing   = errors.New("allocation file missing")
	ErrMalformedAllocationFile = errors.New("malformed allocation file")
	ErrNoWorkGroupsDefined     = errors.New("no work groups defined")
	ErrMissingReportWindow     = errors.New("report window not found in input")
)

// Error carries one of the sentinel kinds above plus context. errors.Is
// matches both the kind and any wrapped cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func malformedEntry(cause error, format string, args ...any) error {
	return newError(ErrMalformedEntry, cause, format, args...)
}

func malformedWorkGroup(cause error, format string, args ...any) error {
	return newError(ErrMalformedWorkGroup, cause, format, args...)
}

// UnsupportedWindow reports a window that is neither one day nor one week.
func UnsupportedWindow(days int, start, end time.Time) error {
	return newError(ErrUnsupportedWindow, nil, "%d days (start %s, end %s); only 1 or 7 days are supported",
		days, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func AllocationFileMissing(path string) error {
	return newError(ErrAllocationFileMissing, nil,
		"%s not found; rerun with AGGREGATE_SAMPLE=1 (or --sample) to see an example, or run aggregate sample > %s", path, path)
}

func MalformedAllocationFile(path string, cause error) error {
	return newError(ErrMalformedAllocationFile, cause, "%s", path)
}

func NoWorkGroupsDefined(path string) error {
	return newError(ErrNoWorkGroupsDefined, nil, "%s declares an empty list", path)
}

func MissingReportWindow(missing string) error {
	return newError(ErrMissingReportWindow, nil,
		"%s is absent; was this program run directly? It is meant to be invoked by timewarrior (timew aggregate)", missing)
}
