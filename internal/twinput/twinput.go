// Package twinput reads the stream Timewarrior hands to an extension: a
// block of "key: value" settings, a blank line, then the intervals as JSON.
package twinput

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"twaggregate/internal/domain"
)

const (
	KeyReportStart = "temp.report.start"
	KeyReportEnd   = "temp.report.end"
)

// Input is one parsed extension invocation.
type Input struct {
	Settings map[string]string
	Window   domain.ReportingWindow
	Entries  []domain.TimeEntry
}

// Debug reports whether Timewarrior was run with debug output on.
func (in Input) Debug() bool {
	return settingOn(in.Settings["debug"])
}

func settingOn(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes", "y", "true", "1":
		return true
	}
	return false
}

// Parse consumes r fully. Open intervals are closed at now. Any malformed
// interval fails the whole parse.
func Parse(r io.Reader, now time.Time) (Input, error) {
	in := Input{Settings: map[string]string{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var body strings.Builder
	inBody := false
	for sc.Scan() {
		line := sc.Text()
		if !inBody {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
				inBody = true
				continue
			case strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{"):
				inBody = true
			default:
				key, value := splitSetting(trimmed)
				in.Settings[key] = value
				continue
			}
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return Input{}, fmt.Errorf("read input: %w", err)
	}

	window, err := parseWindow(in.Settings)
	if err != nil {
		return Input{}, err
	}
	in.Window = window

	entries, err := parseBody(body.String(), now)
	if err != nil {
		return Input{}, err
	}
	in.Entries = entries
	return in, nil
}

// splitSetting accepts both "key: value" and the older "key value" form.
func splitSetting(line string) (string, string) {
	if i := strings.Index(line, ":"); i > 0 && !strings.ContainsAny(line[:i], " \t") {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	if i := strings.IndexAny(line, " \t"); i > 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}

func parseWindow(settings map[string]string) (domain.ReportingWindow, error) {
	var w domain.ReportingWindow
	for _, f := range []struct {
		key string
		dst *time.Time
	}{{KeyReportStart, &w.Start}, {KeyReportEnd, &w.End}} {
		raw := settings[f.key]
		if raw == "" {
			return w, domain.MissingReportWindow(f.key)
		}
		t, err := domain.ParseTimestamp(raw)
		if err != nil {
			return w, fmt.Errorf("%s %q: %w", f.key, raw, err)
		}
		*f.dst = t
	}
	return w, nil
}

func parseBody(body string, now time.Time) ([]domain.TimeEntry, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var records []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, fmt.Errorf("%w: decode intervals: %v", domain.ErrMalformedEntry, err)
		}
		entries := make([]domain.TimeEntry, 0, len(records))
		for _, rec := range records {
			e, err := domain.ParseTimeEntry(rec, now)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
		return entries, nil
	}

	// One interval per line, as older Timewarrior releases print them.
	var entries []domain.TimeEntry
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		e, err := domain.ParseTimeEntry([]byte(strings.TrimSuffix(line, ",")), now)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
