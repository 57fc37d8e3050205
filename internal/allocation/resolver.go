// Package allocation maps a report window to the allocation file that
// governs it and loads the work groups that file declares.
package allocation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"twaggregate/internal/domain"
)

// Resolver locates and loads allocation files under Dir.
type Resolver struct {
	Dir string
	// Sample substitutes SampleDocument when the allocation file is absent.
	Sample   bool
	Location *time.Location
	Log      *zap.Logger
}

func New(dir string, sample bool, log *zap.Logger) Resolver {
	return Resolver{Dir: dir, Sample: sample, Location: time.Local, Log: log}
}

func (r Resolver) loc() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.Local
}

func (r Resolver) log() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.NewNop()
}

// Path returns the allocation file for a one-day or one-week window, keyed
// by the local date of the window start. Any other length is rejected
// without touching the filesystem.
func (r Resolver) Path(w domain.ReportingWindow) (string, error) {
	loc := r.loc()
	days := w.Days(loc)
	start := w.Start.In(loc)
	year, month, day := start.Date()
	base := filepath.Join(r.Dir, "allocation", fmt.Sprint(year), fmt.Sprint(int(month)))
	switch days {
	case 1:
		return filepath.Join(base, fmt.Sprintf("%d.json", day)), nil
	case 7:
		return filepath.Join(base, fmt.Sprintf("week-of-%d.json", day)), nil
	default:
		return "", domain.UnsupportedWindow(days, start, w.End.In(loc))
	}
}

// Load resolves the allocation file for w and returns its work groups in
// declaration order.
func (r Resolver) Load(w domain.ReportingWindow) ([]domain.WorkGroup, error) {
	path, err := r.Path(w)
	if err != nil {
		return nil, err
	}
	r.log().Debug("resolved allocation file", zap.String("path", path))

	data, err := r.read(path)
	if err != nil {
		return nil, err
	}
	groups, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	r.log().Debug("loaded work groups", zap.String("path", path), zap.Int("count", len(groups)))
	return groups, nil
}

func (r Resolver) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read allocation file %s: %w", path, err)
	}
	if !r.Sample {
		return nil, domain.AllocationFileMissing(path)
	}
	r.log().Warn("allocation file missing, using sample document", zap.String("path", path))
	return []byte(SampleDocument), nil
}

// Parse decodes an allocation document: a JSON array of
// {"tags": [...], "allocation": hours} records.
func Parse(path string, data []byte) ([]domain.WorkGroup, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.MalformedAllocationFile(path, err)
	}
	groups := make([]domain.WorkGroup, 0, len(records))
	for i, rec := range records {
		g, err := domain.ParseWorkGroup(rec)
		if err != nil {
			return nil, domain.MalformedAllocationFile(path, fmt.Errorf("record %d: %w", i, err))
		}
		groups = append(groups, g)
	}
	if len(groups) == 0 {
		return nil, domain.NoWorkGroupsDefined(path)
	}
	return groups, nil
}
