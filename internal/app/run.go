package app

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"twaggregate/internal/allocation"
	"twaggregate/internal/config"
	"twaggregate/internal/domain"
	"twaggregate/internal/engine"
	"twaggregate/internal/report"
	"twaggregate/internal/twinput"
)

// Runner performs one aggregate report: parse the extension input, load
// the allocation file for its window, attribute entries, render.
type Runner struct {
	Config *config.Config
	Log    *zap.Logger
	// Level, when set, is raised to debug if Timewarrior runs with debug: on.
	Level    *zap.AtomicLevel
	Now      func() time.Time
	Location *time.Location
}

func New(cfg *config.Config, log *zap.Logger) Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return Runner{Config: cfg, Log: log, Now: time.Now, Location: time.Local}
}

func (r Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Resolver returns the allocation resolver configured for this run.
func (r Runner) Resolver() allocation.Resolver {
	res := allocation.New(r.Config.Dir, r.Config.Sample, r.Log)
	if r.Location != nil {
		res.Location = r.Location
	}
	return res
}

// Run reads the extension input from in and writes the report to out.
func (r Runner) Run(in io.Reader, out io.Writer) error {
	if r.Config == nil {
		return fmt.Errorf("config not loaded")
	}
	input, err := twinput.Parse(in, r.now())
	if err != nil {
		return err
	}
	if input.Debug() && r.Level != nil {
		r.Level.SetLevel(zapcore.DebugLevel)
	}
	r.Log.Debug("parsed input",
		zap.Time("start", input.Window.Start),
		zap.Time("end", input.Window.End),
		zap.Int("entries", len(input.Entries)))

	groups, err := r.Resolver().Load(input.Window)
	if err != nil {
		return err
	}
	res := engine.New(r.Log).Attribute(groups, input.Entries)
	return report.NewRenderer(r.Config).Render(out, res.Groups)
}

// AllocationPath returns the allocation file governing [start, end).
func (r Runner) AllocationPath(start, end string) (string, error) {
	w, err := parseWindow(start, end)
	if err != nil {
		return "", err
	}
	return r.Resolver().Path(w)
}

// CheckAllocation loads and validates the allocation file for [start, end)
// without reading any intervals.
func (r Runner) CheckAllocation(start, end string) (string, []domain.WorkGroup, error) {
	w, err := parseWindow(start, end)
	if err != nil {
		return "", nil, err
	}
	res := r.Resolver()
	path, err := res.Path(w)
	if err != nil {
		return "", nil, err
	}
	groups, err := res.Load(w)
	if err != nil {
		return path, nil, err
	}
	return path, groups, nil
}

func parseWindow(start, end string) (domain.ReportingWindow, error) {
	s, err := domain.ParseTimestamp(start)
	if err != nil {
		return domain.ReportingWindow{}, fmt.Errorf("start %q: %w", start, err)
	}
	e, err := domain.ParseTimestamp(end)
	if err != nil {
		return domain.ReportingWindow{}, fmt.Errorf("end %q: %w", end, err)
	}
	return domain.ReportingWindow{Start: s, End: e}, nil
}
