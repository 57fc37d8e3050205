// Package report turns attributed work groups into the aggregate table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"twaggregate/internal/config"
	"twaggregate/internal/domain"
)

// Row is one printed line of the report.
type Row struct {
	Tags      []string
	Spent     time.Duration
	Allocated time.Duration
	Remaining time.Duration
}

func (r Row) Label() string {
	return domain.NewTagSet(r.Tags...).Label()
}

// Report holds the printed rows and their totals.
type Report struct {
	Rows  []Row
	Total Row
}

// Build keeps groups with at least one second of spent time, in order, and
// totals them. Remaining is clamped per row and on the total.
func Build(groups []domain.WorkGroup) Report {
	var rep Report
	for _, g := range groups {
		if g.Spent < time.Second {
			continue
		}
		rep.Rows = append(rep.Rows, Row{
			Tags:      g.Tags.Sorted(),
			Spent:     g.Spent,
			Allocated: g.Allocated,
			Remaining: g.Remaining(),
		})
		rep.Total.Spent += g.Spent
		rep.Total.Allocated += g.Allocated
	}
	rep.Total.Remaining = domain.Remaining(rep.Total.Allocated, rep.Total.Spent)
	return rep
}

// FormatDuration renders d as "<h> hrs <m> mins", both truncated toward zero.
func FormatDuration(d time.Duration) string {
	hours := int64(d / time.Hour)
	minutes := int64(d/time.Minute) % 60
	return fmt.Sprintf("%d hrs %d mins", hours, minutes)
}

// Renderer writes reports in one of the configured formats.
type Renderer struct {
	SkipAllocated bool
	Format        string
}

func NewRenderer(cfg *config.Config) Renderer {
	return Renderer{SkipAllocated: cfg.SkipAllocated, Format: cfg.Format}
}

func (r Renderer) Render(w io.Writer, groups []domain.WorkGroup) error {
	rep := Build(groups)
	switch r.Format {
	case "", config.FormatText:
		return r.renderText(w, rep)
	case config.FormatTable:
		return r.renderTable(w, rep)
	case config.FormatJSON:
		return r.renderJSON(w, rep)
	default:
		return fmt.Errorf("unknown report format %q", r.Format)
	}
}

func (r Renderer) renderText(w io.Writer, rep Report) error {
	line := func(label string, row *Row) error {
		spent, allocated, remaining := "spent", "allocated", "remaining"
		if row != nil {
			spent = FormatDuration(row.Spent)
			allocated = FormatDuration(row.Allocated)
			remaining = FormatDuration(row.Remaining)
		}
		var err error
		if r.SkipAllocated {
			_, err = fmt.Fprintf(w, "| %-20s | %-15s\n", label, spent)
		} else {
			_, err = fmt.Fprintf(w, "| %-20s | %-15s | %-15s | %-15s\n", label, spent, allocated, remaining)
		}
		return err
	}
	if err := line("group", nil); err != nil {
		return err
	}
	for i := range rep.Rows {
		if err := line(rep.Rows[i].Label(), &rep.Rows[i]); err != nil {
			return err
		}
	}
	return line("total", &rep.Total)
}

func (r Renderer) renderTable(w io.Writer, rep Report) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.Style().Format.Footer = text.FormatDefault
	if r.SkipAllocated {
		tw.AppendHeader(table.Row{"Group", "Spent"})
	} else {
		tw.AppendHeader(table.Row{"Group", "Spent", "Allocated", "Remaining"})
	}
	for _, row := range rep.Rows {
		tw.AppendRow(r.tableRow(row.Label(), row))
	}
	tw.AppendFooter(r.tableRow("total", rep.Total))
	tw.Render()
	return nil
}

func (r Renderer) tableRow(label string, row Row) table.Row {
	if r.SkipAllocated {
		return table.Row{label, FormatDuration(row.Spent)}
	}
	return table.Row{label, FormatDuration(row.Spent), FormatDuration(row.Allocated), FormatDuration(row.Remaining)}
}

type jsonRow struct {
	Tags             []string `json:"tags,omitempty"`
	SpentSeconds     int64    `json:"spent_seconds"`
	AllocatedSeconds *int64   `json:"allocated_seconds,omitempty"`
	RemainingSeconds *int64   `json:"remaining_seconds,omitempty"`
}

type jsonReport struct {
	Rows  []jsonRow `json:"rows"`
	Total jsonRow   `json:"total"`
}

func (r Renderer) jsonRow(row Row) jsonRow {
	out := jsonRow{Tags: row.Tags, SpentSeconds: int64(row.Spent / time.Second)}
	if !r.SkipAllocated {
		allocated := int64(row.Allocated / time.Second)
		remaining := int64(row.Remaining / time.Second)
		out.AllocatedSeconds = &allocated
		out.RemainingSeconds = &remaining
	}
	return out
}

func (r Renderer) renderJSON(w io.Writer, rep Report) error {
	out := jsonReport{Rows: make([]jsonRow, 0, len(rep.Rows)), Total: r.jsonRow(rep.Total)}
	for _, row := range rep.Rows {
		out.Rows = append(out.Rows, r.jsonRow(row))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
