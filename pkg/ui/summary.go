package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"pastescraper/pkg/report"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
	maxTargetCol  = 40
)

// SavedBar renders saved/discovered as a fixed width bar
func SavedBar(saved, discovered int) string {
	filled := 0
	if discovered > 0 {
		filled = saved * barWidth / discovered
	}
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s] %d/%d",
		strings.Repeat(ProgressBar, filled)+strings.Repeat(ProgressEmpty, barWidth-filled),
		saved, discovered)
}

// FormatSummary renders one line per target followed by the run totals
func FormatSummary(s report.RunSummary, reports []*report.TargetReport) string {
	var b strings.Builder

	width := 0
	for _, r := range reports {
		if w := runewidth.StringWidth(r.AuthorSlug); w > width {
			width = w
		}
	}
	if width > maxTargetCol {
		width = maxTargetCol
	}

	for _, r := range reports {
		name := runewidth.FillRight(runewidth.Truncate(r.AuthorSlug, width, "…"), width)
		switch {
		case r.Failed():
			fmt.Fprintf(&b, "  %s  %s %s\n", name, Red("FAILED"), r.Err)
		case r.Mode == report.ModeList:
			fmt.Fprintf(&b, "  %s  %d listed (%s)\n", name, r.Discovered, Dim(r.StopReason))
		default:
			fmt.Fprintf(&b, "  %s  %s", name, Green(SavedBar(r.Saved, r.Discovered)))
			if r.Partial > 0 {
				fmt.Fprintf(&b, " %s", Yellow(fmt.Sprintf("%d partial", r.Partial)))
			}
			if len(r.Failures) > 0 {
				fmt.Fprintf(&b, " %s", Red(fmt.Sprintf("%d failed", len(r.Failures))))
			}
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "%s %d target(s), %d failed", Cyan("Run "+shortID(s.RunID)+":"), s.Targets, s.FailedTargets)
	if s.Mode == report.ModeDownload {
		fmt.Fprintf(&b, ", %d/%d pastes saved", s.Saved, s.Discovered)
		if s.Failures > 0 {
			fmt.Fprintf(&b, ", %d paste failure(s)", s.Failures)
		}
	}
	fmt.Fprintf(&b, " in %s\n", s.Duration.Round(100*time.Millisecond))
	return b.String()
}

// PrintSummary prints the run summary unless quiet mode is on
func PrintSummary(s report.RunSummary, reports []*report.TargetReport) {
	if quiet {
		return
	}
	fmt.Fprint(out, FormatSummary(s, reports))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
