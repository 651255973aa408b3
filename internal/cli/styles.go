package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/highercomve/timesheet/internal/models"
	"github.com/highercomve/timesheet/internal/service"
	"github.com/highercomve/timesheet/internal/timesheet"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5E81AC")).
			Padding(0, 1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A3BE8C")).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BF616A")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#81A1C1")).
			Padding(0, 1)
)

func swatch(color string) string {
	if color == "" {
		return " "
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

func projectLabel(s *timesheet.Store, id int) string {
	p, ok := s.Project(id)
	if !ok {
		return s.ProjectLabel(id)
	}
	icon := p.Icon
	if icon == "" {
		icon = models.DefaultProjectIcon
	}
	return icon + " " + p.Name
}

func recordLine(s *timesheet.Store, r models.TimeRecord, now time.Time, showSeconds bool) string {
	end := "running"
	if !r.Running() {
		end = r.EndTime.Local().Format("15:04")
	}
	line := fmt.Sprintf("#%-4d %s  %s-%-7s %8s  %s",
		r.ID,
		r.StartTime.Local().Format("2006-01-02"),
		r.StartTime.Local().Format("15:04"),
		end,
		service.FormatDuration(r.Duration(now), showSeconds),
		projectLabel(s, r.ProjectID))
	if r.Title != "" {
		line += dimStyle.Render("  " + r.Title)
	}
	return line
}

// renderStatus is shared by the status command and the watch view.
func renderStatus(w io.Writer, s *timesheet.Store, now time.Time, showSeconds bool) {
	running := s.RunningRecords()
	if len(running) == 0 {
		fmt.Fprintln(w, idleStyle.Render("No timer running"))
		if last, ok := s.LastStoppedRecord(); ok {
			fmt.Fprintln(w, dimStyle.Render("Last: ")+recordLine(s, last, now, showSeconds))
		}
	} else {
		var b strings.Builder
		for i, r := range running {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(runningStyle.Render("▶ "+service.FormatDuration(r.Duration(now), showSeconds)) + "  " + projectLabel(s, r.ProjectID))
			if r.Title != "" {
				b.WriteString(dimStyle.Render("  " + r.Title))
			}
		}
		fmt.Fprintln(w, boxStyle.Render(b.String()))
	}

	day, _ := service.RangeFor(service.RangeDay, now)
	snap := s.Snapshot()
	fmt.Fprintf(w, "Today: %s\n", service.FormatDuration(service.Total(snap.Records, day, now), showSeconds))
}
