package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/highercomve/timesheet/internal/app"
	"github.com/highercomve/timesheet/internal/service"
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// watchModel shows the live status. The syncer runs alongside it, so edits
// made elsewhere show up on the next poll.
type watchModel struct {
	app     *app.App
	message string
	width   int
}

func (m watchModel) Init() tea.Cmd {
	return tickCmd()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "t":
			if m.app.Engine.ToggleLast() {
				m.message = "toggled"
			} else {
				m.message = "nothing to toggle"
			}
		case "s":
			m.message = "stopped " + strconv.Itoa(m.app.Engine.StopAll())
		case "r":
			if m.app.Syncer.Reload() {
				m.message = "reloaded"
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		return m, tickCmd()
	}
	return m, nil
}

func (m watchModel) View() string {
	now := m.app.Store.Now()
	var b strings.Builder

	header := titleStyle.Render("Timesheet  " + now.Format("Mon Jan 2 15:04:05"))
	if m.width > 0 {
		header = titleStyle.Width(m.width).Render("Timesheet  " + now.Format("Mon Jan 2 15:04:05"))
	}
	b.WriteString(header + "\n\n")
	renderStatus(&b, m.app.Store, now, m.app.Settings.ShowSeconds)

	week, _ := service.RangeFor(service.RangeWeek, now)
	var rows []string
	for _, p := range service.ProjectTotals(m.app.Store.Snapshot(), week, now) {
		rows = append(rows, swatch(p.Color)+" "+lipgloss.NewStyle().Width(24).Render(p.Name)+" "+service.FormatDuration(p.Duration, false))
	}
	if len(rows) > 0 {
		b.WriteString("\n" + boxStyle.Render("This week\n"+strings.Join(rows, "\n")) + "\n")
	}
	if msg := m.app.Storage.LastError(); msg != "" {
		b.WriteString(idleStyle.Render("Error: "+msg) + "\n")
	}
	if m.message != "" {
		b.WriteString(dimStyle.Render(m.message) + "\n")
	}
	b.WriteString(dimStyle.Render("\nt toggle last • s stop all • r reload • q quit"))
	return b.String()
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live status view that keeps the file in sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app.App) error {
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				done := make(chan error, 1)
				go func() { done <- a.Syncer.Run(ctx) }()

				p := tea.NewProgram(watchModel{app: a}, tea.WithAltScreen(), tea.WithContext(ctx))
				_, err := p.Run()
				cancel()
				if syncErr := <-done; err == nil {
					err = syncErr
				}
				return err
			})
		},
	}
}
