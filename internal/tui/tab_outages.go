package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"netpulse/internal/outage"
)

const timeLayout = "2006-01-02 15:04:05"

type outagesModel struct {
	table   table.Model
	outages []outage.Episode
	total   int
	width   int
	height  int
}

func outageColumns(w int) []table.Column {
	if w > 100 {
		tw := (w - 30) / 3
		return []table.Column{
			{Title: "Start", Width: tw},
			{Title: "End", Width: tw},
			{Title: "Duration (s)", Width: 12},
			{Title: "Type", Width: tw},
		}
	}
	return []table.Column{
		{Title: "Start", Width: 20},
		{Title: "End", Width: 20},
		{Title: "Duration (s)", Width: 12},
		{Title: "Type", Width: 20},
	}
}

func newOutagesModel() outagesModel {
	t := table.New(
		table.WithColumns(outageColumns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(colorPurple)
	s.Selected = s.Selected.
		Foreground(colorFg).
		Background(lipgloss.AdaptiveColor{Light: "#E8E0F0", Dark: "#2A1A3E"}).
		Bold(true)
	t.SetStyles(s)

	return outagesModel{table: t}
}

func (om *outagesModel) setSize(w, h int) {
	om.width = w
	om.height = h
	om.table.SetColumns(outageColumns(w))
	// One line for the title above the table.
	om.table.SetHeight(maxInt(1, h-1))
}

func (om *outagesModel) setOutages(episodes []outage.Episode, total int) {
	om.outages = episodes
	om.total = total

	rows := make([]table.Row, len(episodes))
	for i, ep := range episodes {
		rows[i] = outageRow(ep)
	}
	om.table.SetRows(rows)
	if om.table.Cursor() >= len(rows) {
		om.table.GotoTop()
	}
}

// outageRow formats one episode: local timestamps, duration in seconds to
// one decimal, classification label.
func outageRow(ep outage.Episode) table.Row {
	end := ep.End.Local().Format(timeLayout)
	if ep.Open {
		end = "ongoing"
	}
	return table.Row{
		ep.Start.Local().Format(timeLayout),
		end,
		fmt.Sprintf("%.1f", ep.Seconds()),
		ep.Kind,
	}
}

func (om *outagesModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	om.table, cmd = om.table.Update(msg)
	return cmd
}

func (om *outagesModel) View(s spinner.Model, loading bool) string {
	var b strings.Builder

	title := fmt.Sprintf("Showing %d of %d outages", len(om.outages), om.total)
	if loading {
		title = s.View() + " " + title
	}
	b.WriteString(dimStyle.Render(title))
	b.WriteString("\n")

	if len(om.outages) == 0 {
		b.WriteString(successStyle.Render("No outages in this window"))
	} else {
		b.WriteString(om.table.View())
	}

	return forceHeight(b.String(), om.width, om.height)
}
