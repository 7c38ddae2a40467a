package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"netpulse/internal/query"
)

var tabNames = []string{"Overview", "Outages"}

func renderHeader(activeTab int, status query.Status, loaded bool, window query.Window, width int) string {
	logo := logoStyle.Render("NETPULSE")
	pill := statusPill(status, loaded)

	var tabs []string
	for i, name := range tabNames {
		if i == activeTab {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabs = append(tabs, tabGapStyle.Render("|"), windowStyle.Render("window "+window.String()))
	tabBar := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	// First row: logo + pill right-aligned.
	pillWidth := lipgloss.Width(pill)
	logoWidth := lipgloss.Width(logo)
	gap := width - logoWidth - pillWidth
	if gap < 1 {
		gap = 1
	}
	topRow := logo + strings.Repeat(" ", gap) + pill

	sep := lipgloss.NewStyle().
		Foreground(colorBorder).
		Render(strings.Repeat("─", max(width, 0)))

	return lipgloss.JoinVertical(lipgloss.Left, topRow, tabBar, sep)
}

// statusPill renders the current link state: latency when online,
// OFFLINE after a failing tick, NO DATA before the first sample.
func statusPill(status query.Status, loaded bool) string {
	switch {
	case !loaded || !status.HasData:
		return noDataPillStyle.Render(" NO DATA ")
	case status.Online():
		label := " ONLINE "
		if status.LatencyMS != nil {
			label = fmt.Sprintf(" ONLINE %.1fms ", *status.LatencyMS)
		}
		return onlinePillStyle.Render(label)
	default:
		return offlinePillStyle.Render(" OFFLINE ")
	}
}

func renderFooter(helpText string, width int) string {
	sep := lipgloss.NewStyle().
		Foreground(colorBorder).
		Render(strings.Repeat("─", max(width, 0)))
	return lipgloss.JoinVertical(lipgloss.Left, sep, helpBarStyle.Render(helpText))
}

func renderHelpBar(showFull bool) string {
	if showFull {
		return renderFullHelp()
	}
	return renderShortHelp()
}

func renderShortHelp() string {
	bindings := keys.ShortHelp()
	var parts []string
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		k := helpKeyStyle.Render(b.Help().Key)
		d := helpDescStyle.Render(b.Help().Desc)
		parts = append(parts, k+" "+d)
	}
	return strings.Join(parts, helpSepStyle.Render(" | "))
}

func renderFullHelp() string {
	groups := keys.FullHelp()
	var lines []string
	for _, group := range groups {
		var parts []string
		for _, b := range group {
			if !b.Enabled() {
				continue
			}
			k := helpKeyStyle.Render(b.Help().Key)
			d := helpDescStyle.Render(b.Help().Desc)
			parts = append(parts, k+" "+d)
		}
		lines = append(lines, strings.Join(parts, helpSepStyle.Render("  ")))
	}
	return strings.Join(lines, "\n")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
