package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"netpulse/internal/monitor"
	"netpulse/internal/query"
)

// loadTimeout bounds one report query so a locked store cannot freeze the UI.
const loadTimeout = 10 * time.Second

// loadReport runs a full report for window, resolved against the service clock.
func loadReport(svc *query.Service, window query.Window, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		report, err := svc.Report(ctx, svc.Range(window), limit)
		return reportLoadedMsg{window: window, report: report, err: err}
	}
}

// readStats snapshots the in-process scheduler counters.
func readStats(stats func() monitor.Stats) tea.Cmd {
	if stats == nil {
		return nil
	}
	return func() tea.Msg {
		return statsMsg{stats: stats()}
	}
}

// refreshTick returns a tea.Cmd that fires after d.
func refreshTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// clearNotification returns a command that fires after a delay.
func clearNotification(d time.Duration, version int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearNotificationMsg{version: version}
	})
}
