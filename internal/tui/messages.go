package tui

import (
	"netpulse/internal/monitor"
	"netpulse/internal/query"
)

// Data loading messages.

type reportLoadedMsg struct {
	window query.Window
	report *query.Report
	err    error
}

type refreshTickMsg struct{}

type statsMsg struct {
	stats monitor.Stats
}

// Notification message.

type clearNotificationMsg struct {
	version int
}
