package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"netpulse/internal/monitor"
	"netpulse/internal/query"
)

type overviewModel struct {
	width  int
	height int

	uptime progress.Model
}

func newOverviewModel() overviewModel {
	p := progress.New(
		progress.WithGradient("#FF4672", "#04B575"),
		progress.WithoutPercentage(),
	)
	return overviewModel{uptime: p}
}

func (om *overviewModel) setSize(w, h int) {
	om.width = w
	om.height = h
	om.uptime.Width = maxInt(10, (w-10)/2-20)
}

func (om *overviewModel) View(report *query.Report, stats *monitor.Stats) string {
	if report == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			cardTitleStyle.Render("Link Status"),
			dimStyle.Render("Waiting for the first report..."),
		)
		return forceHeight(cardStyle.Width(maxInt(30, om.width-6)).Render(content), om.width, om.height)
	}

	status := om.statusCard(report, stats)
	summary := om.summaryCard(report)

	w := maxInt(30, om.width-6)
	var top string
	if om.width > 80 {
		halfW := (w - 4) / 2
		top = lipgloss.JoinHorizontal(lipgloss.Top,
			cardStyle.Width(halfW).Render(status), "  ", cardStyle.Width(halfW).Render(summary))
	} else {
		top = lipgloss.JoinVertical(lipgloss.Left,
			cardStyle.Width(w).Render(status), cardStyle.Width(w).Render(summary))
	}

	trend := lipgloss.JoinVertical(lipgloss.Left,
		cardTitleStyle.Render("Latency Trend"),
		trendLine(report.Trend, w-4),
	)
	content := lipgloss.JoinVertical(lipgloss.Left, top, cardStyle.Width(w).Render(trend))
	return forceHeight(content, om.width, om.height)
}

func (om *overviewModel) statusCard(report *query.Report, stats *monitor.Stats) string {
	cur := report.Current
	rows := []string{cardTitleStyle.Render("Link Status")}

	switch {
	case !cur.HasData:
		rows = append(rows, om.row("Status", dimStyle.Render("no samples yet")))
	case cur.Online():
		rows = append(rows,
			om.row("Status", successStyle.Render("Online")),
			om.row("Latency", formatLatency(*cur.LatencyMS)),
		)
	default:
		rows = append(rows,
			om.row("Status", errorStyle.Render("OFFLINE")),
			om.row("Result", warningStyle.Render(string(cur.Status))),
		)
	}
	if cur.HasData {
		rows = append(rows,
			om.row("Target", cur.Target),
			om.row("Sampled", cur.Timestamp.Local().Format("15:04:05")),
		)
	}

	lastOutage := "none"
	if report.LastOutage != nil {
		lastOutage = report.LastOutage.Start.Local().Format("2006-01-02 15:04:05")
		if report.LastOutage.Open {
			lastOutage += " (ongoing)"
		}
	}
	rows = append(rows,
		om.row("Last outage", lastOutage),
		om.row("Outages", fmt.Sprintf("%d", report.OutageCount)),
	)

	if stats != nil {
		rows = append(rows, om.row("Ticks", fmt.Sprintf("%d (%d failed)", stats.Ticks, stats.Failures)))
		if stats.StoreErrors > 0 {
			rows = append(rows, om.row("Store errors", errorStyle.Render(fmt.Sprintf("%d", stats.StoreErrors))))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (om *overviewModel) summaryCard(report *query.Report) string {
	sum := report.Summary
	rows := []string{
		cardTitleStyle.Render("Summary"),
		om.row("Uptime", fmt.Sprintf("%6.2f%% ", sum.UptimePercent)+om.uptime.ViewAs(sum.UptimePercent/100)),
		om.row("Samples", fmt.Sprintf("%d ok / %d timeout / %d error", sum.OK, sum.Timeouts, sum.Errors)),
		om.row("Failovers", fmt.Sprintf("%d", sum.Failovers)),
		om.row("Outage time", formatDuration(sum.OutageTime)),
	}
	if lat := sum.Latency; lat != nil {
		rows = append(rows,
			om.row("Mean", formatLatency(lat.Mean)),
			om.row("Median/P95", fmt.Sprintf("%.1f / %.1f ms", lat.Median, lat.P95)),
			om.row("Min/Max", fmt.Sprintf("%.1f / %.1f ms", lat.Min, lat.Max)),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (om *overviewModel) row(label, value string) string {
	return cardLabelStyle.Render(label+":") + " " + cardValueStyle.Render(value)
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline scales values between their min and max onto block glyphs.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkLevels)-1))
		}
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}

func trendLine(values []float64, width int) string {
	if len(values) == 0 {
		return dimStyle.Render("no successful samples in this window")
	}
	if width > 0 && len(values) > width {
		values = query.Downsample(values, width)
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return sparkStyle.Render(sparkline(values)) + dimStyle.Render(fmt.Sprintf("  %.1f-%.1f ms", lo, hi))
}

func formatLatency(ms float64) string {
	return latencyStyle(ms).Render(fmt.Sprintf("%.1fms", ms))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
