package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"netpulse/internal/config"
	"netpulse/internal/monitor"
	"netpulse/internal/query"
)

// Tab indices.
const (
	tabOverview = 0
	tabOutages  = 1
	tabCount    = 2
)

// Model is the root BubbleTea model.
type Model struct {
	// Dependencies.
	queries *query.Service
	stats   func() monitor.Stats
	refresh time.Duration
	limit   int

	// Dimensions.
	width  int
	height int

	// Navigation.
	activeTab int
	showHelp  bool
	window    query.Window

	// Data.
	loading    bool
	report     *query.Report
	lastStats  *monitor.Stats
	lastLoaded time.Time

	// Tab models.
	overviewTab overviewModel
	outagesTab  outagesModel

	// Notification.
	notification    string
	notificationErr bool
	notifVersion    int

	spinner spinner.Model
}

// Deps holds all dependencies injected into the TUI. Stats is optional and
// only set when the scheduler runs in the same process.
type Deps struct {
	Queries   *query.Service
	Dashboard config.DashboardConfig
	Stats     func() monitor.Stats
}

// NewModel creates a new root Model.
func NewModel(deps Deps) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	window, err := query.ParseWindow(deps.Dashboard.Window)
	if err != nil {
		window = query.DefaultWindow
	}
	refresh := deps.Dashboard.Refresh
	if refresh <= 0 {
		refresh = config.DefaultRefresh
	}
	limit := deps.Dashboard.Limit
	if limit <= 0 {
		limit = config.DefaultLimit
	}

	return &Model{
		queries:     deps.Queries,
		stats:       deps.Stats,
		refresh:     refresh,
		limit:       limit,
		window:      window,
		activeTab:   tabOverview,
		spinner:     s,
		overviewTab: newOverviewModel(),
		outagesTab:  newOutagesModel(),
	}
}

func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(
		loadReport(m.queries, m.window, m.limit),
		readStats(m.stats),
		refreshTick(m.refresh),
		m.spinner.Tick,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	prevNotifVersion := m.notifVersion

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		ch := m.contentHeight()
		m.overviewTab.setSize(msg.Width, ch)
		m.outagesTab.setSize(msg.Width, ch)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}

	case refreshTickMsg:
		if !m.loading {
			m.loading = true
			cmds = append(cmds, loadReport(m.queries, m.window, m.limit))
		}
		cmds = append(cmds, readStats(m.stats), refreshTick(m.refresh))

	case reportLoadedMsg:
		// A reply for a window the user already left is stale.
		if msg.window != m.window {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.setNotification(fmt.Sprintf("Refresh failed: %v", msg.err), true)
		} else {
			m.report = msg.report
			m.lastLoaded = time.Now()
			m.outagesTab.setOutages(msg.report.Outages, msg.report.OutageCount)
		}

	case statsMsg:
		st := msg.stats
		m.lastStats = &st

	case clearNotificationMsg:
		if msg.version == m.notifVersion {
			m.notification = ""
			m.notificationErr = false
		}
	}

	if m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Schedule notification auto-clear when a new notification was set.
	if m.notifVersion > prevNotifVersion && m.notification != "" {
		cmds = append(cmds, clearNotification(4*time.Second, m.notifVersion))
	}

	if m.activeTab == tabOutages {
		cmds = append(cmds, m.outagesTab.Update(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var current query.Status
	if m.report != nil {
		current = m.report.Current
	}
	header := renderHeader(m.activeTab, current, m.report != nil, m.window, m.width)

	var content string
	switch m.activeTab {
	case tabOverview:
		content = m.overviewTab.View(m.report, m.lastStats)
	case tabOutages:
		content = m.outagesTab.View(m.spinner, m.loading)
	}

	var notif string
	switch {
	case m.notification == "":
	case m.notificationErr:
		notif = notifErrorStyle.Render("! " + m.notification)
	default:
		notif = notifSuccessStyle.Render("* " + m.notification)
	}

	helpText := renderHelpBar(m.showHelp)
	if !m.lastLoaded.IsZero() {
		helpText += helpSepStyle.Render(" | ") + dimStyle.Render("updated "+m.lastLoaded.Format("15:04:05"))
	}
	footer := renderFooter(helpText, m.width)

	parts := []string{header}
	if notif != "" {
		parts = append(parts, notif)
	}
	parts = append(parts, content, footer)
	output := lipgloss.JoinVertical(lipgloss.Left, parts...)

	// Force exactly m.height lines to prevent BubbleTea rendering drift.
	return forceHeight(output, m.width, m.height)
}

// forceHeight ensures the string has exactly `height` lines, each padded to `width`.
// This prevents BubbleTea from leaving ghost lines when switching tabs.
func forceHeight(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	blank := strings.Repeat(" ", width)
	for len(lines) < height {
		lines = append(lines, blank)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) contentHeight() int {
	overhead := 5
	if m.showHelp {
		overhead += 2
	}
	h := m.height - overhead
	if h < 1 {
		h = 1
	}
	return h
}

// handleGlobalKey reports whether msg was consumed so table navigation keys
// still reach the outages tab.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		ch := m.contentHeight()
		m.overviewTab.setSize(m.width, ch)
		m.outagesTab.setSize(m.width, ch)
		return nil, true

	case key.Matches(msg, keys.TabNext):
		m.activeTab = (m.activeTab + 1) % tabCount
		return nil, true

	case key.Matches(msg, keys.TabPrev):
		m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		return nil, true

	case key.Matches(msg, keys.WindowNext):
		return m.setWindow(m.window.Next()), true

	case key.Matches(msg, keys.WindowPrev):
		return m.setWindow(m.window.Prev()), true

	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return tea.Batch(loadReport(m.queries, m.window, m.limit), readStats(m.stats), m.spinner.Tick), true
	}
	return nil, false
}

// setWindow switches the query window and reloads immediately.
func (m *Model) setWindow(w query.Window) tea.Cmd {
	m.window = w
	m.loading = true
	m.setNotification("Window "+w.String(), false)
	return tea.Batch(
		loadReport(m.queries, w, m.limit),
		clearNotification(4*time.Second, m.notifVersion),
		m.spinner.Tick,
	)
}

func (m *Model) setNotification(text string, isErr bool) {
	m.notification = text
	m.notificationErr = isErr
	m.notifVersion++
}

// NewProgram creates a bubbletea program with alt screen.
func NewProgram(deps Deps) *tea.Program {
	return tea.NewProgram(NewModel(deps), tea.WithAltScreen())
}
