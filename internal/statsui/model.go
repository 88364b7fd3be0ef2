// Package statsui provides the Bubble Tea stats browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/stats"
	"github.com/cubelog/cubelog/internal/store"
	"github.com/cubelog/cubelog/internal/summary"
)

const (
	tabOverview = iota
	tabSessions
	tabDistribution
)

const (
	plotHeight    = 10
	distSigmas    = 3
	distBarWidth  = 40
	fallbackWidth = 80
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats browser.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	tabs         []string
	activeTab    int
	viewports    []viewport.Model
	sessionTable table.Model

	// detail shows one session's solves on the Sessions tab when set.
	detail     *model.Session
	detailView viewport.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats browser.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:      st,
		cfg:        cfg,
		tabs:       []string{"Overview", "Sessions", "Distribution"},
		detailView: viewport.New(0, 0),
	}
	if m.cfg.CurveWindow < 1 {
		m.cfg.CurveWindow = 1
	}
	m.initInputs()
	m.sessionTable = buildSessionTable(nil, 0, 1)
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabSessions {
				m.openDetail()
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabSessions {
				m.sessionTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabSessions {
				m.sessionTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabSessions {
				var cmd tea.Cmd
				m.sessionTable, cmd = m.sessionTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Event (333, 222, all): "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(strings.TrimSpace(m.cfg.Event))
	if m.cfg.Since != nil {
		m.filterInputs[1].SetValue(m.cfg.Since.Format(model.DateLayout))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
	m.filterInputs[3].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.detailView.Width = m.width
	m.detailView.Height = vpHeight
	m.sessionTable.SetWidth(m.width)
	m.sessionTable.SetHeight(maxInt(1, vpHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabSessions {
		m.sessionTable.Focus()
	} else {
		m.sessionTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	event := m.cfg.Event
	if event == "" {
		event = "all"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(model.DateLayout)
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	line := fmt.Sprintf("Filter: event=%s  since=%s  last=%s  window=%d", event, since, last, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(line, m.width))
}

func (m *Model) renderHelp() string {
	switch {
	case m.detail != nil:
		return headerStyle.Render("Scroll: up/down/pgup/pgdn  Back: esc  Quit: q")
	case m.activeTab == tabSessions:
		return headerStyle.Render("Nav: left/right  Select: up/down  Open: enter  Filter: /  Quit: q")
	default:
		return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Filter: /  Quit: q")
	}
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  ctrl+c: quit")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filter (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabSessions {
		if m.detail != nil {
			return fitLines(m.detailView.View(), m.width, height)
		}
		if len(m.report.Sessions) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.sessionTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.sessionTable.SetRows(sessionTableRows(newestFirst(report.Sessions)))
	m.sessionTable.GotoTop()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
	m.viewports[tabDistribution].SetContent(renderDistribution(m.report.Times))
	if m.detail != nil {
		m.renderDetail()
	}
}

func renderOverview(report stats.Report, window, width int) string {
	if len(report.Sessions) == 0 {
		return "No sessions found."
	}
	parts := []string{renderSummaryCards(report, width)}
	if improvement, ok := stats.Improvement(report.Progress); ok {
		parts = append(parts, headerStyle.Render(fmt.Sprintf("Mean improved %.1f%% since the first session", improvement)))
	}
	var buf bytes.Buffer
	if len(report.Progress) == 0 {
		buf.WriteString(fmt.Sprintf("Progress curves need sessions with at least %d solves.\n", stats.MinProgressSolves))
	} else if err := stats.RenderCurvesWithSize(&buf, report.Progress, window, width, plotHeight, true); err != nil {
		buf.WriteString(fmt.Sprintf("Failed to render curves: %v\n", err))
	}
	if err := stats.RenderPersonalBests(&buf, report.Bests); err != nil {
		buf.WriteString(fmt.Sprintf("Failed to render personal bests: %v\n", err))
	}
	parts = append(parts, strings.TrimRight(buf.String(), "\n"))
	return strings.TrimRight(strings.Join(parts, "\n\n"), "\n")
}

func renderSummaryCards(report stats.Report, width int) string {
	ov := report.Overview
	var bestAo5, bestAo12 *int64
	for _, s := range report.Sessions {
		bestAo5 = minOpt(bestAo5, s.Ao5)
		bestAo12 = minOpt(bestAo12, s.Ao12)
	}
	cards := []string{
		metricCard("Sessions", strconv.Itoa(len(report.Sessions))),
		metricCard("Solves", strconv.Itoa(ov.TotalSolves)),
		metricCard("PB single", model.FormatOptMs(ov.PersonalBest)),
		metricCard("Best ao5", model.FormatOptMs(bestAo5)),
		metricCard("Best ao12", model.FormatOptMs(bestAo12)),
		metricCard("Overall mean", model.FormatOptMs(ov.OverallMean)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func minOpt(cur, v *int64) *int64 {
	if v == nil {
		return cur
	}
	if cur == nil || *v < *cur {
		return v
	}
	return cur
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderDistribution(times []int64) string {
	dist, err := stats.BuildDistribution(times, distSigmas, true, 0)
	if err != nil {
		return fmt.Sprintf("Distribution needs at least %d valid solves (have %d).", stats.MinDistributionSolves, len(times))
	}
	var buf bytes.Buffer
	if err := stats.RenderDistribution(&buf, dist, distBarWidth); err != nil {
		return fmt.Sprintf("Failed to render distribution: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

var sessionColumns = []table.Column{
	{Title: "ID", Width: 5},
	{Title: "Date", Width: 10},
	{Title: "Event", Width: 6},
	{Title: "Solves", Width: 6},
	{Title: "Best", Width: 8},
	{Title: "Worst", Width: 8},
	{Title: "Mean", Width: 8},
	{Title: "Ao5", Width: 8},
	{Title: "Ao12", Width: 8},
}

func buildSessionTable(rows []table.Row, width, height int) table.Model {
	t := table.New(
		table.WithColumns(sessionColumns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(sessionTableStyles())
	return t
}

func sessionTableRows(sessions []model.Session) []table.Row {
	cells := stats.SessionRows(sessions)
	rows := make([]table.Row, 0, len(cells))
	for _, c := range cells {
		rows = append(rows, table.Row(c))
	}
	return rows
}

func newestFirst(sessions []model.Session) []model.Session {
	out := make([]model.Session, len(sessions))
	for i, s := range sessions {
		out[len(sessions)-1-i] = s
	}
	return out
}

func sessionTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// openDetail switches the Sessions tab to the solves of the highlighted session.
func (m *Model) openDetail() {
	row := m.sessionTable.SelectedRow()
	if row == nil {
		return
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return
	}
	for _, s := range m.report.Sessions {
		if s.ID == id {
			sess := s
			m.detail = &sess
			break
		}
	}
	if m.detail == nil {
		return
	}
	m.renderDetail()
	m.detailView.GotoTop()
}

func (m *Model) renderDetail() {
	solves, err := m.store.ListSolves(context.Background(), m.detail.ID)
	if err != nil {
		m.detailView.SetContent(fmt.Sprintf("Failed to load solves: %v", err))
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	s := m.detail
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Session %d  %s  %s\n", s.ID, s.Date, s.EventID)
	if s.Notes != "" {
		fmt.Fprintf(&buf, "%s\n", s.Notes)
	}
	fmt.Fprintf(&buf, "Best %s  Worst %s  Mean %s  Ao5 %s  Ao12 %s\n\n",
		model.FormatOptMs(s.BestSingle), model.FormatOptMs(s.WorstSingle), model.FormatOptMs(s.Mean),
		model.FormatOptMs(s.Ao5), model.FormatOptMs(s.Ao12))
	if err := stats.RenderSessionCurve(&buf, summary.Rolling(summary.FromSolves(solves)), width, plotHeight, true); err != nil {
		fmt.Fprintf(&buf, "Failed to render curve: %v\n", err)
	}
	if err := stats.RenderSolveTable(&buf, solves); err != nil {
		fmt.Fprintf(&buf, "Failed to render solves: %v\n", err)
	}
	m.detailView.SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyBackspace:
		m.detail = nil
		return m, tea.ClearScreen
	}
	var cmd tea.Cmd
	m.detailView, cmd = m.detailView.Update(msg)
	return m, cmd
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.detail = nil
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	event := strings.TrimSpace(m.filterInputs[0].Value())
	if event == "all" {
		event = ""
	}
	sinceInput := strings.TrimSpace(m.filterInputs[1].Value())
	var since *time.Time
	if sinceInput != "" {
		parsed, err := time.ParseInLocation(model.DateLayout, sinceInput, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	lastInput := strings.TrimSpace(m.filterInputs[2].Value())
	last := 0
	if lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	windowInput := strings.TrimSpace(m.filterInputs[3].Value())
	window := 1
	if windowInput != "" {
		parsed, err := strconv.Atoi(windowInput)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		window = parsed
	}

	m.cfg = model.StatsConfig{
		Event:       event,
		Since:       since,
		Last:        last,
		CurveWindow: window,
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
