// Package timer provides the Bubble Tea solve timer.
package timer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/scramble"
)

// Store is the part of the solve store the timer writes through.
type Store interface {
	GetSession(ctx context.Context, id int64) (model.Session, error)
	ListSolves(ctx context.Context, sessionID int64) ([]model.Solve, error)
	AppendSolve(ctx context.Context, sessionID int64, in model.SolveInput) (int64, error)
	EditSolve(ctx context.Context, solveID int64, upd model.SolveUpdate) error
	DeleteSolve(ctx context.Context, solveID int64) error
}

// Config selects the session the timer records into.
type Config struct {
	SessionID    int64
	Event        string
	HideScramble bool
}

type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseStopped
)

const recentSolves = 5

// Model implements the Bubble Tea timer UI.
type Model struct {
	cfg    Config
	store  Store
	gen    *scramble.Generator
	logger *log.Logger
	now    func() time.Time

	width  int
	height int

	phase     phase
	watch     stopwatch.Model
	startedAt time.Time
	lastMs    int64
	scramble  string

	session model.Session
	solves  []model.Solve
	status  string
}

var (
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	scrambleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	recentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs a timer bound to an existing session.
func NewModel(cfg Config, st Store, gen *scramble.Generator, logger *log.Logger) (*Model, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if gen == nil {
		gen = scramble.New()
	}
	m := &Model{
		cfg:    cfg,
		store:  st,
		gen:    gen,
		logger: logger,
		now:    time.Now,
		watch:  stopwatch.NewWithInterval(10 * time.Millisecond),
	}
	if err := m.refresh(); err != nil {
		return nil, err
	}
	if m.cfg.Event == "" {
		m.cfg.Event = m.session.EventID
	}
	m.nextScramble()
	return m, nil
}

// Session returns the latest persisted state of the timer's session.
func (m *Model) Session() model.Session {
	return m.session
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
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		var cmd tea.Cmd
		m.watch, cmd = m.watch.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.phase == phaseRunning {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeySpace:
			return m, m.stop()
		default:
			return m, nil
		}
	}

	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeySpace:
		return m, m.start()
	case tea.KeyBackspace, tea.KeyDelete:
		m.deleteLast()
		return m, nil
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return m, tea.Quit
		case "2":
			m.togglePenalty(model.PenaltyPlusTwo)
		case "d":
			m.togglePenalty(model.PenaltyDNF)
		case "x":
			m.deleteLast()
		case "n":
			m.nextScramble()
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) start() tea.Cmd {
	m.phase = phaseRunning
	m.status = ""
	m.startedAt = m.now()
	return tea.Batch(m.watch.Reset(), m.watch.Start())
}

// stop records the solve with the wall-clock duration; the stopwatch only drives the display.
func (m *Model) stop() tea.Cmd {
	elapsed := m.now().Sub(m.startedAt)
	m.phase = phaseStopped
	m.lastMs = elapsed.Milliseconds()
	if m.lastMs <= 0 {
		m.lastMs = 1
	}
	m.record(m.lastMs)
	m.nextScramble()
	return m.watch.Stop()
}

func (m *Model) record(timeMs int64) {
	ctx := context.Background()
	in := model.SolveInput{TimeMs: timeMs, Scramble: m.scramble}
	if _, err := m.store.AppendSolve(ctx, m.cfg.SessionID, in); err != nil {
		m.fail("failed to save solve", err)
		return
	}
	if err := m.refresh(); err != nil {
		m.fail("failed to reload session", err)
	}
}

func (m *Model) togglePenalty(p model.Penalty) {
	last, ok := m.lastSolve()
	if !ok {
		return
	}
	next := p
	if last.Penalty == p {
		next = model.PenaltyNone
	}
	if err := m.store.EditSolve(context.Background(), last.ID, model.SolveUpdate{Penalty: &next}); err != nil {
		m.fail("failed to update penalty", err)
		return
	}
	if err := m.refresh(); err != nil {
		m.fail("failed to reload session", err)
	}
}

func (m *Model) deleteLast() {
	last, ok := m.lastSolve()
	if !ok {
		return
	}
	if err := m.store.DeleteSolve(context.Background(), last.ID); err != nil {
		m.fail("failed to delete solve", err)
		return
	}
	if err := m.refresh(); err != nil {
		m.fail("failed to reload session", err)
	}
	m.phase = phaseIdle
	m.lastMs = 0
}

func (m *Model) lastSolve() (model.Solve, bool) {
	if len(m.solves) == 0 {
		return model.Solve{}, false
	}
	return m.solves[len(m.solves)-1], true
}

func (m *Model) refresh() error {
	ctx := context.Background()
	session, err := m.store.GetSession(ctx, m.cfg.SessionID)
	if err != nil {
		return err
	}
	solves, err := m.store.ListSolves(ctx, m.cfg.SessionID)
	if err != nil {
		return err
	}
	m.session = session
	m.solves = solves
	return nil
}

func (m *Model) fail(msg string, err error) {
	m.logger.Error(msg, "session", m.cfg.SessionID, "err", err)
	if errors.Is(err, model.ErrStorageUnavailable) {
		m.status = msg + ": storage unavailable"
		return
	}
	m.status = fmt.Sprintf("%s: %v", msg, err)
}

func (m *Model) nextScramble() {
	if m.cfg.HideScramble {
		m.scramble = ""
		return
	}
	m.scramble = m.gen.Generate(m.cfg.Event)
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := make([]string, 0, 5)
	contentWidth := 0
	if m.width > 0 {
		contentWidth = int(float64(m.width) * 0.70)
		if contentWidth < 1 {
			contentWidth = 1
		}
	}
	if m.scramble != "" && m.phase != phaseRunning {
		sections = append(sections, scrambleStyle.Render(wrapScramble(m.scramble, contentWidth)))
	}
	sections = append(sections, m.renderTime())
	if recent := m.renderRecent(); recent != "" && m.phase != phaseRunning {
		sections = append(sections, recentStyle.Render(recent))
	}
	if m.status != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n\n")
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderTime() string {
	switch m.phase {
	case phaseRunning:
		return runningStyle.Render(model.FormatMs(m.watch.Elapsed().Milliseconds()))
	case phaseStopped:
		if last, ok := m.lastSolve(); ok {
			return timeStyle.Render(model.FormatSolve(last))
		}
		return timeStyle.Render(model.FormatMs(m.lastMs))
	default:
		return timeStyle.Render(model.FormatMs(0))
	}
}

func (m *Model) renderRecent() string {
	if len(m.solves) == 0 {
		return ""
	}
	start := len(m.solves) - recentSolves
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, recentSolves)
	for _, s := range m.solves[start:] {
		parts = append(parts, fmt.Sprintf("%d. %s", s.SolveNumber, model.FormatSolve(s)))
	}
	return strings.Join(parts, "   ")
}

func (m *Model) renderFooter() string {
	sum := m.session.Summary
	segments := []string{
		fmt.Sprintf("%s · %s", m.session.EventID, m.session.Date),
		fmt.Sprintf("Solves %d", sum.SolveCount),
		"Best " + model.FormatOptMs(sum.BestSingle),
		"Mean " + model.FormatOptMs(sum.Mean),
		"Ao5 " + model.FormatOptMs(sum.Ao5),
		"Ao12 " + model.FormatOptMs(sum.Ao12),
	}
	if m.phase != phaseRunning {
		segments = append(segments, "space start · 2 +2 · d DNF · x delete · n scramble · q quit")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
