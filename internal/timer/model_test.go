package timer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/scramble"
	"github.com/cubelog/cubelog/internal/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTimer(t *testing.T) (*Model, *store.Store, *fakeClock) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cubelog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	sess, err := st.CreateSession(context.Background(), model.SessionInput{EventID: "333"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	m, err := NewModel(Config{SessionID: sess.ID}, st, scramble.NewWithSeed(1), nil)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	clock := &fakeClock{t: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)}
	m.now = clock.now
	return m, st, clock
}

func press(m *Model, key string) {
	switch key {
	case " ":
		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	case "backspace":
		m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	default:
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	}
}

func solve(m *Model, clock *fakeClock, d time.Duration) {
	press(m, " ")
	clock.advance(d)
	press(m, " ")
}

func TestSpaceRecordsSolve(t *testing.T) {
	m, st, clock := newTestTimer(t)
	first := m.scramble
	if len(strings.Fields(first)) != 20 {
		t.Fatalf("expected a 3x3 scramble, got %q", first)
	}

	solve(m, clock, 18530*time.Millisecond)

	solves, err := st.ListSolves(context.Background(), m.cfg.SessionID)
	if err != nil {
		t.Fatalf("ListSolves failed: %v", err)
	}
	if len(solves) != 1 || solves[0].TimeMs != 18530 || solves[0].Scramble != first {
		t.Fatalf("unexpected solves: %+v", solves)
	}
	if m.scramble == first {
		t.Fatalf("expected a fresh scramble after the solve")
	}
	if m.Session().SolveCount != 1 || *m.Session().BestSingle != 18530 {
		t.Fatalf("expected summary to follow the solve, got %+v", m.Session().Summary)
	}
}

func TestPenaltyTogglesAndDelete(t *testing.T) {
	m, st, clock := newTestTimer(t)
	solve(m, clock, 18*time.Second)

	press(m, "2")
	last, _ := m.lastSolve()
	if last.Penalty != model.PenaltyPlusTwo || *m.Session().BestSingle != 20000 {
		t.Fatalf("expected +2 applied, got %+v", last)
	}
	press(m, "2")
	last, _ = m.lastSolve()
	if last.Penalty != model.PenaltyNone {
		t.Fatalf("expected +2 removed, got %q", last.Penalty)
	}
	press(m, "d")
	if m.Session().BestSingle != nil || m.Session().SolveCount != 1 {
		t.Fatalf("expected DNF to clear best single, got %+v", m.Session().Summary)
	}

	press(m, "x")
	solves, err := st.ListSolves(context.Background(), m.cfg.SessionID)
	if err != nil {
		t.Fatalf("ListSolves failed: %v", err)
	}
	if len(solves) != 0 || m.Session().SolveCount != 0 {
		t.Fatalf("expected solve deleted, got %d solves", len(solves))
	}
	press(m, "backspace")
	if m.status != "" {
		t.Fatalf("expected deleting from an empty session to be a no-op, got %q", m.status)
	}
}

func TestKeysIgnoredWhileRunning(t *testing.T) {
	m, _, clock := newTestTimer(t)
	press(m, " ")
	press(m, "q")
	press(m, "n")
	if m.phase != phaseRunning {
		t.Fatalf("expected timer to keep running")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected ctrl+c to quit while running")
	}
	clock.advance(time.Second)
}

func TestAverageFooter(t *testing.T) {
	m, _, clock := newTestTimer(t)
	for _, ms := range []int64{18500, 21300, 19800, 20100, 22400} {
		solve(m, clock, time.Duration(ms)*time.Millisecond)
	}
	footer := m.renderFooter()
	for _, want := range []string{"Solves 5", "Best 18.50", "Mean 20.42", "Ao5 20.40", "Ao12 -"} {
		if !strings.Contains(footer, want) {
			t.Fatalf("footer missing %q: %s", want, footer)
		}
	}
	if recent := m.renderRecent(); !strings.Contains(recent, "5. 22.40") {
		t.Fatalf("unexpected recent solves: %q", recent)
	}
}

func TestNewModelUnknownSession(t *testing.T) {
	m, st, _ := newTestTimer(t)
	if _, err := NewModel(Config{SessionID: m.cfg.SessionID + 100}, st, nil, nil); err == nil {
		t.Fatalf("expected error for missing session")
	}
}
