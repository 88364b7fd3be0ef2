// Package importer reads csTimer exports and plain solve logs.
package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/summary"
)

// SessionPreview summarizes a parsed session before it is written.
type SessionPreview struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Event      string `json:"event,omitempty"`
	Date       string `json:"date,omitempty"`
	SolveCount int    `json:"solve_count"`
	Skipped    int    `json:"skipped,omitempty"`
	Best       *int64 `json:"best"`
	Worst      *int64 `json:"worst"`
	Mean       *int64 `json:"mean"`
}

// Preview computes count, best, worst and mean for every parsed session.
func Preview(sessions []Session) []SessionPreview {
	out := make([]SessionPreview, 0, len(sessions))
	for _, s := range sessions {
		sum := summary.Compute(attempts(s.Solves))
		out = append(out, SessionPreview{
			Key:        s.Key,
			Name:       s.Name,
			Event:      s.Event,
			Date:       s.Date(),
			SolveCount: sum.SolveCount,
			Skipped:    s.Skipped,
			Best:       sum.BestSingle,
			Worst:      sum.WorstSingle,
			Mean:       sum.Mean,
		})
	}
	return out
}

func attempts(solves []Solve) []summary.Attempt {
	out := make([]summary.Attempt, len(solves))
	for i, s := range solves {
		out[i] = summary.Attempt{TimeMs: s.TimeMs, Penalty: s.Penalty}
	}
	return out
}

// Store is the part of the solve store an import writes through.
type Store interface {
	CreateSessionWithSolves(ctx context.Context, in model.SessionInput, solves []model.SolveInput) (model.Session, error)
}

// Options controls which sessions are imported and how they are labelled.
type Options struct {
	// Event is used for sessions whose event cannot be read from the file.
	Event string
	// Only restricts the import to these session keys or names.
	Only []string
	// Date overrides the session date; otherwise the first solve's timestamp or today is used.
	Date string
	// CubeID links imported sessions to a cube.
	CubeID *int64
	// ForceEvent ignores events detected from the file.
	ForceEvent bool
}

// ImportedSession reports one created session.
type ImportedSession struct {
	Key       string `json:"key"`
	SessionID int64  `json:"session_id"`
	Solves    int    `json:"solves"`
}

// Result reports what an import wrote.
type Result struct {
	Sessions    []ImportedSession `json:"sessions"`
	TotalSolves int               `json:"total_solves"`
	Skipped     int               `json:"skipped"`
}

// Importer writes parsed sessions into a store through the append path.
type Importer struct {
	store  Store
	logger *log.Logger
}

// New returns an Importer; a nil logger discards diagnostics.
func New(store Store, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Importer{store: store, logger: logger}
}

// Import creates one session per parsed session with its solves in order.
// Every solve is validated before anything is written, and each session is written
// in one transaction. Empty sessions are skipped. If a write fails the sessions
// already imported are returned with the error.
func (im *Importer) Import(ctx context.Context, sessions []Session, opts Options) (Result, error) {
	var res Result
	selected := selectSessions(sessions, opts.Only)
	if len(opts.Only) > 0 && len(selected) == 0 {
		return res, fmt.Errorf("%w: none of %s found in file", model.ErrInvalidInput, strings.Join(opts.Only, ", "))
	}

	type pending struct {
		key     string
		session model.SessionInput
		solves  []model.SolveInput
	}
	var batch []pending
	for _, s := range selected {
		res.Skipped += s.Skipped
		if len(s.Solves) == 0 {
			im.logger.Debug("skipping empty session", "key", s.Key)
			continue
		}
		inputs, err := solveInputs(s)
		if err != nil {
			return Result{Skipped: res.Skipped}, err
		}
		batch = append(batch, pending{key: s.Key, session: sessionInput(s, opts), solves: inputs})
	}

	for _, p := range batch {
		sess, err := im.store.CreateSessionWithSolves(ctx, p.session, p.solves)
		if err != nil {
			return res, fmt.Errorf("import session %s: %w", p.key, err)
		}
		im.logger.Info("imported session", "key", p.key, "session", sess.ID, "solves", len(p.solves))
		res.Sessions = append(res.Sessions, ImportedSession{Key: p.key, SessionID: sess.ID, Solves: len(p.solves)})
		res.TotalSolves += len(p.solves)
	}
	return res, nil
}

func sessionInput(s Session, opts Options) model.SessionInput {
	event := opts.Event
	if s.Event != "" && !opts.ForceEvent {
		event = s.Event
	}
	date := opts.Date
	if date == "" {
		date = s.Date()
	}
	notes := "Imported from " + s.Key
	if s.Name != "" && s.Name != s.Key {
		notes = fmt.Sprintf("Imported from %s (%s)", s.Name, s.Key)
	}
	return model.SessionInput{Date: date, EventID: event, CubeID: opts.CubeID, Notes: notes}
}

func solveInputs(s Session) ([]model.SolveInput, error) {
	inputs := make([]model.SolveInput, len(s.Solves))
	for i, solve := range s.Solves {
		in := model.SolveInput{
			TimeMs:   solve.TimeMs,
			Scramble: solve.Scramble,
			Penalty:  solve.Penalty,
			Notes:    solve.Comment,
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("session %s solve %d: %w", s.Key, i+1, err)
		}
		inputs[i] = in
	}
	return inputs, nil
}

func selectSessions(sessions []Session, only []string) []Session {
	if len(only) == 0 {
		return sessions
	}
	want := map[string]bool{}
	for _, key := range only {
		want[strings.TrimSpace(key)] = true
	}
	var out []Session
	for _, s := range sessions {
		if want[s.Key] || want[s.Name] {
			out = append(out, s)
		}
	}
	return out
}
