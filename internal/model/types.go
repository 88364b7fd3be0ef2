// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and display layout for session dates.
const DateLayout = "2006-01-02"

// DefaultEvent is used when a session is created without an event.
const DefaultEvent = "333"

// PlusTwoMs is the time added by a +2 penalty.
const PlusTwoMs int64 = 2000

// MaxTimeMs is the longest solve time accepted, 24 hours.
const MaxTimeMs int64 = 24 * 60 * 60 * 1000

// Penalty marks a solve as clean, +2 or DNF.
type Penalty string

// Penalty values as persisted.
const (
	PenaltyNone    Penalty = ""
	PenaltyPlusTwo Penalty = "+2"
	PenaltyDNF     Penalty = "DNF"
)

// ParsePenalty accepts the persisted forms plus a few aliases ("ok", "none", "dnf").
func ParsePenalty(s string) (Penalty, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "OK", "NONE":
		return PenaltyNone, nil
	case "+2", "2", "PLUS2":
		return PenaltyPlusTwo, nil
	case "DNF":
		return PenaltyDNF, nil
	}
	return PenaltyNone, fmt.Errorf("%w: unknown penalty %q", ErrInvalidInput, s)
}

// Valid reports whether p is one of the known penalties.
func (p Penalty) Valid() bool {
	return p == PenaltyNone || p == PenaltyPlusTwo || p == PenaltyDNF
}

// Solve is one timed attempt inside a session.
type Solve struct {
	ID          int64     `json:"id" yaml:"id"`
	SessionID   int64     `json:"session_id" yaml:"session_id"`
	SolveNumber int       `json:"solve_number" yaml:"solve_number"`
	TimeMs      int64     `json:"time_ms" yaml:"time_ms"`
	Scramble    string    `json:"scramble,omitempty" yaml:"scramble,omitempty"`
	Penalty     Penalty   `json:"penalty,omitempty" yaml:"penalty,omitempty"`
	Notes       string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// EffectiveTime returns the time used by aggregates and false for a DNF.
func EffectiveTime(timeMs int64, p Penalty) (int64, bool) {
	switch p {
	case PenaltyDNF:
		return 0, false
	case PenaltyPlusTwo:
		return timeMs + PlusTwoMs, true
	}
	return timeMs, true
}

// SolveInput is the payload for appending a solve.
type SolveInput struct {
	TimeMs   int64   `json:"time_ms"`
	Scramble string  `json:"scramble"`
	Penalty  Penalty `json:"penalty"`
	Notes    string  `json:"notes"`
}

// Validate rejects negative or over-long times and unknown penalties.
func (in SolveInput) Validate() error {
	if in.TimeMs < 0 {
		return fmt.Errorf("%w: time must be >= 0", ErrInvalidInput)
	}
	if in.TimeMs > MaxTimeMs {
		return fmt.Errorf("%w: time must not exceed 24 hours", ErrInvalidInput)
	}
	if !in.Penalty.Valid() {
		return fmt.Errorf("%w: unknown penalty %q", ErrInvalidInput, in.Penalty)
	}
	if in.TimeMs == 0 && in.Penalty != PenaltyDNF {
		return fmt.Errorf("%w: time must be > 0 unless the solve is a DNF", ErrInvalidInput)
	}
	return nil
}

// SolveUpdate carries the fields to change on an existing solve. Nil fields are left alone.
type SolveUpdate struct {
	TimeMs   *int64   `json:"time_ms,omitempty"`
	Scramble *string  `json:"scramble,omitempty"`
	Penalty  *Penalty `json:"penalty,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u SolveUpdate) Empty() bool {
	return u.TimeMs == nil && u.Scramble == nil && u.Penalty == nil && u.Notes == nil
}

// Validate checks the provided fields.
func (u SolveUpdate) Validate() error {
	if u.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if u.TimeMs != nil && *u.TimeMs < 0 {
		return fmt.Errorf("%w: time must be >= 0", ErrInvalidInput)
	}
	if u.TimeMs != nil && *u.TimeMs > MaxTimeMs {
		return fmt.Errorf("%w: time must not exceed 24 hours", ErrInvalidInput)
	}
	if u.Penalty != nil && !u.Penalty.Valid() {
		return fmt.Errorf("%w: unknown penalty %q", ErrInvalidInput, *u.Penalty)
	}
	return nil
}

// Summary is the cached statistics of a session. Nil time fields mean "not defined".
type Summary struct {
	SolveCount  int    `json:"solve_count" yaml:"solve_count"`
	BestSingle  *int64 `json:"best_single" yaml:"best_single"`
	WorstSingle *int64 `json:"worst_single" yaml:"worst_single"`
	Mean        *int64 `json:"session_mean" yaml:"session_mean"`
	Ao5         *int64 `json:"ao5" yaml:"ao5"`
	Ao12        *int64 `json:"ao12" yaml:"ao12"`
}

// Session groups solves sharing an event and date.
type Session struct {
	ID        int64     `json:"id" yaml:"id"`
	Date      string    `json:"date" yaml:"date"`
	EventID   string    `json:"event_id" yaml:"event_id"`
	CubeID    *int64    `json:"cube_id,omitempty" yaml:"cube_id,omitempty"`
	Notes     string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Summary   `yaml:",inline"`
}

// SessionInput is the payload for creating a session.
type SessionInput struct {
	Date    string `json:"date"`
	EventID string `json:"event_id"`
	CubeID  *int64 `json:"cube_id"`
	Notes   string `json:"notes"`
}

// SessionUpdate changes session metadata. The summary is never part of it.
type SessionUpdate struct {
	Notes     *string `json:"notes,omitempty"`
	CubeID    *int64  `json:"cube_id,omitempty"`
	ClearCube bool    `json:"clear_cube,omitempty"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	Event string
	Since *time.Time
	Last  int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Event       string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// ParseDate validates a YYYY-MM-DD date and returns it normalized.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return t.Format(DateLayout), nil
}

// Filter returns the session filter part of the stats config.
func (c StatsConfig) Filter() SessionFilter {
	return SessionFilter{Event: c.Event, Since: c.Since, Last: c.Last}
}

// Cube is a piece of equipment. Retired cubes stay referenced by old sessions.
type Cube struct {
	ID           int64     `json:"id" yaml:"id"`
	CubeType     string    `json:"cube_type" yaml:"cube_type"`
	Brand        string    `json:"brand,omitempty" yaml:"brand,omitempty"`
	Model        string    `json:"model,omitempty" yaml:"model,omitempty"`
	PurchaseDate string    `json:"purchase_date,omitempty" yaml:"purchase_date,omitempty"`
	Notes        string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Active       bool      `json:"is_active" yaml:"is_active"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// Label is a short human name for the cube.
func (c Cube) Label() string {
	parts := []string{}
	for _, p := range []string{c.Brand, c.Model} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return c.CubeType
	}
	return strings.Join(parts, " ") + " (" + c.CubeType + ")"
}

// CubeInput is the payload for adding a cube.
type CubeInput struct {
	CubeType     string `json:"cube_type"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	PurchaseDate string `json:"purchase_date"`
	Notes        string `json:"notes"`
}

// CubeUpdate changes selected cube fields.
type CubeUpdate struct {
	CubeType     *string `json:"cube_type,omitempty"`
	Brand        *string `json:"brand,omitempty"`
	Model        *string `json:"model,omitempty"`
	PurchaseDate *string `json:"purchase_date,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	Active       *bool   `json:"is_active,omitempty"`
}

// UserSettings binds the local user to a WCA profile.
type UserSettings struct {
	WCAID     string    `json:"wca_id" yaml:"wca_id"`
	WCAName   string    `json:"wca_name" yaml:"wca_name"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Overview aggregates totals for an event, or for every event when Event is empty.
type Overview struct {
	Event         string `json:"event"`
	TotalSolves   int    `json:"total_solves"`
	TotalSessions int    `json:"total_sessions"`
	ActiveCubes   int    `json:"active_cubes"`
	PersonalBest  *int64 `json:"personal_best"`
	OverallMean   *int64 `json:"overall_average"`
	BestAo5       *int64 `json:"best_ao5"`
	BestAo12      *int64 `json:"best_ao12"`
}

// PersonalBest is the fastest valid solve of an event.
type PersonalBest struct {
	Event       string `json:"event"`
	TimeMs      int64  `json:"time_ms"`
	SolveID     int64  `json:"solve_id"`
	SessionID   int64  `json:"session_id"`
	SessionDate string `json:"session_date"`
	Scramble    string `json:"scramble,omitempty"`
}

// ProgressPoint is one session on a progress curve.
type ProgressPoint struct {
	SessionID  int64  `json:"session_id"`
	Date       string `json:"date"`
	SolveCount int    `json:"solve_count"`
	Best       *int64 `json:"best"`
	Mean       *int64 `json:"mean"`
	Ao5        *int64 `json:"ao5"`
	Ao12       *int64 `json:"ao12"`
}
