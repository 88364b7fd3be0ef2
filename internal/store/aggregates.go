package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cubelog/cubelog/internal/model"
)

// effectiveExpr is the aggregate time of a solve row; NULL for DNF.
const effectiveExpr = `CASE s.penalty WHEN 'DNF' THEN NULL WHEN '+2' THEN s.time_ms + 2000 ELSE s.time_ms END`

func eventClause(event string, column string) (string, []any) {
	if event == "" || event == "all" {
		return "1=1", nil
	}
	return column + " = ?", []any{event}
}

// Events lists the events that have at least one session.
func (s *Store) Events(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT event_id FROM sessions ORDER BY event_id`)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer closeRows(rows)

	var events []string
	for rows.Next() {
		var event string
		if err := rows.Scan(&event); err != nil {
			return nil, storageErr("list events", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list events", err)
	}
	return events, nil
}

// Overview aggregates totals for one event, or all events when event is "" or "all".
func (s *Store) Overview(ctx context.Context, event string) (model.Overview, error) {
	ov := model.Overview{Event: event}
	where, args := eventClause(event, "se.event_id")

	var pb sql.NullInt64
	var mean sql.NullFloat64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*), MIN(%s), AVG(%s)
		 FROM solves s JOIN sessions se ON se.id = s.session_id
		 WHERE %s`, effectiveExpr, effectiveExpr, where), args...).Scan(&ov.TotalSolves, &pb, &mean)
	if err != nil {
		return model.Overview{}, storageErr("overview solves", err)
	}
	ov.PersonalBest = nullPtr(pb)
	ov.OverallMean = nullFloatMs(mean)

	var bestAo5, bestAo12 sql.NullInt64
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*), MIN(se.ao5), MIN(se.ao12) FROM sessions se WHERE %s`, where), args...).
		Scan(&ov.TotalSessions, &bestAo5, &bestAo12)
	if err != nil {
		return model.Overview{}, storageErr("overview sessions", err)
	}
	ov.BestAo5 = nullPtr(bestAo5)
	ov.BestAo12 = nullPtr(bestAo12)

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cubes WHERE is_active = 1`).Scan(&ov.ActiveCubes); err != nil {
		return model.Overview{}, storageErr("overview cubes", err)
	}
	return ov, nil
}

// PersonalBests returns the fastest valid solve of every event.
func (s *Store) PersonalBests(ctx context.Context) ([]model.PersonalBest, error) {
	query := fmt.Sprintf(`SELECT event_id, eff, id, session_id, date, scramble FROM (
			SELECT se.event_id, %s AS eff, s.id, s.session_id, se.date, s.scramble,
				ROW_NUMBER() OVER (PARTITION BY se.event_id ORDER BY %s ASC, s.id ASC) AS rn
			FROM solves s JOIN sessions se ON se.id = s.session_id
			WHERE s.penalty != 'DNF'
		) WHERE rn = 1
		ORDER BY event_id`, effectiveExpr, effectiveExpr)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("personal bests", err)
	}
	defer closeRows(rows)

	var bests []model.PersonalBest
	for rows.Next() {
		var pb model.PersonalBest
		if err := rows.Scan(&pb.Event, &pb.TimeMs, &pb.SolveID, &pb.SessionID, &pb.SessionDate, &pb.Scramble); err != nil {
			return nil, storageErr("personal bests", err)
		}
		bests = append(bests, pb)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("personal bests", err)
	}
	return bests, nil
}

// PersonalBest returns the fastest valid solve of one event.
func (s *Store) PersonalBest(ctx context.Context, event string) (model.PersonalBest, error) {
	bests, err := s.PersonalBests(ctx)
	if err != nil {
		return model.PersonalBest{}, err
	}
	for _, pb := range bests {
		if pb.Event == event {
			return pb, nil
		}
	}
	return model.PersonalBest{}, fmt.Errorf("personal best for %q: %w", event, model.ErrNotFound)
}

// EffectiveTimes returns every valid solve time of the filtered sessions in chronological order.
func (s *Store) EffectiveTimes(ctx context.Context, filter model.SessionFilter) ([]int64, error) {
	sessions, err := s.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessions))
	args := make([]any, len(sessions))
	for i, sess := range sessions {
		placeholders[i] = "?"
		args[i] = sess.ID
	}
	query := fmt.Sprintf(`SELECT %s FROM solves s JOIN sessions se ON se.id = s.session_id
		WHERE s.session_id IN (%s) AND s.penalty != 'DNF'
		ORDER BY se.date ASC, se.id ASC, s.solve_number ASC`, effectiveExpr, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("effective times", err)
	}
	defer closeRows(rows)

	var times []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, storageErr("effective times", err)
		}
		times = append(times, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("effective times", err)
	}
	return times, nil
}
