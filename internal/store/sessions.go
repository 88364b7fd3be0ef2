package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cubelog/cubelog/internal/model"
)

const sessionColumns = `id, date, event_id, cube_id, notes, solve_count,
	best_single, worst_single, session_mean, ao5, ao12, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.Session, error) {
	var sess model.Session
	var cubeID, best, worst, mean, ao5, ao12 sql.NullInt64
	var createdAt string
	if err := row.Scan(&sess.ID, &sess.Date, &sess.EventID, &cubeID, &sess.Notes, &sess.SolveCount,
		&best, &worst, &mean, &ao5, &ao12, &createdAt); err != nil {
		return model.Session{}, err
	}
	parsed, err := parseTime(createdAt)
	if err != nil {
		return model.Session{}, err
	}
	sess.CreatedAt = parsed
	sess.CubeID = nullPtr(cubeID)
	sess.BestSingle = nullPtr(best)
	sess.WorstSingle = nullPtr(worst)
	sess.Mean = nullPtr(mean)
	sess.Ao5 = nullPtr(ao5)
	sess.Ao12 = nullPtr(ao12)
	return sess, nil
}

// CreateSession inserts an empty session. Date defaults to today and event to 3x3.
func (s *Store) CreateSession(ctx context.Context, in model.SessionInput) (model.Session, error) {
	in, err := s.normalizeSession(in)
	if err != nil {
		return model.Session{}, err
	}
	var id int64
	err = s.withTx(ctx, "create session", func(tx *sql.Tx) error {
		var err error
		id, err = s.insertSessionTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return model.Session{}, err
	}
	return s.GetSession(ctx, id)
}

// CreateSessionWithSolves inserts a session together with its solves and summary.
// Nothing is written when any solve is invalid or an insert fails.
func (s *Store) CreateSessionWithSolves(ctx context.Context, in model.SessionInput, solves []model.SolveInput) (model.Session, error) {
	in, err := s.normalizeSession(in)
	if err != nil {
		return model.Session{}, err
	}
	if err := validateSolves(solves); err != nil {
		return model.Session{}, err
	}
	var id int64
	err = s.withTx(ctx, "create session", func(tx *sql.Tx) error {
		var err error
		id, err = s.insertSessionTx(ctx, tx, in)
		if err != nil {
			return err
		}
		if _, err := s.insertSolvesTx(ctx, tx, id, solves); err != nil {
			return err
		}
		_, err = recomputeTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.Session{}, err
	}
	return s.GetSession(ctx, id)
}

func (s *Store) normalizeSession(in model.SessionInput) (model.SessionInput, error) {
	if strings.TrimSpace(in.Date) == "" {
		in.Date = s.now().Format(model.DateLayout)
	} else {
		parsed, err := model.ParseDate(in.Date)
		if err != nil {
			return model.SessionInput{}, err
		}
		in.Date = parsed
	}
	in.EventID = strings.TrimSpace(in.EventID)
	if in.EventID == "" {
		in.EventID = model.DefaultEvent
	}
	return in, nil
}

func (s *Store) insertSessionTx(ctx context.Context, tx *sql.Tx, in model.SessionInput) (int64, error) {
	if in.CubeID != nil {
		if err := cubeExists(ctx, tx, *in.CubeID); err != nil {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (date, event_id, cube_id, notes, solve_count, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		in.Date, in.EventID, in.CubeID, in.Notes, formatTime(s.now()))
	if err != nil {
		return 0, storageErr("insert session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert session", err)
	}
	return id, nil
}

// GetSession loads a session with its cached summary.
func (s *Store) GetSession(ctx context.Context, id int64) (model.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return model.Session{}, notFound("get session", "session", id, err)
	}
	return sess, nil
}

// ListSessions returns sessions in date order, optionally restricted to the most recent ones.
func (s *Store) ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.Session, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Event != "" && filter.Event != "all" {
		clauses = append(clauses, "event_id = ?")
		args = append(args, filter.Event)
	}
	if filter.Since != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, filter.Since.Format(model.DateLayout))
	}
	limit := -1
	if filter.Last > 0 {
		limit = filter.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT %s FROM (
			SELECT %s FROM sessions
			WHERE %s
			ORDER BY date DESC, id DESC
			LIMIT ?
		) ORDER BY date ASC, id ASC`, sessionColumns, sessionColumns, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	defer closeRows(rows)

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, storageErr("list sessions", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list sessions", err)
	}
	return sessions, nil
}

// UpdateSession changes notes or the cube reference. The summary is untouched.
func (s *Store) UpdateSession(ctx context.Context, id int64, upd model.SessionUpdate) (model.Session, error) {
	if upd.Notes == nil && upd.CubeID == nil && !upd.ClearCube {
		return model.Session{}, fmt.Errorf("%w: nothing to update", model.ErrInvalidInput)
	}
	err := s.withTx(ctx, "update session", func(tx *sql.Tx) error {
		sets := []string{}
		args := []any{}
		if upd.Notes != nil {
			sets = append(sets, "notes = ?")
			args = append(args, *upd.Notes)
		}
		switch {
		case upd.ClearCube:
			sets = append(sets, "cube_id = NULL")
		case upd.CubeID != nil:
			if err := cubeExists(ctx, tx, *upd.CubeID); err != nil {
				return err
			}
			sets = append(sets, "cube_id = ?")
			args = append(args, *upd.CubeID)
		}
		args = append(args, id)
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE sessions SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
		if err != nil {
			return storageErr("update session", err)
		}
		return expectAffected(res, "session", id)
	})
	if err != nil {
		return model.Session{}, err
	}
	return s.GetSession(ctx, id)
}

// DeleteSession removes a session; its solves go with it.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	unlock := s.locks.lock(id)
	defer unlock()
	return s.withTx(ctx, "delete session", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		if err != nil {
			return storageErr("delete session", err)
		}
		return expectAffected(res, "session", id)
	})
}

// RecomputeSession rebuilds the cached summary from the stored solves.
// Running it on a consistent session changes nothing.
func (s *Store) RecomputeSession(ctx context.Context, id int64) (model.Summary, error) {
	unlock := s.locks.lock(id)
	defer unlock()
	var sum model.Summary
	err := s.withTx(ctx, "recompute session", func(tx *sql.Tx) error {
		var err error
		sum, err = recomputeTx(ctx, tx, id)
		return err
	})
	return sum, err
}

// RecomputeAll repairs every session and returns how many were processed.
func (s *Store) RecomputeAll(ctx context.Context) (int, error) {
	sessions, err := s.ListSessions(ctx, model.SessionFilter{})
	if err != nil {
		return 0, err
	}
	for i, sess := range sessions {
		if _, err := s.RecomputeSession(ctx, sess.ID); err != nil {
			return i, err
		}
	}
	return len(sessions), nil
}

func sessionExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var found int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM sessions WHERE id = ?`, id).Scan(&found)
	if err != nil {
		return notFound("find session", "session", id, err)
	}
	return nil
}

func expectAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, model.ErrNotFound)
	}
	return nil
}
