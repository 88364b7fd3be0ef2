package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/summary"
)

const solveColumns = `id, session_id, solve_number, time_ms, scramble, penalty, notes, created_at`

func scanSolve(row rowScanner) (model.Solve, error) {
	var solve model.Solve
	var penalty, createdAt string
	if err := row.Scan(&solve.ID, &solve.SessionID, &solve.SolveNumber, &solve.TimeMs,
		&solve.Scramble, &penalty, &solve.Notes, &createdAt); err != nil {
		return model.Solve{}, err
	}
	parsed, err := parseTime(createdAt)
	if err != nil {
		return model.Solve{}, err
	}
	solve.Penalty = model.Penalty(penalty)
	solve.CreatedAt = parsed
	return solve, nil
}

// AppendSolve adds a solve at the end of the session and refreshes the session summary.
func (s *Store) AppendSolve(ctx context.Context, sessionID int64, in model.SolveInput) (int64, error) {
	ids, err := s.AppendSolves(ctx, sessionID, []model.SolveInput{in})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// AppendSolves adds solves in order within one transaction and refreshes the summary once.
func (s *Store) AppendSolves(ctx context.Context, sessionID int64, in []model.SolveInput) ([]int64, error) {
	if err := validateSolves(in); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	var ids []int64
	err := s.withTx(ctx, "append solve", func(tx *sql.Tx) error {
		if err := sessionExists(ctx, tx, sessionID); err != nil {
			return err
		}
		var err error
		ids, err = s.insertSolvesTx(ctx, tx, sessionID, in)
		if err != nil {
			return err
		}
		_, err = recomputeTx(ctx, tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func validateSolves(in []model.SolveInput) error {
	if len(in) == 0 {
		return fmt.Errorf("%w: no solves to append", model.ErrInvalidInput)
	}
	for i, solve := range in {
		if err := solve.Validate(); err != nil {
			return fmt.Errorf("solve %d: %w", i+1, err)
		}
	}
	return nil
}

// insertSolvesTx numbers the solves after the session's current last solve.
func (s *Store) insertSolvesTx(ctx context.Context, tx *sql.Tx, sessionID int64, in []model.SolveInput) ([]int64, error) {
	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(solve_number), 0) + 1 FROM solves WHERE session_id = ?`,
		sessionID).Scan(&next); err != nil {
		return nil, storageErr("next solve number", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO solves (session_id, solve_number, time_ms, scramble, penalty, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, storageErr("prepare insert solve", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	createdAt := formatTime(s.now())
	ids := make([]int64, 0, len(in))
	for i, solve := range in {
		res, err := stmt.ExecContext(ctx, sessionID, next+i, solve.TimeMs, solve.Scramble,
			string(solve.Penalty), solve.Notes, createdAt)
		if err != nil {
			return nil, storageErr("insert solve", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, storageErr("insert solve", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EditSolve applies a partial update to a solve and refreshes its session summary.
func (s *Store) EditSolve(ctx context.Context, solveID int64, upd model.SolveUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}
	sessionID, err := s.solveSession(ctx, solveID)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	return s.withTx(ctx, "edit solve", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+solveColumns+` FROM solves WHERE id = ?`, solveID)
		solve, err := scanSolve(row)
		if err != nil {
			return notFound("get solve", "solve", solveID, err)
		}
		if upd.TimeMs != nil {
			solve.TimeMs = *upd.TimeMs
		}
		if upd.Scramble != nil {
			solve.Scramble = *upd.Scramble
		}
		if upd.Penalty != nil {
			solve.Penalty = *upd.Penalty
		}
		if upd.Notes != nil {
			solve.Notes = *upd.Notes
		}
		if solve.TimeMs == 0 && solve.Penalty != model.PenaltyDNF {
			return fmt.Errorf("%w: time must be > 0 unless the solve is a DNF", model.ErrInvalidInput)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE solves SET time_ms = ?, scramble = ?, penalty = ?, notes = ? WHERE id = ?`,
			solve.TimeMs, solve.Scramble, string(solve.Penalty), solve.Notes, solveID); err != nil {
			return storageErr("update solve", err)
		}
		_, err = recomputeTx(ctx, tx, solve.SessionID)
		return err
	})
}

// DeleteSolve removes a solve, closes the gap in the numbering and refreshes the summary.
func (s *Store) DeleteSolve(ctx context.Context, solveID int64) error {
	sessionID, err := s.solveSession(ctx, solveID)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	return s.withTx(ctx, "delete solve", func(tx *sql.Tx) error {
		var number int
		if err := tx.QueryRowContext(ctx,
			`SELECT solve_number FROM solves WHERE id = ? AND session_id = ?`,
			solveID, sessionID).Scan(&number); err != nil {
			return notFound("get solve", "solve", solveID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM solves WHERE id = ?`, solveID); err != nil {
			return storageErr("delete solve", err)
		}
		if err := renumberTx(ctx, tx, sessionID, number); err != nil {
			return err
		}
		_, err := recomputeTx(ctx, tx, sessionID)
		return err
	})
}

// GetSolve loads one solve.
func (s *Store) GetSolve(ctx context.Context, id int64) (model.Solve, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+solveColumns+` FROM solves WHERE id = ?`, id)
	solve, err := scanSolve(row)
	if err != nil {
		return model.Solve{}, notFound("get solve", "solve", id, err)
	}
	return solve, nil
}

// ListSolves returns a session's solves ordered by solve number.
func (s *Store) ListSolves(ctx context.Context, sessionID int64) ([]model.Solve, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+solveColumns+` FROM solves WHERE session_id = ? ORDER BY solve_number ASC`, sessionID)
	if err != nil {
		return nil, storageErr("list solves", err)
	}
	defer closeRows(rows)

	var solves []model.Solve
	for rows.Next() {
		solve, err := scanSolve(rows)
		if err != nil {
			return nil, storageErr("list solves", err)
		}
		solves = append(solves, solve)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list solves", err)
	}
	return solves, nil
}

func (s *Store) solveSession(ctx context.Context, solveID int64) (int64, error) {
	var sessionID int64
	err := s.db.QueryRowContext(ctx, `SELECT session_id FROM solves WHERE id = ?`, solveID).Scan(&sessionID)
	if err != nil {
		return 0, notFound("get solve", "solve", solveID, err)
	}
	return sessionID, nil
}

// renumberTx shifts every solve after the removed number down by one.
// The update goes through negative numbers so the unique index never sees a collision.
func renumberTx(ctx context.Context, tx *sql.Tx, sessionID int64, removed int) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE solves SET solve_number = -(solve_number - 1) WHERE session_id = ? AND solve_number > ?`,
		sessionID, removed); err != nil {
		return storageErr("renumber solves", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE solves SET solve_number = -solve_number WHERE session_id = ? AND solve_number < 0`,
		sessionID); err != nil {
		return storageErr("renumber solves", err)
	}
	return nil
}

// recomputeTx reads the session's solves inside tx and writes the fresh summary back.
func recomputeTx(ctx context.Context, tx *sql.Tx, sessionID int64) (model.Summary, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT time_ms, penalty FROM solves WHERE session_id = ? ORDER BY solve_number ASC`, sessionID)
	if err != nil {
		return model.Summary{}, storageErr("load attempts", err)
	}
	var attempts []summary.Attempt
	for rows.Next() {
		var a summary.Attempt
		var penalty string
		if err := rows.Scan(&a.TimeMs, &penalty); err != nil {
			closeRows(rows)
			return model.Summary{}, storageErr("load attempts", err)
		}
		a.Penalty = model.Penalty(penalty)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return model.Summary{}, storageErr("load attempts", err)
	}
	closeRows(rows)

	sum := summary.Compute(attempts)
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET solve_count = ?, best_single = ?, worst_single = ?, session_mean = ?, ao5 = ?, ao12 = ?
		 WHERE id = ?`,
		sum.SolveCount, sum.BestSingle, sum.WorstSingle, sum.Mean, sum.Ao5, sum.Ao12, sessionID)
	if err != nil {
		return model.Summary{}, storageErr("store summary", err)
	}
	if err := expectAffected(res, "session", sessionID); err != nil {
		return model.Summary{}, err
	}
	return sum, nil
}
