package api

import (
	"fmt"
	"net/http"

	"github.com/cubelog/cubelog/internal/model"
)

type sessionDetail struct {
	model.Session
	Solves []model.Solve `json:"solves"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		s.fail(w, r, "list sessions", err)
		return
	}
	sessions, err := s.store.ListSessions(r.Context(), filter)
	if err != nil {
		s.fail(w, r, "list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in model.SessionInput
	if err := readJSON(w, r, &in); err != nil {
		s.fail(w, r, "create session", err)
		return
	}
	sess, err := s.store.CreateSession(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create session", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "get session", err)
		return
	}
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get session", err)
		return
	}
	solves, err := s.store.ListSolves(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get session", err)
		return
	}
	if solves == nil {
		solves = []model.Solve{}
	}
	s.writeJSON(w, http.StatusOK, sessionDetail{Session: sess, Solves: solves})
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "update session", err)
		return
	}
	var upd model.SessionUpdate
	if err := readJSON(w, r, &upd); err != nil {
		s.fail(w, r, "update session", err)
		return
	}
	sess, err := s.store.UpdateSession(r.Context(), id, upd)
	if err != nil {
		s.fail(w, r, "update session", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "delete session", err)
		return
	}
	if err := s.store.DeleteSession(r.Context(), id); err != nil {
		s.fail(w, r, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecomputeSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "recompute session", err)
		return
	}
	sum, err := s.store.RecomputeSession(r.Context(), id)
	if err != nil {
		s.fail(w, r, "recompute session", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleListSolves(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "list solves", err)
		return
	}
	if _, err := s.store.GetSession(r.Context(), id); err != nil {
		s.fail(w, r, "list solves", err)
		return
	}
	solves, err := s.store.ListSolves(r.Context(), id)
	if err != nil {
		s.fail(w, r, "list solves", err)
		return
	}
	if solves == nil {
		solves = []model.Solve{}
	}
	s.writeJSON(w, http.StatusOK, solves)
}

// solveRequest accepts either a typed time string ("18.53", "DNF(18.53)", "20.01+") or raw milliseconds.
type solveRequest struct {
	Time     string        `json:"time"`
	TimeMs   *int64        `json:"time_ms"`
	Penalty  model.Penalty `json:"penalty"`
	Scramble string        `json:"scramble"`
	Notes    string        `json:"notes"`
}

func (req solveRequest) input() (model.SolveInput, error) {
	in := model.SolveInput{Penalty: req.Penalty, Scramble: req.Scramble, Notes: req.Notes}
	switch {
	case req.Time != "":
		ms, penalty, err := model.ParseTime(req.Time)
		if err != nil {
			return in, err
		}
		in.TimeMs = ms
		if in.Penalty == model.PenaltyNone {
			in.Penalty = penalty
		}
	case req.TimeMs != nil:
		in.TimeMs = *req.TimeMs
	default:
		return in, fmt.Errorf("%w: time or time_ms is required", model.ErrInvalidInput)
	}
	return in, in.Validate()
}

func (s *Server) handleAppendSolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "append solve", err)
		return
	}
	var req solveRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, "append solve", err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.fail(w, r, "append solve", err)
		return
	}
	solveID, err := s.store.AppendSolve(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, "append solve", err)
		return
	}
	s.writeSolveResult(w, r, http.StatusCreated, solveID)
}

// solveResult pairs a solve with its session's refreshed summary.
type solveResult struct {
	Solve   model.Solve   `json:"solve"`
	Session model.Session `json:"session"`
}

func (s *Server) writeSolveResult(w http.ResponseWriter, r *http.Request, status int, solveID int64) {
	solve, err := s.store.GetSolve(r.Context(), solveID)
	if err != nil {
		s.fail(w, r, "get solve", err)
		return
	}
	sess, err := s.store.GetSession(r.Context(), solve.SessionID)
	if err != nil {
		s.fail(w, r, "get session", err)
		return
	}
	s.writeJSON(w, status, solveResult{Solve: solve, Session: sess})
}

func (s *Server) handleGetSolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "get solve", err)
		return
	}
	solve, err := s.store.GetSolve(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get solve", err)
		return
	}
	s.writeJSON(w, http.StatusOK, solve)
}

// editRequest mirrors model.SolveUpdate and also takes a typed time string.
type editRequest struct {
	Time     *string        `json:"time"`
	TimeMs   *int64         `json:"time_ms"`
	Penalty  *model.Penalty `json:"penalty"`
	Scramble *string        `json:"scramble"`
	Notes    *string        `json:"notes"`
}

func (req editRequest) update() (model.SolveUpdate, error) {
	upd := model.SolveUpdate{TimeMs: req.TimeMs, Penalty: req.Penalty, Scramble: req.Scramble, Notes: req.Notes}
	if req.Time != nil {
		ms, penalty, err := model.ParseTime(*req.Time)
		if err != nil {
			return upd, err
		}
		upd.TimeMs = &ms
		if upd.Penalty == nil && penalty != model.PenaltyNone {
			upd.Penalty = &penalty
		}
	}
	return upd, upd.Validate()
}

func (s *Server) handleEditSolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "edit solve", err)
		return
	}
	var req editRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, "edit solve", err)
		return
	}
	upd, err := req.update()
	if err != nil {
		s.fail(w, r, "edit solve", err)
		return
	}
	if err := s.store.EditSolve(r.Context(), id, upd); err != nil {
		s.fail(w, r, "edit solve", err)
		return
	}
	s.writeSolveResult(w, r, http.StatusOK, id)
}

func (s *Server) handleDeleteSolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "delete solve", err)
		return
	}
	solve, err := s.store.GetSolve(r.Context(), id)
	if err != nil {
		s.fail(w, r, "delete solve", err)
		return
	}
	if err := s.store.DeleteSolve(r.Context(), id); err != nil {
		s.fail(w, r, "delete solve", err)
		return
	}
	sess, err := s.store.GetSession(r.Context(), solve.SessionID)
	if err != nil {
		s.fail(w, r, "delete solve", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}
