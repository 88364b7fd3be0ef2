package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/ranking"
	"github.com/cubelog/cubelog/internal/stats"
	"github.com/cubelog/cubelog/internal/summary"
)

// estimateView adds the display labels the CLI prints to a ranking estimate.
type estimateView struct {
	ranking.Estimate
	FasterThan string `json:"faster_than"`
	RankLabel  string `json:"rank_label"`
	TotalLabel string `json:"total_label"`
}

func viewOf(e *ranking.Estimate) *estimateView {
	if e == nil {
		return nil
	}
	return &estimateView{Estimate: *e, FasterThan: e.FasterThan(), RankLabel: e.RankLabel(), TotalLabel: e.TotalLabel()}
}

type rankingView struct {
	Single  *estimateView `json:"single,omitempty"`
	Average *estimateView `json:"average,omitempty"`
}

type statsResponse struct {
	Overview     model.Overview      `json:"overview"`
	PersonalBest *model.PersonalBest `json:"personal_best,omitempty"`
	Ranking      *rankingView        `json:"ranking,omitempty"`
	WCA          *model.UserSettings `json:"wca,omitempty"`
}

func allEvents(event string) bool {
	return event == "" || event == "all"
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event := r.URL.Query().Get("event")
	overview, err := s.store.Overview(ctx, event)
	if err != nil {
		s.fail(w, r, "stats", err)
		return
	}
	resp := statsResponse{Overview: overview}

	if !allEvents(event) {
		pb, err := s.store.PersonalBest(ctx, event)
		switch {
		case err == nil:
			resp.PersonalBest = &pb
		case !errors.Is(err, model.ErrNotFound):
			s.fail(w, r, "stats", err)
			return
		}
		if overview.PersonalBest != nil || overview.BestAo5 != nil {
			pair := s.ranking.EstimateBoth(ctx, event, overview.PersonalBest, overview.BestAo5)
			resp.Ranking = &rankingView{Single: viewOf(pair.Single), Average: viewOf(pair.Average)}
		}
	}

	settings, err := s.store.GetSettings(ctx)
	switch {
	case err == nil:
		resp.WCA = &settings
	case !errors.Is(err, model.ErrNotFound):
		s.fail(w, r, "stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.Events(r.Context())
	if err != nil {
		s.fail(w, r, "list events", err)
		return
	}
	if events == nil {
		events = []string{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handlePersonalBest(w http.ResponseWriter, r *http.Request) {
	event := r.URL.Query().Get("event")
	if allEvents(event) {
		bests, err := s.store.PersonalBests(r.Context())
		if err != nil {
			s.fail(w, r, "personal bests", err)
			return
		}
		if bests == nil {
			bests = []model.PersonalBest{}
		}
		s.writeJSON(w, http.StatusOK, bests)
		return
	}
	pb, err := s.store.PersonalBest(r.Context(), event)
	if err != nil {
		s.fail(w, r, "personal best", err)
		return
	}
	s.writeJSON(w, http.StatusOK, pb)
}

// handleRank estimates the world standing of an arbitrary time.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ms, penalty, err := model.ParseTime(q.Get("time"))
	if err != nil {
		s.fail(w, r, "rank", err)
		return
	}
	if penalty == model.PenaltyDNF {
		s.fail(w, r, "rank", fmt.Errorf("%w: a DNF has no rank", model.ErrInvalidInput))
		return
	}
	if penalty == model.PenaltyPlusTwo {
		ms += model.PlusTwoMs
	}
	kind, err := ranking.ParseKind(q.Get("kind"))
	if err != nil {
		s.fail(w, r, "rank", err)
		return
	}
	event := strings.TrimSpace(q.Get("event"))
	if event == "" {
		event = model.DefaultEvent
	}
	est := s.ranking.Estimate(r.Context(), ms, event, kind)
	s.writeJSON(w, http.StatusOK, viewOf(&est))
}

func (s *Server) handleProgressChart(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		s.fail(w, r, "progress chart", err)
		return
	}
	sessions, err := s.store.ListSessions(r.Context(), filter)
	if err != nil {
		s.fail(w, r, "progress chart", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats.ProgressPoints(sessions, stats.MinProgressSolves))
}

func (s *Server) handleSessionProgressChart(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("session")
	if raw == "" {
		s.fail(w, r, "session progress chart", fmt.Errorf("%w: session is required", model.ErrInvalidInput))
		return
	}
	id, err := parseID("session", raw)
	if err != nil {
		s.fail(w, r, "session progress chart", err)
		return
	}
	if _, err := s.store.GetSession(r.Context(), id); err != nil {
		s.fail(w, r, "session progress chart", err)
		return
	}
	solves, err := s.store.ListSolves(r.Context(), id)
	if err != nil {
		s.fail(w, r, "session progress chart", err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary.Rolling(summary.FromSolves(solves)))
}

func (s *Server) handleDistributionChart(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		s.fail(w, r, "distribution chart", err)
		return
	}
	bins, err := queryInt(r, "bins")
	if err != nil {
		s.fail(w, r, "distribution chart", err)
		return
	}
	times, err := s.store.EffectiveTimes(r.Context(), filter)
	if err != nil {
		s.fail(w, r, "distribution chart", err)
		return
	}
	dist, err := stats.BuildDistribution(times, 3, true, bins)
	if err != nil {
		s.fail(w, r, "distribution chart", err)
		return
	}
	s.writeJSON(w, http.StatusOK, dist)
}
