// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.Session
	Progress []model.ProgressPoint
	Times    []int64
	Overview model.Overview
	Bests    []model.PersonalBest
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg.Filter())
	if err != nil {
		return Report{}, err
	}
	times, err := st.EffectiveTimes(ctx, cfg.Filter())
	if err != nil {
		return Report{}, err
	}
	overview, err := st.Overview(ctx, cfg.Event)
	if err != nil {
		return Report{}, err
	}
	bests, err := st.PersonalBests(ctx)
	if err != nil {
		return Report{}, err
	}
	if cfg.Event != "" && cfg.Event != "all" {
		bests = filterBests(bests, cfg.Event)
	}
	return Report{
		Sessions: sessions,
		Progress: ProgressPoints(sessions, MinProgressSolves),
		Times:    times,
		Overview: overview,
		Bests:    bests,
	}, nil
}

func filterBests(bests []model.PersonalBest, event string) []model.PersonalBest {
	out := bests[:0:0]
	for _, pb := range bests {
		if pb.Event == event {
			out = append(out, pb)
		}
	}
	return out
}
