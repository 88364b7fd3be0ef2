// Package stats contains statistics calculations and reporting.
package stats

import (
	"sort"

	"github.com/cubelog/cubelog/internal/model"
)

// MinProgressSolves is the solve count a session needs to appear on progress curves.
const MinProgressSolves = 5

// ProgressPoints turns sessions into curve points, skipping sessions with fewer than minSolves.
func ProgressPoints(sessions []model.Session, minSolves int) []model.ProgressPoint {
	points := make([]model.ProgressPoint, 0, len(sessions))
	for _, s := range sessions {
		if s.SolveCount < minSolves {
			continue
		}
		points = append(points, model.ProgressPoint{
			SessionID:  s.ID,
			Date:       s.Date,
			SolveCount: s.SolveCount,
			Best:       s.BestSingle,
			Mean:       s.Mean,
			Ao5:        s.Ao5,
			Ao12:       s.Ao12,
		})
	}
	return points
}

// TopSessions returns up to n sessions with the fastest ao5, ties broken by date.
func TopSessions(sessions []model.Session, n int) []model.Session {
	if n <= 0 {
		return nil
	}
	ranked := make([]model.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Ao5 != nil {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].Ao5 == *ranked[j].Ao5 {
			return ranked[i].Date < ranked[j].Date
		}
		return *ranked[i].Ao5 < *ranked[j].Ao5
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Improvement compares the mean of the first and last progress points.
// A positive result is the percentage of time shaved off.
func Improvement(points []model.ProgressPoint) (float64, bool) {
	var first, last *int64
	for _, p := range points {
		if p.Mean == nil {
			continue
		}
		if first == nil {
			first = p.Mean
		}
		last = p.Mean
	}
	if first == nil || last == nil || *first == 0 || first == last {
		return 0, false
	}
	return float64(*first-*last) / float64(*first) * 100, true
}
