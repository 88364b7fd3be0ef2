// Package summary computes session statistics from an ordered solve log.
package summary

import (
	"math"
	"sort"

	"github.com/cubelog/cubelog/internal/model"
)

// Window rules for the rolling averages.
const (
	Ao5Size      = 5
	Ao5MinValid  = 3
	Ao12Size     = 12
	Ao12MinValid = 10
)

// Attempt is the part of a solve the statistics depend on.
type Attempt struct {
	TimeMs  int64
	Penalty model.Penalty
}

// Effective returns the aggregate time of the attempt and false for a DNF.
func (a Attempt) Effective() (int64, bool) {
	return model.EffectiveTime(a.TimeMs, a.Penalty)
}

// FromSolves converts solves ordered by solve number into attempts.
func FromSolves(solves []model.Solve) []Attempt {
	out := make([]Attempt, len(solves))
	for i, s := range solves {
		out[i] = Attempt{TimeMs: s.TimeMs, Penalty: s.Penalty}
	}
	return out
}

// Compute derives the session summary. Attempts must be ordered by solve number.
func Compute(attempts []Attempt) model.Summary {
	sum := model.Summary{SolveCount: len(attempts)}
	valid := validTimes(attempts)
	if len(valid) == 0 {
		return sum
	}

	best, worst := valid[0], valid[0]
	total := int64(0)
	for _, v := range valid {
		if v < best {
			best = v
		}
		if v > worst {
			worst = v
		}
		total += v
	}
	sum.BestSingle = ptr(best)
	sum.WorstSingle = ptr(worst)
	sum.Mean = ptr(roundMs(float64(total) / float64(len(valid))))
	sum.Ao5 = AverageOf(attempts, Ao5Size, Ao5MinValid)
	sum.Ao12 = AverageOf(attempts, Ao12Size, Ao12MinValid)
	return sum
}

// AverageOf computes the average of the last size attempts.
// It is undefined with fewer than size attempts or fewer than minValid valid ones.
// One best and one worst time are trimmed only when the whole window is valid.
func AverageOf(attempts []Attempt, size, minValid int) *int64 {
	if size <= 0 || len(attempts) < size {
		return nil
	}
	window := validTimes(attempts[len(attempts)-size:])
	if len(window) < minValid {
		return nil
	}
	if len(window) == size && size > 2 {
		sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
		window = window[1 : len(window)-1]
	}
	total := int64(0)
	for _, v := range window {
		total += v
	}
	avg := roundMs(float64(total) / float64(len(window)))
	return &avg
}

// Point is the running state after a given solve.
type Point struct {
	SolveNumber int    `json:"solve_number"`
	TimeMs      *int64 `json:"time_ms"`
	Mean        *int64 `json:"mean"`
	Ao5         *int64 `json:"ao5"`
	Ao12        *int64 `json:"ao12"`
}

// Rolling returns one point per attempt with the running mean and the averages of the window ending there.
func Rolling(attempts []Attempt) []Point {
	points := make([]Point, 0, len(attempts))
	total := int64(0)
	count := 0
	for i, a := range attempts {
		p := Point{SolveNumber: i + 1}
		if v, ok := a.Effective(); ok {
			total += v
			count++
			p.TimeMs = ptr(v)
		}
		if count > 0 {
			p.Mean = ptr(roundMs(float64(total) / float64(count)))
		}
		prefix := attempts[:i+1]
		p.Ao5 = AverageOf(prefix, Ao5Size, Ao5MinValid)
		p.Ao12 = AverageOf(prefix, Ao12Size, Ao12MinValid)
		points = append(points, p)
	}
	return points
}

func validTimes(attempts []Attempt) []int64 {
	out := make([]int64, 0, len(attempts))
	for _, a := range attempts {
		if v, ok := a.Effective(); ok {
			out = append(out, v)
		}
	}
	return out
}

func roundMs(v float64) int64 {
	return int64(math.Round(v))
}

func ptr(v int64) *int64 {
	return &v
}
