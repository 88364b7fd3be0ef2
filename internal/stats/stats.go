// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/summary"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size, skipping gaps.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	for i := range values {
		if math.IsNaN(values[i]) {
			out[i] = math.NaN()
			continue
		}
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, n := 0.0, 0
		for _, v := range values[start : i+1] {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values. Gaps render as blanks.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.IsInf(minVal, 1) {
		return strings.Repeat(" ", len(values))
	}
	var b strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			b.WriteByte(' ')
			continue
		}
		if maxVal-minVal < 1e-9 {
			b.WriteByte(sparkChars[len(sparkChars)/2])
			continue
		}
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func msSeconds(ms *int64) float64 {
	if ms == nil {
		return math.NaN()
	}
	return float64(*ms) / 1000
}

// RenderSummary prints totals for the selected sessions.
func RenderSummary(w io.Writer, sessions []model.Session, times []int64) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	solves := 0
	var best, bestAo5, bestAo12 *int64
	for _, s := range sessions {
		solves += s.SolveCount
		best = minOpt(best, s.BestSingle)
		bestAo5 = minOpt(bestAo5, s.Ao5)
		bestAo12 = minOpt(bestAo12, s.Ao12)
	}
	var mean *int64
	if len(times) > 0 {
		total := int64(0)
		for _, v := range times {
			total += v
		}
		avg := int64(math.Round(float64(total) / float64(len(times))))
		mean = &avg
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Solves: %d (%d valid)", solves, len(times)),
		fmt.Sprintf("Best single: %s", model.FormatOptMs(best)),
		fmt.Sprintf("Best ao5: %s", model.FormatOptMs(bestAo5)),
		fmt.Sprintf("Best ao12: %s", model.FormatOptMs(bestAo12)),
		fmt.Sprintf("Overall mean: %s", model.FormatOptMs(mean)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func minOpt(cur, v *int64) *int64 {
	if v == nil {
		return cur
	}
	if cur == nil || *v < *cur {
		return v
	}
	return cur
}

// RenderCurves prints the progress curves across sessions.
func RenderCurves(w io.Writer, points []model.ProgressPoint, window int) error {
	return RenderCurvesWithSize(w, points, window, 0, 10, false)
}

// RenderCurvesWithSize prints progress curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, points []model.ProgressPoint, window, totalWidth, height int, useColor bool) error {
	if len(points) == 0 {
		return nil
	}
	best := make([]float64, len(points))
	mean := make([]float64, len(points))
	ao5 := make([]float64, len(points))
	for i, p := range points {
		best[i] = msSeconds(p.Best)
		mean[i] = msSeconds(p.Mean)
		ao5[i] = msSeconds(p.Ao5)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, fmt.Sprintf("Progress (%d sessions)", len(points)), []Series{
		{Name: "Best", Values: MovingAverage(best, window)},
		{Name: "Mean", Values: MovingAverage(mean, window)},
		{Name: "Ao5", Values: MovingAverage(ao5, window)},
	}, width, height, useColor)
}

// RenderSessionCurve plots every solve of a session with its running mean and ao5.
func RenderSessionCurve(w io.Writer, points []summary.Point, totalWidth, height int, useColor bool) error {
	if len(points) == 0 {
		return nil
	}
	times := make([]float64, len(points))
	mean := make([]float64, len(points))
	ao5 := make([]float64, len(points))
	for i, p := range points {
		times[i] = msSeconds(p.TimeMs)
		mean[i] = msSeconds(p.Mean)
		ao5[i] = msSeconds(p.Ao5)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, fmt.Sprintf("Session progress (%d solves)", len(points)), []Series{
		{Name: "Time", Values: times},
		{Name: "Mean", Values: mean},
		{Name: "Ao5", Values: ao5},
	}, width, height, useColor)
}

// RenderSessionTable prints one row per session.
func RenderSessionTable(w io.Writer, sessions []model.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	return writeLines(w, formatTable(sessionHeaders, SessionRows(sessions), map[int]bool{0: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true}))
}

var sessionHeaders = []string{"ID", "Date", "Event", "Solves", "Best", "Worst", "Mean", "Ao5", "Ao12"}

// SessionRows formats sessions as table cells.
func SessionRows(sessions []model.Session) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.ID),
			s.Date,
			s.EventID,
			fmt.Sprintf("%d", s.SolveCount),
			model.FormatOptMs(s.BestSingle),
			model.FormatOptMs(s.WorstSingle),
			model.FormatOptMs(s.Mean),
			model.FormatOptMs(s.Ao5),
			model.FormatOptMs(s.Ao12),
		})
	}
	return rows
}

// RenderSolveTable prints a session's solves with the averages ending at each one.
func RenderSolveTable(w io.Writer, solves []model.Solve) error {
	if len(solves) == 0 {
		_, err := fmt.Fprintln(w, "No solves recorded.")
		return err
	}
	points := summary.Rolling(summary.FromSolves(solves))
	rows := make([][]string, 0, len(solves))
	for i, s := range solves {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.SolveNumber),
			fmt.Sprintf("%d", s.ID),
			model.FormatSolve(s),
			model.FormatOptMs(points[i].Ao5),
			model.FormatOptMs(points[i].Ao12),
			s.Scramble,
		})
	}
	headers := []string{"#", "ID", "Time", "Ao5", "Ao12", "Scramble"}
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}))
}

// RenderPersonalBests prints the fastest single per event.
func RenderPersonalBests(w io.Writer, bests []model.PersonalBest) error {
	if len(bests) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Personal Bests"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(bests))
	for _, pb := range bests {
		rows = append(rows, []string{pb.Event, model.FormatMs(pb.TimeMs), pb.SessionDate, pb.Scramble})
	}
	return writeLines(w, formatTable([]string{"Event", "Single", "Date", "Scramble"}, rows, map[int]bool{1: true}))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
