// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/cubelog/cubelog/internal/model"
)

// MinDistributionSolves is the smallest sample a distribution is built from.
const MinDistributionSolves = 5

// Trim methods reported by FilterOutliers.
const (
	TrimSigma      = "sigma"
	TrimPercentile = "percentile"
)

// Bin is one histogram bucket covering [LowMs, HighMs).
type Bin struct {
	LowMs  int64 `json:"low_ms"`
	HighMs int64 `json:"high_ms"`
	Count  int   `json:"count"`
}

// Distribution is a histogram of valid solve times after outlier trimming.
type Distribution struct {
	Times    []int64 `json:"times"`
	Dropped  int     `json:"dropped"`
	Method   string  `json:"method"`
	MeanMs   float64 `json:"mean_ms"`
	StdDevMs float64 `json:"std_dev_ms"`
	Bins     []Bin   `json:"bins"`
}

// FilterOutliers drops times further than sigmas standard deviations from the mean.
// With percentileFallback set, a trim that would drop more than 10% of the sample
// is replaced by keeping the 1st to 99th percentile instead.
func FilterOutliers(times []int64, sigmas float64, percentileFallback bool) ([]int64, string) {
	if len(times) == 0 {
		return nil, TrimSigma
	}
	mean, sd := meanStdDev(times)
	kept := make([]int64, 0, len(times))
	for _, v := range times {
		if math.Abs(float64(v)-mean) <= sigmas*sd {
			kept = append(kept, v)
		}
	}
	if !percentileFallback || float64(len(kept)) >= float64(len(times))*0.9 {
		return kept, TrimSigma
	}
	sorted := append([]int64(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	lo := int(float64(len(sorted)) * 0.01)
	hi := int(float64(len(sorted)) * 0.99)
	return sorted[lo:hi], TrimPercentile
}

// BuildDistribution trims outliers and buckets the remaining times.
// bins <= 0 picks the square root of the sample size, clamped to 5..20.
func BuildDistribution(times []int64, sigmas float64, percentileFallback bool, bins int) (Distribution, error) {
	if len(times) < MinDistributionSolves {
		return Distribution{}, fmt.Errorf("%w: need at least %d valid solves, have %d",
			model.ErrInvalidInput, MinDistributionSolves, len(times))
	}
	kept, method := FilterOutliers(times, sigmas, percentileFallback)
	dist := Distribution{Times: kept, Dropped: len(times) - len(kept), Method: method}
	if len(kept) == 0 {
		return dist, nil
	}
	dist.MeanMs, dist.StdDevMs = meanStdDev(kept)

	if bins <= 0 {
		bins = int(math.Round(math.Sqrt(float64(len(kept)))))
		bins = max(5, min(bins, 20))
	}
	lo, hi := kept[0], kept[0]
	for _, v := range kept {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	step := (hi - lo + int64(bins) - 1) / int64(bins)
	if step <= 0 {
		step = 1
	}
	dist.Bins = make([]Bin, bins)
	for i := range dist.Bins {
		dist.Bins[i] = Bin{LowMs: lo + int64(i)*step, HighMs: lo + int64(i+1)*step}
	}
	for _, v := range kept {
		idx := int((v - lo) / step)
		if idx >= bins {
			idx = bins - 1
		}
		dist.Bins[idx].Count++
	}
	return dist, nil
}

func meanStdDev(times []int64) (float64, float64) {
	if len(times) == 0 {
		return 0, 0
	}
	total := 0.0
	for _, v := range times {
		total += float64(v)
	}
	mean := total / float64(len(times))
	sq := 0.0
	for _, v := range times {
		d := float64(v) - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(times)))
}

// RenderDistribution prints the histogram as horizontal bars.
func RenderDistribution(w io.Writer, dist Distribution, barWidth int) error {
	if len(dist.Bins) == 0 {
		_, err := fmt.Fprintln(w, "Not enough solves for a distribution.")
		return err
	}
	if barWidth <= 0 {
		barWidth = 40
	}
	peak := 0
	for _, b := range dist.Bins {
		peak = max(peak, b.Count)
	}
	header := fmt.Sprintf("Distribution (%d solves, mean %s, sd %.2fs", len(dist.Times),
		model.FormatMs(int64(math.Round(dist.MeanMs))), dist.StdDevMs/1000)
	if dist.Dropped > 0 {
		header += fmt.Sprintf(", %d outliers dropped by %s", dist.Dropped, dist.Method)
	}
	if _, err := fmt.Fprintln(w, header+")"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(dist.Bins))
	for _, b := range dist.Bins {
		n := 0
		if peak > 0 {
			n = int(math.Round(float64(b.Count) / float64(peak) * float64(barWidth)))
		}
		if b.Count > 0 && n == 0 {
			n = 1
		}
		rows = append(rows, []string{
			model.FormatMs(b.LowMs) + "-" + model.FormatMs(b.HighMs),
			fmt.Sprintf("%d", b.Count),
			strings.Repeat("█", n),
		})
	}
	return writeLines(w, formatTable(nil, rows, map[int]bool{1: true}))
}
