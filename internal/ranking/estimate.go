package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// EstimatedTotal approximates the number of ranked competitors worldwide.
const EstimatedTotal = 200000

// SupportedEvents lists the events the rankings export is queried for.
var SupportedEvents = []string{"222", "333", "444", "555", "666", "777", "pyram", "skewb", "minx", "sq1", "clock"}

// Supported reports whether rankings are fetched for event.
func Supported(event string) bool {
	for _, e := range SupportedEvents {
		if e == event {
			return true
		}
	}
	return false
}

// Estimate is a rank and percentile estimate for one time.
// Percentile is the share of ranked competitors that are faster.
type Estimate struct {
	Event       string  `json:"event"`
	Kind        Kind    `json:"kind"`
	TimeMs      int64   `json:"time_ms"`
	Rank        int     `json:"rank,omitempty"`
	Percentile  float64 `json:"percentile"`
	TotalRanked int     `json:"total_ranked,omitempty"`
	Level       string  `json:"level,omitempty"`
	Description string  `json:"description,omitempty"`
	Note        string  `json:"note"`
	Approximate bool    `json:"approximate"`
	extrapolate bool
}

// FasterThan renders the percentile the way the estimate was derived.
func (e Estimate) FasterThan() string {
	switch {
	case e.Approximate && e.Percentile >= 95:
		return "95%+"
	case e.Approximate || e.extrapolate:
		return fmt.Sprintf("%.1f%%", e.Percentile)
	default:
		return fmt.Sprintf("%.2f%%", e.Percentile)
	}
}

// RankLabel renders the rank as "~12,345" or "N/A" for table estimates.
func (e Estimate) RankLabel() string {
	if e.Rank == 0 {
		return "N/A"
	}
	return "~" + humanize.Comma(int64(e.Rank))
}

// TotalLabel renders the competitor base as "~200,000" or "N/A".
func (e Estimate) TotalLabel() string {
	if e.TotalRanked == 0 {
		return "N/A"
	}
	return "~" + humanize.Comma(int64(e.TotalRanked))
}

// Estimate compares timeMs against the world rankings for event and kind.
// It never fails: when rankings are unavailable the static table is used.
func (c *Client) Estimate(ctx context.Context, timeMs int64, event string, kind Kind) Estimate {
	logger := c.options().Logger
	if !Supported(event) {
		return withMeta(Fallback(timeMs), event, kind)
	}
	entries, err := c.Rankings(ctx, "world", kind, event)
	if err != nil {
		logger.Debug("rankings unavailable, using approximate table", "event", event, "kind", kind, "err", err)
		return withMeta(Fallback(timeMs), event, kind)
	}
	times := make([]float64, 0, len(entries))
	for _, e := range entries {
		if r := e.Result(kind); r > 0 {
			times = append(times, float64(r)/100)
		}
	}
	if len(times) == 0 {
		return withMeta(Fallback(timeMs), event, kind)
	}
	sort.Float64s(times)
	return withMeta(FromRankings(timeMs, times), event, kind)
}

func withMeta(e Estimate, event string, kind Kind) Estimate {
	e.Event = event
	e.Kind = kind
	return e
}

// Pair holds single and average estimates; either is nil when no time was given.
type Pair struct {
	Single  *Estimate `json:"single,omitempty"`
	Average *Estimate `json:"average,omitempty"`
}

// EstimateBoth resolves single and average estimates concurrently.
func (c *Client) EstimateBoth(ctx context.Context, event string, singleMs, averageMs *int64) Pair {
	var pair Pair
	var g errgroup.Group
	if singleMs != nil {
		g.Go(func() error {
			est := c.Estimate(ctx, *singleMs, event, KindSingle)
			pair.Single = &est
			return nil
		})
	}
	if averageMs != nil {
		g.Go(func() error {
			est := c.Estimate(ctx, *averageMs, event, KindAverage)
			pair.Average = &est
			return nil
		})
	}
	_ = g.Wait()
	return pair
}

// FromRankings estimates rank and percentile from ranked times in seconds, sorted ascending.
// Inside the list the rank is exact; beyond it the rank is extrapolated per time band.
func FromRankings(timeMs int64, times []float64) Estimate {
	t := float64(timeMs) / 1000
	faster := 0
	for _, v := range times {
		if v < t {
			faster++
		}
	}
	est := Estimate{
		TimeMs:      timeMs,
		TotalRanked: EstimatedTotal,
		Level:       Level(timeMs),
	}
	if faster < len(times) {
		est.Rank = faster + 1
		est.Percentile = float64(faster) * 100 / EstimatedTotal
		est.Note = fmt.Sprintf("Top %s out of ~%s ranked competitors worldwide",
			humanize.Comma(int64(est.Rank)), humanize.Comma(EstimatedTotal))
		return est
	}

	last := times[len(times)-1]
	var rank float64
	switch {
	case t < 10:
		rank = 1000 + (t-last)*2000
	case t < 15:
		rank = 5000 + (t-10)*5000
	case t < 20:
		rank = 30000 + (t-15)*10000
	case t < 30:
		rank = 80000 + (t-20)*8000
	default:
		rank = 150000 + (t-30)*2000
	}
	est.Rank = int(math.Min(math.Trunc(rank), EstimatedTotal))
	est.Percentile = float64(est.Rank) * 100 / EstimatedTotal
	est.Note = fmt.Sprintf("Estimated among ~%s worldwide ranked competitors", humanize.Comma(EstimatedTotal))
	est.extrapolate = true
	return est
}

type band struct {
	maxSeconds  float64
	percentile  float64
	description string
}

var fallbackBands = []band{
	{6, 0.01, "Elite (World-class)"},
	{8, 0.1, "Elite (National champion level)"},
	{10, 1, "Advanced (Continental finalist)"},
	{12, 5, "Advanced (Regional finalist)"},
	{15, 15, "Intermediate (Very fast)"},
	{20, 40, "Intermediate (Fast)"},
	{25, 60, "Beginner-Intermediate (Above average)"},
	{30, 75, "Beginner (Average competitor)"},
	{40, 90, "Beginner (Learning)"},
}

// Fallback estimates the percentile from a static table when rankings cannot be fetched.
func Fallback(timeMs int64) Estimate {
	t := float64(timeMs) / 1000
	est := Estimate{
		TimeMs:      timeMs,
		Percentile:  95,
		Description: "Beginner",
		Level:       Level(timeMs),
		Note:        "Approximate statistical estimate",
		Approximate: true,
	}
	for _, b := range fallbackBands {
		if t <= b.maxSeconds {
			est.Percentile = b.percentile
			est.Description = b.description
			break
		}
	}
	return est
}

// Level buckets a time into a coarse skill label.
func Level(timeMs int64) string {
	t := float64(timeMs) / 1000
	switch {
	case t < 6:
		return "Elite"
	case t < 10:
		return "Advanced"
	case t < 15:
		return "Competitive"
	case t < 20:
		return "Intermediate"
	default:
		return "Beginner"
	}
}
