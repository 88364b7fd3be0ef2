package ranking

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFromRankingsInsideList(t *testing.T) {
	times := []float64{5, 6, 7}
	est := FromRankings(6500, times)
	if est.Rank != 3 {
		t.Fatalf("expected rank 3, got %d", est.Rank)
	}
	if !almostEqual(est.Percentile, 0.001) {
		t.Fatalf("expected percentile 0.001, got %v", est.Percentile)
	}
	if est.FasterThan() != "0.00%" {
		t.Fatalf("unexpected faster-than label %q", est.FasterThan())
	}
	if est.Note != "Top 3 out of ~200,000 ranked competitors worldwide" {
		t.Fatalf("unexpected note %q", est.Note)
	}

	fastest := FromRankings(4000, times)
	if fastest.Rank != 1 || fastest.Percentile != 0 {
		t.Fatalf("expected rank 1 at 0%%, got %+v", fastest)
	}
}

func TestFromRankingsExtrapolates(t *testing.T) {
	times := []float64{5, 6, 7}
	cases := []struct {
		ms   int64
		rank int
	}{
		{8000, 3000},
		{12000, 15000},
		{17500, 55000},
		{25000, 120000},
		{35000, 160000},
		{100000, EstimatedTotal},
	}
	for _, tc := range cases {
		est := FromRankings(tc.ms, times)
		if est.Rank != tc.rank {
			t.Fatalf("time %d: expected rank %d, got %d", tc.ms, tc.rank, est.Rank)
		}
		want := float64(tc.rank) * 100 / EstimatedTotal
		if !almostEqual(est.Percentile, want) {
			t.Fatalf("time %d: expected percentile %v, got %v", tc.ms, want, est.Percentile)
		}
		if est.Approximate {
			t.Fatalf("time %d: extrapolated estimate must not be marked approximate", tc.ms)
		}
	}
	if got := FromRankings(12000, times).FasterThan(); got != "7.5%" {
		t.Fatalf("unexpected faster-than label %q", got)
	}
	if got := FromRankings(12000, times).RankLabel(); got != "~15,000" {
		t.Fatalf("unexpected rank label %q", got)
	}
}

func TestFallbackTable(t *testing.T) {
	cases := []struct {
		ms          int64
		percentile  float64
		description string
	}{
		{5500, 0.01, "Elite (World-class)"},
		{6000, 0.01, "Elite (World-class)"},
		{7990, 0.1, "Elite (National champion level)"},
		{11000, 5, "Advanced (Regional finalist)"},
		{15000, 15, "Intermediate (Very fast)"},
		{24000, 60, "Beginner-Intermediate (Above average)"},
		{40000, 90, "Beginner (Learning)"},
		{41000, 95, "Beginner"},
	}
	for _, tc := range cases {
		est := Fallback(tc.ms)
		if est.Percentile != tc.percentile || est.Description != tc.description {
			t.Fatalf("time %d: expected %v %q, got %v %q", tc.ms, tc.percentile, tc.description, est.Percentile, est.Description)
		}
		if !est.Approximate || est.RankLabel() != "N/A" || est.TotalLabel() != "N/A" {
			t.Fatalf("time %d: expected approximate estimate without rank, got %+v", tc.ms, est)
		}
	}
	if got := Fallback(41000).FasterThan(); got != "95%+" {
		t.Fatalf("unexpected faster-than label %q", got)
	}
}

func TestEstimateUsesRankings(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	client := New(Options{BaseURL: srv.URL})

	est := client.Estimate(context.Background(), 5500, "333", KindSingle)
	if est.Approximate || est.Rank != 3 || est.Event != "333" || est.Kind != KindSingle {
		t.Fatalf("unexpected estimate: %+v", est)
	}
	if est.Level != "Elite" {
		t.Fatalf("expected Elite level, got %q", est.Level)
	}
}

func TestEstimateUnsupportedEventSkipsNetwork(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	client := New(Options{BaseURL: srv.URL})

	est := client.Estimate(context.Background(), 30000, "333fm", KindSingle)
	if !est.Approximate || est.Percentile != 75 {
		t.Fatalf("expected fallback estimate, got %+v", est)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests for unsupported event")
	}
}

func TestEstimateBoth(t *testing.T) {
	var averageHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rank/world/single/222.json":
			_, _ = w.Write([]byte(`{"items":[{"personId":"a","best":50},{"personId":"b","best":90}]}`))
		case "/rank/world/average/222.json":
			atomic.AddInt32(&averageHits, 1)
			_, _ = w.Write([]byte(`{"items":[{"personId":"a","best":80,"average":120},{"personId":"b","best":90,"average":150}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	client := New(Options{BaseURL: srv.URL})

	single := int64(700)
	average := int64(1300)
	pair := client.EstimateBoth(context.Background(), "222", &single, &average)
	if pair.Single == nil || pair.Average == nil {
		t.Fatalf("expected both estimates, got %+v", pair)
	}
	if pair.Single.Rank != 2 {
		t.Fatalf("expected single rank 2, got %d", pair.Single.Rank)
	}
	if pair.Average.Rank != 2 || pair.Average.Kind != KindAverage {
		t.Fatalf("expected average rank 2, got %+v", pair.Average)
	}

	only := client.EstimateBoth(context.Background(), "222", &single, nil)
	if only.Average != nil || atomic.LoadInt32(&averageHits) != 1 {
		t.Fatalf("expected no average estimate without a time")
	}
}

func TestLevel(t *testing.T) {
	cases := map[int64]string{
		5990:  "Elite",
		9000:  "Advanced",
		14000: "Competitive",
		19990: "Intermediate",
		20000: "Beginner",
	}
	for ms, want := range cases {
		if got := Level(ms); got != want {
			t.Fatalf("time %d: expected %q, got %q", ms, want, got)
		}
	}
}
