package stats

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/cubelog/cubelog/internal/model"
)

func TestFilterOutliersSigma(t *testing.T) {
	times := []int64{}
	for i := 0; i < 30; i++ {
		times = append(times, int64(20000+i%5*100))
	}
	times = append(times, 90000)
	kept, method := FilterOutliers(times, 3, true)
	if method != TrimSigma {
		t.Fatalf("expected sigma trim, got %s", method)
	}
	if len(kept) != 30 {
		t.Fatalf("expected the outlier to be dropped, kept %d", len(kept))
	}
	for _, v := range kept {
		if v == 90000 {
			t.Fatalf("expected 90s outlier to be removed")
		}
	}
}

func TestFilterOutliersPercentileFallback(t *testing.T) {
	times := make([]int64, 0, 100)
	for i := 0; i < 100; i++ {
		times = append(times, int64(10000+i*100))
	}
	kept, method := FilterOutliers(times, 0.5, true)
	if method != TrimPercentile {
		t.Fatalf("expected percentile fallback, got %s", method)
	}
	if len(kept) != 98 || kept[0] != 10100 {
		t.Fatalf("expected 1st-99th percentile slice, got %d values starting at %d", len(kept), kept[0])
	}
	kept, method = FilterOutliers(times, 0.5, false)
	if method != TrimSigma || len(kept) >= 90 {
		t.Fatalf("expected strict sigma trim without fallback, got %s with %d", method, len(kept))
	}
}

func TestBuildDistribution(t *testing.T) {
	if _, err := BuildDistribution([]int64{1, 2, 3}, 3, true, 0); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected invalid input for small sample, got %v", err)
	}
	times := []int64{18000, 18500, 19000, 19500, 20000, 20500, 21000, 21500, 22000}
	dist, err := BuildDistribution(times, 3, true, 4)
	if err != nil {
		t.Fatalf("build distribution: %v", err)
	}
	if len(dist.Bins) != 4 {
		t.Fatalf("expected 4 bins, got %d", len(dist.Bins))
	}
	total := 0
	for _, b := range dist.Bins {
		total += b.Count
	}
	if total != len(times) {
		t.Fatalf("expected every time to be binned, got %d", total)
	}
	if dist.Bins[0].LowMs != 18000 || dist.MeanMs != 20000 {
		t.Fatalf("unexpected distribution: %+v", dist)
	}

	var buf bytes.Buffer
	if err := RenderDistribution(&buf, dist, 10); err != nil {
		t.Fatalf("render distribution: %v", err)
	}
	if !strings.Contains(buf.String(), "Distribution (9 solves, mean 20.00") {
		t.Fatalf("unexpected header:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "██████████") {
		t.Fatalf("expected a full-width bar for the peak bin:\n%s", buf.String())
	}
}
