package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{21, 20, 19, 20, 18}},
		{Name: "B", Values: []float64{22, math.NaN(), 21, 20, 19}},
	}, 5, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "A: first=21.00 last=18.00 best=18.00") {
		t.Fatalf("expected series bounds in output, got:\n%s", out)
	}
	if !strings.Contains(out, "  22.00 │ ") || !strings.Contains(out, "  18.00 │ ") {
		t.Fatalf("expected shared time axis labels, got:\n%s", out)
	}
	if !strings.Contains(out, "Legend:") {
		t.Fatalf("expected legend in output")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	expectedMin := 1 + 2 + 4 + 1
	if len(lines) < expectedMin {
		t.Fatalf("expected at least %d lines of output, got %d", expectedMin, len(lines))
	}
}

func TestPlotSeriesSkipsEmptySeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Nothing", []Series{{Name: "Ao5", Values: []float64{math.NaN(), math.NaN()}}}, 10, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for undefined series, got %q", buf.String())
	}
}

func TestResampleSeriesKeepsGaps(t *testing.T) {
	out := resampleSeries([]float64{1, math.NaN(), math.NaN(), math.NaN()}, 2)
	if out[0] != 1 || !math.IsNaN(out[1]) {
		t.Fatalf("unexpected resample: %v", out)
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(62.457); got != "1:02.46" {
		t.Fatalf("expected 1:02.46, got %s", got)
	}
	if got := formatSeconds(9.5); got != "9.50" {
		t.Fatalf("expected 9.50, got %s", got)
	}
}
