package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "cubelog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i, date := range []string{"2024-02-01", "2024-02-02", "2024-02-03"} {
		sess, err := st.CreateSession(ctx, model.SessionInput{Date: date, EventID: "333"})
		if err != nil {
			t.Fatalf("create session: %v", err)
		}
		for j := 0; j < 5; j++ {
			ms := int64(20000 - i*1000 + j*100)
			if _, err := st.AppendSolve(ctx, sess.ID, model.SolveInput{TimeMs: ms}); err != nil {
				t.Fatalf("append solve: %v", err)
			}
		}
		ids = append(ids, sess.ID)
	}
	short, err := st.CreateSession(ctx, model.SessionInput{Date: "2024-02-04", EventID: "333"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := st.AppendSolve(ctx, short.ID, model.SolveInput{TimeMs: 15000}); err != nil {
		t.Fatalf("append solve: %v", err)
	}

	cfg := model.StatsConfig{Event: "333", Last: 3, CurveWindow: 2}
	report, err := BuildReport(ctx, st, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].ID != ids[1] || report.Sessions[2].ID != short.ID {
		t.Fatalf("unexpected session order: %+v", report.Sessions)
	}
	if len(report.Progress) != 2 {
		t.Fatalf("expected sessions with fewer than 5 solves to be left off the curve, got %d points", len(report.Progress))
	}
	if len(report.Times) != 11 {
		t.Fatalf("expected 11 valid times, got %d", len(report.Times))
	}
	if report.Overview.PersonalBest == nil || *report.Overview.PersonalBest != 15000 {
		t.Fatalf("unexpected personal best: %v", report.Overview.PersonalBest)
	}
	if len(report.Bests) != 1 || report.Bests[0].Event != "333" {
		t.Fatalf("unexpected bests: %+v", report.Bests)
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, report.Sessions, report.Times); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if err := RenderSessionTable(&buf, report.Sessions); err != nil {
		t.Fatalf("render table: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Best single: 15.00") {
		t.Fatalf("expected best single in summary, got:\n%s", out)
	}
	if !strings.Contains(out, "2024-02-04") {
		t.Fatalf("expected session row in table, got:\n%s", out)
	}
}
