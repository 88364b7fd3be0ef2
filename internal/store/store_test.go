package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cubelog/cubelog/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "cubelog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	st.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return st
}

func newSession(t *testing.T, st *Store) model.Session {
	t.Helper()
	sess, err := st.CreateSession(context.Background(), model.SessionInput{EventID: "333"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

func appendTimes(t *testing.T, st *Store, sessionID int64, times ...int64) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(times))
	for _, ms := range times {
		in := model.SolveInput{TimeMs: ms}
		if ms < 0 {
			in = model.SolveInput{Penalty: model.PenaltyDNF}
		}
		id, err := st.AppendSolve(context.Background(), sessionID, in)
		if err != nil {
			t.Fatalf("append solve: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func mustSession(t *testing.T, st *Store, id int64) model.Session {
	t.Helper()
	sess, err := st.GetSession(context.Background(), id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	return sess
}

func expectMs(t *testing.T, name string, got *int64, want int64) {
	t.Helper()
	if got == nil || *got != want {
		t.Fatalf("%s: expected %d, got %v", name, want, got)
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	st := openTestStore(t)
	sess, err := st.CreateSession(context.Background(), model.SessionInput{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Date != "2024-03-09" || sess.EventID != "333" {
		t.Fatalf("unexpected defaults: %+v", sess)
	}
	if sess.SolveCount != 0 || sess.BestSingle != nil || sess.Ao5 != nil {
		t.Fatalf("expected empty summary, got %+v", sess.Summary)
	}
	if _, err := st.CreateSession(context.Background(), model.SessionInput{Date: "09/03/2024"}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected invalid input for bad date, got %v", err)
	}
}

func TestAppendSolveRecomputesSummary(t *testing.T) {
	st := openTestStore(t)
	sess := newSession(t, st)
	appendTimes(t, st, sess.ID, 18500, 21300, 19800, 20100, 22400)

	got := mustSession(t, st, sess.ID)
	if got.SolveCount != 5 {
		t.Fatalf("expected 5 solves, got %d", got.SolveCount)
	}
	expectMs(t, "best", got.BestSingle, 18500)
	expectMs(t, "worst", got.WorstSingle, 22400)
	expectMs(t, "mean", got.Mean, 20420)
	expectMs(t, "ao5", got.Ao5, 20400)
	if got.Ao12 != nil {
		t.Fatalf("expected no ao12, got %d", *got.Ao12)
	}
}

func TestEditSolvePenalties(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	sess := newSession(t, st)
	ids := appendTimes(t, st, sess.ID, 18000, 21000)

	plusTwo := model.PenaltyPlusTwo
	if err := st.EditSolve(ctx, ids[0], model.SolveUpdate{Penalty: &plusTwo}); err != nil {
		t.Fatalf("edit solve: %v", err)
	}
	got := mustSession(t, st, sess.ID)
	expectMs(t, "best", got.BestSingle, 20000)
	expectMs(t, "mean", got.Mean, 20500)

	dnf := model.PenaltyDNF
	if err := st.EditSolve(ctx, ids[1], model.SolveUpdate{Penalty: &dnf}); err != nil {
		t.Fatalf("edit solve: %v", err)
	}
	got = mustSession(t, st, sess.ID)
	expectMs(t, "worst", got.WorstSingle, 20000)
	if got.SolveCount != 2 {
		t.Fatalf("expected DNF to stay counted, got %d", got.SolveCount)
	}

	note := "lockup"
	if err := st.EditSolve(ctx, ids[1], model.SolveUpdate{Notes: &note}); err != nil {
		t.Fatalf("edit notes: %v", err)
	}
	solve, err := st.GetSolve(ctx, ids[1])
	if err != nil {
		t.Fatalf("get solve: %v", err)
	}
	if solve.Notes != "lockup" || solve.Penalty != model.PenaltyDNF || solve.TimeMs != 21000 {
		t.Fatalf("expected partial update to keep other fields, got %+v", solve)
	}
}

func TestEditSolveValidation(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	sess := newSession(t, st)
	ids := appendTimes(t, st, sess.ID, 18000)

	if err := st.EditSolve(ctx, ids[0], model.SolveUpdate{}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty update, got %v", err)
	}
	bad := model.Penalty("+4")
	if err := st.EditSolve(ctx, ids[0], model.SolveUpdate{Penalty: &bad}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected invalid input for bad penalty, got %v", err)
	}
	ms := int64(15000)
	if err := st.EditSolve(ctx, 999, model.SolveUpdate{TimeMs: &ms}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteSolveRenumbers(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	sess := newSession(t, st)
	ids := appendTimes(t, st, sess.ID, 10000, 11000, 12000, 13000, 14000)

	if err := st.DeleteSolve(ctx, ids[1]); err != nil {
		t.Fatalf("delete solve: %v", err)
	}
	solves, err := st.ListSolves(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list solves: %v", err)
	}
	wantTimes := []int64{10000, 12000, 13000, 14000}
	if len(solves) != len(wantTimes) {
		t.Fatalf("expected %d solves, got %d", len(wantTimes), len(solves))
	}
	for i, solve := range solves {
		if solve.SolveNumber != i+1 || solve.TimeMs != wantTimes[i] {
			t.Fatalf("solve %d: expected #%d %d, got #%d %d", i, i+1, wantTimes[i], solve.SolveNumber, solve.TimeMs)
		}
	}
	got := mustSession(t, st, sess.ID)
	if got.SolveCount != 4 || got.Ao5 != nil {
		t.Fatalf("expected 4 solves without ao5, got %+v", got.Summary)
	}

	next := appendTimes(t, st, sess.ID, 15000)
	solve, err := st.GetSolve(ctx, next[0])
	if err != nil {
		t.Fatalf("get solve: %v", err)
	}
	if solve.SolveNumber != 5 {
		t.Fatalf("expected next solve to be #5, got #%d", solve.SolveNumber)
	}
	if err := st.DeleteSolve(ctx, ids[1]); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for deleted solve, got %v", err)
	}
}

func TestAllDNFSessionHasNoTimes(t *testing.T) {
	st := openTestStore(t)
	sess := newSession(t, st)
	appendTimes(t, st, sess.ID, -1, -1, -1, -1, -1)
	got := mustSession(t, st, sess.ID)
	if got.SolveCount != 5 {
		t.Fatalf("expected 5 solves, got %d", got.SolveCount)
	}
	if got.BestSingle != nil || got.WorstSingle != nil || got.Mean != nil || got.Ao5 != nil || got.Ao12 != nil {
		t.Fatalf("expected all times undefined, got %+v", got.Summary)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	sess := newSession(t, st)
	appendTimes(t, st, sess.ID, 20100, 18500, 21300, -1, 17200)
	before := mustSession(t, st, sess.ID)

	for i := 0; i < 2; i++ {
		if _, err := st.RecomputeSession(ctx, sess.ID); err != nil {
			t.Fatalf("recompute: %v", err)
		}
	}
	after := mustSession(t, st, sess.ID)
	if *before.Ao5 != *after.Ao5 || *before.Mean != *after.Mean || before.SolveCount != after.SolveCount {
		t.Fatalf("recompute changed summary: %+v vs %+v", before.Summary, after.Summary)
	}

	if _, err := st.db.ExecContext(ctx, `UPDATE sessions SET ao5 = NULL, solve_count = 0 WHERE id = ?`, sess.ID); err != nil {
		t.Fatalf("corrupt summary: %v", err)
	}
	n, err := st.RecomputeAll(ctx)
	if err != nil {
		t.Fatalf("recompute all: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 session repaired, got %d", n)
	}
	repaired := mustSession(t, st, sess.ID)
	expectMs(t, "ao5", repaired.Ao5, *before.Ao5)

	if _, err := st.RecomputeSession(ctx, 404); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	sess := newSession(t, st)
	ids := appendTimes(t, st, sess.ID, 10000, 11000)

	if err := st.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := st.GetSolve(ctx, ids[0]); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected solves to be removed, got %v", err)
	}
	if err := st.DeleteSession(ctx, sess.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := st.AppendSolve(ctx, sess.ID, model.SolveInput{TimeMs: 1000}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found appending to deleted session, got %v", err)
	}
}

func TestConcurrentAppendsKeepNumberingDense(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	sess := newSession(t, st)

	const workers = 4
	const perWorker = 5
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := st.AppendSolve(ctx, sess.ID, model.SolveInput{TimeMs: int64(10000 + w*100 + i)}); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("append solve: %v", err)
	}

	solves, err := st.ListSolves(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list solves: %v", err)
	}
	if len(solves) != workers*perWorker {
		t.Fatalf("expected %d solves, got %d", workers*perWorker, len(solves))
	}
	for i, solve := range solves {
		if solve.SolveNumber != i+1 {
			t.Fatalf("expected dense numbering, got #%d at %d", solve.SolveNumber, i)
		}
	}
	got := mustSession(t, st, sess.ID)
	if got.SolveCount != len(solves) {
		t.Fatalf("expected summary count %d, got %d", len(solves), got.SolveCount)
	}
}

func TestListSessionsFilters(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	for _, in := range []model.SessionInput{
		{Date: "2024-01-01", EventID: "333"},
		{Date: "2024-01-03", EventID: "222"},
		{Date: "2024-01-02", EventID: "333"},
		{Date: "2024-01-05", EventID: "333"},
	} {
		if _, err := st.CreateSession(ctx, in); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}
	all, err := st.ListSessions(ctx, model.SessionFilter{Event: "333"})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 3 || all[0].Date != "2024-01-01" || all[2].Date != "2024-01-05" {
		t.Fatalf("unexpected sessions: %+v", all)
	}
	since := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	last, err := st.ListSessions(ctx, model.SessionFilter{Event: "333", Since: &since, Last: 1})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(last) != 1 || last[0].Date != "2024-01-05" {
		t.Fatalf("expected only the latest session, got %+v", last)
	}
	events, err := st.Events(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || events[0] != "222" || events[1] != "333" {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestCubesAndSessions(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	cube, err := st.CreateCube(ctx, model.CubeInput{CubeType: "333", Brand: "GAN", Model: "12", PurchaseDate: "2023-12-24"})
	if err != nil {
		t.Fatalf("create cube: %v", err)
	}
	if !cube.Active || cube.Label() != "GAN 12 (333)" {
		t.Fatalf("unexpected cube: %+v", cube)
	}
	missing := int64(42)
	if _, err := st.CreateSession(ctx, model.SessionInput{CubeID: &missing}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for unknown cube, got %v", err)
	}
	sess, err := st.CreateSession(ctx, model.SessionInput{CubeID: &cube.ID})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := st.RetireCube(ctx, cube.ID); err != nil {
		t.Fatalf("retire cube: %v", err)
	}
	active, err := st.ListCubes(ctx, true)
	if err != nil {
		t.Fatalf("list cubes: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active cubes, got %d", len(active))
	}
	got := mustSession(t, st, sess.ID)
	if got.CubeID == nil || *got.CubeID != cube.ID {
		t.Fatalf("expected session to keep retired cube, got %v", got.CubeID)
	}
	notes := "new tensions"
	updated, err := st.UpdateSession(ctx, sess.ID, model.SessionUpdate{Notes: &notes, ClearCube: true})
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if updated.Notes != notes || updated.CubeID != nil {
		t.Fatalf("unexpected session after update: %+v", updated)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	if _, err := st.GetSettings(ctx); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found before save, got %v", err)
	}
	if _, err := st.SaveSettings(ctx, model.UserSettings{WCAID: " 2019smit01 ", WCAName: "Sam Smith"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if _, err := st.SaveSettings(ctx, model.UserSettings{WCAID: "2019SMIT02", WCAName: "Sam Smith"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	got, err := st.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.WCAID != "2019SMIT02" {
		t.Fatalf("expected upserted id, got %q", got.WCAID)
	}
	if err := st.ClearSettings(ctx); err != nil {
		t.Fatalf("clear settings: %v", err)
	}
	if _, err := st.GetSettings(ctx); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found after clear, got %v", err)
	}
}

func TestOverviewAndPersonalBests(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	a := newSession(t, st)
	appendTimes(t, st, a.ID, 15000, 12000, -1)
	b, err := st.CreateSession(ctx, model.SessionInput{EventID: "222"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	ids := appendTimes(t, st, b.ID, 4000, 5000)
	plusTwo := model.PenaltyPlusTwo
	if err := st.EditSolve(ctx, ids[0], model.SolveUpdate{Penalty: &plusTwo}); err != nil {
		t.Fatalf("edit solve: %v", err)
	}

	ov, err := st.Overview(ctx, "333")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.TotalSolves != 3 || ov.TotalSessions != 1 {
		t.Fatalf("unexpected totals: %+v", ov)
	}
	expectMs(t, "pb", ov.PersonalBest, 12000)
	expectMs(t, "mean", ov.OverallMean, 13500)

	bests, err := st.PersonalBests(ctx)
	if err != nil {
		t.Fatalf("personal bests: %v", err)
	}
	if len(bests) != 2 || bests[0].Event != "222" || bests[0].TimeMs != 5000 {
		t.Fatalf("unexpected personal bests: %+v", bests)
	}
	if _, err := st.PersonalBest(ctx, "555"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for event without solves, got %v", err)
	}

	times, err := st.EffectiveTimes(ctx, model.SessionFilter{Event: "all"})
	if err != nil {
		t.Fatalf("effective times: %v", err)
	}
	if len(times) != 4 {
		t.Fatalf("expected 4 valid times, got %v", times)
	}
}

func TestCreateSessionWithSolves(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	solves := []model.SolveInput{
		{TimeMs: 18500}, {TimeMs: 21300}, {TimeMs: 19800}, {TimeMs: 20100}, {TimeMs: 22400},
	}
	sess, err := st.CreateSessionWithSolves(ctx, model.SessionInput{EventID: "333", Notes: "imported"}, solves)
	if err != nil {
		t.Fatalf("create session with solves: %v", err)
	}
	if sess.SolveCount != 5 || sess.Notes != "imported" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	expectMs(t, "ao5", sess.Ao5, 20400)
	listed, err := st.ListSolves(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list solves: %v", err)
	}
	for i, s := range listed {
		if s.SolveNumber != i+1 {
			t.Fatalf("expected solve number %d, got %d", i+1, s.SolveNumber)
		}
	}
}

func TestCreateSessionWithSolvesIsAtomic(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	missingCube := int64(7)
	cases := []struct {
		name   string
		in     model.SessionInput
		solves []model.SolveInput
		want   error
	}{
		{"over-long time", model.SessionInput{}, []model.SolveInput{{TimeMs: 18500}, {TimeMs: model.MaxTimeMs + 1}}, model.ErrInvalidInput},
		{"negative time", model.SessionInput{}, []model.SolveInput{{TimeMs: -1, Penalty: model.PenaltyDNF}}, model.ErrInvalidInput},
		{"no solves", model.SessionInput{}, nil, model.ErrInvalidInput},
		{"missing cube", model.SessionInput{CubeID: &missingCube}, []model.SolveInput{{TimeMs: 18500}}, model.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := st.CreateSessionWithSolves(ctx, tc.in, tc.solves); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	sessions, err := st.ListSessions(ctx, model.SessionFilter{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions after failed creates, got %d", len(sessions))
	}
}
