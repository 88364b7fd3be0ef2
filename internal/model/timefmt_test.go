package model

import (
	"errors"
	"testing"
)

func TestParseTime(t *testing.T) {
	cases := []struct {
		in      string
		ms      int64
		penalty Penalty
	}{
		{"18.53", 18530, PenaltyNone},
		{"1:02.45", 62450, PenaltyNone},
		{"20.00+", 18000, PenaltyPlusTwo},
		{"18.00 +2", 18000, PenaltyPlusTwo},
		{"DNF", 0, PenaltyDNF},
		{"DNF(17.12)", 17120, PenaltyDNF},
		{"dnf", 0, PenaltyDNF},
	}
	for _, tc := range cases {
		ms, pen, err := ParseTime(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if ms != tc.ms || pen != tc.penalty {
			t.Fatalf("parse %q: expected %d %q, got %d %q", tc.in, tc.ms, tc.penalty, ms, pen)
		}
	}
}

func TestParseTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "-3", "1:75.00", "0", "DNF(1e300)", "DNF(-5)", "1e300", "NaN", "+Inf", "DNF(Inf)", "99999999999999999:00.00", "1441:00.00", "1e300+"} {
		if _, _, err := ParseTime(in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected invalid input for %q, got %v", in, err)
		}
	}
}

func TestFormatSolve(t *testing.T) {
	cases := []struct {
		solve Solve
		want  string
	}{
		{Solve{TimeMs: 18530}, "18.53"},
		{Solve{TimeMs: 62450}, "1:02.45"},
		{Solve{TimeMs: 18000, Penalty: PenaltyPlusTwo}, "20.00+"},
		{Solve{TimeMs: 17120, Penalty: PenaltyDNF}, "DNF(17.12)"},
		{Solve{Penalty: PenaltyDNF}, "DNF"},
	}
	for _, tc := range cases {
		if got := FormatSolve(tc.solve); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
	if got := FormatOptMs(nil); got != "-" {
		t.Fatalf("expected dash for undefined time, got %q", got)
	}
}

func TestParseTimeUpperBound(t *testing.T) {
	ms, _, err := ParseTime("1440:00.00")
	if err != nil {
		t.Fatalf("expected 24 hours to parse: %v", err)
	}
	if ms != MaxTimeMs {
		t.Fatalf("expected %d, got %d", MaxTimeMs, ms)
	}
	if _, _, err := ParseTime("1440:00.01"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input past 24 hours, got %v", err)
	}
}

func TestSolveInputBounds(t *testing.T) {
	if err := (SolveInput{TimeMs: MaxTimeMs}).Validate(); err != nil {
		t.Fatalf("expected 24 hours to be valid: %v", err)
	}
	if err := (SolveInput{TimeMs: MaxTimeMs + 1}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	over := MaxTimeMs + 1
	if err := (SolveUpdate{TimeMs: &over}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for update, got %v", err)
	}
}

func TestEffectiveTime(t *testing.T) {
	if v, ok := EffectiveTime(18000, PenaltyPlusTwo); !ok || v != 20000 {
		t.Fatalf("expected 20000, got %d %v", v, ok)
	}
	if _, ok := EffectiveTime(18000, PenaltyDNF); ok {
		t.Fatalf("expected DNF to be excluded")
	}
}
