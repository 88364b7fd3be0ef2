package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatMs renders milliseconds as seconds with centisecond precision, adding minutes past 60s.
func FormatMs(ms int64) string {
	neg := ms < 0
	if neg {
		ms = -ms
	}
	cs := (ms + 5) / 10
	secs := cs / 100
	frac := cs % 100
	var out string
	if secs >= 60 {
		out = fmt.Sprintf("%d:%02d.%02d", secs/60, secs%60, frac)
	} else {
		out = fmt.Sprintf("%d.%02d", secs, frac)
	}
	if neg {
		return "-" + out
	}
	return out
}

// FormatOptMs renders an optional time, using "-" when it is undefined.
func FormatOptMs(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return FormatMs(*ms)
}

// FormatSolve renders a solve the way timers display it: "18.53", "20.53+" or "DNF(18.53)".
func FormatSolve(s Solve) string {
	switch s.Penalty {
	case PenaltyDNF:
		if s.TimeMs > 0 {
			return "DNF(" + FormatMs(s.TimeMs) + ")"
		}
		return "DNF"
	case PenaltyPlusTwo:
		return FormatMs(s.TimeMs+PlusTwoMs) + "+"
	}
	return FormatMs(s.TimeMs)
}

// ParseTime parses "18.53", "1:02.45", "18.53+", "DNF" and "DNF(18.53)".
// A trailing "+" marks a +2 whose displayed time already includes the penalty.
func ParseTime(s string) (int64, Penalty, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, PenaltyNone, fmt.Errorf("%w: empty time", ErrInvalidInput)
	}
	upper := strings.ToUpper(raw)
	if strings.HasPrefix(upper, "DNF") {
		inner := strings.TrimSpace(strings.TrimPrefix(upper, "DNF"))
		inner = strings.TrimSuffix(strings.TrimPrefix(inner, "("), ")")
		if inner == "" {
			return 0, PenaltyDNF, nil
		}
		ms, err := parseClock(inner)
		if err != nil {
			return 0, PenaltyNone, err
		}
		if ms < 0 {
			return 0, PenaltyNone, fmt.Errorf("%w: time must be >= 0", ErrInvalidInput)
		}
		return ms, PenaltyDNF, nil
	}
	penalty := PenaltyNone
	switch {
	case strings.HasSuffix(raw, "(+2)"):
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "(+2)"))
		penalty = PenaltyPlusTwo
	case strings.HasSuffix(raw, "+2"):
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "+2"))
		penalty = PenaltyPlusTwo
	case strings.HasSuffix(raw, "+"):
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "+"))
		ms, err := parseClock(raw)
		if err != nil {
			return 0, PenaltyNone, err
		}
		if ms < PlusTwoMs {
			return 0, PenaltyNone, fmt.Errorf("%w: +2 time %q is below two seconds", ErrInvalidInput, s)
		}
		return ms - PlusTwoMs, PenaltyPlusTwo, nil
	}
	ms, err := parseClock(raw)
	if err != nil {
		return 0, PenaltyNone, err
	}
	if ms <= 0 {
		return 0, PenaltyNone, fmt.Errorf("%w: time must be > 0", ErrInvalidInput)
	}
	return ms, penalty, nil
}

// parseClock reads "ss.cc" or "m:ss.cc" and rejects anything above MaxTimeMs.
func parseClock(s string) (int64, error) {
	minutes := int64(0)
	rest := s
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		m, err := strconv.ParseInt(s[:idx], 10, 64)
		if err != nil || m < 0 || m > MaxTimeMs/60000 {
			return 0, fmt.Errorf("%w: invalid time %q", ErrInvalidInput, s)
		}
		minutes = m
		rest = s[idx+1:]
	}
	secs, err := strconv.ParseFloat(rest, 64)
	if err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("%w: invalid time %q", ErrInvalidInput, s)
	}
	if minutes > 0 && secs >= 60 {
		return 0, fmt.Errorf("%w: invalid time %q", ErrInvalidInput, s)
	}
	if secs*1000 > float64(MaxTimeMs) {
		return 0, fmt.Errorf("%w: time %q exceeds 24 hours", ErrInvalidInput, s)
	}
	ms := minutes*60000 + int64(secs*1000+0.5)
	if ms > MaxTimeMs {
		return 0, fmt.Errorf("%w: time %q exceeds 24 hours", ErrInvalidInput, s)
	}
	return ms, nil
}
