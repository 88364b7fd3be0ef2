package scramble

import (
	"regexp"
	"strings"
	"testing"
)

var axisOf = map[byte]int{'U': 0, 'D': 0, 'R': 1, 'L': 1, 'F': 2, 'B': 2}

func faceOf(move string) byte {
	return strings.TrimLeft(move, "0123456789")[0]
}

func TestCubeScramblesLengthAndAxes(t *testing.T) {
	g := NewWithSeed(1)
	for _, event := range []string{"222", "333", "444", "555", "666", "777"} {
		for i := 0; i < 20; i++ {
			moves := strings.Fields(g.Generate(event))
			if len(moves) != Length(event) {
				t.Fatalf("%s: expected %d moves, got %d", event, Length(event), len(moves))
			}
			for j := 1; j < len(moves); j++ {
				if axisOf[faceOf(moves[j])] == axisOf[faceOf(moves[j-1])] {
					t.Fatalf("%s: consecutive moves on one axis: %s %s", event, moves[j-1], moves[j])
				}
			}
		}
	}
}

func TestMoveNotation(t *testing.T) {
	patterns := map[string]*regexp.Regexp{
		"222": regexp.MustCompile(`^[URF]['2]?$`),
		"333": regexp.MustCompile(`^[UDRLFB]['2]?$`),
		"444": regexp.MustCompile(`^[UDRLFB]w?['2]?$`),
		"777": regexp.MustCompile(`^(3[UDRLFB]w|[UDRLFB]w?)['2]?$`),
	}
	g := NewWithSeed(7)
	for event, re := range patterns {
		for i := 0; i < 20; i++ {
			for _, move := range strings.Fields(g.Generate(event)) {
				if !re.MatchString(move) {
					t.Fatalf("%s: unexpected move %q", event, move)
				}
			}
		}
	}
}

func TestPyraminxAndSkewb(t *testing.T) {
	g := NewWithSeed(3)
	turn := regexp.MustCompile(`^[ULRB]'?$`)
	tip := regexp.MustCompile(`^[ulrb]'?$`)
	for i := 0; i < 20; i++ {
		moves := strings.Fields(g.Generate("pyram"))
		if len(moves) < 7 || len(moves) > 11 {
			t.Fatalf("pyram: unexpected length %d", len(moves))
		}
		for j, move := range moves {
			if j < 7 && !turn.MatchString(move) {
				t.Fatalf("pyram: unexpected turn %q", move)
			}
			if j >= 7 && !tip.MatchString(move) {
				t.Fatalf("pyram: unexpected tip %q", move)
			}
		}

		skewb := strings.Fields(g.Generate("skewb"))
		if len(skewb) != Length("skewb") {
			t.Fatalf("skewb: expected %d moves, got %d", Length("skewb"), len(skewb))
		}
		for j := 1; j < len(skewb); j++ {
			if skewb[j][0] == skewb[j-1][0] {
				t.Fatalf("skewb: repeated face %s %s", skewb[j-1], skewb[j])
			}
		}
	}
}

func TestMegaminxAndClock(t *testing.T) {
	g := NewWithSeed(5)
	lines := strings.Split(g.Generate("minx"), "\n")
	if len(lines) != 7 {
		t.Fatalf("minx: expected 7 lines, got %d", len(lines))
	}
	for _, line := range lines {
		moves := strings.Fields(line)
		if len(moves) != 11 {
			t.Fatalf("minx: expected 11 moves per line, got %d", len(moves))
		}
		if last := moves[10]; last != "U" && last != "U'" {
			t.Fatalf("minx: expected U turn at line end, got %q", last)
		}
	}

	clock := g.Generate("clock")
	if !strings.HasPrefix(clock, "UR") || !strings.Contains(clock, " y2 ") {
		t.Fatalf("clock: unexpected scramble %q", clock)
	}
	turn := regexp.MustCompile(`^(UR|DR|DL|UL|U|R|D|L|ALL)[0-6][+-]$`)
	count := 0
	for _, move := range strings.Fields(clock) {
		if turn.MatchString(move) {
			count++
		}
	}
	if count != Length("clock") {
		t.Fatalf("clock: expected %d pin turns, got %d", Length("clock"), count)
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	a := NewWithSeed(42).Generate("333")
	b := NewWithSeed(42).Generate("333")
	if a != b {
		t.Fatalf("expected equal scrambles, got %q and %q", a, b)
	}
}

func TestUnsupportedEvent(t *testing.T) {
	if got := New().Generate("sq1"); got != "" {
		t.Fatalf("expected empty scramble, got %q", got)
	}
	if Supported("sq1") || !Supported("333") {
		t.Fatalf("unexpected support table")
	}
}
