// Package scramble builds random-move scrambles for the timer.
package scramble

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Generator produces randomized scrambles.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

type face struct {
	name string
	axis int
}

var (
	cubeFaces = []face{{"U", 0}, {"D", 0}, {"R", 1}, {"L", 1}, {"F", 2}, {"B", 2}}
	twoFaces  = []face{{"U", 0}, {"R", 1}, {"F", 2}}
	// Each pyraminx and skewb face turns about its own corner axis.
	cornerFaces = []face{{"U", 0}, {"L", 1}, {"R", 2}, {"B", 3}}

	cubeSuffixes   = []string{"", "'", "2"}
	cornerSuffixes = []string{"", "'"}
)

var lengths = map[string]int{
	"222":   9,
	"333":   20,
	"444":   40,
	"555":   60,
	"666":   80,
	"777":   80,
	"pyram": 11,
	"skewb": 11,
	"minx":  70,
	"clock": 14,
}

// Supported reports whether a scramble can be generated for event.
func Supported(event string) bool {
	_, ok := lengths[event]
	return ok
}

// Length returns the number of moves in a scramble for event, or 0 when unsupported.
func Length(event string) int {
	return lengths[event]
}

// Generate returns a scramble for event, or an empty string when the event has no generator.
func (g *Generator) Generate(event string) string {
	switch event {
	case "222":
		return g.faceTurns(twoFaces, cubeSuffixes, lengths[event], 1)
	case "333":
		return g.faceTurns(cubeFaces, cubeSuffixes, lengths[event], 1)
	case "444", "555":
		return g.faceTurns(cubeFaces, cubeSuffixes, lengths[event], 2)
	case "666", "777":
		return g.faceTurns(cubeFaces, cubeSuffixes, lengths[event], 3)
	case "pyram":
		return g.pyraminx()
	case "skewb":
		return g.faceTurns(cornerFaces, cornerSuffixes, lengths[event], 1)
	case "minx":
		return g.megaminx()
	case "clock":
		return g.clock()
	default:
		return ""
	}
}

// faceTurns picks random turns, never turning the same axis twice in a row.
// depth > 1 adds wide turns up to that many layers.
func (g *Generator) faceTurns(faces []face, suffixes []string, count, depth int) string {
	moves := make([]string, 0, count)
	lastAxis := -1
	for len(moves) < count {
		f := faces[g.rnd.Intn(len(faces))]
		if f.axis == lastAxis {
			continue
		}
		lastAxis = f.axis
		moves = append(moves, wideTurn(f.name, 1+g.rnd.Intn(depth))+suffixes[g.rnd.Intn(len(suffixes))])
	}
	return strings.Join(moves, " ")
}

func wideTurn(face string, layers int) string {
	switch layers {
	case 1:
		return face
	case 2:
		return face + "w"
	default:
		return fmt.Sprintf("%d%sw", layers, face)
	}
}

func (g *Generator) pyraminx() string {
	moves := strings.Fields(g.faceTurns(cornerFaces, cornerSuffixes, lengths["pyram"]-4, 1))
	for _, tip := range []string{"u", "l", "r", "b"} {
		switch g.rnd.Intn(3) {
		case 1:
			moves = append(moves, tip)
		case 2:
			moves = append(moves, tip+"'")
		}
	}
	return strings.Join(moves, " ")
}

// megaminx renders seven lines of R/D double turns, each closed by a U turn.
func (g *Generator) megaminx() string {
	lines := make([]string, 0, 7)
	for line := 0; line < 7; line++ {
		parts := make([]string, 0, 11)
		for i := 0; i < 10; i++ {
			name := "R"
			if i%2 == 1 {
				name = "D"
			}
			dir := "++"
			if g.rnd.Intn(2) == 0 {
				dir = "--"
			}
			parts = append(parts, name+dir)
		}
		if g.rnd.Intn(2) == 0 {
			parts = append(parts, "U")
		} else {
			parts = append(parts, "U'")
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

var clockPins = []string{"UR", "DR", "DL", "UL", "U", "R", "D", "L", "ALL"}

// clock turns every pin group on the front, flips, repeats the edge groups, then sets pins.
func (g *Generator) clock() string {
	moves := make([]string, 0, lengths["clock"]+2)
	for _, pin := range clockPins {
		moves = append(moves, g.clockTurn(pin))
	}
	moves = append(moves, "y2")
	for _, pin := range clockPins[4:] {
		moves = append(moves, g.clockTurn(pin))
	}
	var up []string
	for _, pin := range clockPins[:4] {
		if g.rnd.Intn(2) == 0 {
			up = append(up, pin)
		}
	}
	if len(up) > 0 {
		moves = append(moves, strings.Join(up, " "))
	}
	return strings.Join(moves, " ")
}

func (g *Generator) clockTurn(pin string) string {
	amount := g.rnd.Intn(12) - 5
	if amount < 0 {
		return fmt.Sprintf("%s%d-", pin, -amount)
	}
	return fmt.Sprintf("%s%d+", pin, amount)
}
