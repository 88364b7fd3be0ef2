package timer

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapScramble breaks a scramble into lines no wider than width, never splitting a move.
// Existing line breaks are kept. A width of zero disables wrapping.
func wrapScramble(s string, width int) string {
	if width <= 0 {
		return s
	}
	src := strings.Split(s, "\n")
	out := make([]string, 0, len(src))
	for _, line := range src {
		out = append(out, wrapMoves(strings.Fields(line), width)...)
	}
	return strings.Join(out, "\n")
}

func wrapMoves(moves []string, width int) []string {
	if len(moves) == 0 {
		return []string{""}
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, move := range moves {
		w := runewidth.StringWidth(move)
		if lineWidth > 0 && lineWidth+1+w > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(move)
		lineWidth += w
	}
	return append(lines, line.String())
}
