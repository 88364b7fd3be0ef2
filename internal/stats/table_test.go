package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Date", "Best", "Scramble"}
	rows := [][]string{
		{"2024-01-02", "9.87", "R U R'"},
		{"2024-01-03", "12.01", "F2"},
	}
	rightAlign := map[int]bool{1: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Date        Best Scramble" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "2024-01-02  9.87 R U R'" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "2024-01-03 12.01 F2" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Notes", "N"}, [][]string{{"速い", "1"}, {"ok", "2"}}, map[int]bool{1: true})
	if lines[1] != "速い  1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "ok    2" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}
