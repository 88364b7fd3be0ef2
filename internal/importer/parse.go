// Package importer reads csTimer exports and plain solve logs.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cubelog/cubelog/internal/model"
)

// Format identifies an import file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

// csTimer penalty codes.
const (
	csTimerOK      = 0
	csTimerPlusTwo = 2000
	csTimerDNF     = -1
)

// Solve is one parsed attempt.
type Solve struct {
	TimeMs   int64
	Penalty  model.Penalty
	Scramble string
	Comment  string
	At       time.Time
}

// Session is a group of parsed solves, in file order.
type Session struct {
	Key     string
	Name    string
	Event   string
	Solves  []Solve
	Skipped int
}

// Date returns the calendar date of the first timestamped solve, or "".
func (s Session) Date() string {
	for _, solve := range s.Solves {
		if !solve.At.IsZero() {
			return solve.At.Format(model.DateLayout)
		}
	}
	return ""
}

// Detect guesses the format from the file name and content.
func Detect(name string, data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		return FormatJSON
	}
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return FormatCSV
	}
	firstLine, _, _ := strings.Cut(string(trimmed), "\n")
	if strings.Contains(strings.ToLower(firstLine), "time") && strings.ContainsAny(firstLine, ",;") {
		return FormatCSV
	}
	return FormatText
}

// Parse detects the format and parses data into sessions.
func Parse(name string, data []byte) ([]Session, error) {
	switch Detect(name, data) {
	case FormatJSON:
		return ParseCSTimer(data)
	case FormatCSV:
		sess, err := ParseCSV(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		sess.Key = baseName(name)
		return []Session{sess}, nil
	default:
		sess, err := ParseText(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		sess.Key = baseName(name)
		return []Session{sess}, nil
	}
}

func baseName(name string) string {
	if name == "" {
		return "import"
	}
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type csTimerSessionMeta struct {
	Name any `json:"name"`
	Opt  struct {
		ScrType string `json:"scrType"`
	} `json:"opt"`
}

// ParseCSTimer parses a csTimer JSON export. Every array-valued key is a session;
// names and scramble types come from properties.sessionData when present.
func ParseCSTimer(data []byte) ([]Session, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: decode csTimer export: %v", model.ErrInvalidInput, err)
	}
	meta := csTimerMeta(root["properties"])

	var sessions []Session
	for key, raw := range root {
		var solves []json.RawMessage
		if err := json.Unmarshal(raw, &solves); err != nil {
			continue
		}
		sess := Session{Key: key, Name: key}
		if m, ok := meta[strings.TrimPrefix(key, "session")]; ok {
			if name := fmt.Sprint(m.Name); m.Name != nil && name != "" {
				sess.Name = name
			}
			sess.Event = eventForScrambleType(m.Opt.ScrType)
		}
		for _, rawSolve := range solves {
			solve, err := parseCSTimerSolve(rawSolve)
			if err != nil {
				sess.Skipped++
				continue
			}
			sess.Solves = append(sess.Solves, solve)
		}
		sessions = append(sessions, sess)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("%w: no csTimer sessions found", model.ErrInvalidInput)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessionOrder(sessions[i].Key) < sessionOrder(sessions[j].Key) ||
			(sessionOrder(sessions[i].Key) == sessionOrder(sessions[j].Key) && sessions[i].Key < sessions[j].Key)
	})
	return sessions, nil
}

func csTimerMeta(raw json.RawMessage) map[string]csTimerSessionMeta {
	if len(raw) == 0 {
		return nil
	}
	var props struct {
		SessionData string `json:"sessionData"`
	}
	if err := json.Unmarshal(raw, &props); err != nil || props.SessionData == "" {
		return nil
	}
	var meta map[string]csTimerSessionMeta
	if err := json.Unmarshal([]byte(props.SessionData), &meta); err != nil {
		return nil
	}
	return meta
}

// sessionOrder sorts "session2" before "session10"; keys without a number go last.
func sessionOrder(key string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(key, "session"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// eventForScrambleType maps csTimer scramble types to WCA event ids.
func eventForScrambleType(scrType string) string {
	prefixes := []struct {
		prefix string
		event  string
	}{
		{"222", "222"}, {"333", "333"}, {"444", "444"}, {"555", "555"},
		{"666", "666"}, {"777", "777"}, {"pyr", "pyram"}, {"skb", "skewb"},
		{"mgm", "minx"}, {"sq", "sq1"}, {"clk", "clock"},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(scrType, p.prefix) {
			return p.event
		}
	}
	return ""
}

func parseCSTimerSolve(raw json.RawMessage) (Solve, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return Solve{}, err
	}
	if len(parts) == 0 {
		return Solve{}, errors.New("empty solve")
	}
	var result []int64
	if err := json.Unmarshal(parts[0], &result); err != nil {
		return Solve{}, err
	}
	if len(result) < 2 {
		return Solve{}, errors.New("missing time")
	}
	solve := Solve{TimeMs: result[1]}
	switch result[0] {
	case csTimerOK:
	case csTimerPlusTwo:
		solve.Penalty = model.PenaltyPlusTwo
	case csTimerDNF:
		solve.Penalty = model.PenaltyDNF
	default:
		return Solve{}, fmt.Errorf("unknown penalty code %d", result[0])
	}
	if solve.TimeMs < 0 || solve.TimeMs > model.MaxTimeMs || (solve.TimeMs == 0 && solve.Penalty != model.PenaltyDNF) {
		return Solve{}, fmt.Errorf("invalid time %d", solve.TimeMs)
	}
	if len(parts) > 1 {
		_ = json.Unmarshal(parts[1], &solve.Scramble)
	}
	if len(parts) > 2 {
		_ = json.Unmarshal(parts[2], &solve.Comment)
	}
	if len(parts) > 3 {
		var ts int64
		if err := json.Unmarshal(parts[3], &ts); err == nil && ts > 0 {
			solve.At = time.Unix(ts, 0)
		}
	}
	return solve, nil
}

// ParseCSV parses a CSV export with a header row. The time and scramble columns are
// found by header name; "," and ";" separated files are both accepted.
func ParseCSV(r io.Reader) (Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Session{}, err
	}
	firstLine, _, _ := strings.Cut(string(data), "\n")
	reader := csv.NewReader(bytes.NewReader(data))
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Session{}, fmt.Errorf("%w: read csv header: %v", model.ErrInvalidInput, err)
	}
	timeCol, scrambleCol, commentCol, dateCol := -1, -1, -1, -1
	for i, col := range header {
		lower := strings.ToLower(strings.TrimSpace(col))
		switch {
		case strings.Contains(lower, "time") && timeCol < 0:
			timeCol = i
		case strings.Contains(lower, "scramble"):
			scrambleCol = i
		case strings.Contains(lower, "comment") || strings.Contains(lower, "note"):
			commentCol = i
		case strings.Contains(lower, "date"):
			dateCol = i
		}
	}
	if timeCol < 0 {
		return Session{}, fmt.Errorf("%w: no time column in csv header", model.ErrInvalidInput)
	}

	var sess Session
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			sess.Skipped++
			continue
		}
		if timeCol >= len(record) {
			sess.Skipped++
			continue
		}
		ms, penalty, err := model.ParseTime(record[timeCol])
		if err != nil {
			sess.Skipped++
			continue
		}
		solve := Solve{TimeMs: ms, Penalty: penalty}
		if scrambleCol >= 0 && scrambleCol < len(record) {
			solve.Scramble = strings.TrimSpace(record[scrambleCol])
		}
		if commentCol >= 0 && commentCol < len(record) {
			solve.Comment = strings.TrimSpace(record[commentCol])
		}
		if dateCol >= 0 && dateCol < len(record) {
			solve.At = parseLooseDate(record[dateCol])
		}
		sess.Solves = append(sess.Solves, solve)
	}
	return sess, nil
}

func parseLooseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, model.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseText parses one solve per line: "1. 18.50 R U R' ..." or just "18.50".
func ParseText(r io.Reader) (Session, error) {
	var sess Session
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if isOrdinal(fields[0]) {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			sess.Skipped++
			continue
		}
		ms, penalty, err := model.ParseTime(fields[0])
		if err != nil {
			sess.Skipped++
			continue
		}
		sess.Solves = append(sess.Solves, Solve{
			TimeMs:   ms,
			Penalty:  penalty,
			Scramble: strings.Join(fields[1:], " "),
		})
	}
	if err := scanner.Err(); err != nil {
		return Session{}, err
	}
	if len(sess.Solves) == 0 {
		return Session{}, fmt.Errorf("%w: no solves found", model.ErrInvalidInput)
	}
	return sess, nil
}

func isOrdinal(s string) bool {
	trimmed := strings.TrimRight(s, ".)")
	if trimmed == s || trimmed == "" {
		return false
	}
	_, err := strconv.Atoi(trimmed)
	return err == nil
}
