// Package export dumps sessions with their solves as JSON or YAML.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cubelog/cubelog/internal/model"
)

// Format names an export encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", model.ErrInvalidInput, s)
}

// SessionDump is a session with its summary and every solve.
type SessionDump struct {
	model.Session `yaml:",inline"`
	Solves        []model.Solve `json:"solves" yaml:"solves"`
}

// Store is the read side of the solve store an export needs.
type Store interface {
	ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.Session, error)
	ListSolves(ctx context.Context, sessionID int64) ([]model.Solve, error)
}

// Dump loads the filtered sessions in date order together with their solves.
func Dump(ctx context.Context, st Store, filter model.SessionFilter) ([]SessionDump, error) {
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	dumps := make([]SessionDump, 0, len(sessions))
	for _, sess := range sessions {
		solves, err := st.ListSolves(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("solves of session %d: %w", sess.ID, err)
		}
		if solves == nil {
			solves = []model.Solve{}
		}
		dumps = append(dumps, SessionDump{Session: sess, Solves: solves})
	}
	return dumps, nil
}

// Write encodes dumps to w.
func Write(w io.Writer, format Format, dumps []SessionDump) error {
	if dumps == nil {
		dumps = []SessionDump{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dumps)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dumps); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: unknown export format %q", model.ErrInvalidInput, format)
}
