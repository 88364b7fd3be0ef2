package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cubelog/cubelog/internal/importer"
	"github.com/cubelog/cubelog/internal/model"
)

var (
	importPreview    bool
	importOnly       []string
	importEvent      string
	importDate       string
	importCube       int64
	importForceEvent bool
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a csTimer export, CSV or plain text solve log",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().BoolVar(&importPreview, "preview", false, "show what would be imported without writing")
	cmd.Flags().StringSliceVar(&importOnly, "only", nil, "import only these session keys or names")
	cmd.Flags().StringVar(&importEvent, "event", model.DefaultEvent, "event for sessions without one")
	cmd.Flags().StringVar(&importDate, "date", "", "date for imported sessions YYYY-MM-DD")
	cmd.Flags().Int64Var(&importCube, "cube", 0, "cube id for imported sessions")
	cmd.Flags().BoolVar(&importForceEvent, "force-event", false, "use --event even when the file names one")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	sessions, err := importer.Parse(path, data)
	if err != nil {
		return userError("parse "+path, err)
	}
	out := cmd.OutOrStdout()

	if importPreview {
		previews := importer.Preview(sessions)
		if len(importOnly) > 0 {
			previews = filterPreviews(previews, importOnly)
		}
		for _, p := range previews {
			line := fmt.Sprintf("%-12s %-20s %-6s %-10s solves %4d  best %s  worst %s  mean %s",
				p.Key, p.Name, orDash(p.Event), orDash(p.Date), p.SolveCount,
				model.FormatOptMs(p.Best), model.FormatOptMs(p.Worst), model.FormatOptMs(p.Mean))
			if p.Skipped > 0 {
				line += fmt.Sprintf("  (%d unreadable)", p.Skipped)
			}
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	opts := importer.Options{
		Event:      importEvent,
		Only:       importOnly,
		ForceEvent: importForceEvent,
	}
	if importDate != "" {
		if opts.Date, err = model.ParseDate(importDate); err != nil {
			return userError("import", err)
		}
	}
	if cmd.Flags().Changed("cube") {
		opts.CubeID = &importCube
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	res, err := importer.New(st, logger).Import(cmd.Context(), sessions, opts)
	if err != nil {
		return userError("import", err)
	}
	for _, s := range res.Sessions {
		if _, err := fmt.Fprintf(out, "%s -> session %d (%d solves)\n", s.Key, s.SessionID, s.Solves); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "Imported %d solves into %d sessions", res.TotalSolves, len(res.Sessions))
	if err == nil && res.Skipped > 0 {
		_, err = fmt.Fprintf(out, ", skipped %d unreadable entries", res.Skipped)
	}
	if err == nil {
		_, err = fmt.Fprintln(out)
	}
	return err
}

func filterPreviews(previews []importer.SessionPreview, only []string) []importer.SessionPreview {
	want := map[string]bool{}
	for _, key := range only {
		want[strings.TrimSpace(key)] = true
	}
	out := previews[:0:0]
	for _, p := range previews {
		if want[p.Key] || want[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
