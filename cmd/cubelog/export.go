package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cubelog/cubelog/internal/export"
	"github.com/cubelog/cubelog/internal/model"
)

var (
	exportFormat string
	exportOutput string
	exportEvent  string
	exportSince  string
	exportLast   int
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump sessions and solves as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", "json", "json or yaml")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&exportEvent, "event", "", "event filter")
	cmd.Flags().StringVar(&exportSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&exportLast, "last", 0, "limit to last N sessions")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return userError("export", err)
	}
	since, err := parseSince(exportSince)
	if err != nil {
		return err
	}
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	dumps, err := export.Dump(cmd.Context(), st, model.SessionFilter{Event: exportEvent, Since: since, Last: exportLast})
	if err != nil {
		return userError("export", err)
	}
	if exportOutput == "" {
		return export.Write(cmd.OutOrStdout(), format, dumps)
	}
	return writeExportFile(exportOutput, func(w io.Writer) error {
		return export.Write(w, format, dumps)
	})
}

// writeExportFile writes through a temp file so a failed export never truncates an existing one.
func writeExportFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := write(tmpFile); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
