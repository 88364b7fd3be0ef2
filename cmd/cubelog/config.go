package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cubelog/cubelog/internal/logging"
	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/ranking"
)

var configNoEdit bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configNoEdit, "no-edit", false, "create the file if missing and print its path")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := configPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}
	if configNoEdit {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# cubelog configuration
# Uncomment a value to enable it. CLI flags override config values,
# CUBELOG_* environment variables override both.

[timer]
# event = %q           # Event for new timer sessions
# cube = 1                # Cube id linked to new timer sessions
# scramble = true         # Show generated scrambles

[stats]
# event = "333"           # Event filter ("all" for every event)
# since = "2024-01-01"    # Only sessions on or after this date
# last = 30               # Only the last N sessions
# window = %d              # Moving average window for curves

[ranking]
# url = %q
# person-url = %q
# offline = false         # Never fetch; use the approximate table
# timeout-seconds = %d
# cache-ttl-hours = %d

[server]
# addr = %q

[storage]
# path = "/path/to/cubelog.db"

[log]
# level = %q           # debug, info, warn, error
`,
		model.DefaultEvent,
		defaultCurveWindow,
		ranking.DefaultBaseURL,
		ranking.DefaultPersonURL,
		int(ranking.DefaultTimeout.Seconds()),
		int(ranking.DefaultCacheTTL.Hours()),
		defaultAddr,
		logging.DefaultLevel,
	)
}
