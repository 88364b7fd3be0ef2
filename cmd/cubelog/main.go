// Package main provides the CLI entrypoint for cubelog.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cubelog/cubelog/internal/config"
	"github.com/cubelog/cubelog/internal/logging"
	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/ranking"
	"github.com/cubelog/cubelog/internal/scramble"
	"github.com/cubelog/cubelog/internal/store"
	"github.com/cubelog/cubelog/internal/timer"
)

const (
	defaultCurveWindow = 5
	defaultAddr        = "127.0.0.1:8080"
)

var (
	rootDBPath     string
	rootConfigPath string
	rootLogLevel   string

	timerEvent    string
	timerCube     int64
	timerScramble bool
	timerSession  int64
	timerNew      bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cubelog",
		Short:         "Speedcubing timer and training log",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTimerCmd,
	}

	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db", "", "database path (default: $XDG_DATA_HOME/cubelog/cubelog.db)")
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/cubelog/config.toml)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.Flags().StringVar(&timerEvent, "event", model.DefaultEvent, "WCA event id")
	rootCmd.Flags().Int64Var(&timerCube, "cube", 0, "cube id for a new session")
	rootCmd.Flags().BoolVar(&timerScramble, "scramble", true, "show generated scrambles")
	rootCmd.Flags().Int64Var(&timerSession, "session", 0, "record into this session instead of today's")
	rootCmd.Flags().BoolVar(&timerNew, "new", false, "always start a new session")

	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newSolveCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRankCmd())
	rootCmd.AddCommand(newCubeCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runTimerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "event", &timerEvent, fileCfg.Timer.Event)
	applyInt64Config(cmd, "cube", &timerCube, fileCfg.Timer.Cube)
	applyBoolConfig(cmd, "scramble", &timerScramble, fileCfg.Timer.Scramble)

	event := strings.TrimSpace(timerEvent)
	if event == "" {
		return fmt.Errorf("--event must not be empty")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	sess, err := timerSessionFor(cmd.Context(), st, event)
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so the timer logs nowhere.
	m, err := timer.NewModel(timer.Config{
		SessionID:    sess.ID,
		Event:        event,
		HideScramble: !timerScramble,
	}, st, scramble.New(), logging.Discard())
	if err != nil {
		return fmt.Errorf("failed to start timer: %w", err)
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run timer: %w", err)
	}

	final := m.Session()
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Session %d (%s, %s): %d solves, best %s, ao5 %s, ao12 %s\n",
		final.ID, final.EventID, final.Date, final.SolveCount,
		model.FormatOptMs(final.BestSingle), model.FormatOptMs(final.Ao5), model.FormatOptMs(final.Ao12))
	return err
}

// timerSessionFor picks the session the timer records into: --session, else today's
// latest session of the event, else a new one.
func timerSessionFor(ctx context.Context, st *store.Store, event string) (model.Session, error) {
	if timerSession > 0 {
		return st.GetSession(ctx, timerSession)
	}
	today := time.Now().Format(model.DateLayout)
	if !timerNew {
		since, _ := time.Parse(model.DateLayout, today)
		sessions, err := st.ListSessions(ctx, model.SessionFilter{Event: event, Since: &since})
		if err != nil {
			return model.Session{}, err
		}
		for i := len(sessions) - 1; i >= 0; i-- {
			if sessions[i].Date == today {
				return sessions[i], nil
			}
		}
	}
	in := model.SessionInput{Date: today, EventID: event}
	if timerCube > 0 {
		in.CubeID = &timerCube
	}
	return st.CreateSession(ctx, in)
}

func configPath() string {
	if rootConfigPath != "" {
		return rootConfigPath
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file plus environment overrides and applies the
// global flags that depend on them.
func loadConfig(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.Load(configPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &rootDBPath, fileCfg.Storage.Path)
	applyStringConfig(cmd, "log-level", &rootLogLevel, fileCfg.Log.Level)
	return fileCfg, nil
}

func newLogger() (*log.Logger, error) {
	return logging.New(os.Stderr, rootLogLevel)
}

func openStore() (*store.Store, error) {
	path := rootDBPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func rankingOptions(fileCfg config.FileConfig, logger *log.Logger) ranking.Options {
	opts := ranking.Options{
		CacheDir: config.DefaultRankingCacheDir(),
		Logger:   logger,
	}
	if v := fileCfg.Ranking.URL; v != nil {
		opts.BaseURL = *v
	}
	if v := fileCfg.Ranking.PersonURL; v != nil {
		opts.PersonURL = *v
	}
	if v := fileCfg.Ranking.Offline; v != nil {
		opts.Offline = *v
	}
	if v := fileCfg.Ranking.TimeoutSeconds; v != nil && *v > 0 {
		opts.Timeout = time.Duration(*v) * time.Second
	}
	if v := fileCfg.Ranking.CacheTTLHours; v != nil && *v > 0 {
		opts.CacheTTL = time.Duration(*v) * time.Hour
	}
	return opts
}

// userError turns sentinel errors into short CLI messages.
func userError(what string, err error) error {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("%s: not found", what)
	case errors.Is(err, model.ErrInvalidInput):
		return fmt.Errorf("%s: %w", what, err)
	case errors.Is(err, model.ErrStorageUnavailable):
		return fmt.Errorf("%s: storage unavailable: %w", what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
