package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/ranking"
	"github.com/cubelog/cubelog/internal/stats"
	"github.com/cubelog/cubelog/internal/statsui"
)

var (
	statsEvent       string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	rankEvent string
	rankKind  string
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsEvent, "event", "", "event filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the browser")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "event", &statsEvent, fileCfg.Stats.Event)
	applyStringConfig(cmd, "since", &statsSince, fileCfg.Stats.Since)
	applyIntConfig(cmd, "last", &statsLast, fileCfg.Stats.Last)
	applyIntConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.Window)

	since, err := parseSince(statsSince)
	if err != nil {
		return err
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	cfg := model.StatsConfig{
		Event:       statsEvent,
		Since:       since,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if statsPlain {
		report, err := stats.BuildReport(cmd.Context(), st, cfg)
		if err != nil {
			return userError("build report", err)
		}
		return renderPlainReport(cmd.OutOrStdout(), report, cfg.CurveWindow)
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainReport(w io.Writer, report stats.Report, window int) error {
	if err := stats.RenderSummary(w, report.Sessions, report.Times); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if len(report.Bests) > 0 {
		if err := stats.RenderPersonalBests(w, report.Bests); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	if len(report.Progress) > 0 {
		if err := stats.RenderCurves(w, report.Progress, window); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	if err := stats.RenderSessionTable(w, report.Sessions); err != nil {
		return err
	}
	dist, err := stats.BuildDistribution(report.Times, 3, true, 0)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			return nil
		}
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return stats.RenderDistribution(w, dist, 40)
}

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank [time]",
		Short: "Estimate world ranking for a time or your personal bests",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRankCmd,
	}
	cmd.Flags().StringVar(&rankEvent, "event", model.DefaultEvent, "WCA event id")
	cmd.Flags().StringVar(&rankKind, "kind", "single", "single or average (with a time argument)")
	return cmd
}

func runRankCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	kind, err := ranking.ParseKind(rankKind)
	if err != nil {
		return userError("rank", err)
	}
	client := ranking.New(rankingOptions(fileCfg, logger))
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		ms, penalty, err := model.ParseTime(args[0])
		if err != nil {
			return userError("parse time", err)
		}
		if penalty == model.PenaltyDNF {
			return fmt.Errorf("a DNF has no ranking")
		}
		if penalty == model.PenaltyPlusTwo {
			ms += model.PlusTwoMs
		}
		est := client.Estimate(ctx, ms, rankEvent, kind)
		return printEstimate(out, est)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	overview, err := st.Overview(ctx, rankEvent)
	if err != nil {
		return userError("load personal bests", err)
	}
	if overview.PersonalBest == nil && overview.BestAo5 == nil {
		_, err := fmt.Fprintf(out, "No %s solves yet.\n", rankEvent)
		return err
	}
	if settings, err := st.GetSettings(ctx); err == nil {
		if _, err := fmt.Fprintf(out, "%s (%s)\n", settings.WCAName, settings.WCAID); err != nil {
			return err
		}
	}
	pair := client.EstimateBoth(ctx, rankEvent, overview.PersonalBest, overview.BestAo5)
	for _, est := range []*ranking.Estimate{pair.Single, pair.Average} {
		if est == nil {
			continue
		}
		if err := printEstimate(out, *est); err != nil {
			return err
		}
		if rec, err := client.WorldRecord(ctx, est.Event, est.Kind); err == nil {
			if _, err := fmt.Fprintf(out, "  World record: %s by %s (%s)\n", model.FormatMs(rec.TimeMs), rec.Holder, rec.Country); err != nil {
				return err
			}
		} else {
			logger.Debug("world record unavailable", "event", est.Event, "kind", est.Kind, "err", err)
		}
	}
	return nil
}

func printEstimate(out io.Writer, est ranking.Estimate) error {
	lines := []string{
		fmt.Sprintf("%s %s %s", est.Event, est.Kind, model.FormatMs(est.TimeMs)),
		fmt.Sprintf("  Level: %s", est.Level),
		fmt.Sprintf("  Faster than: %s of ranked competitors", est.FasterThan()),
		fmt.Sprintf("  Rank: %s of %s", est.RankLabel(), est.TotalLabel()),
	}
	if est.Description != "" {
		lines = append(lines, "  "+est.Description)
	}
	lines = append(lines, "  "+est.Note)
	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}
