package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/stats"
)

var (
	sessionDate  string
	sessionEvent string
	sessionCube  int64
	sessionNotes string

	sessionListEvent string
	sessionListSince string
	sessionListLast  int

	sessionEditNotes     string
	sessionEditCube      int64
	sessionEditClearCube bool

	sessionRecomputeAll bool
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage practice sessions",
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Create an empty session",
		Args:  cobra.NoArgs,
		RunE:  runSessionNewCmd,
	}
	newCmd.Flags().StringVar(&sessionDate, "date", "", "session date YYYY-MM-DD (default: today)")
	newCmd.Flags().StringVar(&sessionEvent, "event", model.DefaultEvent, "WCA event id")
	newCmd.Flags().Int64Var(&sessionCube, "cube", 0, "cube id")
	newCmd.Flags().StringVar(&sessionNotes, "notes", "", "session notes")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions with their summaries",
		Args:  cobra.NoArgs,
		RunE:  runSessionListCmd,
	}
	listCmd.Flags().StringVar(&sessionListEvent, "event", "", "event filter")
	listCmd.Flags().StringVar(&sessionListSince, "since", "", "start date (YYYY-MM-DD)")
	listCmd.Flags().IntVar(&sessionListLast, "last", 0, "limit to last N sessions")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session and its solves",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionShowCmd,
	}

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change session notes or cube",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionEditCmd,
	}
	editCmd.Flags().StringVar(&sessionEditNotes, "notes", "", "new notes")
	editCmd.Flags().Int64Var(&sessionEditCube, "cube", 0, "new cube id")
	editCmd.Flags().BoolVar(&sessionEditClearCube, "clear-cube", false, "unlink the cube")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its solves",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionDeleteCmd,
	}

	recomputeCmd := &cobra.Command{
		Use:   "recompute [id]",
		Short: "Rebuild cached session statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSessionRecomputeCmd,
	}
	recomputeCmd.Flags().BoolVar(&sessionRecomputeAll, "all", false, "recompute every session")

	cmd.AddCommand(newCmd, listCmd, showCmd, editCmd, deleteCmd, recomputeCmd)
	return cmd
}

func parseIDArg(what, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func parseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(model.DateLayout, raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

func runSessionNewCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	in := model.SessionInput{Date: sessionDate, EventID: sessionEvent, Notes: sessionNotes}
	if cmd.Flags().Changed("cube") {
		in.CubeID = &sessionCube
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	sess, err := st.CreateSession(cmd.Context(), in)
	if err != nil {
		return userError("create session", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created session %d (%s, %s)\n", sess.ID, sess.EventID, sess.Date)
	return err
}

func runSessionListCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	since, err := parseSince(sessionListSince)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	sessions, err := st.ListSessions(cmd.Context(), model.SessionFilter{Event: sessionListEvent, Since: since, Last: sessionListLast})
	if err != nil {
		return userError("list sessions", err)
	}
	return stats.RenderSessionTable(cmd.OutOrStdout(), sessions)
}

func runSessionShowCmd(cmd *cobra.Command, args []string) error {
	id, err := parseIDArg("session", args[0])
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

	sess, err := st.GetSession(cmd.Context(), id)
	if err != nil {
		return userError(fmt.Sprintf("session %d", id), err)
	}
	solves, err := st.ListSolves(cmd.Context(), id)
	if err != nil {
		return userError(fmt.Sprintf("session %d", id), err)
	}
	out := cmd.OutOrStdout()
	lines := []string{
		fmt.Sprintf("Session %d  %s  %s", sess.ID, sess.EventID, sess.Date),
		fmt.Sprintf("Solves: %d  Best: %s  Worst: %s  Mean: %s  Ao5: %s  Ao12: %s",
			sess.SolveCount, model.FormatOptMs(sess.BestSingle), model.FormatOptMs(sess.WorstSingle),
			model.FormatOptMs(sess.Mean), model.FormatOptMs(sess.Ao5), model.FormatOptMs(sess.Ao12)),
	}
	if sess.CubeID != nil {
		lines = append(lines, fmt.Sprintf("Cube: %d", *sess.CubeID))
	}
	if sess.Notes != "" {
		lines = append(lines, "Notes: "+sess.Notes)
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return stats.RenderSolveTable(out, solves)
}

func runSessionEditCmd(cmd *cobra.Command, args []string) error {
	id, err := parseIDArg("session", args[0])
	if err != nil {
		return err
	}
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	var upd model.SessionUpdate
	if cmd.Flags().Changed("notes") {
		upd.Notes = &sessionEditNotes
	}
	if cmd.Flags().Changed("cube") {
		upd.CubeID = &sessionEditCube
	}
	upd.ClearCube = sessionEditClearCube
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	sess, err := st.UpdateSession(cmd.Context(), id, upd)
	if err != nil {
		return userError(fmt.Sprintf("edit session %d", id), err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated session %d\n", sess.ID)
	return err
}

func runSessionDeleteCmd(cmd *cobra.Command, args []string) error {
	id, err := parseIDArg("session", args[0])
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

	if err := st.DeleteSession(cmd.Context(), id); err != nil {
		return userError(fmt.Sprintf("delete session %d", id), err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %d\n", id)
	return err
}

func runSessionRecomputeCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !sessionRecomputeAll {
		return fmt.Errorf("pass a session id or --all")
	}
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if sessionRecomputeAll {
		n, err := st.RecomputeAll(cmd.Context())
		if err != nil {
			return userError("recompute sessions", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %d sessions\n", n)
		return err
	}
	id, err := parseIDArg("session", args[0])
	if err != nil {
		return err
	}
	sum, err := st.RecomputeSession(cmd.Context(), id)
	if err != nil {
		return userError(fmt.Sprintf("recompute session %d", id), err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Session %d: %d solves, best %s, mean %s, ao5 %s, ao12 %s\n",
		id, sum.SolveCount, model.FormatOptMs(sum.BestSingle), model.FormatOptMs(sum.Mean),
		model.FormatOptMs(sum.Ao5), model.FormatOptMs(sum.Ao12))
	return err
}
