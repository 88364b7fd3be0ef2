package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/store"
)

var (
	solveScramble string
	solveNotes    string
	solvePenalty  string
	solveTime     string
)

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Add, edit or delete solves",
	}

	addCmd := &cobra.Command{
		Use:   "add <session-id> <time>",
		Short: "Append a solve, e.g. 18.53, 1:02.45, 20.01+ or DNF(18.53)",
		Args:  cobra.ExactArgs(2),
		RunE:  runSolveAddCmd,
	}
	addCmd.Flags().StringVar(&solveScramble, "scramble", "", "scramble used")
	addCmd.Flags().StringVar(&solveNotes, "notes", "", "solve notes")
	addCmd.Flags().StringVar(&solvePenalty, "penalty", "", "penalty: +2 or DNF")

	editCmd := &cobra.Command{
		Use:   "edit <solve-id>",
		Short: "Change time, penalty, scramble or notes of a solve",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolveEditCmd,
	}
	editCmd.Flags().StringVar(&solveTime, "time", "", "new time")
	editCmd.Flags().StringVar(&solvePenalty, "penalty", "", "new penalty: ok, +2 or DNF")
	editCmd.Flags().StringVar(&solveScramble, "scramble", "", "new scramble")
	editCmd.Flags().StringVar(&solveNotes, "notes", "", "new notes")

	deleteCmd := &cobra.Command{
		Use:   "delete <solve-id>",
		Short: "Delete a solve and renumber the rest",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolveDeleteCmd,
	}

	cmd.AddCommand(addCmd, editCmd, deleteCmd)
	return cmd
}

func runSolveAddCmd(cmd *cobra.Command, args []string) error {
	sessionID, err := parseIDArg("session", args[0])
	if err != nil {
		return err
	}
	ms, penalty, err := model.ParseTime(args[1])
	if err != nil {
		return userError("parse time", err)
	}
	if cmd.Flags().Changed("penalty") {
		if penalty, err = model.ParsePenalty(solvePenalty); err != nil {
			return userError("parse penalty", err)
		}
	}
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	in := model.SolveInput{TimeMs: ms, Penalty: penalty, Scramble: solveScramble, Notes: solveNotes}
	solveID, err := st.AppendSolve(cmd.Context(), sessionID, in)
	if err != nil {
		return userError("add solve", err)
	}
	return printSolveResult(cmd.Context(), cmd.OutOrStdout(), st, solveID)
}

func runSolveEditCmd(cmd *cobra.Command, args []string) error {
	solveID, err := parseIDArg("solve", args[0])
	if err != nil {
		return err
	}
	var upd model.SolveUpdate
	if cmd.Flags().Changed("time") {
		ms, penalty, err := model.ParseTime(solveTime)
		if err != nil {
			return userError("parse time", err)
		}
		upd.TimeMs = &ms
		if penalty != model.PenaltyNone {
			upd.Penalty = &penalty
		}
	}
	if cmd.Flags().Changed("penalty") {
		penalty, err := model.ParsePenalty(solvePenalty)
		if err != nil {
			return userError("parse penalty", err)
		}
		upd.Penalty = &penalty
	}
	if cmd.Flags().Changed("scramble") {
		upd.Scramble = &solveScramble
	}
	if cmd.Flags().Changed("notes") {
		upd.Notes = &solveNotes
	}
	if upd.Empty() {
		return fmt.Errorf("nothing to change: pass --time, --penalty, --scramble or --notes")
	}
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.EditSolve(cmd.Context(), solveID, upd); err != nil {
		return userError(fmt.Sprintf("edit solve %d", solveID), err)
	}
	return printSolveResult(cmd.Context(), cmd.OutOrStdout(), st, solveID)
}

func runSolveDeleteCmd(cmd *cobra.Command, args []string) error {
	solveID, err := parseIDArg("solve", args[0])
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

	solve, err := st.GetSolve(cmd.Context(), solveID)
	if err != nil {
		return userError(fmt.Sprintf("solve %d", solveID), err)
	}
	if err := st.DeleteSolve(cmd.Context(), solveID); err != nil {
		return userError(fmt.Sprintf("delete solve %d", solveID), err)
	}
	sess, err := st.GetSession(cmd.Context(), solve.SessionID)
	if err != nil {
		return userError(fmt.Sprintf("session %d", solve.SessionID), err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Deleted solve %d from session %d\n", solveID, sess.ID); err != nil {
		return err
	}
	return printSummary(out, sess)
}

func printSolveResult(ctx context.Context, out io.Writer, st *store.Store, solveID int64) error {
	solve, err := st.GetSolve(ctx, solveID)
	if err != nil {
		return userError(fmt.Sprintf("solve %d", solveID), err)
	}
	sess, err := st.GetSession(ctx, solve.SessionID)
	if err != nil {
		return userError(fmt.Sprintf("session %d", solve.SessionID), err)
	}
	if _, err := fmt.Fprintf(out, "Solve %d (#%d in session %d): %s\n", solve.ID, solve.SolveNumber, sess.ID, model.FormatSolve(solve)); err != nil {
		return err
	}
	return printSummary(out, sess)
}

func printSummary(out io.Writer, sess model.Session) error {
	_, err := fmt.Fprintf(out, "Solves %d  Best %s  Mean %s  Ao5 %s  Ao12 %s\n",
		sess.SolveCount, model.FormatOptMs(sess.BestSingle), model.FormatOptMs(sess.Mean),
		model.FormatOptMs(sess.Ao5), model.FormatOptMs(sess.Ao12))
	return err
}
