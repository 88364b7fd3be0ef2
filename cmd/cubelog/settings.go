package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/ranking"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Link your WCA profile",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the linked WCA ID",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShowCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-wca-id <id>",
		Short: "Validate a WCA ID against the WCA API and link it",
		Args:  cobra.ExactArgs(1),
		RunE:  runSettingsSetCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Unlink the WCA ID",
		Args:  cobra.NoArgs,
		RunE:  runSettingsClearCmd,
	})
	return cmd
}

func runSettingsShowCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	settings, err := st.GetSettings(cmd.Context())
	if errors.Is(err, model.ErrNotFound) {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No WCA ID linked. Run: cubelog settings set-wca-id <id>")
		return err
	}
	if err != nil {
		return userError("load settings", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "WCA ID: %s\nName: %s\nUpdated: %s\n",
		settings.WCAID, settings.WCAName, settings.UpdatedAt.Local().Format("2006-01-02 15:04"))
	return err
}

func runSettingsSetCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	client := ranking.New(rankingOptions(fileCfg, logger))
	person, err := client.LookupWCAPerson(cmd.Context(), args[0])
	switch {
	case errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("WCA ID %s not found", args[0])
	case errors.Is(err, model.ErrRankingUnavailable):
		return fmt.Errorf("could not reach the WCA API: %w", err)
	case err != nil:
		return userError("validate WCA ID", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	settings, err := st.SaveSettings(cmd.Context(), model.UserSettings{WCAID: person.ID, WCAName: person.Name})
	if err != nil {
		return userError("save settings", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Linked %s (%s)\n", settings.WCAName, settings.WCAID)
	return err
}

func runSettingsClearCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.ClearSettings(cmd.Context()); err != nil {
		return userError("clear settings", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "WCA ID unlinked")
	return err
}
