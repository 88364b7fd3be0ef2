package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cubelog/cubelog/internal/model"
)

var (
	cubeType     string
	cubeBrand    string
	cubeModel    string
	cubePurchase string
	cubeNotes    string
	cubeActive   bool
	cubeListAll  bool
)

func newCubeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cube",
		Short: "Track cubes",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a cube",
		Args:  cobra.NoArgs,
		RunE:  runCubeAddCmd,
	}
	addCubeFlags(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cubes",
		Args:  cobra.NoArgs,
		RunE:  runCubeListCmd,
	}
	listCmd.Flags().BoolVar(&cubeListAll, "all", false, "include retired cubes")

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change cube details",
		Args:  cobra.ExactArgs(1),
		RunE:  runCubeEditCmd,
	}
	addCubeFlags(editCmd)
	editCmd.Flags().BoolVar(&cubeActive, "active", true, "mark the cube active or retired")

	retireCmd := &cobra.Command{
		Use:   "retire <id>",
		Short: "Retire a cube; its sessions keep the reference",
		Args:  cobra.ExactArgs(1),
		RunE:  runCubeRetireCmd,
	}

	cmd.AddCommand(addCmd, listCmd, editCmd, retireCmd)
	return cmd
}

func addCubeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cubeType, "type", "3x3", "cube type")
	cmd.Flags().StringVar(&cubeBrand, "brand", "", "brand")
	cmd.Flags().StringVar(&cubeModel, "model", "", "model")
	cmd.Flags().StringVar(&cubePurchase, "purchase-date", "", "purchase date YYYY-MM-DD")
	cmd.Flags().StringVar(&cubeNotes, "notes", "", "notes")
}

func runCubeAddCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	cube, err := st.CreateCube(cmd.Context(), model.CubeInput{
		CubeType:     cubeType,
		Brand:        cubeBrand,
		Model:        cubeModel,
		PurchaseDate: cubePurchase,
		Notes:        cubeNotes,
	})
	if err != nil {
		return userError("add cube", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added cube %d: %s\n", cube.ID, cube.Label())
	return err
}

func runCubeListCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	cubes, err := st.ListCubes(cmd.Context(), !cubeListAll)
	if err != nil {
		return userError("list cubes", err)
	}
	out := cmd.OutOrStdout()
	if len(cubes) == 0 {
		_, err := fmt.Fprintln(out, "No cubes found.")
		return err
	}
	for _, c := range cubes {
		status := ""
		if !c.Active {
			status = "  (retired)"
		}
		line := fmt.Sprintf("%d  %s", c.ID, c.Label())
		if c.PurchaseDate != "" {
			line += "  bought " + c.PurchaseDate
		}
		if _, err := fmt.Fprintln(out, line+status); err != nil {
			return err
		}
	}
	return nil
}

func runCubeEditCmd(cmd *cobra.Command, args []string) error {
	id, err := parseIDArg("cube", args[0])
	if err != nil {
		return err
	}
	var upd model.CubeUpdate
	flags := cmd.Flags()
	if flags.Changed("type") {
		upd.CubeType = &cubeType
	}
	if flags.Changed("brand") {
		upd.Brand = &cubeBrand
	}
	if flags.Changed("model") {
		upd.Model = &cubeModel
	}
	if flags.Changed("purchase-date") {
		upd.PurchaseDate = &cubePurchase
	}
	if flags.Changed("notes") {
		upd.Notes = &cubeNotes
	}
	if flags.Changed("active") {
		upd.Active = &cubeActive
	}
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	cube, err := st.UpdateCube(cmd.Context(), id, upd)
	if err != nil {
		return userError(fmt.Sprintf("edit cube %d", id), err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated cube %d: %s\n", cube.ID, cube.Label())
	return err
}

func runCubeRetireCmd(cmd *cobra.Command, args []string) error {
	id, err := parseIDArg("cube", args[0])
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

	if err := st.RetireCube(cmd.Context(), id); err != nil {
		return userError(fmt.Sprintf("retire cube %d", id), err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Retired cube %d\n", id)
	return err
}
