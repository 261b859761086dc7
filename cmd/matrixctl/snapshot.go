package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kolvan/matrixctl/calc"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the JSON state snapshot of a fresh appliance",
	Long: `Snapshot builds an appliance from the configured settings and prints its
initial state as JSON. Useful for checking what a settings file actually
resolves to; for post-script state use "run --snapshot".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := calc.New(calc.Options{ConfigPath: viper.GetString("config")})
		if err != nil {
			return err
		}
		raw, err := app.MarshalSnapshot()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	},
}
