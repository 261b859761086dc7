package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolvan/matrixctl/calc"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and settings-schema information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := calc.GetInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "matrixctl %s (settings schema %s.x)\n",
			info.Version, info.ConfigSchema)
	},
}
