package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "matrixctl",
	Short: "Matrix calculator appliance controller",
	Long: `matrixctl hosts the matrix calculator appliance and drives it over the
serial link: enter matrices, generate random ones, display stored slots,
run convolutions, and adjust live settings from a session script.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "appliance settings file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level: debug, info, warning, error")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("MATRIXCTL")
	viper.AutomaticEnv()

	rootCmd.AddCommand(runCmd, snapshotCmd, versionCmd)
}

// newLogger builds the CLI logger from the --log-level flag.
func newLogger() (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return nil, fmt.Errorf("bad log level: %w", err)
	}
	log := logrus.New()
	log.SetLevel(lvl)
	return log, nil
}

// Execute runs the root command. Errors are printed by the caller's exit
// path once, not by every level of cobra.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
