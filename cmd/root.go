// Package cmd contains the CLI commands for the games dashboard
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"games-dashboard/config"
	"games-dashboard/utils"
)

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command
//
//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "games-dashboard",
	Short: "Explore a games catalog through descriptive and inferential statistics",
	Long: `games-dashboard loads a tabular games catalog and its JSON-lines tag
metadata, cleans and joins them, and serves charts, tables and a JSON API
over the result.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file, optional")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error), overrides config")
}

// setup loads the configuration and builds the logger shared by every command.
func setup(cmd *cobra.Command) (*config.Config, *utils.Logger, error) {
	cmd.SilenceUsage = true

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging = logLevel
	}

	logger := utils.NewLogger()
	if err := logger.SetLevel(cfg.Logging); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
