package main

import (
	"fmt"

	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/internal/logger"
)

var (
	// cfg is loaded once by the root command before any subcommand runs.
	cfg         *config.Configuration
	closeLogger func()

	// flags reads the global flags. Any flag left unset on the command line
	// is filled from HARNESS_<FLAG> before setup runs.
	flags = viper.New()

	rootCmd = &cobra.Command{
		Use:   "harness",
		Short: "API, database and SSH test harness",
		Long: `harness drives HTTP APIs under test, checks their side effects in
MySQL and on remote hosts over SSH, and serves a small web utility for
running SQL and saving visual query configurations.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cobrautil.CommandStack(
			cobrautil.SyncViperPreRunE("harness"),
			setup,
		),
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to config.yaml (default <project root>/config/config.yaml)")
	pf.StringP("env", "e", "", "environment name (default test)")
	pf.String("log-level", "", "override log.log_level")
	pf.String("log-format", "", "override log.log_format (console or json)")

	if err := flags.BindPFlags(pf); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(sshCmd)
	sshCmd.AddCommand(sshExecCmd)
	sshCmd.AddCommand(sshCatCmd)

	rootCmd.AddCommand(sqlCmd)
	sqlCmd.AddCommand(sqlExecCmd)
	sqlCmd.AddCommand(sqlExportCmd)

	rootCmd.AddCommand(envCmd)
	envCmd.AddCommand(envListCmd)

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(flags.GetString("config"))
	if err != nil {
		return err
	}

	if level := flags.GetString("log-level"); level != "" {
		loaded.Log.Level = level
	}
	if format := flags.GetString("log-format"); format != "" {
		loaded.Log.Format = format
	}

	closeLogger, err = logger.Setup(loaded.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	cfg = loaded
	zap.S().Named("cmd").Debugw("configuration loaded", "command", cmd.CommandPath(), "root", cfg.ProjectRoot)

	return nil
}

func envName() string {
	return flags.GetString("env")
}
