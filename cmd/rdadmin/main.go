package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/rundeck-admin/cmd/rdadmin/commands"
	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "rdadmin",
	Short: "Rundeck administration CLI",
	Long: `A command-line tool for administering Rundeck instances through API v14.

It manages projects, jobs and execution history, and moves projects between
instances: backups, restores, replication and promotion.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.rdadmin/config.yml)")
	flags.StringP("endpoint", "e", "", "Rundeck API endpoint URL")
	flags.StringP("token", "t", "", "Rundeck API token")
	flags.String("token-file", "", "file holding the Rundeck API token")
	flags.String("tmp-directory", "", "staging directory for archives (default is a temporary directory)")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Int("retry-max", constants.DefaultRetryMax, "retries for read requests")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "per-request timeout")
	flags.Bool("skip-ssl-validation", false, "skip SSL certificate validation (requires "+constants.DevModeEnv+")")
	flags.String("events-url", "", "NATS server URL to publish workflow events to")
	flags.String("events-subject", constants.DefaultEventSubject, "NATS subject prefix for workflow events")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag(commands.KeyEndpoint, flags.Lookup("endpoint"))
	_ = viper.BindPFlag(commands.KeyToken, flags.Lookup("token"))
	_ = viper.BindPFlag(commands.KeyTokenFile, flags.Lookup("token-file"))
	_ = viper.BindPFlag(commands.KeyTmpDirectory, flags.Lookup("tmp-directory"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag(commands.KeyRetryMax, flags.Lookup("retry-max"))
	_ = viper.BindPFlag(commands.KeyTimeout, flags.Lookup("timeout"))
	_ = viper.BindPFlag(commands.KeySkipSSLValidation, flags.Lookup("skip-ssl-validation"))
	_ = viper.BindPFlag(commands.KeyEventsURL, flags.Lookup("events-url"))
	_ = viper.BindPFlag(commands.KeyEventsSubject, flags.Lookup("events-subject"))

	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewProjectsCommand())
	rootCmd.AddCommand(commands.NewJobsCommand())
	rootCmd.AddCommand(commands.NewExecutionsCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, commands.ConfigDirName)

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
