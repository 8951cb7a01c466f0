package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile   string
	table     string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "tablefsm",
		Short:         "Drive a table-defined state machine from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading TABLEFSM_* variables")
	flags.StringVarP(&opts.table, "table", "t", "", "YAML table to load (default: built-in idle/processing/error table)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.AddCommand(
		newRunCmd(opts),
		newTriggersCmd(opts),
		newDotCmd(opts),
	)
	return cmd
}

// resolve merges flags over the environment configuration
func (o *rootOptions) resolve() (Config, error) {
	cfg, err := loadConfig(o.envFile)
	if err != nil {
		return Config{}, err
	}
	if o.table != "" {
		cfg.Table = o.table
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	return cfg, nil
}
