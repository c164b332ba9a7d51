// Package cli implements the cobra commands of go-portscout.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-portscout/config"
)

const (
	ExitGeneralError = 1
	ExitInvalidInput = 2
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func invalidInput(err error) error {
	return &ExitError{Code: ExitInvalidInput, Err: err}
}

// options are shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	cfg        config.Config
}

// NewRootCommand creates the root command with the scan and serve subcommands.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "go-portscout",
		Short: "TCP connect port scanner for a single IPv4 host",
		Long: `go-portscout probes the most common TCP ports of one IPv4 host with
full TCP handshakes and reports which ports accepted the connection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return invalidInput(err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = opts.logLevel
			}
			if err := cfg.ApplyLogLevel(); err != nil {
				return invalidInput(err)
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or JSON(C) config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newScanCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// Execute runs the root command and exits with the matching code on failure.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitGeneralError)
	}
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
