package cli

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"go-portscout/database"
	"go-portscout/manager"
	ps "go-portscout/port-scanner"
)

func newScanCommand(opts *options) *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
		deadline    time.Duration
		jsonOutput  bool
		dbPath      string
	)

	cmd := &cobra.Command{
		Use:   "scan <ipv4>",
		Short: "Scan the common TCP ports of an IPv4 host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := manager.ParseTargetInfo(args[0])
			if err != nil {
				return invalidInput(err)
			}

			cfg := opts.cfg.Scanner
			if cmd.Flags().Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = int(timeout / time.Millisecond)
			}
			if cmd.Flags().Changed("deadline") {
				cfg.Deadline = int(deadline / time.Millisecond)
			}
			if cfg.Concurrency < 1 {
				return invalidInput(ps.ErrInvalidConcurrency)
			}
			if cfg.Timeout < 1 {
				return invalidInput(errors.New("timeout must be at least 1ms"))
			}
			if cfg.Deadline < 0 || deadline < 0 {
				return invalidInput(errors.New("deadline must not be negative"))
			}

			var store manager.Store
			if dbPath != "" {
				db, err := database.New(dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				store = db
			}

			m := manager.NewManager(store, cfg)
			// Flags and config win over the settings persisted by the server.
			m.Configure(cfg)

			if !jsonOutput {
				printf(cmd, "[*] Scanning host %s\n", target.IP)
			}

			result, err := m.Scan(context.Background(), target.Raw)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printf(cmd, "Open TCP ports:\n")
			for _, p := range result.OpenPorts {
				printf(cmd, "  %d\n", p)
			}
			printf(cmd, "%d of %d ports open (%s)\n", len(result.OpenPorts),
				len(result.OpenPorts)+len(result.NonOpenPorts), result.Duration)
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", ps.DefaultConcurrency, "Maximum connect attempts in flight")
	cmd.Flags().DurationVar(&timeout, "timeout", ps.DefaultTimeout*time.Millisecond, "Timeout per connect attempt")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "Overall scan deadline, 0 disables it")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	cmd.Flags().StringVar(&dbPath, "db", "", "Record the scan in this SQLite database")

	return cmd
}
