package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/0xsequence/tps-reporter/pkg/report"
	"github.com/0xsequence/tps-reporter/pkg/storage"
	"github.com/spf13/cobra"
)

func openRunStore(ctx context.Context) (*storage.RunStore, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	if cfg.StorageType == config.StorageTypeNone {
		return nil, fmt.Errorf("run history is disabled (storage_type is %s)", config.StorageTypeNone)
	}
	store, err := storage.NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return storage.NewRunStore(store), nil
}

func closeRunStore(runs *storage.RunStore) {
	if err := runs.Close(); err != nil {
		logger.Error("Failed to close run store", err)
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	var cmd = &cobra.Command{
		Use:   "history",
		Short: "List recorded benchmark runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := openRunStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeRunStore(runs)

			records, err := runs.List(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tCHAIN\tSUBMITTER\tTXNS\tOK\tTPS")
			for _, run := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\n",
					run.ID,
					run.StartedAt.Format(time.RFC3339),
					run.Chain,
					run.Submitter,
					run.Txns,
					run.Report.Succeeded,
					run.Report.ThroughputPerSec,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newShowCmd() *cobra.Command {
	var format string

	var cmd = &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the report of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := openRunStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeRunStore(runs)

			run, err := runs.Load(args[0])
			if err != nil {
				return fmt.Errorf("load run %s: %w", args[0], err)
			}
			return report.Encode(os.Stdout, run, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", config.FormatText, "Report format: text, json or yaml")
	return cmd
}
