package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/b4b-group/leadrank/internal/pipeline"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Join, rank, and report from the clean intermediates",
	Long: `Reads the clean JSON dumps produced by fetch, left-joins contacts to
leads on email, attaches deals by name/email/phone matching, assigns
each row its lead-quality ranking, and writes the detailed and
condensed report tables.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ranked, err := newReconciler().Reconcile(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("reconcile: done",
			zap.Int("rows", len(ranked)),
			zap.String("detailed", cfg.Output.DetailedCSV),
			zap.String("condensed", cfg.Output.CondensedCSV),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func newReconciler() *pipeline.Reconciler {
	return &pipeline.Reconciler{
		DataDir:       cfg.Output.DataDir,
		DetailedCSV:   cfg.Output.DetailedCSV,
		CondensedCSV:  cfg.Output.CondensedCSV,
		Workbook:      cfg.Output.Workbook,
		WriteWorkbook: cfg.Output.WriteWorkbook,
	}
}
