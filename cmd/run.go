package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/b4b-group/leadrank/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch and reconcile in one pass",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := newFetcher(st).Fetch(ctx)
		if err != nil {
			return err
		}

		ranked, err := newReconciler().Reconcile(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("run: done",
			zap.String("run_id", run.ID),
			zap.Int("rows", len(ranked)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
