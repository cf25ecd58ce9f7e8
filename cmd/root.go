package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/b4b-group/leadrank/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadrank",
	Short: "CRM lead reconciliation and ranking",
	Long:  "Pulls contacts from GoHighLevel and leads/deals from Zoho CRM, matches them across sources, and ranks every contact on the lead-quality scale.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
