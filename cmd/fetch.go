package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/b4b-group/leadrank/internal/pipeline"
	"github.com/b4b-group/leadrank/internal/store"
	"github.com/b4b-group/leadrank/pkg/ghl"
	"github.com/b4b-group/leadrank/pkg/zoho"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Retrieve and normalize records from both CRMs",
	Long: `Pulls every contact from GoHighLevel and every B4B lead and deal from
Zoho CRM, cleans them, and writes raw and clean JSON dumps to the data
directory. Reconciliation reads the clean dumps, so fetch and reconcile
can run independently.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("fetch"); err != nil {
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

		zap.L().Info("fetch: done",
			zap.String("run_id", run.ID),
			zap.Int("contacts", run.Counts.Contacts),
			zap.Int("leads", run.Counts.Leads),
			zap.Int("deals", run.Counts.Deals),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

// newFetcher wires the CRM clients from config. Token managers are
// created here, lazily per run; nothing talks to a CRM until the first
// fetch needs a token.
func newFetcher(st store.Store) *pipeline.Fetcher {
	ghlTokens := ghl.NewTokenManager(
		ghl.Credentials{
			ClientID:     cfg.GHL.ClientID,
			ClientSecret: cfg.GHL.ClientSecret,
			AuthCode:     cfg.GHL.AuthCode,
		},
		&ghl.FileTokenStore{Path: cfg.GHL.TokenFile},
	)
	ghlClient := ghl.NewClient(ghlTokens, cfg.GHL.LocationID,
		ghl.WithBaseURL(cfg.GHL.BaseURL),
		ghl.WithPageSize(cfg.GHL.PageSize),
		ghl.WithRateLimit(cfg.GHL.RateLimit),
	)

	zohoTokens := zoho.NewTokenManager(
		zoho.Credentials{
			ClientID:     cfg.Zoho.ClientID,
			ClientSecret: cfg.Zoho.ClientSecret,
			RefreshToken: cfg.Zoho.RefreshToken,
		},
		&zoho.FileTokenStore{Path: cfg.Zoho.TokenFile},
		zoho.WithAccountsURL(cfg.Zoho.AccountsURL),
	)
	zohoClient := zoho.NewClient(zohoTokens,
		zoho.WithBaseURL(cfg.Zoho.BaseURL),
		zoho.WithRateLimit(cfg.Zoho.RateLimit),
	)

	return &pipeline.Fetcher{
		GHL:      ghlClient,
		Zoho:     zohoClient,
		Criteria: cfg.Zoho.Criteria,
		DataDir:  cfg.Output.DataDir,
		Store:    st,
	}
}

// openStore is shared by commands that only read run history.
func openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}
