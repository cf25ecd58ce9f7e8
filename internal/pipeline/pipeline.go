// Package pipeline orchestrates the two batch phases: fetch (retrieve
// and normalize upstream records, persist intermediates) and reconcile
// (join, rank, report). The phases are decoupled through the JSON
// intermediates so reconcile can rerun without touching either CRM.
package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/b4b-group/leadrank/internal/join"
	"github.com/b4b-group/leadrank/internal/model"
	"github.com/b4b-group/leadrank/internal/normalize"
	"github.com/b4b-group/leadrank/internal/rank"
	"github.com/b4b-group/leadrank/internal/report"
	"github.com/b4b-group/leadrank/internal/store"
	"github.com/b4b-group/leadrank/pkg/ghl"
	"github.com/b4b-group/leadrank/pkg/zoho"
)

// Fetcher retrieves raw records from both CRMs, cleans them, and
// persists raw and clean dumps to the data dir and the run store.
type Fetcher struct {
	GHL      ghl.Client
	Zoho     zoho.Client
	Criteria string
	DataDir  string
	Store    store.Store
}

// Fetch runs the retrieval phase. The two upstreams are independent,
// so they are fetched concurrently; any failure aborts the run and is
// recorded against it.
func (f *Fetcher) Fetch(ctx context.Context) (*model.Run, error) {
	run, err := f.Store.CreateRun(ctx)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("fetch: run started")

	var (
		rawContacts []model.RawContact
		rawLeads    []model.RawLead
		rawDeals    []model.RawDeal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		contacts, err := f.GHL.ListContacts(gctx)
		if err != nil {
			return err
		}
		rawContacts = contacts
		return nil
	})
	g.Go(func() error {
		leads, err := f.Zoho.SearchLeads(gctx, f.Criteria)
		if err != nil {
			return err
		}
		rawLeads = leads

		deals, err := f.Zoho.SearchDeals(gctx, f.Criteria)
		if err != nil {
			return err
		}
		rawDeals = deals
		return nil
	})
	if err := g.Wait(); err != nil {
		f.recordFailure(ctx, run.ID, err)
		return nil, err
	}

	// Raw dumps land before cleaning so a malformed record can be
	// diagnosed from disk even when the run fails.
	rawDumps := []dump{
		{store.FileRawContacts, store.SourceContacts, store.KindRaw, len(rawContacts), rawContacts},
		{store.FileRawLeads, store.SourceLeads, store.KindRaw, len(rawLeads), rawLeads},
		{store.FileRawDeals, store.SourceDeals, store.KindRaw, len(rawDeals), rawDeals},
	}
	if err := f.writeDumps(ctx, run.ID, rawDumps); err != nil {
		return nil, err
	}

	cleanContacts, err := normalize.Contacts(rawContacts)
	if err != nil {
		f.recordFailure(ctx, run.ID, err)
		return nil, err
	}
	cleanLeads := normalize.Leads(rawLeads)
	cleanDeals := normalize.Deals(rawDeals)

	cleanDumps := []dump{
		{store.FileCleanContacts, store.SourceContacts, store.KindClean, len(cleanContacts), cleanContacts},
		{store.FileCleanLeads, store.SourceLeads, store.KindClean, len(cleanLeads), cleanLeads},
		{store.FileCleanDeals, store.SourceDeals, store.KindClean, len(cleanDeals), cleanDeals},
	}
	if err := f.writeDumps(ctx, run.ID, cleanDumps); err != nil {
		return nil, err
	}

	counts := model.RunCounts{
		Contacts: len(cleanContacts),
		Leads:    len(cleanLeads),
		Deals:    len(cleanDeals),
	}
	if err := f.Store.CompleteRun(ctx, run.ID, counts); err != nil {
		return nil, err
	}
	run.Status = model.RunStatusCompleted
	run.Counts = counts

	log.Info("fetch: run completed",
		zap.Int("contacts", counts.Contacts),
		zap.Int("leads", counts.Leads),
		zap.Int("deals", counts.Deals),
	)
	return run, nil
}

// dump is one intermediate file plus its snapshot coordinates.
type dump struct {
	file   string
	source string
	kind   string
	count  int
	data   any
}

func (f *Fetcher) writeDumps(ctx context.Context, runID string, dumps []dump) error {
	for _, d := range dumps {
		payload, err := store.WriteJSON(f.DataDir, d.file, d.data)
		if err != nil {
			f.recordFailure(ctx, runID, err)
			return err
		}
		if err := f.Store.SaveSnapshot(ctx, runID, d.source, d.kind, d.count, payload); err != nil {
			f.recordFailure(ctx, runID, err)
			return err
		}
	}
	return nil
}

func (f *Fetcher) recordFailure(ctx context.Context, runID string, cause error) {
	if err := f.Store.FailRun(ctx, runID, cause.Error()); err != nil {
		zap.L().Warn("fetch: record failure", zap.String("run_id", runID), zap.Error(err))
	}
}

// Reconciler joins and ranks the cleaned intermediates and writes the
// report files.
type Reconciler struct {
	DataDir       string
	DetailedCSV   string
	CondensedCSV  string
	Workbook      string
	WriteWorkbook bool
}

// Rankings loads the clean intermediates and returns the joined,
// ranked rows without writing any report files. The serve surface uses
// it directly.
func (r *Reconciler) Rankings(ctx context.Context) ([]model.RankedRecord, error) {
	var (
		contacts []model.CleanContact
		leads    []model.CleanLead
		deals    []model.CleanDeal
	)
	if err := store.ReadJSON(r.DataDir, store.FileCleanContacts, &contacts); err != nil {
		return nil, err
	}
	if err := store.ReadJSON(r.DataDir, store.FileCleanLeads, &leads); err != nil {
		return nil, err
	}
	if err := store.ReadJSON(r.DataDir, store.FileCleanDeals, &deals); err != nil {
		return nil, err
	}

	joined := join.Records(contacts, leads, deals)
	return rank.Records(joined), nil
}

// Reconcile runs the reporting phase from the clean intermediates.
func (r *Reconciler) Reconcile(ctx context.Context) ([]model.RankedRecord, error) {
	ranked, err := r.Rankings(ctx)
	if err != nil {
		return nil, err
	}

	if err := report.WriteDetailed(r.DetailedCSV, ranked); err != nil {
		return nil, err
	}
	if err := report.WriteCondensed(r.CondensedCSV, ranked); err != nil {
		return nil, err
	}
	if r.WriteWorkbook {
		if err := report.WriteWorkbook(r.Workbook, ranked); err != nil {
			return nil, err
		}
	}

	return ranked, nil
}
