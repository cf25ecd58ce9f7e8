// Package report renders ranked records into the detailed and condensed
// output tables. Both tables share one column model; condensed drops the
// internal join keys and a few source-specific columns. Rows from the
// excluded lead sources never reach either output.
package report

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/b4b-group/leadrank/internal/model"
)

// excludedSources are lead sources dropped from all outputs. These are
// internal test funnels, not real leads.
var excludedSources = map[string]struct{}{
	"b4b - no txt conf form": {},
	"B4B Website Survey":     {},
	"bestforbusiness":        {},
}

// condensedDrop lists the columns removed from the condensed table.
var condensedDrop = map[string]struct{}{
	"tags":             {},
	"Company":          {},
	"Lead_Number":      {},
	"Lead_Source":      {},
	"Lead_Status":      {},
	"phone_zl":         {},
	"email_ghlc":       {},
	"phone_ghlc":       {},
	"contactName_ghlc": {},
	"email_zl":         {},
	"contactName_zl":   {},
	"Deal_ID":          {},
	"Deal_Owner":       {},
}

// column pairs a header name with its cell renderer.
type column struct {
	name  string
	value func(model.RankedRecord) string
}

// WriteDetailed writes the full table as CSV.
func WriteDetailed(path string, records []model.RankedRecord) error {
	return writeCSV(path, records, false)
}

// WriteCondensed writes the reduced table as CSV.
func WriteCondensed(path string, records []model.RankedRecord) error {
	return writeCSV(path, records, true)
}

func writeCSV(path string, records []model.RankedRecord, condensed bool) error {
	rows := filterRows(records)
	cols := tableColumns(rows, condensed)

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(headerNames(cols)); err != nil {
		return eris.Wrap(err, "report: write header")
	}
	for _, rec := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = c.value(rec)
		}
		if err := w.Write(cells); err != nil {
			return eris.Wrap(err, "report: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "report: flush csv")
	}

	zap.L().Info("report: wrote csv",
		zap.String("path", path),
		zap.Bool("condensed", condensed),
		zap.Int("rows", len(rows)),
	)
	return nil
}

// filterRows drops records whose source is excluded.
func filterRows(records []model.RankedRecord) []model.RankedRecord {
	out := make([]model.RankedRecord, 0, len(records))
	for _, r := range records {
		if _, skip := excludedSources[r.Source]; skip {
			continue
		}
		out = append(out, r)
	}
	return out
}

// tableColumns builds the column model for the given rows. Attribution
// columns are dynamic: one set of four per medium observed anywhere in
// the batch, in sorted medium order so output is stable across runs.
func tableColumns(rows []model.RankedRecord, condensed bool) []column {
	cols := contactColumns()
	cols = append(cols, attributionColumns(rows)...)
	cols = append(cols, attributeColumns()...)
	cols = append(cols, leadColumns()...)
	cols = append(cols, dealColumns()...)
	cols = append(cols,
		column{"ranking", func(r model.RankedRecord) string { return strconv.Itoa(r.Ranking) }},
		column{"ranking_desc", func(r model.RankedRecord) string { return r.RankingDesc }},
	)

	if !condensed {
		return cols
	}
	kept := cols[:0]
	for _, c := range cols {
		if _, drop := condensedDrop[c.name]; !drop {
			kept = append(kept, c)
		}
	}
	return kept
}

func contactColumns() []column {
	return []column{
		{"contactName", func(r model.RankedRecord) string { return r.ContactName }},
		{"companyName", func(r model.RankedRecord) string { return r.CompanyName }},
		{"email", func(r model.RankedRecord) string { return r.Email }},
		{"phone", func(r model.RankedRecord) string { return r.Phone }},
		{"source", func(r model.RankedRecord) string { return r.Source }},
		{"tags", func(r model.RankedRecord) string { return strings.Join(r.Tags, ";") }},
		{"email_ghlc", func(r model.RankedRecord) string { return r.EmailKey }},
		{"phone_ghlc", func(r model.RankedRecord) string { return r.PhoneKey }},
		{"contactName_ghlc", func(r model.RankedRecord) string { return r.NameKey }},
	}
}

func attributeColumns() []column {
	return []column{
		{"Business_in_AU", func(r model.RankedRecord) string { return strValue(r.BusinessInAU) }},
		{"Handset_Count", func(r model.RankedRecord) string { return strValue(r.HandsetCount) }},
		{"Ad_Name", func(r model.RankedRecord) string { return strValue(r.AdName) }},
		{"Ph_verified", func(r model.RankedRecord) string { return strValue(r.PhVerified) }},
		{"Qualified", func(r model.RankedRecord) string { return strValue(r.Qualified) }},
	}
}

func leadColumns() []column {
	return []column{
		{"Company", leadValue(func(l model.CleanLead) string { return l.Company })},
		{"Lead_Number", leadValue(func(l model.CleanLead) string { return l.LeadNumber })},
		{"Lead_Source", leadValue(func(l model.CleanLead) string { return l.LeadSource })},
		{"Lead_Status", leadValue(func(l model.CleanLead) string { return l.LeadStatus })},
		{"email_zl", leadValue(func(l model.CleanLead) string { return l.EmailKey })},
		{"phone_zl", leadValue(func(l model.CleanLead) string { return l.PhoneKey })},
		{"contactName_zl", leadValue(func(l model.CleanLead) string { return l.NameKey })},
	}
}

func dealColumns() []column {
	return []column{
		{"Amount", func(r model.RankedRecord) string { return floatValue(r.Amount) }},
		{"Stage", func(r model.RankedRecord) string { return strValue(r.Stage) }},
		{"Deal_ID", func(r model.RankedRecord) string { return strValue(r.DealID) }},
		{"Deal_Owner", func(r model.RankedRecord) string { return strValue(r.DealOwner) }},
	}
}

// attributionColumns expands the flattened attribution maps into four
// columns per medium: <medium>_utmCampaign, _utmMedium, _utmContent,
// _medium.
func attributionColumns(rows []model.RankedRecord) []column {
	seen := map[string]struct{}{}
	for _, r := range rows {
		for medium := range r.Attributions {
			seen[medium] = struct{}{}
		}
	}
	mediums := make([]string, 0, len(seen))
	for m := range seen {
		mediums = append(mediums, m)
	}
	sort.Strings(mediums)

	var cols []column
	for _, medium := range mediums {
		m := medium
		cols = append(cols,
			column{m + "_utmCampaign", attrValue(m, func(a model.Attribution) string { return a.UtmCampaign })},
			column{m + "_utmMedium", attrValue(m, func(a model.Attribution) string { return a.UtmMedium })},
			column{m + "_utmContent", attrValue(m, func(a model.Attribution) string { return a.UtmContent })},
			column{m + "_medium", attrValue(m, func(a model.Attribution) string { return a.Medium })},
		)
	}
	return cols
}

func attrValue(medium string, get func(model.Attribution) string) func(model.RankedRecord) string {
	return func(r model.RankedRecord) string {
		if a, ok := r.Attributions[medium]; ok {
			return get(a)
		}
		return ""
	}
}

func leadValue(get func(model.CleanLead) string) func(model.RankedRecord) string {
	return func(r model.RankedRecord) string {
		if r.Lead == nil {
			return ""
		}
		return get(*r.Lead)
	}
}

func headerNames(cols []column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatValue(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
