// Package join merges cleaned contacts with leads and deals into the
// joined rows the classifier ranks. The join is a pure transformation:
// inputs are never mutated and every contact appears exactly once in
// the output.
package join

import (
	"go.uber.org/zap"

	"github.com/b4b-group/leadrank/internal/model"
)

// Records left-joins contacts to leads on the normalized email key,
// then attaches at most one deal per row by testing the join keys in
// priority order [name, email, phone]: the first key with any matching
// deal wins, and ties on a key break by deal source order.
//
// Deal matching scans all deals per contact, so the join is
// O(contacts x deals). At the volumes in scope (thousands of records
// per side) this is fine; it is not a scalability design.
func Records(contacts []model.CleanContact, leads []model.CleanLead, deals []model.CleanDeal) []model.JoinedRecord {
	leadsByEmail := indexLeads(leads)

	out := make([]model.JoinedRecord, 0, len(contacts))
	matchedDeals := 0
	for _, c := range contacts {
		row := model.JoinedRecord{CleanContact: c}

		if lead, ok := leadsByEmail[c.EmailKey]; ok {
			row.Lead = lead
		}

		if deal, ok := matchDeal(c, deals); ok {
			row.Amount = deal.Amount
			stage := deal.Stage
			row.Stage = &stage
			matchedDeals++
		}
		// Unmatched rows keep nil Amount/Stage and the Deal_ID /
		// Deal_Owner sentinels stay nil.

		out = append(out, row)
	}

	zap.L().Info("join: merged records",
		zap.Int("contacts", len(contacts)),
		zap.Int("leads", len(leads)),
		zap.Int("deals", len(deals)),
		zap.Int("deal_matches", matchedDeals),
	)

	return out
}

// indexLeads maps email key to the first lead carrying it. Later leads
// with a duplicate email are ignored: first match wins and the join
// stays left-preserving.
func indexLeads(leads []model.CleanLead) map[string]*model.CleanLead {
	byEmail := make(map[string]*model.CleanLead, len(leads))
	for i := range leads {
		key := leads[i].EmailKey
		if key == "" {
			continue
		}
		if _, ok := byEmail[key]; !ok {
			byEmail[key] = &leads[i]
		}
	}
	return byEmail
}

// matchDeal finds the contact's deal, testing name, then email, then
// phone. The first key that yields a match settles the row; remaining
// keys are not consulted even if they would disagree.
func matchDeal(c model.CleanContact, deals []model.CleanDeal) (model.CleanDeal, bool) {
	keys := []struct {
		contact string
		deal    func(model.CleanDeal) string
	}{
		{c.NameKey, func(d model.CleanDeal) string { return d.NameKey }},
		{c.EmailKey, func(d model.CleanDeal) string { return d.EmailKey }},
		{c.PhoneKey, func(d model.CleanDeal) string { return d.PhoneKey }},
	}

	for _, k := range keys {
		if k.contact == "" {
			continue
		}
		for _, d := range deals {
			if k.deal(d) == k.contact {
				return d, true
			}
		}
	}
	return model.CleanDeal{}, false
}
