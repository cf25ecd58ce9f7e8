package normalize

import (
	"github.com/b4b-group/leadrank/internal/model"
)

// Lead cleans a raw Zoho lead down to the reporting subset plus match
// keys. Every retained field is optional upstream, so cleaning is total.
func Lead(raw model.RawLead) model.CleanLead {
	return model.CleanLead{
		Company:    deref(raw.Company),
		LeadNumber: deref(raw.LeadNumber),
		LeadSource: deref(raw.LeadSource),
		LeadStatus: deref(raw.LeadStatus),

		NameKey:  Key(deref(raw.FullName)),
		EmailKey: Key(deref(raw.Email)),
		PhoneKey: Phone(deref(raw.Phone)),
	}
}

// Leads cleans a batch of raw Zoho leads.
func Leads(raw []model.RawLead) []model.CleanLead {
	out := make([]model.CleanLead, 0, len(raw))
	for _, r := range raw {
		out = append(out, Lead(r))
	}
	return out
}

// Deal cleans a raw Zoho deal. The contact name is unwrapped from
// Zoho's nested {name} reference; deals match on the generic email and
// the emergency forward number.
func Deal(raw model.RawDeal) model.CleanDeal {
	var contactName string
	if raw.ContactName != nil {
		contactName = raw.ContactName.Name
	}

	return model.CleanDeal{
		DealName:         deref(raw.DealName),
		Stage:            deref(raw.Stage),
		Amount:           raw.Amount,
		GrandTotal:       raw.GrandTotal,
		MonthlySubTotal:  raw.MonthlySubTotal,
		OctaneID:         deref(raw.OctaneID),
		DealType:         deref(raw.DealType),
		HandsetsRequired: deref(raw.HandsetsRequired),
		LinesRequired:    deref(raw.LinesRequired),

		NameKey:  Key(contactName),
		EmailKey: Key(deref(raw.GenericEmail)),
		PhoneKey: Phone(deref(raw.EmergencyForwardNo)),
	}
}

// Deals cleans a batch of raw Zoho deals.
func Deals(raw []model.RawDeal) []model.CleanDeal {
	out := make([]model.CleanDeal, 0, len(raw))
	for _, r := range raw {
		out = append(out, Deal(r))
	}
	return out
}
