package model

// Attribution is a flattened marketing attribution entry, keyed in
// CleanContact.Attributions by its medium.
type Attribution struct {
	UtmCampaign string `json:"utmCampaign"`
	UtmMedium   string `json:"utmMedium"`
	UtmContent  string `json:"utmContent"`
	Medium      string `json:"medium"`
}

// CustomField is an id/value pair carried through from the raw contact.
type CustomField struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// CleanContact is a normalized GoHighLevel contact. The *Key fields are
// the lowercased, phone-canonicalized values used for cross-source
// matching; their JSON names match the intermediate-file columns.
type CleanContact struct {
	ID          string `json:"id"`
	ContactName string `json:"contactName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Source      string `json:"source"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Address1    string `json:"address1"`
	Country     string `json:"country"`
	DateAdded   string `json:"dateAdded"`
	DateUpdated string `json:"dateUpdated"`

	Tags         []string               `json:"tags"`
	Attributions map[string]Attribution `json:"attributions"`
	CustomFields []CustomField          `json:"customFields"`

	// Business attributes surfaced from custom fields. Nil means the
	// field was absent on the contact.
	BusinessInAU *string `json:"Business_in_AU"`
	HandsetCount *string `json:"Handset_Count"`
	AdName       *string `json:"Ad_Name"`
	PhVerified   *string `json:"Ph_verified"`
	Qualified    *string `json:"Qualified"`

	NameKey  string `json:"contactName_ghlc"`
	EmailKey string `json:"email_ghlc"`
	PhoneKey string `json:"phone_ghlc"`
}

// HasTag reports whether the contact carries the given tag.
// Tag comparison is exact: GHL stores tags lowercased.
func (c CleanContact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CleanLead is a normalized Zoho CRM lead.
type CleanLead struct {
	Company    string `json:"Company"`
	LeadNumber string `json:"Lead_Number"`
	LeadSource string `json:"Lead_Source"`
	LeadStatus string `json:"Lead_Status"`

	NameKey  string `json:"contactName_zl"`
	EmailKey string `json:"email_zl"`
	PhoneKey string `json:"phone_zl"`
}

// CleanDeal is a normalized Zoho CRM deal.
type CleanDeal struct {
	DealName         string   `json:"Deal_Name"`
	Stage            string   `json:"Stage"`
	Amount           *float64 `json:"Amount"`
	GrandTotal       *float64 `json:"Grand_Total"`
	MonthlySubTotal  *float64 `json:"Monthly_Sub_Total"`
	OctaneID         string   `json:"Octane_ID"`
	DealType         string   `json:"Deal_Type"`
	HandsetsRequired string   `json:"Handsets_Required"`
	LinesRequired    string   `json:"Lines_Required"`

	NameKey  string `json:"contactName_zd"`
	EmailKey string `json:"email_zd"`
	PhoneKey string `json:"phone_zd"`
}
