// Package model defines the typed records flowing through the
// reconciliation pipeline: raw upstream payloads, cleaned per-source
// records, and the joined/ranked rows written to reports.
package model

import (
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
)

// RawContact is a GoHighLevel contact as delivered by the contacts API.
// Location fields are pointers so a missing field is distinguishable from
// an empty one.
type RawContact struct {
	ID           string           `json:"id"`
	ContactName  string           `json:"contactName"`
	FirstName    string           `json:"firstName"`
	LastName     string           `json:"lastName"`
	CompanyName  string           `json:"companyName"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	Source       string           `json:"source"`
	City         *string          `json:"city,omitempty"`
	State        *string          `json:"state,omitempty"`
	PostalCode   *string          `json:"postalCode,omitempty"`
	Address1     *string          `json:"address1,omitempty"`
	Country      *string          `json:"country,omitempty"`
	DateAdded    string           `json:"dateAdded"`
	DateUpdated  string           `json:"dateUpdated"`
	Tags         []string         `json:"tags,omitempty"`
	Attributions []RawAttribution `json:"attributions,omitempty"`
	CustomFields []RawCustomField `json:"customFields,omitempty"`
}

// RawAttribution is one entry of a contact's marketing attribution list.
// UTM fields are pointers because flattening requires all three to be
// present, not merely empty.
type RawAttribution struct {
	Medium      *string `json:"medium,omitempty"`
	UtmCampaign *string `json:"utmCampaign,omitempty"`
	UtmMedium   *string `json:"utmMedium,omitempty"`
	UtmContent  *string `json:"utmContent,omitempty"`
}

// RawCustomField is a CRM-user-defined field attached to a contact.
type RawCustomField struct {
	ID    string     `json:"id"`
	Value FieldValue `json:"value"`
}

// FieldValue is a custom field value, which the API delivers either as a
// bare scalar or as a list of scalars.
type FieldValue struct {
	values []string
}

// NewFieldValue builds a FieldValue from literal scalars. Test helper and
// intermediate-file round-tripping both use it.
func NewFieldValue(values ...string) FieldValue {
	return FieldValue{values: values}
}

// First returns the scalar value, or the first element when the upstream
// value was a list. ok is false when the value was empty or null.
func (v FieldValue) First() (string, bool) {
	if len(v.values) == 0 {
		return "", false
	}
	return v.values[0], true
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		v.values = v.values[:0]
		for _, item := range list {
			if s, ok := scalarString(item); ok {
				v.values = append(v.values, s)
			}
		}
		return nil
	}

	var single any
	if err := json.Unmarshal(data, &single); err != nil {
		return eris.Wrap(err, "model: decode custom field value")
	}
	if s, ok := scalarString(single); ok {
		v.values = []string{s}
	} else {
		v.values = nil
	}
	return nil
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch len(v.values) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(v.values[0])
	default:
		return json.Marshal(v.values)
	}
}

// scalarString renders a decoded JSON scalar as a string. Objects and
// nested arrays are not representable as field values.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// RawLead is a Zoho CRM lead as returned by the Leads search endpoint,
// restricted to the fields the pipeline retrieves.
type RawLead struct {
	Company         *string  `json:"Company"`
	ContactType     *string  `json:"Contact_type"`
	ConvertedAcct   *string  `json:"Converted_Account"`
	ConvertedCont   *string  `json:"Converted_Contact"`
	ConvertedDeal   *string  `json:"Converted_Deal"`
	Country         *string  `json:"Country"`
	CreatedTime     *string  `json:"Created_Time"`
	DealName        *string  `json:"Deal_Name"`
	DealType        *string  `json:"Deal_Type"`
	Email           *string  `json:"Email"`
	FirstName       *string  `json:"First_Name"`
	FullName        *string  `json:"Full_Name"`
	GenericEmail    *string  `json:"Generic_Email"`
	Industry        *string  `json:"Industry"`
	LastName        *string  `json:"Last_Name"`
	LeadNumber      *string  `json:"Lead_Number"`
	LeadSource      *string  `json:"Lead_Source"`
	LeadStatus      *string  `json:"Lead_Status"`
	LeadSourceNotes *string  `json:"Lead_source_notes"`
	Mobile          *string  `json:"Mobile"`
	Phone           *string  `json:"Phone"`
}

// ContactRef is Zoho's nested record reference ({id, name}).
type ContactRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// RawDeal is a Zoho CRM deal as returned by the Deals search endpoint,
// restricted to the fields the pipeline retrieves.
type RawDeal struct {
	DealName           *string     `json:"Deal_Name"`
	CheckedSignedOff   *string     `json:"Checked_Signed_off"`
	Stage              *string     `json:"Stage"`
	CreatedTime        *string     `json:"Created_Time"`
	AgreementApproved  *string     `json:"Agreement_Approved"`
	EmergencyForwardNo *string     `json:"Emergency_Forward_No"`
	SolutionDelivered  *string     `json:"Solution_delivered"`
	GenericEmail       *string     `json:"Generic_Email"`
	AcceptedByProv     *string     `json:"Accepted_by_Provisioning"`
	Amount             *float64    `json:"Amount"`
	ContactName        *ContactRef `json:"Contact_Name"`
	LeadSource         *string     `json:"Lead_Source"`
	SAFSent            *string     `json:"SAF_Sent"`
	GrandTotal         *float64    `json:"Grand_Total"`
	MonthlySubTotal    *float64    `json:"Monthly_Sub_Total"`
	OctaneID           *string     `json:"Octane_ID"`
	AgreementReturned  *string     `json:"Agreement_Returned_On"`
	DealType           *string     `json:"Deal_Type"`
	ProposalSent       *string     `json:"Proposal_Sent"`
	HandsetsRequired   *string     `json:"Handsets_Required"`
	LinesRequired      *string     `json:"Lines_Required"`
}
