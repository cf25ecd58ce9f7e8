package normalize

import (
	"fmt"

	"github.com/b4b-group/leadrank/internal/model"
)

// GHL custom field IDs for the business attributes surfaced as
// top-level columns.
const (
	fieldBusinessInAU = "rXRaOb44Zgb853REc5Wo"
	fieldHandsetCount = "vq0Esn3nuJ2jknUuvjhU"
	fieldAdName       = "WY19sqzAA5ApOI573VVl"
	fieldPhVerified   = "zAKDOxzWoIGAX7Nadsqk"
	fieldQualified    = "uV1tzJy3WNtlIw8UIdYP"
)

// DataShapeError is a raw record missing a field the pipeline cannot
// default. It aborts the run rather than silently producing a bad row.
type DataShapeError struct {
	Record string
	Field  string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("normalize: %s record missing required field %q", e.Record, e.Field)
}

// Contact cleans a raw GoHighLevel contact. Optional location fields
// default to "", tags to an empty slice, attributions to an empty map.
func Contact(raw model.RawContact) (model.CleanContact, error) {
	if raw.ID == "" {
		return model.CleanContact{}, &DataShapeError{Record: "contact", Field: "id"}
	}
	if raw.Source == "" {
		return model.CleanContact{}, &DataShapeError{Record: "contact", Field: "source"}
	}

	c := model.CleanContact{
		ID:          raw.ID,
		ContactName: raw.ContactName,
		FirstName:   raw.FirstName,
		LastName:    raw.LastName,
		CompanyName: raw.CompanyName,
		Email:       raw.Email,
		Phone:       raw.Phone,
		Source:      raw.Source,
		City:        deref(raw.City),
		State:       deref(raw.State),
		PostalCode:  deref(raw.PostalCode),
		Address1:    deref(raw.Address1),
		Country:     deref(raw.Country),
		DateAdded:   raw.DateAdded,
		DateUpdated: raw.DateUpdated,

		Tags:         []string{},
		Attributions: flattenAttributions(raw.Attributions),
		CustomFields: carryCustomFields(raw.CustomFields),

		BusinessInAU: customFieldValue(raw.CustomFields, fieldBusinessInAU),
		HandsetCount: customFieldValue(raw.CustomFields, fieldHandsetCount),
		AdName:       customFieldValue(raw.CustomFields, fieldAdName),
		PhVerified:   customFieldValue(raw.CustomFields, fieldPhVerified),
		Qualified:    customFieldValue(raw.CustomFields, fieldQualified),
	}
	if len(raw.Tags) > 0 {
		c.Tags = append(c.Tags, raw.Tags...)
	}

	c.NameKey = Key(raw.ContactName)
	c.EmailKey = Key(raw.Email)
	c.PhoneKey = Phone(raw.Phone)

	return c, nil
}

// Contacts cleans a batch, failing on the first malformed record.
func Contacts(raw []model.RawContact) ([]model.CleanContact, error) {
	out := make([]model.CleanContact, 0, len(raw))
	for _, r := range raw {
		c, err := Contact(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// flattenAttributions keys attribution entries by medium. An entry
// qualifies only when it has a non-empty medium and all three UTM
// fields present; duplicate mediums resolve last-write-wins in input
// order.
func flattenAttributions(raw []model.RawAttribution) map[string]model.Attribution {
	out := make(map[string]model.Attribution)
	for _, a := range raw {
		if a.Medium == nil || *a.Medium == "" {
			continue
		}
		if a.UtmCampaign == nil || a.UtmMedium == nil || a.UtmContent == nil {
			continue
		}
		out[*a.Medium] = model.Attribution{
			UtmCampaign: *a.UtmCampaign,
			UtmMedium:   *a.UtmMedium,
			UtmContent:  *a.UtmContent,
			Medium:      *a.Medium,
		}
	}
	return out
}

func carryCustomFields(raw []model.RawCustomField) []model.CustomField {
	out := make([]model.CustomField, 0, len(raw))
	for _, f := range raw {
		v, _ := f.Value.First()
		out = append(out, model.CustomField{ID: f.ID, Value: v})
	}
	return out
}

// customFieldValue surfaces the scalar value of the custom field with
// the given ID, or nil when the contact does not carry it.
func customFieldValue(raw []model.RawCustomField, id string) *string {
	for _, f := range raw {
		if f.ID != id {
			continue
		}
		if v, ok := f.Value.First(); ok {
			return &v
		}
		return nil
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
