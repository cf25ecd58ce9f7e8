package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4b-group/leadrank/internal/model"
)

func strPtr(s string) *string { return &s }

func baseContact() model.RawContact {
	return model.RawContact{
		ID:          "c-1",
		ContactName: "Jane Citizen",
		FirstName:   "Jane",
		LastName:    "Citizen",
		CompanyName: "Citizen Plumbing",
		Email:       "Jane@Example.com",
		Phone:       "+61 412 345 678",
		Source:      "google ads",
		DateAdded:   "2024-01-15T03:00:00.000Z",
		DateUpdated: "2024-02-01T03:00:00.000Z",
	}
}

func TestContact_MissingOptionalFieldsDefaultToEmpty(t *testing.T) {
	t.Parallel()

	c, err := Contact(baseContact())
	require.NoError(t, err)

	assert.Equal(t, "", c.City)
	assert.Equal(t, "", c.State)
	assert.Equal(t, "", c.PostalCode)
	assert.Equal(t, "", c.Address1)
	assert.Equal(t, "", c.Country)
	assert.NotNil(t, c.Tags)
	assert.Empty(t, c.Tags)
	assert.NotNil(t, c.Attributions)
	assert.Empty(t, c.Attributions)
	assert.NotNil(t, c.CustomFields)
	assert.Empty(t, c.CustomFields)
}

func TestContact_MatchKeys(t *testing.T) {
	t.Parallel()

	c, err := Contact(baseContact())
	require.NoError(t, err)

	assert.Equal(t, "jane citizen", c.NameKey)
	assert.Equal(t, "jane@example.com", c.EmailKey)
	assert.Equal(t, "0412345678", c.PhoneKey)
}

func TestContact_MissingRequiredField(t *testing.T) {
	t.Parallel()

	raw := baseContact()
	raw.ID = ""
	_, err := Contact(raw)

	require.Error(t, err)
	var shapeErr *DataShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "id", shapeErr.Field)
}

func TestContact_AttributionFlattening(t *testing.T) {
	t.Parallel()

	raw := baseContact()
	raw.Attributions = []model.RawAttribution{
		{
			Medium:      strPtr("cpc"),
			UtmCampaign: strPtr("summer"),
			UtmMedium:   strPtr("google"),
			UtmContent:  strPtr("ad-1"),
		},
		// Missing utmContent: skipped.
		{
			Medium:      strPtr("social"),
			UtmCampaign: strPtr("launch"),
			UtmMedium:   strPtr("facebook"),
		},
		// No medium: skipped.
		{
			UtmCampaign: strPtr("x"),
			UtmMedium:   strPtr("y"),
			UtmContent:  strPtr("z"),
		},
		// Duplicate medium: overwrites the first cpc entry.
		{
			Medium:      strPtr("cpc"),
			UtmCampaign: strPtr("winter"),
			UtmMedium:   strPtr("google"),
			UtmContent:  strPtr("ad-2"),
		},
	}

	c, err := Contact(raw)
	require.NoError(t, err)

	require.Len(t, c.Attributions, 1)
	got := c.Attributions["cpc"]
	assert.Equal(t, "winter", got.UtmCampaign)
	assert.Equal(t, "ad-2", got.UtmContent)
	assert.Equal(t, "cpc", got.Medium)
}

func TestContact_CustomFieldExtraction(t *testing.T) {
	t.Parallel()

	raw := baseContact()
	raw.CustomFields = []model.RawCustomField{
		{ID: "vq0Esn3nuJ2jknUuvjhU", Value: model.NewFieldValue("3-4")},
		{ID: "zAKDOxzWoIGAX7Nadsqk", Value: model.NewFieldValue("True", "False")},
		{ID: "unrelated-field", Value: model.NewFieldValue("whatever")},
	}

	c, err := Contact(raw)
	require.NoError(t, err)

	require.NotNil(t, c.HandsetCount)
	assert.Equal(t, "3-4", *c.HandsetCount)

	// List values resolve to their first element.
	require.NotNil(t, c.PhVerified)
	assert.Equal(t, "True", *c.PhVerified)

	// Absent fields stay nil rather than defaulting.
	assert.Nil(t, c.BusinessInAU)
	assert.Nil(t, c.AdName)
	assert.Nil(t, c.Qualified)

	// All custom fields carry through as id/value pairs.
	assert.Len(t, c.CustomFields, 3)
}

func TestContact_PresentOptionalFieldsKept(t *testing.T) {
	t.Parallel()

	raw := baseContact()
	raw.City = strPtr("Sydney")
	raw.State = strPtr("NSW")
	raw.Tags = []string{"phone verified", "b4b"}

	c, err := Contact(raw)
	require.NoError(t, err)

	assert.Equal(t, "Sydney", c.City)
	assert.Equal(t, "NSW", c.State)
	assert.Equal(t, []string{"phone verified", "b4b"}, c.Tags)
	assert.True(t, c.HasTag("phone verified"))
	assert.False(t, c.HasTag("verified"))
}

func TestContacts_StopsOnFirstBadRecord(t *testing.T) {
	t.Parallel()

	bad := baseContact()
	bad.Source = ""
	_, err := Contacts([]model.RawContact{baseContact(), bad})

	require.Error(t, err)
	var shapeErr *DataShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "source", shapeErr.Field)
}
