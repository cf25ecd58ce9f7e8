package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4b-group/leadrank/internal/model"
)

func TestWriteReadJSON(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data")
	contacts := []model.CleanContact{
		{ID: "c1", Source: "B4B", Tags: []string{}},
		{ID: "c2", Source: "B4B", Tags: []string{"phone verified"}},
	}

	data, err := WriteJSON(dir, FileCleanContacts, contacts)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// Returned bytes are what landed on disk.
	onDisk, err := os.ReadFile(filepath.Join(dir, FileCleanContacts))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	var got []model.CleanContact
	require.NoError(t, ReadJSON(dir, FileCleanContacts, &got))
	assert.Equal(t, contacts, got)
}

func TestReadJSON_Missing(t *testing.T) {
	t.Parallel()

	var got []model.CleanContact
	err := ReadJSON(t.TempDir(), FileCleanLeads, &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileCleanLeads)
}
