package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Intermediate file names under the data directory. Raw dumps mirror
// the upstream payloads; clean dumps mirror the Clean* record shapes.
const (
	FileRawContacts   = "raw-ghl-contacts.json"
	FileCleanContacts = "clean-ghl-contacts.json"
	FileRawLeads      = "raw-zcrm-leads.json"
	FileCleanLeads    = "clean-zcrm-leads.json"
	FileRawDeals      = "raw-zcrm-deals.json"
	FileCleanDeals    = "clean-zcrm-deals.json"
)

// WriteJSON writes v pretty-printed to dir/name, creating dir as
// needed, and returns the encoded bytes for snapshotting.
func WriteJSON(dir, name string, v any) ([]byte, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "store: create data dir %s", dir)
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal %s", name)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, eris.Wrapf(err, "store: write %s", path)
	}
	return data, nil
}

// ReadJSON decodes dir/name into v.
func ReadJSON(dir, name string, v any) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "store: read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "store: decode %s", path)
	}
	return nil
}
