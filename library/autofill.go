package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CatalogEntry is one record of the JSON catalog used to prefill book forms.
type CatalogEntry struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

// LoadAutofillCatalog reads a JSON array of catalog entries. A missing file is
// an empty catalog.
func LoadAutofillCatalog(path string) ([]CatalogEntry, error) {
	f, err := os.Open(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return []CatalogEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAutofillCatalog(f)
}

// ReadAutofillCatalog decodes catalog entries from r and trims their fields.
func ReadAutofillCatalog(r io.Reader) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range entries {
		entries[i].Title = strings.TrimSpace(entries[i].Title)
		entries[i].Author = strings.TrimSpace(entries[i].Author)
		entries[i].Category = strings.TrimSpace(entries[i].Category)
	}
	return entries, nil
}

// SearchAutofill returns entries whose title starts with keyword, followed by
// entries whose title merely contains it. A blank keyword returns all entries.
func SearchAutofill(entries []CatalogEntry, keyword string) []CatalogEntry {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return entries
	}

	var starts, contains []CatalogEntry
	for _, e := range entries {
		title := strings.ToLower(e.Title)
		switch {
		case strings.HasPrefix(title, kw):
			starts = append(starts, e)
		case strings.Contains(title, kw):
			contains = append(contains, e)
		}
	}
	return append(starts, contains...)
}
