package overpass

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	_ "embed"
)

// Tag selection follows the Soundscape data service's mapping.yml. Keys
// map to the set of values that qualify an element for inclusion; an
// empty set matches any value.
//
//go:embed osm_tags.json
var defaultTagsJSON []byte

// TagTable maps primary OSM tag keys to the values they match on.
type TagTable map[string][]string

var (
	defaultTags     TagTable
	defaultTagsOnce sync.Once
)

// DefaultTags returns the embedded primary tag table.
func DefaultTags() TagTable {
	defaultTagsOnce.Do(func() {
		if err := json.Unmarshal(defaultTagsJSON, &defaultTags); err != nil {
			// The embedded table is validated by tests; failing to parse
			// it is a build defect.
			panic(fmt.Sprintf("overpass: embedded tag table invalid: %v", err))
		}
	})
	return defaultTags
}

// LoadTagTable reads a tag table from a JSON file, for deployments that
// override the embedded selection.
func LoadTagTable(path string) (TagTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tag table: %w", err)
	}
	var t TagTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing tag table %s: %w", path, err)
	}
	return t, nil
}

// Keys returns the tag keys in sorted order so that queries and
// feature classification are deterministic.
func (t TagTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PrimaryTag returns the first primary tag present on an element's tag
// set, in sorted key order. The boolean is false when no primary tag
// matches.
func (t TagTable) PrimaryTag(elementTags map[string]string) (key, value string, ok bool) {
	for _, k := range t.Keys() {
		v, present := elementTags[k]
		if !present {
			continue
		}
		allowed := t[k]
		if len(allowed) == 0 {
			return k, v, true
		}
		for _, a := range allowed {
			if v == a {
				return k, v, true
			}
		}
	}
	return "", "", false
}
