package model

import (
	"encoding/json"
	"time"
)

// Store is the persisted state of one catalog.
//
// Items are kept newest-first by insertion order, which is not necessarily
// publishedAt order: a late discovered older item is still prepended at
// discovery time. LastSyncedAt is the high-water mark for incremental polling
// and only ever moves forward. A zero LastSyncedAt means never synced.
type Store struct {
	SourceID     string
	Items        []*CatalogItem
	LastSyncedAt time.Time

	// Extra round-trips unknown top level fields of the document
	Extra map[string]json.RawMessage
}

var storeKeys = []string{"sourceId", "items", "lastSyncedAt"}

// NewStore returns an empty, well-formed store for a source.
func NewStore(sourceID string) *Store {
	return &Store{
		SourceID: sourceID,
		Items:    []*CatalogItem{},
	}
}

func (s Store) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(s.Extra)+len(storeKeys))
	for k, v := range s.Extra {
		fields[k] = v
	}

	items := s.Items
	if items == nil {
		items = []*CatalogItem{}
	}

	known := map[string]interface{}{
		"sourceId": s.SourceID,
		"items":    items,
	}
	if !s.LastSyncedAt.IsZero() {
		known["lastSyncedAt"] = s.LastSyncedAt
	}

	for k, v := range known {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[k] = data
	}

	return json.Marshal(fields)
}

func (s *Store) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	for key, out := range map[string]interface{}{
		"sourceId":     &s.SourceID,
		"items":        &s.Items,
		"lastSyncedAt": &s.LastSyncedAt,
	} {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		if err := json.Unmarshal(raw, out); err != nil {
			return err
		}
	}

	for _, key := range storeKeys {
		delete(fields, key)
	}

	if len(fields) > 0 {
		s.Extra = fields
	}

	if s.Items == nil {
		s.Items = []*CatalogItem{}
	}

	return nil
}
