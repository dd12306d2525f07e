package model

import (
	"encoding/json"
	"time"
)

// Category of a catalog item, assigned once at ingestion.
type Category string

const (
	CategorySermons     = Category("sermons")
	CategoryTeachings   = Category("teachings")
	CategoryWorship     = Category("worship")
	CategoryInspiration = Category("inspiration")
)

// CatalogItem is a single entry of a mirrored catalog (a video or a book).
// Source specific attributes (views, price, thumbnails, ...) are carried
// opaquely in Extra and round-tripped on save.
type CatalogItem struct {
	// ID is a stable identity namespaced by source, e.g. "youtube-dQw4w9WgXcQ"
	ID string
	// ExternalID is the source system's native identifier, used for dedup
	ExternalID  string
	Title       string
	Description string
	Category    Category
	PublishedAt time.Time

	// Extra holds source specific fields the engine does not interpret,
	// plus any unknown fields found on disk
	Extra map[string]json.RawMessage
}

// Keys managed by the typed fields above. Everything else belongs to Extra.
var itemKeys = []string{"id", "externalId", "title", "description", "category", "publishedAt"}

func (i CatalogItem) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(i.Extra)+len(itemKeys))
	for k, v := range i.Extra {
		fields[k] = v
	}

	for k, v := range map[string]interface{}{
		"id":          i.ID,
		"externalId":  i.ExternalID,
		"title":       i.Title,
		"description": i.Description,
		"category":    i.Category,
		"publishedAt": i.PublishedAt,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[k] = data
	}

	return json.Marshal(fields)
}

func (i *CatalogItem) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	for key, out := range map[string]interface{}{
		"id":          &i.ID,
		"externalId":  &i.ExternalID,
		"title":       &i.Title,
		"description": &i.Description,
		"category":    &i.Category,
		"publishedAt": &i.PublishedAt,
	} {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		if err := json.Unmarshal(raw, out); err != nil {
			return err
		}
	}

	for _, key := range itemKeys {
		delete(fields, key)
	}

	if len(fields) > 0 {
		i.Extra = fields
	}

	return nil
}

// SetExtra marshals a source specific attribute into the item's opaque fields.
func (i *CatalogItem) SetExtra(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if i.Extra == nil {
		i.Extra = map[string]json.RawMessage{}
	}

	i.Extra[key] = data
	return nil
}
