// Package source contains clients for the third party catalogs mirrored by
// the sync engine.
package source

import (
	"encoding/json"
	"time"

	"github.com/oladoye/sitesync/pkg/model"
)

// Candidate is a raw catalog entry returned by a source, before the engine
// deduplicates and classifies it.
type Candidate struct {
	ExternalID  string
	Title       string
	Description string
	PublishedAt time.Time

	// Category is set by sources that carry their own merchandising category.
	// Left empty for sources whose items are classified at ingestion.
	Category model.Category

	// Extra holds source specific attributes passed through opaquely
	Extra map[string]json.RawMessage
}

func (c *Candidate) setExtra(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if c.Extra == nil {
		c.Extra = map[string]json.RawMessage{}
	}

	c.Extra[key] = data
	return nil
}
