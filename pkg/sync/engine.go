// Package sync implements the incremental merge of external catalogs into
// local stores.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oladoye/sitesync/pkg/config"
	"github.com/oladoye/sitesync/pkg/model"
	"github.com/oladoye/sitesync/pkg/source"
)

// previewSize bounds the number of new items echoed back in a report
const previewSize = 5

// Client lists recent items for a source. Implementations must not
// deduplicate or filter by date, that is the engine's job.
type Client interface {
	FetchRecent(ctx context.Context, sourceID string, limit int64) ([]*source.Candidate, error)
}

// Storage persists catalog state between passes.
type Storage interface {
	Load(name string) (*model.Store, error)
	Save(name string, st *model.Store) error
}

// Classifier assigns a category to raw candidate text.
type Classifier interface {
	Classify(title, description string) model.Category
}

// Report summarizes a single sync pass.
type Report struct {
	NewItems     int                  `json:"newItems"`
	UpdatedItems int                  `json:"updatedItems"`
	TotalItems   int                  `json:"totalItems"`
	SyncedAt     time.Time            `json:"syncedAt"`
	Preview      []*model.CatalogItem `json:"preview,omitempty"`
}

// Engine merges candidates from catalog clients into stores. It assumes at
// most one sync per catalog in flight at a time; serialization is the
// trigger layer's responsibility.
type Engine struct {
	storage    Storage
	classifier Classifier
	clients    map[string]Client
	clock      func() time.Time
}

func New(storage Storage, classifier Classifier) *Engine {
	return &Engine{
		storage:    storage,
		classifier: classifier,
		clients:    map[string]Client{},
		clock:      time.Now,
	}
}

// Register binds a client to a provider name referenced by catalog configs.
func (e *Engine) Register(provider string, client Client) {
	e.clients[provider] = client
}

// Registered reports whether a client is available for a provider, which is
// how "not configured" is told apart from "temporarily down".
func (e *Engine) Registered(provider string) bool {
	_, ok := e.clients[provider]
	return ok
}

// Sync runs one poll pass for a catalog: fetch recent candidates, drop the
// ones already covered by the high-water mark, merge the rest by externalId
// and persist the capped result.
func (e *Engine) Sync(ctx context.Context, cfg *config.Catalog) (*Report, error) {
	logger := log.WithField("catalog", cfg.ID)
	logger.Infof("-> syncing %s/%s", cfg.Provider, cfg.SourceID)
	started := e.clock()

	client, ok := e.clients[cfg.Provider]
	if !ok {
		return nil, errors.Wrapf(model.ErrConfigurationMissing, "no client registered for provider %q", cfg.Provider)
	}

	st, err := e.storage.Load(cfg.ID)
	if err != nil {
		return nil, err
	}

	if st.SourceID == "" {
		st.SourceID = cfg.SourceID
	}

	since := st.LastSyncedAt

	candidates, err := client.FetchRecent(ctx, cfg.SourceID, int64(cfg.PageSize))
	if err != nil {
		return nil, err
	}

	logger.Debugf("received %d candidate(s)", len(candidates))

	// Current time, not a candidate timestamp: the high-water mark must not
	// depend on the source's clock
	now := e.clock().UTC()

	if len(candidates) == 0 {
		logger.Info("no candidates returned, store left untouched")
		return &Report{TotalItems: len(st.Items), SyncedAt: now}, nil
	}

	staged, updated := e.merge(st, cfg.Provider, candidates, since)

	st.Items = append(staged, st.Items...)
	truncate(st, cfg.KeepLast)
	st.LastSyncedAt = now

	if err := e.storage.Save(cfg.ID, st); err != nil {
		return nil, err
	}

	logger.Infof(
		"synced in %s: %d new, %d updated, %d total",
		time.Since(started), len(staged), updated, len(st.Items),
	)

	preview := staged
	if len(preview) > previewSize {
		preview = preview[:previewSize]
	}

	return &Report{
		NewItems:     len(staged),
		UpdatedItems: updated,
		TotalItems:   len(st.Items),
		SyncedAt:     now,
		Preview:      preview,
	}, nil
}

// Ingest applies the merge contract to a single pushed candidate (webhook
// delivery). The high-water mark filter does not apply: a pushed item is
// eligible by definition.
func (e *Engine) Ingest(_ context.Context, cfg *config.Catalog, cand *source.Candidate) (*model.CatalogItem, bool, error) {
	st, err := e.storage.Load(cfg.ID)
	if err != nil {
		return nil, false, err
	}

	if st.SourceID == "" {
		st.SourceID = cfg.SourceID
	}

	var (
		item    *model.CatalogItem
		created bool
	)

	if existing := findByExternalID(st, cand.ExternalID); existing != nil {
		applyUpdate(existing, cand)
		item = existing
	} else {
		item = e.normalize(cfg.Provider, cand)
		st.Items = append([]*model.CatalogItem{item}, st.Items...)
		created = true
	}

	truncate(st, cfg.KeepLast)
	st.LastSyncedAt = e.clock().UTC()

	if err := e.storage.Save(cfg.ID, st); err != nil {
		return nil, false, err
	}

	log.WithField("catalog", cfg.ID).Infof("ingested item %q (created=%v)", item.ID, created)
	return item, created, nil
}

// merge walks candidates in the order received. Candidates at or before the
// high-water mark are skipped unless this is a first ever sync. A candidate
// whose externalId is already stored updates the record in place and is never
// counted as new; the rest are classified, normalized and staged.
func (e *Engine) merge(st *model.Store, provider string, candidates []*source.Candidate, since time.Time) ([]*model.CatalogItem, int) {
	index := make(map[string]*model.CatalogItem, len(st.Items))
	for _, item := range st.Items {
		index[item.ExternalID] = item
	}

	var (
		staged  []*model.CatalogItem
		updated int
	)

	for _, cand := range candidates {
		if !since.IsZero() && !cand.PublishedAt.After(since) {
			continue
		}

		if existing, ok := index[cand.ExternalID]; ok {
			applyUpdate(existing, cand)
			updated++
			continue
		}

		item := e.normalize(provider, cand)
		staged = append(staged, item)
		index[item.ExternalID] = item
	}

	return staged, updated
}

func (e *Engine) normalize(provider string, cand *source.Candidate) *model.CatalogItem {
	category := cand.Category
	if category == "" {
		category = e.classifier.Classify(cand.Title, cand.Description)
	}

	item := &model.CatalogItem{
		ID:          fmt.Sprintf("%s-%s", provider, cand.ExternalID),
		ExternalID:  cand.ExternalID,
		Title:       cand.Title,
		Description: cand.Description,
		Category:    category,
		PublishedAt: cand.PublishedAt,
	}

	for key, value := range cand.Extra {
		item.Extra = ensure(item.Extra)
		item.Extra[key] = value
	}

	return item
}

// applyUpdate overwrites an existing record's source fields in place. The
// category stays as assigned at ingestion and the item keeps its position.
func applyUpdate(item *model.CatalogItem, cand *source.Candidate) {
	item.Title = cand.Title
	item.Description = cand.Description

	for key, value := range cand.Extra {
		item.Extra = ensure(item.Extra)
		item.Extra[key] = value
	}
}

func truncate(st *model.Store, keep int) {
	if keep <= 0 {
		keep = model.DefaultKeepLast
	}

	if len(st.Items) > keep {
		st.Items = st.Items[:keep]
	}
}

func findByExternalID(st *model.Store, externalID string) *model.CatalogItem {
	for _, item := range st.Items {
		if item.ExternalID == externalID {
			return item
		}
	}

	return nil
}

func ensure(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return map[string]json.RawMessage{}
	}

	return m
}
