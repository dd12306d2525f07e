package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oladoye/sitesync/pkg/chat"
	"github.com/oladoye/sitesync/pkg/config"
	"github.com/oladoye/sitesync/pkg/model"
	"github.com/oladoye/sitesync/pkg/notify"
	"github.com/oladoye/sitesync/pkg/source"
	syncengine "github.com/oladoye/sitesync/pkg/sync"
)

type fakeEngine struct {
	report   *syncengine.Report
	syncErr  error
	ingested *model.CatalogItem
	created  bool
	lastCand *source.Candidate
}

func (f *fakeEngine) Sync(_ context.Context, _ *config.Catalog) (*syncengine.Report, error) {
	return f.report, f.syncErr
}

func (f *fakeEngine) Ingest(_ context.Context, _ *config.Catalog, cand *source.Candidate) (*model.CatalogItem, bool, error) {
	f.lastCand = cand
	return f.ingested, f.created, nil
}

func (f *fakeEngine) Registered(provider string) bool {
	return provider == "youtube"
}

type fakeStorage struct {
	stores map[string]*model.Store
	err    error
}

func (f *fakeStorage) Load(name string) (*model.Store, error) {
	if f.err != nil {
		return nil, f.err
	}

	if st, ok := f.stores[name]; ok {
		return st, nil
	}

	return model.NewStore(""), nil
}

type fakeChat struct {
	answer string
	err    error
}

func (f *fakeChat) Answer(_ context.Context, _ string, _ []chat.Message) (string, error) {
	return f.answer, f.err
}

type fakeNotifier struct {
	last *notify.Submission
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, sub notify.Submission) error {
	f.last = &sub
	return f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Catalogs: map[string]*config.Catalog{
			"videos": {ID: "videos", Provider: "youtube", SourceID: "UC19PIBr", PageSize: 25, KeepLast: 100},
			"books":  {ID: "books", Provider: "selar", KeepLast: 100, Author: "Faithjesus Oladoye"},
		},
	}
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func parse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandler_Catalog(t *testing.T) {
	st := model.NewStore("UC19PIBr")
	st.LastSyncedAt = time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	st.Items = []*model.CatalogItem{
		{ID: "youtube-a", ExternalID: "a", Category: model.CategorySermons, PublishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "youtube-b", ExternalID: "b", Category: model.CategoryWorship, PublishedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	}

	h := New(testConfig(), &fakeEngine{}, &fakeStorage{stores: map[string]*model.Store{"videos": st}}, nil, nil, Opts{})

	w := do(h, http.MethodGet, "/api/catalog/videos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := parse(t, w)
	assert.EqualValues(t, 2, out["count"])
	assert.EqualValues(t, 2, out["totalCount"])
	assert.NotNil(t, out["lastSyncedAt"])

	items := out["items"].([]interface{})
	first := items[0].(map[string]interface{})
	assert.Equal(t, "youtube-b", first["id"])

	// Category filter
	w = do(h, http.MethodGet, "/api/catalog/videos?category=sermons", "", nil)
	out = parse(t, w)
	assert.EqualValues(t, 1, out["count"])
	assert.EqualValues(t, 2, out["totalCount"])

	// Bad limit is ignored, not an error
	w = do(h, http.MethodGet, "/api/catalog/videos?limit=banana", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out = parse(t, w)
	assert.EqualValues(t, 2, out["count"])
}

func TestHandler_CatalogNotFound(t *testing.T) {
	h := New(testConfig(), &fakeEngine{}, &fakeStorage{}, nil, nil, Opts{})

	w := do(h, http.MethodGet, "/api/catalog/podcasts", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", parse(t, w)["error"])
}

func TestHandler_CatalogCorrupt(t *testing.T) {
	storage := &fakeStorage{err: errors.Wrap(model.ErrCorruptStore, "bad file")}
	h := New(testConfig(), &fakeEngine{}, storage, nil, nil, Opts{})

	w := do(h, http.MethodGet, "/api/catalog/videos", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "corrupt_store", parse(t, w)["error"])
}

func TestHandler_TriggerSync(t *testing.T) {
	engine := &fakeEngine{report: &syncengine.Report{NewItems: 3, TotalItems: 10}}
	h := New(testConfig(), engine, &fakeStorage{}, nil, nil, Opts{})

	w := do(h, http.MethodPost, "/api/sync/videos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := parse(t, w)
	report := out["report"].(map[string]interface{})
	assert.EqualValues(t, 3, report["newItems"])
	assert.EqualValues(t, 10, report["totalItems"])
}

func TestHandler_TriggerSyncUpstreamDown(t *testing.T) {
	engine := &fakeEngine{syncErr: errors.Wrap(model.ErrSourceUnavailable, "search failed")}
	h := New(testConfig(), engine, &fakeStorage{}, nil, nil, Opts{})

	w := do(h, http.MethodPost, "/api/sync/videos", "", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "source_unavailable", parse(t, w)["error"])
}

func TestHandler_SyncStatus(t *testing.T) {
	h := New(testConfig(), &fakeEngine{}, &fakeStorage{}, nil, nil, Opts{})

	w := do(h, http.MethodGet, "/api/sync/videos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := parse(t, w)
	assert.Equal(t, "UC19PIBr", out["sourceId"])
	assert.Equal(t, true, out["pollingEnabled"])
	assert.Nil(t, out["lastSyncedAt"])
}

func TestHandler_Chat(t *testing.T) {
	h := New(testConfig(), &fakeEngine{}, &fakeStorage{}, &fakeChat{answer: "Peace be with you"}, nil, Opts{})

	w := do(h, http.MethodPost, "/api/chat", `{"message": "hello"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Peace be with you", parse(t, w)["response"])

	w = do(h, http.MethodPost, "/api/chat", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", parse(t, w)["error"])
}

func TestHandler_ChatNotConfigured(t *testing.T) {
	h := New(testConfig(), &fakeEngine{}, &fakeStorage{}, nil, nil, Opts{})

	w := do(h, http.MethodPost, "/api/chat", `{"message": "hello"}`, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "configuration_missing", parse(t, w)["error"])
}

func TestHandler_Contact(t *testing.T) {
	relay := &fakeNotifier{}
	h := New(testConfig(), &fakeEngine{}, &fakeStorage{}, nil, relay, Opts{})

	w := do(h, http.MethodPost, "/api/contact", `{"name": "Ada", "email": "ada@example.com", "message": "hi"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, relay.last)
	assert.Equal(t, "Ada", relay.last.Name)

	w = do(h, http.MethodPost, "/api/contact", `{"name": "Ada"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", parse(t, w)["error"])
}

func TestHandler_CORSPreflight(t *testing.T) {
	h := New(testConfig(), &fakeEngine{}, &fakeStorage{}, nil, nil, Opts{})

	w := do(h, http.MethodOptions, "/api/catalog/videos", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
