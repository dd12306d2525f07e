package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oladoye/sitesync/pkg/model"
)

func day(n int) time.Time {
	return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC)
}

func testStore() *model.Store {
	st := model.NewStore("UC19PIBr")

	// Insertion order deliberately differs from publishedAt order
	st.Items = []*model.CatalogItem{
		{ID: "youtube-b", ExternalID: "b", Category: model.CategorySermons, PublishedAt: day(5)},
		{ID: "youtube-d", ExternalID: "d", Category: model.CategoryWorship, PublishedAt: day(20)},
		{ID: "youtube-a", ExternalID: "a", Category: model.CategorySermons, PublishedAt: day(1)},
		{ID: "youtube-c", ExternalID: "c", Category: model.CategoryTeachings, PublishedAt: day(10)},
	}

	return st
}

func TestSelect_SortsByPublishedAtDescending(t *testing.T) {
	items := Select(testStore(), Options{})

	require.Len(t, items, 4)
	assert.Equal(t, "youtube-d", items[0].ID)
	assert.Equal(t, "youtube-c", items[1].ID)
	assert.Equal(t, "youtube-b", items[2].ID)
	assert.Equal(t, "youtube-a", items[3].ID)
}

func TestSelect_CategoryFilter(t *testing.T) {
	items := Select(testStore(), Options{Category: "sermons"})

	require.Len(t, items, 2)
	assert.Equal(t, "youtube-b", items[0].ID)
	assert.Equal(t, "youtube-a", items[1].ID)

	// "all" is a sentinel, not a category
	assert.Len(t, Select(testStore(), Options{Category: CategoryAll}), 4)

	// No matches is a valid, empty answer
	assert.Empty(t, Select(testStore(), Options{Category: "unknown"}))
}

func TestSelect_Limit(t *testing.T) {
	items := Select(testStore(), Options{Limit: 2})
	require.Len(t, items, 2)
	assert.Equal(t, "youtube-d", items[0].ID)

	// Non-positive limits are ignored
	assert.Len(t, Select(testStore(), Options{Limit: 0}), 4)
	assert.Len(t, Select(testStore(), Options{Limit: -3}), 4)

	// A limit beyond the result size returns everything
	assert.Len(t, Select(testStore(), Options{Limit: 50}), 4)
}

func TestSelect_DoesNotMutateStore(t *testing.T) {
	st := testStore()
	_ = Select(st, Options{Category: "sermons", Limit: 1})

	require.Len(t, st.Items, 4)
	assert.Equal(t, "youtube-b", st.Items[0].ID)
}

func TestSelect_EmptyStore(t *testing.T) {
	assert.Empty(t, Select(model.NewStore("x"), Options{}))
}
