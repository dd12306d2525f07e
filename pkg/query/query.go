// Package query is the read side of the catalog stores.
package query

import (
	"sort"

	"github.com/oladoye/sitesync/pkg/model"
)

// CategoryAll is the sentinel that disables category filtering
const CategoryAll = "all"

type Options struct {
	// Category restricts results to an exact category match.
	// Empty or "all" returns everything.
	Category string
	// Limit truncates the result when positive; other values are ignored
	Limit int
}

// Select returns the store's items sorted by publishedAt descending. Storage
// order is insertion order, which can differ when older items are discovered
// late, so the sort is recomputed on every query. The store is never mutated.
func Select(st *model.Store, opts Options) []*model.CatalogItem {
	items := make([]*model.CatalogItem, 0, len(st.Items))

	for _, item := range st.Items {
		if opts.Category != "" && opts.Category != CategoryAll && string(item.Category) != opts.Category {
			continue
		}

		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}

	return items
}
