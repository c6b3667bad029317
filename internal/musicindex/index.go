package musicindex

import (
	"context"
	"iter"

	"github.com/mikey-austin/socos/internal/ports"
)

// Index is the music index used by the console: rebuilds and counts go to
// the store, searches go through the cache.
type Index struct {
	store *Store
	cache *Cache
}

// New creates an index over store.
func New(store *Store) *Index {
	return &Index{store: store, cache: NewCache(store)}
}

// Rebuild re-indexes the catalog. Cached searches are kept.
func (i *Index) Rebuild(ctx context.Context, catalog ports.Catalog) iter.Seq2[string, error] {
	return i.store.Rebuild(ctx, catalog)
}

// Search finds indexed rows.
func (i *Index) Search(ctx context.Context, category, field, pattern string) ([]ports.IndexRecord, error) {
	return i.cache.Search(ctx, category, field, pattern)
}

// Counts reports rows per category.
func (i *Index) Counts(ctx context.Context) (map[string]int, error) {
	return i.store.Counts(ctx)
}

// Close closes the store.
func (i *Index) Close() error {
	return i.store.Close()
}
