// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmdm/stoma-go/internal/catalog"
	"github.com/dmdm/stoma-go/internal/search"
)

// fakeSearch is a stand-in for the Elasticsearch-style search service.
type fakeSearch struct {
	mu       sync.Mutex
	alive    bool
	docs     map[string]*search.Document
	nextID   int
	deletes  []string
	versions map[string]int64
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{alive: true, docs: map[string]*search.Document{}, versions: map[string]int64{}}
}

func (f *fakeSearch) Liveness(ctx context.Context) bool { return f.alive }

func (f *fakeSearch) Save(ctx context.Context, index, kind, id string, doc *search.Document) (*search.SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "" {
		f.nextID++
		id = "generated-" + string(rune('0'+f.nextID))
	}
	f.versions[id]++
	f.docs[id] = doc
	return &search.SaveResult{ID: id, Version: f.versions[id]}, nil
}

func (f *fakeSearch) Delete(ctx context.Context, index, kind, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	_, existed := f.docs[id]
	delete(f.docs, id)
	return existed, nil
}

func (f *fakeSearch) Exists(ctx context.Context, index, kind, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[id]
	return ok, nil
}

func (f *fakeSearch) Search(ctx context.Context, index, kind string, query interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (f *fakeSearch) Count(ctx context.Context, index string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.docs)), nil
}

func (f *fakeSearch) CreateIndex(ctx context.Context, index string, settings interface{}) error {
	return nil
}

func (f *fakeSearch) DeleteIndex(ctx context.Context, index string) error { return nil }

func TestIndexer_SavePass_AssignsSearchID(t *testing.T) {
	store := newTestStoreForWalk(t)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.BulkInsert(ctx, []catalog.NewEntry{
		{Path: "/r/a.txt", MimeType: "text/plain", ItemMtime: 1},
	}))
	require.NoError(t, tx.Commit())
	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SaveAnalysis(ctx, "/r/a.txt", "text/plain", "en", nil, "hello"))
	require.NoError(t, tx.Commit())

	client := newFakeSearch()
	ix := NewIndexer(store, client, testRetryer(), "files", "file", 2, nil)
	stats, err := ix.Index(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Saved)
	require.Equal(t, 0, stats.SaveFailed)

	require.Equal(t, catalog.StateIndexed, knownState(t, store, "/r", "/r/a.txt"))
}

func TestIndexer_DeletePass_RemovesFromSearch(t *testing.T) {
	store := newTestStoreForWalk(t)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.BulkInsert(ctx, []catalog.NewEntry{
		{Path: "/r/a.txt", MimeType: "text/plain", ItemMtime: 1},
	}))
	require.NoError(t, tx.Commit())
	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SaveIndexResult(ctx, "/r/a.txt", "es-id-1", 1))
	require.NoError(t, tx.Commit())
	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.BulkSetStateWherePathIn(ctx, []string{"/r/a.txt"}, catalog.StateNeedDeletion))
	require.NoError(t, tx.Commit())

	client := newFakeSearch()
	client.docs["es-id-1"] = &search.Document{Path: "/r/a.txt"}

	ix := NewIndexer(store, client, testRetryer(), "files", "file", 1, nil)
	stats, err := ix.Index(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Deleted)
	require.Contains(t, client.deletes, "es-id-1")

	require.Equal(t, catalog.StateDeleted, knownState(t, store, "/r", "/r/a.txt"))
}

func TestIndexer_RefusesWhenSearchUnreachable(t *testing.T) {
	store := newTestStoreForWalk(t)
	client := newFakeSearch()
	client.alive = false

	ix := NewIndexer(store, client, testRetryer(), "files", "file", 1, nil)
	_, err := ix.Index(context.Background())
	require.Error(t, err)
}

func TestIndexer_SearchIDStability_AcrossReindex(t *testing.T) {
	store := newTestStoreForWalk(t)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.BulkInsert(ctx, []catalog.NewEntry{
		{Path: "/r/a.txt", MimeType: "text/plain", ItemMtime: 1},
	}))
	require.NoError(t, tx.Commit())
	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SaveAnalysis(ctx, "/r/a.txt", "text/plain", "en", nil, "hello"))
	require.NoError(t, tx.Commit())

	client := newFakeSearch()
	ix := NewIndexer(store, client, testRetryer(), "files", "file", 1, nil)
	_, err = ix.Index(ctx)
	require.NoError(t, err)

	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	known, err := tx.ScanUnder(ctx, "/r")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.Equal(t, catalog.StateIndexed, known["/r/a.txt"].State)

	// Re-run need_analysis -> need_indexing -> index again; the same
	// search_id must be reused rather than a new one assigned.
	tx, err = store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetState(ctx, "/r/a.txt", catalog.StateNeedIndexing))
	require.NoError(t, tx.Commit())

	_, err = ix.Index(ctx)
	require.NoError(t, err)

	require.Len(t, client.docs, 1)
	for id, v := range client.versions {
		require.Equal(t, int64(2), v, "expected version to increment for id %s", id)
	}
}
