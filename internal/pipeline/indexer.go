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
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dmdm/stoma-go/internal/catalog"
	"github.com/dmdm/stoma-go/internal/metrics"
	"github.com/dmdm/stoma-go/internal/search"
)

// Indexer publishes need_indexing items to the search service and
// removes need_deletion items from it. A save pass always runs before
// the delete pass, matching the source's Indexer.index() ordering.
type Indexer struct {
	store   *catalog.Store
	search  search.Client
	retryer *Retryer
	index   string
	kind    string
	workers int64
	metrics *metrics.Metrics
}

func NewIndexer(store *catalog.Store, client search.Client, retryer *Retryer, index, kind string, workers int, m *metrics.Metrics) *Indexer {
	if workers <= 0 {
		workers = 1
	}
	return &Indexer{store: store, search: client, retryer: retryer, index: index, kind: kind, workers: int64(workers), metrics: m}
}

// IndexStats reports how many documents each pass touched.
type IndexStats struct {
	Saved        int
	SaveFailed   int
	Deleted      int
	DeleteFailed int
}

// Index requires the search service to be reachable before it starts:
// the source implementation treats an unreachable cluster as fatal
// rather than silently leaving every item claimed and half-processed.
func (ix *Indexer) Index(ctx context.Context) (IndexStats, error) {
	if !ix.search.Liveness(ctx) {
		return IndexStats{}, fmt.Errorf("search service is not reachable")
	}

	var stats IndexStats

	savedOK, saveFailed, err := ix.runPass(ctx, catalog.StateNeedIndexing, catalog.StateIndexing, ix.saveOne)
	if err != nil {
		return stats, err
	}
	stats.Saved, stats.SaveFailed = savedOK, saveFailed

	deletedOK, deleteFailed, err := ix.runPass(ctx, catalog.StateNeedDeletion, catalog.StateIndexing, ix.deleteOne)
	if err != nil {
		return stats, err
	}
	stats.Deleted, stats.DeleteFailed = deletedOK, deleteFailed

	return stats, nil
}

func (ix *Indexer) runPass(ctx context.Context, from, claiming catalog.State, work func(context.Context, string) bool) (int, int, error) {
	paths, err := ix.pendingPaths(ctx, from)
	if err != nil {
		return 0, 0, err
	}

	sem := semaphore.NewWeighted(ix.workers)
	results := make(chan bool, len(paths))

	for _, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			return 0, 0, NewCatalogError("index", err)
		}
		go func(path string) {
			defer sem.Release(1)
			results <- work(ctx, path)
		}(path)
	}

	if err := sem.Acquire(ctx, ix.workers); err != nil {
		return 0, 0, NewCatalogError("index", err)
	}
	close(results)

	var ok, failed int
	for r := range results {
		if r {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed, nil
}

func (ix *Indexer) pendingPaths(ctx context.Context, state catalog.State) ([]string, error) {
	tx, err := ix.store.Begin(ctx)
	if err != nil {
		return nil, NewCatalogError("begin", err)
	}
	defer tx.Abort()

	return tx.PathsInState(ctx, state)
}

func (ix *Indexer) saveOne(ctx context.Context, path string) bool {
	started := time.Now()
	slog.Debug("indexing", "path", path)

	item, ok, err := ix.claim(ctx, path, catalog.StateNeedIndexing, catalog.StateIndexing)
	if err != nil {
		slog.Warn("claim failed", "path", path, "error", err)
		ix.record("save", false, started)
		return false
	}
	if !ok {
		return true
	}

	doc := &search.Document{
		Path:     item.Path,
		Tags:     strings.Split(item.Path, string(filepath.Separator)),
		MimeType: item.MimeType,
		Encoding: item.Encoding,
		Language: item.Language,
		Size:     item.Size,
		Ctime:    item.ItemCtime.Unix(),
		Mtime:    item.ItemMtime.Unix(),
		Meta:     item.MetaJSON,
		Text:     item.DataText,
	}

	var result *search.SaveResult
	err = ix.retryer.Do(ctx, "search.save", func() error {
		r, err := ix.search.Save(ctx, ix.index, ix.kind, item.SearchID, doc)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		slog.Error("search save failed", "path", path, "error", err)
		// Hand the row back to the save queue for the next run.
		ix.claim(context.WithoutCancel(ctx), path, catalog.StateIndexing, catalog.StateNeedIndexing)
		ix.record("save", false, started)
		return false
	}

	id := item.SearchID
	if id == "" {
		id = result.ID
	}

	if err := ix.finishSave(ctx, path, id, result.Version); err != nil {
		slog.Error("save index result failed", "path", path, "error", err)
		ix.claim(context.WithoutCancel(ctx), path, catalog.StateIndexing, catalog.StateNeedIndexing)
		ix.record("save", false, started)
		return false
	}

	ix.record("save", true, started)
	return true
}

func (ix *Indexer) deleteOne(ctx context.Context, path string) bool {
	started := time.Now()
	slog.Debug("removing from index", "path", path)

	item, ok, err := ix.claim(ctx, path, catalog.StateNeedDeletion, catalog.StateIndexing)
	if err != nil {
		slog.Warn("claim failed", "path", path, "error", err)
		ix.record("delete", false, started)
		return false
	}
	if !ok {
		return true
	}

	err = ix.retryer.Do(ctx, "search.delete", func() error {
		existed, err := ix.search.Delete(ctx, ix.index, ix.kind, item.SearchID)
		if err != nil {
			return err
		}
		if !existed {
			slog.Warn("document already absent from search index", "path", path, "search_id", item.SearchID)
		}
		return nil
	})
	if err != nil {
		slog.Error("search delete failed", "path", path, "error", err)
		// Hand the row back to the delete queue for the next run.
		ix.claim(context.WithoutCancel(ctx), path, catalog.StateIndexing, catalog.StateNeedDeletion)
		ix.record("delete", false, started)
		return false
	}

	if err := ix.finishDelete(ctx, path); err != nil {
		slog.Error("save delete result failed", "path", path, "error", err)
		ix.claim(context.WithoutCancel(ctx), path, catalog.StateIndexing, catalog.StateNeedDeletion)
		ix.record("delete", false, started)
		return false
	}

	ix.record("delete", true, started)
	return true
}

func (ix *Indexer) claim(ctx context.Context, path string, from, to catalog.State) (*catalog.Item, bool, error) {
	tx, err := ix.store.Begin(ctx)
	if err != nil {
		return nil, false, err
	}

	item, err := tx.Claim(ctx, path, from, to)
	if err != nil {
		tx.Abort()
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (ix *Indexer) finishSave(ctx context.Context, path, searchID string, version int64) error {
	tx, err := ix.store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := tx.SaveIndexResult(ctx, path, searchID, version); err != nil {
		tx.Abort()
		return err
	}
	return tx.Commit()
}

func (ix *Indexer) finishDelete(ctx context.Context, path string) error {
	tx, err := ix.store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := tx.SaveDeleteResult(ctx, path); err != nil {
		tx.Abort()
		return err
	}
	return tx.Commit()
}

func (ix *Indexer) record(operation string, ok bool, started time.Time) {
	if ix.metrics == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	ix.metrics.IndexerRunsTotal.WithLabelValues(operation, outcome).Inc()
	ix.metrics.IndexerDuration.Observe(time.Since(started).Seconds())
}
