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

// Package pipeline implements the three-stage incremental indexing
// pipeline: the Walker reconciles the filesystem against the catalog,
// the Analyser extracts content for items the walker flagged, and the
// Indexer publishes or removes the corresponding search documents.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/dmdm/stoma-go/internal/catalog"
	"github.com/dmdm/stoma-go/internal/metrics"
	"github.com/dmdm/stoma-go/internal/mimeguess"
)

// collectedEntry is what the walker learns about a path by stat-ing it,
// before it is reconciled against the catalog.
type collectedEntry struct {
	ctime int64
	mtime int64
	size  int64
	stat  *catalog.OSStat
}

// WalkStats summarizes one Walk call, mirroring the source's "N new, N
// update, N delete, N unchanged" log line.
type WalkStats struct {
	New       int
	Updated   int
	Deleted   int
	Unchanged int
}

// Walker reconciles the filesystem under a root directory against the
// catalog: new paths are inserted need_analysis, changed paths are reset
// to need_analysis, and vanished paths are marked need_deletion.
type Walker struct {
	store    *catalog.Store
	metrics  *metrics.Metrics
	excludes []string
}

func NewWalker(store *catalog.Store, m *metrics.Metrics, excludes ...string) *Walker {
	return &Walker{store: store, metrics: m, excludes: excludes}
}

// Walk runs one full reconciliation pass under root inside a single
// transaction: either every classified change lands in the catalog, or
// none of them do.
func (w *Walker) Walk(ctx context.Context, root string) (WalkStats, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return WalkStats{}, NewValidationError("root", err)
	}

	slog.Debug("collecting", "root", root)
	found, err := collectItems(root, w.excludes)
	if err != nil {
		return WalkStats{}, NewFilesystemError(root, err)
	}
	slog.Info("collected items", "root", root, "count", len(found))

	tx, err := w.store.Begin(ctx)
	if err != nil {
		return WalkStats{}, NewCatalogError("begin", err)
	}

	stats, err := w.reconcile(ctx, tx, root, found)
	if err != nil {
		if abortErr := tx.Abort(); abortErr != nil {
			slog.Error("abort failed", "error", abortErr)
		}
		return WalkStats{}, err
	}

	if err := tx.Commit(); err != nil {
		return WalkStats{}, NewCatalogError("commit", err)
	}

	if w.metrics != nil {
		w.metrics.WalkerPathsTotal.WithLabelValues("insert").Add(float64(stats.New))
		w.metrics.WalkerPathsTotal.WithLabelValues("update").Add(float64(stats.Updated))
		w.metrics.WalkerPathsTotal.WithLabelValues("delete").Add(float64(stats.Deleted))
		w.metrics.WalkerPathsTotal.WithLabelValues("noop").Add(float64(stats.Unchanged))
	}

	slog.Info("walk complete", "root", root, "new", stats.New, "updated", stats.Updated,
		"deleted", stats.Deleted, "unchanged", stats.Unchanged)
	return stats, nil
}

func (w *Walker) reconcile(ctx context.Context, tx *catalog.Tx, root string, found map[string]collectedEntry) (WalkStats, error) {
	known, err := tx.ScanUnder(ctx, root)
	if err != nil {
		return WalkStats{}, NewCatalogError("scan_under", err)
	}

	var stats WalkStats
	var inserts, updates []catalog.NewEntry

	for path, entry := range found {
		k, isKnown := known[path]
		switch {
		case !isKnown:
			mt, enc := mimeguess.Guess(path)
			inserts = append(inserts, newEntryFrom(path, mt, enc, entry))
			stats.New++
		case catalog.IsInProcess(k.State):
			// A concurrent analyser/indexer run owns this row right
			// now; leave it alone until it settles.
			stats.Unchanged++
		case k.Mtime != entry.mtime:
			mt, enc := mimeguess.Guess(path)
			updates = append(updates, newEntryFrom(path, mt, enc, entry))
			stats.Updated++
		default:
			stats.Unchanged++
		}
	}

	var deleted []string
	for path, k := range known {
		if _, stillThere := found[path]; !stillThere {
			if catalog.IsInProcess(k.State) {
				continue
			}
			deleted = append(deleted, path)
			stats.Deleted++
		}
	}
	sort.Strings(deleted)

	// 1. Assume everything under root is unchanged; steps 2-4 below
	// override exactly the rows that changed. InProcess rows are
	// excluded by BulkSetStateUnder itself.
	if err := tx.BulkSetStateUnder(ctx, root, catalog.StateUnchanged); err != nil {
		return WalkStats{}, NewCatalogError("bulk_set_state_under", err)
	}

	if len(inserts) > 0 {
		if err := tx.BulkInsert(ctx, inserts); err != nil {
			return WalkStats{}, NewCatalogError("bulk_insert", err)
		}
	}

	if len(updates) > 0 {
		if err := tx.BulkUpdateChanged(ctx, updates); err != nil {
			return WalkStats{}, NewCatalogError("bulk_update", err)
		}
	}

	// Deletes come from the classify step's own `deleted` slice, not a
	// re-derivation over `known`: re-deriving it by checking a map
	// entry for a nil value (as the source implementation did) never
	// matches anything in Go or Python, since a missing key simply
	// isn't iterated. Using the set the classify step already computed
	// sidesteps that dead branch entirely.
	if len(deleted) > 0 {
		if err := tx.BulkSetStateWherePathIn(ctx, deleted, catalog.StateNeedDeletion); err != nil {
			return WalkStats{}, NewCatalogError("bulk_set_state_where_path_in", err)
		}
	}

	return stats, nil
}

func newEntryFrom(path, mimeType, encoding string, entry collectedEntry) catalog.NewEntry {
	return catalog.NewEntry{
		Path:      path,
		MimeType:  mimeType,
		Encoding:  encoding,
		Size:      entry.size,
		ItemCtime: entry.ctime,
		ItemMtime: entry.mtime,
		Stat:      entry.stat,
	}
}

// collectItems walks root and stats every regular file found, without
// following symlinks -- a symlink loop must never turn into an infinite
// directory descent. Any path matching an entry in excludes (by prefix)
// is skipped entirely, directories included.
func collectItems(root string, excludes []string) (map[string]collectedEntry, error) {
	items := make(map[string]collectedEntry)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if isExcluded(path, excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		info, err := os.Lstat(path)
		if err != nil {
			slog.Warn("skipping path", "path", path, "error", err)
			return nil
		}
		items[path] = collectedEntry{
			ctime: statCtime(info),
			mtime: info.ModTime().Unix(),
			size:  info.Size(),
			stat:  toOSStat(info),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func isExcluded(path string, excludes []string) bool {
	for _, ex := range excludes {
		if ex == "" {
			continue
		}
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func toOSStat(info os.FileInfo) *catalog.OSStat {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return &catalog.OSStat{Mode: uint32(info.Mode()), Size: info.Size()}
	}
	return &catalog.OSStat{
		Mode:  uint32(sys.Mode),
		Ino:   sys.Ino,
		Dev:   uint64(sys.Dev),
		Nlink: uint64(sys.Nlink),
		Uid:   sys.Uid,
		Gid:   sys.Gid,
		Size:  info.Size(),
		Atime: sys.Atim.Sec,
		Mtime: sys.Mtim.Sec,
		Ctime: sys.Ctim.Sec,
	}
}

func statCtime(info os.FileInfo) int64 {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime().Unix()
	}
	return sys.Ctim.Sec
}
