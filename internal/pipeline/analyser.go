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
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dmdm/stoma-go/internal/catalog"
	"github.com/dmdm/stoma-go/internal/extract"
	"github.com/dmdm/stoma-go/internal/metrics"
)

// Analyser drains need_analysis items, claims each one, calls the
// extraction service for it, and leaves it need_indexing. Each item
// gets its own claim/extract/save transaction, so one failing path
// never blocks the ones after it in the path-ordered queue.
type Analyser struct {
	store     *catalog.Store
	extractor extract.Client
	retryer   *Retryer
	workers   int64
	metrics   *metrics.Metrics
}

func NewAnalyser(store *catalog.Store, extractor extract.Client, retryer *Retryer, workers int, m *metrics.Metrics) *Analyser {
	if workers <= 0 {
		workers = 1
	}
	return &Analyser{store: store, extractor: extractor, retryer: retryer, workers: int64(workers), metrics: m}
}

// AnalyseStats reports how many items the run touched.
type AnalyseStats struct {
	OK     int
	Failed int
}

// Analyse claims and extracts every item currently in need_analysis, up
// to Analyser.workers at a time.
func (a *Analyser) Analyse(ctx context.Context) (AnalyseStats, error) {
	paths, err := a.pendingPaths(ctx)
	if err != nil {
		return AnalyseStats{}, err
	}
	slog.Info("analysing", "count", len(paths))

	sem := semaphore.NewWeighted(a.workers)
	results := make(chan bool, len(paths))

	for _, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			return AnalyseStats{}, NewCatalogError("analyse", err)
		}
		go func(path string) {
			defer sem.Release(1)
			results <- a.analyseOne(ctx, path)
		}(path)
	}

	if err := sem.Acquire(ctx, a.workers); err != nil {
		return AnalyseStats{}, NewCatalogError("analyse", err)
	}
	close(results)

	var stats AnalyseStats
	for ok := range results {
		if ok {
			stats.OK++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}

func (a *Analyser) pendingPaths(ctx context.Context) ([]string, error) {
	tx, err := a.store.Begin(ctx)
	if err != nil {
		return nil, NewCatalogError("begin", err)
	}
	defer tx.Abort()

	paths, err := tx.PathsInState(ctx, catalog.StateNeedAnalysis)
	if err != nil {
		return nil, NewCatalogError("paths_in_state", err)
	}
	return paths, nil
}

// analyseOne claims path, extracts it, and stores the result, each in
// its own transaction. A failed extraction or save hands the row back
// from analysing to need_analysis for the next run to retry, instead of
// poisoning the whole batch.
func (a *Analyser) analyseOne(ctx context.Context, path string) bool {
	started := time.Now()

	claimed, err := a.claim(ctx, path)
	if err != nil {
		slog.Warn("claim failed", "path", path, "error", err)
		a.record(false, started)
		return false
	}
	if !claimed {
		// Another worker (or a concurrent run) already claimed this
		// path; not an error.
		return true
	}

	// release moves the claimed row from analysing back to need_analysis.
	release := func() {
		rctx := context.WithoutCancel(ctx)
		if tx, err := a.store.Begin(rctx); err == nil {
			if _, err := tx.Claim(rctx, path, catalog.StateAnalysing, catalog.StateNeedAnalysis); err != nil {
				tx.Abort()
			} else if err := tx.Commit(); err != nil {
				slog.Error("release claim failed", "path", path, "error", err)
			}
		}
	}

	var result *extract.Result
	extractErr := a.retryer.Do(ctx, "extract", func() error {
		r, err := a.extractor.Extract(ctx, path)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	if extractErr != nil {
		slog.Error("extraction failed", "path", path, "error", extractErr)
		release()
		a.record(false, started)
		return false
	}

	if err := a.save(ctx, path, result); err != nil {
		slog.Error("save analysis failed", "path", path, "error", err)
		release()
		a.record(false, started)
		return false
	}

	a.record(true, started)
	return true
}

func (a *Analyser) claim(ctx context.Context, path string) (bool, error) {
	tx, err := a.store.Begin(ctx)
	if err != nil {
		return false, err
	}

	_, err = tx.Claim(ctx, path, catalog.StateNeedAnalysis, catalog.StateAnalysing)
	if err != nil {
		tx.Abort()
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Analyser) save(ctx context.Context, path string, result *extract.Result) error {
	if !strings.Contains(result.MimeType, "/") {
		return NewValidationError("mime_type", fmt.Errorf("%q for %s has no '/'", result.MimeType, path))
	}

	tx, err := a.store.Begin(ctx)
	if err != nil {
		return err
	}

	meta := extract.ScrubMetaNUL(result.Meta)
	language := result.Language
	if meta != nil {
		if l, ok := meta["language"].(string); ok && l != "" {
			language = l
		}
	}

	err = tx.SaveAnalysis(ctx, path, result.MimeType, language, meta, extract.ScrubNUL(result.Text))
	if err != nil {
		tx.Abort()
		return err
	}
	return tx.Commit()
}

func (a *Analyser) record(ok bool, started time.Time) {
	if a.metrics == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	a.metrics.AnalyserRunsTotal.WithLabelValues(outcome).Inc()
	a.metrics.AnalyserDuration.Observe(time.Since(started).Seconds())
}
