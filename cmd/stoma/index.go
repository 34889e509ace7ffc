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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmdm/stoma-go/internal/catalog"
	"github.com/dmdm/stoma-go/internal/extract"
	"github.com/dmdm/stoma-go/internal/httpclient"
	"github.com/dmdm/stoma-go/internal/metrics"
	"github.com/dmdm/stoma-go/internal/pipeline"
	"github.com/dmdm/stoma-go/internal/search"
)

// IndexCmd walks a directory, analyses whatever changed, and publishes
// it to the search service, in that order.
type IndexCmd struct {
	StartDir string `arg:"" name:"start-dir" help:"Directory to index." type:"path"`
}

func (c *IndexCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	store := catalog.NewStore(db, cfg.Database.Dialect())

	m := metrics.NewMetrics()
	if cfg.Metrics.Addr != "" {
		go func() {
			slog.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, m.Handler()); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	retryCfg := pipeline.RetryConfigFromConfig(cfg.Retry)
	retryer := pipeline.NewRetryer(retryCfg)

	extractor := extract.NewTikaClient(cfg.Extraction.BaseURL, httpclient.WithTimeout(cfg.Extraction.Timeout))
	searchClient := search.NewESClient(cfg.Search.BaseURL, httpclient.WithTimeout(cfg.Search.Timeout))

	ctx := context.Background()

	walker := pipeline.NewWalker(store, m, cfg.Walker.Excludes...)
	walkStats, err := walker.Walk(ctx, c.StartDir)
	if err != nil {
		return fmt.Errorf("walk: %w", err)
	}
	slog.Info("walk done", "new", walkStats.New, "updated", walkStats.Updated,
		"deleted", walkStats.Deleted, "unchanged", walkStats.Unchanged)

	analyser := pipeline.NewAnalyser(store, extractor, retryer, cfg.Walker.Workers, m)
	analyseStats, err := analyser.Analyse(ctx)
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}
	slog.Info("analysis done", "ok", analyseStats.OK, "failed", analyseStats.Failed)

	indexer := pipeline.NewIndexer(store, searchClient, retryer, cfg.Search.Index, cfg.Search.Kind, cfg.Walker.Workers, m)
	indexStats, err := indexer.Index(ctx)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	slog.Info("indexing done", "saved", indexStats.Saved, "save_failed", indexStats.SaveFailed,
		"deleted", indexStats.Deleted, "delete_failed", indexStats.DeleteFailed)

	return nil
}
