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

	"github.com/dmdm/stoma-go/internal/catalog"
	"github.com/dmdm/stoma-go/internal/httpclient"
	"github.com/dmdm/stoma-go/internal/search"
)

// InitdbCmd creates the catalog's item table and, if the search service
// is reachable, its index.
type InitdbCmd struct{}

func (c *InitdbCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := catalog.CreateSchema(ctx, db, cfg.Database.Dialect()); err != nil {
		return fmt.Errorf("create catalog schema: %w", err)
	}
	slog.Info("catalog schema ready", "driver", cfg.Database.Dialect())

	client := search.NewESClient(cfg.Search.BaseURL, httpclient.WithTimeout(cfg.Search.Timeout))
	if !client.Liveness(ctx) {
		slog.Warn("search service unreachable, skipping index creation", "base_url", cfg.Search.BaseURL)
		return nil
	}
	if err := client.CreateIndex(ctx, cfg.Search.Index, nil); err != nil {
		return fmt.Errorf("create search index: %w", err)
	}
	slog.Info("search index ready", "index", cfg.Search.Index)
	return nil
}
