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
	"database/sql"
	"fmt"

	"github.com/dmdm/stoma-go/internal/catalog"
	"github.com/dmdm/stoma-go/internal/config"
)

// loadConfig reads the config file named by the global --config flag,
// expanding environment variables and applying defaults.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load .env files: %w", err)
	}

	cfg, err := config.LoadConfig(config.LoaderOptions{
		Type: config.ConfigTypeFile,
		Path: path,
	})
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// openDB opens (and pings) the catalog's database connection for cfg.
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := catalog.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
