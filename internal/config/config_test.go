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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig_SetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Database = "stoma.db"
	cfg.Extraction.BaseURL = "http://tika:9998"
	cfg.Search.BaseURL = "http://es:9200"

	cfg.SetDefaults()

	require.Equal(t, "files", cfg.Search.Index)
	require.Equal(t, "file", cfg.Search.Kind)
	require.Equal(t, 30*time.Second, cfg.Search.Timeout)
	require.Equal(t, 30*time.Second, cfg.Extraction.Timeout)
	require.Equal(t, 3, cfg.Retry.MaxRetries)
	require.Equal(t, time.Second, cfg.Retry.BaseDelay)
	require.Equal(t, 4, cfg.Walker.Workers)
	require.Equal(t, "en", cfg.Locale)
}

func TestConfig_Validate_RequiresBaseURLs(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Database = "stoma.db"
	cfg.SetDefaults()

	err := cfg.Validate()
	require.Error(t, err)
}

func TestConfig_Validate_OK(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Database = "stoma.db"
	cfg.Extraction.BaseURL = "http://tika:9998"
	cfg.Search.BaseURL = "http://es:9200"
	cfg.SetDefaults()

	require.NoError(t, cfg.Validate())
}

func TestProcessConfigPipeline(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Database = "stoma.db"
	cfg.Extraction.BaseURL = "http://tika:9998"
	cfg.Search.BaseURL = "http://es:9200"

	out, err := ProcessConfigPipeline(cfg)
	require.NoError(t, err)
	require.Equal(t, "files", out.Search.Index)
}
