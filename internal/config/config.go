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
	"fmt"
	"time"
)

// ExtractionConfig points at the content-extraction service (Tika-like).
type ExtractionConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

func (c *ExtractionConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

func (c *ExtractionConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("extraction.base_url is required")
	}
	return nil
}

// SearchConfig points at the full-text search service (Elasticsearch-like).
type SearchConfig struct {
	BaseURL string        `yaml:"base_url"`
	Index   string        `yaml:"index,omitempty"`
	Kind    string        `yaml:"kind,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

func (c *SearchConfig) SetDefaults() {
	if c.Index == "" {
		c.Index = "files"
	}
	if c.Kind == "" {
		c.Kind = "file"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

func (c *SearchConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}
	return nil
}

// RetryConfig tunes the bounded exponential backoff shared by the
// extraction and search HTTP clients.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries,omitempty"`
	BaseDelay    time.Duration `yaml:"base_delay,omitempty"`
	MaxDelay     time.Duration `yaml:"max_delay,omitempty"`
	JitterFactor float64       `yaml:"jitter_factor,omitempty"`
}

func (c *RetryConfig) SetDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.JitterFactor == 0 {
		c.JitterFactor = 0.1
	}
}

// WalkerConfig controls which paths the walker descends into.
type WalkerConfig struct {
	Excludes []string `yaml:"excludes,omitempty"`
	Workers  int      `yaml:"workers,omitempty"`
}

func (c *WalkerConfig) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = 4
	}
}

// MetricsConfig controls the optional Prometheus exposition endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Config is the top-level configuration for the indexing pipeline,
// assembled from a config source and environment variables by Loader.
type Config struct {
	Database   DatabaseConfig    `yaml:"database"`
	Logger     LoggerConfig      `yaml:"logger"`
	Extraction ExtractionConfig  `yaml:"extraction"`
	Search     SearchConfig      `yaml:"search"`
	Retry      RetryConfig       `yaml:"retry,omitempty"`
	Walker     WalkerConfig      `yaml:"walker,omitempty"`
	Metrics    MetricsConfig     `yaml:"metrics,omitempty"`
	Locale     string            `yaml:"locale,omitempty"`
}

func (c *Config) SetDefaults() {
	c.Database.SetDefaults()
	c.Logger.SetDefaults()
	c.Extraction.SetDefaults()
	c.Search.SetDefaults()
	c.Retry.SetDefaults()
	c.Walker.SetDefaults()
	if c.Locale == "" {
		c.Locale = "en"
	}
}

func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.Extraction.Validate(); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}

// ProcessConfigPipeline applies defaults then validates, mirroring the
// load -> default -> validate sequence every config source goes through
// regardless of whether it came from a file, consul, etcd or zookeeper.
func ProcessConfigPipeline(cfg *Config) (*Config, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
