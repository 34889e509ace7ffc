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

import "fmt"

// logLevels are the values internal/logger.ParseLevel accepts.
// "warning" is kept as a synonym for "warn" since it's what the
// original indexer's config files used.
var logLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// LoggerConfig holds the catalog run's logging knobs. cmd/stoma's CLI
// flags (--log-level, --log-file, --log-format) take these same names
// and the same defaults; a config file only matters for a caller that
// builds a Config without going through the CLI.
//
//	logger:
//	  level: info
//	  file: /var/log/stoma.log
//	  format: simple
type LoggerConfig struct {
	Level  string `yaml:"level,omitempty"`
	File   string `yaml:"file,omitempty"`
	Format string `yaml:"format,omitempty"`
}

func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

func (c *LoggerConfig) Validate() error {
	if c.Level != "" && !logLevels[c.Level] {
		return fmt.Errorf("logger: invalid level %q (valid: debug, info, warn, error)", c.Level)
	}
	// format is unvalidated: internal/logger.Init treats "" like
	// "simple", gives "json" a slog.JSONHandler, and falls back to its
	// default text output for any other value.
	return nil
}
