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

// DatabaseConfig describes the catalog's backing SQL database. The
// catalog itself is dialect-agnostic (see internal/catalog's
// dialect-aware placeholder generation) and runs against postgres,
// mysql or sqlite.
type DatabaseConfig struct {
	// Driver selects the backing database: "postgres", "mysql", "sqlite"
	// or "sqlite3" (accepted as a synonym for "sqlite").
	Driver string `yaml:"driver"`

	// Host/Port address the server; unused for sqlite, where Database is
	// a file path instead of a database name.
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	Database string `yaml:"database"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// SSLMode applies to postgres only.
	SSLMode string `yaml:"ssl_mode,omitempty"`

	// MaxConns/MaxIdle size the connection pool. Ignored for sqlite,
	// which catalog.Open always pins to a single connection.
	MaxConns int `yaml:"max_conns,omitempty"`
	MaxIdle  int `yaml:"max_idle,omitempty"`
}

var defaultPortByDriver = map[string]int{
	"postgres": 5432,
	"mysql":    3306,
}

func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 25
	}
	if c.MaxIdle == 0 {
		c.MaxIdle = 5
	}
	if c.Port == 0 {
		c.Port = defaultPortByDriver[c.Driver]
	}
	if c.Driver == "postgres" && c.SSLMode == "" {
		c.SSLMode = "disable"
	}
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("driver is required")
	}
	if c.normalizedDriver() == "" {
		return fmt.Errorf("invalid driver %q (valid: postgres, mysql, sqlite)", c.Driver)
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if !c.isSQLite() && c.Host == "" {
		return fmt.Errorf("host is required for %s", c.Driver)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("max_conns must be non-negative")
	}
	if c.MaxIdle < 0 {
		return fmt.Errorf("max_idle must be non-negative")
	}
	return nil
}

func (c *DatabaseConfig) isSQLite() bool {
	return c.Driver == "sqlite" || c.Driver == "sqlite3"
}

// normalizedDriver maps the accepted Driver spellings onto the three
// dialects the catalog actually builds queries for, or "" if Driver
// isn't one of them. DriverName and Dialect each derive their answer
// from this single table instead of repeating the sqlite/sqlite3
// special-case.
func (c *DatabaseConfig) normalizedDriver() string {
	switch c.Driver {
	case "postgres", "mysql":
		return c.Driver
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return ""
	}
}

// DriverName is the name sql.Open expects, which for sqlite is the
// go-sqlite3 driver's registered name rather than the dialect name used
// for query building.
func (c *DatabaseConfig) DriverName() string {
	if c.normalizedDriver() == "sqlite" {
		return "sqlite3"
	}
	return c.Driver
}

// Dialect is the name catalog's placeholder generation and DDL branch
// on: "postgres", "mysql" or "sqlite".
func (c *DatabaseConfig) Dialect() string {
	return c.normalizedDriver()
}

// DSN builds the connection string sql.Open needs for the configured
// driver.
func (c *DatabaseConfig) DSN() string {
	switch {
	case c.Driver == "postgres":
		dsn := fmt.Sprintf("host=%s port=%d dbname=%s", c.Host, c.Port, c.Database)
		if c.Username != "" {
			dsn += fmt.Sprintf(" user=%s", c.Username)
		}
		if c.Password != "" {
			dsn += fmt.Sprintf(" password=%s", c.Password)
		}
		if c.SSLMode != "" {
			dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
		}
		return dsn
	case c.Driver == "mysql":
		if c.Username != "" {
			return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.Username, c.Password, c.Host, c.Port, c.Database)
		}
		return fmt.Sprintf("tcp(%s:%d)/%s", c.Host, c.Port, c.Database)
	case c.isSQLite():
		return c.Database
	default:
		return ""
	}
}
