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

package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates the item table and its supporting index. It is
// idempotent: re-running initdb against an already-initialized catalog
// is a no-op rather than an error.
func CreateSchema(ctx context.Context, db *sql.DB, dialect string) error {
	var textType, jsonType, bigintType string
	switch dialect {
	case "postgres":
		textType, jsonType, bigintType = "TEXT", "TEXT", "BIGINT"
	case "mysql":
		textType, jsonType, bigintType = "TEXT", "TEXT", "BIGINT"
	default: // sqlite
		textType, jsonType, bigintType = "TEXT", "TEXT", "INTEGER"
	}

	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS item (
	path           %s PRIMARY KEY,
	state          %s NOT NULL,
	mime_type      %s,
	encoding       %s,
	language       %s,
	size           %s NOT NULL DEFAULT 0,
	item_ctime     %s,
	item_mtime     %s,
	os_stat        %s,
	meta_json      %s,
	data_text      %s,
	search_id      %s,
	search_version %s
)`, textType, textType, textType, textType, textType, bigintType,
		bigintType, bigintType, jsonType, jsonType, textType, textType, bigintType)

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create item table: %w", err)
	}

	idx := `CREATE INDEX IF NOT EXISTS item_state_idx ON item (state)`
	if _, err := db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("create item_state_idx: %w", err)
	}

	return nil
}

// DropSchema removes the item table, losing every tracked path. Used by
// the "drop" CLI subcommand.
func DropSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS item`); err != nil {
		return fmt.Errorf("drop item table: %w", err)
	}
	return nil
}
