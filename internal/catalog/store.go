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
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// KnownItem is the slice of an Item the walker needs to decide whether a
// path changed: its last recorded mtime and its current state.
type KnownItem struct {
	Mtime int64
	State State
}

// Store wraps a *sql.DB with the operations the pipeline stages need.
// Every mutating call must happen inside a Tx started with Begin: the
// walker opens one transaction per run, and the analyser and indexer one
// per claim and one per result, instead of auto-committing each statement.
type Store struct {
	db      *sql.DB
	dialect string
}

func NewStore(db *sql.DB, dialect string) *Store {
	return &Store{db: db, dialect: dialect}
}

// Tx is one begin/commit/abort boundary. All Store methods that touch
// the catalog table are pinned to a Tx so each transaction either fully
// applies its changes or leaves the catalog untouched.
type Tx struct {
	tx      *sql.Tx
	dialect string
}

func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, dialect: s.dialect}, nil
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Abort() error {
	return t.tx.Rollback()
}

// arg renders the n-th (1-based) bind parameter for the tx's dialect.
func (t *Tx) arg(n int) string {
	if t.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// rootPrefix builds the LIKE pattern for "everything under root",
// anchored on a trailing path separator so that a root of "/data/foo"
// never matches a sibling like "/data/foobar".
func rootPrefix(root string) string {
	root = strings.TrimRight(root, string(os.PathSeparator))
	return root + string(os.PathSeparator) + "%"
}

// ScanUnder loads the path, mtime and state of every catalog row under
// root, keyed by path. It is the database side of the walker's compare
// step; collectItems supplies the filesystem side.
func (t *Tx) ScanUnder(ctx context.Context, root string) (map[string]KnownItem, error) {
	query := fmt.Sprintf(
		`SELECT path, item_mtime, state FROM item WHERE path LIKE %s`, t.arg(1))
	rows, err := t.tx.QueryContext(ctx, query, rootPrefix(root))
	if err != nil {
		return nil, fmt.Errorf("scan under %s: %w", root, err)
	}
	defer rows.Close()

	known := make(map[string]KnownItem)
	for rows.Next() {
		var path string
		var mtime int64
		var state string
		if err := rows.Scan(&path, &mtime, &state); err != nil {
			return nil, fmt.Errorf("scan known item: %w", err)
		}
		known[path] = KnownItem{Mtime: mtime, State: State(state)}
	}
	return known, rows.Err()
}

// BulkSetStateUnder sets every row under root to newState, except rows
// currently claimed by the analyser or indexer (InProcessStates) -- a
// concurrent worker's in-flight claim must never be clobbered by a
// walker run that started before it and finishes after.
func (t *Tx) BulkSetStateUnder(ctx context.Context, root string, newState State) error {
	placeholders := make([]string, len(InProcessStates))
	args := []interface{}{string(newState), rootPrefix(root)}
	for i, s := range InProcessStates {
		placeholders[i] = t.arg(i + 3)
		args = append(args, string(s))
	}
	query := fmt.Sprintf(
		`UPDATE item SET state = %s WHERE path LIKE %s AND state NOT IN (%s)`,
		t.arg(1), t.arg(2), strings.Join(placeholders, ", "))
	_, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("bulk set state under %s: %w", root, err)
	}
	return nil
}

// NewEntry describes a path the walker found that the catalog didn't
// know about yet, or already knew about under a different mtime.
type NewEntry struct {
	Path      string
	MimeType  string
	Encoding  string
	Size      int64
	ItemCtime int64
	ItemMtime int64
	Stat      *OSStat
}

// BulkInsert adds rows for paths the catalog has never seen, all set to
// need_analysis.
func (t *Tx) BulkInsert(ctx context.Context, entries []NewEntry) error {
	for _, e := range entries {
		statJSON, err := json.Marshal(e.Stat)
		if err != nil {
			return fmt.Errorf("marshal stat for %s: %w", e.Path, err)
		}
		query := fmt.Sprintf(
			`INSERT INTO item (path, state, mime_type, encoding, size, item_ctime, item_mtime, os_stat)
			 VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
			t.arg(1), t.arg(2), t.arg(3), t.arg(4), t.arg(5), t.arg(6), t.arg(7), t.arg(8))
		_, err = t.tx.ExecContext(ctx, query,
			e.Path, string(StateNeedAnalysis), e.MimeType, e.Encoding, e.Size,
			e.ItemCtime, e.ItemMtime, string(statJSON))
		if err != nil {
			return fmt.Errorf("insert %s: %w", e.Path, err)
		}
	}
	return nil
}

// BulkUpdateChanged rewrites rows the walker found with a changed mtime,
// moving them back to need_analysis so the analyser picks them up again.
func (t *Tx) BulkUpdateChanged(ctx context.Context, entries []NewEntry) error {
	for _, e := range entries {
		statJSON, err := json.Marshal(e.Stat)
		if err != nil {
			return fmt.Errorf("marshal stat for %s: %w", e.Path, err)
		}
		query := fmt.Sprintf(
			`UPDATE item SET state = %s, mime_type = %s, encoding = %s, size = %s,
			 item_ctime = %s, item_mtime = %s, os_stat = %s WHERE path = %s`,
			t.arg(1), t.arg(2), t.arg(3), t.arg(4), t.arg(5), t.arg(6), t.arg(7), t.arg(8))
		_, err = t.tx.ExecContext(ctx, query,
			string(StateNeedAnalysis), e.MimeType, e.Encoding, e.Size,
			e.ItemCtime, e.ItemMtime, string(statJSON), e.Path)
		if err != nil {
			return fmt.Errorf("update %s: %w", e.Path, err)
		}
	}
	return nil
}

// BulkSetStateWherePathIn sets newState on exactly the given paths,
// skipping any currently in-flight under the analyser or indexer. This
// is how the walker marks vanished paths need_deletion: the caller
// passes the DELETE set it already computed during compare, rather than
// re-deriving it from a nil-valued map entry.
func (t *Tx) BulkSetStateWherePathIn(ctx context.Context, paths []string, newState State) error {
	if len(paths) == 0 {
		return nil
	}
	pathPlaceholders := make([]string, len(paths))
	args := []interface{}{string(newState)}
	for i, p := range paths {
		pathPlaceholders[i] = t.arg(i + 2)
		args = append(args, p)
	}
	inProcessPlaceholders := make([]string, len(InProcessStates))
	base := len(paths) + 2
	for i, s := range InProcessStates {
		inProcessPlaceholders[i] = t.arg(base + i)
		args = append(args, string(s))
	}
	query := fmt.Sprintf(
		`UPDATE item SET state = %s WHERE path IN (%s) AND state NOT IN (%s)`,
		t.arg(1), strings.Join(pathPlaceholders, ", "), strings.Join(inProcessPlaceholders, ", "))
	_, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("bulk set state where path in: %w", err)
	}
	return nil
}

// PathsInState returns the paths currently in the given state, ordered
// so the analyser and indexer process a walk's output deterministically.
func (t *Tx) PathsInState(ctx context.Context, state State) ([]string, error) {
	query := fmt.Sprintf(`SELECT path FROM item WHERE state = %s ORDER BY path`, t.arg(1))
	rows, err := t.tx.QueryContext(ctx, query, string(state))
	if err != nil {
		return nil, fmt.Errorf("paths in state %s: %w", state, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Claim atomically moves path from expectFrom to to and returns the full
// row, using SELECT ... FOR UPDATE so a concurrent analyser or indexer
// worker can't claim the same row twice. Returns sql.ErrNoRows if the
// path isn't in the expected state (already claimed by another worker,
// or moved on).
func (t *Tx) Claim(ctx context.Context, path string, expectFrom, to State) (*Item, error) {
	lockQuery := fmt.Sprintf(
		`SELECT path, state, mime_type, encoding, language, size, item_ctime, item_mtime,
		 os_stat, meta_json, data_text, search_id, search_version
		 FROM item WHERE path = %s AND state = %s %s`,
		t.arg(1), t.arg(2), forUpdateSuffix(t.dialect))
	row := t.tx.QueryRowContext(ctx, lockQuery, path, string(expectFrom))

	it, err := scanItem(row)
	if err != nil {
		return nil, err
	}

	updQuery := fmt.Sprintf(`UPDATE item SET state = %s WHERE path = %s`, t.arg(1), t.arg(2))
	if _, err := t.tx.ExecContext(ctx, updQuery, string(to), path); err != nil {
		return nil, fmt.Errorf("claim %s: %w", path, err)
	}
	it.State = to
	return it, nil
}

func forUpdateSuffix(dialect string) string {
	if dialect == "sqlite" {
		// Open pins sqlite to a single connection (configurePool), so
		// every statement already serializes through it; sqlite has no
		// FOR UPDATE syntax and needs none.
		return ""
	}
	return "FOR UPDATE"
}

func scanItem(row *sql.Row) (*Item, error) {
	var it Item
	var mimeType, encoding, language sql.NullString
	var metaJSON, statJSON, dataText, searchID sql.NullString
	var searchVersion sql.NullInt64
	var state string
	var itemCtime, itemMtime int64

	err := row.Scan(&it.Path, &state, &mimeType, &encoding, &language, &it.Size,
		&itemCtime, &itemMtime, &statJSON, &metaJSON, &dataText, &searchID, &searchVersion)
	if err != nil {
		return nil, err
	}

	it.State = State(state)
	it.MimeType = mimeType.String
	it.Encoding = encoding.String
	it.Language = language.String
	it.DataText = dataText.String
	it.SearchID = searchID.String
	it.ItemCtime = time.Unix(itemCtime, 0).UTC()
	it.ItemMtime = time.Unix(itemMtime, 0).UTC()
	it.SearchVersion = searchVersion.Int64

	if statJSON.Valid && statJSON.String != "" {
		var s OSStat
		if err := json.Unmarshal([]byte(statJSON.String), &s); err == nil {
			it.OSStat = &s
		}
	}
	if metaJSON.Valid && metaJSON.String != "" {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(metaJSON.String), &m); err == nil {
			it.MetaJSON = m
		}
	}

	return &it, nil
}

// SaveAnalysis writes the extraction result for path and flushes the
// transition to need_indexing. Called once per item, right after the
// item was claimed into StateAnalysing. It deliberately leaves the
// encoding column untouched: encoding is determined once, by the Walker
// at classify time (see mimeguess.Guess), and the extraction service
// never reports one of its own to overwrite it with -- mirroring
// analyser.py, which never touches encoding either.
func (t *Tx) SaveAnalysis(ctx context.Context, path, mimeType, language string, meta map[string]interface{}, text string) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal meta for %s: %w", path, err)
	}
	query := fmt.Sprintf(
		`UPDATE item SET mime_type = %s, language = %s, meta_json = %s,
		 data_text = %s, state = %s WHERE path = %s`,
		t.arg(1), t.arg(2), t.arg(3), t.arg(4), t.arg(5), t.arg(6))
	_, err = t.tx.ExecContext(ctx, query,
		mimeType, language, string(metaJSON), text, string(StateNeedIndexing), path)
	if err != nil {
		return fmt.Errorf("save analysis for %s: %w", path, err)
	}
	return nil
}

// SaveIndexResult records the search service's assigned id/version for
// path and flushes the transition to indexed.
func (t *Tx) SaveIndexResult(ctx context.Context, path, searchID string, searchVersion int64) error {
	query := fmt.Sprintf(
		`UPDATE item SET search_id = %s, search_version = %s, state = %s WHERE path = %s`,
		t.arg(1), t.arg(2), t.arg(3), t.arg(4))
	_, err := t.tx.ExecContext(ctx, query, searchID, searchVersion, string(StateIndexed), path)
	if err != nil {
		return fmt.Errorf("save index result for %s: %w", path, err)
	}
	return nil
}

// SaveDeleteResult clears the search reference for path and flushes the
// transition to deleted.
func (t *Tx) SaveDeleteResult(ctx context.Context, path string) error {
	query := fmt.Sprintf(
		`UPDATE item SET search_id = NULL, search_version = NULL, state = %s WHERE path = %s`,
		t.arg(1), t.arg(2))
	_, err := t.tx.ExecContext(ctx, query, string(StateDeleted), path)
	if err != nil {
		return fmt.Errorf("save delete result for %s: %w", path, err)
	}
	return nil
}

// SetState is a narrow helper for transitions that don't carry any
// other column changes (e.g. need_analysis -> analysing).
func (t *Tx) SetState(ctx context.Context, path string, state State) error {
	query := fmt.Sprintf(`UPDATE item SET state = %s WHERE path = %s`, t.arg(1), t.arg(2))
	_, err := t.tx.ExecContext(ctx, query, string(state), path)
	if err != nil {
		return fmt.Errorf("set state for %s: %w", path, err)
	}
	return nil
}
