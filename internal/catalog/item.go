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

// Package catalog holds the relational record of every file the indexing
// pipeline knows about, and the state machine that drives a path through
// analysis and indexing.
package catalog

import "time"

// State is one node of the item lifecycle. A row moves through these
// states as the walker, analyser and indexer make progress on it.
type State string

const (
	// StateUnchanged means the filesystem entry matches what we already
	// recorded; no further work is needed until the next walk.
	StateUnchanged State = "unchanged"

	// StateNeedAnalysis means the entry is new or its mtime changed; the
	// analyser must extract content and metadata for it.
	StateNeedAnalysis State = "need_analysis"

	// StateAnalysing means the analyser has claimed the row and is
	// currently calling the extraction service for it.
	StateAnalysing State = "analysing"

	// StateNeedIndexing means extraction succeeded and the indexer must
	// publish the document to the search service.
	StateNeedIndexing State = "need_indexing"

	// StateIndexing means the indexer has claimed the row and is
	// currently publishing it.
	StateIndexing State = "indexing"

	// StateIndexed means the document is live in the search index.
	StateIndexed State = "indexed"

	// StateNeedDeletion means the filesystem entry disappeared; the
	// indexer must remove the corresponding document.
	StateNeedDeletion State = "need_deletion"

	// StateDeleted means the document has been removed from the search
	// index and the catalog row records that fact.
	StateDeleted State = "deleted"
)

// InProcessStates are states a concurrently running walker must leave
// alone: the item is mid-flight in the analyser or indexer and its mtime
// comparison would otherwise race with their updates.
var InProcessStates = []State{StateAnalysing, StateNeedIndexing, StateIndexing}

// IsInProcess reports whether s is one of InProcessStates.
func IsInProcess(s State) bool {
	for _, p := range InProcessStates {
		if s == p {
			return true
		}
	}
	return false
}

// OSStat is the subset of stat(2) fields the catalog persists alongside
// each item, kept as its own type so it serializes cleanly to a JSON
// column regardless of SQL dialect.
type OSStat struct {
	Mode  uint32 `json:"st_mode"`
	Ino   uint64 `json:"st_ino"`
	Dev   uint64 `json:"st_dev"`
	Nlink uint64 `json:"st_nlink"`
	Uid   uint32 `json:"st_uid"`
	Gid   uint32 `json:"st_gid"`
	Size  int64  `json:"st_size"`
	Atime int64  `json:"st_atime"`
	Mtime int64  `json:"st_mtime"`
	Ctime int64  `json:"st_ctime"`
}

// Item is one row of the catalog: a filesystem path, its last known
// stat/mtime, the state it is in, and whatever the analyser and indexer
// have recorded about it.
type Item struct {
	Path string
	State State

	MimeType string
	Encoding string
	Language string

	Size       int64
	ItemCtime  time.Time
	ItemMtime  time.Time
	OSStat     *OSStat

	MetaJSON map[string]interface{}
	DataText string

	// SearchID and SearchVersion identify the document in the search
	// service once it has been published at least once. They are
	// cleared when the document is removed.
	SearchID      string
	SearchVersion int64
}
