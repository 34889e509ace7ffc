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

// Package search talks to the full-text search service: an external
// collaborator that indexes documents and serves queries against them.
// The wire contract mirrors an Elasticsearch REST endpoint.
package search

import "context"

// Document is the body the indexer publishes for one item. Field names
// match the source's indexer._save() payload verbatim.
type Document struct {
	Path     string                 `json:"path"`
	Tags     []string               `json:"tags"`
	MimeType string                 `json:"mime_type"`
	Encoding string                 `json:"encoding"`
	Language string                 `json:"language"`
	Size     int64                  `json:"size"`
	Ctime    int64                  `json:"ctime"`
	Mtime    int64                  `json:"mtime"`
	Meta     map[string]interface{} `json:"meta"`
	Text     string                 `json:"text"`
}

// SaveResult is what the search service hands back after indexing a
// document: its assigned id (stable across updates once assigned) and
// the new document version.
type SaveResult struct {
	ID      string
	Version int64
}

// Client is the document-level operations the indexer needs against the
// search service. index/kind are injected per call rather than baked
// into the client so the same client can serve several catalogs.
type Client interface {
	// Liveness reports whether the search service is reachable at all,
	// mirroring the source's is_running() precondition before indexing.
	Liveness(ctx context.Context) bool

	// Save creates or updates a document. If id is empty the service
	// assigns one and it is returned in SaveResult.
	Save(ctx context.Context, index, kind, id string, doc *Document) (*SaveResult, error)

	// Delete removes a document by id. Returns false if the document
	// didn't exist rather than erroring.
	Delete(ctx context.Context, index, kind, id string) (bool, error)

	// Exists reports whether a document is present without fetching it.
	Exists(ctx context.Context, index, kind, id string) (bool, error)

	// Search runs a query and returns the raw decoded response body.
	Search(ctx context.Context, index, kind string, query interface{}) (map[string]interface{}, error)

	// Count returns the number of documents matching the match-all query,
	// mirroring the source's /_count helper.
	Count(ctx context.Context, index string) (int64, error)

	// CreateIndex and DeleteIndex manage index lifecycle for "initdb" and
	// "drop" style administrative commands.
	CreateIndex(ctx context.Context, index string, settings interface{}) error
	DeleteIndex(ctx context.Context, index string) error
}
