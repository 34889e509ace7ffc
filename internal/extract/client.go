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

// Package extract talks to the content-extraction service: an external
// collaborator that, given a file, reports its precise content type,
// language, structured metadata and extracted text. The wire contract
// mirrors Apache Tika's REST server.
package extract

import "context"

// Result is everything the analyser needs out of one extraction pass.
type Result struct {
	MimeType string
	Language string
	Meta     map[string]interface{}
	Text     string
}

// Client extracts content and metadata from a single file addressed by
// its filesystem path. Implementations are expected to stream the file
// rather than buffer it, since paths here can point at arbitrarily large
// documents.
type Client interface {
	// Extract runs the full probe composition (detect, language, meta,
	// text) against path and returns the merged result.
	Extract(ctx context.Context, path string) (*Result, error)

	// Version reports the extraction service's version string, used by
	// "stoma version" style diagnostics.
	Version(ctx context.Context) (string, error)
}
