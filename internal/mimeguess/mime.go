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

// Package mimeguess guesses a file's MIME type and encoding from its
// name and, failing that, its content. It is a pure helper: it never
// touches the catalog or any remote service.
package mimeguess

import (
	gomime "mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	TypeDirectory = "inode/directory"
	TypeDefault   = "application/octet-stream"
)

// Guess returns the (mime type, encoding) pair for path. It tries the
// extension-based standard registry first, since that's cheap and exact
// for the overwhelming majority of files; if the extension is unknown or
// unregistered it falls back to sniffing the file's content.
//
// The returned encoding is empty when none could be determined, mirroring
// the source implementation's reliance on an external sniffer for that
// field.
func Guess(path string) (mimeType, encoding string) {
	if ext := filepath.Ext(path); ext != "" {
		if mt := gomime.TypeByExtension(ext); mt != "" {
			return splitTypeParams(mt)
		}
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil || mt == nil {
		return TypeDefault, ""
	}
	return splitTypeParams(mt.String())
}

// splitTypeParams separates a "type/subtype; charset=..." MIME value
// into its bare type and charset, the way mimetypes.guess_type and
// python-magic both report encoding as a second return value rather
// than a parameter embedded in the type string.
func splitTypeParams(raw string) (mimeType, encoding string) {
	parts := strings.SplitN(raw, ";", 2)
	mimeType = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		for _, p := range strings.Split(parts[1], ";") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "charset=") {
				encoding = strings.TrimPrefix(p, "charset=")
			}
		}
	}
	return mimeType, encoding
}
