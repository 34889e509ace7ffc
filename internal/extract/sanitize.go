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

package extract

import "strings"

// nulVariants are every spelling of a NUL code point that has turned up
// in extracted metadata: a literal byte, its escaped forms, and the
// double-escaped form JSON round-tripping sometimes produces.
var nulVariants = []string{"\x00", "\\x00", "\\\\u0000", "\\u0000"}

// ScrubNUL strips every spelling of the NUL code point from s. Some SQL
// drivers and most JSON/text column types reject embedded NULs outright,
// and the extraction service occasionally returns one inside metadata
// pulled from malformed documents.
func ScrubNUL(s string) string {
	for _, v := range nulVariants {
		if strings.Contains(s, v) {
			s = strings.ReplaceAll(s, v, "")
		}
	}
	return s
}

// ScrubMetaNUL applies ScrubNUL to every string value in meta, recursing
// into nested maps and slices so a NUL buried a few levels deep in
// structured metadata still gets caught.
func ScrubMetaNUL(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		out[k] = scrubValue(v)
	}
	return out
}

func scrubValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return ScrubNUL(val)
	case map[string]interface{}:
		return ScrubMetaNUL(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = scrubValue(item)
		}
		return out
	default:
		return v
	}
}
