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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScrubNUL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"literal_nul", "hello\x00world", "helloworld"},
		{"escaped_x00", "hello\\x00world", "helloworld"},
		{"escaped_u0000", "hello\\u0000world", "helloworld"},
		{"double_escaped_u0000", "hello\\\\u0000world", "helloworld"},
		{"clean_string", "hello world", "hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ScrubNUL(tt.in))
		})
	}
}

func TestScrubMetaNUL_Recurses(t *testing.T) {
	meta := map[string]interface{}{
		"title": "clean",
		"author": map[string]interface{}{
			"name": "jane\x00doe",
		},
		"keywords": []interface{}{"ok", "bad\\x00word"},
	}

	scrubbed := ScrubMetaNUL(meta)

	require.Equal(t, "clean", scrubbed["title"])
	nested := scrubbed["author"].(map[string]interface{})
	require.Equal(t, "janedoe", nested["name"])
	keywords := scrubbed["keywords"].([]interface{})
	require.Equal(t, "ok", keywords[0])
	require.Equal(t, "badword", keywords[1])
}

func TestScrubMetaNUL_Nil(t *testing.T) {
	require.Nil(t, ScrubMetaNUL(nil))
}
