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

package mimeguess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuess_ByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	mimeType, _ := Guess(path)
	require.Equal(t, "text/plain", mimeType)
}

func TestGuess_FallsBackToContentSniffing(t *testing.T) {
	dir := t.TempDir()
	// No extension at all, forcing the content-sniffing fallback.
	path := filepath.Join(dir, "noext")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))

	mimeType, _ := Guess(path)
	require.Equal(t, "application/pdf", mimeType)
}

func TestSplitTypeParams(t *testing.T) {
	mimeType, encoding := splitTypeParams("text/html; charset=utf-8")
	require.Equal(t, "text/html", mimeType)
	require.Equal(t, "utf-8", encoding)

	mimeType, encoding = splitTypeParams("application/json")
	require.Equal(t, "application/json", mimeType)
	require.Equal(t, "", encoding)
}
