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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTikaClient_Extract_ComposesAllProbes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/detect/stream", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		w.Write([]byte("text/plain"))
	})
	mux.HandleFunc("/language/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("en"))
	})
	mux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		json.NewEncoder(w).Encode(map[string]interface{}{"title": "hi"})
	})
	mux.HandleFunc("/tika", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "text/html" {
			w.Write([]byte("<html><head><title>hi</title></head><body><p>hello</p></body></html>"))
			return
		}
		w.Write([]byte("hello world"))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewTikaClient(srv.URL)
	res, err := c.Extract(context.Background(), newTestFile(t, "hello world"))
	require.NoError(t, err)
	require.Equal(t, "text/plain", res.MimeType)
	require.Equal(t, "en", res.Language)
	require.Equal(t, "hello world", res.Text)
	require.Equal(t, "hi", res.Meta["title"])
	require.Contains(t, res.Meta["html_head"], "<title>hi</title>")
	require.Contains(t, res.Meta["html_body"], "<p>hello</p>")
}

func TestTikaClient_Extract_PropagatesDetectFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/detect/stream", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewTikaClient(srv.URL)
	_, err := c.Extract(context.Background(), newTestFile(t, "x"))
	require.Error(t, err)
}

func TestTikaClient_Version(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/version", r.URL.Path)
		w.Write([]byte("Apache Tika 2.9.0"))
	}))
	defer srv.Close()

	c := NewTikaClient(srv.URL)
	v, err := c.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Apache Tika 2.9.0", v)
}

func TestTikaClient_Put_SetsContentDisposition(t *testing.T) {
	var gotDisposition string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDisposition = r.Header.Get("Content-Disposition")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	path := newTestFile(t, "content")
	c := NewTikaClient(srv.URL)
	_, err := c.tika(context.Background(), path, "")
	require.NoError(t, err)
	require.Contains(t, gotDisposition, "attachment")
	require.Contains(t, gotDisposition, path)
}

func TestSplitHTML(t *testing.T) {
	head, body, ok := splitHTML("<html><head>H</head><body>B</body></html>")
	require.True(t, ok)
	require.Equal(t, "H", head)
	require.Equal(t, "B", body)
}

func TestSplitHTML_NoMatch(t *testing.T) {
	_, _, ok := splitHTML("plain text, no tags")
	require.False(t, ok)
}

func TestTikaClient_RMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rmeta", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{{"Content-Type": "application/zip"}})
	}))
	defer srv.Close()

	c := NewTikaClient(srv.URL)
	out, err := c.RMeta(context.Background(), newTestFile(t, "x"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "application/zip", out[0]["Content-Type"])
}
