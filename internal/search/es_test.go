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

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmdm/stoma-go/internal/httpclient"
)

func TestESClient_Save_AssignsIDFromResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/files/file/", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"_id": "gen-1", "_version": int64(1)})
	}))
	defer srv.Close()

	c := NewESClient(srv.URL)
	res, err := c.Save(context.Background(), "files", "file", "", &Document{Path: "/a.txt"})
	require.NoError(t, err)
	require.Equal(t, "gen-1", res.ID)
	require.Equal(t, int64(1), res.Version)
}

func TestESClient_Save_WithIDUsesPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/files/file/es-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"_id": "es-1", "_version": int64(2)})
	}))
	defer srv.Close()

	c := NewESClient(srv.URL)
	res, err := c.Save(context.Background(), "files", "file", "es-1", &Document{Path: "/a.txt"})
	require.NoError(t, err)
	require.Equal(t, "es-1", res.ID)
	require.Equal(t, int64(2), res.Version)
}

func TestESClient_Delete_NotFoundReturnsFalseNoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewESClient(srv.URL)
	existed, err := c.Delete(context.Background(), "files", "file", "missing")
	require.NoError(t, err)
	require.False(t, existed)
}

func TestESClient_Delete_OKReturnsTrue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewESClient(srv.URL)
	existed, err := c.Delete(context.Background(), "files", "file", "es-1")
	require.NoError(t, err)
	require.True(t, existed)
}

func TestESClient_Exists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewESClient(srv.URL)
	ok, err := c.Exists(context.Background(), "files", "file", "es-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestESClient_Count(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/_count", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 42})
	}))
	defer srv.Close()

	c := NewESClient(srv.URL)
	n, err := c.Count(context.Background(), "files")
	require.NoError(t, err)
	require.Equal(t, int64(42), n)
}

func TestESClient_Search_ReturnsDecodedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/file/_search", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"hits": map[string]interface{}{"total": 1}})
	}))
	defer srv.Close()

	c := NewESClient(srv.URL)
	out, err := c.Search(context.Background(), "files", "file", map[string]interface{}{"query": map[string]interface{}{}})
	require.NoError(t, err)
	hits := out["hits"].(map[string]interface{})
	require.Equal(t, float64(1), hits["total"])
}

func TestESClient_CreateAndDeleteIndex(t *testing.T) {
	var gotMethods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethods = append(gotMethods, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewESClient(srv.URL)
	require.NoError(t, c.CreateIndex(context.Background(), "files", nil))
	require.NoError(t, c.DeleteIndex(context.Background(), "files"))
	require.Equal(t, []string{http.MethodPut, http.MethodDelete}, gotMethods)
}

func TestESClient_Save_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewESClient(srv.URL)
	_, err := c.Save(context.Background(), "files", "file", "", &Document{Path: "/a.txt"})
	require.Error(t, err)
	var retryable *httpclient.RetryableError
	require.ErrorAs(t, err, &retryable)
}
