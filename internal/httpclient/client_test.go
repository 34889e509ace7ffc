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

package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsAndOptions(t *testing.T) {
	c := New("http://example.com", WithTimeout(5*time.Second))
	require.Equal(t, "http://example.com", c.BaseURL)
	require.Equal(t, 5*time.Second, c.http.Timeout)
}

func TestClient_Do_WrapsTransportErrorAsRetryable(t *testing.T) {
	c := New("http://127.0.0.1:1", WithTimeout(50*time.Millisecond))
	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	require.NoError(t, err)

	_, err = c.Do(req)
	require.Error(t, err)
	var retryable *RetryableError
	require.ErrorAs(t, err, &retryable)
	require.True(t, retryable.IsRetryable())
}

func TestCheckStatus_2xxIsNil(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusOK, Status: "200 OK"}
	require.NoError(t, CheckStatus(resp, 0))
}

func TestCheckStatus_429IsRetryable(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Status: "429 Too Many Requests"}
	err := CheckStatus(resp, 2*time.Second)
	require.Error(t, err)
	var retryable *RetryableError
	require.ErrorAs(t, err, &retryable)
	require.Equal(t, 2*time.Second, retryable.RetryAfter)
}

func TestCheckStatus_5xxIsRetryable(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable"}
	err := CheckStatus(resp, 0)
	require.Error(t, err)
	var retryable *RetryableError
	require.ErrorAs(t, err, &retryable)
}

func TestCheckStatus_Other4xxIsPlainError(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"}
	err := CheckStatus(resp, 0)
	require.Error(t, err)
	_, isRetryable := err.(*RetryableError)
	require.False(t, isRetryable, "404 must not be classified as retryable")
}

func TestClient_Do_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRetryableError_ErrorString(t *testing.T) {
	e := &RetryableError{StatusCode: 503, Message: "unavailable"}
	require.Equal(t, "HTTP 503: unavailable", e.Error())

	e.RetryAfter = time.Second
	require.Contains(t, e.Error(), "retry after")
}
