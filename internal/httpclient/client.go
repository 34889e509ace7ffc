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
	"fmt"
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.http.Timeout = d
	}
}

// Client is a thin wrapper over http.Client used by the extraction and
// search clients. Retry/backoff for transient failures is the caller's
// responsibility (see internal/pipeline.Retryer) -- this type only owns
// transport-level concerns: base URL, timeout, and turning unexpected
// status codes into RetryableError so the retryer can tell transient
// service hiccups from permanent 4xx rejections.
type Client struct {
	http    *http.Client
	BaseURL string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		BaseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RetryableError{Message: err.Error(), Err: err}
	}
	return resp, nil
}

// CheckStatus classifies a response's status code: nil for 2xx, a
// RetryableError for 429/5xx, or a plain error for any other 4xx.
func CheckStatus(resp *http.Response, retryAfter time.Duration) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			RetryAfter: retryAfter,
		}
	default:
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
}
