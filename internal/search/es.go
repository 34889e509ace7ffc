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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmdm/stoma-go/internal/httpclient"
)

// ESClient implements Client against an Elasticsearch-style REST
// endpoint: /{index}/{kind}/{id} for single documents, /{index}/_count
// and /{index}/{kind}/_search for queries.
type ESClient struct {
	http *httpclient.Client
}

func NewESClient(baseURL string, opts ...httpclient.Option) *ESClient {
	return &ESClient{http: httpclient.New(baseURL, opts...)}
}

func (c *ESClient) Liveness(ctx context.Context) bool {
	host, port, err := splitHostPort(c.http.BaseURL)
	if err != nil {
		return false
	}
	conn, err := (&net.Dialer{Timeout: 2 * time.Second}).DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func splitHostPort(baseURL string) (string, string, error) {
	// baseURL is expected as http(s)://host:port
	var scheme string
	rest := baseURL
	for _, s := range []string{"http://", "https://"} {
		if len(baseURL) > len(s) && baseURL[:len(s)] == s {
			scheme = s
			rest = baseURL[len(s):]
		}
	}
	_ = scheme
	return net.SplitHostPort(rest)
}

func (c *ESClient) Save(ctx context.Context, index, kind, id string, doc *Document) (*SaveResult, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	method := http.MethodPost
	url := fmt.Sprintf("%s/%s/%s/", c.http.BaseURL, index, kind)
	if id != "" {
		method = http.MethodPut
		url = fmt.Sprintf("%s/%s/%s/%s", c.http.BaseURL, index, kind, id)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := httpclient.CheckStatus(resp, 0); err != nil {
		return nil, err
	}

	var decoded struct {
		ID      string `json:"_id"`
		Version int64  `json:"_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode save response: %w", err)
	}
	return &SaveResult{ID: decoded.ID, Version: decoded.Version}, nil
}

func (c *ESClient) Delete(ctx context.Context, index, kind, id string) (bool, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", c.http.BaseURL, index, kind, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, httpclient.CheckStatus(resp, 0)
	}
}

func (c *ESClient) Exists(ctx context.Context, index, kind, id string) (bool, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", c.http.BaseURL, index, kind, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, httpclient.CheckStatus(resp, 0)
	}
}

func (c *ESClient) Search(ctx context.Context, index, kind string, query interface{}) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/%s/%s/_search", c.http.BaseURL, index, kind)
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := httpclient.CheckStatus(resp, 0); err != nil {
		return nil, err
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return out, nil
}

func (c *ESClient) Count(ctx context.Context, index string) (int64, error) {
	url := fmt.Sprintf("%s/%s/_count", c.http.BaseURL, index)
	query := map[string]interface{}{"query": map[string]interface{}{"match_all": map[string]interface{}{}}}
	body, err := json.Marshal(query)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := httpclient.CheckStatus(resp, 0); err != nil {
		return 0, err
	}

	var decoded struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return decoded.Count, nil
}

func (c *ESClient) CreateIndex(ctx context.Context, index string, settings interface{}) error {
	url := fmt.Sprintf("%s/%s/", c.http.BaseURL, index)
	var body io.Reader
	if settings != nil {
		b, err := json.Marshal(settings)
		if err != nil {
			return fmt.Errorf("marshal index settings: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return httpclient.CheckStatus(resp, 0)
}

func (c *ESClient) DeleteIndex(ctx context.Context, index string) error {
	url := fmt.Sprintf("%s/%s/", c.http.BaseURL, index)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return httpclient.CheckStatus(resp, 0)
}
