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
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dmdm/stoma-go/internal/httpclient"
)

// TikaClient implements Client against an Apache Tika-style REST server:
// each probe streams the file once more to a dedicated endpoint, since
// the server itself is stateless across requests.
type TikaClient struct {
	http *httpclient.Client
}

func NewTikaClient(baseURL string, opts ...httpclient.Option) *TikaClient {
	return &TikaClient{http: httpclient.New(baseURL, opts...)}
}

func (c *TikaClient) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.http.BaseURL+"/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := httpclient.CheckStatus(resp, 0); err != nil {
		return "", err
	}
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}

// Extract composes the detect/language/meta/text probes into one
// result, the way the source's TikaPymMixin.pym() bundles several Tika
// REST calls into a single dict.
func (c *TikaClient) Extract(ctx context.Context, path string) (*Result, error) {
	contentType, err := c.detectStream(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	language, err := c.languageStream(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("language: %w", err)
	}

	meta, err := c.meta(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}

	text, err := c.tika(ctx, path, "text/plain")
	if err != nil {
		return nil, fmt.Errorf("tika text: %w", err)
	}

	html, err := c.tika(ctx, path, "text/html")
	if err != nil {
		return nil, fmt.Errorf("tika html: %w", err)
	}
	if head, body, ok := splitHTML(html); ok {
		if meta == nil {
			meta = make(map[string]interface{})
		}
		meta["html_head"] = head
		meta["html_body"] = body
	}

	return &Result{
		MimeType: contentType,
		Language: language,
		Meta:     meta,
		Text:     text,
	}, nil
}

func (c *TikaClient) detectStream(ctx context.Context, path string) (string, error) {
	resp, err := c.put(ctx, "/detect/stream", path, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}

func (c *TikaClient) languageStream(ctx context.Context, path string) (string, error) {
	resp, err := c.put(ctx, "/language/stream", path, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}

// meta fetches structured metadata as JSON, via the /meta endpoint with
// an Accept: application/json header.
func (c *TikaClient) meta(ctx context.Context, path string) (map[string]interface{}, error) {
	resp, err := c.put(ctx, "/meta", path, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var meta map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return meta, nil
}

// tika fetches the rendered content (text or HTML) via the /tika
// endpoint, distinguished by the Accept header.
func (c *TikaClient) tika(ctx context.Context, path, accept string) (string, error) {
	resp, err := c.put(ctx, "/tika", path, accept)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}

// RMeta fetches recursive metadata for a compound document (an archive
// or container format holding several embedded documents).
func (c *TikaClient) RMeta(ctx context.Context, path string) ([]map[string]interface{}, error) {
	resp, err := c.put(ctx, "/rmeta", path, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rmeta: %w", err)
	}
	return out, nil
}

// Unpack extracts the embedded documents of a compound file as a ZIP
// archive, streamed back as-is.
func (c *TikaClient) Unpack(ctx context.Context, path string, all bool) (io.ReadCloser, error) {
	endpoint := "/unpack"
	if all {
		endpoint += "/all"
	}
	resp, err := c.put(ctx, endpoint, path, "application/zip")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// splitHTML pulls the <head> and <body> sections out of a Tika HTML
// rendering. Tika's HTML output is well-formed enough that a tag-based
// split is sufficient; a full parse isn't worth the dependency for two
// substrings we store opaquely.
func splitHTML(doc string) (head, body string, ok bool) {
	head, okHead := between(doc, "<head>", "</head>")
	body, okBody := between(doc, "<body>", "</body>")
	return head, body, okHead || okBody
}

func between(s, open, close string) (string, bool) {
	start := strings.Index(strings.ToLower(s), open)
	if start < 0 {
		return "", false
	}
	start += len(open)
	end := strings.Index(strings.ToLower(s[start:]), close)
	if end < 0 {
		return "", false
	}
	return s[start : start+end], true
}

// put streams path's content to the extraction service, setting
// content-disposition the way the source's TikaRestClient._send does so
// the server can recover the original filename for extension-based
// hints.
func (c *TikaClient) put(ctx context.Context, endpoint, path, accept string) (*http.Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.http.BaseURL+endpoint, f)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", path))
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if err := httpclient.CheckStatus(resp, 0); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
