// Package notion exposes a Notion workspace to agents as bounded tools:
// structured data-source queries, page and block CRUD, search, and users.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"workbridge/internal/tools"
)

const defaultBaseURL = "https://api.notion.com/v1"

// API versions. The newer version is required for multi-data-source
// databases; everything else stays on the stable version.
const (
	apiVersion    = "2022-06-28"
	apiVersionNew = "2025-09-03"
)

// Client is a thin REST client for the Notion API. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a Notion API client. An empty baseURL selects the public
// endpoint.
func NewClient(baseURL, apiKey string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: time.Minute},
		log:     log,
	}
}

// normalizeID strips the dashes Notion accepts but does not require in ids.
func normalizeID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

func (c *Client) get(ctx context.Context, version, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(req, version, out)
}

func (c *Client) send(ctx context.Context, method, version, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, version, out)
}

func (c *Client) do(req *http.Request, version string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", version)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", req.URL.Path, err)
	}

	c.log.Debug("notion api call",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &tools.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// listResponse is the paginated envelope shared by query, search, block
// children, and user listings.
type listResponse struct {
	Results    []map[string]any `json:"results"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor"`
}

func (c *Client) queryDataSource(ctx context.Context, dataSourceID string, body map[string]any) (listResponse, error) {
	var out listResponse
	err := c.send(ctx, http.MethodPost, apiVersionNew,
		"/data_sources/"+normalizeID(dataSourceID)+"/query", body, &out)
	return out, err
}

func (c *Client) getDatabase(ctx context.Context, databaseID string) (map[string]any, error) {
	var out map[string]any
	err := c.get(ctx, apiVersionNew, "/databases/"+normalizeID(databaseID), nil, &out)
	return out, err
}

func (c *Client) search(ctx context.Context, body map[string]any) (listResponse, error) {
	var out listResponse
	err := c.send(ctx, http.MethodPost, apiVersion, "/search", body, &out)
	return out, err
}

func (c *Client) getPage(ctx context.Context, pageID string) (map[string]any, error) {
	var out map[string]any
	err := c.get(ctx, apiVersion, "/pages/"+normalizeID(pageID), nil, &out)
	return out, err
}

func (c *Client) createPage(ctx context.Context, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.send(ctx, http.MethodPost, apiVersionNew, "/pages", body, &out)
	return out, err
}

func (c *Client) updatePage(ctx context.Context, pageID string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.send(ctx, http.MethodPatch, apiVersion, "/pages/"+normalizeID(pageID), body, &out)
	return out, err
}

func (c *Client) blockChildren(ctx context.Context, blockID, cursor string, pageSize int) (listResponse, error) {
	q := url.Values{"page_size": {fmt.Sprint(pageSize)}}
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	var out listResponse
	err := c.get(ctx, apiVersion, "/blocks/"+normalizeID(blockID)+"/children", q, &out)
	return out, err
}

func (c *Client) appendBlockChildren(ctx context.Context, blockID string, children []any) (listResponse, error) {
	var out listResponse
	err := c.send(ctx, http.MethodPatch, apiVersion,
		"/blocks/"+normalizeID(blockID)+"/children", map[string]any{"children": children}, &out)
	return out, err
}

func (c *Client) updateBlock(ctx context.Context, blockID string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.send(ctx, http.MethodPatch, apiVersion, "/blocks/"+normalizeID(blockID), body, &out)
	return out, err
}

func (c *Client) listUsers(ctx context.Context, cursor string, pageSize int) (listResponse, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	if pageSize > 0 {
		q.Set("page_size", fmt.Sprint(pageSize))
	}
	var out listResponse
	err := c.get(ctx, apiVersion, "/users", q, &out)
	return out, err
}

func (c *Client) getUser(ctx context.Context, userID string) (map[string]any, error) {
	var out map[string]any
	err := c.get(ctx, apiVersion, "/users/"+normalizeID(userID), nil, &out)
	return out, err
}
