// Package upstream is the Upstream Client (component D): forwards rewritten
// GraphQL operations to the backend GraphQL API and issues the single-entity
// probe queries the Belonging Oracle needs.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts GraphQL operations to a fixed upstream URL over a shared,
// pooled *http.Client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client targeting baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Request is a single GraphQL operation.
type Request struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

// Response is the raw upstream response: status, headers, and body, kept
// opaque so the proxy pipeline can pass it through verbatim.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do forwards a single GraphQL operation and returns the raw response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read response: %w", err)
	}

	header := resp.Header.Clone()
	header.Del("Content-Length")

	return &Response{StatusCode: resp.StatusCode, Header: header, Body: body}, nil
}

// DoBatch forwards a batch of operations, encoded as a JSON array.
func (c *Client) DoBatch(ctx context.Context, reqs []Request) (*Response, error) {
	payload, err := json.Marshal(reqs)
	if err != nil {
		return nil, fmt.Errorf("upstream: encode batch: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read response: %w", err)
	}

	header := resp.Header.Clone()
	header.Del("Content-Length")

	return &Response{StatusCode: resp.StatusCode, Header: header, Body: body}, nil
}

// Options sends a bare OPTIONS request (no headers, no body) to the upstream
// URL and returns its raw response, letting the upstream's own CORS policy
// answer.
func (c *Client) Options(ctx context.Context) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodOptions, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read response: %w", err)
	}

	header := resp.Header.Clone()
	header.Del("Content-Length")

	return &Response{StatusCode: resp.StatusCode, Header: header, Body: body}, nil
}

// entityByPKResult is the shape of the probe response
// `{entity}_by_pk(id: ...) { tenant_id }` decodes into.
type entityByPKResult struct {
	Data map[string]*struct {
		TenantID *string `json:"tenant_id"`
	} `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

// EntityTenantID issues `query { {entity}_by_pk(id: "{id}") { tenant_id } }`
// and returns the tenant_id it belongs to, or "" if the probe found no
// matching row or the upstream reported any error.
func (c *Client) EntityTenantID(ctx context.Context, entity, id string) (string, error) {
	field := entity + "_by_pk"
	query := fmt.Sprintf(`query { %s(id: %q) { tenant_id } }`, field, id)

	resp, err := c.Do(ctx, Request{Query: query})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var parsed entityByPKResult
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", fmt.Errorf("upstream: decode probe response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return "", nil
	}

	row, ok := parsed.Data[field]
	if !ok || row == nil || row.TenantID == nil {
		return "", nil
	}
	return *row.TenantID, nil
}
