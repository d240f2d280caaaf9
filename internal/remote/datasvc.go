package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"campusnet/internal/models"
	"campusnet/internal/observability"
)

// TokenSource supplies the current access token, or "" when signed out.
type TokenSource func() string

// Client talks to the hosted data service over its REST interface. Each call
// is logged, counted, and spanned; errors are wrapped as REMOTE_ERROR with
// the table and operation.
type Client struct {
	baseURL string
	apiKey  string
	token   TokenSource
	http    *http.Client

	mu      sync.Mutex
	loggers map[string]*observability.RemoteLogger
}

// NewClient returns a data-service client rooted at baseURL.
func NewClient(baseURL, apiKey string, token TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		token:   token,
		http:    &http.Client{},
		loggers: make(map[string]*observability.RemoteLogger),
	}
}

// logger returns the per-table logger, creating it on first use. Calls for
// different tables run concurrently during the initial load, so the map is
// guarded.
func (c *Client) logger(table string) *observability.RemoteLogger {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.loggers[table]; ok {
		return l
	}
	l := observability.NewRemoteLogger(table)
	c.loggers[table] = l
	return l
}

func (c *Client) tableURL(table string, q url.Values) string {
	u := c.baseURL + "/rest/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawurl string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawurl, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return c.http.Do(req)
}

func decodeServiceError(resp *http.Response) error {
	defer resp.Body.Close()
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return fmt.Errorf("%s (status %d)", payload.Error, resp.StatusCode)
		}
		if payload.Message != "" {
			return fmt.Errorf("%s (status %d)", payload.Message, resp.StatusCode)
		}
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}

// Select fetches rows from the table, optionally with embedded relations.
func (c *Client) Select(ctx context.Context, table string, opts SelectOptions, dest any) error {
	op := "select"
	ctx, span := observability.TraceRemoteCall(ctx, op, table)
	defer observability.TrackRemoteCall(op, table)()

	q := url.Values{}
	if opts.Columns != "" {
		q.Set("select", opts.Columns)
	}
	opts.Filter.Encode(q)
	if opts.OrderBy != "" {
		dir := "asc"
		if opts.Desc {
			dir = "desc"
		}
		q.Set("order", opts.OrderBy+"."+dir)
	}

	header := http.Header{}
	if opts.Single {
		header.Set("Accept", "application/vnd.pgrst.object+json")
	}

	resp, err := c.do(ctx, http.MethodGet, c.tableURL(table, q), nil, header)
	if err == nil && resp.StatusCode >= 300 {
		err = decodeServiceError(resp)
	}
	if err != nil {
		observability.RemoteCallErrors.WithLabelValues(op, table).Inc()
		c.logger(table).LogError(ctx, err, op)
		observability.EndSpan(span, err)
		return models.NewRemoteError(op+" "+table, err)
	}
	defer resp.Body.Close()

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			observability.EndSpan(span, err)
			return models.NewRemoteError(op+" "+table, err)
		}
	}
	c.logger(table).LogCall(ctx, op, nil)
	observability.EndSpan(span, nil)
	return nil
}

// Count returns the exact number of rows matching the filter without
// transferring them.
func (c *Client) Count(ctx context.Context, table string, filter Filter) (int, error) {
	op := "count"
	ctx, span := observability.TraceRemoteCall(ctx, op, table)
	defer observability.TrackRemoteCall(op, table)()

	q := url.Values{}
	filter.Encode(q)

	header := http.Header{}
	header.Set("Prefer", "count=exact")

	resp, err := c.do(ctx, http.MethodHead, c.tableURL(table, q), nil, header)
	if err == nil && resp.StatusCode >= 300 {
		err = decodeServiceError(resp)
	}
	if err != nil {
		observability.RemoteCallErrors.WithLabelValues(op, table).Inc()
		c.logger(table).LogError(ctx, err, op)
		observability.EndSpan(span, err)
		return 0, models.NewRemoteError(op+" "+table, err)
	}
	resp.Body.Close()

	// Content-Range looks like "0-24/3573"; the total follows the slash.
	cr := resp.Header.Get("Content-Range")
	total := 0
	if idx := strings.LastIndex(cr, "/"); idx >= 0 {
		total, err = strconv.Atoi(cr[idx+1:])
		if err != nil {
			observability.EndSpan(span, err)
			return 0, models.NewRemoteError(op+" "+table, fmt.Errorf("bad content-range %q", cr))
		}
	}
	c.logger(table).LogCall(ctx, op, map[string]interface{}{"total": total})
	observability.EndSpan(span, nil)
	return total, nil
}

// Insert writes a row. When returning is non-empty the created row (with the
// requested embeds) is decoded into dest.
func (c *Client) Insert(ctx context.Context, table string, row any, returning string, dest any) error {
	return c.write(ctx, http.MethodPost, table, Filter{}, row, returning, dest)
}

// Update patches the rows matching the filter.
func (c *Client) Update(ctx context.Context, table string, filter Filter, patch any, returning string, dest any) error {
	return c.write(ctx, http.MethodPatch, table, filter, patch, returning, dest)
}

// Delete removes the rows matching the filter.
func (c *Client) Delete(ctx context.Context, table string, filter Filter) error {
	op := "delete"
	ctx, span := observability.TraceRemoteCall(ctx, op, table)
	defer observability.TrackRemoteCall(op, table)()

	q := url.Values{}
	filter.Encode(q)

	resp, err := c.do(ctx, http.MethodDelete, c.tableURL(table, q), nil, nil)
	if err == nil && resp.StatusCode >= 300 {
		err = decodeServiceError(resp)
	}
	if err != nil {
		observability.RemoteCallErrors.WithLabelValues(op, table).Inc()
		c.logger(table).LogError(ctx, err, op)
		observability.EndSpan(span, err)
		return models.NewRemoteError(op+" "+table, err)
	}
	resp.Body.Close()
	c.logger(table).LogCall(ctx, op, nil)
	observability.EndSpan(span, nil)
	return nil
}

func (c *Client) write(ctx context.Context, method, table string, filter Filter, body any, returning string, dest any) error {
	op := strings.ToLower(method)
	if method == http.MethodPost {
		op = "insert"
	} else if method == http.MethodPatch {
		op = "update"
	}
	ctx, span := observability.TraceRemoteCall(ctx, op, table)
	defer observability.TrackRemoteCall(op, table)()

	q := url.Values{}
	filter.Encode(q)
	if returning != "" {
		q.Set("select", returning)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		observability.EndSpan(span, err)
		return models.NewRemoteError(op+" "+table, err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if returning != "" {
		header.Set("Prefer", "return=representation")
		header.Set("Accept", "application/vnd.pgrst.object+json")
	}

	resp, err := c.do(ctx, method, c.tableURL(table, q), bytes.NewReader(payload), header)
	if err == nil && resp.StatusCode >= 300 {
		err = decodeServiceError(resp)
	}
	if err != nil {
		observability.RemoteCallErrors.WithLabelValues(op, table).Inc()
		c.logger(table).LogError(ctx, err, op)
		observability.EndSpan(span, err)
		return models.NewRemoteError(op+" "+table, err)
	}
	defer resp.Body.Close()

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			observability.EndSpan(span, err)
			return models.NewRemoteError(op+" "+table, err)
		}
	}
	c.logger(table).LogCall(ctx, op, nil)
	observability.EndSpan(span, nil)
	return nil
}

// SetTimeout overrides the HTTP client timeout. The state layer imposes no
// timeout of its own; this is an operator escape hatch.
func (c *Client) SetTimeout(d time.Duration) {
	c.http.Timeout = d
}
