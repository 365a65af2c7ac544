package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lox/floatchat/internal/httputil"
	"github.com/lox/floatchat/internal/metrics"
)

// Client talks to a remote /api/ranges + /api/search backend.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = httputil.NewClient(10 * time.Second)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (c *Client) Ranges(ctx context.Context) (Ranges, error) {
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/ranges", nil, &raw); err != nil {
		return nil, err
	}
	return decodeRanges(raw), nil
}

func (c *Client) Search(ctx context.Context, q string) (Response, error) {
	body, err := json.Marshal(map[string]string{"query": q})
	if err != nil {
		return Response{}, err
	}

	var raw struct {
		Message  string                     `json:"message"`
		Results  map[string]json.RawMessage `json:"results"`
		DataType string                     `json:"data_type"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/search", body, &raw); err != nil {
		return Response{}, err
	}
	return Response{
		Message:  raw.Message,
		Results:  decodeRanges(raw.Results),
		DataType: raw.DataType,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.SearchRequestsTotal.WithLabelValues(path, status).Inc()
		metrics.SearchLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode == http.StatusServiceUnavailable {
		return ErrDatabaseNotFound
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// decodeRanges keeps whatever bounds are numeric. A range that is not an
// object, or a bound that is missing or not a number, is left nil.
func decodeRanges(raw map[string]json.RawMessage) Ranges {
	out := make(Ranges, len(raw))
	for name, msg := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(msg, &fields); err != nil {
			out[name] = Range{}
			continue
		}
		out[name] = Range{
			Min: decodeBound(fields["min"]),
			Max: decodeBound(fields["max"]),
		}
	}
	return out
}

func decodeBound(msg json.RawMessage) *float64 {
	if len(msg) == 0 || string(msg) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(msg, &v); err == nil {
		return &v
	}
	// Some backends send numbers as strings.
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return nil
}
