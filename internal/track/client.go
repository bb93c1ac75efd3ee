// Package track talks to the experiment tracking platform: it reads dataset
// definitions and appends per-item outputs and scores. From this system's
// perspective the platform is a read-only dataset source and a write-only
// result sink.
package track

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Sentinel errors for the track package.
var (
	// ErrDatasetNotFound is returned when the named dataset does not exist.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrSinkClosed is returned when submissions are attempted on a closed sink.
	ErrSinkClosed = errors.New("sink closed")
)

// Config holds tracking platform connection settings.
type Config struct {
	BaseURL   string
	PublicKey string
	SecretKey string
	Timeout   time.Duration // default: 30s
}

// Client is an HTTP client for the tracking platform's public API.
type Client struct {
	baseURL    string
	publicKey  string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a tracking platform client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		publicKey: cfg.PublicKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// HealthCheck checks if the platform is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/public/health", nil, nil)
}

// WaitReady blocks until the platform responds to health checks, retrying
// with backoff. Used at process start so a run fails fast on bad credentials
// or an unreachable host instead of mid-batch.
func (c *Client) WaitReady(ctx context.Context) error {
	return retry.Do(
		func() error { return c.HealthCheck(ctx) },
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
	)
}

// GetDataset fetches a dataset and all of its items by name.
func (c *Client) GetDataset(ctx context.Context, name string) (*Dataset, error) {
	var ds Dataset
	path := "/api/public/v2/datasets/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &ds); err != nil {
		return nil, err
	}

	items, err := c.listItems(ctx, name)
	if err != nil {
		return nil, err
	}
	ds.Items = items
	return &ds, nil
}

// listItems pages through all items of a dataset.
func (c *Client) listItems(ctx context.Context, datasetName string) ([]DatasetItem, error) {
	var items []DatasetItem

	for page := 1; ; page++ {
		var resp struct {
			Data []DatasetItem `json:"data"`
			Meta struct {
				Page       int `json:"page"`
				TotalPages int `json:"totalPages"`
			} `json:"meta"`
		}

		path := fmt.Sprintf("/api/public/dataset-items?datasetName=%s&page=%d&limit=50",
			url.QueryEscape(datasetName), page)
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}

		items = append(items, resp.Data...)
		if page >= resp.Meta.TotalPages {
			break
		}
	}

	return items, nil
}

// CreateDataset creates a dataset. Creating an existing dataset is not an
// error on the platform side; it returns the existing one.
func (c *Client) CreateDataset(ctx context.Context, name string) error {
	body := map[string]any{"name": name}
	return c.do(ctx, http.MethodPost, "/api/public/datasets", body, nil)
}

// CreateItem appends one item to a dataset.
func (c *Client) CreateItem(ctx context.Context, datasetName string, input ItemInput, expected json.RawMessage) error {
	body := map[string]any{
		"datasetName": datasetName,
		"input":       input,
	}
	if len(expected) > 0 {
		body["expectedOutput"] = expected
	}
	return c.do(ctx, http.MethodPost, "/api/public/dataset-items", body, nil)
}

// CreateRunItem records a dataset item's participation in a run.
func (c *Client) CreateRunItem(ctx context.Context, item *RunItem) error {
	return c.do(ctx, http.MethodPost, "/api/public/dataset-run-items", item, nil)
}

// CreateScore attaches a named score to a trace.
func (c *Client) CreateScore(ctx context.Context, s *Score) error {
	return c.do(ctx, http.MethodPost, "/api/public/scores", s, nil)
}

// do performs one API request with basic auth, decoding the response into
// out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.publicKey, c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tracking API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
