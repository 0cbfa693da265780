// Package ingest submits task batches to the remote ingestion endpoint.
//
// In optimistic mode the endpoint's response is not interpreted: a
// request that completes at the transport level is reported as
// dispatched, which does not prove the remote store recorded anything.
// Confirmed mode reads the response and only reports success when the
// endpoint says so.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nhle/planbatch/internal/apperr"
	"github.com/nhle/planbatch/internal/logger"
	"github.com/nhle/planbatch/internal/model"
)

// Mode selects how much of the endpoint's response is trusted.
type Mode string

const (
	ModeOptimistic Mode = model.IngestModeOptimistic
	ModeConfirmed  Mode = model.IngestModeConfirmed
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Receipt describes the outcome of a dispatch.
type Receipt struct {
	// Accepted is true when the batch left this process without error.
	Accepted bool
	// Count is the number of tasks sent.
	Count int
	// Confirmed is true only when the endpoint acknowledged the write.
	Confirmed bool
	// RowsAdded is the endpoint's own count, when it reports one.
	RowsAdded int
	// StatusCode is the HTTP status observed, or 0 when not observed.
	StatusCode int
	Message    string
	Endpoint   string
	Mode       Mode
}

// Submitter is anything that can dispatch a batch.
type Submitter interface {
	Submit(ctx context.Context, tasks []model.PlanTask) (Receipt, error)
}

// Client posts {"tasks": [...]} to a fixed URL.
type Client struct {
	url        string
	mode       Mode
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMode sets the response handling mode.
func WithMode(m Mode) Option {
	return func(c *Client) { c.mode = m }
}

// NewClient returns a Client for url. An empty url is a configuration
// error.
func NewClient(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, &apperr.ConfigError{Component: "ingest", Fields: []string{"ingest.url"}}
	}
	c := &Client{
		url:  url,
		mode: ModeOptimistic,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.mode != ModeOptimistic && c.mode != ModeConfirmed {
		return nil, &apperr.ConfigError{
			Component: "ingest",
			Fields:    []string{"ingest.mode"},
			Message:   fmt.Sprintf("unknown ingest mode %q", c.mode),
		}
	}
	return c, nil
}

// FromConfig builds a Client from cfg.
func FromConfig(cfg model.IngestConfig) (*Client, error) {
	opts := []Option{WithMode(Mode(cfg.Mode))}
	if cfg.Mode == "" {
		opts = opts[:0]
	}
	if cfg.TimeoutSec > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}))
	}
	return NewClient(cfg.URL, opts...)
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string { return c.url }

// Mode returns the response handling mode.
func (c *Client) Mode() Mode { return c.mode }

type submitRequest struct {
	Tasks []model.PlanTask `json:"tasks"`
}

type submitResponse struct {
	Success   *bool  `json:"success"`
	Message   string `json:"message"`
	RowsAdded *int   `json:"rowsAdded"`
	Error     string `json:"error"`
}

// Submit sends tasks in one request. The slice is serialized before the
// request starts, so later changes by the caller are not sent.
func (c *Client) Submit(ctx context.Context, tasks []model.PlanTask) (Receipt, error) {
	if len(tasks) == 0 {
		return Receipt{}, &apperr.ValidationError{Message: "no tasks to upload"}
	}

	data, err := json.Marshal(submitRequest{Tasks: tasks})
	if err != nil {
		return Receipt{}, fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return Receipt{}, &apperr.ConfigError{
			Component: "ingest",
			Fields:    []string{"ingest.url"},
			Message:   fmt.Sprintf("invalid ingest url: %v", err),
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Receipt{}, &apperr.TransportError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	log := logger.With("url", c.url, "status", resp.StatusCode, "count", len(tasks), "mode", c.mode)

	if c.mode == ModeOptimistic {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			log.Warn("endpoint returned non-2xx; treating batch as dispatched")
		}
		return Receipt{
			Accepted:   true,
			Count:      len(tasks),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%d tasks dispatched", len(tasks)),
			Endpoint:   c.url,
			Mode:       c.mode,
		}, nil
	}

	if readErr != nil {
		return Receipt{}, &apperr.TransportError{Op: "upload", StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", readErr)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Receipt{}, &apperr.TransportError{
			Op:         "upload",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("endpoint rejected batch: %s", truncate(string(body), 200)),
		}
	}

	receipt := Receipt{
		Accepted:   true,
		Confirmed:  true,
		Count:      len(tasks),
		RowsAdded:  len(tasks),
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("%d tasks uploaded", len(tasks)),
		Endpoint:   c.url,
		Mode:       c.mode,
	}

	var parsed submitResponse
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &parsed) != nil {
		log.Debug("endpoint response not JSON; relying on status code")
		return receipt, nil
	}
	if parsed.Success != nil && !*parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = parsed.Message
		}
		if msg == "" {
			msg = "endpoint reported failure"
		}
		return Receipt{}, &apperr.TransportError{Op: "upload", StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	if parsed.RowsAdded != nil {
		receipt.RowsAdded = *parsed.RowsAdded
	}
	if parsed.Message != "" {
		receipt.Message = parsed.Message
	}
	return receipt, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
