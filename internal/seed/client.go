package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/childhealth/pkg/logger"
)

// Submission outcomes.
const (
	outcomeCreated   = "created"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)

// HTTPClient wraps http.Client with the service base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a new HTTP client with timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// Post sends body as JSON and returns the status code.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// GetJSON decodes the response of GET path into v.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// submit posts every request with at most workers in flight.
func submit(ctx context.Context, client *HTTPClient, reqs []Request, workers int, verbose bool, stats *Stats) error {
	log := logger.Get()
	var created, duplicate, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))

	for _, r := range reqs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome := outcomeFailed
			status, err := client.Post(gctx, "/assessments", r)
			switch {
			case err != nil:
				log.Warn(gctx, "submission failed", logger.String("id", r.ID), logger.Error(err))
			case status == http.StatusCreated:
				outcome = outcomeCreated
			case status == http.StatusConflict:
				outcome = outcomeDuplicate
			}

			switch outcome {
			case outcomeCreated:
				created.Add(1)
			case outcomeDuplicate:
				duplicate.Add(1)
			default:
				failed.Add(1)
			}
			if verbose {
				log.Info(gctx, "survey submitted",
					logger.String("id", r.ID),
					logger.String("region", r.Region),
					logger.Int("status", status),
					logger.String("outcome", outcome),
				)
			}
			return nil
		})
	}
	err := g.Wait()

	stats.Created = int(created.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Failed = int(failed.Load())
	if err == nil {
		err = ctx.Err()
	}
	return err
}
