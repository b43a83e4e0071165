// Package archive uploads reading payloads to the content-addressed
// archive service. Archival is best-effort: the pipeline never fails
// because a payload could not be stored.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the Pinata JSON pinning API.
	DefaultEndpoint = "https://api.pinata.cloud/pinning/pinJSONToIPFS"

	requestTimeout       = 30 * time.Second
	defaultPinsPerSecond = 5
)

type (
	// Metrics records outcomes of archive operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
		ObserveSkip()
	}
)

// Payload is the archived JSON document, mirroring the reading.
type Payload struct {
	DeviceID        string  `json:"device_id"`
	TemperatureC    float64 `json:"temperature_c"`
	HumidityPercent float64 `json:"humidity_percent"`
	TimestampMs     int64   `json:"timestamp_ms"`
}

// Result is the outcome of a pin attempt. OK is false when the payload
// was not archived; the pipeline then carries an empty CID downstream.
type Result struct {
	CID string
	OK  bool
}

// Client pins reading payloads to the archive service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	rl         ratelimit.Limiter
	metrics    Metrics
	logger     *zap.Logger
}

// NewClient constructs an archive client. An empty token puts the client
// in degraded mode: every pin is skipped without any outbound call.
func NewClient(token, endpoint string, metrics Metrics, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if token == "" {
		logger.Warn("archive token not configured, readings will not be archived")
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		endpoint:   endpoint,
		token:      token,
		rl:         ratelimit.New(defaultPinsPerSecond),
		metrics:    metrics,
		logger:     logger,
	}
}

// Pin uploads the payload and returns its content identifier. Failures
// are logged and reported as a missing CID, never as an error.
func (c *Client) Pin(ctx context.Context, payload Payload) Result {
	if c.token == "" {
		c.metrics.ObserveSkip()
		return Result{}
	}

	c.rl.Take()

	started := time.Now()
	cid, err := c.pin(ctx, payload)
	c.metrics.Observe("pin", err, started)
	if err != nil {
		c.logger.Warn("archive pin failed", zap.String("device_id", payload.DeviceID), zap.Error(err))
		return Result{}
	}

	c.logger.Info("reading archived", zap.String("device_id", payload.DeviceID), zap.String("cid", cid))
	return Result{CID: cid, OK: true}
}

func (c *Client) pin(ctx context.Context, payload Payload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post payload: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", errors.New("response missing IpfsHash")
	}
	return out.IpfsHash, nil
}
