// Package meshy is a thin client for the Meshy 3D generation REST API.
package meshy

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

	"github.com/takopi/backend/internal/metrics"
)

const DefaultBaseURL = "https://api.meshy.ai"

// ErrNotConfigured is returned by every call when no API key was supplied.
var ErrNotConfigured = errors.New("meshy: api key not configured")

// APIError is a non-2xx answer from Meshy.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meshy: %d %s", e.StatusCode, e.Message)
}

// Config configures the client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates a client; Timeout defaults to 30s and BaseURL to DefaultBaseURL.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	var out Balance
	if err := c.do(ctx, "balance", http.MethodGet, "/openapi/v1/balance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTextTo3D starts a preview or refine task and returns its task ID.
func (c *Client) CreateTextTo3D(ctx context.Context, req TextTo3DRequest) (string, error) {
	return c.createTask(ctx, "text-to-3d", "/openapi/v2/text-to-3d", req)
}

func (c *Client) GetTextTo3D(ctx context.Context, taskID string) (*Task, error) {
	return c.getTask(ctx, "text-to-3d", "/openapi/v2/text-to-3d/", taskID)
}

func (c *Client) CreateImageTo3D(ctx context.Context, req ImageTo3DRequest) (string, error) {
	return c.createTask(ctx, "image-to-3d", "/openapi/v1/image-to-3d", req)
}

func (c *Client) GetImageTo3D(ctx context.Context, taskID string) (*Task, error) {
	return c.getTask(ctx, "image-to-3d", "/openapi/v1/image-to-3d/", taskID)
}

func (c *Client) CreateRetexture(ctx context.Context, req RetextureRequest) (string, error) {
	return c.createTask(ctx, "retexture", "/openapi/v1/retexture", req)
}

func (c *Client) GetRetexture(ctx context.Context, taskID string) (*Task, error) {
	return c.getTask(ctx, "retexture", "/openapi/v1/retexture/", taskID)
}

func (c *Client) createTask(ctx context.Context, endpoint, path string, body interface{}) (string, error) {
	var out createTaskResponse
	if err := c.do(ctx, "create-"+endpoint, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	if out.Result == "" {
		return "", fmt.Errorf("meshy: %s response carried no task id", endpoint)
	}
	return out.Result, nil
}

func (c *Client) getTask(ctx context.Context, endpoint, prefix, taskID string) (*Task, error) {
	if taskID == "" {
		return nil, errors.New("meshy: empty task id")
	}
	var out Task
	if err := c.do(ctx, "get-"+endpoint, http.MethodGet, prefix+url.PathEscape(taskID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out interface{}) (err error) {
	if !c.Configured() {
		return ErrNotConfigured
	}

	start := time.Now()
	defer func() { metrics.RecordMeshyCall(endpoint, err, time.Since(start)) }()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("meshy: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("meshy: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("meshy: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("meshy: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("meshy: decode response: %w", err)
		}
	}
	return nil
}

func newAPIError(status int, raw []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(raw, &payload) == nil {
		msg = payload.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
