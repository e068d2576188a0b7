// Package client is a typed HTTP client for the document chat API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docchat/web/types"

	"go.uber.org/zap"
)

// Fallback messages used when an error response carries no detail.
const (
	fallbackModels = "Failed to load models"
	fallbackUpload = "Upload failed"
	fallbackChat   = "Chat failed"
	fallbackDelete = "Delete failed"
)

// APIError is a non-2xx or malformed response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 3 * time.Minute},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListModels fetches GET /models.
func (c *Client) ListModels(ctx context.Context) ([]types.Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}

	var out types.ModelsResponse
	if err := c.do(req, fallbackModels, &out); err != nil {
		return nil, err
	}
	// A list without "data" is a failed load, not an empty one.
	if out.Data == nil {
		return nil, &APIError{StatusCode: http.StatusOK, Message: fallbackModels}
	}
	return out.Data, nil
}

// Upload posts r as the multipart field "file" named filename.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*types.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out types.UploadResponse
	if err := c.do(req, fallbackUpload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat posts a question about a store.
func (c *Client) Chat(ctx context.Context, in types.ChatRequest) (*types.ChatResponse, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out types.ChatResponse
	if err := c.do(req, fallbackChat, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteStore issues DELETE /store/{id}.
func (c *Client) DeleteStore(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/store/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, fallbackDelete, nil)
}

func (c *Client) do(req *http.Request, fallback string, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response of %s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body, fallback)}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response of %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// errorMessage prefers "detail", then "error", then fallback.
func errorMessage(body []byte, fallback string) string {
	var e types.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return fallback
	}
	if e.Detail != "" {
		return e.Detail
	}
	if e.Error != "" {
		return e.Error
	}
	return fallback
}
