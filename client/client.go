// Package client is a Go client for the catalog HTTP API.
//
//	c := client.New("http://localhost:8080", client.WithTimeout(5*time.Second))
//	result, err := c.Generate(ctx, client.Count(1000))
//	products, err := c.Search(ctx, "phone")
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetryWait = 200 * time.Millisecond
)

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	SKU           string          `json:"sku"`
}

type GenerateResult struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Inserted  int    `json:"inserted"`
	Skipped   int    `json:"skipped"`
}

type Health struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	retryWait  time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetries sets the total attempts for idempotent reads. Only transport
// failures and 5xx responses are retried, with exponential backoff.
func WithRetries(attempts int, wait time.Duration) Option {
	return func(c *Client) {
		c.retries = attempts
		c.retryWait = wait
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		retries:    1,
		retryWait:  defaultRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Count is a helper for the optional count of Generate.
func Count(n int) *int {
	return &n
}

// Generate asks the server to add count random products. A nil count uses
// the server's default.
func (c *Client) Generate(ctx context.Context, count *int) (GenerateResult, error) {
	body := map[string]any{}
	if count != nil {
		body["count"] = *count
	}

	result := GenerateResult{}
	err := c.do(ctx, http.MethodPost, "/products/generate", nil, body, &result, 1)
	return result, err
}

func (c *Client) List(ctx context.Context) ([]Product, error) {
	products := []Product{}
	err := c.do(ctx, http.MethodGet, "/products", nil, nil, &products, c.retries)
	return products, err
}

func (c *Client) Search(ctx context.Context, term string) ([]Product, error) {
	products := []Product{}
	err := c.do(ctx, http.MethodGet, "/products/search", url.Values{"q": {term}}, nil, &products, c.retries)
	return products, err
}

func (c *Client) Count(ctx context.Context) (int64, error) {
	response := struct {
		Count int64 `json:"count"`
	}{}
	err := c.do(ctx, http.MethodGet, "/products/count", nil, nil, &response, c.retries)
	return response.Count, err
}

// Clear deletes every product and returns the server's message.
func (c *Client) Clear(ctx context.Context) (string, error) {
	response := struct {
		Message string `json:"message"`
	}{}
	err := c.do(ctx, http.MethodDelete, "/products", nil, nil, &response, 1)
	return response.Message, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/products/"+strconv.FormatInt(id, 10), nil, nil, nil, 1)
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	health := Health{}
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &health, c.retries)
	return health, err
}

func (c *Client) do(ctx context.Context, method string, path string, query url.Values, body any, out any, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		retryable, err := c.send(ctx, method, path, query, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == attempts {
			break
		}

		backoff := time.Duration(float64(c.retryWait) * math.Pow(2, float64(attempt-1)))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

func (c *Client) send(ctx context.Context, method string, path string, query url.Values, body any, out any) (bool, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("catalog api: encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return false, fmt.Errorf("catalog api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A cancelled caller is not worth retrying.
		return ctx.Err() == nil, fmt.Errorf("catalog api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("catalog api: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode >= 500, newAPIError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("catalog api: decode response: %w", err)
	}

	return false, nil
}

func newAPIError(statusCode int, raw []byte) error {
	body := struct {
		Error string `json:"error"`
	}{}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(statusCode)
	}

	return &APIError{StatusCode: statusCode, Message: body.Error}
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
