// Package commerce is the HTTP client for the remote commerce API that owns
// carts, orders, promotions, and customer records for this storefront.
package commerce

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
)

const (
	defaultTimeout  = 8 * time.Second
	storeCodeHeader = "X-Store-Code"
	apiKeyHeader    = "X-Api-Key"
)

// ErrUnavailable wraps transport-level failures: timeouts, connection errors,
// malformed payloads, and unexpected HTTP statuses. Callers surface a generic
// message instead of the underlying detail.
var ErrUnavailable = errors.New("commerce: unavailable")

// RejectionError carries a negative business outcome returned by the API. The
// message is intended to be shown to the customer.
type RejectionError struct {
	Message string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return "commerce: request rejected"
	}
	return fmt.Sprintf("commerce: rejected: %s", e.Message)
}

// AsRejection extracts a RejectionError when err represents one.
func AsRejection(err error) (*RejectionError, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}

// Auth identifies the calling customer towards the commerce API. Either a
// customer token or a guest token; both travel in the same bearer header.
type Auth struct {
	Token string
}

// Config parameterises the client.
type Config struct {
	BaseURL   string
	StoreCode string
	APIKey    string
	Timeout   time.Duration
	// HTTPClient overrides the transport (used in tests).
	HTTPClient *http.Client
}

// Client issues storefront calls against the remote commerce API.
type Client struct {
	baseURL   string
	storeCode string
	apiKey    string
	http      *http.Client
}

// NewClient constructs a Client, validating the base URL.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("commerce: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("commerce: invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:   baseURL,
		storeCode: strings.TrimSpace(cfg.StoreCode),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		http:      httpClient,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, auth Auth, body any, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(auth.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.storeCode != "" {
		req.Header.Set(storeCodeHeader, c.storeCode)
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var envelope statusEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if resp.StatusCode >= http.StatusBadRequest || !envelope.Status {
		return &RejectionError{Message: strings.TrimSpace(envelope.Message)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// statusEnvelope is the shared outer shape of every commerce API response.
type statusEnvelope struct {
	Status  bool   `json:"Status"`
	Message string `json:"Message"`
}
