package dataservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/empaques/backoffice/internal/domain/shared"
	"github.com/empaques/backoffice/internal/infrastructure/auth"
)

const (
	// maxResponseSize limits the response body size to prevent memory
	// exhaustion on a misbehaving upstream
	maxResponseSize = 10 * 1024 * 1024 // 10MB

	apiKeyHeader = "apikey"
)

// Config holds data service connection settings
type Config struct {
	BaseURL string
	APIKey  string
}

// Client is the low-level HTTP client for the remote relational data
// service. Every request carries the caller's bearer credential and the
// project API key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	tokens  auth.TokenSource
	log     *zap.Logger
}

// NewClient creates a data service client
func NewClient(cfg Config, httpClient *http.Client, tokens auth.TokenSource, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		tokens:  tokens,
		log:     log.Named("dataservice"),
	}
}

// requestError is a transport or non-2xx failure. Ports wrap it with the
// sentinel matching their failure taxonomy.
type requestError struct {
	Status  int
	Message string
}

func (e *requestError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// do issues a request and returns the raw response body. A non-2xx status
// is returned as a *requestError; the body of error responses is consulted
// for a server-provided message.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("dataservice: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("dataservice: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &requestError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &requestError{Message: "failed to read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &requestError{Status: resp.StatusCode, Message: serverMessage(raw)}
	}

	return raw, nil
}

// envelope is the standard response wrapper of the /quotations collection
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// decodeEnvelope unwraps the response envelope into out. A body that is not
// valid structured data yields shared.ErrMalformedResponse; success=false is
// a persistence failure carrying the server-provided message.
func decodeEnvelope(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request rejected by data service"
		}
		return fmt.Errorf("%w: %s", shared.ErrPersistence, msg)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return nil
}

// decodeRows unmarshals a bare-array table read into out
func decodeRows(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return nil
}

// serverMessage extracts an error message from an error response body, if
// one is present
func serverMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return "request failed"
}
