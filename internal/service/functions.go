// SPDX-License-Identifier: Apache-2.0

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize caps how much of a backend reply is read.
const maxResponseSize = 10 * 1024 * 1024

// FunctionsClient invokes backend functions hosted behind an edge
// functions gateway at {baseURL}/functions/v1/{name}.
type FunctionsClient struct {
	baseURL    string
	apiKey     string
	authToken  string
	httpClient *http.Client
	logger     *zap.Logger
}

// FunctionsOption configures a FunctionsClient.
type FunctionsOption func(*FunctionsClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) FunctionsOption {
	return func(fc *FunctionsClient) { fc.httpClient = c }
}

// WithAuthToken sets the bearer token sent on every call. When unset the
// API key is used as the bearer token.
func WithAuthToken(token string) FunctionsOption {
	return func(fc *FunctionsClient) { fc.authToken = token }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) FunctionsOption {
	return func(fc *FunctionsClient) { fc.logger = l }
}

// NewFunctionsClient creates a client for the gateway at baseURL.
func NewFunctionsClient(baseURL, apiKey string, opts ...FunctionsOption) *FunctionsClient {
	fc := &FunctionsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc
}

// Invoke posts payload as JSON to the named function and decodes the reply.
func (c *FunctionsClient) Invoke(ctx context.Context, function string, payload any) (*Response, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", function, err)
	}

	url := fmt.Sprintf("%s/functions/v1/%s", c.baseURL, function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("invoking function", zap.String("function", function), zap.Int("payload_bytes", len(body)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", function, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", function, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(function, resp.StatusCode, respBody)
	}

	return Decode(function, respBody)
}

func (c *FunctionsClient) bearer() string {
	if c.authToken != "" {
		return c.authToken
	}
	return c.apiKey
}

// statusError builds an *Error from a non-2xx reply, keeping whatever
// message the body carried.
func statusError(function string, status int, body []byte) error {
	se := &Error{Function: function, Status: status}

	var shaped struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil {
		se.Message = shaped.Message
		if se.Message == "" {
			se.Message = shaped.Error
		}
		se.Details = shaped.Details
	}
	if se.Message == "" {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		se.Message = text
	}
	return se
}
