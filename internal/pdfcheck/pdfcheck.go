// SPDX-License-Identifier: Apache-2.0

// Package pdfcheck submits court filings to a remote PDF compliance
// validator and runs a local structural preflight before upload.
package pdfcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single validation request.
const DefaultTimeout = 60 * time.Second

// Referral text shown when the validator is too slow.
const TimeoutDetails = "The validation process took too long. Please try again or use the professional workaround."

var (
	// ErrTimeout is returned when validation exceeds the client deadline.
	ErrTimeout = errors.New("validation timeout")
	// ErrNetwork wraps transport failures other than a timeout.
	ErrNetwork = errors.New("network error")
)

// Result is a successful validation outcome.
type Result struct {
	FontCheck      string `json:"font_check"`
	PDFAConversion string `json:"pdfa_conversion"`
	DownloadURL    string `json:"download_url"`
}

// ValidationError is a failure reported by the validator.
type ValidationError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pdf validation failed (status %d): %s: %s", e.Status, e.Message, e.Details)
}

type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a Client posting to endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate uploads the file as the multipart field "file".
func (c *Client) Validate(ctx context.Context, fileName string, file io.Reader) (*Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("pdf validation timed out", zap.String("file", fileName), zap.Duration("timeout", c.timeout))
			return nil, fmt.Errorf("%w: %s", ErrTimeout, TimeoutDetails)
		}
		c.logger.Error("pdf validation request failed", zap.String("file", fileName), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, TimeoutDetails)
		}
		return nil, fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ve := &ValidationError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, ve)
		if ve.Message == "" {
			ve.Message = "Validation failed"
		}
		if ve.Details == "" {
			ve.Details = "Unknown error occurred during PDF validation"
		}
		return nil, ve
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode validation result: %w", err)
	}
	c.logger.Info("pdf validated", zap.String("file", fileName), zap.String("font_check", res.FontCheck))
	return &res, nil
}
