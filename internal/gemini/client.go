// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the HTTP client for the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Gemini client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotConfigured
	ErrTypeTimeout
	ErrTypeCancelled
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeEmptyStream
	ErrTypeRateLimited
)

// Sentinel errors for easy checking.
var (
	ErrNotConfigured = &ClientError{Type: ErrTypeNotConfigured, Message: "no API key configured"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCancelled     = &ClientError{Type: ErrTypeCancelled, Message: "request cancelled"}
	ErrEmptyStream   = &ClientError{Type: ErrTypeEmptyStream, Message: "stream produced no content"}
	ErrRateLimited   = &ClientError{Type: ErrTypeRateLimited, Message: "rate limited by server"}
)

// EmptyResponseText is shown when a well-formed reply carries no usable content.
const EmptyResponseText = "No response generated."

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Gemini client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: https://generativelanguage.googleapis.com/v1beta)
	BaseURL string

	// APIKey authenticates requests. Required for all calls.
	APIKey string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// DefaultModel to use if none specified (default: "gemini-2.0-flash")
	DefaultModel string

	// RequestsPerSecond caps outbound request rate (default: 2)
	RequestsPerSecond float64

	// Burst allows short spikes above the sustained rate (default: 4)
	Burst int

	// Generation tunes sampling; nil sends the server defaults.
	Generation *GenerationConfig
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "https://generativelanguage.googleapis.com/v1beta",
		Timeout:           30 * time.Second,
		DefaultModel:      "gemini-2.0-flash",
		RequestsPerSecond: 2,
		Burst:             4,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// StreamCallback is called for each chunk received during streaming.
type StreamCallback func(chunk StreamChunk)

// Client handles communication with the Gemini API.
//
// The Client is thread-safe for concurrent use. Outbound requests share a
// rate limiter so bursts of turns do not trip server-side quotas.
//
// Example:
//
//	client := gemini.NewClientWithConfig(&gemini.ClientConfig{APIKey: key})
//	reply, err := client.SendTurn(ctx, "", transcript, nil)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Gemini client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Gemini client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "gemini-2.0-flash"
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 2
	}
	if config.Burst == 0 {
		config.Burst = 4
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
	}
}

// Config returns the client configuration.
func (c *Client) Config() *ClientConfig {
	return c.config
}

// SetAPIKey updates the API key.
func (c *Client) SetAPIKey(key string) {
	c.config.APIKey = key
}

// SetModel updates the default model.
func (c *Client) SetModel(model string) {
	c.config.DefaultModel = model
}

// DefaultModel returns the current default model.
func (c *Client) DefaultModel() string {
	return c.config.DefaultModel
}

// IsConfigured reports whether the client has an API key set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// =============================================================================
// NON-STREAMING GENERATION
// =============================================================================

// Generate sends a generateContent request and returns the reply text.
// A well-formed 2xx response with no usable content yields EmptyResponseText
// rather than an error.
func (c *Client) Generate(ctx context.Context, model string, contents []Content) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	if model == "" {
		model = c.config.DefaultModel
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", mapContextErr(err)
	}

	reqBody := GenerateRequest{
		Contents:         contents,
		GenerationConfig: c.config.Generation,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	url := c.config.BaseURL + "/models/" + model + ":generateContent?key=" + c.config.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", mapTransportErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("generate request failed", resp)
	}

	var result GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Malformed success bodies degrade to the fallback text so a
		// flaky server never crashes a turn
		return EmptyResponseText, nil
	}

	text := result.Text()
	if text == "" {
		return EmptyResponseText, nil
	}
	return text, nil
}

// =============================================================================
// STREAMING GENERATION
// =============================================================================

// GenerateStream sends a streamGenerateContent request and calls the callback
// for each chunk. The callback is called synchronously in the order chunks are
// received. Returns the accumulated text when the stream completes.
func (c *Client) GenerateStream(ctx context.Context, model string, contents []Content, callback StreamCallback) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	if model == "" {
		model = c.config.DefaultModel
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", mapContextErr(err)
	}

	reqBody := GenerateRequest{
		Contents:         contents,
		GenerationConfig: c.config.Generation,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	// The shared httpClient timeout would sever the response body
	// mid-stream, so streaming uses a bare client and enforces the
	// budget with a deadline on the attempt's context instead.
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	streamClient := &http.Client{}

	url := c.config.BaseURL + "/models/" + model + ":streamGenerateContent?key=" + c.config.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := streamClient.Do(req)
	if err != nil {
		return "", mapTransportErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("stream request failed", resp)
	}

	reader := NewStreamReader(resp.Body)
	if err := reader.Process(ctx, func(chunk StreamChunk) {
		if callback != nil {
			callback(chunk)
		}
	}); err != nil {
		// Body reads severed by the context can surface transport
		// errors instead of the context error itself
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return reader.Accumulated(), mapContextErr(err)
	}

	if reader.Accumulated() == "" {
		return "", ErrEmptyStream
	}
	return reader.Accumulated(), nil
}

// =============================================================================
// TURN ORCHESTRATION
// =============================================================================

// SendTurn produces one assistant reply for the given contents.
//
// The streaming endpoint is tried first. If streaming fails for any reason
// other than cancellation, including a stream that delivers no content, one
// non-streaming attempt is made before giving up. Cancellation is never
// retried and always surfaces as ErrCancelled.
func (c *Client) SendTurn(ctx context.Context, model string, contents []Content, callback StreamCallback) (string, error) {
	text, err := c.GenerateStream(ctx, model, contents, callback)
	if err == nil {
		return text, nil
	}

	if errors.Is(err, ErrCancelled) {
		return "", ErrCancelled
	}
	if errors.Is(err, ErrNotConfigured) {
		return "", ErrNotConfigured
	}

	// Fall back to a single non-streaming attempt
	text, fallbackErr := c.Generate(ctx, model, contents)
	if fallbackErr != nil {
		if errors.Is(fallbackErr, ErrCancelled) {
			return "", ErrCancelled
		}
		// Surface the original streaming failure; it is usually the
		// more informative of the two
		return "", err
	}
	return text, nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// mapTransportErr converts an http.Client transport error into the
// client taxonomy.
func mapTransportErr(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled || errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
}

// mapContextErr converts a bare context error into the client taxonomy.
func mapContextErr(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return err
	}
}

// statusError builds a ClientError from a non-2xx response, preferring the
// server's own error message when the envelope parses.
func statusError(prefix string, resp *http.Response) error {
	var apiErr APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: apiErr.Error.Message,
		}
	}
	return &ClientError{
		Type:    ErrTypeInvalidResponse,
		Message: prefix + ": " + resp.Status,
	}
}

// IsCancelled checks if an error is a cancellation error.
func IsCancelled(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeCancelled
	}
	return errors.Is(err, context.Canceled)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsNotConfigured checks if an error means no API key is set.
func IsNotConfigured(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNotConfigured
	}
	return false
}
