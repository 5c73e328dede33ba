// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"github.com/tejzpr/mimir-graph/internal/auth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DocumentsPath is the documents listing endpoint, relative to the base URL
	DocumentsPath = "/v3/documents/documents"

	tracerName      = "github.com/tejzpr/mimir-graph/internal/api"
	maxResponseBody = 64 << 20
)

// Fetcher is anything that can return a page of documents
type Fetcher interface {
	FetchDocuments(ctx context.Context, req DocumentsRequest) (*DocumentsResponse, error)
}

// Client fetches document pages from the documents API
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client
	validate   *validator.Validate
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	tracer     trace.Tracer
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCircuitBreaker stops calling the backend after consecutive retryable
// failures and probes it again once cooldown has elapsed. Auth failures,
// bad requests and cancellations never trip the breaker.
func WithCircuitBreaker(name string, consecutiveFailures uint32, cooldown time.Duration) ClientOption {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= consecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !IsRetryable(err)
			},
		})
	}
}

// NewClient creates a new documents API client
func NewClient(baseURL string, tokens auth.TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		validate: validator.New(),
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDocuments requests one page of documents.
// Errors are *APIError, *CancellationError, or wrap ErrInvalidRequest.
func (c *Client) FetchDocuments(ctx context.Context, req DocumentsRequest) (*DocumentsResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	ctx, span := c.tracer.Start(ctx, "api.FetchDocuments", trace.WithAttributes(
		attribute.Int("documents.page", req.Page),
		attribute.Int("documents.limit", req.Limit),
		attribute.StringSlice("documents.container_tags", req.ContainerTags),
	))
	defer span.End()

	started := time.Now()
	resp, err := c.execute(ctx, req)
	if err != nil {
		if IsCanceled(err) {
			span.SetAttributes(attribute.Bool("documents.canceled", true))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("documents.count", len(resp.Documents)))
	c.logger.Debug("Fetched documents page",
		zap.Int("page", resp.Pagination.CurrentPage),
		zap.Int("totalPages", resp.Pagination.TotalPages),
		zap.Int("count", len(resp.Documents)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return resp, nil
}

// execute routes the call through the circuit breaker when one is configured
func (c *Client) execute(ctx context.Context, req DocumentsRequest) (*DocumentsResponse, error) {
	if c.breaker == nil {
		return c.do(ctx, req)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.do(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &APIError{Kind: KindUnavailable, Message: "circuit breaker open", Err: err}
		}
		return nil, err
	}
	return result.(*DocumentsResponse), nil
}

func (c *Client) do(ctx context.Context, req DocumentsRequest) (*DocumentsResponse, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInvalidRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+DocumentsPath, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			// Without a session there is nothing to retry
			return nil, &APIError{
				Kind:       KindHTTP,
				Status:     http.StatusUnauthorized,
				StatusText: "401 Unauthorized",
				Message:    "bearer token unavailable",
				Err:        err,
			}
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if canceled(ctx, err) {
			return nil, &CancellationError{Cause: context.Canceled}
		}
		return nil, &APIError{Kind: KindNetwork, Message: "failed to make request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if canceled(ctx, err) {
			return nil, &CancellationError{Cause: context.Canceled}
		}
		return nil, &APIError{Kind: KindNetwork, Status: resp.StatusCode, StatusText: resp.Status, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		parsed := parseBody(body)
		return nil, &APIError{
			Kind:       KindHTTP,
			Status:     resp.StatusCode,
			StatusText: resp.Status,
			Body:       parsed,
			Message:    messageFrom(parsed),
		}
	}

	return c.decodeDocumentsResponse(body)
}

// decodeDocumentsResponse validates the response shape before accepting it.
// A page that does not match the contract is rejected as a whole.
func (c *Client) decodeDocumentsResponse(body []byte) (*DocumentsResponse, error) {
	var raw struct {
		Documents  json.RawMessage `json:"documents"`
		Pagination json.RawMessage `json:"pagination"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, shapeError("response is not a JSON object", err)
	}
	if jsonKind(raw.Documents) != '[' {
		return nil, shapeError("documents must be an array", nil)
	}
	if jsonKind(raw.Pagination) != '{' {
		return nil, shapeError("pagination must be an object", nil)
	}

	var out DocumentsResponse
	if err := json.Unmarshal(raw.Documents, &out.Documents); err != nil {
		return nil, shapeError("malformed documents", err)
	}
	if err := json.Unmarshal(raw.Pagination, &out.Pagination); err != nil {
		return nil, shapeError("malformed pagination", err)
	}
	if err := c.validate.Struct(out.Pagination); err != nil {
		return nil, shapeError("invalid pagination", err)
	}

	for i := range out.Documents {
		doc := &out.Documents[i]
		if doc.ID == "" {
			return nil, shapeError(fmt.Sprintf("document at index %d has no id", i), nil)
		}
		for j := range doc.MemoryEntries {
			entry := &doc.MemoryEntries[j]
			if entry.ID == "" {
				return nil, shapeError(fmt.Sprintf("memory entry %d of document %s has no id", j, doc.ID), nil)
			}
			if entry.DocumentID == "" {
				entry.DocumentID = doc.ID
			}
		}
	}

	return &out, nil
}

func shapeError(message string, err error) error {
	return &APIError{Kind: KindShape, Message: message, Err: err}
}

// jsonKind returns the first significant byte of a raw JSON value, 0 if absent
func jsonKind(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// parseBody returns the decoded JSON body, or the trimmed text when it is not JSON
func parseBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		return parsed
	}
	return strings.TrimSpace(string(body))
}

// messageFrom extracts a human-readable message from an error body
func messageFrom(body any) string {
	switch v := body.(type) {
	case map[string]any:
		for _, key := range []string{"message", "error", "details"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	case string:
		return v
	}
	return ""
}

func canceled(ctx context.Context, err error) bool {
	return errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled)
}
