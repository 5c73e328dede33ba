// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes API client failures
type ErrorKind string

const (
	KindHTTP        ErrorKind = "HTTP"        // non-2xx response
	KindNetwork     ErrorKind = "NETWORK"     // transport failure, no response
	KindShape       ErrorKind = "SHAPE"       // response body does not match the contract
	KindUnavailable ErrorKind = "UNAVAILABLE" // circuit breaker refused the call
)

// ErrCanceled matches any fetch aborted by its caller
var ErrCanceled = errors.New("request canceled")

// ErrInvalidRequest wraps request validation failures, which are caller bugs
var ErrInvalidRequest = errors.New("invalid documents request")

// APIError is returned for HTTP, network and response-shape failures
type APIError struct {
	Kind       ErrorKind
	Status     int    // 0 when no response was received
	StatusText string // e.g. "401 Unauthorized"
	Body       any    // parsed JSON body when available, raw text otherwise
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s error", e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap allows errors.Is and errors.As to work
func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed later
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindUnavailable:
		return true
	case KindHTTP:
		return e.Status == http.StatusTooManyRequests || e.Status >= 500
	default:
		return false
	}
}

// CancellationError is returned when the caller aborted an in-flight fetch.
// It is an expected outcome, not a failure.
type CancellationError struct {
	Cause error
}

// Error implements the error interface
func (e *CancellationError) Error() string {
	if e.Cause != nil {
		return "request canceled: " + e.Cause.Error()
	}
	return "request canceled"
}

// Unwrap returns the context error that caused the cancellation
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrCanceled
func (e *CancellationError) Is(target error) bool {
	return target == ErrCanceled
}

// IsCanceled reports whether err is a caller cancellation
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// IsUnauthorized reports whether err is a 401 from the documents API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsRetryable reports whether err is worth retrying
func IsRetryable(err error) bool {
	if err == nil || IsCanceled(err) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
