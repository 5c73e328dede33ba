// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package api

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// RetryPolicy controls how transient fetch failures are retried
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// RetryingFetcher retries transient failures of another Fetcher with
// exponential backoff. Unauthorized responses, bad requests, malformed
// pages and cancellations end the loop immediately.
type RetryingFetcher struct {
	fetcher Fetcher
	policy  RetryPolicy
	logger  *zap.Logger
}

// NewRetryingFetcher wraps fetcher with the given policy
func NewRetryingFetcher(fetcher Fetcher, policy RetryPolicy, logger *zap.Logger) *RetryingFetcher {
	if policy.MaxTries == 0 {
		policy.MaxTries = DefaultRetryPolicy().MaxTries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingFetcher{fetcher: fetcher, policy: policy, logger: logger}
}

// FetchWithRetry fetches one page through fetcher using policy
func FetchWithRetry(ctx context.Context, fetcher Fetcher, req DocumentsRequest, policy RetryPolicy, logger *zap.Logger) (*DocumentsResponse, error) {
	return NewRetryingFetcher(fetcher, policy, logger).FetchDocuments(ctx, req)
}

// FetchDocuments fetches a page, retrying transient failures
func (r *RetryingFetcher) FetchDocuments(ctx context.Context, req DocumentsRequest) (*DocumentsResponse, error) {
	b := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		b.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		b.MaxInterval = r.policy.MaxInterval
	}

	attempt := 0
	operation := func() (*DocumentsResponse, error) {
		attempt++
		resp, err := r.fetcher.FetchDocuments(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		r.logger.Warn("Documents fetch failed, will retry",
			zap.Int("attempt", attempt),
			zap.Int("page", req.Page),
			zap.Error(err),
		)
		return nil, err
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.policy.MaxTries),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) && !errors.Is(err, ErrCanceled) {
			return nil, &CancellationError{Cause: err}
		}
		return nil, err
	}
	return resp, nil
}
