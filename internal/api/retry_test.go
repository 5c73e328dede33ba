// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher returns queued results in order
type scriptedFetcher struct {
	results []error
	calls   int
}

func (s *scriptedFetcher) FetchDocuments(ctx context.Context, req DocumentsRequest) (*DocumentsResponse, error) {
	s.calls++
	if len(s.results) > 0 {
		err := s.results[0]
		s.results = s.results[1:]
		if err != nil {
			return nil, err
		}
	}
	return &DocumentsResponse{Pagination: Pagination{CurrentPage: req.Page, TotalPages: 1}}, nil
}

func fastPolicy(tries uint) RetryPolicy {
	return RetryPolicy{MaxTries: tries, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	fetcher := &scriptedFetcher{results: []error{
		&APIError{Kind: KindHTTP, Status: http.StatusServiceUnavailable},
		&APIError{Kind: KindNetwork},
		nil,
	}}

	resp, err := FetchWithRetry(context.Background(), fetcher, validRequest(3), fastPolicy(3), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Pagination.CurrentPage)
	assert.Equal(t, 3, fetcher.calls)
}

func TestRetry_UnauthorizedShortCircuits(t *testing.T) {
	fetcher := &scriptedFetcher{results: []error{
		&APIError{Kind: KindHTTP, Status: http.StatusUnauthorized},
		nil,
	}}

	_, err := FetchWithRetry(context.Background(), fetcher, validRequest(1), fastPolicy(5), nil)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 1, fetcher.calls)
}

func TestRetry_ShapeErrorIsPermanent(t *testing.T) {
	fetcher := &scriptedFetcher{results: []error{&APIError{Kind: KindShape, Message: "documents must be an array"}}}

	_, err := FetchWithRetry(context.Background(), fetcher, validRequest(1), fastPolicy(5), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindShape, apiErr.Kind)
	assert.Equal(t, 1, fetcher.calls)
}

func TestRetry_GivesUpAfterMaxTries(t *testing.T) {
	failure := &APIError{Kind: KindHTTP, Status: http.StatusInternalServerError}
	fetcher := &scriptedFetcher{results: []error{failure, failure, failure, failure}}

	_, err := FetchWithRetry(context.Background(), fetcher, validRequest(1), fastPolicy(2), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, 2, fetcher.calls)
}

func TestRetry_CancellationIsNotRetried(t *testing.T) {
	fetcher := &scriptedFetcher{results: []error{&CancellationError{Cause: context.Canceled}}}

	_, err := FetchWithRetry(context.Background(), fetcher, validRequest(1), fastPolicy(5), nil)
	assert.True(t, IsCanceled(err))
	assert.Equal(t, 1, fetcher.calls)
}

func TestRetry_ContextCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &scriptedFetcher{results: []error{&APIError{Kind: KindNetwork}, &APIError{Kind: KindNetwork}}}
	policy := RetryPolicy{MaxTries: 5, InitialInterval: time.Hour, MaxInterval: time.Hour}
	_, err := FetchWithRetry(ctx, fetcher, validRequest(1), policy, nil)
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

func TestNewRetryingFetcher_Defaults(t *testing.T) {
	r := NewRetryingFetcher(&scriptedFetcher{}, RetryPolicy{}, nil)
	assert.Equal(t, DefaultRetryPolicy().MaxTries, r.policy.MaxTries)
	assert.NotNil(t, r.logger)
}
