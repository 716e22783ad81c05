// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package fanout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitkoop-network/miner-cli/pkg/apiclient"
	"github.com/bitkoop-network/miner-cli/pkg/models"
)

func validatorFor(t *testing.T, serverURL string) *models.Validator {
	t.Helper()
	parsed, err := url.Parse(serverURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(parsed.Port())
	require.NoError(t, err)
	return &models.Validator{IP: parsed.Hostname(), Port: port, Status: models.StatusConfirmed}
}

func acceptingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExecuteEmptyValidatorList(t *testing.T) {
	client := apiclient.New(apiclient.Config{MaxRetries: 0}, nil)
	executor := NewExecutor(Config{MaxConcurrent: 5}, client, nil)

	results := executor.Execute(context.Background(), nil, Request{Method: http.MethodPut, Path: "coupons"})
	assert.Empty(t, results)
}

func TestExecuteMixedOutcomes(t *testing.T) {
	// Three validators accept, one hangs past the request deadline, one
	// fails with a 500 once and accepts the retry.
	var flakyCalls atomic.Int32
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if flakyCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	t.Cleanup(flaky.Close)

	hanging := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	t.Cleanup(hanging.Close)

	validators := []*models.Validator{
		validatorFor(t, acceptingServer(t).URL),
		validatorFor(t, acceptingServer(t).URL),
		validatorFor(t, hanging.URL),
		validatorFor(t, acceptingServer(t).URL),
		validatorFor(t, flaky.URL),
	}

	client := apiclient.New(apiclient.Config{
		Timeout:    100 * time.Millisecond,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}, nil)
	executor := NewExecutor(Config{MaxConcurrent: 10}, client, nil)

	start := time.Now()
	results := executor.Execute(context.Background(), validators, Request{
		Method:  http.MethodPut,
		Path:    "coupons",
		Payload: map[string]string{"code": "SAVE10"},
	})
	summary := Summarize(results, time.Since(start))

	require.Len(t, results, len(validators))
	assert.Equal(t, 5, summary.TotalCount)
	assert.Equal(t, 4, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	assert.InDelta(t, 80.0, summary.SuccessRate, 1e-9)
	assert.True(t, summary.Success())

	// results stay aligned with the validator order
	for i, v := range validators {
		assert.Equal(t, v.EndpointURL(), results[i].Endpoint)
	}
	assert.Equal(t, models.OutcomeTimeout, results[2].Outcome)
	assert.Equal(t, int32(2), flakyCalls.Load())
	require.NotNil(t, summary.AvgResponseTime)
	// the hanging validator never counts toward the average
	assert.Less(t, *summary.AvgResponseTime, 100*time.Millisecond)
}

func TestExecuteBoundsInFlightRequests(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	t.Cleanup(server.Close)

	validators := make([]*models.Validator, 20)
	for i := range validators {
		validators[i] = validatorFor(t, server.URL)
	}

	client := apiclient.New(apiclient.Config{MaxRetries: 0}, nil)
	executor := NewExecutor(Config{MaxConcurrent: 3}, client, nil)

	results := executor.Execute(context.Background(), validators, Request{Method: http.MethodGet, Path: "health"})
	require.Len(t, results, 20)
	for _, r := range results {
		assert.True(t, r.Success)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestExecuteRejectedSubmission(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "duplicate coupon code"}`))
	}))
	t.Cleanup(server.Close)

	client := apiclient.New(apiclient.Config{MaxRetries: 0}, nil)
	executor := NewExecutor(Config{MaxConcurrent: 5}, client, nil)

	results := executor.Execute(context.Background(), []*models.Validator{validatorFor(t, server.URL)}, Request{
		Method: http.MethodPut,
		Path:   "coupons",
	})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, models.OutcomeFailed, results[0].Outcome)
	assert.Equal(t, "duplicate coupon code", results[0].Error)
}

func TestExecuteUnreachableEndpoint(t *testing.T) {
	client := apiclient.New(apiclient.Config{Timeout: time.Second, MaxRetries: 0}, nil)
	executor := NewExecutor(Config{MaxConcurrent: 5}, client, nil)

	down := &models.Validator{IP: "127.0.0.1", Port: 1, Status: models.StatusConfirmed}
	results := executor.Execute(context.Background(), []*models.Validator{down}, Request{
		Method: http.MethodPut,
		Path:   "coupons",
	})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, models.OutcomeConnectionError, results[0].Outcome)
	assert.NotEmpty(t, results[0].Error)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil, 0)
	assert.Equal(t, 0, summary.TotalCount)
	assert.Equal(t, 0.0, summary.SuccessRate)
	assert.Nil(t, summary.AvgResponseTime)
	assert.False(t, summary.Success())
}

func TestSummarizeAveragesSuccessesOnly(t *testing.T) {
	fast := 100 * time.Millisecond
	slow := 300 * time.Millisecond
	failed := 5 * time.Second
	results := []models.SubmissionResult{
		{Success: true, Outcome: models.OutcomeSuccess, ResponseTime: &fast},
		{Success: true, Outcome: models.OutcomeSuccess, ResponseTime: &slow},
		{Success: false, Outcome: models.OutcomeTimeout, ResponseTime: &failed},
	}

	summary := Summarize(results, time.Second)
	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	assert.InDelta(t, 66.666, summary.SuccessRate, 0.01)
	require.NotNil(t, summary.AvgResponseTime)
	assert.Equal(t, 200*time.Millisecond, *summary.AvgResponseTime)
}
