// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fanout issues one signed action to many validators at once and
// reduces the per-node outcomes into a single summary.
package fanout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/bitkoop-network/miner-cli/pkg/apiclient"
	"github.com/bitkoop-network/miner-cli/pkg/constants"
	"github.com/bitkoop-network/miner-cli/pkg/models"
)

// Request is the action fanned out to every selected validator.
type Request struct {
	Method  string
	Path    string
	Payload any
	Headers map[string]string
}

// Config bounds how many requests are in flight at once per Execute call.
type Config struct {
	MaxConcurrent int64
}

// Executor submits the same request to every validator endpoint with a
// bounded number of in-flight requests. No single validator's failure
// aborts the batch; every validator yields exactly one result.
type Executor struct {
	cfg    Config
	client *apiclient.Client
	log    *zap.Logger
}

func NewExecutor(cfg Config, client *apiclient.Client, log *zap.Logger) *Executor {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = constants.MaxConcurrentSubmits
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		cfg:    cfg,
		client: client,
		log:    log,
	}
}

// Execute fans the request out. An empty validator list returns an empty
// result slice without issuing any request; the caller is responsible for
// reporting that condition distinctly.
func (e *Executor) Execute(ctx context.Context, validators []*models.Validator, req Request) []models.SubmissionResult {
	if len(validators) == 0 {
		return nil
	}

	e.log.Info("executing fan-out",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("validators", len(validators)),
		zap.Int64("max-in-flight", e.cfg.MaxConcurrent))

	results := make([]models.SubmissionResult, len(validators))
	sem := semaphore.NewWeighted(e.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for i, v := range validators {
		wg.Add(1)
		go func(i int, endpoint string) {
			defer wg.Done()
			defer func() {
				// A panic in one request must cost only that
				// validator's result, never the batch.
				if r := recover(); r != nil {
					results[i] = models.SubmissionResult{
						Endpoint: endpoint,
						Outcome:  models.OutcomeConnectionError,
						Error:    fmt.Sprintf("unexpected error: %v", r),
					}
				}
			}()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = models.SubmissionResult{
					Endpoint: endpoint,
					Outcome:  models.OutcomeConnectionError,
					Error:    err.Error(),
				}
				return
			}
			defer sem.Release(1)
			results[i] = e.submitOne(ctx, endpoint, req)
		}(i, v.EndpointURL())
	}
	wg.Wait()

	return results
}

func (e *Executor) submitOne(ctx context.Context, endpoint string, req Request) models.SubmissionResult {
	url := strings.TrimSuffix(endpoint, "/") + "/" + req.Path
	start := time.Now()

	resp, err := e.client.Do(ctx, req.Method, url, req.Payload, req.Headers)
	elapsed := time.Since(start)

	if err != nil {
		outcome := models.OutcomeConnectionError
		if apiclient.IsTimeout(err) {
			outcome = models.OutcomeTimeout
		}
		e.log.Debug("submission failed",
			zap.String("endpoint", endpoint),
			zap.String("outcome", outcome.String()),
			zap.Error(err))
		return models.SubmissionResult{
			Endpoint:     endpoint,
			Outcome:      outcome,
			ResponseTime: &elapsed,
			Error:        err.Error(),
		}
	}

	if resp.StatusCode < 400 && resp.SuccessField() {
		e.log.Debug("submission accepted",
			zap.String("endpoint", endpoint),
			zap.Duration("response-time", elapsed))
		return models.SubmissionResult{
			Endpoint:     endpoint,
			Success:      true,
			Outcome:      models.OutcomeSuccess,
			ResponseTime: &elapsed,
			RawResponse:  resp.Body,
		}
	}

	errMsg := apiclient.ExtractError(resp)
	e.log.Debug("submission rejected",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("error", errMsg))
	return models.SubmissionResult{
		Endpoint:     endpoint,
		Outcome:      models.OutcomeFailed,
		ResponseTime: &elapsed,
		Error:        errMsg,
		RawResponse:  resp.Body,
	}
}
