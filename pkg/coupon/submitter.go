// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coupon implements the network operations a miner performs on
// its coupon records: submit, replace, delete and recheck, each fanned
// out to every eligible validator.
package coupon

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/bitkoop-network/miner-cli/pkg/apiclient"
	"github.com/bitkoop-network/miner-cli/pkg/constants"
	"github.com/bitkoop-network/miner-cli/pkg/fanout"
	"github.com/bitkoop-network/miner-cli/pkg/key"
	"github.com/bitkoop-network/miner-cli/pkg/metagraph"
	"github.com/bitkoop-network/miner-cli/pkg/models"
)

// SubmitterConfig caps targeting and health-check concurrency.
type SubmitterConfig struct {
	// MaxValidators caps how many validators one operation targets.
	// Zero targets all eligible validators.
	MaxValidators int
	MaxConcurrent int64
}

// ValidatorSource lists candidate validators. *metagraph.Registry is the
// production implementation.
type ValidatorSource interface {
	List(ctx context.Context, opts metagraph.ListOptions) ([]*models.Validator, error)
}

// Submitter wires discovery, selection and fan-out into the operations
// the CLI commands call.
type Submitter struct {
	cfg      SubmitterConfig
	registry ValidatorSource
	executor *fanout.Executor
	client   *apiclient.Client
	log      *zap.Logger
}

func NewSubmitter(cfg SubmitterConfig, registry ValidatorSource, executor *fanout.Executor, client *apiclient.Client, log *zap.Logger) *Submitter {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = constants.MaxConcurrentSubmits
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{
		cfg:      cfg,
		registry: registry,
		executor: executor,
		client:   client,
		log:      log,
	}
}

// SubmitCoupon broadcasts a new coupon record.
func (s *Submitter) SubmitCoupon(ctx context.Context, payload map[string]any, signer key.Signer) (*models.SubmissionSummary, error) {
	return s.execute(ctx, "PUT", constants.SubmissionPath, payload, signer)
}

// ReplaceCoupon broadcasts a replacement for an existing record.
func (s *Submitter) ReplaceCoupon(ctx context.Context, payload map[string]any, signer key.Signer) (*models.SubmissionSummary, error) {
	return s.execute(ctx, "PATCH", constants.SubmissionPath, payload, signer)
}

// DeleteCoupon broadcasts a deletion.
func (s *Submitter) DeleteCoupon(ctx context.Context, payload map[string]any, signer key.Signer) (*models.SubmissionSummary, error) {
	return s.execute(ctx, "POST", constants.DeletePath, payload, signer)
}

// RecheckCoupon asks every validator to re-verify a record.
func (s *Submitter) RecheckCoupon(ctx context.Context, payload map[string]any, signer key.Signer) (*models.SubmissionSummary, error) {
	return s.execute(ctx, "POST", constants.RecheckPath, payload, signer)
}

func (s *Submitter) execute(ctx context.Context, method, path string, payload map[string]any, signer key.Signer) (*models.SubmissionSummary, error) {
	start := time.Now()

	targets, err := s.targets(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	headers, err := key.SignedHeaders(signer, encoded)
	if err != nil {
		return nil, fmt.Errorf("signing payload: %w", err)
	}

	s.log.Info("broadcasting to validators",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("targets", len(targets)))

	results := s.executor.Execute(ctx, targets, fanout.Request{
		Method:  method,
		Path:    path,
		Payload: payload,
		Headers: headers,
	})
	summary := fanout.Summarize(results, time.Since(start))

	s.log.Info("broadcast complete",
		zap.Int("successful", summary.SuccessCount),
		zap.Int("total", summary.TotalCount),
		zap.Float64("success-rate", summary.SuccessRate),
		zap.Duration("elapsed", summary.TotalTime))
	return summary, nil
}

// targets discovers, selects and dedupes the validators one operation
// will hit. An empty eligible set is a distinct error, never an empty
// summary.
func (s *Submitter) targets(ctx context.Context) ([]*models.Validator, error) {
	validators, err := s.registry.List(ctx, metagraph.ListOptions{OnlyAvailable: true})
	if err != nil {
		return nil, err
	}
	targets := metagraph.Dedupe(metagraph.Select(validators, s.cfg.MaxValidators))
	if len(targets) == 0 {
		return nil, metagraph.ErrNoValidatorsAvailable
	}
	return targets, nil
}

// ValidatorHealth is one validator's liveness check outcome.
type ValidatorHealth struct {
	Endpoint     string
	Hotkey       string
	Stake        float64
	Healthy      bool
	ResponseTime time.Duration
	Error        string
}

// HealthReport aggregates a validator recheck run.
type HealthReport struct {
	Total     int
	Healthy   int
	Unhealthy int
	Elapsed   time.Duration
	Details   []ValidatorHealth
}

// HealthPercentage is the healthy share, 0 when nothing was checked.
func (r *HealthReport) HealthPercentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Healthy) / float64(r.Total) * 100
}

// RecheckValidators runs a liveness check across the current submission
// targets. A validator is healthy when its health endpoint answers below
// the health deadline.
func (s *Submitter) RecheckValidators(ctx context.Context) (*HealthReport, error) {
	start := time.Now()

	targets, err := s.targets(ctx)
	if err != nil {
		return nil, err
	}

	s.log.Info("rechecking validators", zap.Int("count", len(targets)))

	details := make([]ValidatorHealth, len(targets))
	sem := semaphore.NewWeighted(s.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	for i, v := range targets {
		wg.Add(1)
		go func(i int, v *models.Validator) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				details[i] = ValidatorHealth{
					Endpoint: v.EndpointURL(),
					Hotkey:   v.HotkeyShort(),
					Stake:    v.TotalStake,
					Error:    err.Error(),
				}
				return
			}
			defer sem.Release(1)
			details[i] = s.healthOne(ctx, v)
		}(i, v)
	}
	wg.Wait()

	report := &HealthReport{
		Total:   len(details),
		Elapsed: time.Since(start),
		Details: details,
	}
	for _, d := range details {
		if d.Healthy {
			report.Healthy++
		}
	}
	report.Unhealthy = report.Total - report.Healthy

	s.log.Info("validator recheck complete",
		zap.Int("healthy", report.Healthy),
		zap.Int("total", report.Total))
	return report, nil
}

func (s *Submitter) healthOne(ctx context.Context, v *models.Validator) ValidatorHealth {
	url := fmt.Sprintf("%s/%s", v.EndpointURL(), constants.HealthPath)
	start := time.Now()
	resp, err := s.client.Do(ctx, "GET", url, nil, nil)
	elapsed := time.Since(start)

	health := ValidatorHealth{
		Endpoint:     v.EndpointURL(),
		Hotkey:       v.HotkeyShort(),
		Stake:        v.TotalStake,
		ResponseTime: elapsed,
	}
	switch {
	case err != nil:
		health.Error = err.Error()
	case resp.StatusCode >= 400:
		health.Error = apiclient.ExtractError(resp)
	case elapsed >= constants.HealthyResponseTime:
		health.Error = "health check too slow"
	default:
		health.Healthy = true
	}
	return health
}
