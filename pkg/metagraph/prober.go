// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package metagraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/bitkoop-network/miner-cli/pkg/constants"
	"github.com/bitkoop-network/miner-cli/pkg/models"
)

// compatKeywords mark a validator's API document as belonging to this
// subnet's protocol.
var compatKeywords = []string{"bitkoop", "coupon"}

// ProberConfig bounds probe concurrency and per-probe time.
type ProberConfig struct {
	Timeout       time.Duration
	MaxConcurrent int64
}

// Prober checks candidate validators for liveness and protocol
// compatibility by fetching their API descriptor. It mutates probe state
// on the validators in place and never touches the snapshot list itself.
type Prober struct {
	cfg  ProberConfig
	http *http.Client
	log  *zap.Logger
}

func NewProber(cfg ProberConfig, log *zap.Logger) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.ProbeTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = constants.MaxConcurrentProbes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Prober{
		cfg:  cfg,
		http: &http.Client{},
		log:  log,
	}
}

// Probe checks all reachable validators concurrently, bounded by the
// configured in-flight limit. Unroutable validators are marked
// unavailable directly, without a network round trip.
func (p *Prober) Probe(ctx context.Context, validators []*models.Validator) {
	candidates := make([]*models.Validator, 0, len(validators))
	for _, v := range validators {
		if !v.IsReachable() {
			compatible := false
			v.SetProbeResult(models.StatusUnavailable, &compatible, nil, "unroutable address", time.Now())
			continue
		}
		candidates = append(candidates, v)
	}
	if len(candidates) == 0 {
		p.log.Warn("no reachable validators to probe")
		return
	}

	p.log.Info("probing validators",
		zap.Int("count", len(candidates)),
		zap.Int64("max-in-flight", p.cfg.MaxConcurrent))

	sem := semaphore.NewWeighted(p.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	for _, v := range candidates {
		wg.Add(1)
		go func(v *models.Validator) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				compatible := false
				v.SetProbeResult(models.StatusNetworkError, &compatible, nil, err.Error(), time.Now())
				return
			}
			defer sem.Release(1)
			p.probeOne(ctx, v)
		}(v)
	}
	wg.Wait()

	confirmed := 0
	for _, v := range candidates {
		if v.Status == models.StatusConfirmed {
			confirmed++
		}
	}
	p.log.Info("probe complete",
		zap.Int("confirmed", confirmed),
		zap.Int("checked", len(candidates)))
}

func (p *Prober) probeOne(ctx context.Context, v *models.Validator) {
	v.Status = models.StatusChecking

	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s", v.EndpointURL(), constants.CompatPath)
	start := time.Now()

	compatible, err := p.fetchDescriptor(probeCtx, url)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		status := models.StatusNetworkError
		if probeCtx.Err() == context.DeadlineExceeded {
			status = models.StatusTimeout
		}
		notCompatible := false
		v.SetProbeResult(status, &notCompatible, &elapsed, err.Error(), time.Now())
		p.log.Debug("probe failed",
			zap.String("endpoint", v.EndpointURL()),
			zap.String("status", status.String()),
			zap.Error(err))
	case compatible:
		isCompatible := true
		v.SetProbeResult(models.StatusConfirmed, &isCompatible, &elapsed, "", time.Now())
	default:
		notCompatible := false
		v.SetProbeResult(models.StatusNonCompatible, &notCompatible, &elapsed, "", time.Now())
	}
}

// fetchDescriptor pulls the API document and looks for a protocol
// keyword in its title.
func (p *Prober) fetchDescriptor(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	var descriptor struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	if err := json.Unmarshal(raw, &descriptor); err != nil {
		return false, fmt.Errorf("invalid descriptor: %w", err)
	}

	title := strings.ToLower(descriptor.Info.Title)
	for _, keyword := range compatKeywords {
		if strings.Contains(title, keyword) {
			return true, nil
		}
	}
	return false, nil
}
