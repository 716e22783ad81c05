// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package metagraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bitkoop-network/miner-cli/pkg/constants"
	"github.com/bitkoop-network/miner-cli/pkg/models"
	"github.com/bitkoop-network/miner-cli/pkg/ss58"
)

// DiscoveryError is fatal to the discovery call that produced it. It is
// never swallowed into an empty validator list; callers decide whether a
// stale snapshot is an acceptable fallback.
type DiscoveryError struct {
	Netuid int
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering validators for netuid %d: %s", e.Netuid, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// RegistryConfig configures snapshot caching and discovery behavior.
type RegistryConfig struct {
	Network         models.Network
	TTL             time.Duration
	ProbeOnDiscover bool
}

// Registry owns the cached metagraph snapshot. The snapshot is read by
// many concurrent callers and replaced wholesale by one discovery at a
// time; concurrent refreshes collapse into a single flight.
type Registry struct {
	cfg    RegistryConfig
	reader ChainReader
	prober *Prober
	clock  clock.Clock
	log    *zap.Logger

	mu       sync.RWMutex
	snapshot *models.RegistrySnapshot

	refresh singleflight.Group
}

func NewRegistry(cfg RegistryConfig, reader ChainReader, prober *Prober, log *zap.Logger) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = constants.RegistryTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		cfg:    cfg,
		reader: reader,
		prober: prober,
		clock:  clock.New(),
		log:    log,
	}
}

// SetClock swaps the registry clock. Meant for tests.
func (r *Registry) SetClock(c clock.Clock) {
	r.clock = c
}

// Discover pulls the metagraph, builds validator entities, optionally
// probes them, and installs the result as the new snapshot.
func (r *Registry) Discover(ctx context.Context, block *int64) (*models.RegistrySnapshot, error) {
	start := r.clock.Now()
	netuid := r.cfg.Network.Netuid()

	records, atBlock, err := r.reader.GetRawNodes(ctx, netuid, block)
	if err != nil {
		return nil, &DiscoveryError{Netuid: netuid, Err: err}
	}

	validators := make([]*models.Validator, 0, len(records))
	for i := range records {
		v, err := validatorFromRecord(&records[i], netuid)
		if err != nil {
			return nil, &DiscoveryError{Netuid: netuid, Err: err}
		}
		validators = append(validators, v)
	}
	r.log.Info("discovered validators",
		zap.Int("netuid", netuid),
		zap.Int("count", len(validators)),
		zap.Int64("block", atBlock))

	if r.cfg.ProbeOnDiscover && r.prober != nil {
		r.prober.Probe(ctx, validators)
	}

	snapshot := &models.RegistrySnapshot{
		Validators: validators,
		Block:      atBlock,
		SyncedAt:   r.clock.Now(),
		TTL:        r.cfg.TTL,
	}

	r.mu.Lock()
	r.snapshot = snapshot
	r.mu.Unlock()

	r.log.Debug("discovery complete",
		zap.Duration("elapsed", r.clock.Now().Sub(start)))
	return snapshot, nil
}

// ListOptions filters a List call. Filters apply after retrieval and are
// never cached.
type ListOptions struct {
	ForceRefresh   bool
	OnlyCompatible bool
	OnlyAvailable  bool
}

// freshSnapshot returns the cached snapshot while it is fresh,
// re-discovering otherwise. Concurrent callers racing an expired cache
// share one discovery. The returned snapshot is the caller's to read even
// if the cache is cleared concurrently.
func (r *Registry) freshSnapshot(ctx context.Context, force bool) (*models.RegistrySnapshot, error) {
	r.mu.RLock()
	snapshot := r.snapshot
	r.mu.RUnlock()

	if force || snapshot == nil || !snapshot.Fresh(r.clock.Now()) {
		result, err, _ := r.refresh.Do("discover", func() (any, error) {
			return r.Discover(ctx, nil)
		})
		if err != nil {
			return nil, err
		}
		return result.(*models.RegistrySnapshot), nil
	}
	r.log.Debug("using cached validators",
		zap.Duration("age", r.clock.Now().Sub(snapshot.SyncedAt)))
	return snapshot, nil
}

// List returns validators from the current snapshot, filtered per opts.
func (r *Registry) List(ctx context.Context, opts ListOptions) ([]*models.Validator, error) {
	snapshot, err := r.freshSnapshot(ctx, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	validators := snapshot.Validators
	switch {
	case opts.OnlyAvailable:
		validators = filter(validators, func(v *models.Validator) bool {
			return v.IsAvailableForSubmission()
		})
	case opts.OnlyCompatible:
		validators = filter(validators, func(v *models.Validator) bool {
			return v.Status == models.StatusConfirmed
		})
	}
	return validators, nil
}

// ClearCache drops the snapshot; the next List forces a discovery.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	r.snapshot = nil
	r.mu.Unlock()
	r.log.Debug("validator cache cleared")
}

// Snapshot returns the current snapshot without refreshing, nil when the
// cache is empty.
func (r *Registry) Snapshot() *models.RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Info summarizes the current snapshot into network statistics,
// discovering first when the cache is empty or stale.
func (r *Registry) Info(ctx context.Context) (*models.MetagraphInfo, error) {
	snapshot, err := r.freshSnapshot(ctx, false)
	if err != nil {
		return nil, err
	}

	info := &models.MetagraphInfo{
		Netuid:   r.cfg.Network.Netuid(),
		Network:  r.cfg.Network.String(),
		Block:    snapshot.Block,
		SyncedAt: snapshot.SyncedAt,
	}

	var responseTotal time.Duration
	var responseCount int
	for _, v := range snapshot.Validators {
		info.TotalValidators++
		if v.IsReachable() {
			info.ReachableValidators++
		}
		if v.Status == models.StatusConfirmed {
			info.ConfirmedValidators++
		}
		if v.IsAvailableForSubmission() {
			info.AvailableValidators++
		}
		info.TotalStake += v.TotalStake
		if v.ResponseTime != nil {
			responseTotal += *v.ResponseTime
			responseCount++
		}
	}
	if responseCount > 0 {
		avg := responseTotal / time.Duration(responseCount)
		info.AvgResponseTime = &avg
	}
	return info, nil
}

func validatorFromRecord(record *NodeRecord, netuid int) (*models.Validator, error) {
	hotkey, err := ss58.Encode(record.HotkeyBytes, constants.SS58Format)
	if err != nil {
		return nil, fmt.Errorf("uid %d hotkey: %w", record.UID, err)
	}
	coldkey, err := ss58.Encode(record.ColdkeyBytes, constants.SS58Format)
	if err != nil {
		return nil, fmt.Errorf("uid %d coldkey: %w", record.UID, err)
	}
	return &models.Validator{
		Hotkey:           hotkey,
		Coldkey:          coldkey,
		UID:              record.UID,
		Netuid:           netuid,
		IP:               record.IP(),
		Port:             record.Port,
		IPType:           record.IPType,
		Protocol:         record.Protocol,
		Incentive:        record.Incentive,
		AlphaStake:       record.AlphaStake,
		TaoStake:         record.TaoStake,
		TotalStake:       record.TotalStake,
		Trust:            record.Trust,
		Dividends:        record.Dividends,
		LastUpdatedBlock: record.LastUpdateBlock,
		Status:           models.StatusUnknown,
	}, nil
}

func filter(validators []*models.Validator, keep func(*models.Validator) bool) []*models.Validator {
	out := make([]*models.Validator, 0, len(validators))
	for _, v := range validators {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
