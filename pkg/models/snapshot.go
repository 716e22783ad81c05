// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import "time"

// RegistrySnapshot is one wholesale read of the metagraph. The validator
// list is never merged incrementally; a refresh replaces the snapshot.
type RegistrySnapshot struct {
	Validators []*Validator
	Block      int64
	SyncedAt   time.Time
	TTL        time.Duration
}

// Fresh reports whether the snapshot is still within its TTL at now.
func (s *RegistrySnapshot) Fresh(now time.Time) bool {
	return now.Sub(s.SyncedAt) < s.TTL
}

// MetagraphInfo summarizes network health across one snapshot.
type MetagraphInfo struct {
	Netuid              int
	Network             string
	Block               int64
	SyncedAt            time.Time
	TotalValidators     int
	ReachableValidators int
	ConfirmedValidators int
	AvailableValidators int
	TotalStake          float64
	AvgResponseTime     *time.Duration
}

// IsHealthy reports whether at least one validator can take submissions.
func (m *MetagraphInfo) IsHealthy() bool {
	return m.AvailableValidators > 0
}

// HealthScore grades the network 0-100 from availability, latency and the
// share of compatible validators among reachable ones.
func (m *MetagraphInfo) HealthScore() float64 {
	if m.TotalValidators == 0 {
		return 0
	}
	score := float64(m.AvailableValidators) / float64(m.TotalValidators) * 70
	if m.AvgResponseTime != nil {
		switch avg := m.AvgResponseTime.Seconds(); {
		case avg < 0.5:
			score += 20
		case avg < 1.0:
			score += 15
		case avg < 2.0:
			score += 10
		default:
			score += 5
		}
	}
	if m.ReachableValidators > 0 {
		score += float64(m.ConfirmedValidators) / float64(m.ReachableValidators) * 10
	}
	return min(score, 100)
}
