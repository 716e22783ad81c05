// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotFresh(t *testing.T) {
	syncedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := &RegistrySnapshot{SyncedAt: syncedAt, TTL: 300 * time.Second}

	assert.True(t, snapshot.Fresh(syncedAt.Add(299*time.Second)))
	assert.False(t, snapshot.Fresh(syncedAt.Add(300*time.Second)))
	assert.False(t, snapshot.Fresh(syncedAt.Add(time.Hour)))
}

func TestMetagraphInfoIsHealthy(t *testing.T) {
	assert.False(t, (&MetagraphInfo{TotalValidators: 5}).IsHealthy())
	assert.True(t, (&MetagraphInfo{TotalValidators: 5, AvailableValidators: 1}).IsHealthy())
}

func TestHealthScore(t *testing.T) {
	empty := &MetagraphInfo{}
	assert.Equal(t, 0.0, empty.HealthScore())

	fast := 200 * time.Millisecond
	ideal := &MetagraphInfo{
		TotalValidators:     10,
		ReachableValidators: 10,
		ConfirmedValidators: 10,
		AvailableValidators: 10,
		AvgResponseTime:     &fast,
	}
	assert.Equal(t, 100.0, ideal.HealthScore())

	slow := 5 * time.Second
	degraded := &MetagraphInfo{
		TotalValidators:     10,
		ReachableValidators: 5,
		ConfirmedValidators: 1,
		AvailableValidators: 1,
		AvgResponseTime:     &slow,
	}
	// 7 availability + 5 latency + 2 compatibility
	assert.InDelta(t, 14.0, degraded.HealthScore(), 1e-9)
}
