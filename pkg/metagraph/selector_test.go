// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package metagraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitkoop-network/miner-cli/pkg/models"
)

func confirmedValidator(uid int, stake float64) *models.Validator {
	compatible := true
	return &models.Validator{
		UID:          uid,
		IP:           "203.0.113.7",
		Port:         8000 + uid,
		TotalStake:   stake,
		Status:       models.StatusConfirmed,
		IsCompatible: &compatible,
	}
}

func TestSelectOrdersByScore(t *testing.T) {
	low := confirmedValidator(0, 1000)
	high := confirmedValidator(1, 50000)
	mid := confirmedValidator(2, 20000)

	selected := Select([]*models.Validator{low, high, mid}, 0)
	require.Len(t, selected, 3)
	assert.Equal(t, []int{1, 2, 0}, []int{selected[0].UID, selected[1].UID, selected[2].UID})
}

func TestSelectTruncates(t *testing.T) {
	validators := []*models.Validator{
		confirmedValidator(0, 1000),
		confirmedValidator(1, 50000),
		confirmedValidator(2, 20000),
	}
	selected := Select(validators, 2)
	require.Len(t, selected, 2)
	assert.Equal(t, 1, selected[0].UID)
	assert.Equal(t, 2, selected[1].UID)
}

func TestSelectTiesKeepDiscoveryOrder(t *testing.T) {
	a := confirmedValidator(0, 5000)
	b := confirmedValidator(1, 5000)
	c := confirmedValidator(2, 5000)

	selected := Select([]*models.Validator{a, b, c}, 0)
	require.Len(t, selected, 3)
	for i, v := range selected {
		assert.Equal(t, i, v.UID)
	}
}

func TestSelectFiltersIneligible(t *testing.T) {
	eligible := confirmedValidator(0, 1000)

	unprobed := &models.Validator{UID: 1, IP: "203.0.113.8", Port: 8080, Status: models.StatusUnknown}
	compatible := true
	unroutable := &models.Validator{UID: 2, IP: "0.0.0.0", Port: 8080, Status: models.StatusConfirmed, IsCompatible: &compatible}
	notCompatible := false
	rejected := &models.Validator{UID: 3, IP: "203.0.113.9", Port: 8080, Status: models.StatusNonCompatible, IsCompatible: &notCompatible}

	selected := Select([]*models.Validator{unprobed, eligible, unroutable, rejected}, 0)
	require.Len(t, selected, 1)
	assert.Equal(t, 0, selected[0].UID)
}

func TestSelectLatencyPenalty(t *testing.T) {
	fast := confirmedValidator(0, 1000)
	quick := 100 * time.Millisecond
	fast.ResponseTime = &quick

	slow := confirmedValidator(1, 1000)
	laggy := 4 * time.Second
	slow.ResponseTime = &laggy

	selected := Select([]*models.Validator{slow, fast}, 0)
	require.Len(t, selected, 2)
	assert.Equal(t, 0, selected[0].UID)
}

func TestDedupe(t *testing.T) {
	first := confirmedValidator(0, 1000)
	duplicate := confirmedValidator(1, 2000)
	duplicate.Port = first.Port
	distinct := confirmedValidator(2, 3000)

	out := Dedupe([]*models.Validator{first, duplicate, distinct})
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].UID)
	assert.Equal(t, 2, out[1].UID)
}
