// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package metagraph

import (
	"errors"
	"sort"

	"github.com/bitkoop-network/miner-cli/pkg/models"
)

// ErrNoValidatorsAvailable distinguishes "nobody was even tried" from a
// batch where every attempt failed.
var ErrNoValidatorsAvailable = errors.New("no validators available for submission")

// Select returns the submission targets in priority order: confirmed,
// reachable validators sorted by descending score, ties kept in discovery
// order. maxCount <= 0 means no truncation.
func Select(validators []*models.Validator, maxCount int) []*models.Validator {
	eligible := filter(validators, func(v *models.Validator) bool {
		return v.IsAvailableForSubmission()
	})

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].PriorityScore() > eligible[j].PriorityScore()
	})

	if maxCount > 0 && len(eligible) > maxCount {
		eligible = eligible[:maxCount]
	}
	return eligible
}

// Dedupe drops validators whose endpoint was already seen, preserving
// order. The registry can legitimately hold several UIDs behind one
// address; a submission should hit each endpoint once.
func Dedupe(validators []*models.Validator) []*models.Validator {
	seen := make(map[string]bool, len(validators))
	out := make([]*models.Validator, 0, len(validators))
	for _, v := range validators {
		endpoint := v.EndpointURL()
		if seen[endpoint] {
			continue
		}
		seen[endpoint] = true
		out = append(out, v)
	}
	return out
}
