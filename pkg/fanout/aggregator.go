// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package fanout

import (
	"time"

	"github.com/bitkoop-network/miner-cli/pkg/models"
)

// Summarize reduces per-validator results into one immutable summary.
// The per-node result order is preserved for caller inspection.
func Summarize(results []models.SubmissionResult, elapsed time.Duration) *models.SubmissionSummary {
	summary := &models.SubmissionSummary{
		TotalCount: len(results),
		TotalTime:  elapsed,
		Results:    results,
	}

	var successTime time.Duration
	var successTimeCount int
	for _, r := range results {
		if r.Success {
			summary.SuccessCount++
			if r.ResponseTime != nil {
				successTime += *r.ResponseTime
				successTimeCount++
			}
		}
	}
	summary.FailureCount = summary.TotalCount - summary.SuccessCount

	if summary.TotalCount > 0 {
		summary.SuccessRate = float64(summary.SuccessCount) / float64(summary.TotalCount) * 100
	}
	if successTimeCount > 0 {
		avg := successTime / time.Duration(successTimeCount)
		summary.AvgResponseTime = &avg
	}
	return summary
}
