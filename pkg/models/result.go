// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import "time"

// SubmissionOutcome classifies one validator's response to a fan-out request.
type SubmissionOutcome int64

const (
	OutcomeSuccess SubmissionOutcome = iota
	OutcomeFailed
	OutcomeTimeout
	OutcomeConnectionError
)

func (o SubmissionOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeConnectionError:
		return "connection-error"
	}
	return "unknown"
}

// SubmissionResult is one validator's outcome within a single fan-out call.
type SubmissionResult struct {
	Endpoint     string
	Success      bool
	Outcome      SubmissionOutcome
	ResponseTime *time.Duration
	Error        string
	RawResponse  map[string]any
}

// SubmissionSummary aggregates an entire fan-out batch. It is immutable
// once built.
type SubmissionSummary struct {
	TotalCount      int
	SuccessCount    int
	FailureCount    int
	SuccessRate     float64
	AvgResponseTime *time.Duration
	TotalTime       time.Duration
	Results         []SubmissionResult
}

// Success reports overall success: at least one validator accepted the
// submission. The network propagates accepted records between validators,
// so unanimity is not required.
func (s *SubmissionSummary) Success() bool {
	return s.SuccessCount > 0
}

// FirstError returns the first per-validator error message, if any.
func (s *SubmissionSummary) FirstError() string {
	for _, r := range s.Results {
		if !r.Success && r.Error != "" {
			return r.Error
		}
	}
	return ""
}
