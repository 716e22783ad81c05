// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"fmt"
	"time"

	"github.com/bitkoop-network/miner-cli/pkg/ss58"
)

// ValidatorStatus tracks the outcome of the last compatibility probe
// against a validator.
type ValidatorStatus int64

const (
	StatusUnknown ValidatorStatus = iota
	StatusChecking
	StatusAvailable
	StatusUnavailable
	StatusConfirmed
	StatusNonCompatible
	StatusNetworkError
	StatusTimeout
)

func (s ValidatorStatus) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusChecking:
		return "checking"
	case StatusAvailable:
		return "available"
	case StatusUnavailable:
		return "unavailable"
	case StatusConfirmed:
		return "confirmed"
	case StatusNonCompatible:
		return "non-compatible"
	case StatusNetworkError:
		return "network-error"
	case StatusTimeout:
		return "timeout"
	}
	return "unknown"
}

// Validator is one metagraph registry entry together with the mutable
// probe state this CLI tracks for it. Registry-supplied fields are never
// mutated locally.
type Validator struct {
	// Identity
	Hotkey  string
	Coldkey string
	UID     int
	Netuid  int

	// Network location
	IP       string
	Port     int
	IPType   int
	Protocol int

	// Economics, read-only from the registry
	Incentive        float64
	AlphaStake       float64
	TaoStake         float64
	TotalStake       float64
	Trust            float64
	Dividends        float64
	LastUpdatedBlock int64

	// Probe state, written only by the prober
	Status       ValidatorStatus
	IsCompatible *bool
	ResponseTime *time.Duration
	LastError    string
	LastProbedAt *time.Time
}

// EndpointURL derives the validator HTTP endpoint from ip and port.
// It is recomputed on every call and never stored or signed.
func (v *Validator) EndpointURL() string {
	return fmt.Sprintf("http://%s:%d", v.IP, v.Port)
}

// HasRealIP reports whether the registry published a routable address.
func (v *Validator) HasRealIP() bool {
	return v.IP != "" && v.IP != "0.0.0.0" && v.IP != "127.0.0.1"
}

// IsReachable reports whether the published address/port pair could be
// dialed at all. Validators failing this are never probed or submitted to.
func (v *Validator) IsReachable() bool {
	return v.HasRealIP() && v.Port > 0 && v.Port < 65536
}

// IsAvailableForSubmission reports whether the validator passed the
// compatibility probe and is eligible to receive signed submissions.
func (v *Validator) IsAvailableForSubmission() bool {
	return v.Status == StatusConfirmed && v.IsReachable() && v.IsCompatible != nil && *v.IsCompatible
}

// HotkeyShort returns a shortened hotkey for display.
func (v *Validator) HotkeyShort() string {
	return ss58.Short(v.Hotkey)
}

// SetProbeResult records a probe outcome in place.
func (v *Validator) SetProbeResult(status ValidatorStatus, compatible *bool, responseTime *time.Duration, probeErr string, at time.Time) {
	v.Status = status
	if compatible != nil {
		v.IsCompatible = compatible
	}
	if responseTime != nil {
		v.ResponseTime = responseTime
	}
	if probeErr != "" {
		v.LastError = probeErr
	}
	v.LastProbedAt = &at
}

func (v *Validator) String() string {
	return fmt.Sprintf("Validator(uid=%d, hotkey=%s, endpoint=%s, status=%s, stake=%.1f)",
		v.UID, v.HotkeyShort(), v.EndpointURL(), v.Status, v.TotalStake)
}

// PriorityScore ranks validators for submission. Confirmed compatibility
// dominates, then stake and trust, with a latency penalty.
func (v *Validator) PriorityScore() float64 {
	score := 0.0
	switch v.Status {
	case StatusConfirmed:
		score += 1000
	case StatusAvailable:
		score += 500
	}
	score += min(v.TotalStake/1000.0, 100)
	score += v.Trust * 50
	if v.ResponseTime != nil {
		score -= min(v.ResponseTime.Seconds()*10, 50)
	}
	return score
}
