// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package coupon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitkoop-network/miner-cli/pkg/apiclient"
	"github.com/bitkoop-network/miner-cli/pkg/fanout"
	"github.com/bitkoop-network/miner-cli/pkg/key"
	"github.com/bitkoop-network/miner-cli/pkg/metagraph"
	"github.com/bitkoop-network/miner-cli/pkg/models"
)

type fakeSource struct {
	validators []*models.Validator
	err        error
}

func (f *fakeSource) List(ctx context.Context, opts metagraph.ListOptions) ([]*models.Validator, error) {
	return f.validators, f.err
}

func eligibleValidator(uid int, stake float64) *models.Validator {
	compatible := true
	return &models.Validator{
		UID:          uid,
		Hotkey:       "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		IP:           "203.0.113.7",
		Port:         8000 + uid,
		TotalStake:   stake,
		Status:       models.StatusConfirmed,
		IsCompatible: &compatible,
	}
}

func newTestSubmitter(cfg SubmitterConfig, source ValidatorSource) *Submitter {
	client := apiclient.New(apiclient.Config{Timeout: 100 * time.Millisecond, MaxRetries: 0}, nil)
	executor := fanout.NewExecutor(fanout.Config{MaxConcurrent: 5}, client, nil)
	return NewSubmitter(cfg, source, executor, client, nil)
}

func TestTargetsSelectsAndDedupes(t *testing.T) {
	low := eligibleValidator(0, 1000)
	high := eligibleValidator(1, 50000)
	duplicate := eligibleValidator(2, 9000)
	duplicate.Port = high.Port
	unprobed := &models.Validator{UID: 3, IP: "203.0.113.9", Port: 8080}

	s := newTestSubmitter(SubmitterConfig{}, &fakeSource{
		validators: []*models.Validator{low, high, duplicate, unprobed},
	})

	targets, err := s.targets(context.Background())
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, 1, targets[0].UID)
	assert.Equal(t, 0, targets[1].UID)
}

func TestTargetsHonorsMaxValidators(t *testing.T) {
	s := newTestSubmitter(SubmitterConfig{MaxValidators: 1}, &fakeSource{
		validators: []*models.Validator{eligibleValidator(0, 1000), eligibleValidator(1, 50000)},
	})

	targets, err := s.targets(context.Background())
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, 1, targets[0].UID)
}

func TestSubmitCouponNoValidators(t *testing.T) {
	s := newTestSubmitter(SubmitterConfig{}, &fakeSource{})

	signer := &key.StaticSigner{HotkeyAddr: "5Grwva", Signature: "deadbeef"}
	_, err := s.SubmitCoupon(context.Background(), map[string]any{"code": "SAVE10"}, signer)
	require.ErrorIs(t, err, metagraph.ErrNoValidatorsAvailable)
}

func TestSubmitCouponOnlyIneligibleValidators(t *testing.T) {
	unroutable := eligibleValidator(0, 1000)
	unroutable.IP = "0.0.0.0"
	s := newTestSubmitter(SubmitterConfig{}, &fakeSource{validators: []*models.Validator{unroutable}})

	signer := &key.StaticSigner{HotkeyAddr: "5Grwva", Signature: "deadbeef"}
	_, err := s.SubmitCoupon(context.Background(), map[string]any{"code": "SAVE10"}, signer)
	require.ErrorIs(t, err, metagraph.ErrNoValidatorsAvailable)
}

func TestSubmitCouponUnreachableTarget(t *testing.T) {
	// an eligible validator that cannot actually be dialed still yields a
	// per-validator result rather than an operation error
	s := newTestSubmitter(SubmitterConfig{}, &fakeSource{
		validators: []*models.Validator{eligibleValidator(0, 1000)},
	})

	signer := &key.StaticSigner{HotkeyAddr: "5Grwva", Signature: "deadbeef"}
	summary, err := s.SubmitCoupon(context.Background(), map[string]any{"code": "SAVE10"}, signer)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalCount)
	assert.Equal(t, 0, summary.SuccessCount)
	assert.False(t, summary.Success())
	require.Len(t, summary.Results, 1)
	assert.NotEmpty(t, summary.Results[0].Error)
}

func healthValidator(t *testing.T, serverURL string) *models.Validator {
	t.Helper()
	parsed, err := url.Parse(serverURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(parsed.Port())
	require.NoError(t, err)
	v := eligibleValidator(0, 1000)
	v.IP = parsed.Hostname()
	v.Port = port
	return v
}

func TestHealthOneHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	t.Cleanup(server.Close)

	s := newTestSubmitter(SubmitterConfig{}, &fakeSource{})
	health := s.healthOne(context.Background(), healthValidator(t, server.URL))
	assert.True(t, health.Healthy)
	assert.Empty(t, health.Error)
	assert.Greater(t, health.ResponseTime, time.Duration(0))
}

func TestHealthOneServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "overloaded"}`))
	}))
	t.Cleanup(server.Close)

	s := newTestSubmitter(SubmitterConfig{}, &fakeSource{})
	health := s.healthOne(context.Background(), healthValidator(t, server.URL))
	assert.False(t, health.Healthy)
	assert.Equal(t, "overloaded", health.Error)
}

func TestRecheckValidatorsReport(t *testing.T) {
	s := newTestSubmitter(SubmitterConfig{}, &fakeSource{
		validators: []*models.Validator{eligibleValidator(0, 1000)},
	})

	report, err := s.RecheckValidators(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 0, report.Healthy)
	assert.Equal(t, 1, report.Unhealthy)
	assert.Equal(t, 0.0, report.HealthPercentage())
	require.Len(t, report.Details, 1)
	assert.NotEmpty(t, report.Details[0].Error)
}

func TestHealthPercentage(t *testing.T) {
	empty := &HealthReport{}
	assert.Equal(t, 0.0, empty.HealthPercentage())

	report := &HealthReport{Total: 4, Healthy: 3}
	assert.Equal(t, 75.0, report.HealthPercentage())
}
