// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bitkoop-network/miner-cli/pkg/constants"
)

type Config struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Config {
	if log == nil {
		log = zap.NewNop()
	}
	return &Config{log: log}
}

func (c *Config) SetConfig(s string) {
	viper.SetConfigType("json")
	d := filepath.Dir(s)
	viper.AddConfigPath(d)
	viper.SetConfigFile(s)
	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		c.log.Info("using config file", zap.String("config-file", s))
	} else {
		c.log.Info("no config file found")
	}
}

func (c *Config) GetConfigPath() string {
	return viper.ConfigFileUsed()
}

// SetConfigValue sets the value of a configuration key.
func (*Config) SetConfigValue(key string, value interface{}) error {
	viper.Set(key, value)
	return viper.WriteConfig()
}

func (*Config) ConfigValueIsSet(key string) bool {
	return viper.IsSet(key)
}

func (*Config) GetConfigStringValue(key string) string {
	return viper.GetString(key)
}

func intOrDefault(key string, def int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return def
}

func secondsOrDefault(key string, def time.Duration) time.Duration {
	if viper.IsSet(key) {
		return time.Duration(viper.GetInt(key)) * time.Second
	}
	return def
}

// RegistryTTL returns the snapshot cache lifetime.
func (*Config) RegistryTTL() time.Duration {
	return secondsOrDefault(constants.ConfigRegistryTTLKey, constants.RegistryTTL)
}

// MaxConcurrentProbes bounds in-flight compatibility probes.
func (*Config) MaxConcurrentProbes() int {
	return intOrDefault(constants.ConfigMaxProbesKey, constants.MaxConcurrentProbes)
}

// MaxConcurrentSubmissions bounds in-flight fan-out requests.
func (*Config) MaxConcurrentSubmissions() int {
	return intOrDefault(constants.ConfigMaxSubmitsKey, constants.MaxConcurrentSubmits)
}

// RequestTimeout is the per-request deadline for submissions.
func (*Config) RequestTimeout() time.Duration {
	return secondsOrDefault(constants.ConfigRequestTimeoutKey, constants.RequestTimeout)
}

// ProbeTimeout is the per-probe deadline.
func (*Config) ProbeTimeout() time.Duration {
	return secondsOrDefault(constants.ConfigProbeTimeoutKey, constants.ProbeTimeout)
}

// HTTPMaxRetries is the transient-failure retry cap.
func (*Config) HTTPMaxRetries() int {
	return intOrDefault(constants.ConfigMaxRetriesKey, constants.HTTPMaxRetries)
}

// HTTPRetryDelay is the initial delay of the retry schedule.
func (*Config) HTTPRetryDelay() time.Duration {
	return secondsOrDefault(constants.ConfigRetryDelayKey, constants.HTTPRetryDelay)
}

// MaxValidators caps submission targets, 0 meaning all eligible.
func (*Config) MaxValidators() int {
	return intOrDefault(constants.ConfigMaxValidatorsKey, 0)
}

// GatewayURL is the metagraph gateway base address.
func (*Config) GatewayURL() string {
	return viper.GetString(constants.ConfigGatewayURLKey)
}

// ChainEndpoint overrides the network's default chain entrypoint.
func (*Config) ChainEndpoint() string {
	return viper.GetString(constants.ConfigChainEndpointKey)
}
