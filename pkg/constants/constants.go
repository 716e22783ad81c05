// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import "time"

const (
	AppName     = "bitkoop"
	BaseDirName = ".bitkoop-cli"
	LogDirName  = "logs"

	DefaultUserAgent = "BitKoop-Miner-CLI/1.0"

	// Subnet identifiers on the finney chain.
	FinneyNetuid     = 16
	FinneyTestNetuid = 368

	FinneyChainEndpoint     = "wss://entrypoint-finney.opentensor.ai:443"
	FinneyTestChainEndpoint = "wss://test.finney.opentensor.ai:443"

	// SS58 network prefix shared by all bittensor networks.
	SS58Format = 42

	// Validator HTTP surface.
	SubmissionPath  = "coupons"
	DeletePath      = "coupons/delete"
	RecheckPath     = "coupons/recheck"
	HealthPath      = "health"
	CompatPath      = "openapi.json"
	SignatureHeader = "X-Signature"
	HotkeyHeader    = "X-Hotkey"

	RegistryTTL          = 5 * time.Minute
	MaxConcurrentProbes  = 10
	MaxConcurrentSubmits = 10
	ProbeTimeout         = 10 * time.Second
	RequestTimeout       = 30 * time.Second
	ChainRequestTimeout  = 20 * time.Second
	HTTPMaxRetries       = 3
	HTTPRetryDelay       = 1 * time.Second
	HealthyResponseTime  = 10 * time.Second

	// Config keys recognized by the CLI config file and environment.
	ConfigRegistryTTLKey    = "registry-ttl-seconds"
	ConfigMaxProbesKey      = "max-concurrent-probes"
	ConfigMaxSubmitsKey     = "max-concurrent-submissions"
	ConfigRequestTimeoutKey = "request-timeout-seconds"
	ConfigProbeTimeoutKey   = "probe-timeout-seconds"
	ConfigMaxRetriesKey     = "http-max-retries"
	ConfigRetryDelayKey     = "http-retry-delay-seconds"
	ConfigMaxValidatorsKey  = "max-validators"
	ConfigGatewayURLKey     = "gateway-url"
	ConfigChainEndpointKey  = "chain-endpoint"
)
