// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"fmt"
	"strings"

	"github.com/bitkoop-network/miner-cli/pkg/constants"
)

type Network int64

const (
	Undefined Network = iota
	Finney
	FinneyTest
)

func (n Network) String() string {
	switch n {
	case Finney:
		return "finney"
	case FinneyTest:
		return "test"
	}
	return "unknown"
}

// Netuid returns the subnet identifier the miner targets on this network.
func (n Network) Netuid() int {
	switch n {
	case Finney:
		return constants.FinneyNetuid
	case FinneyTest:
		return constants.FinneyTestNetuid
	}
	return 0
}

// ChainEndpoint returns the websocket address of the chain entrypoint,
// preferring custom over the network default when given.
func (n Network) ChainEndpoint(custom string) string {
	if custom != "" {
		return custom
	}
	switch n {
	case Finney:
		return constants.FinneyChainEndpoint
	case FinneyTest:
		return constants.FinneyTestChainEndpoint
	}
	return ""
}

// NetworkFromString resolves a network name or one of its common aliases.
func NetworkFromString(s string) (Network, error) {
	switch strings.ToLower(s) {
	case "finney", "main", "mainnet":
		return Finney, nil
	case "test", "testnet", "dev":
		return FinneyTest, nil
	}
	return Undefined, fmt.Errorf("unknown network %q, available networks: finney, test", s)
}
