// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
	"github.com/bitkoop-network/miner-cli/pkg/constants"
	"github.com/bitkoop-network/miner-cli/pkg/ux"
)

// recognizedKeys are the option names the CLI reads back.
var recognizedKeys = []string{
	constants.ConfigRegistryTTLKey,
	constants.ConfigMaxProbesKey,
	constants.ConfigMaxSubmitsKey,
	constants.ConfigRequestTimeoutKey,
	constants.ConfigProbeTimeoutKey,
	constants.ConfigMaxRetriesKey,
	constants.ConfigRetryDelayKey,
	constants.ConfigMaxValidatorsKey,
	constants.ConfigGatewayURLKey,
	constants.ConfigChainEndpointKey,
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Persist a configuration option",
		Args:  cobrautils.ExactArgs(2),
		RunE:  setConfigValue,
	}
}

func setConfigValue(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if !isRecognized(key) {
		return cobrautils.NewUsageError(cmd, fmt.Errorf("unknown config key %q", key))
	}
	if err := app.Conf.SetConfigValue(key, value); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	ux.Logger.GreenCheckmarkToUser("%s set to %s in %s", key, value, app.Conf.GetConfigPath())
	return nil
}

func isRecognized(key string) bool {
	for _, k := range recognizedKeys {
		if k == key {
			return true
		}
	}
	return false
}
