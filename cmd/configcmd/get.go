// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
	"github.com/bitkoop-network/miner-cli/pkg/ux"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Show a configuration option",
		Args:  cobrautils.ExactArgs(1),
		RunE:  getConfigValue,
	}
}

func getConfigValue(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !isRecognized(key) {
		return cobrautils.NewUsageError(cmd, fmt.Errorf("unknown config key %q", key))
	}
	if !app.Conf.ConfigValueIsSet(key) {
		ux.Logger.PrintToUser("%s is not set, the built-in default applies", key)
		return nil
	}
	ux.Logger.PrintToUser("%s = %s", key, app.Conf.GetConfigStringValue(key))
	return nil
}
