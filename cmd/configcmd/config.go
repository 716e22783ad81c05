// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package configcmd

import (
	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/application"
	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
)

var app *application.BitKoop

func NewCmd(injectedApp *application.BitKoop) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Modify configuration for the BitKoop CLI",
		Long:  `Customize the recognized configuration options of the BitKoop CLI`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cobrautils.CommandSuiteUsage(cmd, args)
		},
	}
	app = injectedApp
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	return cmd
}
