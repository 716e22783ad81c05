// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package validatorscmd

import (
	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/application"
	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
)

var app *application.BitKoop

func NewCmd(injectedApp *application.BitKoop) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validators",
		Short: "Inspect the subnet's validators",
		Long: `The validators command suite discovers the subnet validators from the
metagraph and reports their compatibility and health.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cobrautils.CommandSuiteUsage(cmd, args)
		},
	}
	app = injectedApp
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRecheckCmd())
	return cmd
}
