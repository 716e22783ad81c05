// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package validatorscmd

import (
	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
	"github.com/bitkoop-network/miner-cli/pkg/ux"
)

func newRecheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recheck",
		Short: "Run a liveness check across the submission validators",
		Args:  cobrautils.ExactArgs(0),
		RunE:  recheckValidators,
	}
}

func recheckValidators(cmd *cobra.Command, _ []string) error {
	registry := app.NewRegistry()
	submitter := app.NewSubmitter(registry)

	report, err := submitter.RecheckValidators(cmd.Context())
	if err != nil {
		return err
	}

	for _, d := range report.Details {
		if d.Healthy {
			ux.Logger.GreenCheckmarkToUser("%s (%s) healthy in %.2fs", d.Endpoint, d.Hotkey, d.ResponseTime.Seconds())
		} else {
			ux.Logger.RedXToUser("%s (%s) unhealthy: %s", d.Endpoint, d.Hotkey, d.Error)
		}
	}
	ux.Logger.PrintLineSeparator()
	ux.Logger.PrintToUser("Validator recheck completed: %d/%d healthy (%.1f%%) in %.2fs",
		report.Healthy, report.Total, report.HealthPercentage(), report.Elapsed.Seconds())
	return nil
}
