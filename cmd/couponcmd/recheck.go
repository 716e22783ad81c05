// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package couponcmd

import (
	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
)

func newRecheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recheck",
		Short: "Ask validators to re-verify a coupon code",
		Args:  cobrautils.ExactArgs(0),
		RunE:  recheckCoupon,
	}
}

func recheckCoupon(cmd *cobra.Command, _ []string) error {
	payload, signer, err := loadPayload()
	if err != nil {
		return err
	}
	registry := app.NewRegistry()
	submitter := app.NewSubmitter(registry)

	summary, err := submitter.RecheckCoupon(cmd.Context(), payload, signer)
	if err != nil {
		return err
	}
	printSummary("recheck", summary)
	return nil
}
