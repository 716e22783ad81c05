// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package couponcmd

import (
	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
)

func newSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Submit a new coupon code to the network",
		Args:  cobrautils.ExactArgs(0),
		RunE:  submitCoupon,
	}
}

func submitCoupon(cmd *cobra.Command, _ []string) error {
	payload, signer, err := loadPayload()
	if err != nil {
		return err
	}
	registry := app.NewRegistry()
	submitter := app.NewSubmitter(registry)

	summary, err := submitter.SubmitCoupon(cmd.Context(), payload, signer)
	if err != nil {
		return err
	}
	printSummary("submission", summary)
	return nil
}
