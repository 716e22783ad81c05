// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package couponcmd

import (
	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
)

func newReplaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replace",
		Short: "Replace an existing coupon code across the network",
		Args:  cobrautils.ExactArgs(0),
		RunE:  replaceCoupon,
	}
}

func replaceCoupon(cmd *cobra.Command, _ []string) error {
	payload, signer, err := loadPayload()
	if err != nil {
		return err
	}
	registry := app.NewRegistry()
	submitter := app.NewSubmitter(registry)

	summary, err := submitter.ReplaceCoupon(cmd.Context(), payload, signer)
	if err != nil {
		return err
	}
	printSummary("replacement", summary)
	return nil
}
