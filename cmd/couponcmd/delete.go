// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package couponcmd

import (
	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete a coupon code across the network",
		Args:  cobrautils.ExactArgs(0),
		RunE:  deleteCoupon,
	}
}

func deleteCoupon(cmd *cobra.Command, _ []string) error {
	payload, signer, err := loadPayload()
	if err != nil {
		return err
	}
	registry := app.NewRegistry()
	submitter := app.NewSubmitter(registry)

	summary, err := submitter.DeleteCoupon(cmd.Context(), payload, signer)
	if err != nil {
		return err
	}
	printSummary("deletion", summary)
	return nil
}
