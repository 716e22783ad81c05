// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package couponcmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/application"
	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
	"github.com/bitkoop-network/miner-cli/pkg/key"
	"github.com/bitkoop-network/miner-cli/pkg/models"
	"github.com/bitkoop-network/miner-cli/pkg/ux"
)

var (
	app *application.BitKoop

	payloadPath string
	hotkey      string
	signature   string
)

func NewCmd(injectedApp *application.BitKoop) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coupon",
		Short: "Broadcast coupon actions to the subnet validators",
		Long: `The coupon command suite broadcasts signed coupon actions (submit,
replace, delete, recheck) to every eligible validator on the subnet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cobrautils.CommandSuiteUsage(cmd, args)
		},
	}
	app = injectedApp
	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newReplaceCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newRecheckCmd())
	for _, sub := range cmd.Commands() {
		addSigningFlags(sub)
	}
	return cmd
}

func addSigningFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&payloadPath, "payload", "", "path to the signed JSON payload file")
	cmd.Flags().StringVar(&hotkey, "hotkey", "", "miner hotkey (SS58)")
	cmd.Flags().StringVar(&signature, "signature", "", "hex signature over the payload, without 0x prefix")
	_ = cmd.MarkFlagRequired("payload")
	_ = cmd.MarkFlagRequired("hotkey")
	_ = cmd.MarkFlagRequired("signature")
}

// loadPayload reads the pre-validated payload file. Field validation
// happened when the payload was produced and signed; altering it here
// would break the signature.
func loadPayload() (map[string]any, key.Signer, error) {
	raw, err := os.ReadFile(payloadPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading payload: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}
	signer := &key.StaticSigner{
		HotkeyAddr: hotkey,
		Signature:  signature,
	}
	return payload, signer, nil
}

func printSummary(operation string, summary *models.SubmissionSummary) {
	ux.Logger.PrintLineSeparator()
	for _, r := range summary.Results {
		if r.Success {
			ux.Logger.GreenCheckmarkToUser("%s: %s", r.Endpoint, r.Outcome)
		} else {
			ux.Logger.RedXToUser("%s: %s (%s)", r.Endpoint, r.Outcome, r.Error)
		}
	}
	ux.Logger.PrintLineSeparator()
	if summary.Success() {
		ux.Logger.GreenCheckmarkToUser(
			"Coupon %s accepted by %d/%d validators (%.1f%%) in %.2fs",
			operation, summary.SuccessCount, summary.TotalCount,
			summary.SuccessRate, summary.TotalTime.Seconds())
	} else {
		ux.Logger.RedXToUser(
			"Coupon %s rejected by all %d validators: %s",
			operation, summary.TotalCount, summary.FirstError())
	}
}
