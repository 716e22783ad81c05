// Copyright (C) 2024, BitKoop. All rights reserved.
// See the file LICENSE for licensing terms.
package validatorscmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bitkoop-network/miner-cli/pkg/cobrautils"
	"github.com/bitkoop-network/miner-cli/pkg/metagraph"
	"github.com/bitkoop-network/miner-cli/pkg/ss58"
	"github.com/bitkoop-network/miner-cli/pkg/ux"
)

var (
	forceRefresh  bool
	onlyAvailable bool
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the subnet validators and their status",
		Args:  cobrautils.ExactArgs(0),
		RunE:  listValidators,
	}
	cmd.Flags().BoolVar(&forceRefresh, "refresh", false, "bypass the validator cache")
	cmd.Flags().BoolVar(&onlyAvailable, "available", false, "only show validators eligible for submission")
	return cmd
}

func listValidators(cmd *cobra.Command, _ []string) error {
	registry := app.NewRegistry()

	validators, err := registry.List(cmd.Context(), metagraph.ListOptions{
		ForceRefresh:  forceRefresh,
		OnlyAvailable: onlyAvailable,
	})
	if err != nil {
		return err
	}

	chain := app.NewChainClient()
	defer chain.Close()
	if block, err := chain.GetLatestBlockNumber(cmd.Context()); err == nil {
		if hash, err := chain.GetBlockHash(cmd.Context(), block); err == nil {
			ux.Logger.PrintToUser("Network %s at block %d (%s)", app.Network, block, ss58.Short(hash))
		} else {
			ux.Logger.PrintToUser("Network %s at block %d", app.Network, block)
		}
	} else {
		app.Log.Warn(fmt.Sprintf("could not read chain head: %s", err))
	}

	t := ux.DefaultTable("Validators", table.Row{"UID", "Hotkey", "Endpoint", "Stake", "Trust", "Status", "Latency"})
	for _, v := range validators {
		latency := "-"
		if v.ResponseTime != nil {
			latency = fmt.Sprintf("%.2fs", v.ResponseTime.Seconds())
		}
		t.AppendRow(table.Row{
			v.UID,
			v.HotkeyShort(),
			v.EndpointURL(),
			fmt.Sprintf("%.1f", v.TotalStake),
			fmt.Sprintf("%.3f", v.Trust),
			v.Status,
			latency,
		})
	}
	ux.Logger.PrintToUser("%s", t.Render())

	info, err := registry.Info(cmd.Context())
	if err != nil {
		return err
	}
	ux.Logger.PrintToUser(
		"Validators: %d total, %d reachable, %d compatible, %d available | stake %s TAO | health %.1f%%",
		info.TotalValidators, info.ReachableValidators,
		info.ConfirmedValidators, info.AvailableValidators,
		ux.ConvertToStringWithThousandSeparator(uint64(info.TotalStake)), info.HealthScore())
	return nil
}
