package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/fund-cycle/x/cycle/types"
)

// PhaseInfo is a CLI-friendly phase description
type PhaseInfo struct {
	Phase string `json:"phase"`
	Next  string `json:"next"`
}

// GetQueryCmd returns the cli query commands for the cycle module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "cycle",
		Short:                      "Querying commands for the cycle module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryState(),
		CmdQueryPhases(),
	)

	return cmd
}

// CmdQueryState returns the command to query the cycle state
func CmdQueryState() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Query the current cycle number and phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Cycle query requires running node connection")
			fmt.Println("Use REST API: GET /v1/cycle")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPhases returns the command to list the phase rotation
func CmdQueryPhases() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phases",
		Short: "List the cycle phases and their rotation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			phases := []PhaseInfo{
				{Phase: types.PhaseDepositWithdraw, Next: types.NextPhase(types.PhaseDepositWithdraw)},
				{Phase: types.PhaseMakeDecisions, Next: types.NextPhase(types.PhaseMakeDecisions)},
				{Phase: types.PhaseRedeemCommission, Next: types.NextPhase(types.PhaseRedeemCommission)},
			}

			output, _ := json.MarshalIndent(phases, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
