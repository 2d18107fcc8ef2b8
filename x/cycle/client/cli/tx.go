package cli

import (
	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/fund-cycle/x/cycle/types"
)

// GetTxCmd returns the transaction commands for the cycle module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "cycle",
		Short:                      "Cycle module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdAdvancePhase(),
	)

	return cmd
}

// CmdAdvancePhase returns the command to request a phase transition
func CmdAdvancePhase() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Advance the cycle to its next phase and collect the transition reward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgAdvancePhase{
				Caller: clientCtx.GetFromAddress().String(),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
