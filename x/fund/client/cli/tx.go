package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/fund-cycle/x/fund/types"
)

const flagInShares = "in-shares"

// GetTxCmd returns the transaction commands for the fund module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "fund",
		Short:                      "Fund module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdDeposit(),
		CmdWithdraw(),
		CmdOpenInvestment(),
		CmdCloseInvestment(),
		CmdRedeemCommission(),
		CmdSellLeftoverAsset(),
	)

	return cmd
}

// CmdDeposit returns the command to deposit an asset into the pool
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [asset-denom] [amount]",
		Short: "Deposit an asset into the pool in exchange for shares",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgDeposit{
				Depositor:  clientCtx.GetFromAddress().String(),
				AssetDenom: args[0],
				Amount:     args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdWithdraw returns the command to withdraw from the pool
func CmdWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw [asset-denom] [amount]",
		Short: "Burn shares and withdraw the requested value from the pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgWithdraw{
				Withdrawer: clientCtx.GetFromAddress().String(),
				AssetDenom: args[0],
				Amount:     args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdOpenInvestment returns the command to open an investment
func CmdOpenInvestment() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open-investment [asset-denom] [stake]",
		Short: "Stake reputation to direct pool capital into an asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgOpenInvestment{
				Creator:    clientCtx.GetFromAddress().String(),
				AssetDenom: args[0],
				Stake:      args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCloseInvestment returns the command to close an investment
func CmdCloseInvestment() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close-investment [investment-id]",
		Short: "Sell an open investment back to the reference asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}

			msg := &types.MsgCloseInvestment{
				Creator:      clientCtx.GetFromAddress().String(),
				InvestmentID: id,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRedeemCommission returns the command to redeem earned commission
func CmdRedeemCommission() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeem-commission",
		Short: "Claim the caller's pro-rata slice of the commission pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			inShares, err := cmd.Flags().GetBool(flagInShares)
			if err != nil {
				return err
			}

			msg := &types.MsgRedeemCommission{
				Account:  clientCtx.GetFromAddress().String(),
				InShares: inShares,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool(flagInShares, false, "Reinvest the commission as pool shares instead of paying out")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSellLeftoverAsset returns the command to liquidate a leftover asset
func CmdSellLeftoverAsset() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell-leftover [asset-denom]",
		Short: "Convert a non-reference asset held by the pool back to the reference asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgSellLeftoverAsset{
				Caller:     clientCtx.GetFromAddress().String(),
				AssetDenom: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
