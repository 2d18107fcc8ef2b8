package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/fund-cycle/x/fund/types"
)

// RatesInfo is a CLI-friendly fee configuration struct
type RatesInfo struct {
	CommissionRate   string `json:"commission_rate"`
	AssetFeeRate     string `json:"asset_fee_rate"`
	DeveloperFeeRate string `json:"developer_fee_rate"`
	ExitFeeRate      string `json:"exit_fee_rate"`
	MinAssetDecimals uint32 `json:"min_asset_decimals"`
}

// GetQueryCmd returns the cli query commands for the fund module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "fund",
		Short:                      "Querying commands for the fund module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryFund(),
		CmdQueryRates(),
		CmdQueryLedger(),
		CmdQueryInvestment(),
	)

	return cmd
}

// CmdQueryFund returns the command to query the fund aggregate
func CmdQueryFund() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Query the pool value and commission pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Fund query requires running node connection")
			fmt.Println("Use REST API: GET /v1/fund")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryRates returns the command to print the default fee configuration
func CmdQueryRates() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Query the fee configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := types.DefaultParams()
			info := RatesInfo{
				CommissionRate:   params.CommissionRate.String(),
				AssetFeeRate:     params.AssetFeeRate.String(),
				DeveloperFeeRate: params.DeveloperFeeRate.String(),
				ExitFeeRate:      params.ExitFeeRate.String(),
				MinAssetDecimals: params.MinAssetDecimals,
			}

			output, _ := json.MarshalIndent(info, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryLedger returns the command to query an account's ledger
func CmdQueryLedger() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger [address]",
		Short: "Query an account's investments and redemption state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Ledger query requires running node connection")
			fmt.Println("Use REST API: GET /v1/accounts/{address}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryInvestment returns the command to query a single investment
func CmdQueryInvestment() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "investment [address] [id]",
		Short: "Query a specific investment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Investment query requires running node connection")
			fmt.Println("Use REST API: GET /v1/investments/{id}?address={address}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
