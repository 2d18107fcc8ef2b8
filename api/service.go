package api

import (
	"github.com/openalpha/fund-cycle/api/types"
)

// Re-export types for convenience
type (
	FundState                = types.FundState
	CycleState               = types.CycleState
	Rates                    = types.Rates
	Investment               = types.Investment
	Account                  = types.Account
	Staker                   = types.Staker
	CommissionPreview        = types.CommissionPreview
	PoolValuePoint           = types.PoolValuePoint
	DepositRequest           = types.DepositRequest
	DepositResponse          = types.DepositResponse
	WithdrawRequest          = types.WithdrawRequest
	WithdrawResponse         = types.WithdrawResponse
	OpenInvestmentRequest    = types.OpenInvestmentRequest
	OpenInvestmentResponse   = types.OpenInvestmentResponse
	CloseInvestmentRequest   = types.CloseInvestmentRequest
	CloseInvestmentResponse  = types.CloseInvestmentResponse
	RedeemCommissionRequest  = types.RedeemCommissionRequest
	RedeemCommissionResponse = types.RedeemCommissionResponse
	AdvancePhaseRequest      = types.AdvancePhaseRequest
	AdvancePhaseResponse     = types.AdvancePhaseResponse
	FundService              = types.FundService
	CycleService             = types.CycleService
	EngineService            = types.EngineService
)

// nowMillis returns current timestamp in milliseconds
func nowMillis() int64 {
	return types.NowMillis()
}
