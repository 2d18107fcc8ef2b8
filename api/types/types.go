package types

import (
	"context"
	"time"
)

// FundState represents the fund aggregate in the API response
type FundState struct {
	PoolValue        string `json:"pool_value"`
	CommissionPool   string `json:"commission_pool"`
	ShareSupply      string `json:"share_supply"`
	ReputationSupply string `json:"reputation_supply"`
	UpdatedAt        int64  `json:"updated_at"`
}

// CycleState represents the cycle state machine in the API response
type CycleState struct {
	CycleNumber      uint64 `json:"cycle_number"`
	Phase            string `json:"phase"`
	PhaseStart       int64  `json:"phase_start"`
	PhaseAge         int64  `json:"phase_age"`
	ReputationPaused bool   `json:"reputation_paused"`
	UpdatedAt        int64  `json:"updated_at"`
}

// Rates represents the fee configuration in the API response
type Rates struct {
	CommissionRate   string `json:"commission_rate"`
	AssetFeeRate     string `json:"asset_fee_rate"`
	DeveloperFeeRate string `json:"developer_fee_rate"`
	ExitFeeRate      string `json:"exit_fee_rate"`
	Developer        string `json:"developer,omitempty"`
}

// Investment represents a single investment in the API response
type Investment struct {
	ID          uint64 `json:"id"`
	AssetDenom  string `json:"asset_denom"`
	CycleNumber uint64 `json:"cycle_number"`
	Stake       string `json:"stake"`
	AcquiredQty string `json:"acquired_qty"`
	BuyPrice    string `json:"buy_price"`
	SellPrice   string `json:"sell_price,omitempty"`
	Closed      bool   `json:"closed"`
	OpenedAt    int64  `json:"opened_at"`
	ClosedAt    int64  `json:"closed_at,omitempty"`
}

// Account represents a participant account in the API response
type Account struct {
	Address           string        `json:"address"`
	ReputationBalance string        `json:"reputation_balance"`
	ShareBalance      string        `json:"share_balance"`
	LastRedeemedCycle uint64        `json:"last_redeemed_cycle"`
	HasEverRedeemed   bool          `json:"has_ever_redeemed"`
	Investments       []*Investment `json:"investments"`
}

// Staker represents one entry in the top-staker ranking
type Staker struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// CommissionPreview represents a participant's pending commission claim
type CommissionPreview struct {
	Address         string `json:"address"`
	Owed            string `json:"owed"`
	AlreadyRedeemed bool   `json:"already_redeemed"`
}

// PoolValuePoint is one sample of the pool value history
type PoolValuePoint struct {
	CycleNumber uint64 `json:"cycle_number"`
	Phase       string `json:"phase"`
	PoolValue   string `json:"pool_value"`
	Timestamp   int64  `json:"timestamp"`
}

// DepositRequest represents the request to deposit into the pool
type DepositRequest struct {
	Depositor  string `json:"depositor"`
	AssetDenom string `json:"asset_denom"`
	Amount     string `json:"amount"`
}

// DepositResponse represents the response after a deposit
type DepositResponse struct {
	SharesMinted  string     `json:"shares_minted"`
	ValueCredited string     `json:"value_credited"`
	Fund          *FundState `json:"fund"`
}

// WithdrawRequest represents the request to withdraw from the pool
type WithdrawRequest struct {
	Withdrawer string `json:"withdrawer"`
	AssetDenom string `json:"asset_denom"`
	Amount     string `json:"amount"`
}

// WithdrawResponse represents the response after a withdrawal
type WithdrawResponse struct {
	SharesBurned string     `json:"shares_burned"`
	Paid         string     `json:"paid"`
	Fund         *FundState `json:"fund"`
}

// OpenInvestmentRequest represents the request to open an investment
type OpenInvestmentRequest struct {
	Creator    string `json:"creator"`
	AssetDenom string `json:"asset_denom"`
	Stake      string `json:"stake"`
}

// OpenInvestmentResponse represents the response after opening an investment
type OpenInvestmentResponse struct {
	Investment *Investment `json:"investment"`
}

// CloseInvestmentRequest represents the request to close an investment
type CloseInvestmentRequest struct {
	Creator      string `json:"creator"`
	InvestmentID uint64 `json:"investment_id"`
}

// CloseInvestmentResponse represents the response after closing an investment
type CloseInvestmentResponse struct {
	Investment *Investment `json:"investment"`
	Returned   string      `json:"returned"`
	Minted     string      `json:"minted"`
	Burned     string      `json:"burned"`
}

// RedeemCommissionRequest represents the request to redeem commission
type RedeemCommissionRequest struct {
	Account  string `json:"account"`
	InShares bool   `json:"in_shares"`
}

// RedeemCommissionResponse represents the response after redeeming commission
type RedeemCommissionResponse struct {
	Paid     string `json:"paid"`
	InShares bool   `json:"in_shares"`
}

// AdvancePhaseRequest represents the request to advance the cycle phase
type AdvancePhaseRequest struct {
	Caller string `json:"caller"`
}

// AdvancePhaseResponse represents the response after a phase transition
type AdvancePhaseResponse struct {
	Cycle *CycleState `json:"cycle"`
}

// FundService defines the read interface over the fund state
type FundService interface {
	GetFundState(ctx context.Context) (*FundState, error)
	GetRates(ctx context.Context) (*Rates, error)
	GetAccount(ctx context.Context, address string) (*Account, error)
	GetInvestment(ctx context.Context, address string, id uint64) (*Investment, error)
	GetTopStakers(ctx context.Context, limit int) ([]*Staker, error)
	PreviewCommission(ctx context.Context, address string) (*CommissionPreview, error)
	GetPoolHistory(ctx context.Context, fromCycle, toCycle uint64) ([]*PoolValuePoint, error)
}

// CycleService defines the read interface over the cycle state machine
type CycleService interface {
	GetCycleState(ctx context.Context) (*CycleState, error)
}

// EngineService defines the state-changing operations
type EngineService interface {
	Deposit(ctx context.Context, req *DepositRequest) (*DepositResponse, error)
	Withdraw(ctx context.Context, req *WithdrawRequest) (*WithdrawResponse, error)
	OpenInvestment(ctx context.Context, req *OpenInvestmentRequest) (*OpenInvestmentResponse, error)
	CloseInvestment(ctx context.Context, req *CloseInvestmentRequest) (*CloseInvestmentResponse, error)
	RedeemCommission(ctx context.Context, req *RedeemCommissionRequest) (*RedeemCommissionResponse, error)
	AdvancePhase(ctx context.Context, req *AdvancePhaseRequest) (*AdvancePhaseResponse, error)
}

// Helper function to get current timestamp in milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
