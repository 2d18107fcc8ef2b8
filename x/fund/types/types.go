package types

import (
	"cosmossdk.io/math"
)

// Module name and store key
const (
	ModuleName = "fund"
	StoreKey   = ModuleName
)

// Cycle phases as reported by the cycle module. Duplicated here so the fund
// keeper can gate operations without importing the cycle package.
const (
	PhaseDepositWithdraw  = "deposit_withdraw"
	PhaseMakeDecisions    = "make_decisions"
	PhaseRedeemCommission = "redeem_commission"
)

// Investment is one cycle-scoped, stake-backed position in a single asset.
// Buy price is set exactly once at open, sell price exactly once at close,
// and the closed flag flips false to true exactly once.
type Investment struct {
	AssetDenom  string         `json:"asset_denom"`
	CycleNumber uint64         `json:"cycle_number"`
	Stake       math.Int       `json:"stake"`
	AcquiredQty math.Int       `json:"acquired_qty"`
	BuyPrice    math.LegacyDec `json:"buy_price"`
	SellPrice   math.LegacyDec `json:"sell_price"`
	Closed      bool           `json:"closed"`
	OpenedAt    int64          `json:"opened_at"`
	ClosedAt    int64          `json:"closed_at"`
}

// AccountLedger tracks one account's redemption state and its investments
// for the currently open cycle. The investment list is cleared when the
// account redeems commission; ids are indices into the list.
type AccountLedger struct {
	Address           string       `json:"address"`
	LastRedeemedCycle uint64       `json:"last_redeemed_cycle"`
	HasEverRedeemed   bool         `json:"has_ever_redeemed"`
	Investments       []Investment `json:"investments"`
}

// NewAccountLedger returns an empty ledger for the given address
func NewAccountLedger(address string) *AccountLedger {
	return &AccountLedger{
		Address:     address,
		Investments: []Investment{},
	}
}

// HasRedeemed reports whether the account already redeemed commission for
// the given cycle
func (l *AccountLedger) HasRedeemed(cycleNumber uint64) bool {
	return l.HasEverRedeemed && l.LastRedeemedCycle == cycleNumber
}

// Fund is the pool aggregate: authoritative pool value in the reference
// asset and the commission pool for the cycle just settled. Raw bank balance
// may exceed PoolValue: the difference is undistributed fee residue.
type Fund struct {
	PoolValue      math.Int `json:"pool_value"`
	CommissionPool math.Int `json:"commission_pool"`
}

// NewFund returns an empty fund aggregate
func NewFund() *Fund {
	return &Fund{
		PoolValue:      math.ZeroInt(),
		CommissionPool: math.ZeroInt(),
	}
}

// Params holds the fund module configuration. All rates are fractions
// in [0,1).
type Params struct {
	CommissionRate   math.LegacyDec `json:"commission_rate"`
	AssetFeeRate     math.LegacyDec `json:"asset_fee_rate"`
	DeveloperFeeRate math.LegacyDec `json:"developer_fee_rate"`
	ExitFeeRate      math.LegacyDec `json:"exit_fee_rate"`

	// Developer account receiving the developer fee and exit fees
	Developer string `json:"developer"`

	// Assets with fewer decimals are ineligible investment targets unless
	// explicitly allowed
	MinAssetDecimals uint32 `json:"min_asset_decimals"`
}

// DefaultParams returns the default fund parameters
func DefaultParams() Params {
	return Params{
		CommissionRate:   math.LegacyNewDecWithPrec(20, 2), // 20% of profit
		AssetFeeRate:     math.LegacyNewDecWithPrec(5, 3),  // 0.5% of AUM
		DeveloperFeeRate: math.LegacyNewDecWithPrec(5, 3),  // 0.5% of AUM
		ExitFeeRate:      math.LegacyNewDecWithPrec(1, 3),  // 0.1% of output
		MinAssetDecimals: 4,
	}
}

func validRate(r math.LegacyDec) bool {
	return !r.IsNil() && !r.IsNegative() && r.LT(math.LegacyOneDec())
}

// Validate checks the parameter set. The commission and developer fee
// together must stay strictly below 100%.
func (p Params) Validate() error {
	if !validRate(p.CommissionRate) || !validRate(p.AssetFeeRate) ||
		!validRate(p.DeveloperFeeRate) || !validRate(p.ExitFeeRate) {
		return ErrInvalidRates
	}
	if p.CommissionRate.Add(p.DeveloperFeeRate).GTE(math.LegacyOneDec()) {
		return ErrInvalidRates
	}
	return nil
}

// ValidateUpdate checks a rate change against the currently stored params.
// The developer fee and exit fee may only ratchet downward once set.
func (p Params) ValidateUpdate(current Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.DeveloperFeeRate.GT(current.DeveloperFeeRate) {
		return ErrInvalidRates
	}
	if p.ExitFeeRate.GT(current.ExitFeeRate) {
		return ErrInvalidRates
	}
	return nil
}

// AssetOverride is an explicit allow/deny entry for one asset, bypassing
// the default eligibility screen
type AssetOverride struct {
	Denom   string `json:"denom"`
	Allowed bool   `json:"allowed"`
}
