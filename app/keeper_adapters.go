package app

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"

	fundtypes "github.com/openalpha/fund-cycle/x/fund/types"
)

// Token denoms used by the engine
const (
	// Reference asset all pool value is denominated in
	ReferenceDenom = "uusd"
	// Reputation token: allocation weight and commission entitlement
	ReputationDenom = "urep"
	// Pool share token
	ShareDenom = "ushare"
)

// bankAssetAdapter exposes the bank module through the fund keeper's
// per-asset interface. Bank has no allowance concept, so venue allowances
// are tracked here and honored by the venue simulator.
type bankAssetAdapter struct {
	bank       bankkeeper.BaseKeeper
	allowances map[string]math.Int
}

func newBankAssetAdapter(bank bankkeeper.BaseKeeper) *bankAssetAdapter {
	return &bankAssetAdapter{
		bank:       bank,
		allowances: make(map[string]math.Int),
	}
}

func (a *bankAssetAdapter) BalanceOf(ctx sdk.Context, denom string, addr sdk.AccAddress) math.Int {
	return a.bank.GetBalance(ctx, addr, denom).Amount
}

func (a *bankAssetAdapter) Transfer(ctx sdk.Context, denom string, from, to sdk.AccAddress, amount math.Int) error {
	return a.bank.SendCoins(ctx, from, to, sdk.NewCoins(sdk.NewCoin(denom, amount)))
}

func (a *bankAssetAdapter) Approve(ctx sdk.Context, denom string, owner, spender sdk.AccAddress, amount math.Int) error {
	a.allowances[denom] = amount
	return nil
}

func (a *bankAssetAdapter) allowance(denom string) math.Int {
	amount, ok := a.allowances[denom]
	if !ok {
		return math.ZeroInt()
	}
	return amount
}

func (a *bankAssetAdapter) TotalSupply(ctx sdk.Context, denom string) math.Int {
	return a.bank.GetSupply(ctx, denom).Amount
}

// Decimals reads the largest exponent from the denom's bank metadata
func (a *bankAssetAdapter) Decimals(ctx sdk.Context, denom string) (uint32, bool) {
	metadata, ok := a.bank.GetDenomMetaData(ctx, denom)
	if !ok {
		return 0, false
	}
	var max uint32
	for _, unit := range metadata.DenomUnits {
		if unit.Exponent > max {
			max = unit.Exponent
		}
	}
	return max, true
}

// reputationAdapter backs the reputation token with a bank denom minted and
// burned through the fund module account. Collected stake is the module
// account's own holding. Pausing disables user-level sends of the denom;
// engine-driven module transfers bypass the send-enabled check.
type reputationAdapter struct {
	bank bankkeeper.BaseKeeper
}

func newReputationAdapter(bank bankkeeper.BaseKeeper) *reputationAdapter {
	return &reputationAdapter{bank: bank}
}

func (a *reputationAdapter) coins(amount math.Int) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(ReputationDenom, amount))
}

func (a *reputationAdapter) TotalSupply(ctx sdk.Context) math.Int {
	return a.bank.GetSupply(ctx, ReputationDenom).Amount
}

func (a *reputationAdapter) BalanceOf(ctx sdk.Context, addr sdk.AccAddress) math.Int {
	return a.bank.GetBalance(ctx, addr, ReputationDenom).Amount
}

func (a *reputationAdapter) Mint(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error {
	if err := a.bank.MintCoins(ctx, fundtypes.ModuleName, a.coins(amount)); err != nil {
		return err
	}
	return a.bank.SendCoinsFromModuleToAccount(ctx, fundtypes.ModuleName, to, a.coins(amount))
}

func (a *reputationAdapter) CollectStake(ctx sdk.Context, from sdk.AccAddress, amount math.Int) error {
	return a.bank.SendCoinsFromAccountToModule(ctx, from, fundtypes.ModuleName, a.coins(amount))
}

func (a *reputationAdapter) ReturnStake(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error {
	return a.bank.SendCoinsFromModuleToAccount(ctx, fundtypes.ModuleName, to, a.coins(amount))
}

func (a *reputationAdapter) BurnCollected(ctx sdk.Context, amount math.Int) error {
	return a.bank.BurnCoins(ctx, fundtypes.ModuleName, a.coins(amount))
}

func (a *reputationAdapter) CollectedBalance(ctx sdk.Context) math.Int {
	moduleAddr := authtypes.NewModuleAddress(fundtypes.ModuleName)
	return a.bank.GetBalance(ctx, moduleAddr, ReputationDenom).Amount
}

func (a *reputationAdapter) Pause(ctx sdk.Context) error {
	a.bank.SetSendEnabled(ctx, ReputationDenom, false)
	return nil
}

func (a *reputationAdapter) Unpause(ctx sdk.Context) error {
	a.bank.SetSendEnabled(ctx, ReputationDenom, true)
	return nil
}

func (a *reputationAdapter) IsPaused(ctx sdk.Context) bool {
	return !a.bank.IsSendEnabledDenom(ctx, ReputationDenom)
}

// shareAdapter backs the pool share token with a bank denom
type shareAdapter struct {
	bank bankkeeper.BaseKeeper
}

func newShareAdapter(bank bankkeeper.BaseKeeper) *shareAdapter {
	return &shareAdapter{bank: bank}
}

func (a *shareAdapter) coins(amount math.Int) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(ShareDenom, amount))
}

func (a *shareAdapter) TotalSupply(ctx sdk.Context) math.Int {
	return a.bank.GetSupply(ctx, ShareDenom).Amount
}

func (a *shareAdapter) BalanceOf(ctx sdk.Context, addr sdk.AccAddress) math.Int {
	return a.bank.GetBalance(ctx, addr, ShareDenom).Amount
}

func (a *shareAdapter) Mint(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error {
	if err := a.bank.MintCoins(ctx, fundtypes.ModuleName, a.coins(amount)); err != nil {
		return err
	}
	return a.bank.SendCoinsFromModuleToAccount(ctx, fundtypes.ModuleName, to, a.coins(amount))
}

func (a *shareAdapter) Burn(ctx sdk.Context, from sdk.AccAddress, amount math.Int) error {
	if err := a.bank.SendCoinsFromAccountToModule(ctx, from, fundtypes.ModuleName, a.coins(amount)); err != nil {
		return err
	}
	return a.bank.BurnCoins(ctx, fundtypes.ModuleName, a.coins(amount))
}
