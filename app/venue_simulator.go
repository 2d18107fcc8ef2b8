package app

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
)

// VenueModuleName is the module account backing the simulated venue
const VenueModuleName = "venue"

// VenueSimulator is a dev-chain trading venue: it fills trades at fixed
// per-asset prices by burning the source asset and minting the destination
// asset on the fund's account. Non-native source assets must carry an
// allowance at least equal to the trade amount; the simulator honors the
// allowance discipline a real venue contract would enforce.
type VenueSimulator struct {
	bank   bankkeeper.BaseKeeper
	assets *bankAssetAdapter

	// Reference units per one asset unit; the reference itself is 1
	prices map[string]math.LegacyDec
}

// NewVenueSimulator creates a simulator with a small set of dev prices
func NewVenueSimulator(bank bankkeeper.BaseKeeper, assets *bankAssetAdapter) *VenueSimulator {
	return &VenueSimulator{
		bank:   bank,
		assets: assets,
		prices: map[string]math.LegacyDec{
			ReferenceDenom: math.LegacyOneDec(),
			"ubtc":         math.LegacyNewDec(65000),
			"ueth":         math.LegacyNewDec(3200),
		},
	}
}

// SetPrice pins the simulated price for an asset
func (v *VenueSimulator) SetPrice(denom string, price math.LegacyDec) {
	v.prices[denom] = price
}

func (v *VenueSimulator) priceOf(denom string) math.LegacyDec {
	price, ok := v.prices[denom]
	if !ok {
		return math.LegacyOneDec()
	}
	return price
}

// Address returns the venue's account
func (v *VenueSimulator) Address() sdk.AccAddress {
	return authtypes.NewModuleAddress(VenueModuleName)
}

// Trade fills srcAmount of the source asset at the pinned prices and
// credits the destination asset to the recipient
func (v *VenueSimulator) Trade(ctx sdk.Context, srcDenom string, srcAmount math.Int, destDenom string,
	recipient sdk.AccAddress, maxDest math.Int, minRate math.LegacyDec, feeID string) (math.Int, error) {
	if srcDenom != ReferenceDenom {
		if v.assets.allowance(srcDenom).LT(srcAmount) {
			return math.ZeroInt(), fmt.Errorf("venue allowance for %s below %s", srcDenom, srcAmount)
		}
	}

	refValue := v.priceOf(srcDenom).MulInt(srcAmount)
	dest := refValue.Quo(v.priceOf(destDenom)).TruncateInt()
	if maxDest.IsPositive() && dest.GT(maxDest) {
		dest = maxDest
	}
	if !dest.IsPositive() {
		return math.ZeroInt(), nil
	}
	if minRate.IsPositive() {
		rate := math.LegacyNewDecFromInt(dest).Quo(math.LegacyNewDecFromInt(srcAmount))
		if rate.LT(minRate) {
			return math.ZeroInt(), fmt.Errorf("venue rate %s below minimum %s", rate, minRate)
		}
	}

	srcCoins := sdk.NewCoins(sdk.NewCoin(srcDenom, srcAmount))
	if err := v.bank.SendCoinsFromAccountToModule(ctx, recipient, VenueModuleName, srcCoins); err != nil {
		return math.ZeroInt(), err
	}
	if err := v.bank.BurnCoins(ctx, VenueModuleName, srcCoins); err != nil {
		return math.ZeroInt(), err
	}

	destCoins := sdk.NewCoins(sdk.NewCoin(destDenom, dest))
	if err := v.bank.MintCoins(ctx, VenueModuleName, destCoins); err != nil {
		return math.ZeroInt(), err
	}
	if err := v.bank.SendCoinsFromModuleToAccount(ctx, VenueModuleName, recipient, destCoins); err != nil {
		return math.ZeroInt(), err
	}

	return dest, nil
}
