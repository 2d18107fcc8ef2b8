package keeper

import (
	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

// tradeResult reports what a trade actually did, measured entirely from
// observed balance deltas on the fund account
type tradeResult struct {
	// Source asset actually consumed by the venue
	SrcConsumed math.Int
	// Destination asset actually received
	Received math.Int
	// Effective unit price: source spent per one destination unit, with
	// both sides normalized by their decimal scale
	Price math.LegacyDec
}

// scaleFactor returns 10^decimals for the asset, 1 if decimals are unknown
func (k *Keeper) scaleFactor(ctx sdk.Context, denom string) math.LegacyDec {
	decimals, ok := k.assetKeeper.Decimals(ctx, denom)
	if !ok {
		return math.LegacyOneDec()
	}
	return math.LegacyNewDec(10).Power(uint64(decimals))
}

// executeTrade converts srcAmount of the source asset held by the fund into
// the destination asset via the external venue. Everything the venue claims
// is ignored: the consumed and received amounts come from differencing the
// fund's balances strictly before and after the call. Short transfers,
// fee-on-transfer assets and partial fills are therefore priced correctly,
// and a venue that delivers nothing fails with ErrZeroFill.
//
// A spending allowance equal to srcAmount is granted for non-native source
// assets and reset to zero afterward, so no standing allowance survives the
// trade.
func (k *Keeper) executeTrade(ctx sdk.Context, srcDenom string, srcAmount math.Int, destDenom string) (*tradeResult, error) {
	if srcDenom == destDenom {
		return nil, types.ErrSameAsset
	}
	if !srcAmount.IsPositive() {
		return nil, types.ErrInvalidAmount
	}

	srcBefore := k.assetKeeper.BalanceOf(ctx, srcDenom, k.fundAddress)
	if srcBefore.LT(srcAmount) {
		return nil, errors.Wrapf(types.ErrInsufficientFunds,
			"fund holds %s %s, trade needs %s", srcBefore, srcDenom, srcAmount)
	}
	destBefore := k.assetKeeper.BalanceOf(ctx, destDenom, k.fundAddress)

	venue := k.exchangeKeeper.Address()
	if srcDenom != k.referenceDenom {
		if err := k.assetKeeper.Approve(ctx, srcDenom, k.fundAddress, venue, srcAmount); err != nil {
			return nil, err
		}
	}

	_, err := k.exchangeKeeper.Trade(ctx, srcDenom, srcAmount, destDenom,
		k.fundAddress, math.ZeroInt(), math.LegacyZeroDec(), "")

	if srcDenom != k.referenceDenom {
		if resetErr := k.assetKeeper.Approve(ctx, srcDenom, k.fundAddress, venue, math.ZeroInt()); resetErr != nil && err == nil {
			err = resetErr
		}
	}
	if err != nil {
		return nil, err
	}

	srcAfter := k.assetKeeper.BalanceOf(ctx, srcDenom, k.fundAddress)
	destAfter := k.assetKeeper.BalanceOf(ctx, destDenom, k.fundAddress)

	received := destAfter.Sub(destBefore)
	if !received.IsPositive() {
		return nil, errors.Wrapf(types.ErrZeroFill,
			"venue delivered nothing trading %s %s for %s", srcAmount, srcDenom, destDenom)
	}

	srcConsumed := srcBefore.Sub(srcAfter)
	if srcConsumed.IsNegative() {
		// Unsolicited source inflow during the trade; only the tracked
		// consumption counts, never third-party pushes.
		srcConsumed = math.ZeroInt()
	}

	price := math.LegacyNewDecFromInt(srcConsumed).
		Mul(k.scaleFactor(ctx, destDenom)).
		Quo(math.LegacyNewDecFromInt(received).Mul(k.scaleFactor(ctx, srcDenom)))

	k.logger.Debug("trade executed",
		"src", srcDenom,
		"dest", destDenom,
		"src_consumed", srcConsumed.String(),
		"received", received.String(),
		"price", price.String(),
	)

	return &tradeResult{
		SrcConsumed: srcConsumed,
		Received:    received,
		Price:       price,
	}, nil
}
