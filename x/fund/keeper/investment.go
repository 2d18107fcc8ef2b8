package keeper

import (
	"fmt"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

// CloseResult reports how an investment settled
type CloseResult struct {
	SellPrice math.LegacyDec
	// Original stake returned to the account (capped at the stake)
	Returned math.Int
	// Surplus minted on a winning trade
	Minted math.Int
	// Shortfall burned from the forfeited-stake holding on a losing trade
	Burned math.Int
	// Reference asset received from the sale
	Proceeds math.Int
}

// OpenInvestment stakes reputation and routes a stake-proportional slice of
// the whole pool into the target asset. The committed reference amount is
// stake / total_reputation_supply x pool_value: the stake sizes an
// allocation of the pool, not of the caller's own deposits. All-or-nothing:
// a zero-fill trade aborts with no stake collected and no record appended.
func (k *Keeper) OpenInvestment(ctx sdk.Context, creator sdk.AccAddress, assetDenom string, stake math.Int) (uint64, *types.Investment, error) {
	if err := k.enter(); err != nil {
		return 0, nil, err
	}
	defer k.exit()

	if err := k.requirePhase(ctx, types.PhaseMakeDecisions); err != nil {
		return 0, nil, err
	}
	if !stake.IsPositive() {
		return 0, nil, types.ErrInvalidAmount
	}
	if err := k.screenAsset(ctx, assetDenom); err != nil {
		return 0, nil, err
	}
	if k.reputationKeeper.BalanceOf(ctx, creator).LT(stake) {
		return 0, nil, types.ErrInsufficientStake
	}

	totalRep := k.reputationKeeper.TotalSupply(ctx)
	if !totalRep.IsPositive() {
		return 0, nil, types.ErrDivisionByZero
	}

	fund := k.GetFund(ctx)
	amountRef := stake.Mul(fund.PoolValue).Quo(totalRep)

	res, err := k.executeTrade(ctx, k.referenceDenom, amountRef, assetDenom)
	if err != nil {
		return 0, nil, err
	}

	if err := k.reputationKeeper.CollectStake(ctx, creator, stake); err != nil {
		return 0, nil, err
	}

	cycleNumber, _ := k.cycleKeeper.CurrentCycle(ctx)
	inv := types.Investment{
		AssetDenom:  assetDenom,
		CycleNumber: cycleNumber,
		Stake:       stake,
		AcquiredQty: res.Received,
		BuyPrice:    res.Price,
		SellPrice:   math.LegacyZeroDec(),
		OpenedAt:    ctx.BlockTime().Unix(),
	}

	ledger := k.GetLedger(ctx, creator)
	ledger.Investments = append(ledger.Investments, inv)
	k.SetLedger(ctx, creator, ledger)
	id := uint64(len(ledger.Investments) - 1)

	k.stakeIndex.Update(creator.String(), k.reputationKeeper.BalanceOf(ctx, creator))

	k.logger.Info("investment opened",
		"account", creator.String(),
		"investment_id", id,
		"asset", assetDenom,
		"stake", stake.String(),
		"cost", res.SrcConsumed.String(),
		"buy_price", res.Price.String(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"investment_created",
			sdk.NewAttribute("account", creator.String()),
			sdk.NewAttribute("investment_id", fmt.Sprintf("%d", id)),
			sdk.NewAttribute("asset", assetDenom),
			sdk.NewAttribute("stake", stake.String()),
			sdk.NewAttribute("buy_price", res.Price.String()),
			sdk.NewAttribute("cost", res.SrcConsumed.String()),
		),
	)

	return id, &inv, nil
}

// CloseInvestment sells the full acquired quantity back to the reference
// asset and settles the stake against realized price performance. With
// r = sellPrice / buyPrice, the account gets back min(stake, stake x r);
// a winning trade additionally mints the surplus, a losing trade burns the
// shortfall from the engine's forfeited-stake holding.
func (k *Keeper) CloseInvestment(ctx sdk.Context, creator sdk.AccAddress, id uint64) (*CloseResult, error) {
	if err := k.enter(); err != nil {
		return nil, err
	}
	defer k.exit()

	if err := k.requirePhase(ctx, types.PhaseMakeDecisions); err != nil {
		return nil, err
	}

	ledger := k.GetLedger(ctx, creator)
	if id >= uint64(len(ledger.Investments)) {
		return nil, types.ErrInvestmentNotFound
	}
	inv := &ledger.Investments[id]

	cycleNumber, _ := k.cycleKeeper.CurrentCycle(ctx)
	if inv.CycleNumber != cycleNumber {
		return nil, errors.Wrapf(types.ErrInvestmentNotFound,
			"investment %d was opened in cycle %d, current cycle is %d", id, inv.CycleNumber, cycleNumber)
	}
	if inv.Closed {
		return nil, types.ErrInvestmentClosed
	}
	if inv.BuyPrice.IsZero() {
		return nil, types.ErrDivisionByZero
	}

	res, err := k.executeTrade(ctx, inv.AssetDenom, inv.AcquiredQty, k.referenceDenom)
	if err != nil {
		return nil, err
	}
	if !res.SrcConsumed.IsPositive() {
		return nil, types.ErrDivisionByZero
	}

	// Both prices are reference units per normalized asset unit, so the
	// performance ratio is dimensionless. The sell trade's raw adapter
	// price runs the other way around, so the sell price is rebuilt from
	// the same observed deltas.
	sellPrice := math.LegacyNewDecFromInt(res.Received).
		Mul(k.scaleFactor(ctx, inv.AssetDenom)).
		Quo(math.LegacyNewDecFromInt(res.SrcConsumed).Mul(k.scaleFactor(ctx, k.referenceDenom)))

	ratio := sellPrice.Quo(inv.BuyPrice)
	scaled := ratio.MulInt(inv.Stake).TruncateInt()

	result := &CloseResult{
		SellPrice: sellPrice,
		Minted:    math.ZeroInt(),
		Burned:    math.ZeroInt(),
		Proceeds:  res.Received,
	}

	if scaled.GT(inv.Stake) {
		result.Returned = inv.Stake
		result.Minted = scaled.Sub(inv.Stake)
		if err := k.reputationKeeper.ReturnStake(ctx, creator, inv.Stake); err != nil {
			return nil, err
		}
		if err := k.reputationKeeper.Mint(ctx, creator, result.Minted); err != nil {
			return nil, err
		}
	} else {
		result.Returned = scaled
		result.Burned = inv.Stake.Sub(scaled)
		if result.Returned.IsPositive() {
			if err := k.reputationKeeper.ReturnStake(ctx, creator, result.Returned); err != nil {
				return nil, err
			}
		}
		if result.Burned.IsPositive() {
			if err := k.reputationKeeper.BurnCollected(ctx, result.Burned); err != nil {
				return nil, err
			}
		}
	}

	inv.SellPrice = sellPrice
	inv.Closed = true
	inv.ClosedAt = ctx.BlockTime().Unix()
	k.SetLedger(ctx, creator, ledger)

	k.stakeIndex.Update(creator.String(), k.reputationKeeper.BalanceOf(ctx, creator))

	k.logger.Info("investment closed",
		"account", creator.String(),
		"investment_id", id,
		"sell_price", sellPrice.String(),
		"returned", result.Returned.String(),
		"minted", result.Minted.String(),
		"burned", result.Burned.String(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"investment_sold",
			sdk.NewAttribute("account", creator.String()),
			sdk.NewAttribute("investment_id", fmt.Sprintf("%d", id)),
			sdk.NewAttribute("sell_price", sellPrice.String()),
			sdk.NewAttribute("returned_reputation", result.Returned.String()),
			sdk.NewAttribute("minted_reputation", result.Minted.String()),
			sdk.NewAttribute("burned_reputation", result.Burned.String()),
			sdk.NewAttribute("proceeds", res.Received.String()),
		),
	)

	return result, nil
}
