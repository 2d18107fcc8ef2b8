package keeper

import (
	"fmt"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

// SettleEndOfCycle realizes the cycle's profit or loss and carves out the
// fee pools. Called by the cycle state machine at the single boundary where
// the pool is fully liquid (leaving MakeDecisions). Two independent fee
// bases: a performance fee on profit and a flat fee on assets under
// management; the developer fee is paid out immediately, before the new
// pool value is fixed.
func (k *Keeper) SettleEndOfCycle(ctx sdk.Context) error {
	if err := k.enter(); err != nil {
		return err
	}
	defer k.exit()

	fund := k.GetFund(ctx)
	params := k.GetParams(ctx)
	balance := k.assetKeeper.BalanceOf(ctx, k.referenceDenom, k.fundAddress)

	profit := math.ZeroInt()
	if balance.GT(fund.PoolValue) {
		profit = balance.Sub(fund.PoolValue)
	}

	commissionPool := params.CommissionRate.MulInt(profit).TruncateInt().
		Add(params.AssetFeeRate.MulInt(balance).TruncateInt())

	developerFee := math.ZeroInt()
	if params.Developer != "" {
		developerFee = params.DeveloperFeeRate.MulInt(balance).TruncateInt()
	}

	newPoolValue := balance.Sub(commissionPool).Sub(developerFee)
	if newPoolValue.IsNegative() {
		return errors.Wrapf(types.ErrOverflow,
			"fees %s exceed balance %s", commissionPool.Add(developerFee), balance)
	}

	if developerFee.IsPositive() {
		developer, err := sdk.AccAddressFromBech32(params.Developer)
		if err != nil {
			return types.ErrInvalidAddress
		}
		if err := k.assetKeeper.Transfer(ctx, k.referenceDenom, k.fundAddress, developer, developerFee); err != nil {
			return err
		}
	}

	oldPoolValue := fund.PoolValue
	fund.PoolValue = newPoolValue
	fund.CommissionPool = commissionPool
	k.SetFund(ctx, fund)

	k.logger.Info("cycle settled",
		"old_pool_value", oldPoolValue.String(),
		"new_pool_value", newPoolValue.String(),
		"profit", profit.String(),
		"commission_pool", commissionPool.String(),
		"developer_fee", developerFee.String(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"profit_loss",
			sdk.NewAttribute("old_pool_value", oldPoolValue.String()),
			sdk.NewAttribute("new_pool_value", newPoolValue.String()),
			sdk.NewAttribute("profit", profit.String()),
		),
	)
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"total_commission_paid",
			sdk.NewAttribute("commission_pool", commissionPool.String()),
			sdk.NewAttribute("developer_fee", developerFee.String()),
		),
	)

	return nil
}

// Deposit takes an asset from the depositor, converts it into the reference
// asset if needed, and mints shares pro rata against the pool value before
// the deposit. The very first deposit mints 1:1. Share math and pool value
// only ever use the reference amount actually received, and any unconverted
// source residue is refunded.
func (k *Keeper) Deposit(ctx sdk.Context, depositor sdk.AccAddress, assetDenom string, amount math.Int) (math.Int, error) {
	if err := k.enter(); err != nil {
		return math.ZeroInt(), err
	}
	defer k.exit()

	if err := k.requirePhase(ctx, types.PhaseDepositWithdraw); err != nil {
		return math.ZeroInt(), err
	}
	if !amount.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount
	}

	before := k.assetKeeper.BalanceOf(ctx, assetDenom, k.fundAddress)
	if err := k.assetKeeper.Transfer(ctx, assetDenom, depositor, k.fundAddress, amount); err != nil {
		return math.ZeroInt(), err
	}
	received := k.assetKeeper.BalanceOf(ctx, assetDenom, k.fundAddress).Sub(before)
	if !received.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount
	}

	actualRef := received
	if assetDenom != k.referenceDenom {
		res, err := k.executeTrade(ctx, assetDenom, received, k.referenceDenom)
		if err != nil {
			return math.ZeroInt(), err
		}
		actualRef = res.Received

		if leftover := received.Sub(res.SrcConsumed); leftover.IsPositive() {
			if err := k.assetKeeper.Transfer(ctx, assetDenom, k.fundAddress, depositor, leftover); err != nil {
				return math.ZeroInt(), err
			}
		}
	}

	fund := k.GetFund(ctx)
	shareSupply := k.shareKeeper.TotalSupply(ctx)

	var shares math.Int
	if shareSupply.IsZero() || fund.PoolValue.IsZero() {
		shares = actualRef
	} else {
		shares = actualRef.Mul(shareSupply).Quo(fund.PoolValue)
	}
	if !shares.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount
	}

	if err := k.shareKeeper.Mint(ctx, depositor, shares); err != nil {
		return math.ZeroInt(), err
	}
	fund.PoolValue = fund.PoolValue.Add(actualRef)
	k.SetFund(ctx, fund)

	k.logger.Info("deposit",
		"account", depositor.String(),
		"asset", assetDenom,
		"reference_received", actualRef.String(),
		"shares_minted", shares.String(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"deposit",
			sdk.NewAttribute("account", depositor.String()),
			sdk.NewAttribute("asset", assetDenom),
			sdk.NewAttribute("reference_received", actualRef.String()),
			sdk.NewAttribute("shares_minted", shares.String()),
		),
	)

	return shares, nil
}

// Withdraw burns shares worth the requested reference amount and pays the
// withdrawer in the requested asset, minus an exit fee routed to the
// developer. When the venue consumes only part of the reference amount, the
// unconsumed residue is refunded to the withdrawer in the reference asset,
// so pool value always drops by the full amount backing the burned shares.
func (k *Keeper) Withdraw(ctx sdk.Context, withdrawer sdk.AccAddress, assetDenom string, amountRef math.Int) (math.Int, math.Int, error) {
	if err := k.enter(); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	defer k.exit()

	if err := k.requirePhase(ctx, types.PhaseDepositWithdraw); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if !amountRef.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidAmount
	}

	fund := k.GetFund(ctx)
	if !fund.PoolValue.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrDivisionByZero
	}
	shareSupply := k.shareKeeper.TotalSupply(ctx)
	if !shareSupply.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInsufficientFunds
	}

	sharesToBurn := amountRef.Mul(shareSupply).Quo(fund.PoolValue)
	if !sharesToBurn.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidAmount
	}
	if k.shareKeeper.BalanceOf(ctx, withdrawer).LT(sharesToBurn) {
		return math.ZeroInt(), math.ZeroInt(), errors.Wrapf(types.ErrInsufficientFunds,
			"need %s shares", sharesToBurn)
	}

	if err := k.shareKeeper.Burn(ctx, withdrawer, sharesToBurn); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	output := amountRef
	residue := math.ZeroInt()
	if assetDenom != k.referenceDenom {
		res, err := k.executeTrade(ctx, k.referenceDenom, amountRef, assetDenom)
		if err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
		output = res.Received

		residue = amountRef.Sub(res.SrcConsumed)
		if residue.IsPositive() {
			if err := k.assetKeeper.Transfer(ctx, k.referenceDenom, k.fundAddress, withdrawer, residue); err != nil {
				return math.ZeroInt(), math.ZeroInt(), err
			}
		}
	} else if k.assetKeeper.BalanceOf(ctx, k.referenceDenom, k.fundAddress).LT(amountRef) {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInsufficientFunds
	}

	params := k.GetParams(ctx)
	exitFee := math.ZeroInt()
	if params.Developer != "" && params.ExitFeeRate.IsPositive() {
		exitFee = params.ExitFeeRate.MulInt(output).TruncateInt()
	}
	if exitFee.IsPositive() {
		developer, err := sdk.AccAddressFromBech32(params.Developer)
		if err != nil {
			return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidAddress
		}
		if err := k.assetKeeper.Transfer(ctx, assetDenom, k.fundAddress, developer, exitFee); err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
	}

	paid := output.Sub(exitFee)
	if err := k.assetKeeper.Transfer(ctx, assetDenom, k.fundAddress, withdrawer, paid); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	fund.PoolValue = fund.PoolValue.Sub(amountRef)
	if fund.PoolValue.IsNegative() {
		fund.PoolValue = math.ZeroInt()
	}
	k.SetFund(ctx, fund)

	k.logger.Info("withdraw",
		"account", withdrawer.String(),
		"asset", assetDenom,
		"shares_burned", sharesToBurn.String(),
		"paid", paid.String(),
		"exit_fee", exitFee.String(),
		"residue_refunded", residue.String(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"withdraw",
			sdk.NewAttribute("account", withdrawer.String()),
			sdk.NewAttribute("asset", assetDenom),
			sdk.NewAttribute("shares_burned", sharesToBurn.String()),
			sdk.NewAttribute("amount_paid", paid.String()),
			sdk.NewAttribute("exit_fee", exitFee.String()),
			sdk.NewAttribute("residue_refunded", residue.String()),
		),
	)

	return sharesToBurn, paid, nil
}

// RedeemCommission pays out the caller's pro-rata slice of the commission
// pool, weighted by reputation holdings at redemption time. InShares mints
// pool shares for the equivalent value instead, reinvesting the commission.
// One redemption per account per cycle; the account's investment list for
// the closed cycle is cleared either way.
func (k *Keeper) RedeemCommission(ctx sdk.Context, account sdk.AccAddress, inShares bool) (math.Int, math.Int, error) {
	if err := k.enter(); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	defer k.exit()

	if err := k.requirePhase(ctx, types.PhaseRedeemCommission); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	cycleNumber, _ := k.cycleKeeper.CurrentCycle(ctx)
	ledger := k.GetLedger(ctx, account)
	if ledger.HasRedeemed(cycleNumber) {
		return math.ZeroInt(), math.ZeroInt(), types.ErrAlreadyRedeemed
	}

	totalRep := k.reputationKeeper.TotalSupply(ctx)
	if !totalRep.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrDivisionByZero
	}

	fund := k.GetFund(ctx)
	repBalance := k.reputationKeeper.BalanceOf(ctx, account)
	owed := fund.CommissionPool.Mul(repBalance).Quo(totalRep)

	sharesMinted := math.ZeroInt()
	if owed.IsPositive() {
		if inShares {
			shareSupply := k.shareKeeper.TotalSupply(ctx)
			if shareSupply.IsZero() || fund.PoolValue.IsZero() {
				sharesMinted = owed
			} else {
				sharesMinted = owed.Mul(shareSupply).Quo(fund.PoolValue)
			}
			if err := k.shareKeeper.Mint(ctx, account, sharesMinted); err != nil {
				return math.ZeroInt(), math.ZeroInt(), err
			}
			// The reference asset stays in the pool and is counted again
			fund.PoolValue = fund.PoolValue.Add(owed)
		} else {
			if err := k.assetKeeper.Transfer(ctx, k.referenceDenom, k.fundAddress, account, owed); err != nil {
				return math.ZeroInt(), math.ZeroInt(), err
			}
		}
		fund.CommissionPool = fund.CommissionPool.Sub(owed)
		k.SetFund(ctx, fund)
	}

	ledger.LastRedeemedCycle = cycleNumber
	ledger.HasEverRedeemed = true
	ledger.Investments = []types.Investment{}
	k.SetLedger(ctx, account, ledger)

	k.logger.Info("commission redeemed",
		"account", account.String(),
		"amount", owed.String(),
		"in_shares", inShares,
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"commission_paid",
			sdk.NewAttribute("account", account.String()),
			sdk.NewAttribute("amount", owed.String()),
			sdk.NewAttribute("in_shares", fmt.Sprintf("%t", inShares)),
			sdk.NewAttribute("shares_minted", sharesMinted.String()),
		),
	)

	return owed, sharesMinted, nil
}

// SellLeftoverAsset converts any non-reference asset still held by the pool
// back into the reference asset and folds the proceeds into pool value.
// Permissionless: the pool must end every cycle fully denominated in the
// reference asset before the next deposit window opens.
func (k *Keeper) SellLeftoverAsset(ctx sdk.Context, assetDenom string) (math.Int, error) {
	if err := k.enter(); err != nil {
		return math.ZeroInt(), err
	}
	defer k.exit()

	if err := k.requirePhase(ctx, types.PhaseRedeemCommission); err != nil {
		return math.ZeroInt(), err
	}
	if assetDenom == k.referenceDenom {
		return math.ZeroInt(), types.ErrSameAsset
	}

	balance := k.assetKeeper.BalanceOf(ctx, assetDenom, k.fundAddress)
	if !balance.IsPositive() {
		return math.ZeroInt(), types.ErrInsufficientFunds
	}

	res, err := k.executeTrade(ctx, assetDenom, balance, k.referenceDenom)
	if err != nil {
		return math.ZeroInt(), err
	}

	fund := k.GetFund(ctx)
	fund.PoolValue = fund.PoolValue.Add(res.Received)
	k.SetFund(ctx, fund)

	k.logger.Info("leftover asset sold",
		"asset", assetDenom,
		"sold", res.SrcConsumed.String(),
		"received", res.Received.String(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"leftover_sold",
			sdk.NewAttribute("asset", assetDenom),
			sdk.NewAttribute("sold", res.SrcConsumed.String()),
			sdk.NewAttribute("received", res.Received.String()),
		),
	)

	return res.Received, nil
}
