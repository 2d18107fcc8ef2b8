package keeper

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

// Pool value 1000, balance 1200 at settlement: profit 200, commission
// 0.2x200 + 0.005x1200 = 46, developer fee 0.005x1200 = 6, new pool value
// 1200 - 46 - 6 = 1148
func TestSettleEndOfCycle(t *testing.T) {
	f := setupFundKeeper(t)
	params := types.DefaultParams()
	params.Developer = devAddr.String()
	if err := f.keeper.SetParams(f.ctx, params); err != nil {
		t.Fatalf("SetParams: %v", err)
	}

	f.seedPool(1000)
	f.assets.setBalance(refDenom, fundAddr, math.NewInt(1200))

	if err := f.keeper.SettleEndOfCycle(f.ctx); err != nil {
		t.Fatalf("SettleEndOfCycle: %v", err)
	}

	fund := f.keeper.GetFund(f.ctx)
	if !fund.CommissionPool.Equal(math.NewInt(46)) {
		t.Errorf("expected commission pool 46, got %s", fund.CommissionPool)
	}
	if !fund.PoolValue.Equal(math.NewInt(1148)) {
		t.Errorf("expected pool value 1148, got %s", fund.PoolValue)
	}
	if got := f.assets.BalanceOf(f.ctx, refDenom, devAddr); !got.Equal(math.NewInt(6)) {
		t.Errorf("expected developer fee 6 paid out, got %s", got)
	}
}

// A losing cycle takes no performance fee, only the flat fees
func TestSettleEndOfCycleLoss(t *testing.T) {
	f := setupFundKeeper(t)
	params := types.DefaultParams()
	params.Developer = devAddr.String()
	f.keeper.SetParams(f.ctx, params)

	f.seedPool(1000)
	f.assets.setBalance(refDenom, fundAddr, math.NewInt(800))

	if err := f.keeper.SettleEndOfCycle(f.ctx); err != nil {
		t.Fatalf("SettleEndOfCycle: %v", err)
	}

	fund := f.keeper.GetFund(f.ctx)
	// assetFee 0.005x800 = 4, devFee 0.005x800 = 4
	if !fund.CommissionPool.Equal(math.NewInt(4)) {
		t.Errorf("expected commission pool 4, got %s", fund.CommissionPool)
	}
	if !fund.PoolValue.Equal(math.NewInt(792)) {
		t.Errorf("expected pool value 792, got %s", fund.PoolValue)
	}
}

func TestFirstDepositOneToOne(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw
	depositor := testAddr(1)
	f.assets.setBalance(refDenom, depositor, math.NewInt(500))

	shares, err := f.keeper.Deposit(f.ctx, depositor, refDenom, math.NewInt(500))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if !shares.Equal(math.NewInt(500)) {
		t.Errorf("expected 500 shares on first deposit, got %s", shares)
	}
	if got := f.keeper.GetFund(f.ctx).PoolValue; !got.Equal(math.NewInt(500)) {
		t.Errorf("expected pool value 500, got %s", got)
	}
}

// 500 reference into a 1000-unit pool with 1000 outstanding shares mints
// 500 shares and lifts the pool to 1500
func TestDepositProRata(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw
	f.seedPool(1000)
	f.shares.Mint(f.ctx, testAddr(9), math.NewInt(1000))

	depositor := testAddr(1)
	f.assets.setBalance(refDenom, depositor, math.NewInt(500))

	shares, err := f.keeper.Deposit(f.ctx, depositor, refDenom, math.NewInt(500))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if !shares.Equal(math.NewInt(500)) {
		t.Errorf("expected 500 shares, got %s", shares)
	}
	if got := f.keeper.GetFund(f.ctx).PoolValue; !got.Equal(math.NewInt(1500)) {
		t.Errorf("expected pool value 1500, got %s", got)
	}
}

func TestDepositWrongPhase(t *testing.T) {
	f := setupFundKeeper(t)

	_, err := f.keeper.Deposit(f.ctx, testAddr(1), refDenom, math.NewInt(100))
	if !types.ErrWrongPhase.Is(err) {
		t.Errorf("expected ErrWrongPhase, got %v", err)
	}
}

// A non-reference deposit converts on the way in, with share math using the
// observed reference amount and unconsumed source refunded
func TestDepositConversionAndResidue(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw
	f.venue.prices[altDenom] = math.LegacyNewDec(2)
	f.venue.consumeFraction = math.LegacyMustNewDecFromStr("0.5")

	depositor := testAddr(1)
	f.assets.setBalance(altDenom, depositor, math.NewInt(100))

	shares, err := f.keeper.Deposit(f.ctx, depositor, altDenom, math.NewInt(100))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	// Venue consumed 50 alt at price 2.0 for 100 reference
	if !shares.Equal(math.NewInt(100)) {
		t.Errorf("expected 100 shares from observed reference, got %s", shares)
	}
	if got := f.keeper.GetFund(f.ctx).PoolValue; !got.Equal(math.NewInt(100)) {
		t.Errorf("expected pool value 100, got %s", got)
	}
	if got := f.assets.BalanceOf(f.ctx, altDenom, depositor); !got.Equal(math.NewInt(50)) {
		t.Errorf("expected 50 alt refunded, got %s", got)
	}
}

func TestWithdraw(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw
	f.seedPool(1000)

	params := types.DefaultParams()
	params.Developer = devAddr.String()
	params.ExitFeeRate = math.LegacyMustNewDecFromStr("0.01")
	f.keeper.SetParams(f.ctx, params)

	withdrawer := testAddr(1)
	f.shares.Mint(f.ctx, withdrawer, math.NewInt(1000))

	burned, paid, err := f.keeper.Withdraw(f.ctx, withdrawer, refDenom, math.NewInt(200))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !burned.Equal(math.NewInt(200)) {
		t.Errorf("expected 200 shares burned, got %s", burned)
	}
	if !paid.Equal(math.NewInt(198)) {
		t.Errorf("expected 198 paid after 1%% exit fee, got %s", paid)
	}
	if got := f.assets.BalanceOf(f.ctx, refDenom, devAddr); !got.Equal(math.NewInt(2)) {
		t.Errorf("expected exit fee 2 at developer, got %s", got)
	}
	if got := f.keeper.GetFund(f.ctx).PoolValue; !got.Equal(math.NewInt(800)) {
		t.Errorf("expected pool value 800, got %s", got)
	}
}

func TestWithdrawInsufficientShares(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw
	f.seedPool(1000)

	withdrawer := testAddr(1)
	f.shares.Mint(f.ctx, testAddr(9), math.NewInt(900))
	f.shares.Mint(f.ctx, withdrawer, math.NewInt(100))

	_, _, err := f.keeper.Withdraw(f.ctx, withdrawer, refDenom, math.NewInt(500))
	if !types.ErrInsufficientFunds.Is(err) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

// A non-reference withdrawal converts on the way out, with the exit fee
// taken in the output asset
func TestWithdrawConversion(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw
	f.seedPool(1000)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)

	params := types.DefaultParams()
	params.Developer = devAddr.String()
	params.ExitFeeRate = math.LegacyMustNewDecFromStr("0.01")
	f.keeper.SetParams(f.ctx, params)

	withdrawer := testAddr(1)
	f.shares.Mint(f.ctx, withdrawer, math.NewInt(1000))

	burned, paid, err := f.keeper.Withdraw(f.ctx, withdrawer, altDenom, math.NewInt(200))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !burned.Equal(math.NewInt(200)) {
		t.Errorf("expected 200 shares burned, got %s", burned)
	}
	// 200 reference at price 2.0 is 100 alt, minus 1 alt exit fee
	if !paid.Equal(math.NewInt(99)) {
		t.Errorf("expected 99 alt paid, got %s", paid)
	}
	if got := f.assets.BalanceOf(f.ctx, altDenom, devAddr); !got.Equal(math.NewInt(1)) {
		t.Errorf("expected exit fee 1 alt at developer, got %s", got)
	}
	if got := f.keeper.GetFund(f.ctx).PoolValue; !got.Equal(math.NewInt(800)) {
		t.Errorf("expected pool value 800, got %s", got)
	}
}

// When the venue consumes only part of the reference amount, the unconsumed
// residue goes back to the withdrawer and pool value still drops by the full
// amount backing the burned shares
func TestWithdrawPartialConsumptionRefundsResidue(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw
	f.seedPool(1000)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)
	f.venue.consumeFraction = math.LegacyMustNewDecFromStr("0.5")

	withdrawer := testAddr(1)
	f.shares.Mint(f.ctx, withdrawer, math.NewInt(1000))

	burned, paid, err := f.keeper.Withdraw(f.ctx, withdrawer, altDenom, math.NewInt(200))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !burned.Equal(math.NewInt(200)) {
		t.Errorf("expected 200 shares burned, got %s", burned)
	}
	// Venue consumed 100 reference at price 2.0 for 50 alt
	if !paid.Equal(math.NewInt(50)) {
		t.Errorf("expected 50 alt paid, got %s", paid)
	}
	if got := f.assets.BalanceOf(f.ctx, refDenom, withdrawer); !got.Equal(math.NewInt(100)) {
		t.Errorf("expected 100 reference residue refunded, got %s", got)
	}
	if got := f.keeper.GetFund(f.ctx).PoolValue; !got.Equal(math.NewInt(800)) {
		t.Errorf("expected pool value 800, got %s", got)
	}
	// The pool still backs its recorded value in the reference asset
	if got := f.assets.BalanceOf(f.ctx, refDenom, fundAddr); !got.Equal(math.NewInt(800)) {
		t.Errorf("expected 800 reference held by the pool, got %s", got)
	}
}

// A venue delivering less than quoted only reduces what the withdrawer
// receives, never what the pool gives up
func TestWithdrawShortDelivery(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw
	f.seedPool(1000)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)
	f.venue.deliverFraction = math.LegacyMustNewDecFromStr("0.5")

	withdrawer := testAddr(1)
	f.shares.Mint(f.ctx, withdrawer, math.NewInt(1000))

	_, paid, err := f.keeper.Withdraw(f.ctx, withdrawer, altDenom, math.NewInt(200))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !paid.Equal(math.NewInt(50)) {
		t.Errorf("expected 50 alt paid on short delivery, got %s", paid)
	}
	if got := f.assets.BalanceOf(f.ctx, refDenom, withdrawer); !got.IsZero() {
		t.Errorf("expected no reference refund on a full fill, got %s", got)
	}
	if got := f.keeper.GetFund(f.ctx).PoolValue; !got.Equal(math.NewInt(800)) {
		t.Errorf("expected pool value 800, got %s", got)
	}
}

// With no trades in between, total shares track pool value exactly across
// deposit and withdraw sequences
func TestShareConservation(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw

	a, b := testAddr(1), testAddr(2)
	f.assets.setBalance(refDenom, a, math.NewInt(1_000))
	f.assets.setBalance(refDenom, b, math.NewInt(1_000))

	if _, err := f.keeper.Deposit(f.ctx, a, refDenom, math.NewInt(1_000)); err != nil {
		t.Fatalf("deposit a: %v", err)
	}
	if _, err := f.keeper.Deposit(f.ctx, b, refDenom, math.NewInt(400)); err != nil {
		t.Fatalf("deposit b: %v", err)
	}
	if _, _, err := f.keeper.Withdraw(f.ctx, a, refDenom, math.NewInt(300)); err != nil {
		t.Fatalf("withdraw a: %v", err)
	}
	if _, err := f.keeper.Deposit(f.ctx, b, refDenom, math.NewInt(250)); err != nil {
		t.Fatalf("second deposit b: %v", err)
	}

	fund := f.keeper.GetFund(f.ctx)
	if !f.shares.total.Equal(fund.PoolValue) {
		t.Errorf("share supply %s diverged from pool value %s", f.shares.total, fund.PoolValue)
	}
}

func TestRedeemCommissionProRata(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseRedeemCommission
	f.seedPool(1000)

	fund := f.keeper.GetFund(f.ctx)
	fund.CommissionPool = math.NewInt(100)
	f.keeper.SetFund(f.ctx, fund)

	account := testAddr(1)
	f.rep.Mint(f.ctx, account, math.NewInt(30))
	f.rep.Mint(f.ctx, testAddr(9), math.NewInt(70))

	amount, shares, err := f.keeper.RedeemCommission(f.ctx, account, false)
	if err != nil {
		t.Fatalf("RedeemCommission: %v", err)
	}
	if !amount.Equal(math.NewInt(30)) {
		t.Errorf("expected 30 owed for 30/100 reputation, got %s", amount)
	}
	if !shares.IsZero() {
		t.Errorf("plain redemption must not mint shares, got %s", shares)
	}
	if got := f.assets.BalanceOf(f.ctx, refDenom, account); !got.Equal(math.NewInt(30)) {
		t.Errorf("expected 30 reference paid, got %s", got)
	}
	if got := f.keeper.GetFund(f.ctx).CommissionPool; !got.Equal(math.NewInt(70)) {
		t.Errorf("expected commission pool 70, got %s", got)
	}
}

func TestRedeemCommissionTwice(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseRedeemCommission
	f.seedPool(1000)

	fund := f.keeper.GetFund(f.ctx)
	fund.CommissionPool = math.NewInt(100)
	f.keeper.SetFund(f.ctx, fund)

	account := testAddr(1)
	f.rep.Mint(f.ctx, account, math.NewInt(100))

	if _, _, err := f.keeper.RedeemCommission(f.ctx, account, false); err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	_, _, err := f.keeper.RedeemCommission(f.ctx, account, false)
	if !types.ErrAlreadyRedeemed.Is(err) {
		t.Errorf("expected ErrAlreadyRedeemed, got %v", err)
	}
}

func TestRedeemCommissionInShares(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseRedeemCommission
	f.seedPool(1000)
	f.shares.Mint(f.ctx, testAddr(9), math.NewInt(1000))

	fund := f.keeper.GetFund(f.ctx)
	fund.CommissionPool = math.NewInt(100)
	f.keeper.SetFund(f.ctx, fund)

	account := testAddr(1)
	f.rep.Mint(f.ctx, account, math.NewInt(30))
	f.rep.Mint(f.ctx, testAddr(9), math.NewInt(70))

	amount, shares, err := f.keeper.RedeemCommission(f.ctx, account, true)
	if err != nil {
		t.Fatalf("RedeemCommission: %v", err)
	}
	if !amount.Equal(math.NewInt(30)) {
		t.Errorf("expected 30 owed, got %s", amount)
	}
	if !shares.Equal(math.NewInt(30)) {
		t.Errorf("expected 30 shares minted, got %s", shares)
	}
	fund = f.keeper.GetFund(f.ctx)
	if !fund.PoolValue.Equal(math.NewInt(1030)) {
		t.Errorf("expected pool value 1030 after reinvestment, got %s", fund.PoolValue)
	}
	// Nothing left the pool's reference holding
	if got := f.assets.BalanceOf(f.ctx, refDenom, fundAddr); !got.Equal(math.NewInt(1000)) {
		t.Errorf("expected reference holding unchanged, got %s", got)
	}
}

// Redemption clears the cycle-scoped investment list
func TestRedeemCommissionClearsInvestments(t *testing.T) {
	f := setupFundKeeper(t)
	account := testAddr(1)
	openStandardInvestment(t, f, account)

	f.cycle.phase = types.PhaseRedeemCommission
	if _, _, err := f.keeper.RedeemCommission(f.ctx, account, false); err != nil {
		t.Fatalf("RedeemCommission: %v", err)
	}
	if n := len(f.keeper.GetLedger(f.ctx, account).Investments); n != 0 {
		t.Errorf("expected investment list cleared, got %d entries", n)
	}
}

func TestSellLeftoverAsset(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseRedeemCommission
	f.seedPool(1000)
	f.assets.setBalance(altDenom, fundAddr, math.NewInt(500))
	f.venue.prices[altDenom] = math.LegacyNewDec(2)

	received, err := f.keeper.SellLeftoverAsset(f.ctx, altDenom)
	if err != nil {
		t.Fatalf("SellLeftoverAsset: %v", err)
	}
	if !received.Equal(math.NewInt(1000)) {
		t.Errorf("expected 1000 reference received, got %s", received)
	}
	if got := f.keeper.GetFund(f.ctx).PoolValue; !got.Equal(math.NewInt(2000)) {
		t.Errorf("expected pool value 2000, got %s", got)
	}
	if got := f.assets.BalanceOf(f.ctx, altDenom, fundAddr); !got.IsZero() {
		t.Errorf("expected no alt asset left, got %s", got)
	}
}

func TestSellLeftoverWrongPhase(t *testing.T) {
	f := setupFundKeeper(t)

	_, err := f.keeper.SellLeftoverAsset(f.ctx, altDenom)
	if !types.ErrWrongPhase.Is(err) {
		t.Errorf("expected ErrWrongPhase, got %v", err)
	}
}

func TestUpdateRatesFeeBound(t *testing.T) {
	f := setupFundKeeper(t)

	bad := types.DefaultParams()
	bad.CommissionRate = math.LegacyMustNewDecFromStr("0.996")
	// 0.996 + 0.005 >= 1
	err := f.keeper.UpdateRates(f.ctx, "authority", bad)
	if !types.ErrInvalidRates.Is(err) {
		t.Errorf("expected ErrInvalidRates for fee bound, got %v", err)
	}
}

func TestUpdateRatesRatchet(t *testing.T) {
	f := setupFundKeeper(t)

	up := types.DefaultParams()
	up.DeveloperFeeRate = math.LegacyMustNewDecFromStr("0.01")
	err := f.keeper.UpdateRates(f.ctx, "authority", up)
	if !types.ErrInvalidRates.Is(err) {
		t.Errorf("developer fee may only ratchet down, got %v", err)
	}

	down := types.DefaultParams()
	down.DeveloperFeeRate = math.LegacyMustNewDecFromStr("0.001")
	down.ExitFeeRate = math.LegacyZeroDec()
	if err := f.keeper.UpdateRates(f.ctx, "authority", down); err != nil {
		t.Errorf("ratchet down must pass: %v", err)
	}

	// Commission has no ratchet and may move up within the bound
	commission := f.keeper.GetParams(f.ctx)
	commission.CommissionRate = math.LegacyMustNewDecFromStr("0.3")
	if err := f.keeper.UpdateRates(f.ctx, "authority", commission); err != nil {
		t.Errorf("commission raise within bound must pass: %v", err)
	}
}

func TestUpdateRatesUnauthorized(t *testing.T) {
	f := setupFundKeeper(t)

	err := f.keeper.UpdateRates(f.ctx, testAddr(1).String(), types.DefaultParams())
	if !types.ErrUnauthorized.Is(err) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
