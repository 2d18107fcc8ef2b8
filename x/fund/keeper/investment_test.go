package keeper

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

// openStandardInvestment seeds a 1000-unit pool, gives the creator 100
// reputation (the entire supply) and opens an investment into the alt asset
// priced at 2.0
func openStandardInvestment(t *testing.T, f *testFixture, creator sdk.AccAddress) uint64 {
	t.Helper()
	f.seedPool(1000)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)
	if err := f.rep.Mint(f.ctx, creator, math.NewInt(100)); err != nil {
		t.Fatalf("mint reputation: %v", err)
	}

	id, inv, err := f.keeper.OpenInvestment(f.ctx, creator, altDenom, math.NewInt(100))
	if err != nil {
		t.Fatalf("OpenInvestment: %v", err)
	}
	if !inv.BuyPrice.Equal(math.LegacyNewDec(2)) {
		t.Fatalf("expected buy price 2.0, got %s", inv.BuyPrice)
	}
	if !inv.AcquiredQty.Equal(math.NewInt(500)) {
		t.Fatalf("expected 500 acquired, got %s", inv.AcquiredQty)
	}
	return id
}

func TestOpenInvestmentWrongPhase(t *testing.T) {
	f := setupFundKeeper(t)
	f.cycle.phase = types.PhaseDepositWithdraw

	_, _, err := f.keeper.OpenInvestment(f.ctx, testAddr(1), altDenom, math.NewInt(100))
	if !types.ErrWrongPhase.Is(err) {
		t.Errorf("expected ErrWrongPhase, got %v", err)
	}
}

func TestOpenInvestmentInsufficientStake(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)
	creator := testAddr(1)
	f.rep.Mint(f.ctx, creator, math.NewInt(10))

	_, _, err := f.keeper.OpenInvestment(f.ctx, creator, altDenom, math.NewInt(100))
	if !types.ErrInsufficientStake.Is(err) {
		t.Errorf("expected ErrInsufficientStake, got %v", err)
	}
}

func TestOpenInvestmentIneligibleAsset(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)
	creator := testAddr(1)
	f.rep.Mint(f.ctx, creator, math.NewInt(100))

	// No supply, no decimals registered
	_, _, err := f.keeper.OpenInvestment(f.ctx, creator, junkDenom, math.NewInt(100))
	if !types.ErrIneligibleAsset.Is(err) {
		t.Errorf("expected ErrIneligibleAsset for unknown asset, got %v", err)
	}

	// Explicit deny override beats the default screen
	if err := f.keeper.SetAssetOverride(f.ctx, "authority", types.AssetOverride{Denom: altDenom, Allowed: false}); err != nil {
		t.Fatalf("SetAssetOverride: %v", err)
	}
	_, _, err = f.keeper.OpenInvestment(f.ctx, creator, altDenom, math.NewInt(100))
	if !types.ErrIneligibleAsset.Is(err) {
		t.Errorf("expected ErrIneligibleAsset for denied asset, got %v", err)
	}
}

func TestOpenInvestmentAllowOverride(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)
	creator := testAddr(1)
	f.rep.Mint(f.ctx, creator, math.NewInt(100))
	f.venue.prices[junkDenom] = math.LegacyNewDec(1)

	// Allow override skips the supply/decimals screen
	if err := f.keeper.SetAssetOverride(f.ctx, "authority", types.AssetOverride{Denom: junkDenom, Allowed: true}); err != nil {
		t.Fatalf("SetAssetOverride: %v", err)
	}
	if _, _, err := f.keeper.OpenInvestment(f.ctx, creator, junkDenom, math.NewInt(100)); err != nil {
		t.Errorf("expected allow-override to pass the screen, got %v", err)
	}
}

func TestOpenInvestmentZeroFillAborts(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)
	creator := testAddr(1)
	f.rep.Mint(f.ctx, creator, math.NewInt(100))
	f.venue.prices[altDenom] = math.LegacyNewDec(2)
	f.venue.zeroFill = true

	_, _, err := f.keeper.OpenInvestment(f.ctx, creator, altDenom, math.NewInt(100))
	if !types.ErrZeroFill.Is(err) {
		t.Fatalf("expected ErrZeroFill, got %v", err)
	}
	if !f.rep.balance(creator).Equal(math.NewInt(100)) {
		t.Errorf("stake must not be collected on abort, balance is %s", f.rep.balance(creator))
	}
	if n := len(f.keeper.GetLedger(f.ctx, creator).Investments); n != 0 {
		t.Errorf("no record must be appended on abort, got %d", n)
	}
}

// Stake 100 of a 100 supply directs the whole 1000-unit pool: the committed
// reference amount is stake-proportional to the pool, not to the caller's
// deposits
func TestOpenInvestmentStakeProportionalAllocation(t *testing.T) {
	f := setupFundKeeper(t)
	creator := testAddr(1)
	openStandardInvestment(t, f, creator)

	if got := f.assets.BalanceOf(f.ctx, refDenom, fundAddr); !got.IsZero() {
		t.Errorf("expected entire pool committed, %s reference left", got)
	}
	if !f.rep.collected.Equal(math.NewInt(100)) {
		t.Errorf("expected 100 stake collected, got %s", f.rep.collected)
	}
}

// Stake 100, buy 2.0, sell 3.0: ratio 1.5 returns the full stake plus a
// minted surplus of 50
func TestCloseInvestmentProfit(t *testing.T) {
	f := setupFundKeeper(t)
	creator := testAddr(1)
	id := openStandardInvestment(t, f, creator)

	f.venue.prices[altDenom] = math.LegacyNewDec(3)
	result, err := f.keeper.CloseInvestment(f.ctx, creator, id)
	if err != nil {
		t.Fatalf("CloseInvestment: %v", err)
	}

	if !result.SellPrice.Equal(math.LegacyNewDec(3)) {
		t.Errorf("expected sell price 3.0, got %s", result.SellPrice)
	}
	if !result.Returned.Equal(math.NewInt(100)) {
		t.Errorf("expected 100 returned, got %s", result.Returned)
	}
	if !result.Minted.Equal(math.NewInt(50)) {
		t.Errorf("expected 50 minted, got %s", result.Minted)
	}
	if !result.Burned.IsZero() {
		t.Errorf("expected nothing burned, got %s", result.Burned)
	}
	if !f.rep.balance(creator).Equal(math.NewInt(150)) {
		t.Errorf("expected creator to hold 150 reputation, got %s", f.rep.balance(creator))
	}
	if !f.rep.collected.IsZero() {
		t.Errorf("expected collected holding emptied, got %s", f.rep.collected)
	}
	// 500 alt sold at 3.0 brings 1500 reference back
	if got := f.assets.BalanceOf(f.ctx, refDenom, fundAddr); !got.Equal(math.NewInt(1500)) {
		t.Errorf("expected 1500 reference in the pool, got %s", got)
	}
}

// Stake 100, buy 2.0, sell 1.0: ratio 0.5 returns 50 and burns the 50
// shortfall from the forfeited holding
func TestCloseInvestmentLoss(t *testing.T) {
	f := setupFundKeeper(t)
	creator := testAddr(1)
	id := openStandardInvestment(t, f, creator)

	f.venue.prices[altDenom] = math.LegacyNewDec(1)
	result, err := f.keeper.CloseInvestment(f.ctx, creator, id)
	if err != nil {
		t.Fatalf("CloseInvestment: %v", err)
	}

	if !result.Returned.Equal(math.NewInt(50)) {
		t.Errorf("expected 50 returned, got %s", result.Returned)
	}
	if !result.Burned.Equal(math.NewInt(50)) {
		t.Errorf("expected 50 burned, got %s", result.Burned)
	}
	if !result.Minted.IsZero() {
		t.Errorf("expected nothing minted, got %s", result.Minted)
	}
	if !f.rep.balance(creator).Equal(math.NewInt(50)) {
		t.Errorf("expected creator to hold 50 reputation, got %s", f.rep.balance(creator))
	}
	if !f.rep.total.Equal(math.NewInt(50)) {
		t.Errorf("expected total supply shrunk to 50, got %s", f.rep.total)
	}
}

func TestCloseInvestmentTwice(t *testing.T) {
	f := setupFundKeeper(t)
	creator := testAddr(1)
	id := openStandardInvestment(t, f, creator)

	f.venue.prices[altDenom] = math.LegacyNewDec(3)
	if _, err := f.keeper.CloseInvestment(f.ctx, creator, id); err != nil {
		t.Fatalf("first close: %v", err)
	}
	_, err := f.keeper.CloseInvestment(f.ctx, creator, id)
	if !types.ErrInvestmentClosed.Is(err) {
		t.Errorf("expected ErrInvestmentClosed, got %v", err)
	}
}

func TestCloseInvestmentNotFound(t *testing.T) {
	f := setupFundKeeper(t)
	_, err := f.keeper.CloseInvestment(f.ctx, testAddr(1), 7)
	if !types.ErrInvestmentNotFound.Is(err) {
		t.Errorf("expected ErrInvestmentNotFound, got %v", err)
	}
}

// Investments are cycle-scoped: once the cycle number moves on, a stale
// record cannot be closed
func TestCloseInvestmentStaleCycle(t *testing.T) {
	f := setupFundKeeper(t)
	creator := testAddr(1)
	id := openStandardInvestment(t, f, creator)

	f.cycle.cycleNumber = 2
	_, err := f.keeper.CloseInvestment(f.ctx, creator, id)
	if !types.ErrInvestmentNotFound.Is(err) {
		t.Errorf("expected ErrInvestmentNotFound for stale cycle, got %v", err)
	}
}

func TestCloseInvestmentZeroBuyPrice(t *testing.T) {
	f := setupFundKeeper(t)
	creator := testAddr(1)

	ledger := f.keeper.GetLedger(f.ctx, creator)
	ledger.Investments = append(ledger.Investments, types.Investment{
		AssetDenom:  altDenom,
		CycleNumber: 1,
		Stake:       math.NewInt(100),
		AcquiredQty: math.NewInt(500),
		BuyPrice:    math.LegacyZeroDec(),
		SellPrice:   math.LegacyZeroDec(),
	})
	f.keeper.SetLedger(f.ctx, creator, ledger)

	_, err := f.keeper.CloseInvestment(f.ctx, creator, 0)
	if !types.ErrDivisionByZero.Is(err) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestInvestmentReentrancy(t *testing.T) {
	f := setupFundKeeper(t)

	if err := f.keeper.enter(); err != nil {
		t.Fatalf("first enter: %v", err)
	}
	_, _, err := f.keeper.OpenInvestment(f.ctx, testAddr(1), altDenom, math.NewInt(100))
	if !types.ErrReentrantCall.Is(err) {
		t.Errorf("expected ErrReentrantCall from OpenInvestment, got %v", err)
	}
	_, err = f.keeper.CloseInvestment(f.ctx, testAddr(1), 0)
	if !types.ErrReentrantCall.Is(err) {
		t.Errorf("expected ErrReentrantCall from CloseInvestment, got %v", err)
	}
	f.keeper.exit()
}
