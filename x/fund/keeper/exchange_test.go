package keeper

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

func TestTradeSameAsset(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)

	_, err := f.keeper.executeTrade(f.ctx, refDenom, math.NewInt(100), refDenom)
	if !types.ErrSameAsset.Is(err) {
		t.Errorf("expected ErrSameAsset, got %v", err)
	}
}

func TestTradeInsufficientBalance(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(100)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)

	_, err := f.keeper.executeTrade(f.ctx, refDenom, math.NewInt(500), altDenom)
	if !types.ErrInsufficientFunds.Is(err) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestTradeZeroFill(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)
	f.venue.zeroFill = true

	_, err := f.keeper.executeTrade(f.ctx, refDenom, math.NewInt(200), altDenom)
	if !types.ErrZeroFill.Is(err) {
		t.Errorf("expected ErrZeroFill, got %v", err)
	}
}

func TestTradePriceFromObservedDeltas(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)

	res, err := f.keeper.executeTrade(f.ctx, refDenom, math.NewInt(200), altDenom)
	if err != nil {
		t.Fatalf("executeTrade: %v", err)
	}
	if !res.SrcConsumed.Equal(math.NewInt(200)) {
		t.Errorf("expected 200 consumed, got %s", res.SrcConsumed)
	}
	if !res.Received.Equal(math.NewInt(100)) {
		t.Errorf("expected 100 received, got %s", res.Received)
	}
	if !res.Price.Equal(math.LegacyNewDec(2)) {
		t.Errorf("expected price 2.0, got %s", res.Price)
	}
}

// A venue delivering only half of what its price implies must yield an
// effective price twice as high, because price comes from observed deltas
// and never from the quoted rate.
func TestTradeShortDelivery(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)
	f.venue.deliverFraction = math.LegacyMustNewDecFromStr("0.5")

	res, err := f.keeper.executeTrade(f.ctx, refDenom, math.NewInt(200), altDenom)
	if err != nil {
		t.Fatalf("executeTrade: %v", err)
	}
	if !res.Received.Equal(math.NewInt(50)) {
		t.Errorf("expected 50 received, got %s", res.Received)
	}
	if !res.Price.Equal(math.LegacyNewDec(4)) {
		t.Errorf("expected effective price 4.0, got %s", res.Price)
	}
}

// A venue consuming only part of the granted amount must be priced on what
// it actually took
func TestTradePartialConsumption(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)
	f.venue.consumeFraction = math.LegacyMustNewDecFromStr("0.5")

	res, err := f.keeper.executeTrade(f.ctx, refDenom, math.NewInt(200), altDenom)
	if err != nil {
		t.Fatalf("executeTrade: %v", err)
	}
	if !res.SrcConsumed.Equal(math.NewInt(100)) {
		t.Errorf("expected 100 consumed, got %s", res.SrcConsumed)
	}
	if !res.Received.Equal(math.NewInt(50)) {
		t.Errorf("expected 50 received, got %s", res.Received)
	}
	if !res.Price.Equal(math.LegacyNewDec(2)) {
		t.Errorf("expected price 2.0, got %s", res.Price)
	}
}

// Non-native source assets get an allowance exactly equal to the trade
// amount, reset to zero afterward
func TestTradeAllowanceLifecycle(t *testing.T) {
	f := setupFundKeeper(t)
	f.assets.setBalance(altDenom, fundAddr, math.NewInt(500))
	f.venue.prices[altDenom] = math.LegacyNewDec(2)

	_, err := f.keeper.executeTrade(f.ctx, altDenom, math.NewInt(100), refDenom)
	if err != nil {
		t.Fatalf("executeTrade: %v", err)
	}

	log := f.assets.allowanceLog[altDenom]
	if len(log) != 2 {
		t.Fatalf("expected 2 allowance writes, got %d", len(log))
	}
	if !log[0].Equal(math.NewInt(100)) {
		t.Errorf("expected allowance grant of 100, got %s", log[0])
	}
	if !log[1].IsZero() {
		t.Errorf("expected allowance reset to 0, got %s", log[1])
	}
}

// Trades from the reference asset never touch allowances
func TestTradeNoAllowanceForReferenceSource(t *testing.T) {
	f := setupFundKeeper(t)
	f.seedPool(1000)
	f.venue.prices[altDenom] = math.LegacyNewDec(2)

	_, err := f.keeper.executeTrade(f.ctx, refDenom, math.NewInt(200), altDenom)
	if err != nil {
		t.Fatalf("executeTrade: %v", err)
	}
	if len(f.assets.allowanceLog[refDenom]) != 0 {
		t.Errorf("expected no allowance writes for reference source, got %d", len(f.assets.allowanceLog[refDenom]))
	}
}
