package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/fund/types"

	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
)

const (
	refDenom  = "uusd"
	altDenom  = "uabc"
	junkDenom = "ujunk"
)

func testAddr(seed byte) sdk.AccAddress {
	addr := make([]byte, 20)
	for i := range addr {
		addr[i] = seed
	}
	return sdk.AccAddress(addr)
}

var (
	fundAddr  = testAddr(0xF0)
	venueAddr = testAddr(0xE0)
	devAddr   = testAddr(0xD0)
)

// mockAssets tracks per-denom balances, supplies, decimals and allowances
type mockAssets struct {
	balances   map[string]map[string]math.Int
	supplies   map[string]math.Int
	decimals   map[string]uint32
	allowances map[string]math.Int // denom -> current venue allowance
	// Every allowance value ever set, in order, per denom
	allowanceLog map[string][]math.Int
}

func newMockAssets() *mockAssets {
	return &mockAssets{
		balances:     make(map[string]map[string]math.Int),
		supplies:     make(map[string]math.Int),
		decimals:     make(map[string]uint32),
		allowances:   make(map[string]math.Int),
		allowanceLog: make(map[string][]math.Int),
	}
}

func (m *mockAssets) setBalance(denom string, addr sdk.AccAddress, amount math.Int) {
	if m.balances[denom] == nil {
		m.balances[denom] = make(map[string]math.Int)
	}
	m.balances[denom][addr.String()] = amount
}

func (m *mockAssets) BalanceOf(ctx sdk.Context, denom string, addr sdk.AccAddress) math.Int {
	if m.balances[denom] == nil {
		return math.ZeroInt()
	}
	bal, ok := m.balances[denom][addr.String()]
	if !ok {
		return math.ZeroInt()
	}
	return bal
}

func (m *mockAssets) Transfer(ctx sdk.Context, denom string, from, to sdk.AccAddress, amount math.Int) error {
	if m.BalanceOf(ctx, denom, from).LT(amount) {
		return types.ErrInsufficientFunds
	}
	m.setBalance(denom, from, m.BalanceOf(ctx, denom, from).Sub(amount))
	m.setBalance(denom, to, m.BalanceOf(ctx, denom, to).Add(amount))
	return nil
}

func (m *mockAssets) Approve(ctx sdk.Context, denom string, owner, spender sdk.AccAddress, amount math.Int) error {
	m.allowances[denom] = amount
	m.allowanceLog[denom] = append(m.allowanceLog[denom], amount)
	return nil
}

func (m *mockAssets) TotalSupply(ctx sdk.Context, denom string) math.Int {
	supply, ok := m.supplies[denom]
	if !ok {
		return math.ZeroInt()
	}
	return supply
}

func (m *mockAssets) Decimals(ctx sdk.Context, denom string) (uint32, bool) {
	dec, ok := m.decimals[denom]
	return dec, ok
}

// mockReputation models the reputation token with an engine-held collected
// holding
type mockReputation struct {
	balances  map[string]math.Int
	total     math.Int
	collected math.Int
}

func newMockReputation() *mockReputation {
	return &mockReputation{
		balances:  make(map[string]math.Int),
		total:     math.ZeroInt(),
		collected: math.ZeroInt(),
	}
}

func (m *mockReputation) balance(addr sdk.AccAddress) math.Int {
	bal, ok := m.balances[addr.String()]
	if !ok {
		return math.ZeroInt()
	}
	return bal
}

func (m *mockReputation) TotalSupply(ctx sdk.Context) math.Int { return m.total }

func (m *mockReputation) BalanceOf(ctx sdk.Context, addr sdk.AccAddress) math.Int {
	return m.balance(addr)
}

func (m *mockReputation) Mint(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error {
	m.balances[to.String()] = m.balance(to).Add(amount)
	m.total = m.total.Add(amount)
	return nil
}

func (m *mockReputation) CollectStake(ctx sdk.Context, from sdk.AccAddress, amount math.Int) error {
	if m.balance(from).LT(amount) {
		return types.ErrInsufficientStake
	}
	m.balances[from.String()] = m.balance(from).Sub(amount)
	m.collected = m.collected.Add(amount)
	return nil
}

func (m *mockReputation) ReturnStake(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error {
	if m.collected.LT(amount) {
		return types.ErrInsufficientFunds
	}
	m.collected = m.collected.Sub(amount)
	m.balances[to.String()] = m.balance(to).Add(amount)
	return nil
}

func (m *mockReputation) BurnCollected(ctx sdk.Context, amount math.Int) error {
	if m.collected.LT(amount) {
		return types.ErrInsufficientFunds
	}
	m.collected = m.collected.Sub(amount)
	m.total = m.total.Sub(amount)
	return nil
}

func (m *mockReputation) CollectedBalance(ctx sdk.Context) math.Int { return m.collected }

// mockShares models the pool share token
type mockShares struct {
	balances map[string]math.Int
	total    math.Int
}

func newMockShares() *mockShares {
	return &mockShares{
		balances: make(map[string]math.Int),
		total:    math.ZeroInt(),
	}
}

func (m *mockShares) balance(addr sdk.AccAddress) math.Int {
	bal, ok := m.balances[addr.String()]
	if !ok {
		return math.ZeroInt()
	}
	return bal
}

func (m *mockShares) TotalSupply(ctx sdk.Context) math.Int { return m.total }

func (m *mockShares) BalanceOf(ctx sdk.Context, addr sdk.AccAddress) math.Int {
	return m.balance(addr)
}

func (m *mockShares) Mint(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error {
	m.balances[to.String()] = m.balance(to).Add(amount)
	m.total = m.total.Add(amount)
	return nil
}

func (m *mockShares) Burn(ctx sdk.Context, from sdk.AccAddress, amount math.Int) error {
	if m.balance(from).LT(amount) {
		return types.ErrInsufficientFunds
	}
	m.balances[from.String()] = m.balance(from).Sub(amount)
	m.total = m.total.Sub(amount)
	return nil
}

// mockCycle pins the phase and cycle number for a test
type mockCycle struct {
	cycleNumber uint64
	phase       string
}

func (m *mockCycle) CurrentCycle(ctx sdk.Context) (uint64, string) {
	return m.cycleNumber, m.phase
}

// mockVenue trades against fixed prices (reference units per asset unit)
// and mutates the asset balances directly. deliverFraction and
// consumeFraction simulate short transfers and partial fills.
type mockVenue struct {
	assets *mockAssets
	// Reference units per one asset unit
	prices          map[string]math.LegacyDec
	deliverFraction math.LegacyDec
	consumeFraction math.LegacyDec
	zeroFill        bool
	tradeCalls      int
}

func newMockVenue(assets *mockAssets) *mockVenue {
	return &mockVenue{
		assets:          assets,
		prices:          make(map[string]math.LegacyDec),
		deliverFraction: math.LegacyOneDec(),
		consumeFraction: math.LegacyOneDec(),
	}
}

func (v *mockVenue) Address() sdk.AccAddress { return venueAddr }

func (v *mockVenue) Trade(ctx sdk.Context, srcDenom string, srcAmount math.Int, destDenom string,
	recipient sdk.AccAddress, maxDest math.Int, minRate math.LegacyDec, feeID string) (math.Int, error) {
	v.tradeCalls++
	if v.zeroFill {
		return math.ZeroInt(), nil
	}

	consumed := v.consumeFraction.MulInt(srcAmount).TruncateInt()

	var dest math.Int
	switch {
	case srcDenom == refDenom:
		dest = math.LegacyNewDecFromInt(consumed).Quo(v.prices[destDenom]).TruncateInt()
	case destDenom == refDenom:
		dest = v.prices[srcDenom].MulInt(consumed).TruncateInt()
	default:
		// Through the reference asset
		refValue := v.prices[srcDenom].MulInt(consumed)
		dest = refValue.Quo(v.prices[destDenom]).TruncateInt()
	}
	dest = v.deliverFraction.MulInt(dest).TruncateInt()

	v.assets.setBalance(srcDenom, recipient, v.assets.BalanceOf(ctx, srcDenom, recipient).Sub(consumed))
	v.assets.setBalance(destDenom, recipient, v.assets.BalanceOf(ctx, destDenom, recipient).Add(dest))
	return dest, nil
}

// testFixture bundles the keeper with all its mock collaborators
type testFixture struct {
	keeper *Keeper
	assets *mockAssets
	rep    *mockReputation
	shares *mockShares
	cycle  *mockCycle
	venue  *mockVenue
	ctx    sdk.Context
}

func setupFundKeeper(tb testing.TB) *testFixture {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger()).
		WithBlockTime(time.Unix(1_700_000_000, 0))

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	assets := newMockAssets()
	assets.decimals[refDenom] = 6
	assets.decimals[altDenom] = 6
	assets.supplies[refDenom] = math.NewInt(1_000_000_000)
	assets.supplies[altDenom] = math.NewInt(1_000_000_000)

	rep := newMockReputation()
	shares := newMockShares()
	cycle := &mockCycle{cycleNumber: 1, phase: types.PhaseMakeDecisions}
	venue := newMockVenue(assets)

	k := NewKeeper(cdc, storeKey, assets, rep, shares, venue, cycle,
		refDenom, fundAddr, "authority", log.NewNopLogger())

	return &testFixture{
		keeper: k,
		assets: assets,
		rep:    rep,
		shares: shares,
		cycle:  cycle,
		venue:  venue,
		ctx:    ctx,
	}
}

// seedPool sets the fund's recorded pool value and matching reference
// balance
func (f *testFixture) seedPool(value int64) {
	f.assets.setBalance(refDenom, fundAddr, math.NewInt(value))
	fund := f.keeper.GetFund(f.ctx)
	fund.PoolValue = math.NewInt(value)
	f.keeper.SetFund(f.ctx, fund)
}
