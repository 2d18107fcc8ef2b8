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
	"github.com/openalpha/fund-cycle/x/cycle/types"

	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
)

// mockReputationKeeper records the calls the cycle keeper makes
type mockReputationKeeper struct {
	collected math.Int
	minted    map[string]math.Int
	paused    bool
	burned    math.Int
}

func newMockReputationKeeper() *mockReputationKeeper {
	return &mockReputationKeeper{
		collected: math.ZeroInt(),
		minted:    make(map[string]math.Int),
		burned:    math.ZeroInt(),
	}
}

func (m *mockReputationKeeper) Mint(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error {
	prev, ok := m.minted[to.String()]
	if !ok {
		prev = math.ZeroInt()
	}
	m.minted[to.String()] = prev.Add(amount)
	return nil
}

func (m *mockReputationKeeper) CollectedBalance(ctx sdk.Context) math.Int {
	return m.collected
}

func (m *mockReputationKeeper) BurnCollected(ctx sdk.Context, amount math.Int) error {
	m.burned = m.burned.Add(amount)
	m.collected = m.collected.Sub(amount)
	return nil
}

func (m *mockReputationKeeper) Pause(ctx sdk.Context) error {
	m.paused = true
	return nil
}

func (m *mockReputationKeeper) Unpause(ctx sdk.Context) error {
	m.paused = false
	return nil
}

// mockFundKeeper counts settlement calls
type mockFundKeeper struct {
	settleCalls int
	settleErr   error
}

func (m *mockFundKeeper) SettleEndOfCycle(ctx sdk.Context) error {
	m.settleCalls++
	return m.settleErr
}

func setupCycleKeeper(tb testing.TB) (*Keeper, *mockReputationKeeper, *mockFundKeeper, sdk.Context) {
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

	rep := newMockReputationKeeper()
	fund := &mockFundKeeper{}
	k := NewKeeper(cdc, storeKey, rep, fund, "authority", log.NewNopLogger())

	return k, rep, fund, ctx
}

func testAddr(seed byte) sdk.AccAddress {
	addr := make([]byte, 20)
	for i := range addr {
		addr[i] = seed
	}
	return sdk.AccAddress(addr)
}

// advance moves block time past the current phase's minimum duration and
// triggers a transition
func advance(t *testing.T, k *Keeper, ctx sdk.Context, caller sdk.AccAddress) (sdk.Context, *types.CycleState) {
	t.Helper()
	state := k.GetCycleState(ctx)
	params := k.GetParams(ctx)
	ctx = ctx.WithBlockTime(time.Unix(state.PhaseStart+params.PhaseDuration(state.Phase), 0))
	newState, err := k.AdvancePhase(ctx, caller)
	if err != nil {
		t.Fatalf("AdvancePhase: %v", err)
	}
	return ctx, newState
}

func TestGenesisState(t *testing.T) {
	k, _, _, ctx := setupCycleKeeper(t)

	state := k.GetCycleState(ctx)
	if state.CycleNumber != 0 {
		t.Errorf("expected cycle 0, got %d", state.CycleNumber)
	}
	if state.Phase != types.PhaseRedeemCommission {
		t.Errorf("expected genesis phase %s, got %s", types.PhaseRedeemCommission, state.Phase)
	}
}

func TestAdvancePhaseTooEarly(t *testing.T) {
	k, _, _, ctx := setupCycleKeeper(t)

	_, err := k.AdvancePhase(ctx, testAddr(1))
	if err == nil {
		t.Fatal("expected error advancing before minimum duration")
	}
	if !types.ErrPhaseNotElapsed.Is(err) {
		t.Errorf("expected ErrPhaseNotElapsed, got %v", err)
	}
}

func TestAdvancePhaseOrder(t *testing.T) {
	k, _, _, ctx := setupCycleKeeper(t)
	caller := testAddr(1)

	ctx, state := advance(t, k, ctx, caller)
	if state.Phase != types.PhaseDepositWithdraw {
		t.Errorf("expected %s, got %s", types.PhaseDepositWithdraw, state.Phase)
	}
	if state.CycleNumber != 1 {
		t.Errorf("expected cycle 1 after leaving genesis redeem phase, got %d", state.CycleNumber)
	}

	ctx, state = advance(t, k, ctx, caller)
	if state.Phase != types.PhaseMakeDecisions {
		t.Errorf("expected %s, got %s", types.PhaseMakeDecisions, state.Phase)
	}
	if state.CycleNumber != 1 {
		t.Errorf("cycle number must not change mid-cycle, got %d", state.CycleNumber)
	}

	ctx, state = advance(t, k, ctx, caller)
	if state.Phase != types.PhaseRedeemCommission {
		t.Errorf("expected %s, got %s", types.PhaseRedeemCommission, state.Phase)
	}

	_, state = advance(t, k, ctx, caller)
	if state.Phase != types.PhaseDepositWithdraw {
		t.Errorf("expected wrap to %s, got %s", types.PhaseDepositWithdraw, state.Phase)
	}
	if state.CycleNumber != 2 {
		t.Errorf("expected cycle 2, got %d", state.CycleNumber)
	}
}

func TestTransitionReward(t *testing.T) {
	k, rep, _, ctx := setupCycleKeeper(t)
	caller := testAddr(7)

	_, _ = advance(t, k, ctx, caller)

	params := k.GetParams(ctx)
	got, ok := rep.minted[caller.String()]
	if !ok || !got.Equal(params.TransitionReward) {
		t.Errorf("expected caller reward %s, got %s", params.TransitionReward, got)
	}
}

func TestLeavingMakeDecisionsSettles(t *testing.T) {
	k, rep, fund, ctx := setupCycleKeeper(t)
	caller := testAddr(1)

	ctx, _ = advance(t, k, ctx, caller) // -> deposit_withdraw
	ctx, _ = advance(t, k, ctx, caller) // -> make_decisions

	if fund.settleCalls != 0 {
		t.Fatalf("settlement must not run before leaving make_decisions, got %d calls", fund.settleCalls)
	}

	rep.collected = math.NewInt(400)
	ctx, state := advance(t, k, ctx, caller) // -> redeem_commission

	if fund.settleCalls != 1 {
		t.Errorf("expected 1 settlement call, got %d", fund.settleCalls)
	}
	if !rep.burned.Equal(math.NewInt(400)) {
		t.Errorf("expected forfeited stake 400 burned, got %s", rep.burned)
	}
	if !rep.paused {
		t.Error("reputation must be paused after leaving make_decisions")
	}
	if !state.ReputationPaused {
		t.Error("state must record the reputation pause")
	}

	_, state = advance(t, k, ctx, caller) // -> deposit_withdraw, next cycle
	if rep.paused {
		t.Error("reputation must be unpaused when the next cycle opens")
	}
	if state.ReputationPaused {
		t.Error("state must clear the reputation pause")
	}
}

func TestSettlementFailureBlocksTransition(t *testing.T) {
	k, _, fund, ctx := setupCycleKeeper(t)
	caller := testAddr(1)

	ctx, _ = advance(t, k, ctx, caller) // -> deposit_withdraw
	ctx, _ = advance(t, k, ctx, caller) // -> make_decisions

	fund.settleErr = types.ErrSettlementFailed
	state := k.GetCycleState(ctx)
	params := k.GetParams(ctx)
	ctx = ctx.WithBlockTime(time.Unix(state.PhaseStart+params.PhaseDuration(state.Phase), 0))

	_, err := k.AdvancePhase(ctx, caller)
	if err == nil {
		t.Fatal("expected error when settlement fails")
	}
	if got := k.GetCycleState(ctx); got.Phase != types.PhaseMakeDecisions {
		t.Errorf("phase must not advance on settlement failure, got %s", got.Phase)
	}
}

func TestReentrancyGuard(t *testing.T) {
	k, _, _, ctx := setupCycleKeeper(t)

	if err := k.enter(); err != nil {
		t.Fatalf("first enter: %v", err)
	}
	_, err := k.AdvancePhase(ctx, testAddr(1))
	if !types.ErrReentrantCall.Is(err) {
		t.Errorf("expected ErrReentrantCall, got %v", err)
	}
	k.exit()
}

func TestParamsValidation(t *testing.T) {
	k, _, _, ctx := setupCycleKeeper(t)

	bad := types.DefaultParams()
	bad.MakeDecisionsSeconds = 0
	if err := k.SetParams(ctx, bad); err == nil {
		t.Error("expected error for zero phase duration")
	}

	bad = types.DefaultParams()
	bad.TransitionReward = math.NewInt(-1)
	if err := k.SetParams(ctx, bad); err == nil {
		t.Error("expected error for negative transition reward")
	}

	good := types.DefaultParams()
	good.TransitionReward = math.ZeroInt()
	if err := k.SetParams(ctx, good); err != nil {
		t.Errorf("zero reward must be allowed: %v", err)
	}
}
