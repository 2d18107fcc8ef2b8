package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/cycle/types"
)

// Store key prefixes
var (
	CycleStateKey = []byte{0x01}
	ParamsKey     = []byte{0x02}
)

// ReputationKeeper defines the expected interface for the reputation token.
// The token is held by the engine while staked; pausing blocks transfers
// between participants for the remainder of a cycle.
type ReputationKeeper interface {
	Mint(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error
	CollectedBalance(ctx sdk.Context) math.Int
	BurnCollected(ctx sdk.Context, amount math.Int) error
	Pause(ctx sdk.Context) error
	Unpause(ctx sdk.Context) error
}

// FundKeeper defines the expected interface for the fund accounting module
type FundKeeper interface {
	SettleEndOfCycle(ctx sdk.Context) error
}

// Keeper manages the cycle state machine
type Keeper struct {
	cdc              codec.BinaryCodec
	storeKey         storetypes.StoreKey
	reputationKeeper ReputationKeeper
	fundKeeper       FundKeeper
	logger           log.Logger
	authority        string

	// Non-reentrancy guard: settlement crosses into the fund keeper and
	// from there into the external exchange, which must never re-enter a
	// half-applied transition.
	entered bool
}

// NewKeeper creates a new cycle keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	reputationKeeper ReputationKeeper,
	fundKeeper FundKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:              cdc,
		storeKey:         storeKey,
		reputationKeeper: reputationKeeper,
		fundKeeper:       fundKeeper,
		authority:        authority,
		logger:           logger.With("module", "x/cycle"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the governance authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// SetFundKeeper wires the fund accounting keeper after construction.
// The two keepers reference each other, so one side is attached late.
func (k *Keeper) SetFundKeeper(fundKeeper FundKeeper) {
	k.fundKeeper = fundKeeper
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

func (k *Keeper) enter() error {
	if k.entered {
		return types.ErrReentrantCall
	}
	k.entered = true
	return nil
}

func (k *Keeper) exit() {
	k.entered = false
}

// ============ Cycle State Operations ============

// SetCycleState saves the cycle state to the store
func (k *Keeper) SetCycleState(ctx sdk.Context, state *types.CycleState) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(state)
	store.Set(CycleStateKey, bz)
}

// GetCycleState retrieves the cycle state, initializing it at first use
func (k *Keeper) GetCycleState(ctx sdk.Context) *types.CycleState {
	store := k.GetStore(ctx)
	bz := store.Get(CycleStateKey)
	if bz == nil {
		state := types.NewCycleState(ctx.BlockTime().Unix())
		k.SetCycleState(ctx, state)
		return state
	}
	var state types.CycleState
	if err := json.Unmarshal(bz, &state); err != nil {
		return types.NewCycleState(ctx.BlockTime().Unix())
	}
	return &state
}

// CurrentCycle returns the current cycle number and phase
func (k *Keeper) CurrentCycle(ctx sdk.Context) (uint64, string) {
	state := k.GetCycleState(ctx)
	return state.CycleNumber, state.Phase
}

// ============ Params Operations ============

// SetParams saves the module params
func (k *Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(params)
	store.Set(ParamsKey, bz)
	return nil
}

// GetParams retrieves the module params
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	store := k.GetStore(ctx)
	bz := store.Get(ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		return types.DefaultParams()
	}
	return params
}
