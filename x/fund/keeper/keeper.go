package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

// Store key prefixes
var (
	FundKey                = []byte{0x01}
	ParamsKey              = []byte{0x02}
	LedgerKeyPrefix        = []byte{0x03}
	AssetOverrideKeyPrefix = []byte{0x04}
)

// AssetKeeper defines the expected interface for per-asset balances and
// transfers. Trades are never measured by what a transfer claims to have
// moved; callers difference BalanceOf readings around the operation.
type AssetKeeper interface {
	BalanceOf(ctx sdk.Context, denom string, addr sdk.AccAddress) math.Int
	Transfer(ctx sdk.Context, denom string, from, to sdk.AccAddress, amount math.Int) error
	Approve(ctx sdk.Context, denom string, owner, spender sdk.AccAddress, amount math.Int) error
	TotalSupply(ctx sdk.Context, denom string) math.Int
	Decimals(ctx sdk.Context, denom string) (uint32, bool)
}

// ReputationKeeper defines the expected interface for the reputation token.
// Collected stake sits in the engine's own holding until returned or burned.
type ReputationKeeper interface {
	TotalSupply(ctx sdk.Context) math.Int
	BalanceOf(ctx sdk.Context, addr sdk.AccAddress) math.Int
	Mint(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error
	CollectStake(ctx sdk.Context, from sdk.AccAddress, amount math.Int) error
	ReturnStake(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error
	BurnCollected(ctx sdk.Context, amount math.Int) error
	CollectedBalance(ctx sdk.Context) math.Int
}

// ShareKeeper defines the expected interface for the pool share token
type ShareKeeper interface {
	TotalSupply(ctx sdk.Context) math.Int
	BalanceOf(ctx sdk.Context, addr sdk.AccAddress) math.Int
	Mint(ctx sdk.Context, to sdk.AccAddress, amount math.Int) error
	Burn(ctx sdk.Context, from sdk.AccAddress, amount math.Int) error
}

// ExchangeKeeper defines the expected interface for the external trading
// venue. The returned amount is advisory only; the adapter re-reads
// balances to find out what actually moved.
type ExchangeKeeper interface {
	Trade(ctx sdk.Context, srcDenom string, srcAmount math.Int, destDenom string,
		recipient sdk.AccAddress, maxDest math.Int, minRate math.LegacyDec, feeID string) (math.Int, error)
	Address() sdk.AccAddress
}

// CycleKeeper defines the expected interface for the cycle state machine
type CycleKeeper interface {
	CurrentCycle(ctx sdk.Context) (uint64, string)
}

// Keeper manages the investment ledger and fund accounting core
type Keeper struct {
	cdc              codec.BinaryCodec
	storeKey         storetypes.StoreKey
	assetKeeper      AssetKeeper
	reputationKeeper ReputationKeeper
	shareKeeper      ShareKeeper
	exchangeKeeper   ExchangeKeeper
	cycleKeeper      CycleKeeper
	logger           log.Logger
	authority        string

	// All pool value and fee accounting is denominated in this asset
	referenceDenom string

	// Account holding the pool's assets
	fundAddress sdk.AccAddress

	// Non-reentrancy guard: the venue call inside a trade hands control to
	// an external component which must never re-enter while pool value or
	// supplies are mid-update.
	entered bool

	stakeIndex *stakeIndex
}

// NewKeeper creates a new fund keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	assetKeeper AssetKeeper,
	reputationKeeper ReputationKeeper,
	shareKeeper ShareKeeper,
	exchangeKeeper ExchangeKeeper,
	cycleKeeper CycleKeeper,
	referenceDenom string,
	fundAddress sdk.AccAddress,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:              cdc,
		storeKey:         storeKey,
		assetKeeper:      assetKeeper,
		reputationKeeper: reputationKeeper,
		shareKeeper:      shareKeeper,
		exchangeKeeper:   exchangeKeeper,
		cycleKeeper:      cycleKeeper,
		referenceDenom:   referenceDenom,
		fundAddress:      fundAddress,
		authority:        authority,
		logger:           logger.With("module", "x/fund"),
		stakeIndex:       newStakeIndex(),
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

// ReferenceDenom returns the pool's reference asset denom
func (k *Keeper) ReferenceDenom() string {
	return k.referenceDenom
}

// FundAddress returns the pool's holding account
func (k *Keeper) FundAddress() sdk.AccAddress {
	return k.fundAddress
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

// requirePhase fails unless the cycle is currently in the given phase
func (k *Keeper) requirePhase(ctx sdk.Context, phase string) error {
	_, current := k.cycleKeeper.CurrentCycle(ctx)
	if current != phase {
		return types.ErrWrongPhase
	}
	return nil
}

// ============ Fund Aggregate Operations ============

// SetFund saves the pool aggregate state
func (k *Keeper) SetFund(ctx sdk.Context, fund *types.Fund) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(fund)
	store.Set(FundKey, bz)
}

// GetFund retrieves the pool aggregate state
func (k *Keeper) GetFund(ctx sdk.Context) *types.Fund {
	store := k.GetStore(ctx)
	bz := store.Get(FundKey)
	if bz == nil {
		return types.NewFund()
	}
	var fund types.Fund
	if err := json.Unmarshal(bz, &fund); err != nil {
		return types.NewFund()
	}
	return &fund
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

// UpdateRates applies a rate change after validating the fee bound and the
// ratchet-down rules. Only the authority may call.
func (k *Keeper) UpdateRates(ctx sdk.Context, authority string, updated types.Params) error {
	if authority != k.authority {
		return types.ErrUnauthorized
	}
	current := k.GetParams(ctx)
	if err := updated.ValidateUpdate(current); err != nil {
		return err
	}
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(updated)
	store.Set(ParamsKey, bz)

	k.logger.Info("rates updated",
		"commission_rate", updated.CommissionRate.String(),
		"asset_fee_rate", updated.AssetFeeRate.String(),
		"developer_fee_rate", updated.DeveloperFeeRate.String(),
		"exit_fee_rate", updated.ExitFeeRate.String(),
	)
	return nil
}

// ============ Account Ledger Operations ============

// ledgerKey builds the store key for an account's ledger
func ledgerKey(addr sdk.AccAddress) []byte {
	return append(LedgerKeyPrefix, addr.Bytes()...)
}

// SetLedger saves an account ledger
func (k *Keeper) SetLedger(ctx sdk.Context, addr sdk.AccAddress, ledger *types.AccountLedger) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(ledger)
	store.Set(ledgerKey(addr), bz)
}

// GetLedger retrieves an account ledger, returning an empty one if absent
func (k *Keeper) GetLedger(ctx sdk.Context, addr sdk.AccAddress) *types.AccountLedger {
	store := k.GetStore(ctx)
	bz := store.Get(ledgerKey(addr))
	if bz == nil {
		return types.NewAccountLedger(addr.String())
	}
	var ledger types.AccountLedger
	if err := json.Unmarshal(bz, &ledger); err != nil {
		return types.NewAccountLedger(addr.String())
	}
	return &ledger
}

// IterateLedgers walks every stored account ledger
func (k *Keeper) IterateLedgers(ctx sdk.Context, fn func(ledger *types.AccountLedger) bool) {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, LedgerKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var ledger types.AccountLedger
		if err := json.Unmarshal(iterator.Value(), &ledger); err != nil {
			continue
		}
		if fn(&ledger) {
			break
		}
	}
}

// ============ Asset Eligibility ============

// overrideKey builds the store key for an asset override
func overrideKey(denom string) []byte {
	return append(AssetOverrideKeyPrefix, []byte(denom)...)
}

// SetAssetOverride records an explicit allow/deny decision for an asset.
// Only the authority may call.
func (k *Keeper) SetAssetOverride(ctx sdk.Context, authority string, override types.AssetOverride) error {
	if authority != k.authority {
		return types.ErrUnauthorized
	}
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(override)
	store.Set(overrideKey(override.Denom), bz)
	return nil
}

// GetAssetOverride retrieves the override for an asset, if any
func (k *Keeper) GetAssetOverride(ctx sdk.Context, denom string) (types.AssetOverride, bool) {
	store := k.GetStore(ctx)
	bz := store.Get(overrideKey(denom))
	if bz == nil {
		return types.AssetOverride{}, false
	}
	var override types.AssetOverride
	if err := json.Unmarshal(bz, &override); err != nil {
		return types.AssetOverride{}, false
	}
	return override, true
}

// screenAsset applies the eligibility rules for an investment target: an
// explicit override wins; otherwise the reference asset always passes, and
// any other asset needs positive total issuance and enough decimals.
func (k *Keeper) screenAsset(ctx sdk.Context, denom string) error {
	if override, ok := k.GetAssetOverride(ctx, denom); ok {
		if !override.Allowed {
			return types.ErrIneligibleAsset
		}
		return nil
	}
	if denom == k.referenceDenom {
		return nil
	}
	if !k.assetKeeper.TotalSupply(ctx, denom).IsPositive() {
		return types.ErrIneligibleAsset
	}
	decimals, ok := k.assetKeeper.Decimals(ctx, denom)
	if !ok || decimals < k.GetParams(ctx).MinAssetDecimals {
		return types.ErrIneligibleAsset
	}
	return nil
}
