package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

// QueryServer defines the fund QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Fund returns the pool aggregate state
func (q *QueryServer) Fund(ctx context.Context) (*types.Fund, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetFund(sdkCtx), nil
}

// Params returns the fund parameters
func (q *QueryServer) Params(ctx context.Context) (types.Params, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetParams(sdkCtx), nil
}

// Ledger returns an account's ledger
func (q *QueryServer) Ledger(ctx context.Context, address string) (*types.AccountLedger, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	addr, err := sdk.AccAddressFromBech32(address)
	if err != nil {
		return nil, types.ErrInvalidAddress
	}
	return q.keeper.GetLedger(sdkCtx, addr), nil
}

// Investment returns one investment by account and id
func (q *QueryServer) Investment(ctx context.Context, address string, id uint64) (*types.Investment, error) {
	ledger, err := q.Ledger(ctx, address)
	if err != nil {
		return nil, err
	}
	if id >= uint64(len(ledger.Investments)) {
		return nil, types.ErrInvestmentNotFound
	}
	inv := ledger.Investments[id]
	return &inv, nil
}

// TopStakers returns the accounts holding the most reputation
func (q *QueryServer) TopStakers(ctx context.Context, limit int) ([]StakerEntry, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if limit <= 0 {
		limit = 10
	}
	return q.keeper.TopStakers(sdkCtx, limit), nil
}

// CommissionPreview returns what an account would receive from the current
// commission pool, pro rata by its reputation balance
func (q *QueryServer) CommissionPreview(ctx context.Context, address string) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	addr, err := sdk.AccAddressFromBech32(address)
	if err != nil {
		return math.ZeroInt(), types.ErrInvalidAddress
	}

	totalRep := q.keeper.reputationKeeper.TotalSupply(sdkCtx)
	if !totalRep.IsPositive() {
		return math.ZeroInt(), nil
	}
	fund := q.keeper.GetFund(sdkCtx)
	repBalance := q.keeper.reputationKeeper.BalanceOf(sdkCtx, addr)
	return fund.CommissionPool.Mul(repBalance).Quo(totalRep), nil
}
