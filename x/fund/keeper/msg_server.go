package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

func parseAmount(s string) (math.Int, error) {
	amount, ok := math.NewIntFromString(s)
	if !ok || !amount.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount
	}
	return amount, nil
}

// Deposit handles the MsgDeposit message. State changes apply only if the
// whole operation succeeds.
func (m *msgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	depositor, err := sdk.AccAddressFromBech32(msg.Depositor)
	if err != nil {
		return nil, types.ErrInvalidAddress
	}
	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	cacheCtx, write := sdkCtx.CacheContext()
	shares, err := m.Keeper.Deposit(cacheCtx, depositor, msg.AssetDenom, amount)
	if err != nil {
		return nil, err
	}
	write()

	return &types.MsgDepositResponse{
		SharesMinted: shares.String(),
		PoolValue:    m.Keeper.GetFund(sdkCtx).PoolValue.String(),
	}, nil
}

// Withdraw handles the MsgWithdraw message
func (m *msgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	withdrawer, err := sdk.AccAddressFromBech32(msg.Withdrawer)
	if err != nil {
		return nil, types.ErrInvalidAddress
	}
	amount, err := parseAmount(msg.Amount)
	if err != nil {
		return nil, err
	}

	cacheCtx, write := sdkCtx.CacheContext()
	burned, paid, err := m.Keeper.Withdraw(cacheCtx, withdrawer, msg.AssetDenom, amount)
	if err != nil {
		return nil, err
	}
	write()

	return &types.MsgWithdrawResponse{
		SharesBurned: burned.String(),
		AmountPaid:   paid.String(),
	}, nil
}

// OpenInvestment handles the MsgOpenInvestment message
func (m *msgServer) OpenInvestment(ctx context.Context, msg *types.MsgOpenInvestment) (*types.MsgOpenInvestmentResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	creator, err := sdk.AccAddressFromBech32(msg.Creator)
	if err != nil {
		return nil, types.ErrInvalidAddress
	}
	stake, err := parseAmount(msg.Stake)
	if err != nil {
		return nil, err
	}

	cacheCtx, write := sdkCtx.CacheContext()
	id, inv, err := m.Keeper.OpenInvestment(cacheCtx, creator, msg.AssetDenom, stake)
	if err != nil {
		return nil, err
	}
	write()

	return &types.MsgOpenInvestmentResponse{
		InvestmentID: id,
		BuyPrice:     inv.BuyPrice.String(),
		AcquiredQty:  inv.AcquiredQty.String(),
	}, nil
}

// CloseInvestment handles the MsgCloseInvestment message
func (m *msgServer) CloseInvestment(ctx context.Context, msg *types.MsgCloseInvestment) (*types.MsgCloseInvestmentResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	creator, err := sdk.AccAddressFromBech32(msg.Creator)
	if err != nil {
		return nil, types.ErrInvalidAddress
	}

	cacheCtx, write := sdkCtx.CacheContext()
	result, err := m.Keeper.CloseInvestment(cacheCtx, creator, msg.InvestmentID)
	if err != nil {
		return nil, err
	}
	write()

	return &types.MsgCloseInvestmentResponse{
		SellPrice:          result.SellPrice.String(),
		ReturnedReputation: result.Returned.String(),
		MintedReputation:   result.Minted.String(),
		BurnedReputation:   result.Burned.String(),
	}, nil
}

// RedeemCommission handles the MsgRedeemCommission message
func (m *msgServer) RedeemCommission(ctx context.Context, msg *types.MsgRedeemCommission) (*types.MsgRedeemCommissionResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	account, err := sdk.AccAddressFromBech32(msg.Account)
	if err != nil {
		return nil, types.ErrInvalidAddress
	}

	cacheCtx, write := sdkCtx.CacheContext()
	amount, shares, err := m.Keeper.RedeemCommission(cacheCtx, account, msg.InShares)
	if err != nil {
		return nil, err
	}
	write()

	return &types.MsgRedeemCommissionResponse{
		Amount:       amount.String(),
		SharesMinted: shares.String(),
	}, nil
}

// SellLeftoverAsset handles the MsgSellLeftoverAsset message
func (m *msgServer) SellLeftoverAsset(ctx context.Context, msg *types.MsgSellLeftoverAsset) (*types.MsgSellLeftoverAssetResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	cacheCtx, write := sdkCtx.CacheContext()
	received, err := m.Keeper.SellLeftoverAsset(cacheCtx, msg.AssetDenom)
	if err != nil {
		return nil, err
	}
	write()

	return &types.MsgSellLeftoverAssetResponse{
		Received: received.String(),
	}, nil
}

// UpdateRates handles the MsgUpdateRates message
func (m *msgServer) UpdateRates(ctx context.Context, msg *types.MsgUpdateRates) (*types.MsgUpdateRatesResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	current := m.Keeper.GetParams(sdkCtx)
	updated := current
	var err error
	for _, field := range []struct {
		raw  string
		dest *math.LegacyDec
	}{
		{msg.CommissionRate, &updated.CommissionRate},
		{msg.AssetFeeRate, &updated.AssetFeeRate},
		{msg.DeveloperFeeRate, &updated.DeveloperFeeRate},
		{msg.ExitFeeRate, &updated.ExitFeeRate},
	} {
		if field.raw == "" {
			continue
		}
		*field.dest, err = math.LegacyNewDecFromStr(field.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid rate: %w", err)
		}
	}

	if err := m.Keeper.UpdateRates(sdkCtx, msg.Authority, updated); err != nil {
		return nil, err
	}

	return &types.MsgUpdateRatesResponse{}, nil
}
