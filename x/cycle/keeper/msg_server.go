package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/cycle/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

// AdvancePhase handles the MsgAdvancePhase message
func (m *msgServer) AdvancePhase(ctx context.Context, msg *types.MsgAdvancePhase) (*types.MsgAdvancePhaseResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	caller, err := sdk.AccAddressFromBech32(msg.Caller)
	if err != nil {
		return nil, types.ErrInvalidCaller
	}

	state, err := m.Keeper.AdvancePhase(sdkCtx, caller)
	if err != nil {
		return nil, err
	}

	return &types.MsgAdvancePhaseResponse{
		CycleNumber: state.CycleNumber,
		NewPhase:    state.Phase,
		PhaseStart:  state.PhaseStart,
	}, nil
}
