package keeper

import (
	"fmt"

	"cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/fund-cycle/x/cycle/types"
)

// AdvancePhase moves the cycle state machine to the next phase. The call is
// permissionless but time-gated: the current phase's minimum duration must
// have elapsed. The caller receives the transition reward in reputation.
//
// Leaving MakeDecisions is the heavy transition: any reputation the engine
// collected as stake is forfeited and burned, reputation transfers are
// paused, and the fund settles the cycle's results. Leaving RedeemCommission
// opens the next cycle and lifts the pause.
func (k *Keeper) AdvancePhase(ctx sdk.Context, caller sdk.AccAddress) (*types.CycleState, error) {
	if err := k.enter(); err != nil {
		return nil, err
	}
	defer k.exit()

	state := k.GetCycleState(ctx)
	params := k.GetParams(ctx)
	now := ctx.BlockTime().Unix()

	minDuration := params.PhaseDuration(state.Phase)
	if now < state.PhaseStart+minDuration {
		return nil, errors.Wrapf(types.ErrPhaseNotElapsed,
			"phase %s started at %d, needs %ds, now %d",
			state.Phase, state.PhaseStart, minDuration, now)
	}

	switch state.Phase {
	case types.PhaseMakeDecisions:
		// Stake still held by the engine at the end of the decision
		// window was never returned by a closed investment: forfeit it.
		collected := k.reputationKeeper.CollectedBalance(ctx)
		if collected.IsPositive() {
			if err := k.reputationKeeper.BurnCollected(ctx, collected); err != nil {
				return nil, errors.Wrap(types.ErrSettlementFailed, err.Error())
			}
		}
		if err := k.reputationKeeper.Pause(ctx); err != nil {
			return nil, errors.Wrap(types.ErrSettlementFailed, err.Error())
		}
		state.ReputationPaused = true

		if err := k.fundKeeper.SettleEndOfCycle(ctx); err != nil {
			return nil, errors.Wrap(types.ErrSettlementFailed, err.Error())
		}

	case types.PhaseRedeemCommission:
		state.CycleNumber++
		if state.ReputationPaused {
			if err := k.reputationKeeper.Unpause(ctx); err != nil {
				return nil, errors.Wrap(types.ErrSettlementFailed, err.Error())
			}
			state.ReputationPaused = false
		}
	}

	state.Phase = types.NextPhase(state.Phase)
	state.PhaseStart = now
	k.SetCycleState(ctx, state)

	if params.TransitionReward.IsPositive() {
		if err := k.reputationKeeper.Mint(ctx, caller, params.TransitionReward); err != nil {
			return nil, err
		}
	}

	k.logger.Info("phase advanced",
		"cycle", state.CycleNumber,
		"phase", state.Phase,
		"caller", caller.String(),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"phase_changed",
			sdk.NewAttribute("cycle_number", fmt.Sprintf("%d", state.CycleNumber)),
			sdk.NewAttribute("phase", state.Phase),
			sdk.NewAttribute("phase_start", fmt.Sprintf("%d", state.PhaseStart)),
			sdk.NewAttribute("caller", caller.String()),
		),
	)

	return state, nil
}
