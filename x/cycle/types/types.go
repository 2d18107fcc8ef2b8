package types

import (
	"cosmossdk.io/math"
)

// Module name and store key
const (
	ModuleName = "cycle"
	StoreKey   = ModuleName
)

// Phases of an investment cycle, in cyclic order
const (
	PhaseDepositWithdraw  = "deposit_withdraw"
	PhaseMakeDecisions    = "make_decisions"
	PhaseRedeemCommission = "redeem_commission"
)

// NextPhase returns the phase that follows the given one in cyclic order
func NextPhase(phase string) string {
	switch phase {
	case PhaseDepositWithdraw:
		return PhaseMakeDecisions
	case PhaseMakeDecisions:
		return PhaseRedeemCommission
	case PhaseRedeemCommission:
		return PhaseDepositWithdraw
	default:
		return PhaseDepositWithdraw
	}
}

// IsValidPhase reports whether the given string names a phase
func IsValidPhase(phase string) bool {
	switch phase {
	case PhaseDepositWithdraw, PhaseMakeDecisions, PhaseRedeemCommission:
		return true
	}
	return false
}

// CycleState tracks the current cycle number, phase and phase start time.
// Exactly one cycle is current at any time; the cycle number increments only
// when leaving the terminal RedeemCommission phase.
type CycleState struct {
	CycleNumber      uint64 `json:"cycle_number"`
	Phase            string `json:"phase"`
	PhaseStart       int64  `json:"phase_start"`
	ReputationPaused bool   `json:"reputation_paused"`
}

// NewCycleState returns the genesis cycle state. The engine boots in
// RedeemCommission so that the first qualifying transition opens cycle 1
// with a DepositWithdraw phase.
func NewCycleState(now int64) *CycleState {
	return &CycleState{
		CycleNumber: 0,
		Phase:       PhaseRedeemCommission,
		PhaseStart:  now,
	}
}

// Params holds the cycle module configuration
type Params struct {
	// Minimum phase durations in seconds
	DepositWithdrawSeconds  int64 `json:"deposit_withdraw_seconds"`
	MakeDecisionsSeconds    int64 `json:"make_decisions_seconds"`
	RedeemCommissionSeconds int64 `json:"redeem_commission_seconds"`

	// Reputation minted to whoever triggers a qualifying phase transition
	TransitionReward math.Int `json:"transition_reward"`
}

// DefaultParams returns the default cycle parameters
func DefaultParams() Params {
	return Params{
		DepositWithdrawSeconds:  7 * 24 * 60 * 60,
		MakeDecisionsSeconds:    14 * 24 * 60 * 60,
		RedeemCommissionSeconds: 3 * 24 * 60 * 60,
		TransitionReward:        math.NewInt(1_000_000),
	}
}

// PhaseDuration returns the configured minimum duration for a phase, in seconds
func (p Params) PhaseDuration(phase string) int64 {
	switch phase {
	case PhaseDepositWithdraw:
		return p.DepositWithdrawSeconds
	case PhaseMakeDecisions:
		return p.MakeDecisionsSeconds
	case PhaseRedeemCommission:
		return p.RedeemCommissionSeconds
	default:
		return 0
	}
}

// Validate checks the parameter set
func (p Params) Validate() error {
	if p.DepositWithdrawSeconds <= 0 || p.MakeDecisionsSeconds <= 0 || p.RedeemCommissionSeconds <= 0 {
		return ErrInvalidParams
	}
	if p.TransitionReward.IsNil() || p.TransitionReward.IsNegative() {
		return ErrInvalidParams
	}
	return nil
}
