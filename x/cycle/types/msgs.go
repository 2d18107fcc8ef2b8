package types

import (
	"context"

	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgAdvancePhase{},
	)
}

// Message types for the cycle module
const (
	TypeMsgAdvancePhase = "advance_phase"
)

// MsgServer defines the cycle module's message service
type MsgServer interface {
	AdvancePhase(context.Context, *MsgAdvancePhase) (*MsgAdvancePhaseResponse, error)
}

// RegisterMsgServer registers the MsgServer to the configurator's MsgServer
func RegisterMsgServer(s interface{}, srv MsgServer) {
	// Messages are routed through the module's handler until proto
	// generation is set up
}

// MsgAdvancePhase requests a phase transition. Permissionless: any account
// may trigger it once the time gate has elapsed and collects the
// transition reward.
type MsgAdvancePhase struct {
	Caller string `json:"caller"`
}

// Proto interface implementations for MsgAdvancePhase
func (msg *MsgAdvancePhase) Reset()         { *msg = MsgAdvancePhase{} }
func (msg *MsgAdvancePhase) String() string { return msg.Caller }
func (msg *MsgAdvancePhase) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgAdvancePhase
func (msg *MsgAdvancePhase) XXX_MessageName() string {
	return "fundcycle.cycle.v1.MsgAdvancePhase"
}

// ValidateBasic for MsgAdvancePhase
func (msg *MsgAdvancePhase) ValidateBasic() error {
	if msg.Caller == "" {
		return ErrInvalidCaller
	}
	return nil
}

// GetSigners returns the signer addresses for MsgAdvancePhase
func (msg *MsgAdvancePhase) GetSigners() []sdk.AccAddress {
	caller, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{caller}
}

// MsgAdvancePhaseResponse is the response for MsgAdvancePhase
type MsgAdvancePhaseResponse struct {
	CycleNumber uint64 `json:"cycle_number"`
	NewPhase    string `json:"new_phase"`
	PhaseStart  int64  `json:"phase_start"`
}

// Proto interface implementations for MsgAdvancePhaseResponse
func (msg *MsgAdvancePhaseResponse) Reset()         { *msg = MsgAdvancePhaseResponse{} }
func (msg *MsgAdvancePhaseResponse) String() string { return msg.NewPhase }
func (msg *MsgAdvancePhaseResponse) ProtoMessage()  {}
