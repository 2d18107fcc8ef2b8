package types

import (
	"context"

	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgDeposit{},
		&MsgWithdraw{},
		&MsgOpenInvestment{},
		&MsgCloseInvestment{},
		&MsgRedeemCommission{},
		&MsgSellLeftoverAsset{},
		&MsgUpdateRates{},
	)
}

// Message types for the fund module
const (
	TypeMsgDeposit           = "deposit"
	TypeMsgWithdraw          = "withdraw"
	TypeMsgOpenInvestment    = "open_investment"
	TypeMsgCloseInvestment   = "close_investment"
	TypeMsgRedeemCommission  = "redeem_commission"
	TypeMsgSellLeftoverAsset = "sell_leftover_asset"
	TypeMsgUpdateRates       = "update_rates"
)

// MsgServer defines the fund module's message service
type MsgServer interface {
	Deposit(context.Context, *MsgDeposit) (*MsgDepositResponse, error)
	Withdraw(context.Context, *MsgWithdraw) (*MsgWithdrawResponse, error)
	OpenInvestment(context.Context, *MsgOpenInvestment) (*MsgOpenInvestmentResponse, error)
	CloseInvestment(context.Context, *MsgCloseInvestment) (*MsgCloseInvestmentResponse, error)
	RedeemCommission(context.Context, *MsgRedeemCommission) (*MsgRedeemCommissionResponse, error)
	SellLeftoverAsset(context.Context, *MsgSellLeftoverAsset) (*MsgSellLeftoverAssetResponse, error)
	UpdateRates(context.Context, *MsgUpdateRates) (*MsgUpdateRatesResponse, error)
}

// RegisterMsgServer registers the MsgServer to the configurator's MsgServer
func RegisterMsgServer(s interface{}, srv MsgServer) {
	// Messages are routed through the module's handler until proto
	// generation is set up
}

// MsgDeposit deposits an asset into the pool in exchange for shares.
// Non-reference assets are converted on the way in.
type MsgDeposit struct {
	Depositor  string `json:"depositor"`
	AssetDenom string `json:"asset_denom"`
	Amount     string `json:"amount"`
}

// MsgWithdraw burns shares and pays out the requested asset
type MsgWithdraw struct {
	Withdrawer string `json:"withdrawer"`
	AssetDenom string `json:"asset_denom"`
	// Amount requested, denominated in the reference asset
	Amount string `json:"amount"`
}

// MsgOpenInvestment stakes reputation to direct a stake-proportional slice
// of the pool into the target asset
type MsgOpenInvestment struct {
	Creator    string `json:"creator"`
	AssetDenom string `json:"asset_denom"`
	Stake      string `json:"stake"`
}

// MsgCloseInvestment sells an open investment back to the reference asset
// and settles the staked reputation
type MsgCloseInvestment struct {
	Creator      string `json:"creator"`
	InvestmentID uint64 `json:"investment_id"`
}

// MsgRedeemCommission claims the caller's pro-rata slice of the commission
// pool, either paid out in the reference asset or reinvested as shares
type MsgRedeemCommission struct {
	Account  string `json:"account"`
	InShares bool   `json:"in_shares"`
}

// MsgSellLeftoverAsset converts a non-reference asset still held by the
// pool back into the reference asset. Permissionless.
type MsgSellLeftoverAsset struct {
	Caller     string `json:"caller"`
	AssetDenom string `json:"asset_denom"`
}

// MsgUpdateRates changes the fee configuration. Authority-gated.
type MsgUpdateRates struct {
	Authority        string `json:"authority"`
	CommissionRate   string `json:"commission_rate"`
	AssetFeeRate     string `json:"asset_fee_rate"`
	DeveloperFeeRate string `json:"developer_fee_rate"`
	ExitFeeRate      string `json:"exit_fee_rate"`
}

// Proto interface implementations for MsgDeposit
func (msg *MsgDeposit) Reset()         { *msg = MsgDeposit{} }
func (msg *MsgDeposit) String() string { return msg.Depositor }
func (msg *MsgDeposit) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgDeposit
func (msg *MsgDeposit) XXX_MessageName() string {
	return "fundcycle.fund.v1.MsgDeposit"
}

// ValidateBasic for MsgDeposit
func (msg *MsgDeposit) ValidateBasic() error {
	if msg.Depositor == "" {
		return ErrInvalidAddress
	}
	if msg.AssetDenom == "" {
		return ErrIneligibleAsset
	}
	if msg.Amount == "" {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners returns the signer addresses for MsgDeposit
func (msg *MsgDeposit) GetSigners() []sdk.AccAddress {
	depositor, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{depositor}
}

// Proto interface implementations for MsgWithdraw
func (msg *MsgWithdraw) Reset()         { *msg = MsgWithdraw{} }
func (msg *MsgWithdraw) String() string { return msg.Withdrawer }
func (msg *MsgWithdraw) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgWithdraw
func (msg *MsgWithdraw) XXX_MessageName() string {
	return "fundcycle.fund.v1.MsgWithdraw"
}

// ValidateBasic for MsgWithdraw
func (msg *MsgWithdraw) ValidateBasic() error {
	if msg.Withdrawer == "" {
		return ErrInvalidAddress
	}
	if msg.AssetDenom == "" {
		return ErrIneligibleAsset
	}
	if msg.Amount == "" {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners returns the signer addresses for MsgWithdraw
func (msg *MsgWithdraw) GetSigners() []sdk.AccAddress {
	withdrawer, _ := sdk.AccAddressFromBech32(msg.Withdrawer)
	return []sdk.AccAddress{withdrawer}
}

// Proto interface implementations for MsgOpenInvestment
func (msg *MsgOpenInvestment) Reset()         { *msg = MsgOpenInvestment{} }
func (msg *MsgOpenInvestment) String() string { return msg.Creator }
func (msg *MsgOpenInvestment) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgOpenInvestment
func (msg *MsgOpenInvestment) XXX_MessageName() string {
	return "fundcycle.fund.v1.MsgOpenInvestment"
}

// ValidateBasic for MsgOpenInvestment
func (msg *MsgOpenInvestment) ValidateBasic() error {
	if msg.Creator == "" {
		return ErrInvalidAddress
	}
	if msg.AssetDenom == "" {
		return ErrIneligibleAsset
	}
	if msg.Stake == "" {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners returns the signer addresses for MsgOpenInvestment
func (msg *MsgOpenInvestment) GetSigners() []sdk.AccAddress {
	creator, _ := sdk.AccAddressFromBech32(msg.Creator)
	return []sdk.AccAddress{creator}
}

// Proto interface implementations for MsgCloseInvestment
func (msg *MsgCloseInvestment) Reset()         { *msg = MsgCloseInvestment{} }
func (msg *MsgCloseInvestment) String() string { return msg.Creator }
func (msg *MsgCloseInvestment) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgCloseInvestment
func (msg *MsgCloseInvestment) XXX_MessageName() string {
	return "fundcycle.fund.v1.MsgCloseInvestment"
}

// ValidateBasic for MsgCloseInvestment
func (msg *MsgCloseInvestment) ValidateBasic() error {
	if msg.Creator == "" {
		return ErrInvalidAddress
	}
	return nil
}

// GetSigners returns the signer addresses for MsgCloseInvestment
func (msg *MsgCloseInvestment) GetSigners() []sdk.AccAddress {
	creator, _ := sdk.AccAddressFromBech32(msg.Creator)
	return []sdk.AccAddress{creator}
}

// Proto interface implementations for MsgRedeemCommission
func (msg *MsgRedeemCommission) Reset()         { *msg = MsgRedeemCommission{} }
func (msg *MsgRedeemCommission) String() string { return msg.Account }
func (msg *MsgRedeemCommission) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgRedeemCommission
func (msg *MsgRedeemCommission) XXX_MessageName() string {
	return "fundcycle.fund.v1.MsgRedeemCommission"
}

// ValidateBasic for MsgRedeemCommission
func (msg *MsgRedeemCommission) ValidateBasic() error {
	if msg.Account == "" {
		return ErrInvalidAddress
	}
	return nil
}

// GetSigners returns the signer addresses for MsgRedeemCommission
func (msg *MsgRedeemCommission) GetSigners() []sdk.AccAddress {
	account, _ := sdk.AccAddressFromBech32(msg.Account)
	return []sdk.AccAddress{account}
}

// Proto interface implementations for MsgSellLeftoverAsset
func (msg *MsgSellLeftoverAsset) Reset()         { *msg = MsgSellLeftoverAsset{} }
func (msg *MsgSellLeftoverAsset) String() string { return msg.AssetDenom }
func (msg *MsgSellLeftoverAsset) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSellLeftoverAsset
func (msg *MsgSellLeftoverAsset) XXX_MessageName() string {
	return "fundcycle.fund.v1.MsgSellLeftoverAsset"
}

// ValidateBasic for MsgSellLeftoverAsset
func (msg *MsgSellLeftoverAsset) ValidateBasic() error {
	if msg.Caller == "" {
		return ErrInvalidAddress
	}
	if msg.AssetDenom == "" {
		return ErrIneligibleAsset
	}
	return nil
}

// GetSigners returns the signer addresses for MsgSellLeftoverAsset
func (msg *MsgSellLeftoverAsset) GetSigners() []sdk.AccAddress {
	caller, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{caller}
}

// Proto interface implementations for MsgUpdateRates
func (msg *MsgUpdateRates) Reset()         { *msg = MsgUpdateRates{} }
func (msg *MsgUpdateRates) String() string { return msg.Authority }
func (msg *MsgUpdateRates) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgUpdateRates
func (msg *MsgUpdateRates) XXX_MessageName() string {
	return "fundcycle.fund.v1.MsgUpdateRates"
}

// ValidateBasic for MsgUpdateRates
func (msg *MsgUpdateRates) ValidateBasic() error {
	if msg.Authority == "" {
		return ErrInvalidAddress
	}
	return nil
}

// GetSigners returns the signer addresses for MsgUpdateRates
func (msg *MsgUpdateRates) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// MsgDepositResponse is the response for MsgDeposit
type MsgDepositResponse struct {
	SharesMinted string `json:"shares_minted"`
	PoolValue    string `json:"pool_value"`
}

// Proto interface implementations for MsgDepositResponse
func (msg *MsgDepositResponse) Reset()         { *msg = MsgDepositResponse{} }
func (msg *MsgDepositResponse) String() string { return msg.SharesMinted }
func (msg *MsgDepositResponse) ProtoMessage()  {}

// MsgWithdrawResponse is the response for MsgWithdraw
type MsgWithdrawResponse struct {
	SharesBurned string `json:"shares_burned"`
	AmountPaid   string `json:"amount_paid"`
}

// Proto interface implementations for MsgWithdrawResponse
func (msg *MsgWithdrawResponse) Reset()         { *msg = MsgWithdrawResponse{} }
func (msg *MsgWithdrawResponse) String() string { return msg.SharesBurned }
func (msg *MsgWithdrawResponse) ProtoMessage()  {}

// MsgOpenInvestmentResponse is the response for MsgOpenInvestment
type MsgOpenInvestmentResponse struct {
	InvestmentID uint64 `json:"investment_id"`
	BuyPrice     string `json:"buy_price"`
	AcquiredQty  string `json:"acquired_qty"`
}

// Proto interface implementations for MsgOpenInvestmentResponse
func (msg *MsgOpenInvestmentResponse) Reset()         { *msg = MsgOpenInvestmentResponse{} }
func (msg *MsgOpenInvestmentResponse) String() string { return msg.BuyPrice }
func (msg *MsgOpenInvestmentResponse) ProtoMessage()  {}

// MsgCloseInvestmentResponse is the response for MsgCloseInvestment
type MsgCloseInvestmentResponse struct {
	SellPrice          string `json:"sell_price"`
	ReturnedReputation string `json:"returned_reputation"`
	MintedReputation   string `json:"minted_reputation"`
	BurnedReputation   string `json:"burned_reputation"`
}

// Proto interface implementations for MsgCloseInvestmentResponse
func (msg *MsgCloseInvestmentResponse) Reset()         { *msg = MsgCloseInvestmentResponse{} }
func (msg *MsgCloseInvestmentResponse) String() string { return msg.SellPrice }
func (msg *MsgCloseInvestmentResponse) ProtoMessage()  {}

// MsgRedeemCommissionResponse is the response for MsgRedeemCommission
type MsgRedeemCommissionResponse struct {
	Amount       string `json:"amount"`
	SharesMinted string `json:"shares_minted"`
}

// Proto interface implementations for MsgRedeemCommissionResponse
func (msg *MsgRedeemCommissionResponse) Reset()         { *msg = MsgRedeemCommissionResponse{} }
func (msg *MsgRedeemCommissionResponse) String() string { return msg.Amount }
func (msg *MsgRedeemCommissionResponse) ProtoMessage()  {}

// MsgSellLeftoverAssetResponse is the response for MsgSellLeftoverAsset
type MsgSellLeftoverAssetResponse struct {
	Received string `json:"received"`
}

// Proto interface implementations for MsgSellLeftoverAssetResponse
func (msg *MsgSellLeftoverAssetResponse) Reset()         { *msg = MsgSellLeftoverAssetResponse{} }
func (msg *MsgSellLeftoverAssetResponse) String() string { return msg.Received }
func (msg *MsgSellLeftoverAssetResponse) ProtoMessage()  {}

// MsgUpdateRatesResponse is the response for MsgUpdateRates
type MsgUpdateRatesResponse struct{}

// Proto interface implementations for MsgUpdateRatesResponse
func (msg *MsgUpdateRatesResponse) Reset()         { *msg = MsgUpdateRatesResponse{} }
func (msg *MsgUpdateRatesResponse) String() string { return "" }
func (msg *MsgUpdateRatesResponse) ProtoMessage()  {}
