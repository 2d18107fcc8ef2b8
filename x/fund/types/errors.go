package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrWrongPhase         = errors.Register("fund", 1, "operation not legal in current phase")
	ErrIneligibleAsset    = errors.Register("fund", 2, "asset failed eligibility screening")
	ErrAlreadyRedeemed    = errors.Register("fund", 3, "commission already redeemed this cycle")
	ErrReentrantCall      = errors.Register("fund", 4, "reentrant call rejected")
	ErrInsufficientStake  = errors.Register("fund", 5, "insufficient reputation balance for stake")
	ErrInsufficientFunds  = errors.Register("fund", 6, "insufficient funds")
	ErrZeroFill           = errors.Register("fund", 7, "exchange delivered zero destination amount")
	ErrDivisionByZero     = errors.Register("fund", 8, "division by zero in settlement math")
	ErrOverflow           = errors.Register("fund", 9, "arithmetic overflow in settlement math")
	ErrUnauthorized       = errors.Register("fund", 10, "unauthorized caller")
	ErrInvalidRates       = errors.Register("fund", 11, "invalid rate configuration")
	ErrInvestmentNotFound = errors.Register("fund", 12, "investment not found")
	ErrInvestmentClosed   = errors.Register("fund", 13, "investment already closed")
	ErrSameAsset          = errors.Register("fund", 14, "source and destination asset are identical")
	ErrInvalidAmount      = errors.Register("fund", 15, "invalid amount")
	ErrInvalidAddress     = errors.Register("fund", 16, "invalid address")
)
