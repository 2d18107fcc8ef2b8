package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrPhaseNotElapsed  = errors.Register("cycle", 1, "minimum phase duration has not elapsed")
	ErrInvalidParams    = errors.Register("cycle", 2, "invalid cycle parameters")
	ErrReentrantCall    = errors.Register("cycle", 3, "reentrant call rejected")
	ErrInvalidCaller    = errors.Register("cycle", 4, "invalid caller address")
	ErrSettlementFailed = errors.Register("cycle", 5, "end-of-cycle settlement failed")
)
