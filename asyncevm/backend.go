package asyncevm

import (
	"context"
	"errors"

	"github.com/lantern-eth/lantern/core/types"
)

// StateBackend resolves state by (header, key) over a high-latency transport
// such as the portal state network. All three lookups are cancellable through
// ctx, idempotent, read-only and safe to invoke concurrently for distinct
// keys; the engine never issues two concurrent queries for the same key.
//
// A nil value with a nil error is an authoritative absence: the key provably
// has no data at this header and the engine records it as zero-valued. Any
// non-nil error, including transport-level not-found, aborts the call.
type StateBackend interface {
	GetAccount(ctx context.Context, header *types.Header, addr types.Address) (*types.Account, error)
	GetStorage(ctx context.Context, header *types.Header, addr types.Address, slot types.Hash) (*types.Hash, error)
	GetCode(ctx context.Context, header *types.Header, addr types.Address) ([]byte, error)
}

// Engine-level errors.
var (
	ErrToRequired         = errors.New("to address is required")
	ErrGasTooHigh         = errors.New("gas larger than max allowed")
	ErrUnableToGetAccount = errors.New("Unable to get account")
	ErrUnableToGetSlot    = errors.New("Unable to get slot")
	ErrUnableToGetCode    = errors.New("Unable to get code")
)

// EVMError wraps an interpreter failure that is not an ordinary revert, e.g.
// out-of-gas at the estimator's upper bound.
type EVMError struct {
	Code error
}

func (e *EVMError) Error() string {
	return "EVM execution failed: " + e.Code.Error()
}

func (e *EVMError) Unwrap() error {
	return e.Code
}
