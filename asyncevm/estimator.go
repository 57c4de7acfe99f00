package asyncevm

import (
	"context"

	"github.com/lantern-eth/lantern/core"
	"github.com/lantern-eth/lantern/core/state"
	"github.com/lantern-eth/lantern/core/types"
	"github.com/lantern-eth/lantern/core/vm"
)

// EstimateGas returns the lowest gas limit under which the call succeeds.
// The prefetch loop first populates the ledger; the binary search then runs
// entirely against local state, each probe bracketed by a savepoint. The
// probes do not re-enter the prefetch loop: a probe with less gas can only
// touch a subset of the converged run's state.
func (e *Engine) EstimateGas(ctx context.Context, header *types.Header, args *types.TransactionArgs, optimistic bool) (uint64, error) {
	callArgs, err := validateArgs(args)
	if err != nil {
		return 0, err
	}
	ledger := state.NewWitnessLedger()
	if _, err := e.runPrefetch(ctx, header, callArgs, ledger, optimistic); err != nil {
		return 0, err
	}
	return e.estimateGas(ledger, header, callArgs)
}

// estimateGas binary searches the smallest passing gas limit over the
// populated ledger.
func (e *Engine) estimateGas(ledger *state.WitnessLedger, header *types.Header, args *types.TransactionArgs) (uint64, error) {
	executable := func(gas uint64) (bool, CallResult) {
		sp := ledger.Snapshot()
		result := e.execute(ledger, header, args, gas)
		ledger.RevertToSnapshot(sp)
		return result.Err == nil, result
	}

	intrinsic, err := core.IntrinsicGas(args.CallData(), args.AccessListOrNil())
	if err != nil {
		return 0, err
	}

	hi := args.GasOrDefault(CallGasCap)
	if hi < intrinsic {
		return 0, &EVMError{Code: vm.ErrOutOfGas}
	}
	lo := intrinsic - 1

	// The call must pass at the upper bound at all.
	ok, result := executable(hi)
	if !ok {
		return 0, &EVMError{Code: result.Err}
	}
	// A plain transfer needs no search.
	if result.GasUsed == intrinsic {
		return intrinsic, nil
	}

	for lo+1 < hi {
		mid := (lo + hi) / 2
		if ok, _ := executable(mid); ok {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}
