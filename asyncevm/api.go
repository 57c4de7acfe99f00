package asyncevm

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/lantern-eth/lantern/core/state"
	"github.com/lantern-eth/lantern/core/types"
	"github.com/lantern-eth/lantern/crypto"
)

// AccessListResult is the JSON-RPC shaped return of CreateAccessList: the
// canonical access list, the revert or EVM error message of the final
// execution if any, and the gas used by that execution.
type AccessListResult struct {
	AccessList types.AccessList `json:"accessList"`
	Error      string           `json:"error,omitempty"`
	GasUsed    hexutil.Uint64   `json:"gasUsed"`
}

// validateArgs applies the shared input checks and defaults. It returns a
// copy; the caller's args are never mutated.
func validateArgs(args *types.TransactionArgs) (*types.TransactionArgs, error) {
	if args.To == nil {
		return nil, ErrToRequired
	}
	if args.Gas != nil && uint64(*args.Gas) > CallGasCap {
		return nil, ErrGasTooHigh
	}
	if len(args.Blobs) > 0 || len(args.Commitments) > 0 || len(args.Proofs) > 0 {
		if err := crypto.VerifyBlobSidecar(asByteSlices(args.Blobs), asByteSlices(args.Commitments), asByteSlices(args.Proofs)); err != nil {
			return nil, err
		}
	}
	return args.Copy(), nil
}

func asByteSlices(in []hexutil.Bytes) [][]byte {
	out := make([][]byte, len(in))
	for i, b := range in {
		out[i] = b
	}
	return out
}

// Call executes the unsigned transaction against the header's state,
// prefetching whatever the execution touches, and returns the raw output
// and gas of the converged run. The ledger backing the call is discarded on
// return; nothing persists between calls.
func (e *Engine) Call(ctx context.Context, header *types.Header, args *types.TransactionArgs, optimistic bool) (CallResult, error) {
	callArgs, err := validateArgs(args)
	if err != nil {
		return CallResult{}, err
	}
	ledger := state.NewWitnessLedger()
	return e.runPrefetch(ctx, header, callArgs, ledger, optimistic)
}

// CreateAccessList computes the EIP-2930 access list the transaction would
// touch, then re-executes with the list attached to obtain representative
// gas. Addresses equal to the sender are omitted; the result is sorted by
// big-endian byte order of addresses and storage keys.
func (e *Engine) CreateAccessList(ctx context.Context, header *types.Header, args *types.TransactionArgs, optimistic bool) (*AccessListResult, error) {
	callArgs, err := validateArgs(args)
	if err != nil {
		return nil, err
	}
	ledger := state.NewWitnessLedger()

	// The prefetch result's gas does not reflect the access list discount,
	// so only the populated ledger and final witness are kept.
	if _, err := e.runPrefetch(ctx, header, callArgs, ledger, optimistic); err != nil {
		return nil, err
	}

	accessList := accessListFromWitness(ledger.Witness(), callArgs.Sender())

	listArgs := callArgs.Copy()
	listArgs.AccessList = &accessList

	sp := ledger.Snapshot()
	result := e.execute(ledger, header, listArgs, listArgs.GasOrDefault(CallGasCap))
	ledger.RevertToSnapshot(sp)

	accessList.Sort()

	return &AccessListResult{
		AccessList: accessList,
		Error:      result.ErrorMessage(),
		GasUsed:    hexutil.Uint64(result.GasUsed),
	}, nil
}

// accessListFromWitness groups the witness's storage keys under their
// addresses, excluding the sender, which is always warm.
func accessListFromWitness(witness *state.WitnessTable, from types.Address) types.AccessList {
	var (
		list  types.AccessList
		index = make(map[types.Address]int)
	)
	for _, wk := range witness.Keys() {
		if wk.Addr == from {
			continue
		}
		i, ok := index[wk.Addr]
		if !ok {
			i = len(list)
			index[wk.Addr] = i
			list = append(list, types.AccessTuple{Address: wk.Addr, StorageKeys: []types.Hash{}})
		}
		if wk.HasSlot {
			list[i].StorageKeys = append(list[i].StorageKeys, wk.Slot)
		}
	}
	return list
}
