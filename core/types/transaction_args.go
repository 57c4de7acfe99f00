package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// TransactionArgs are the parameters of an unsigned EVM call as submitted
// over JSON-RPC. All fields except To are optional; the engine applies its
// own defaults during validation.
type TransactionArgs struct {
	From     *Address        `json:"from"`
	To       *Address        `json:"to"`
	Gas      *hexutil.Uint64 `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`

	// Input and Data are aliases; Input wins when both are set.
	Input *hexutil.Bytes `json:"input"`
	Data  *hexutil.Bytes `json:"data"`

	AccessList *AccessList `json:"accessList,omitempty"`

	// EIP-4844 sidecar. Carried for validation only; blob data never
	// reaches the EVM.
	BlobVersionedHashes []Hash          `json:"blobVersionedHashes,omitempty"`
	Blobs               []hexutil.Bytes `json:"blobs,omitempty"`
	Commitments         []hexutil.Bytes `json:"commitments,omitempty"`
	Proofs              []hexutil.Bytes `json:"proofs,omitempty"`
}

// Sender returns the from address, defaulting to the zero address.
func (args *TransactionArgs) Sender() Address {
	if args.From != nil {
		return *args.From
	}
	return Address{}
}

// CallData returns the call input, preferring Input over the legacy Data.
func (args *TransactionArgs) CallData() []byte {
	if args.Input != nil {
		return *args.Input
	}
	if args.Data != nil {
		return *args.Data
	}
	return nil
}

// CallValue returns the transferred value as a 256-bit integer, zero when
// absent or out of range.
func (args *TransactionArgs) CallValue() *uint256.Int {
	if args.Value == nil {
		return new(uint256.Int)
	}
	v, overflow := uint256.FromBig((*big.Int)(args.Value))
	if overflow {
		return new(uint256.Int)
	}
	return v
}

// GasOrDefault returns the caller-supplied gas limit, or fallback when absent.
func (args *TransactionArgs) GasOrDefault(fallback uint64) uint64 {
	if args.Gas != nil {
		return uint64(*args.Gas)
	}
	return fallback
}

// AccessListOrNil returns the attached access list, nil when absent.
func (args *TransactionArgs) AccessListOrNil() AccessList {
	if args.AccessList == nil {
		return nil
	}
	return *args.AccessList
}

// Copy returns a deep copy of the args. The engine mutates a copy when it
// injects a generated access list, leaving the caller's value untouched.
func (args *TransactionArgs) Copy() *TransactionArgs {
	cp := *args
	if args.From != nil {
		from := *args.From
		cp.From = &from
	}
	if args.To != nil {
		to := *args.To
		cp.To = &to
	}
	if args.Gas != nil {
		gas := *args.Gas
		cp.Gas = &gas
	}
	if args.GasPrice != nil {
		cp.GasPrice = (*hexutil.Big)(new(big.Int).Set((*big.Int)(args.GasPrice)))
	}
	if args.Value != nil {
		cp.Value = (*hexutil.Big)(new(big.Int).Set((*big.Int)(args.Value)))
	}
	if args.Input != nil {
		input := append(hexutil.Bytes(nil), *args.Input...)
		cp.Input = &input
	}
	if args.Data != nil {
		data := append(hexutil.Bytes(nil), *args.Data...)
		cp.Data = &data
	}
	if args.AccessList != nil {
		al := args.AccessList.Copy()
		cp.AccessList = &al
	}
	cp.BlobVersionedHashes = append([]Hash(nil), args.BlobVersionedHashes...)
	cp.Blobs = copyByteSlices(args.Blobs)
	cp.Commitments = copyByteSlices(args.Commitments)
	cp.Proofs = copyByteSlices(args.Proofs)
	return &cp
}

func copyByteSlices(in []hexutil.Bytes) []hexutil.Bytes {
	if in == nil {
		return nil
	}
	out := make([]hexutil.Bytes, len(in))
	for i, b := range in {
		out[i] = append(hexutil.Bytes(nil), b...)
	}
	return out
}
