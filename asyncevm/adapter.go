package asyncevm

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/lantern-eth/lantern/core"
	"github.com/lantern-eth/lantern/core/state"
	"github.com/lantern-eth/lantern/core/types"
	"github.com/lantern-eth/lantern/core/vm"
)

// CallResult is the outcome of one EVM execution: the raw output, the total
// gas charged, and the EVM-level error if any. An application revert is a
// legal result carried in Err, not a failure of the engine call.
type CallResult struct {
	Output  []byte
	GasUsed uint64
	Err     error
}

// Reverted reports whether the execution ended in an explicit REVERT.
func (r CallResult) Reverted() bool {
	return errors.Is(r.Err, vm.ErrExecutionReverted)
}

// ErrorMessage renders the execution error for the RPC surface, decoding a
// solidity Error(string) revert reason when present.
func (r CallResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	if r.Reverted() {
		if reason, ok := unpackRevertReason(r.Output); ok {
			return "execution reverted: " + reason
		}
		return "execution reverted"
	}
	return r.Err.Error()
}

// execute runs the call synchronously against the ledger under the given gas
// limit. It never suspends: missing state reads as zero from the ledger, so
// execution always runs to completion or revert. The caller brackets the
// invocation with a savepoint when the state writes must be discarded.
func (e *Engine) execute(ledger *state.WitnessLedger, header *types.Header, args *types.TransactionArgs, gasLimit uint64) CallResult {
	intrinsic, err := core.IntrinsicGas(args.CallData(), args.AccessListOrNil())
	if err != nil {
		return CallResult{Err: err}
	}
	if gasLimit < intrinsic {
		return CallResult{Err: vm.ErrOutOfGas}
	}
	execGas := gasLimit - intrinsic

	from := args.Sender()
	rules := e.forkRules(header)
	evm := vm.NewEVM(e.blockContext(header), txContext(args), ledger, rules, vm.Config{})
	evm.PreWarm(from, args.To, args.AccessListOrNil())

	// Call-style execution: the message is unsigned and carries no fee
	// payment, so the sender is topped up instead of rejected when the
	// ledger holds less than the transferred value. The credit is journalled
	// and vanishes with the enclosing savepoint.
	value := args.CallValue()
	if !value.IsZero() {
		if balance := ledger.GetBalance(from); balance.Lt(value) {
			ledger.AddBalance(from, new(uint256.Int).Sub(value, balance))
		}
	}

	output, gasLeft, vmErr := evm.Call(from, *args.To, args.CallData(), execGas, value)

	used := execGas - gasLeft
	refund := ledger.GetRefund()
	if maxRefund := used / 5; refund > maxRefund {
		refund = maxRefund
	}

	return CallResult{
		Output:  output,
		GasUsed: intrinsic + used - refund,
		Err:     vmErr,
	}
}

// blockContext derives the EVM environment from the header. ParentHash is
// the rlp-hash of the supplied header itself, preserving the behaviour of
// the original engine; BLOCKHASH is unsupported and GetHash stays nil until
// a history contract supplies real hashes.
func (e *Engine) blockContext(header *types.Header) vm.BlockContext {
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	var excess uint64
	if header.ExcessBlobGas != nil {
		excess = *header.ExcessBlobGas
	}
	return vm.BlockContext{
		GetHash:     nil,
		ParentHash:  header.Hash(),
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        header.Time,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BaseFee:     baseFee,
		PrevRandao:  header.MixDigest,
		Difficulty:  header.Difficulty,
		BlobBaseFee: calcBlobFee(excess),
	}
}

func txContext(args *types.TransactionArgs) vm.TxContext {
	gasPrice := new(uint256.Int)
	if args.GasPrice != nil {
		gasPrice, _ = uint256.FromBig((*big.Int)(args.GasPrice))
	}
	return vm.TxContext{
		Origin:     args.Sender(),
		GasPrice:   gasPrice,
		BlobHashes: args.BlobVersionedHashes,
	}
}

func (e *Engine) forkRules(header *types.Header) vm.ForkRules {
	isMerge := header.Difficulty == nil || header.Difficulty.Sign() == 0
	rules := e.config.Rules(header.Number, isMerge, header.Time)
	return vm.ForkRules{
		ChainID:    rules.ChainID.Uint64(),
		IsLondon:   rules.IsLondon,
		IsShanghai: rules.IsShanghai,
		IsCancun:   rules.IsCancun,
		IsPrague:   rules.IsPrague,
	}
}

// calcBlobFee computes the blob base fee from excess blob gas (EIP-4844),
// approximating factor * e^(excess/denominator) with the protocol's integer
// exponential.
func calcBlobFee(excessBlobGas uint64) *big.Int {
	if excessBlobGas == 0 {
		return big.NewInt(1)
	}
	return fakeExp(big.NewInt(1), new(big.Int).SetUint64(excessBlobGas), big.NewInt(3338477))
}

// fakeExp approximates factor * e^(numerator/denominator).
func fakeExp(factor, numerator, denominator *big.Int) *big.Int {
	i := big.NewInt(1)
	output := new(big.Int)
	accum := new(big.Int).Mul(factor, denominator)
	for accum.Sign() > 0 {
		output.Add(output, accum)
		accum.Mul(accum, numerator)
		accum.Div(accum, new(big.Int).Mul(denominator, i))
		i.Add(i, big.NewInt(1))
	}
	return output.Div(output, denominator)
}

// unpackRevertReason decodes the solidity Error(string) ABI encoding from
// revert output.
func unpackRevertReason(output []byte) (string, bool) {
	// 4-byte selector 0x08c379a0 + offset word + length word + data.
	if len(output) < 4+32+32 {
		return "", false
	}
	selector := [4]byte{0x08, 0xc3, 0x79, 0xa0}
	if [4]byte(output[:4]) != selector {
		return "", false
	}
	body := output[4:]
	offset := new(big.Int).SetBytes(body[:32])
	if !offset.IsUint64() || offset.Uint64()+32 > uint64(len(body)) {
		return "", false
	}
	lenStart := offset.Uint64()
	strLen := new(big.Int).SetBytes(body[lenStart : lenStart+32])
	if !strLen.IsUint64() {
		return "", false
	}
	start := lenStart + 32
	end := start + strLen.Uint64()
	if end > uint64(len(body)) {
		return "", false
	}
	return string(body[start:end]), true
}
