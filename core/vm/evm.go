// Package vm implements the EVM interpreter the prefetch engine drives. The
// interpreter is a collaborator with narrow interfaces: it sees state only
// through StateDB and its environment only through BlockContext/TxContext,
// so it runs identically over a fully resident ledger and a half-empty one.
package vm

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/lantern-eth/lantern/core/types"
	"github.com/lantern-eth/lantern/crypto"
)

// GetHashFunc returns the hash of the block with the given number. A nil
// hook makes BLOCKHASH push zero; the post-Pectra history contract can
// supply real hashes through it.
type GetHashFunc func(uint64) types.Hash

// BlockContext provides the EVM with block-level information.
type BlockContext struct {
	GetHash     GetHashFunc
	ParentHash  types.Hash
	BlockNumber *big.Int
	Time        uint64
	Coinbase    types.Address
	GasLimit    uint64
	BaseFee     *big.Int
	PrevRandao  types.Hash
	Difficulty  *big.Int
	BlobBaseFee *big.Int
}

// TxContext provides the EVM with transaction-level information.
type TxContext struct {
	Origin     types.Address
	GasPrice   *uint256.Int
	BlobHashes []types.Hash
}

// StateDB gives the EVM access to world state. Defined here to avoid a
// dependency on core/state; the witness ledger satisfies it.
type StateDB interface {
	CreateAccount(addr types.Address)

	GetBalance(addr types.Address) *uint256.Int
	AddBalance(addr types.Address, amount *uint256.Int)
	SubBalance(addr types.Address, amount *uint256.Int)

	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)

	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)
	GetCommittedState(addr types.Address, key types.Hash) types.Hash

	GetTransientState(addr types.Address, key types.Hash) types.Hash
	SetTransientState(addr types.Address, key types.Hash, value types.Hash)

	SelfDestruct(addr types.Address)
	HasSelfDestructed(addr types.Address) bool

	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	Snapshot() int
	RevertToSnapshot(id int)

	AddLog(log *types.Log)

	AddRefund(gas uint64)
	SubRefund(gas uint64)
	GetRefund() uint64

	AddAddressToAccessList(addr types.Address)
	AddSlotToAccessList(addr types.Address, slot types.Hash)
	AddressInAccessList(addr types.Address) bool
	SlotInAccessList(addr types.Address, slot types.Hash) (addressOk bool, slotOk bool)
}

// ForkRules mirrors the chain configuration flags the interpreter needs.
// The caller converts its chain config into this struct, keeping the vm
// package free of a config dependency.
type ForkRules struct {
	ChainID    uint64
	IsLondon   bool
	IsShanghai bool
	IsCancun   bool
	IsPrague   bool
}

// Config holds EVM configuration options.
type Config struct {
	MaxCallDepth int
}

// EVM is the execution environment for one message call tree.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	Config    Config
	StateDB   StateDB

	rules       ForkRules
	jumpTable   JumpTable
	precompiles map[types.Address]PrecompiledContract
	depth       int
	readOnly    bool
	returnData  []byte // return data of the last CALL/CREATE
}

// NewEVM creates an EVM for the given environment and fork rules.
func NewEVM(blockCtx BlockContext, txCtx TxContext, statedb StateDB, rules ForkRules, config Config) *EVM {
	if config.MaxCallDepth == 0 {
		config.MaxCallDepth = 1024
	}
	return &EVM{
		Context:     blockCtx,
		TxContext:   txCtx,
		Config:      config,
		StateDB:     statedb,
		rules:       rules,
		jumpTable:   SelectJumpTable(rules),
		precompiles: activePrecompiles(rules),
	}
}

func (evm *EVM) precompile(addr types.Address) (PrecompiledContract, bool) {
	p, ok := evm.precompiles[addr]
	return p, ok
}

// runPrecompile executes a precompiled contract.
func runPrecompile(p PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	gasCost := p.RequiredGas(input)
	if gas < gasCost {
		return nil, 0, ErrOutOfGas
	}
	output, err := p.Run(input)
	return output, gas - gasCost, err
}

// PreWarm seeds the EIP-2929 access list with the sender, recipient, the
// active precompiles, the transaction access list entries and the coinbase.
func (evm *EVM) PreWarm(sender types.Address, to *types.Address, accessList types.AccessList) {
	evm.StateDB.AddAddressToAccessList(sender)
	if to != nil {
		evm.StateDB.AddAddressToAccessList(*to)
	}
	for addr := range evm.precompiles {
		evm.StateDB.AddAddressToAccessList(addr)
	}
	for _, tuple := range accessList {
		evm.StateDB.AddAddressToAccessList(tuple.Address)
		for _, key := range tuple.StorageKeys {
			evm.StateDB.AddSlotToAccessList(tuple.Address, key)
		}
	}
	evm.StateDB.AddAddressToAccessList(evm.Context.Coinbase)
}

// Run executes the contract bytecode through the interpreter loop.
func (evm *EVM) Run(contract *Contract, input []byte) ([]byte, error) {
	contract.Input = input

	var (
		pc    uint64
		stack = NewStack()
		mem   = NewMemory()
	)

	for {
		op := contract.GetOp(pc)
		operation := evm.jumpTable[op]
		if operation == nil || operation.execute == nil {
			return nil, ErrInvalidOpCode
		}

		// Stack validation.
		sLen := stack.Len()
		if sLen < operation.minStack {
			return nil, ErrStackUnderflow
		}
		if sLen > operation.maxStack {
			return nil, ErrStackOverflow
		}

		// Static context protection.
		if evm.readOnly && operation.writes {
			return nil, ErrWriteProtection
		}

		// Constant gas.
		if operation.constantGas > 0 {
			if !contract.UseGas(operation.constantGas) {
				return nil, ErrOutOfGas
			}
		}

		// Memory expansion.
		var memSize uint64
		if operation.memorySize != nil {
			size, overflow := operation.memorySize(stack)
			if overflow {
				return nil, ErrOutOfGas
			}
			memSize = size
			if memSize > 0 {
				newSize := toWordSize(memSize) * 32
				if uint64(mem.Len()) < newSize {
					cost, ok := MemoryCost(uint64(mem.Len()), newSize)
					if !ok {
						return nil, ErrOutOfGas
					}
					if !contract.UseGas(cost) {
						return nil, ErrOutOfGas
					}
					mem.Resize(newSize)
				}
			}
		}

		// Dynamic gas.
		if operation.dynamicGas != nil {
			cost, err := operation.dynamicGas(evm, contract, stack, mem, memSize)
			if err != nil {
				return nil, err
			}
			if !contract.UseGas(cost) {
				return nil, ErrOutOfGas
			}
		}

		ret, err := operation.execute(&pc, evm, contract, mem, stack)
		if err != nil {
			if errors.Is(err, ErrExecutionReverted) {
				return ret, err
			}
			return nil, err
		}
		if operation.halts {
			return ret, nil
		}
		if operation.jumps {
			continue
		}
		pc++
	}
}

// Call executes a message call to addr with the given input, gas and value.
func (evm *EVM) Call(caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if value == nil {
		value = new(uint256.Int)
	}

	snapshot := evm.StateDB.Snapshot()

	if !evm.StateDB.Exist(addr) {
		evm.StateDB.CreateAccount(addr)
	}

	if !value.IsZero() {
		if evm.readOnly {
			return nil, gas, ErrWriteProtection
		}
		if evm.StateDB.GetBalance(caller).Lt(value) {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, gas, ErrInsufficientBalance
		}
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(addr, value)
	}

	if p, ok := evm.precompile(addr); ok {
		ret, gasLeft, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, gasLeft, err
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		// Nothing to execute; the transfer alone succeeds.
		return nil, gas, nil
	}

	contract := NewContract(caller, addr, value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if !errors.Is(err, ErrExecutionReverted) {
			gasLeft = 0
		}
	}
	return ret, gasLeft, err
}

// CallCode runs the callee's code in the caller's storage context.
func (evm *EVM) CallCode(caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if value == nil {
		value = new(uint256.Int)
	}

	snapshot := evm.StateDB.Snapshot()

	if !value.IsZero() && evm.StateDB.GetBalance(caller).Lt(value) {
		evm.StateDB.RevertToSnapshot(snapshot)
		return nil, gas, ErrInsufficientBalance
	}

	if p, ok := evm.precompile(addr); ok {
		ret, gasLeft, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, gasLeft, err
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, caller, value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if !errors.Is(err, ErrExecutionReverted) {
			gasLeft = 0
		}
	}
	return ret, gasLeft, err
}

// DelegateCall runs the callee's code with the parent frame's caller, value
// and storage context.
func (evm *EVM) DelegateCall(parent *Contract, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}

	snapshot := evm.StateDB.Snapshot()

	if p, ok := evm.precompile(addr); ok {
		ret, gasLeft, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, gasLeft, err
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(parent.CallerAddress, parent.Address, parent.Value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if !errors.Is(err, ErrExecutionReverted) {
			gasLeft = 0
		}
	}
	return ret, gasLeft, err
}

// StaticCall executes a read-only call; any state modification aborts it.
func (evm *EVM) StaticCall(caller, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}

	snapshot := evm.StateDB.Snapshot()

	if p, ok := evm.precompile(addr); ok {
		ret, gasLeft, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, gasLeft, err
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, addr, new(uint256.Int), gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	prevReadOnly := evm.readOnly
	evm.readOnly = true

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	evm.readOnly = prevReadOnly

	gasLeft := contract.Gas
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if !errors.Is(err, ErrExecutionReverted) {
			gasLeft = 0
		}
	}
	return ret, gasLeft, err
}

// Create deploys a contract at the CREATE address derived from the caller
// and its nonce.
func (evm *EVM) Create(caller types.Address, code []byte, gas uint64, value *uint256.Int) ([]byte, types.Address, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, types.Address{}, gas, ErrMaxCallDepthExceeded
	}
	nonce := evm.StateDB.GetNonce(caller)
	evm.StateDB.SetNonce(caller, nonce+1)
	return evm.create(caller, code, gas, value, createAddress(caller, nonce))
}

// Create2 deploys a contract at the CREATE2 address derived from the caller,
// salt and init code hash.
func (evm *EVM) Create2(caller types.Address, code []byte, gas uint64, value, salt *uint256.Int) ([]byte, types.Address, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, types.Address{}, gas, ErrMaxCallDepthExceeded
	}
	return evm.create(caller, code, gas, value, create2Address(caller, salt, crypto.Keccak256(code)))
}

func (evm *EVM) create(caller types.Address, code []byte, gas uint64, value *uint256.Int, contractAddr types.Address) ([]byte, types.Address, uint64, error) {
	if len(code) > MaxInitCodeSize {
		return nil, types.Address{}, gas, ErrMaxInitCodeSize
	}
	if value == nil {
		value = new(uint256.Int)
	}

	snapshot := evm.StateDB.Snapshot()

	evm.StateDB.AddAddressToAccessList(contractAddr)
	evm.StateDB.CreateAccount(contractAddr)
	evm.StateDB.SetNonce(contractAddr, 1)

	if !value.IsZero() {
		if evm.StateDB.GetBalance(caller).Lt(value) {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, types.Address{}, gas, ErrInsufficientBalance
		}
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(contractAddr, value)
	}

	contract := NewContract(caller, contractAddr, value, gas)
	contract.Code = code

	evm.depth++
	ret, err := evm.Run(contract, nil)
	evm.depth--

	gas = contract.Gas

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if !errors.Is(err, ErrExecutionReverted) {
			gas = 0
		}
		return ret, types.Address{}, gas, err
	}

	if len(ret) > 0 {
		if len(ret) > MaxCodeSize {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, types.Address{}, 0, ErrMaxCodeSizeExceeded
		}
		depositCost := uint64(len(ret)) * GasCreateData
		if gas < depositCost {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, types.Address{}, 0, ErrOutOfGas
		}
		gas -= depositCost
		evm.StateDB.SetCode(contractAddr, ret)
	}

	return ret, contractAddr, gas, nil
}

// createAddress computes the CREATE address: keccak256(rlp([sender, nonce]))[12:].
func createAddress(caller types.Address, nonce uint64) types.Address {
	addrEnc := encodeRLPBytes(caller[:])
	nonceEnc := encodeRLPUint(nonce)
	payload := append(addrEnc, nonceEnc...)
	hash := crypto.Keccak256(wrapRLPList(payload))
	return types.BytesToAddress(hash[12:])
}

// create2Address computes the CREATE2 address:
// keccak256(0xff ++ caller ++ salt ++ keccak256(initCode))[12:].
func create2Address(caller types.Address, salt *uint256.Int, initCodeHash []byte) types.Address {
	saltBytes := salt.Bytes32()
	data := make([]byte, 0, 85)
	data = append(data, 0xff)
	data = append(data, caller[:]...)
	data = append(data, saltBytes[:]...)
	data = append(data, initCodeHash...)
	hash := crypto.Keccak256(data)
	return types.BytesToAddress(hash[12:])
}

// encodeRLPBytes encodes a byte slice as an RLP string.
func encodeRLPBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	if len(b) < 56 {
		return append([]byte{byte(0x80 + len(b))}, b...)
	}
	lenBytes := uintToMinBytes(uint64(len(b)))
	header := append([]byte{byte(0xb7 + len(lenBytes))}, lenBytes...)
	return append(header, b...)
}

// encodeRLPUint encodes a uint64 as an RLP integer.
func encodeRLPUint(v uint64) []byte {
	if v == 0 {
		return []byte{0x80}
	}
	if v < 128 {
		return []byte{byte(v)}
	}
	b := uintToMinBytes(v)
	return append([]byte{byte(0x80 + len(b))}, b...)
}

// wrapRLPList wraps payload bytes in an RLP list header.
func wrapRLPList(payload []byte) []byte {
	if len(payload) < 56 {
		return append([]byte{byte(0xc0 + len(payload))}, payload...)
	}
	lenBytes := uintToMinBytes(uint64(len(payload)))
	header := append([]byte{byte(0xf7 + len(lenBytes))}, lenBytes...)
	return append(header, payload...)
}

// uintToMinBytes encodes a uint64 as big-endian bytes with no leading zeros.
func uintToMinBytes(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [8]byte
	n := 0
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
		if buf[i] != 0 {
			n = 8 - i
		}
	}
	return buf[8-n:]
}
