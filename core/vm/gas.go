package vm

import "github.com/lantern-eth/lantern/core/types"

// Constant gas costs (post-Cancun schedule).
const (
	GasStop     uint64 = 0
	GasBase     uint64 = 2
	GasVerylow  uint64 = 3
	GasLow      uint64 = 5
	GasMid      uint64 = 8
	GasHigh     uint64 = 10
	GasExt      uint64 = 20
	GasJumpDest uint64 = 1

	GasKeccak256     uint64 = 30
	GasKeccak256Word uint64 = 6
	GasCopy          uint64 = 3
	GasMemory        uint64 = 3
	GasExpByte       uint64 = 50

	GasPush0 uint64 = 2

	GasLog      uint64 = 375
	GasLogTopic uint64 = 375
	GasLogData  uint64 = 8

	GasTload    uint64 = 100
	GasTstore   uint64 = 100
	GasBlobHash uint64 = 3

	// EIP-2929 warm/cold access costs.
	WarmStorageReadCost   uint64 = 100
	ColdSloadCost         uint64 = 2100
	ColdAccountAccessCost uint64 = 2600

	// SSTORE (EIP-2200 with EIP-2929/3529 adjustments).
	GasSstoreSet       uint64 = 20000
	GasSstoreReset     uint64 = 2900 // 5000 - ColdSloadCost
	SstoreClearsRefund uint64 = 4800

	// CALL-family surcharges.
	GasCallValueTransfer uint64 = 9000
	GasCallNewAccount    uint64 = 25000
	GasCallStipend       uint64 = 2300

	// CREATE.
	GasCreate       uint64 = 32000
	GasCreateData   uint64 = 200
	GasInitCodeWord uint64 = 2

	GasSelfdestruct uint64 = 5000

	// EIP-170 / EIP-3860 size limits.
	MaxCodeSize     = 24576
	MaxInitCodeSize = 2 * MaxCodeSize

	// EIP-150: fraction of remaining gas withheld from subcalls (63/64 rule).
	CallGasFraction uint64 = 64
)

func toWordSize(size uint64) uint64 {
	if size > (^uint64(0))-31 {
		return (^uint64(0))/32 + 1
	}
	return (size + 31) / 32
}

func safeAdd(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum < a
}

func safeMul(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	prod := a * b
	return prod, prod/a != b
}

// MemoryCost returns the gas needed to grow memory from oldSize to newSize
// bytes. The quadratic term makes very large expansions prohibitively
// expensive. The bool result is false when the cost overflows.
func MemoryCost(oldSize, newSize uint64) (uint64, bool) {
	if newSize <= oldSize {
		return 0, true
	}
	newWords := toWordSize(newSize)
	if newWords > 0x1FFFFFFFE0 {
		return 0, false
	}
	newCost := newWords*GasMemory + newWords*newWords/512
	oldWords := toWordSize(oldSize)
	oldCost := oldWords*GasMemory + oldWords*oldWords/512
	return newCost - oldCost, true
}

// --- Dynamic gas functions ---

// gasExp charges 50 per byte of the exponent (EIP-160).
func gasExp(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	expBytes := uint64((stack.Back(1).BitLen() + 7) / 8)
	gas, overflow := safeMul(expBytes, GasExpByte)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// gasCopy charges 3 per copied word for CALLDATACOPY, CODECOPY and
// RETURNDATACOPY (length is the third stack item).
func gasCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	length, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	gas, over := safeMul(toWordSize(length), GasCopy)
	if over {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// gasKeccak256 charges 6 per hashed word.
func gasKeccak256(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	length, overflow := stack.Back(1).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	gas, over := safeMul(toWordSize(length), GasKeccak256Word)
	if over {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// gasMcopy charges 3 per copied word (EIP-5656).
func gasMcopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	length, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	gas, over := safeMul(toWordSize(length), GasCopy)
	if over {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func makeGasLog(topics uint64) dynamicGasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		size, overflow := stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas := topics * GasLogTopic
		dataGas, over := safeMul(size, GasLogData)
		if over {
			return 0, ErrGasUintOverflow
		}
		gas, over = safeAdd(gas, dataGas)
		if over {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

// gasAccountAccess warms addr if cold and returns the extra cold cost; the
// constant gas already covers the warm case.
func gasAccountAccess(evm *EVM, addr types.Address) uint64 {
	if evm.StateDB.AddressInAccessList(addr) {
		return 0
	}
	evm.StateDB.AddAddressToAccessList(addr)
	return ColdAccountAccessCost - WarmStorageReadCost
}

func gasBalance(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasAccountAccess(evm, addressFromWord(stack.Back(0))), nil
}

func gasExtCodeSize(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasAccountAccess(evm, addressFromWord(stack.Back(0))), nil
}

func gasExtCodeHash(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasAccountAccess(evm, addressFromWord(stack.Back(0))), nil
}

func gasExtCodeCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	addr := addressFromWord(stack.Back(0))
	length, overflow := stack.Back(3).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	copyGas, over := safeMul(toWordSize(length), GasCopy)
	if over {
		return 0, ErrGasUintOverflow
	}
	return copyGas + gasAccountAccess(evm, addr), nil
}

func gasSload(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	slot := hashFromWord(stack.Back(0))
	if _, slotWarm := evm.StateDB.SlotInAccessList(contract.Address, slot); slotWarm {
		return 0, nil
	}
	evm.StateDB.AddSlotToAccessList(contract.Address, slot)
	return ColdSloadCost - WarmStorageReadCost, nil
}

// gasSstore implements EIP-2200 net metering with the Berlin cold surcharge
// and the London (EIP-3529) refund values.
func gasSstore(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	// EIP-2200: refuse to run with less gas than the stipend.
	if contract.Gas <= GasCallStipend {
		return 0, ErrOutOfGas
	}
	var (
		slot  = hashFromWord(stack.Back(0))
		value = hashFromWord(stack.Back(1))
		cost  = uint64(0)
	)
	if _, slotWarm := evm.StateDB.SlotInAccessList(contract.Address, slot); !slotWarm {
		evm.StateDB.AddSlotToAccessList(contract.Address, slot)
		cost = ColdSloadCost
	}
	current := evm.StateDB.GetState(contract.Address, slot)
	if current == value {
		return cost + WarmStorageReadCost, nil
	}
	original := evm.StateDB.GetCommittedState(contract.Address, slot)
	if original == current {
		if original.IsZero() {
			return cost + GasSstoreSet, nil
		}
		if value.IsZero() {
			evm.StateDB.AddRefund(SstoreClearsRefund)
		}
		return cost + GasSstoreReset, nil
	}
	// Dirty slot: net metering refund adjustments.
	if !original.IsZero() {
		if current.IsZero() {
			evm.StateDB.SubRefund(SstoreClearsRefund)
		} else if value.IsZero() {
			evm.StateDB.AddRefund(SstoreClearsRefund)
		}
	}
	if original == value {
		if original.IsZero() {
			evm.StateDB.AddRefund(GasSstoreSet - WarmStorageReadCost)
		} else {
			evm.StateDB.AddRefund(GasSstoreReset - WarmStorageReadCost)
		}
	}
	return cost + WarmStorageReadCost, nil
}

// gasCallVariant is the shared dynamic gas for the CALL family: cold account
// surcharge plus, for value-bearing calls, the transfer and new-account
// costs. The gas forwarded to the callee is carved out by the opcode handler
// afterwards.
func gasCallVariant(evm *EVM, stack *Stack, withValue, newAccountCheck bool) (uint64, error) {
	addr := addressFromWord(stack.Back(1))
	gas := gasAccountAccess(evm, addr)
	if withValue && !stack.Back(2).IsZero() {
		gas += GasCallValueTransfer
		if newAccountCheck && !evm.StateDB.Exist(addr) {
			gas += GasCallNewAccount
		}
	}
	return gas, nil
}

func gasCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasCallVariant(evm, stack, true, true)
}

func gasCallCode(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasCallVariant(evm, stack, true, false)
}

func gasDelegateCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasCallVariant(evm, stack, false, false)
}

func gasStaticCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasCallVariant(evm, stack, false, false)
}

func gasCreate(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	length, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	// EIP-3860 initcode word cost.
	gas, over := safeMul(toWordSize(length), GasInitCodeWord)
	if over {
		return 0, ErrGasUintOverflow
	}
	gas, over = safeAdd(gas, GasCreate)
	if over {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCreate2(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	length, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	// EIP-3860 initcode cost plus hashing of the init code for the address.
	gas, over := safeMul(toWordSize(length), GasInitCodeWord+GasKeccak256Word)
	if over {
		return 0, ErrGasUintOverflow
	}
	gas, over = safeAdd(gas, GasCreate)
	if over {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasSelfdestruct(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	beneficiary := addressFromWord(stack.Back(0))
	var gas uint64
	if !evm.StateDB.AddressInAccessList(beneficiary) {
		evm.StateDB.AddAddressToAccessList(beneficiary)
		gas = ColdAccountAccessCost
	}
	if !evm.StateDB.Exist(beneficiary) && !evm.StateDB.GetBalance(contract.Address).IsZero() {
		gas += GasCallNewAccount
	}
	return gas, nil
}
