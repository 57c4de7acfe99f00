package vm

import (
	"github.com/holiman/uint256"

	"github.com/lantern-eth/lantern/core/types"
	"github.com/lantern-eth/lantern/crypto"
)

func addressFromWord(w *uint256.Int) types.Address {
	b := w.Bytes32()
	return types.BytesToAddress(b[20:])
}

func hashFromWord(w *uint256.Int) types.Hash {
	return types.Hash(w.Bytes32())
}

// --- Arithmetic ---

func opStop(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, nil
}

func opAdd(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.Add(&x, y)
	return nil, nil
}

func opMul(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.Mul(&x, y)
	return nil, nil
}

func opSub(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.Sub(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.SMod(&x, y)
	return nil, nil
}

func opAddmod(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Pop()
	z := stack.Peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Pop()
	z := stack.Peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opExp(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	base := stack.Pop()
	exponent := stack.Peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	back := stack.Pop()
	num := stack.Peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

// --- Comparison and bitwise ---

func opLt(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIsZero(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Pop()
	y := stack.Peek()
	y.Xor(&x, y)
	return nil, nil
}

func opNot(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Peek()
	x.Not(x)
	return nil, nil
}

func opByte(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	th := stack.Pop()
	val := stack.Peek()
	val.Byte(&th)
	return nil, nil
}

func opSHL(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	shift := stack.Pop()
	value := stack.Peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSHR(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	shift := stack.Pop()
	value := stack.Peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSAR(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	shift := stack.Pop()
	value := stack.Peek()
	if shift.GtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil, nil
	}
	value.SRsh(value, uint(shift.Uint64()))
	return nil, nil
}

// --- Hashing ---

func opKeccak256(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	offset := stack.Pop()
	size := stack.Peek()
	data := mem.GetPtr(offset.Uint64(), size.Uint64())
	hash := crypto.Keccak256(data)
	size.SetBytes(hash)
	return nil, nil
}

// --- Environment ---

func opAddress(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetBytes(contract.Address.Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	slot := stack.Peek()
	addr := addressFromWord(slot)
	slot.Set(evm.StateDB.GetBalance(addr))
	return nil, nil
}

func opOrigin(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetBytes(evm.TxContext.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetBytes(contract.CallerAddress.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).Set(contract.Value))
	return nil, nil
}

func opCalldataLoad(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	x := stack.Peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		x.SetBytes(getData(contract.Input, offset, 32))
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCalldataSize(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(uint64(len(contract.Input))))
	return nil, nil
}

func opCalldataCopy(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	memOffset := stack.Pop()
	dataOffset := stack.Pop()
	length := stack.Pop()
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = ^uint64(0)
	}
	mem.Set(memOffset.Uint64(), length.Uint64(), getData(contract.Input, dataOffset64, length.Uint64()))
	return nil, nil
}

func opCodeSize(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(uint64(len(contract.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	memOffset := stack.Pop()
	codeOffset := stack.Pop()
	length := stack.Pop()
	codeOffset64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOffset64 = ^uint64(0)
	}
	mem.Set(memOffset.Uint64(), length.Uint64(), getData(contract.Code, codeOffset64, length.Uint64()))
	return nil, nil
}

func opGasPrice(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).Set(evm.TxContext.GasPrice))
	return nil, nil
}

func opExtcodesize(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	slot := stack.Peek()
	addr := addressFromWord(slot)
	slot.SetUint64(uint64(evm.StateDB.GetCodeSize(addr)))
	return nil, nil
}

func opExtcodecopy(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	a := stack.Pop()
	memOffset := stack.Pop()
	codeOffset := stack.Pop()
	length := stack.Pop()
	addr := addressFromWord(&a)
	codeOffset64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOffset64 = ^uint64(0)
	}
	code := evm.StateDB.GetCode(addr)
	mem.Set(memOffset.Uint64(), length.Uint64(), getData(code, codeOffset64, length.Uint64()))
	return nil, nil
}

func opReturndataSize(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(uint64(len(evm.returnData))))
	return nil, nil
}

func opReturndataCopy(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	memOffset := stack.Pop()
	dataOffset := stack.Pop()
	length := stack.Pop()
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	end, over := safeAdd(offset64, length.Uint64())
	if over || end > uint64(len(evm.returnData)) {
		return nil, ErrReturnDataOutOfBounds
	}
	mem.Set(memOffset.Uint64(), length.Uint64(), evm.returnData[offset64:end])
	return nil, nil
}

// opExtcodehash pushes the code hash of the named account, or zero for
// non-existent or empty accounts (EIP-1052).
func opExtcodehash(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	slot := stack.Peek()
	addr := addressFromWord(slot)
	if evm.StateDB.Empty(addr) {
		slot.Clear()
	} else {
		slot.SetBytes(evm.StateDB.GetCodeHash(addr).Bytes())
	}
	return nil, nil
}

// --- Block context ---

// opBlockhash pushes the hash of the requested block. The engine serves
// state without a view of chain history, so without a GetHash hook this is
// the zero hash.
func opBlockhash(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	num := stack.Peek()
	if evm.Context.GetHash == nil {
		num.Clear()
		return nil, nil
	}
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil, nil
	}
	var upper, lower uint64
	upper = evm.Context.BlockNumber.Uint64()
	if upper > 256 {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper {
		num.SetBytes(evm.Context.GetHash(num64).Bytes())
	} else {
		num.Clear()
	}
	return nil, nil
}

func opCoinbase(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetBytes(evm.Context.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(evm.Context.Time))
	return nil, nil
}

func opNumber(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	v, _ := uint256.FromBig(evm.Context.BlockNumber)
	stack.Push(v)
	return nil, nil
}

// opPrevRandao pushes the post-merge randomness beacon value. Pre-merge
// headers carry difficulty in the same slot.
func opPrevRandao(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetBytes(evm.Context.PrevRandao.Bytes()))
	return nil, nil
}

func opGasLimit(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(evm.Context.GasLimit))
	return nil, nil
}

func opChainID(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(evm.rules.ChainID))
	return nil, nil
}

func opSelfBalance(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(evm.StateDB.GetBalance(contract.Address))
	return nil, nil
}

func opBaseFee(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	v, _ := uint256.FromBig(evm.Context.BaseFee)
	stack.Push(v)
	return nil, nil
}

func opBlobHash(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	index := stack.Peek()
	if idx, overflow := index.Uint64WithOverflow(); !overflow && idx < uint64(len(evm.TxContext.BlobHashes)) {
		index.SetBytes(evm.TxContext.BlobHashes[idx].Bytes())
	} else {
		index.Clear()
	}
	return nil, nil
}

func opBlobBaseFee(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	v, _ := uint256.FromBig(evm.Context.BlobBaseFee)
	stack.Push(v)
	return nil, nil
}

// --- Stack, memory and flow ---

func opPop(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Pop()
	return nil, nil
}

func opMload(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	v := stack.Peek()
	offset := v.Uint64()
	v.SetBytes(mem.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	offset := stack.Pop()
	val := stack.Pop()
	mem.Set32(offset.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	offset := stack.Pop()
	val := stack.Pop()
	mem.Set(offset.Uint64(), 1, []byte{byte(val.Uint64())})
	return nil, nil
}

func opSload(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	loc := stack.Peek()
	val := evm.StateDB.GetState(contract.Address, hashFromWord(loc))
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	loc := stack.Pop()
	val := stack.Pop()
	evm.StateDB.SetState(contract.Address, hashFromWord(&loc), hashFromWord(&val))
	return nil, nil
}

func opJump(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	pos := stack.Pop()
	if !contract.validJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	pos := stack.Pop()
	cond := stack.Pop()
	if !cond.IsZero() {
		if !contract.validJumpdest(&pos) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64()
	} else {
		*pc++
	}
	return nil, nil
}

func opPc(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(uint64(mem.Len())))
	return nil, nil
}

func opGas(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(contract.Gas))
	return nil, nil
}

func opJumpdest(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, nil
}

// --- Transient storage (EIP-1153) ---

func opTload(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	loc := stack.Peek()
	val := evm.StateDB.GetTransientState(contract.Address, hashFromWord(loc))
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opTstore(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	loc := stack.Pop()
	val := stack.Pop()
	evm.StateDB.SetTransientState(contract.Address, hashFromWord(&loc), hashFromWord(&val))
	return nil, nil
}

func opMcopy(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	dst := stack.Pop()
	src := stack.Pop()
	length := stack.Pop()
	mem.Copy(dst.Uint64(), src.Uint64(), length.Uint64())
	return nil, nil
}

// --- Push, dup, swap ---

func opPush0(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int))
	return nil, nil
}

func makePush(size uint64) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
		start := *pc + 1
		end := start + size
		if end > uint64(len(contract.Code)) {
			end = uint64(len(contract.Code))
		}
		var val uint256.Int
		if start < uint64(len(contract.Code)) {
			val.SetBytes(rightPad(contract.Code[start:end], int(size)))
		}
		stack.Push(&val)
		*pc += size
		return nil, nil
	}
}

func makeDup(n int) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
		stack.Dup(n)
		return nil, nil
	}
}

func makeSwap(n int) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
		stack.Swap(n)
		return nil, nil
	}
}

// --- Logging ---

func makeLog(topics int) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
		if evm.readOnly {
			return nil, ErrWriteProtection
		}
		offset := stack.Pop()
		size := stack.Pop()
		log := &types.Log{Address: contract.Address}
		for i := 0; i < topics; i++ {
			t := stack.Pop()
			log.Topics = append(log.Topics, hashFromWord(&t))
		}
		log.Data = mem.Get(offset.Uint64(), size.Uint64())
		evm.StateDB.AddLog(log)
		return nil, nil
	}
}

// --- Calls and closures ---

// callGas applies the EIP-150 63/64 rule: a call forwards at most all-but-
// one-64th of the remaining gas, regardless of what it requested.
func callGas(available uint64, requested *uint256.Int) uint64 {
	limit := available - available/CallGasFraction
	if requested.IsUint64() && requested.Uint64() < limit {
		return requested.Uint64()
	}
	return limit
}

func opCall(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	gas := stack.Pop()
	addr := stack.Pop()
	value := stack.Pop()
	argsOffset := stack.Pop()
	argsLength := stack.Pop()
	retOffset := stack.Pop()
	retLength := stack.Pop()

	if !value.IsZero() && evm.readOnly {
		return nil, ErrWriteProtection
	}

	toAddr := addressFromWord(&addr)
	args := mem.Get(argsOffset.Uint64(), argsLength.Uint64())

	gasLimit := callGas(contract.Gas, &gas)
	if !contract.UseGas(gasLimit) {
		return nil, ErrOutOfGas
	}
	if !value.IsZero() {
		gasLimit += GasCallStipend
	}

	ret, returnGas, err := evm.Call(contract.Address, toAddr, args, gasLimit, &value)
	contract.RefundGas(returnGas)
	evm.returnData = ret

	if err == nil || err == ErrExecutionReverted {
		mem.Set(retOffset.Uint64(), min64(retLength.Uint64(), uint64(len(ret))), ret)
	}
	pushCallResult(stack, err)
	return nil, nil
}

func opCallCode(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	gas := stack.Pop()
	addr := stack.Pop()
	value := stack.Pop()
	argsOffset := stack.Pop()
	argsLength := stack.Pop()
	retOffset := stack.Pop()
	retLength := stack.Pop()

	toAddr := addressFromWord(&addr)
	args := mem.Get(argsOffset.Uint64(), argsLength.Uint64())

	gasLimit := callGas(contract.Gas, &gas)
	if !contract.UseGas(gasLimit) {
		return nil, ErrOutOfGas
	}
	if !value.IsZero() {
		gasLimit += GasCallStipend
	}

	ret, returnGas, err := evm.CallCode(contract.Address, toAddr, args, gasLimit, &value)
	contract.RefundGas(returnGas)
	evm.returnData = ret

	if err == nil || err == ErrExecutionReverted {
		mem.Set(retOffset.Uint64(), min64(retLength.Uint64(), uint64(len(ret))), ret)
	}
	pushCallResult(stack, err)
	return nil, nil
}

func opDelegateCall(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	gas := stack.Pop()
	addr := stack.Pop()
	argsOffset := stack.Pop()
	argsLength := stack.Pop()
	retOffset := stack.Pop()
	retLength := stack.Pop()

	toAddr := addressFromWord(&addr)
	args := mem.Get(argsOffset.Uint64(), argsLength.Uint64())

	gasLimit := callGas(contract.Gas, &gas)
	if !contract.UseGas(gasLimit) {
		return nil, ErrOutOfGas
	}

	ret, returnGas, err := evm.DelegateCall(contract, toAddr, args, gasLimit)
	contract.RefundGas(returnGas)
	evm.returnData = ret

	if err == nil || err == ErrExecutionReverted {
		mem.Set(retOffset.Uint64(), min64(retLength.Uint64(), uint64(len(ret))), ret)
	}
	pushCallResult(stack, err)
	return nil, nil
}

func opStaticCall(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	gas := stack.Pop()
	addr := stack.Pop()
	argsOffset := stack.Pop()
	argsLength := stack.Pop()
	retOffset := stack.Pop()
	retLength := stack.Pop()

	toAddr := addressFromWord(&addr)
	args := mem.Get(argsOffset.Uint64(), argsLength.Uint64())

	gasLimit := callGas(contract.Gas, &gas)
	if !contract.UseGas(gasLimit) {
		return nil, ErrOutOfGas
	}

	ret, returnGas, err := evm.StaticCall(contract.Address, toAddr, args, gasLimit)
	contract.RefundGas(returnGas)
	evm.returnData = ret

	if err == nil || err == ErrExecutionReverted {
		mem.Set(retOffset.Uint64(), min64(retLength.Uint64(), uint64(len(ret))), ret)
	}
	pushCallResult(stack, err)
	return nil, nil
}

func opCreate(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	if evm.readOnly {
		return nil, ErrWriteProtection
	}
	value := stack.Pop()
	offset := stack.Pop()
	size := stack.Pop()

	code := mem.Get(offset.Uint64(), size.Uint64())

	// EIP-150: withhold one 64th from the subcall.
	gasLimit := contract.Gas - contract.Gas/CallGasFraction
	if !contract.UseGas(gasLimit) {
		return nil, ErrOutOfGas
	}

	ret, addr, returnGas, err := evm.Create(contract.Address, code, gasLimit, &value)
	contract.RefundGas(returnGas)
	if err == ErrExecutionReverted {
		evm.returnData = ret
	} else {
		evm.returnData = nil
	}

	if err != nil {
		stack.Push(new(uint256.Int))
	} else {
		stack.Push(new(uint256.Int).SetBytes(addr.Bytes()))
	}
	return nil, nil
}

func opCreate2(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	if evm.readOnly {
		return nil, ErrWriteProtection
	}
	value := stack.Pop()
	offset := stack.Pop()
	size := stack.Pop()
	salt := stack.Pop()

	code := mem.Get(offset.Uint64(), size.Uint64())

	gasLimit := contract.Gas - contract.Gas/CallGasFraction
	if !contract.UseGas(gasLimit) {
		return nil, ErrOutOfGas
	}

	ret, addr, returnGas, err := evm.Create2(contract.Address, code, gasLimit, &value, &salt)
	contract.RefundGas(returnGas)
	if err == ErrExecutionReverted {
		evm.returnData = ret
	} else {
		evm.returnData = nil
	}

	if err != nil {
		stack.Push(new(uint256.Int))
	} else {
		stack.Push(new(uint256.Int).SetBytes(addr.Bytes()))
	}
	return nil, nil
}

func opReturn(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	offset := stack.Pop()
	size := stack.Pop()
	return mem.Get(offset.Uint64(), size.Uint64()), nil
}

func opRevert(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	offset := stack.Pop()
	size := stack.Pop()
	return mem.Get(offset.Uint64(), size.Uint64()), ErrExecutionReverted
}

func opInvalid(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, ErrInvalidOpCode
}

func opSelfdestruct(pc *uint64, evm *EVM, contract *Contract, mem *Memory, stack *Stack) ([]byte, error) {
	if evm.readOnly {
		return nil, ErrWriteProtection
	}
	beneficiary := stack.Pop()
	balance := evm.StateDB.GetBalance(contract.Address)
	evm.StateDB.AddBalance(addressFromWord(&beneficiary), balance)
	evm.StateDB.SelfDestruct(contract.Address)
	return nil, nil
}

// --- Helpers ---

func pushCallResult(stack *Stack, err error) {
	if err != nil {
		stack.Push(new(uint256.Int))
	} else {
		stack.Push(new(uint256.Int).SetOne())
	}
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// getData slices data at [start, start+size), zero-padding beyond its end.
func getData(data []byte, start, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	return rightPad(data[start:end], int(size))
}

// rightPad pads b with zeros on the right to the given length.
func rightPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	padded := make([]byte, size)
	copy(padded, b)
	return padded
}
