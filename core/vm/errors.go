package vm

import "errors"

var (
	ErrOutOfGas              = errors.New("out of gas")
	ErrStackOverflow         = errors.New("stack overflow")
	ErrStackUnderflow        = errors.New("stack underflow")
	ErrInvalidJump           = errors.New("invalid jump destination")
	ErrWriteProtection       = errors.New("write protection")
	ErrExecutionReverted     = errors.New("execution reverted")
	ErrMaxCallDepthExceeded  = errors.New("max call depth exceeded")
	ErrInvalidOpCode         = errors.New("invalid opcode")
	ErrReturnDataOutOfBounds = errors.New("return data out of bounds")
	ErrInsufficientBalance   = errors.New("insufficient balance for transfer")
	ErrGasUintOverflow       = errors.New("gas uint64 overflow")
	ErrMaxCodeSizeExceeded   = errors.New("max code size exceeded")
	ErrMaxInitCodeSize       = errors.New("max initcode size exceeded")
	ErrNoStateDB             = errors.New("no state database")
)
