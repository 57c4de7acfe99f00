package asyncevm

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/lantern-eth/lantern/core"
	"github.com/lantern-eth/lantern/core/vm"
)

func TestEstimateGas_PlainTransfer(t *testing.T) {
	to := testAddr(0xaa)
	backend := NewMemoryBackend()

	engine := testEngine(backend)
	gas, err := engine.EstimateGas(context.Background(), testHeader(), callArgs(to), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gas != core.TxGas {
		t.Fatalf("expected 21000 for a plain transfer, got %d", gas)
	}
}

func TestEstimateGas_FindsMinimum(t *testing.T) {
	to := testAddr(0xbb)
	backend := NewMemoryBackend()
	backend.SetCode(to, sloadReturnCode(0xaa))

	engine := testEngine(backend)
	gas, err := engine.EstimateGas(context.Background(), testHeader(), callArgs(to), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gas <= core.TxGas {
		t.Fatalf("expected more than intrinsic gas, got %d", gas)
	}

	// The estimate must be executable...
	args := callArgs(to)
	est := hexutil.Uint64(gas)
	args.Gas = &est
	result, err := engine.Call(context.Background(), testHeader(), args, true)
	if err != nil || result.Err != nil {
		t.Fatalf("call at estimated gas failed: %v / %v", err, result.Err)
	}

	// ...and one unit less must not be.
	lower := hexutil.Uint64(gas - 1)
	args.Gas = &lower
	result, err = engine.Call(context.Background(), testHeader(), args, true)
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}
	if result.Err == nil {
		t.Fatal("expected failure one gas unit below the estimate")
	}
}

func TestEstimateGas_AlwaysFailingCall(t *testing.T) {
	to := testAddr(0xdd)
	backend := NewMemoryBackend()
	backend.SetCode(to, []byte{
		byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00,
		byte(vm.REVERT),
	})

	engine := testEngine(backend)
	_, err := engine.EstimateGas(context.Background(), testHeader(), callArgs(to), true)
	var evmErr *EVMError
	if !errors.As(err, &evmErr) {
		t.Fatalf("expected EVM failure, got %v", err)
	}
	if !errors.Is(evmErr.Code, vm.ErrExecutionReverted) {
		t.Fatalf("expected revert inside EVM failure, got %v", evmErr.Code)
	}
}

func TestEstimateGas_RespectsCallerCap(t *testing.T) {
	to := testAddr(0xbb)
	backend := NewMemoryBackend()
	backend.SetCode(to, sloadReturnCode(0xaa))

	engine := testEngine(backend)
	// A cap below what the call needs makes estimation fail.
	args := callArgs(to)
	limit := hexutil.Uint64(core.TxGas + 10)
	args.Gas = &limit
	_, err := engine.EstimateGas(context.Background(), testHeader(), args, true)
	var evmErr *EVMError
	if !errors.As(err, &evmErr) {
		t.Fatalf("expected EVM failure under a low cap, got %v", err)
	}
}
