package asyncevm

import (
	"math/big"
	"strings"
	"testing"

	"github.com/lantern-eth/lantern/core"
	"github.com/lantern-eth/lantern/core/state"
	"github.com/lantern-eth/lantern/core/vm"
)

func TestBlockContext_ParentHashIsOwnHash(t *testing.T) {
	engine := testEngine(NewMemoryBackend())
	header := testHeader()
	ctx := engine.blockContext(header)
	// The source engine installs the rlp-hash of the supplied header, not of
	// its parent; preserved here until a history contract takes over.
	if ctx.ParentHash != header.Hash() {
		t.Fatalf("expected parent hash %s, got %s", header.Hash(), ctx.ParentHash)
	}
}

func TestBlockContext_Defaults(t *testing.T) {
	engine := testEngine(NewMemoryBackend())
	header := testHeader()
	header.BaseFee = nil
	ctx := engine.blockContext(header)
	if ctx.BaseFee.Sign() != 0 {
		t.Fatalf("missing base fee should default to zero, got %s", ctx.BaseFee)
	}
	if ctx.BlobBaseFee.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("zero excess blob gas should price blobs at 1, got %s", ctx.BlobBaseFee)
	}
}

func TestCalcBlobFee(t *testing.T) {
	if fee := calcBlobFee(0); fee.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected fee 1 at zero excess, got %s", fee)
	}
	low := calcBlobFee(3_338_477)
	high := calcBlobFee(10_000_000)
	if low.Cmp(high) >= 0 {
		t.Fatalf("blob fee must grow with excess gas: %s vs %s", low, high)
	}
}

func TestUnpackRevertReason(t *testing.T) {
	// abi.encodeWithSignature("Error(string)", "nope")
	payload := []byte{0x08, 0xc3, 0x79, 0xa0}
	word := func(last byte) []byte {
		w := make([]byte, 32)
		w[31] = last
		return w
	}
	payload = append(payload, word(0x20)...) // offset
	payload = append(payload, word(0x04)...) // length
	reason := make([]byte, 32)
	copy(reason, "nope")
	payload = append(payload, reason...)

	got, ok := unpackRevertReason(payload)
	if !ok || got != "nope" {
		t.Fatalf("expected reason %q, got %q (ok=%v)", "nope", got, ok)
	}

	if _, ok := unpackRevertReason([]byte{0x01, 0x02}); ok {
		t.Fatal("short output must not decode")
	}
}

func TestCallResult_ErrorMessage(t *testing.T) {
	if msg := (CallResult{}).ErrorMessage(); msg != "" {
		t.Fatalf("clean result should have no message, got %q", msg)
	}
	r := CallResult{Err: vm.ErrExecutionReverted}
	if msg := r.ErrorMessage(); msg != "execution reverted" {
		t.Fatalf("unexpected message: %q", msg)
	}
	r = CallResult{Err: vm.ErrOutOfGas}
	if msg := r.ErrorMessage(); !strings.Contains(msg, "out of gas") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestExecute_GasBelowIntrinsic(t *testing.T) {
	engine := testEngine(NewMemoryBackend())
	ledger := state.NewWitnessLedger()
	result := engine.execute(ledger, testHeader(), callArgs(testAddr(1)), core.TxGas-1)
	if result.Err == nil {
		t.Fatal("expected failure below intrinsic gas")
	}
}
