package state

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/lantern-eth/lantern/core/types"
)

// --- Witness accumulation ---

func TestLedger_ReadsRecordWitness(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	l.GetBalance(a)
	if !l.Witness().Equal(tableWith(AccountKey(a))) {
		t.Fatalf("balance read should touch the account, witness: %+v", l.Witness().Keys())
	}

	l.ClearWitness()
	l.GetState(a, testHash(9))
	w := NewWitnessTable()
	w.TouchStorage(a, testHash(9))
	if !l.Witness().Equal(w) {
		t.Fatalf("slot read should touch slot and account, witness: %+v", l.Witness().Keys())
	}

	l.ClearWitness()
	l.GetCode(a)
	if !l.Witness().CodeTouched(a) {
		t.Fatal("code read should set the code flag")
	}
}

func TestLedger_CodeHashTouchesAccountOnly(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	l.GetCodeHash(a)
	if l.Witness().CodeTouched(a) {
		t.Fatal("code hash read must not set the code flag")
	}
	if l.Witness().Len() != 1 {
		t.Fatalf("expected one witness key, got %d", l.Witness().Len())
	}
}

func TestLedger_SeedingBypassesWitness(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	acct := types.NewAccount()
	acct.Balance = uint256.NewInt(100)
	l.SeedAccount(a, acct)
	l.SeedCode(a, []byte{0x00})
	l.SeedStorage(a, testHash(1), testHash(2))

	if l.Witness().Len() != 0 {
		t.Fatalf("seeding must not populate the witness, got %d keys", l.Witness().Len())
	}
}

func TestLedger_RollbackPreservesWitness(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	sp := l.Snapshot()
	l.GetBalance(a)
	l.AddBalance(a, uint256.NewInt(5))
	l.SetState(a, testHash(1), testHash(2))
	l.RevertToSnapshot(sp)

	// State writes are gone...
	if bal := l.GetBalance(a); !bal.IsZero() {
		t.Fatalf("expected zero balance after rollback, got %s", bal)
	}
	// ...but the witness survives.
	if l.Witness().Len() == 0 {
		t.Fatal("rollback must not clear the witness")
	}
}

// --- Seeded state visibility ---

func TestLedger_SeededStateReads(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	acct := types.NewAccount()
	acct.Balance = uint256.NewInt(1000)
	acct.Nonce = 7
	l.SeedAccount(a, acct)
	l.SeedCode(a, []byte{0x60, 0x00})
	l.SeedStorage(a, testHash(1), testHash(42))

	if bal := l.GetBalance(a); !bal.Eq(uint256.NewInt(1000)) {
		t.Fatalf("expected balance 1000, got %s", bal)
	}
	if n := l.GetNonce(a); n != 7 {
		t.Fatalf("expected nonce 7, got %d", n)
	}
	if code := l.GetCode(a); len(code) != 2 {
		t.Fatalf("expected 2 code bytes, got %d", len(code))
	}
	if v := l.GetState(a, testHash(1)); v != testHash(42) {
		t.Fatalf("expected slot value 42, got %s", v)
	}
}

func TestLedger_MissingStateReadsZero(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(9)

	if bal := l.GetBalance(a); !bal.IsZero() {
		t.Fatalf("expected zero balance, got %s", bal)
	}
	if n := l.GetNonce(a); n != 0 {
		t.Fatalf("expected zero nonce, got %d", n)
	}
	if code := l.GetCode(a); code != nil {
		t.Fatalf("expected nil code, got %x", code)
	}
	if v := l.GetState(a, testHash(1)); v != (types.Hash{}) {
		t.Fatalf("expected zero slot, got %s", v)
	}
}

// --- Dirty vs committed storage ---

func TestLedger_DirtyOverridesCommitted(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	l.SeedStorage(a, testHash(1), testHash(10))
	sp := l.Snapshot()
	l.SetState(a, testHash(1), testHash(20))

	if v := l.GetState(a, testHash(1)); v != testHash(20) {
		t.Fatalf("expected dirty value 20, got %s", v)
	}
	if v := l.GetCommittedState(a, testHash(1)); v != testHash(10) {
		t.Fatalf("expected committed value 10, got %s", v)
	}

	l.RevertToSnapshot(sp)
	if v := l.GetState(a, testHash(1)); v != testHash(10) {
		t.Fatalf("expected seeded value 10 after rollback, got %s", v)
	}
}

// --- Savepoints ---

func TestLedger_NestedSavepoints(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	l.AddBalance(a, uint256.NewInt(100))
	outer := l.Snapshot()

	l.AddBalance(a, uint256.NewInt(50))
	l.SetNonce(a, 10)
	inner := l.Snapshot()

	l.AddBalance(a, uint256.NewInt(25))
	l.SetNonce(a, 20)

	l.RevertToSnapshot(inner)
	if bal := l.GetBalance(a); !bal.Eq(uint256.NewInt(150)) {
		t.Fatalf("expected 150 after inner revert, got %s", bal)
	}
	if n := l.GetNonce(a); n != 10 {
		t.Fatalf("expected nonce 10 after inner revert, got %d", n)
	}

	l.RevertToSnapshot(outer)
	if bal := l.GetBalance(a); !bal.Eq(uint256.NewInt(100)) {
		t.Fatalf("expected 100 after outer revert, got %s", bal)
	}
	if n := l.GetNonce(a); n != 0 {
		t.Fatalf("expected nonce 0 after outer revert, got %d", n)
	}
}

func TestLedger_DiscardSnapshotKeepsChanges(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	sp := l.Snapshot()
	l.AddBalance(a, uint256.NewInt(77))
	l.DiscardSnapshot(sp)

	if bal := l.GetBalance(a); !bal.Eq(uint256.NewInt(77)) {
		t.Fatalf("expected 77 after discard, got %s", bal)
	}
	// Reverting a discarded savepoint is a no-op.
	l.RevertToSnapshot(sp)
	if bal := l.GetBalance(a); !bal.Eq(uint256.NewInt(77)) {
		t.Fatalf("expected 77 after reverting discarded savepoint, got %s", bal)
	}
}

func TestLedger_RollbackTransientAndRefund(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	sp := l.Snapshot()
	l.SetTransientState(a, testHash(1), testHash(2))
	l.AddRefund(100)
	l.AddLog(&types.Log{Address: a})

	l.RevertToSnapshot(sp)

	if v := l.GetTransientState(a, testHash(1)); v != (types.Hash{}) {
		t.Fatalf("expected zero transient value after rollback, got %s", v)
	}
	if r := l.GetRefund(); r != 0 {
		t.Fatalf("expected zero refund after rollback, got %d", r)
	}
	if len(l.Logs()) != 0 {
		t.Fatalf("expected no logs after rollback, got %d", len(l.Logs()))
	}
}

func TestLedger_AccessListRollback(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	l.AddAddressToAccessList(a)
	sp := l.Snapshot()
	l.AddSlotToAccessList(a, testHash(1))

	if _, slotOk := l.SlotInAccessList(a, testHash(1)); !slotOk {
		t.Fatal("slot should be warm before rollback")
	}
	l.RevertToSnapshot(sp)
	if _, slotOk := l.SlotInAccessList(a, testHash(1)); slotOk {
		t.Fatal("slot should be cold after rollback")
	}
	if !l.AddressInAccessList(a) {
		t.Fatal("address warmed before the savepoint must stay warm")
	}
}

// --- ClearWitness keeps state ---

func TestLedger_ClearWitnessKeepsState(t *testing.T) {
	l := NewWitnessLedger()
	a := testAddr(1)

	l.SeedStorage(a, testHash(1), testHash(5))
	l.GetState(a, testHash(1))
	l.ClearWitness()

	if l.Witness().Len() != 0 {
		t.Fatal("witness not cleared")
	}
	if v := l.GetState(a, testHash(1)); v != testHash(5) {
		t.Fatalf("stored state lost by witness clear, got %s", v)
	}
}

func tableWith(keys ...WitnessKey) *WitnessTable {
	w := NewWitnessTable()
	for _, k := range keys {
		w.touch(k)
	}
	return w
}
