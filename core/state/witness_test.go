package state

import (
	"testing"

	"github.com/lantern-eth/lantern/core/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func testHash(b byte) types.Hash {
	var h types.Hash
	h[31] = b
	return h
}

// --- Witness table tests ---

func TestWitnessTable_TouchOrder(t *testing.T) {
	w := NewWitnessTable()
	a, b := testAddr(1), testAddr(2)

	w.TouchStorage(b, testHash(5))
	w.TouchAccount(a)
	w.TouchStorage(b, testHash(3))

	keys := w.Keys()
	want := []WitnessKey{
		AccountKey(b),
		StorageKey(b, testHash(5)),
		AccountKey(a),
		StorageKey(b, testHash(3)),
	}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("key %d: expected %+v, got %+v", i, k, keys[i])
		}
	}
}

func TestWitnessTable_IdempotentInsert(t *testing.T) {
	w := NewWitnessTable()
	a := testAddr(1)

	w.TouchAccount(a)
	w.TouchAccount(a)
	w.TouchStorage(a, testHash(1))
	w.TouchStorage(a, testHash(1))

	if w.Len() != 2 {
		t.Fatalf("expected 2 distinct keys, got %d", w.Len())
	}
	// First insertion fixes position.
	if keys := w.Keys(); keys[0] != AccountKey(a) {
		t.Fatalf("expected account key first, got %+v", keys[0])
	}
}

func TestWitnessTable_CodeFlagOr(t *testing.T) {
	w := NewWitnessTable()
	a := testAddr(1)

	w.TouchAccount(a)
	if w.CodeTouched(a) {
		t.Fatal("code flag set by account touch")
	}
	w.TouchCode(a)
	if !w.CodeTouched(a) {
		t.Fatal("code flag not set by code touch")
	}
	// Later account touches must not clear the flag.
	w.TouchAccount(a)
	if !w.CodeTouched(a) {
		t.Fatal("code flag cleared by later account touch")
	}
}

func TestWitnessTable_EqualOrderInsensitive(t *testing.T) {
	a, b := testAddr(1), testAddr(2)

	w1 := NewWitnessTable()
	w1.TouchAccount(a)
	w1.TouchStorage(b, testHash(7))

	w2 := NewWitnessTable()
	w2.TouchStorage(b, testHash(7))
	w2.TouchAccount(a)

	if !w1.Equal(w2) {
		t.Fatal("tables with same keys in different order should be equal")
	}

	w2.TouchCode(a)
	if w1.Equal(w2) {
		t.Fatal("tables with different code flags should not be equal")
	}
	w1.TouchCode(a)
	if !w1.Equal(w2) {
		t.Fatal("tables should be equal again after matching code flags")
	}

	w2.TouchStorage(b, testHash(8))
	if w1.Equal(w2) {
		t.Fatal("tables with different key sets should not be equal")
	}
}

func TestWitnessTable_ClearAndCopy(t *testing.T) {
	w := NewWitnessTable()
	a := testAddr(1)
	w.TouchCode(a)
	w.TouchStorage(a, testHash(2))

	cp := w.Copy()
	w.Clear()

	if w.Len() != 0 {
		t.Fatalf("expected empty table after clear, got %d keys", w.Len())
	}
	if cp.Len() != 2 {
		t.Fatalf("copy should be unaffected by clear, got %d keys", cp.Len())
	}
	if !cp.CodeTouched(a) {
		t.Fatal("copy lost the code flag")
	}
}
