package state

import "github.com/lantern-eth/lantern/core/types"

// WitnessKey identifies a piece of state touched by an EVM run: an account
// when HasSlot is false, a storage slot of that account otherwise.
type WitnessKey struct {
	Addr    types.Address
	Slot    types.Hash
	HasSlot bool
}

// AccountKey returns the witness key for an account reference.
func AccountKey(addr types.Address) WitnessKey {
	return WitnessKey{Addr: addr}
}

// StorageKey returns the witness key for a storage slot reference.
func StorageKey(addr types.Address, slot types.Hash) WitnessKey {
	return WitnessKey{Addr: addr, Slot: slot, HasSlot: true}
}

// WitnessTable accumulates the set of state keys touched by a single EVM run
// in first-touch order, plus a per-address flag recording whether the
// account's code was read. Insertion is idempotent: the first touch fixes a
// key's position and later touches only widen the code flag.
type WitnessTable struct {
	keys  []WitnessKey
	index map[WitnessKey]int
	code  map[types.Address]bool
}

// NewWitnessTable returns an empty witness table.
func NewWitnessTable() *WitnessTable {
	return &WitnessTable{
		index: make(map[WitnessKey]int),
		code:  make(map[types.Address]bool),
	}
}

func (w *WitnessTable) touch(key WitnessKey) {
	if _, ok := w.index[key]; ok {
		return
	}
	w.index[key] = len(w.keys)
	w.keys = append(w.keys, key)
}

// TouchAccount records a read of an account field.
func (w *WitnessTable) TouchAccount(addr types.Address) {
	w.touch(AccountKey(addr))
}

// TouchCode records a read of an account's code. The account itself is
// touched as well, and the code flag is set for the address.
func (w *WitnessTable) TouchCode(addr types.Address) {
	w.touch(AccountKey(addr))
	w.code[addr] = true
}

// TouchStorage records a read of a storage slot. The owning account is
// touched too, since a slot read always touches the account.
func (w *WitnessTable) TouchStorage(addr types.Address, slot types.Hash) {
	w.touch(AccountKey(addr))
	w.touch(StorageKey(addr, slot))
}

// Keys returns the witness keys in first-touch order. The returned slice is
// shared; callers must not modify it.
func (w *WitnessTable) Keys() []WitnessKey {
	return w.keys
}

// CodeTouched reports whether the address's code was read during the run.
func (w *WitnessTable) CodeTouched(addr types.Address) bool {
	return w.code[addr]
}

// Len returns the number of distinct keys in the table.
func (w *WitnessTable) Len() int {
	return len(w.keys)
}

// Clear empties the table.
func (w *WitnessTable) Clear() {
	w.keys = w.keys[:0]
	w.index = make(map[WitnessKey]int)
	w.code = make(map[types.Address]bool)
}

// Copy returns an independent copy of the table, preserving touch order.
func (w *WitnessTable) Copy() *WitnessTable {
	cp := &WitnessTable{
		keys:  append([]WitnessKey(nil), w.keys...),
		index: make(map[WitnessKey]int, len(w.index)),
		code:  make(map[types.Address]bool, len(w.code)),
	}
	for k, v := range w.index {
		cp.index[k] = v
	}
	for a, c := range w.code {
		cp.code[a] = c
	}
	return cp
}

// Equal reports structural equality with other: the same key set and the
// same code flags, ignoring touch order.
func (w *WitnessTable) Equal(other *WitnessTable) bool {
	if other == nil {
		return w == nil || w.Len() == 0
	}
	if len(w.index) != len(other.index) {
		return false
	}
	for k := range w.index {
		if _, ok := other.index[k]; !ok {
			return false
		}
	}
	for addr, touched := range w.code {
		if touched != other.code[addr] {
			return false
		}
	}
	for addr, touched := range other.code {
		if touched != w.code[addr] {
			return false
		}
	}
	return true
}
