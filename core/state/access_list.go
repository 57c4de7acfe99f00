package state

import "github.com/lantern-eth/lantern/core/types"

// warmSet tracks the EIP-2929 warm addresses and storage slots of a single
// call. Unlike the witness, warmth is transactional: entries added inside a
// savepoint are cooled again on rollback through the journal, so every
// speculative execution of the prefetch loop re-pays cold costs the same way.
type warmSet struct {
	addrs map[types.Address]struct{}
	slots map[types.Address]map[types.Hash]struct{}
}

func newWarmSet() *warmSet {
	return &warmSet{
		addrs: make(map[types.Address]struct{}),
		slots: make(map[types.Address]map[types.Hash]struct{}),
	}
}

// warmAddress marks addr warm and reports whether it already was.
func (ws *warmSet) warmAddress(addr types.Address) bool {
	if _, ok := ws.addrs[addr]; ok {
		return true
	}
	ws.addrs[addr] = struct{}{}
	return false
}

// warmSlot marks (addr, slot) warm. Warming a slot warms its address as
// well; the prior warmth of both is reported so the caller can journal only
// the genuinely new entries.
func (ws *warmSet) warmSlot(addr types.Address, slot types.Hash) (addrWarm, slotWarm bool) {
	addrWarm = ws.warmAddress(addr)
	set, ok := ws.slots[addr]
	if !ok {
		set = make(map[types.Hash]struct{})
		ws.slots[addr] = set
	}
	if _, ok := set[slot]; ok {
		return addrWarm, true
	}
	set[slot] = struct{}{}
	return addrWarm, false
}

// containsAddress reports whether the address is warm.
func (ws *warmSet) containsAddress(addr types.Address) bool {
	_, ok := ws.addrs[addr]
	return ok
}

// containsSlot reports the warmth of the address and of the slot under it.
func (ws *warmSet) containsSlot(addr types.Address, slot types.Hash) (addrWarm, slotWarm bool) {
	if _, ok := ws.addrs[addr]; !ok {
		return false, false
	}
	_, slotWarm = ws.slots[addr][slot]
	return true, slotWarm
}

// coolAddress removes an address from the warm set. Used during rollback;
// the journal reverts in reverse order, so any slots warmed under the
// address have already been cooled.
func (ws *warmSet) coolAddress(addr types.Address) {
	delete(ws.addrs, addr)
}

// coolSlot removes a slot from the warm set. Used during rollback.
func (ws *warmSet) coolSlot(addr types.Address, slot types.Hash) {
	set, ok := ws.slots[addr]
	if !ok {
		return
	}
	delete(set, slot)
	if len(set) == 0 {
		delete(ws.slots, addr)
	}
}
