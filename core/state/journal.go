package state

import (
	"github.com/holiman/uint256"

	"github.com/lantern-eth/lantern/core/types"
)

// journalEntry is a revertible state change.
type journalEntry interface {
	revert(l *WitnessLedger)
}

// journal tracks state modifications for savepoint/rollback. The witness is
// deliberately not journalled: touched keys survive a rollback because they
// drive the next prefetch iteration.
type journal struct {
	entries   []journalEntry
	snapshots map[int]int // snapshot ID -> entry index
	nextID    int
}

func newJournal() *journal {
	return &journal{
		snapshots: make(map[int]int),
	}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

func (j *journal) snapshot() int {
	id := j.nextID
	j.nextID++
	j.snapshots[id] = len(j.entries)
	return id
}

func (j *journal) revertToSnapshot(id int, l *WitnessLedger) {
	idx, ok := j.snapshots[id]
	if !ok {
		return
	}
	// Revert in reverse order.
	for i := len(j.entries) - 1; i >= idx; i-- {
		j.entries[i].revert(l)
	}
	j.entries = j.entries[:idx]

	// Remove invalidated snapshots.
	for sid := range j.snapshots {
		if sid >= id {
			delete(j.snapshots, sid)
		}
	}
}

func (j *journal) discardSnapshot(id int) {
	delete(j.snapshots, id)
}

// --- Concrete journal entries ---

type createAccountChange struct {
	addr types.Address
	prev *stateObject // nil if the account didn't exist before
}

func (ch createAccountChange) revert(l *WitnessLedger) {
	if ch.prev == nil {
		delete(l.objects, ch.addr)
	} else {
		l.objects[ch.addr] = ch.prev
	}
}

type balanceChange struct {
	addr types.Address
	prev *uint256.Int
}

func (ch balanceChange) revert(l *WitnessLedger) {
	if obj := l.getStateObject(ch.addr); obj != nil {
		obj.account.Balance = ch.prev
	}
}

type nonceChange struct {
	addr types.Address
	prev uint64
}

func (ch nonceChange) revert(l *WitnessLedger) {
	if obj := l.getStateObject(ch.addr); obj != nil {
		obj.account.Nonce = ch.prev
	}
}

type codeChange struct {
	addr     types.Address
	prevCode []byte
	prevHash types.Hash
}

func (ch codeChange) revert(l *WitnessLedger) {
	if obj := l.getStateObject(ch.addr); obj != nil {
		obj.code = ch.prevCode
		obj.account.CodeHash = ch.prevHash
	}
}

type storageChange struct {
	addr       types.Address
	key        types.Hash
	prev       types.Hash
	prevExists bool // true if the key was present in dirtyStorage before
}

func (ch storageChange) revert(l *WitnessLedger) {
	if obj := l.getStateObject(ch.addr); obj != nil {
		if ch.prevExists {
			obj.dirtyStorage[ch.key] = ch.prev
		} else {
			// The slot was not dirty before this write; remove it so the
			// seeded committed value is visible again.
			delete(obj.dirtyStorage, ch.key)
		}
	}
}

type selfDestructChange struct {
	addr           types.Address
	prevDestructed bool
	prevBalance    *uint256.Int
}

func (ch selfDestructChange) revert(l *WitnessLedger) {
	if obj := l.getStateObject(ch.addr); obj != nil {
		obj.selfDestructed = ch.prevDestructed
		obj.account.Balance = ch.prevBalance
	}
}

type accessListAddAccountChange struct {
	addr types.Address
}

func (ch accessListAddAccountChange) revert(l *WitnessLedger) {
	l.warm.coolAddress(ch.addr)
}

type accessListAddSlotChange struct {
	addr types.Address
	slot types.Hash
}

func (ch accessListAddSlotChange) revert(l *WitnessLedger) {
	l.warm.coolSlot(ch.addr, ch.slot)
}

type transientStorageChange struct {
	addr types.Address
	key  types.Hash
	prev types.Hash
}

func (ch transientStorageChange) revert(l *WitnessLedger) {
	if ch.prev == (types.Hash{}) {
		delete(l.transientStorage[ch.addr], ch.key)
		if len(l.transientStorage[ch.addr]) == 0 {
			delete(l.transientStorage, ch.addr)
		}
	} else {
		l.transientStorage[ch.addr][ch.key] = ch.prev
	}
}

type logChange struct {
	prevLen int
}

func (ch logChange) revert(l *WitnessLedger) {
	l.logs = l.logs[:ch.prevLen]
}

type refundChange struct {
	prev uint64
}

func (ch refundChange) revert(l *WitnessLedger) {
	l.refund = ch.prev
}
