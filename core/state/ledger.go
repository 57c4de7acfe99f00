// Package state implements the witness ledger: a throwaway in-memory
// account/storage/code store that records the set of keys an EVM run touches.
// One ledger backs exactly one engine call and is discarded on return.
package state

import (
	"github.com/holiman/uint256"

	"github.com/lantern-eth/lantern/core/types"
	"github.com/lantern-eth/lantern/crypto"
)

// stateObject holds an account with its code and storage. Committed storage
// is what the backend supplied; dirty storage holds journalled EVM writes on
// top of it.
type stateObject struct {
	account        types.Account
	code           []byte
	committed      map[types.Hash]types.Hash
	dirtyStorage   map[types.Hash]types.Hash
	selfDestructed bool
}

func newStateObject() *stateObject {
	return &stateObject{
		account:      types.NewAccount(),
		committed:    make(map[types.Hash]types.Hash),
		dirtyStorage: make(map[types.Hash]types.Hash),
	}
}

// WitnessLedger is the in-memory ledger consulted by the EVM during prefetch
// runs. Absent state reads as zero values, so execution proceeds even over an
// empty ledger; every read is recorded in the witness table. EVM writes go
// through the journal and are undone by savepoint rollback; backend seeding
// bypasses both the journal and the witness.
type WitnessLedger struct {
	objects          map[types.Address]*stateObject
	journal          *journal
	witness          *WitnessTable
	warm             *warmSet
	transientStorage map[types.Address]map[types.Hash]types.Hash
	logs             []*types.Log
	refund           uint64
}

// NewWitnessLedger creates an empty witness ledger.
func NewWitnessLedger() *WitnessLedger {
	return &WitnessLedger{
		objects:          make(map[types.Address]*stateObject),
		journal:          newJournal(),
		witness:          NewWitnessTable(),
		warm:             newWarmSet(),
		transientStorage: make(map[types.Address]map[types.Hash]types.Hash),
	}
}

func (l *WitnessLedger) getStateObject(addr types.Address) *stateObject {
	return l.objects[addr]
}

func (l *WitnessLedger) getOrNewStateObject(addr types.Address) *stateObject {
	if obj := l.objects[addr]; obj != nil {
		return obj
	}
	obj := newStateObject()
	l.objects[addr] = obj
	return obj
}

// --- Witness ---

// Witness returns the table of keys touched since the last ClearWitness.
func (l *WitnessLedger) Witness() *WitnessTable {
	return l.witness
}

// ClearWitness resets the witness table without clearing stored state.
func (l *WitnessLedger) ClearWitness() {
	l.witness.Clear()
}

// --- Backend seeding (bypasses journal and witness) ---

// SeedAccount installs the account fields fetched from the backend.
func (l *WitnessLedger) SeedAccount(addr types.Address, acct types.Account) {
	obj := l.getOrNewStateObject(addr)
	obj.account = acct.Copy()
	if obj.account.Balance == nil {
		obj.account.Balance = new(uint256.Int)
	}
}

// SeedCode installs the contract code fetched from the backend.
func (l *WitnessLedger) SeedCode(addr types.Address, code []byte) {
	obj := l.getOrNewStateObject(addr)
	obj.code = code
	obj.account.CodeHash = crypto.Keccak256Hash(code)
}

// SeedStorage installs a storage slot value fetched from the backend. The
// value lands in committed storage, underneath any journalled writes.
func (l *WitnessLedger) SeedStorage(addr types.Address, slot, value types.Hash) {
	obj := l.getOrNewStateObject(addr)
	obj.committed[slot] = value
}

// --- Account operations ---

func (l *WitnessLedger) CreateAccount(addr types.Address) {
	l.journal.append(createAccountChange{addr: addr, prev: l.objects[addr]})
	l.objects[addr] = newStateObject()
}

func (l *WitnessLedger) GetBalance(addr types.Address) *uint256.Int {
	l.witness.TouchAccount(addr)
	if obj := l.getStateObject(addr); obj != nil {
		return new(uint256.Int).Set(obj.account.Balance)
	}
	return new(uint256.Int)
}

func (l *WitnessLedger) AddBalance(addr types.Address, amount *uint256.Int) {
	obj := l.getOrNewStateObject(addr)
	l.journal.append(balanceChange{addr: addr, prev: new(uint256.Int).Set(obj.account.Balance)})
	obj.account.Balance = new(uint256.Int).Add(obj.account.Balance, amount)
}

func (l *WitnessLedger) SubBalance(addr types.Address, amount *uint256.Int) {
	obj := l.getOrNewStateObject(addr)
	l.journal.append(balanceChange{addr: addr, prev: new(uint256.Int).Set(obj.account.Balance)})
	obj.account.Balance = new(uint256.Int).Sub(obj.account.Balance, amount)
}

func (l *WitnessLedger) GetNonce(addr types.Address) uint64 {
	l.witness.TouchAccount(addr)
	if obj := l.getStateObject(addr); obj != nil {
		return obj.account.Nonce
	}
	return 0
}

func (l *WitnessLedger) SetNonce(addr types.Address, nonce uint64) {
	obj := l.getOrNewStateObject(addr)
	l.journal.append(nonceChange{addr: addr, prev: obj.account.Nonce})
	obj.account.Nonce = nonce
}

func (l *WitnessLedger) GetCode(addr types.Address) []byte {
	l.witness.TouchCode(addr)
	if obj := l.getStateObject(addr); obj != nil {
		return obj.code
	}
	return nil
}

func (l *WitnessLedger) GetCodeSize(addr types.Address) int {
	l.witness.TouchCode(addr)
	if obj := l.getStateObject(addr); obj != nil {
		return len(obj.code)
	}
	return 0
}

// GetCodeHash reads the account's code hash field. This touches the account,
// not the code: serving EXTCODEHASH does not require the bytecode itself.
func (l *WitnessLedger) GetCodeHash(addr types.Address) types.Hash {
	l.witness.TouchAccount(addr)
	if obj := l.getStateObject(addr); obj != nil {
		return obj.account.CodeHash
	}
	return types.Hash{}
}

func (l *WitnessLedger) SetCode(addr types.Address, code []byte) {
	obj := l.getOrNewStateObject(addr)
	l.journal.append(codeChange{addr: addr, prevCode: obj.code, prevHash: obj.account.CodeHash})
	obj.code = code
	obj.account.CodeHash = crypto.Keccak256Hash(code)
}

// --- Storage operations ---

func (l *WitnessLedger) GetState(addr types.Address, key types.Hash) types.Hash {
	l.witness.TouchStorage(addr, key)
	if obj := l.getStateObject(addr); obj != nil {
		if val, ok := obj.dirtyStorage[key]; ok {
			return val
		}
		return obj.committed[key]
	}
	return types.Hash{}
}

func (l *WitnessLedger) SetState(addr types.Address, key types.Hash, value types.Hash) {
	obj := l.getOrNewStateObject(addr)
	prev, prevExists := obj.dirtyStorage[key]
	l.journal.append(storageChange{addr: addr, key: key, prev: prev, prevExists: prevExists})
	obj.dirtyStorage[key] = value
}

func (l *WitnessLedger) GetCommittedState(addr types.Address, key types.Hash) types.Hash {
	l.witness.TouchStorage(addr, key)
	if obj := l.getStateObject(addr); obj != nil {
		return obj.committed[key]
	}
	return types.Hash{}
}

// --- Self-destruct ---

func (l *WitnessLedger) SelfDestruct(addr types.Address) {
	obj := l.getStateObject(addr)
	if obj == nil {
		return
	}
	l.journal.append(selfDestructChange{
		addr:           addr,
		prevDestructed: obj.selfDestructed,
		prevBalance:    new(uint256.Int).Set(obj.account.Balance),
	})
	obj.selfDestructed = true
	obj.account.Balance = new(uint256.Int)
}

func (l *WitnessLedger) HasSelfDestructed(addr types.Address) bool {
	if obj := l.getStateObject(addr); obj != nil {
		return obj.selfDestructed
	}
	return false
}

// --- Account existence ---

func (l *WitnessLedger) Exist(addr types.Address) bool {
	l.witness.TouchAccount(addr)
	return l.objects[addr] != nil
}

func (l *WitnessLedger) Empty(addr types.Address) bool {
	l.witness.TouchAccount(addr)
	obj := l.getStateObject(addr)
	if obj == nil {
		return true
	}
	return obj.account.Nonce == 0 &&
		obj.account.Balance.IsZero() &&
		(obj.account.CodeHash == types.EmptyCodeHash || obj.account.CodeHash == types.Hash{})
}

// --- Savepoints ---

// Snapshot opens a savepoint capturing the current journal position.
func (l *WitnessLedger) Snapshot() int {
	return l.journal.snapshot()
}

// RevertToSnapshot undoes every journalled change since the savepoint. The
// witness is left intact: touched keys are the input to the next prefetch
// iteration even though the state writes are discarded.
func (l *WitnessLedger) RevertToSnapshot(id int) {
	l.journal.revertToSnapshot(id, l)
}

// DiscardSnapshot commits a savepoint, keeping its changes.
func (l *WitnessLedger) DiscardSnapshot(id int) {
	l.journal.discardSnapshot(id)
}

// --- Logs ---

func (l *WitnessLedger) AddLog(log *types.Log) {
	l.journal.append(logChange{prevLen: len(l.logs)})
	l.logs = append(l.logs, log)
}

// Logs returns the logs emitted since the ledger was created.
func (l *WitnessLedger) Logs() []*types.Log {
	return l.logs
}

// --- Refund counter ---

func (l *WitnessLedger) AddRefund(gas uint64) {
	l.journal.append(refundChange{prev: l.refund})
	l.refund += gas
}

func (l *WitnessLedger) SubRefund(gas uint64) {
	l.journal.append(refundChange{prev: l.refund})
	l.refund -= gas
}

func (l *WitnessLedger) GetRefund() uint64 {
	return l.refund
}

// --- Access list (EIP-2929) ---

func (l *WitnessLedger) AddAddressToAccessList(addr types.Address) {
	if !l.warm.warmAddress(addr) {
		l.journal.append(accessListAddAccountChange{addr: addr})
	}
}

func (l *WitnessLedger) AddSlotToAccessList(addr types.Address, slot types.Hash) {
	addrWarm, slotWarm := l.warm.warmSlot(addr, slot)
	if !addrWarm {
		l.journal.append(accessListAddAccountChange{addr: addr})
	}
	if !slotWarm {
		l.journal.append(accessListAddSlotChange{addr: addr, slot: slot})
	}
}

func (l *WitnessLedger) AddressInAccessList(addr types.Address) bool {
	return l.warm.containsAddress(addr)
}

func (l *WitnessLedger) SlotInAccessList(addr types.Address, slot types.Hash) (addressOk bool, slotOk bool) {
	return l.warm.containsSlot(addr, slot)
}

// --- Transient storage (EIP-1153) ---

func (l *WitnessLedger) GetTransientState(addr types.Address, key types.Hash) types.Hash {
	if slots, ok := l.transientStorage[addr]; ok {
		return slots[key]
	}
	return types.Hash{}
}

func (l *WitnessLedger) SetTransientState(addr types.Address, key types.Hash, value types.Hash) {
	prev := l.GetTransientState(addr, key)
	l.journal.append(transientStorageChange{addr: addr, key: key, prev: prev})
	if _, ok := l.transientStorage[addr]; !ok {
		l.transientStorage[addr] = make(map[types.Hash]types.Hash)
	}
	l.transientStorage[addr][key] = value
}
