package asyncevm

import (
	"context"
	"sync"

	"github.com/lantern-eth/lantern/core/types"
)

// MemoryBackend is a map-backed StateBackend. It serves as the reference
// implementation of the backend contract and as the engine's test double:
// it counts queries per key and supports injected per-key failures.
//
// Keys not present in the maps are authoritative absences (nil, nil), the
// same answer a proving backend gives for provably empty state.
type MemoryBackend struct {
	mu       sync.Mutex
	accounts map[types.Address]types.Account
	storage  map[fetchKey]types.Hash
	code     map[types.Address][]byte
	failures map[fetchKey]error
	calls    map[fetchKey]int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		accounts: make(map[types.Address]types.Account),
		storage:  make(map[fetchKey]types.Hash),
		code:     make(map[types.Address][]byte),
		failures: make(map[fetchKey]error),
		calls:    make(map[fetchKey]int),
	}
}

// SetAccount installs an account.
func (b *MemoryBackend) SetAccount(addr types.Address, acct types.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[addr] = acct.Copy()
}

// SetStorage installs a storage slot value.
func (b *MemoryBackend) SetStorage(addr types.Address, slot, value types.Hash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.storage[storageKey(addr, slot)] = value
}

// SetCode installs contract code.
func (b *MemoryBackend) SetCode(addr types.Address, code []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.code[addr] = append([]byte(nil), code...)
}

// FailAccount makes account lookups for addr return err.
func (b *MemoryBackend) FailAccount(addr types.Address, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[accountKey(addr)] = err
}

// FailStorage makes storage lookups for (addr, slot) return err.
func (b *MemoryBackend) FailStorage(addr types.Address, slot types.Hash, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[storageKey(addr, slot)] = err
}

// FailCode makes code lookups for addr return err.
func (b *MemoryBackend) FailCode(addr types.Address, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[codeKey(addr)] = err
}

// AccountCalls returns how many times the account was queried.
func (b *MemoryBackend) AccountCalls(addr types.Address) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[accountKey(addr)]
}

// StorageCalls returns how many times the slot was queried.
func (b *MemoryBackend) StorageCalls(addr types.Address, slot types.Hash) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[storageKey(addr, slot)]
}

// CodeCalls returns how many times the code was queried.
func (b *MemoryBackend) CodeCalls(addr types.Address) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[codeKey(addr)]
}

// TotalCalls returns the total number of backend queries served.
func (b *MemoryBackend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

// GetAccount implements StateBackend.
func (b *MemoryBackend) GetAccount(ctx context.Context, header *types.Header, addr types.Address) (*types.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := accountKey(addr)
	b.calls[key]++
	if err := b.failures[key]; err != nil {
		return nil, err
	}
	acct, ok := b.accounts[addr]
	if !ok {
		return nil, nil
	}
	cp := acct.Copy()
	return &cp, nil
}

// GetStorage implements StateBackend.
func (b *MemoryBackend) GetStorage(ctx context.Context, header *types.Header, addr types.Address, slot types.Hash) (*types.Hash, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := storageKey(addr, slot)
	b.calls[key]++
	if err := b.failures[key]; err != nil {
		return nil, err
	}
	value, ok := b.storage[key]
	if !ok {
		return nil, nil
	}
	return &value, nil
}

// GetCode implements StateBackend.
func (b *MemoryBackend) GetCode(ctx context.Context, header *types.Header, addr types.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := codeKey(addr)
	b.calls[key]++
	if err := b.failures[key]; err != nil {
		return nil, err
	}
	return append([]byte(nil), b.code[addr]...), nil
}

var _ StateBackend = (*MemoryBackend)(nil)
