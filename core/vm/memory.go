package vm

import "github.com/holiman/uint256"

// Memory implements the byte-addressable EVM memory with word-aligned
// expansion.
type Memory struct {
	store []byte
}

// NewMemory returns a new Memory instance.
func NewMemory() *Memory {
	return &Memory{}
}

// Set copies value into memory at the given offset.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("memory: out of bounds write")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes a 32-byte big-endian value at the given offset.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("memory: out of bounds write")
	}
	b := val.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

// Resize grows memory to the given size in bytes.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// Get returns a copy of the memory contents at [offset, offset+size).
func (m *Memory) Get(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// GetPtr returns a direct slice reference to memory at [offset, offset+size).
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Copy copies size bytes from src to dst within memory (MCOPY semantics).
func (m *Memory) Copy(dst, src, size uint64) {
	if size == 0 {
		return
	}
	copy(m.store[dst:dst+size], m.store[src:src+size])
}

// Len returns the current length of the memory in bytes.
func (m *Memory) Len() int {
	return len(m.store)
}
