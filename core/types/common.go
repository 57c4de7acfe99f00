// Package types defines the core data structures shared by the state ledger,
// the EVM and the prefetch engine.
package types

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

const (
	HashLength    = 32
	AddressLength = 20
	BloomLength   = 256
	NonceLength   = 8
)

// Hash represents the 32-byte Keccak256 hash of data, and doubles as the
// representation of a storage slot key or value.
type Hash [HashLength]byte

// Address represents the 20-byte address of an Ethereum account.
type Address [AddressLength]byte

// Bloom represents a 2048-bit log bloom filter.
type Bloom [BloomLength]byte

// BlockNonce is the 8-byte block nonce (legacy PoW, always zero post-merge).
type BlockNonce [NonceLength]byte

// BytesToHash converts bytes to Hash, left-padding if shorter than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string to Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// U256ToHash converts a 256-bit integer to its big-endian Hash representation.
func U256ToHash(v *uint256.Int) Hash {
	return Hash(v.Bytes32())
}

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed hex representation of the hash.
func (h Hash) Hex() string { return hexutil.Encode(h[:]) }

// SetBytes sets the hash from a byte slice, left-padding if necessary.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// IsZero returns whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// U256 returns the hash interpreted as a big-endian 256-bit integer.
func (h Hash) U256() *uint256.Int {
	return new(uint256.Int).SetBytes(h[:])
}

// Cmp compares two hashes by their big-endian byte representation.
func (h Hash) Cmp(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// MarshalText encodes the hash as 0x-prefixed hex for JSON.
func (h Hash) MarshalText() ([]byte, error) {
	return hexutil.Bytes(h[:]).MarshalText()
}

// UnmarshalText decodes a 0x-prefixed hex string into the hash.
func (h *Hash) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Hash", input, h[:])
}

// BytesToAddress converts bytes to Address, left-padding if shorter than 20 bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a hex string to Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the 0x-prefixed hex representation of the address.
func (a Address) Hex() string { return hexutil.Encode(a[:]) }

// SetBytes sets the address from a byte slice.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// IsZero returns whether the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Hash returns the address left-padded to 32 bytes.
func (a Address) Hash() Hash {
	return BytesToHash(a[:])
}

// Cmp compares two addresses by their big-endian byte representation.
func (a Address) Cmp(other Address) int {
	return bytes.Compare(a[:], other[:])
}

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// MarshalText encodes the address as 0x-prefixed hex for JSON.
func (a Address) MarshalText() ([]byte, error) {
	return hexutil.Bytes(a[:]).MarshalText()
}

// UnmarshalText decodes a 0x-prefixed hex string into the address.
func (a *Address) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Address", input, a[:])
}

// Account is the consensus representation of an Ethereum account: the four
// fields stored in the state trie. Root and CodeHash are informational for
// the prefetch engine; it never verifies them against fetched data.
type Account struct {
	Nonce    uint64
	Balance  *uint256.Int
	Root     Hash // storage trie root (EmptyRootHash for no storage)
	CodeHash Hash // keccak256 of code (EmptyCodeHash for EOAs)
}

// NewAccount creates an account with zero balance and empty storage.
func NewAccount() Account {
	return Account{
		Balance:  new(uint256.Int),
		CodeHash: EmptyCodeHash,
		Root:     EmptyRootHash,
	}
}

// Copy returns a deep copy of the account.
func (acc Account) Copy() Account {
	cp := acc
	if acc.Balance != nil {
		cp.Balance = new(uint256.Int).Set(acc.Balance)
	}
	return cp
}

// Log represents a contract log event emitted during EVM execution.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

var (
	// EmptyRootHash is the hash of an empty state trie.
	EmptyRootHash = HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

	// EmptyCodeHash is the hash of empty EVM bytecode (keccak256 of empty string).
	EmptyCodeHash = HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

	// EmptyUncleHash is the hash of an empty uncle list (keccak256 of RLP of empty list).
	EmptyUncleHash = HexToHash("1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")
)

// fromHex decodes a hex string, stripping an optional "0x" prefix. Invalid
// input yields an empty slice; use the text unmarshallers for strict parsing.
func fromHex(s string) []byte {
	b, err := hexutil.Decode(normalizeHex(s))
	if err != nil {
		return nil
	}
	return b
}

func normalizeHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return fmt.Sprintf("0x%s", s)
}
