package types

import (
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// Header represents an Ethereum block header. It is the sole identifier of a
// point in chain history that the prefetch engine operates against: every
// state backend lookup is keyed by it, and the EVM block context is derived
// from it.
type Header struct {
	ParentHash  Hash
	UncleHash   Hash
	Coinbase    Address
	Root        Hash
	TxHash      Hash
	ReceiptHash Hash
	Bloom       Bloom
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   Hash
	Nonce       BlockNonce

	// EIP-1559
	BaseFee *big.Int

	// EIP-4895: Beacon chain push withdrawals
	WithdrawalsHash *Hash

	// EIP-4844: Shard blob transactions
	BlobGasUsed   *uint64
	ExcessBlobGas *uint64

	// EIP-4788: Beacon block root in the EVM
	ParentBeaconRoot *Hash

	// EIP-7685: General purpose execution layer requests
	RequestsHash *Hash

	// Cached hash, not part of the encoding.
	hash atomic.Pointer[Hash]
}

// rlpHeader mirrors Header with the exact consensus field order and optional
// tags; the cached hash stays out of the encoding.
type rlpHeader struct {
	ParentHash       Hash
	UncleHash        Hash
	Coinbase         Address
	Root             Hash
	TxHash           Hash
	ReceiptHash      Hash
	Bloom            Bloom
	Difficulty       *big.Int
	Number           *big.Int
	GasLimit         uint64
	GasUsed          uint64
	Time             uint64
	Extra            []byte
	MixDigest        Hash
	Nonce            BlockNonce
	BaseFee          *big.Int `rlp:"optional"`
	WithdrawalsHash  *Hash    `rlp:"optional"`
	BlobGasUsed      *uint64  `rlp:"optional"`
	ExcessBlobGas    *uint64  `rlp:"optional"`
	ParentBeaconRoot *Hash    `rlp:"optional"`
	RequestsHash     *Hash    `rlp:"optional"`
}

// Hash returns the keccak256 hash of the RLP-encoded header. The result is
// cached after the first computation; headers are treated as immutable once
// handed to the engine.
func (h *Header) Hash() Hash {
	if cached := h.hash.Load(); cached != nil {
		return *cached
	}
	enc, err := rlp.EncodeToBytes(&rlpHeader{
		ParentHash:       h.ParentHash,
		UncleHash:        h.UncleHash,
		Coinbase:         h.Coinbase,
		Root:             h.Root,
		TxHash:           h.TxHash,
		ReceiptHash:      h.ReceiptHash,
		Bloom:            h.Bloom,
		Difficulty:       h.Difficulty,
		Number:           h.Number,
		GasLimit:         h.GasLimit,
		GasUsed:          h.GasUsed,
		Time:             h.Time,
		Extra:            h.Extra,
		MixDigest:        h.MixDigest,
		Nonce:            h.Nonce,
		BaseFee:          h.BaseFee,
		WithdrawalsHash:  h.WithdrawalsHash,
		BlobGasUsed:      h.BlobGasUsed,
		ExcessBlobGas:    h.ExcessBlobGas,
		ParentBeaconRoot: h.ParentBeaconRoot,
		RequestsHash:     h.RequestsHash,
	})
	if err != nil {
		// All header field types are encodable; an error here is a bug.
		panic("types: header RLP encoding failed: " + err.Error())
	}
	d := sha3.NewLegacyKeccak256()
	d.Write(enc)
	hash := BytesToHash(d.Sum(nil))
	h.hash.Store(&hash)
	return hash
}
