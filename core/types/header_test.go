package types

import (
	"math/big"
	"testing"
)

func testHeader() *Header {
	return &Header{
		ParentHash: HexToHash("0x01"),
		Coinbase:   HexToAddress("0x02"),
		Difficulty: new(big.Int),
		Number:     big.NewInt(20_000_000),
		GasLimit:   30_000_000,
		Time:       1_700_000_000,
		BaseFee:    big.NewInt(7),
	}
}

func TestHeaderHashDeterministic(t *testing.T) {
	h1 := testHeader()
	h2 := testHeader()
	if h1.Hash() != h2.Hash() {
		t.Fatal("identical headers must hash identically")
	}
	// Cached value is stable.
	if h1.Hash() != h1.Hash() {
		t.Fatal("hash should be stable across calls")
	}
}

func TestHeaderHashSensitivity(t *testing.T) {
	h1 := testHeader()
	h2 := testHeader()
	h2.GasLimit++
	if h1.Hash() == h2.Hash() {
		t.Fatal("different headers must hash differently")
	}

	h3 := testHeader()
	excess := uint64(1)
	h3.ExcessBlobGas = &excess
	h3.WithdrawalsHash = &Hash{}
	h3.BlobGasUsed = new(uint64)
	if h3.Hash() == h1.Hash() {
		t.Fatal("optional fields must affect the hash")
	}
}
