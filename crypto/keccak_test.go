package crypto

import (
	"testing"

	"github.com/lantern-eth/lantern/core/types"
)

func TestKeccak256EmptyInput(t *testing.T) {
	if got := Keccak256Hash(); got != types.EmptyCodeHash {
		t.Fatalf("keccak256 of empty input mismatch: %s", got)
	}
}

func TestKeccak256KnownVector(t *testing.T) {
	// keccak256("abc")
	want := types.HexToHash("0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45")
	if got := Keccak256Hash([]byte("abc")); got != want {
		t.Fatalf("keccak256(\"abc\") mismatch: %s", got)
	}
}

func TestKeccak256MultiChunk(t *testing.T) {
	joined := Keccak256Hash([]byte("ab"), []byte("c"))
	whole := Keccak256Hash([]byte("abc"))
	if joined != whole {
		t.Fatal("chunked input must hash like contiguous input")
	}
}
