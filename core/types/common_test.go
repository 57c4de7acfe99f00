package types

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
)

func TestAddressHexRoundTrip(t *testing.T) {
	a := HexToAddress("0x00000000000000000000000000000000000000ff")
	if a[19] != 0xff {
		t.Fatalf("expected last byte 0xff, got %x", a[19])
	}
	if a.Hex() != "0x00000000000000000000000000000000000000ff" {
		t.Fatalf("unexpected hex: %s", a.Hex())
	}

	var decoded Address
	if err := json.Unmarshal([]byte(`"`+a.Hex()+`"`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded != a {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, a)
	}
}

func TestHashSetBytesPadding(t *testing.T) {
	h := BytesToHash([]byte{0x01, 0x02})
	if h[30] != 0x01 || h[31] != 0x02 {
		t.Fatalf("expected left padding, got %s", h)
	}
}

func TestHashU256RoundTrip(t *testing.T) {
	v := uint256.NewInt(123456)
	h := U256ToHash(v)
	if !h.U256().Eq(v) {
		t.Fatalf("round trip mismatch: %s", h.U256())
	}
}

func TestCmpOrdering(t *testing.T) {
	lo := HexToAddress("0x01")
	hi := HexToAddress("0x02")
	if lo.Cmp(hi) >= 0 {
		t.Fatal("expected lo < hi")
	}
	if hi.Cmp(lo) <= 0 {
		t.Fatal("expected hi > lo")
	}
	if lo.Cmp(lo) != 0 {
		t.Fatal("expected equal addresses to compare 0")
	}
}

func TestAccountCopyIsDeep(t *testing.T) {
	acct := NewAccount()
	acct.Balance = uint256.NewInt(10)
	cp := acct.Copy()
	cp.Balance.SetUint64(99)
	if !acct.Balance.Eq(uint256.NewInt(10)) {
		t.Fatalf("copy aliased the balance, got %s", acct.Balance)
	}
}
