package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

func TestTransactionArgs_Defaults(t *testing.T) {
	args := &TransactionArgs{}
	if args.Sender() != (Address{}) {
		t.Fatal("missing from must default to the zero address")
	}
	if args.GasOrDefault(123) != 123 {
		t.Fatal("missing gas must take the fallback")
	}
	if !args.CallValue().IsZero() {
		t.Fatal("missing value must be zero")
	}
	if args.CallData() != nil {
		t.Fatal("missing input must be nil")
	}
}

func TestTransactionArgs_InputPreferredOverData(t *testing.T) {
	input := hexutil.Bytes{0x01}
	data := hexutil.Bytes{0x02}
	args := &TransactionArgs{Input: &input, Data: &data}
	if got := args.CallData(); len(got) != 1 || got[0] != 0x01 {
		t.Fatalf("expected input to win, got %x", got)
	}
	args = &TransactionArgs{Data: &data}
	if got := args.CallData(); len(got) != 1 || got[0] != 0x02 {
		t.Fatalf("expected data fallback, got %x", got)
	}
}

func TestTransactionArgs_CopyIsDeep(t *testing.T) {
	to := HexToAddress("0x01")
	value := (*hexutil.Big)(big.NewInt(5))
	input := hexutil.Bytes{0x01, 0x02}
	al := AccessList{{Address: to, StorageKeys: []Hash{HexToHash("0x01")}}}
	args := &TransactionArgs{To: &to, Value: value, Input: &input, AccessList: &al}

	cp := args.Copy()
	(*cp.Input)[0] = 0xff
	(*cp.AccessList)[0].StorageKeys[0] = HexToHash("0xff")
	*cp.To = HexToAddress("0x99")
	(*big.Int)(cp.Value).SetInt64(9)

	if input[0] != 0x01 {
		t.Fatal("copy aliased the input")
	}
	if al[0].StorageKeys[0] != HexToHash("0x01") {
		t.Fatal("copy aliased the access list")
	}
	if to != HexToAddress("0x01") {
		t.Fatal("copy aliased the to address")
	}
	if (*big.Int)(args.Value).Int64() != 5 {
		t.Fatal("copy aliased the value")
	}
}
