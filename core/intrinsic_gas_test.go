package core

import (
	"testing"

	"github.com/lantern-eth/lantern/core/types"
)

func TestIntrinsicGas_Base(t *testing.T) {
	gas, err := IntrinsicGas(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gas != TxGas {
		t.Fatalf("expected %d, got %d", TxGas, gas)
	}
}

func TestIntrinsicGas_Data(t *testing.T) {
	// Two zero bytes, three non-zero bytes.
	data := []byte{0, 0, 1, 2, 3}
	gas, err := IntrinsicGas(data, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := TxGas + 2*TxDataZeroGas + 3*TxDataNonZeroGas
	if gas != want {
		t.Fatalf("expected %d, got %d", want, gas)
	}
}

func TestIntrinsicGas_AccessList(t *testing.T) {
	var addr types.Address
	addr[19] = 1
	al := types.AccessList{
		{Address: addr, StorageKeys: []types.Hash{{}, {}}},
	}
	gas, err := IntrinsicGas(nil, al)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := TxGas + TxAccessListAddressGas + 2*TxAccessListStorageKeyGas
	if gas != want {
		t.Fatalf("expected %d, got %d", want, gas)
	}
}
