package types

import "testing"

func TestAccessListSortCanonical(t *testing.T) {
	d := HexToAddress("0x0d")
	e := HexToAddress("0x0e")
	al := AccessList{
		{Address: e, StorageKeys: []Hash{HexToHash("0x05")}},
		{Address: d, StorageKeys: []Hash{HexToHash("0x02"), HexToHash("0x01")}},
	}
	al.Sort()

	if al[0].Address != d || al[1].Address != e {
		t.Fatalf("addresses not sorted: %s, %s", al[0].Address, al[1].Address)
	}
	if al[0].StorageKeys[0] != HexToHash("0x01") || al[0].StorageKeys[1] != HexToHash("0x02") {
		t.Fatalf("storage keys not sorted: %v", al[0].StorageKeys)
	}
}

func TestAccessListCopyIsDeep(t *testing.T) {
	al := AccessList{{Address: HexToAddress("0x01"), StorageKeys: []Hash{HexToHash("0x01")}}}
	cp := al.Copy()
	cp[0].StorageKeys[0] = HexToHash("0xff")
	if al[0].StorageKeys[0] != HexToHash("0x01") {
		t.Fatal("copy aliased the storage keys")
	}
}

func TestAccessListStorageKeyCount(t *testing.T) {
	al := AccessList{
		{Address: HexToAddress("0x01"), StorageKeys: []Hash{{}, {}}},
		{Address: HexToAddress("0x02"), StorageKeys: []Hash{{}}},
	}
	if n := al.StorageKeyCount(); n != 3 {
		t.Fatalf("expected 3 keys, got %d", n)
	}
}
