package types

import "sort"

// AccessTuple is one entry of an EIP-2930 access list: an address and the
// storage keys the transaction will touch under it.
type AccessTuple struct {
	Address     Address `json:"address"`
	StorageKeys []Hash  `json:"storageKeys"`
}

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// StorageKeyCount returns the total number of storage keys across all tuples.
func (al AccessList) StorageKeyCount() int {
	n := 0
	for _, tuple := range al {
		n += len(tuple.StorageKeys)
	}
	return n
}

// Copy returns a deep copy of the access list.
func (al AccessList) Copy() AccessList {
	if al == nil {
		return nil
	}
	cp := make(AccessList, len(al))
	for i, tuple := range al {
		cp[i] = AccessTuple{
			Address:     tuple.Address,
			StorageKeys: append([]Hash(nil), tuple.StorageKeys...),
		}
	}
	return cp
}

// Sort canonicalises the list in place: addresses ascending by big-endian
// byte order, each tuple's storage keys likewise.
func (al AccessList) Sort() {
	for _, tuple := range al {
		keys := tuple.StorageKeys
		sort.Slice(keys, func(i, j int) bool { return keys[i].Cmp(keys[j]) < 0 })
	}
	sort.Slice(al, func(i, j int) bool { return al[i].Address.Cmp(al[j].Address) < 0 })
}
