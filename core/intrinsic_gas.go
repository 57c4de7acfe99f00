package core

import (
	"errors"

	"github.com/lantern-eth/lantern/core/types"
)

var ErrGasUint64Overflow = errors.New("gas uint64 overflow")

// Transaction-level gas constants.
const (
	// TxGas is the base gas cost of a transaction (21000).
	TxGas uint64 = 21000
	// TxDataZeroGas is the gas cost per zero byte of transaction data.
	TxDataZeroGas uint64 = 4
	// TxDataNonZeroGas is the gas cost per non-zero byte of transaction data.
	TxDataNonZeroGas uint64 = 16
	// TxAccessListAddressGas is the gas cost per access list address entry.
	TxAccessListAddressGas uint64 = 2400
	// TxAccessListStorageKeyGas is the gas cost per access list storage key.
	TxAccessListStorageKeyGas uint64 = 1900
)

// IntrinsicGas calculates the gas a call consumes before any EVM execution:
// the base cost, per-byte calldata cost, and EIP-2930 access list charges.
func IntrinsicGas(data []byte, accessList types.AccessList) (uint64, error) {
	gas := TxGas

	if len(data) > 0 {
		var zeros uint64
		for _, b := range data {
			if b == 0 {
				zeros++
			}
		}
		nonZeros := uint64(len(data)) - zeros

		if nonZeros > 0 {
			nzGas := nonZeros * TxDataNonZeroGas
			if nzGas/TxDataNonZeroGas != nonZeros {
				return 0, ErrGasUint64Overflow
			}
			gas += nzGas
			if gas < nzGas {
				return 0, ErrGasUint64Overflow
			}
		}

		zGas := zeros * TxDataZeroGas
		if zeros > 0 && zGas/TxDataZeroGas != zeros {
			return 0, ErrGasUint64Overflow
		}
		gas += zGas
		if gas < zGas {
			return 0, ErrGasUint64Overflow
		}
	}

	for _, tuple := range accessList {
		gas += TxAccessListAddressGas
		if gas < TxAccessListAddressGas {
			return 0, ErrGasUint64Overflow
		}
		keyGas := uint64(len(tuple.StorageKeys)) * TxAccessListStorageKeyGas
		if len(tuple.StorageKeys) > 0 && keyGas/TxAccessListStorageKeyGas != uint64(len(tuple.StorageKeys)) {
			return 0, ErrGasUint64Overflow
		}
		gas += keyGas
		if gas < keyGas {
			return 0, ErrGasUint64Overflow
		}
	}

	return gas, nil
}
