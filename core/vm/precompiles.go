package vm

import (
	"crypto/sha256"
	"math/big"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160"

	"github.com/lantern-eth/lantern/core/types"
)

// PrecompiledContract is a native contract at a fixed address.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// Precompile gas costs.
const (
	EcrecoverGas        uint64 = 3000
	Sha256BaseGas       uint64 = 60
	Sha256PerWordGas    uint64 = 12
	Ripemd160BaseGas    uint64 = 600
	Ripemd160PerWordGas uint64 = 120
	IdentityBaseGas     uint64 = 15
	IdentityPerWordGas  uint64 = 3
)

var precompiledContracts = map[types.Address]PrecompiledContract{
	types.BytesToAddress([]byte{0x01}): &ecrecover{},
	types.BytesToAddress([]byte{0x02}): &sha256hash{},
	types.BytesToAddress([]byte{0x03}): &ripemd160hash{},
	types.BytesToAddress([]byte{0x04}): &dataCopy{},
}

// activePrecompiles returns the precompile set for the given fork rules.
// Only the four classic precompiles are implemented; calls to the higher
// addresses behave as calls to empty accounts.
func activePrecompiles(rules ForkRules) map[types.Address]PrecompiledContract {
	return precompiledContracts
}

// ecrecover implements the ECDSA public key recovery precompile (0x01).
type ecrecover struct{}

func (c *ecrecover) RequiredGas(input []byte) uint64 {
	return EcrecoverGas
}

func (c *ecrecover) Run(input []byte) ([]byte, error) {
	const inputLen = 128
	input = rightPad(input, inputLen)

	// Input layout: hash (32) | v (32) | r (32) | s (32).
	r := new(big.Int).SetBytes(input[64:96])
	s := new(big.Int).SetBytes(input[96:128])
	v := input[63] - 27

	// Upper v bytes must be zero and the signature must be valid.
	if !allZero(input[32:63]) || !gethcrypto.ValidateSignatureValues(v, r, s, false) {
		return nil, nil
	}

	sig := make([]byte, 65)
	copy(sig[:32], input[64:96])
	copy(sig[32:64], input[96:128])
	sig[64] = v

	pubKey, err := gethcrypto.Ecrecover(input[:32], sig)
	if err != nil {
		return nil, nil
	}
	// Address is the last 20 bytes of keccak256(pubkey[1:]), left-padded.
	addr := gethcrypto.Keccak256(pubKey[1:])[12:]
	out := make([]byte, 32)
	copy(out[12:], addr)
	return out, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// sha256hash implements the SHA-256 precompile (0x02).
type sha256hash struct{}

func (c *sha256hash) RequiredGas(input []byte) uint64 {
	return toWordSize(uint64(len(input)))*Sha256PerWordGas + Sha256BaseGas
}

func (c *sha256hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// ripemd160hash implements the RIPEMD-160 precompile (0x03).
type ripemd160hash struct{}

func (c *ripemd160hash) RequiredGas(input []byte) uint64 {
	return toWordSize(uint64(len(input)))*Ripemd160PerWordGas + Ripemd160BaseGas
}

func (c *ripemd160hash) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	out := make([]byte, 32)
	copy(out[12:], h.Sum(nil))
	return out, nil
}

// dataCopy implements the identity precompile (0x04).
type dataCopy struct{}

func (c *dataCopy) RequiredGas(input []byte) uint64 {
	return toWordSize(uint64(len(input)))*IdentityPerWordGas + IdentityBaseGas
}

func (c *dataCopy) Run(input []byte) ([]byte, error) {
	return append([]byte(nil), input...), nil
}
