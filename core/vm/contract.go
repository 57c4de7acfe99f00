package vm

import (
	"github.com/holiman/uint256"

	"github.com/lantern-eth/lantern/core/types"
)

// Contract represents a contract in the context of one execution frame.
type Contract struct {
	CallerAddress types.Address
	Address       types.Address
	Code          []byte
	CodeHash      types.Hash
	Input         []byte
	Gas           uint64
	Value         *uint256.Int
	jumpdests     map[uint64]bool // cached JUMPDEST analysis
}

// NewContract creates a new contract frame.
func NewContract(caller, addr types.Address, value *uint256.Int, gas uint64) *Contract {
	if value == nil {
		value = new(uint256.Int)
	}
	return &Contract{
		CallerAddress: caller,
		Address:       addr,
		Value:         value,
		Gas:           gas,
	}
}

// GetOp returns the opcode at position n in the contract code.
func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

// UseGas attempts to consume the given gas. Returns false if insufficient.
func (c *Contract) UseGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}
	c.Gas -= gas
	return true
}

// RefundGas returns unused gas from a completed subcall.
func (c *Contract) RefundGas(gas uint64) {
	c.Gas += gas
}

// validJumpdest checks whether dest is a valid JUMPDEST position in the code.
func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	if overflow || udest >= uint64(len(c.Code)) {
		return false
	}
	if OpCode(c.Code[udest]) != JUMPDEST {
		return false
	}
	// JUMPDEST analysis rules out positions inside PUSH data.
	return c.isCode(udest)
}

// isCode returns true if the given offset is an opcode, not PUSH data.
func (c *Contract) isCode(pos uint64) bool {
	if c.jumpdests == nil {
		c.jumpdests = make(map[uint64]bool)
		c.analyzeJumpdests()
	}
	return c.jumpdests[pos]
}

// analyzeJumpdests scans the code to identify all valid JUMPDEST locations.
func (c *Contract) analyzeJumpdests() {
	for i := uint64(0); i < uint64(len(c.Code)); i++ {
		op := OpCode(c.Code[i])
		if op == JUMPDEST {
			c.jumpdests[i] = true
		}
		if op.IsPush() {
			i += uint64(op - PUSH1 + 1)
		}
	}
}
