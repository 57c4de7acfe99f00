// Package core holds the chain configuration and transaction-level gas rules
// shared by the ledger, the EVM and the prefetch engine.
package core

import "math/big"

// ChainConfig holds chain-level configuration for fork scheduling.
// Pre-merge forks are activated by block number, post-merge by timestamp.
type ChainConfig struct {
	ChainID *big.Int

	// Block-number based forks (pre-merge)
	HomesteadBlock      *big.Int
	EIP150Block         *big.Int
	EIP155Block         *big.Int
	EIP158Block         *big.Int
	ByzantiumBlock      *big.Int
	ConstantinopleBlock *big.Int
	PetersburgBlock     *big.Int
	IstanbulBlock       *big.Int
	MuirGlacierBlock    *big.Int
	BerlinBlock         *big.Int
	LondonBlock         *big.Int
	ArrowGlacierBlock   *big.Int
	GrayGlacierBlock    *big.Int

	// TerminalTotalDifficulty triggers the merge consensus upgrade.
	TerminalTotalDifficulty *big.Int

	// Timestamp-based forks (post-merge)
	ShanghaiTime *uint64
	CancunTime   *uint64
	PragueTime   *uint64
}

func isBlockForked(forkBlock, head *big.Int) bool {
	if forkBlock == nil || head == nil {
		return false
	}
	return forkBlock.Cmp(head) <= 0
}

func isTimestampForked(forkTime *uint64, blockTime uint64) bool {
	if forkTime == nil {
		return false
	}
	return *forkTime <= blockTime
}

// IsHomestead returns whether the given block number is at or past Homestead.
func (c *ChainConfig) IsHomestead(num *big.Int) bool {
	return isBlockForked(c.HomesteadBlock, num)
}

// IsEIP150 returns whether the given block number is at or past EIP-150.
func (c *ChainConfig) IsEIP150(num *big.Int) bool {
	return isBlockForked(c.EIP150Block, num)
}

// IsEIP158 returns whether the given block number is at or past EIP-158.
func (c *ChainConfig) IsEIP158(num *big.Int) bool {
	return isBlockForked(c.EIP158Block, num)
}

// IsByzantium returns whether the given block number is at or past Byzantium.
func (c *ChainConfig) IsByzantium(num *big.Int) bool {
	return isBlockForked(c.ByzantiumBlock, num)
}

// IsConstantinople returns whether the given block number is at or past Constantinople.
func (c *ChainConfig) IsConstantinople(num *big.Int) bool {
	return isBlockForked(c.ConstantinopleBlock, num)
}

// IsPetersburg returns whether the given block number is at or past Petersburg.
// Petersburg is a fix-fork for Constantinople; if PetersburgBlock is nil it
// activates at the same block as Constantinople.
func (c *ChainConfig) IsPetersburg(num *big.Int) bool {
	return isBlockForked(c.PetersburgBlock, num) || c.PetersburgBlock == nil && isBlockForked(c.ConstantinopleBlock, num)
}

// IsIstanbul returns whether the given block number is at or past Istanbul.
func (c *ChainConfig) IsIstanbul(num *big.Int) bool {
	return isBlockForked(c.IstanbulBlock, num)
}

// IsBerlin returns whether the given block number is at or past Berlin.
func (c *ChainConfig) IsBerlin(num *big.Int) bool {
	return isBlockForked(c.BerlinBlock, num)
}

// IsLondon returns whether the given block number is at or past London.
func (c *ChainConfig) IsLondon(num *big.Int) bool {
	return isBlockForked(c.LondonBlock, num)
}

// IsShanghai returns whether the given block time is at or past Shanghai.
func (c *ChainConfig) IsShanghai(time uint64) bool {
	return isTimestampForked(c.ShanghaiTime, time)
}

// IsCancun returns whether the given block time is at or past Cancun.
func (c *ChainConfig) IsCancun(time uint64) bool {
	return isTimestampForked(c.CancunTime, time)
}

// IsPrague returns whether the given block time is at or past Prague.
func (c *ChainConfig) IsPrague(time uint64) bool {
	return isTimestampForked(c.PragueTime, time)
}

// Rules contains boolean flags for quick fork activation checks. The EVM
// consumes this instead of ChainConfig to avoid re-deriving fork state per
// opcode.
type Rules struct {
	ChainID                                                 *big.Int
	IsHomestead, IsEIP150, IsEIP158                         bool
	IsByzantium, IsConstantinople, IsPetersburg, IsIstanbul bool
	IsBerlin, IsLondon                                      bool
	IsMerge, IsShanghai, IsCancun, IsPrague                 bool
}

// Rules derives the fork flags for the given block number and timestamp.
// Headers handed to the prefetch engine are post-merge in practice; isMerge
// is carried explicitly so historical headers still select correct rules.
func (c *ChainConfig) Rules(num *big.Int, isMerge bool, timestamp uint64) Rules {
	isMerge = isMerge && c.IsLondon(num)
	return Rules{
		ChainID:          new(big.Int).Set(c.ChainID),
		IsHomestead:      c.IsHomestead(num),
		IsEIP150:         c.IsEIP150(num),
		IsEIP158:         c.IsEIP158(num),
		IsByzantium:      c.IsByzantium(num),
		IsConstantinople: c.IsConstantinople(num),
		IsPetersburg:     c.IsPetersburg(num),
		IsIstanbul:       c.IsIstanbul(num),
		IsBerlin:         c.IsBerlin(num),
		IsLondon:         c.IsLondon(num),
		IsMerge:          isMerge,
		IsShanghai:       isMerge && c.IsShanghai(timestamp),
		IsCancun:         isMerge && c.IsCancun(timestamp),
		IsPrague:         isMerge && c.IsPrague(timestamp),
	}
}

// NetworkId selects a predefined chain configuration.
type NetworkId uint64

const (
	MainnetNetwork NetworkId = 1
	SepoliaNetwork NetworkId = 11155111
	HoleskyNetwork NetworkId = 17000
)

// Config returns the chain config for the network, defaulting to mainnet for
// unknown ids.
func (n NetworkId) Config() *ChainConfig {
	switch n {
	case SepoliaNetwork:
		return SepoliaConfig
	case HoleskyNetwork:
		return HoleskyConfig
	default:
		return MainnetConfig
	}
}

func newUint64(v uint64) *uint64 { return &v }

// Mainnet TTD: 58,750,000,000,000,000,000,000
var MainnetTerminalTotalDifficulty, _ = new(big.Int).SetString("58750000000000000000000", 10)

// MainnetConfig is the chain config for Ethereum mainnet.
var MainnetConfig = &ChainConfig{
	ChainID:                 big.NewInt(1),
	HomesteadBlock:          big.NewInt(1_150_000),
	EIP150Block:             big.NewInt(2_463_000),
	EIP155Block:             big.NewInt(2_675_000),
	EIP158Block:             big.NewInt(2_675_000),
	ByzantiumBlock:          big.NewInt(4_370_000),
	ConstantinopleBlock:     big.NewInt(7_280_000),
	PetersburgBlock:         big.NewInt(7_280_000),
	IstanbulBlock:           big.NewInt(9_069_000),
	MuirGlacierBlock:        big.NewInt(9_200_000),
	BerlinBlock:             big.NewInt(12_244_000),
	LondonBlock:             big.NewInt(12_965_000),
	ArrowGlacierBlock:       big.NewInt(13_773_000),
	GrayGlacierBlock:        big.NewInt(15_050_000),
	TerminalTotalDifficulty: MainnetTerminalTotalDifficulty,
	ShanghaiTime:            newUint64(1_681_338_455),
	CancunTime:              newUint64(1_710_338_135),
	PragueTime:              newUint64(1_746_612_311),
}

// SepoliaConfig is the chain config for the Sepolia testnet.
var SepoliaConfig = &ChainConfig{
	ChainID:                 big.NewInt(11155111),
	HomesteadBlock:          big.NewInt(0),
	EIP150Block:             big.NewInt(0),
	EIP155Block:             big.NewInt(0),
	EIP158Block:             big.NewInt(0),
	ByzantiumBlock:          big.NewInt(0),
	ConstantinopleBlock:     big.NewInt(0),
	PetersburgBlock:         big.NewInt(0),
	IstanbulBlock:           big.NewInt(0),
	MuirGlacierBlock:        big.NewInt(0),
	BerlinBlock:             big.NewInt(0),
	LondonBlock:             big.NewInt(0),
	TerminalTotalDifficulty: new(big.Int).SetUint64(17_000_000_000_000_000),
	ShanghaiTime:            newUint64(1_677_557_088),
	CancunTime:              newUint64(1_706_655_072),
	PragueTime:              newUint64(1_741_159_776),
}

// HoleskyConfig is the chain config for the Holesky testnet.
var HoleskyConfig = &ChainConfig{
	ChainID:                 big.NewInt(17000),
	HomesteadBlock:          big.NewInt(0),
	EIP150Block:             big.NewInt(0),
	EIP155Block:             big.NewInt(0),
	EIP158Block:             big.NewInt(0),
	ByzantiumBlock:          big.NewInt(0),
	ConstantinopleBlock:     big.NewInt(0),
	PetersburgBlock:         big.NewInt(0),
	IstanbulBlock:           big.NewInt(0),
	MuirGlacierBlock:        big.NewInt(0),
	BerlinBlock:             big.NewInt(0),
	LondonBlock:             big.NewInt(0),
	TerminalTotalDifficulty: big.NewInt(0),
	ShanghaiTime:            newUint64(1_696_000_704),
	CancunTime:              newUint64(1_707_305_664),
	PragueTime:              newUint64(1_740_434_112),
}
