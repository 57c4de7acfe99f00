// Package asyncevm evaluates EVM calls against blocks whose state is not
// locally resident. State is pulled on demand from an asynchronous backend:
// the engine repeatedly executes the call over a partial in-memory ledger,
// reads the set of keys the EVM touched (the witness), fetches what is
// missing, and re-runs until the witness reaches a fixed point. The last
// execution then saw exactly the state a fully resident node would have.
package asyncevm

import (
	"github.com/lantern-eth/lantern/core"
	"github.com/lantern-eth/lantern/log"
)

const (
	// CallLimit bounds the number of EVM invocations per call. Convergence
	// normally takes on the order of the call's depth of novel state
	// accesses; the ceiling guards against pathological fetch cycles.
	CallLimit = 10_000

	// CallGasCap is the gas limit applied when the caller supplies none,
	// and the maximum a caller may request.
	CallGasCap uint64 = 50_000_000
)

// Engine is a process-lifetime object: immutable chain config plus the
// backend handle. Each public API invocation builds its own throwaway
// ledger, so invocations may run concurrently on separate goroutines.
type Engine struct {
	config  *core.ChainConfig
	backend StateBackend
	log     *log.Logger
}

// New creates an engine for the given chain config. A nil config selects
// mainnet.
func New(config *core.ChainConfig, backend StateBackend) *Engine {
	if config == nil {
		config = core.MainnetConfig
	}
	return &Engine{
		config:  config,
		backend: backend,
		log:     log.Default().Module("asyncevm"),
	}
}

// NewForNetwork creates an engine for a named network.
func NewForNetwork(network core.NetworkId, backend StateBackend) *Engine {
	return New(network.Config(), backend)
}

// SetLogger replaces the engine's logger. Intended for tests and embedders
// with their own logging setup.
func (e *Engine) SetLogger(l *log.Logger) {
	if l != nil {
		e.log = l
	}
}
