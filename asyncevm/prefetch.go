package asyncevm

import (
	"context"

	"github.com/lantern-eth/lantern/core/state"
	"github.com/lantern-eth/lantern/core/types"
)

// runPrefetch is the execute-then-fetch fixed point. The EVM acts as an
// oracle: given whatever state is resident, it names the keys it would have
// read. Each iteration either reveals new keys to fetch or proves that the
// most recent execution saw exactly the right state, in which case its
// result is authoritative.
//
// In optimistic mode every missing key is fetched concurrently and awaited
// before the next iteration; the loop stops when the witness of two
// consecutive runs matches. In conservative mode only the first missing key
// in touch order is awaited per iteration, the rest keep resolving in the
// background; the loop stops when an execution reveals nothing left to
// fetch. Both modes converge on the same result, trading backend round trips
// against wasted fetches.
func (e *Engine) runPrefetch(ctx context.Context, header *types.Header, args *types.TransactionArgs, ledger *state.WitnessLedger, optimistic bool) (CallResult, error) {
	// Tear down any in-flight background queries on every exit path.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fetcher := newFetcher(e.backend, header, ledger, e.log)

	// Pre-seed the callee's code: the call cannot begin without it.
	to := *args.To
	if task := fetcher.start(ctx, codeKey(to)); task != nil {
		if err := fetcher.await(ctx, task); err != nil {
			return CallResult{}, err
		}
	}
	fetcher.markFetched(codeKey(to))

	gasLimit := args.GasOrDefault(CallGasCap)

	var (
		lastWitness *state.WitnessTable
		lastResult  CallResult
	)
	for callCount := 0; callCount < CallLimit; callCount++ {
		ledger.ClearWitness()
		sp := ledger.Snapshot()
		lastResult = e.execute(ledger, header, args, gasLimit)
		ledger.RevertToSnapshot(sp)

		witness := ledger.Witness().Copy()
		tasks, stateFetchDone := fetcher.schedule(ctx, witness)

		if optimistic {
			if lastWitness != nil && witness.Equal(lastWitness) {
				e.log.Debug("witness converged", "iterations", callCount+1, "keys", witness.Len())
				break
			}
		} else if !stateFetchDone {
			e.log.Debug("state fetch done", "iterations", callCount+1, "keys", witness.Len())
			break
		}
		lastWitness = witness

		if optimistic {
			for _, task := range tasks {
				if err := fetcher.await(ctx, task); err != nil {
					return CallResult{}, err
				}
			}
		} else if len(tasks) > 0 {
			// Await only the first missing key; later iterations pick up the
			// rest as they re-discover them.
			if err := fetcher.await(ctx, tasks[0]); err != nil {
				return CallResult{}, err
			}
		}
	}
	return lastResult, nil
}
