package asyncevm

import (
	"context"

	"github.com/lantern-eth/lantern/core/state"
	"github.com/lantern-eth/lantern/core/types"
	"github.com/lantern-eth/lantern/log"
)

type fetchKind int

const (
	fetchAccount fetchKind = iota
	fetchStorage
	fetchCode
)

// fetchKey identifies one backend query.
type fetchKey struct {
	kind fetchKind
	addr types.Address
	slot types.Hash // storage queries only
}

func accountKey(addr types.Address) fetchKey {
	return fetchKey{kind: fetchAccount, addr: addr}
}

func storageKey(addr types.Address, slot types.Hash) fetchKey {
	return fetchKey{kind: fetchStorage, addr: addr, slot: slot}
}

func codeKey(addr types.Address) fetchKey {
	return fetchKey{kind: fetchCode, addr: addr}
}

// fetchTask is the handle of one in-flight backend query. The goroutine
// behind it fills the result fields and closes done; the ledger is only
// written from the engine's goroutine, after an await.
type fetchTask struct {
	key   fetchKey
	done  chan struct{}
	acct  *types.Account
	value *types.Hash
	code  []byte
	err   error
}

// fetcher schedules backend queries for the keys a witness names and tracks
// which keys have already been resolved. Each key is queried at most once
// per engine call: keys move from in-flight to fetched, never back.
type fetcher struct {
	backend  StateBackend
	header   *types.Header
	ledger   *state.WitnessLedger
	fetched  map[fetchKey]bool
	inflight map[fetchKey]*fetchTask
	log      *log.Logger
}

func newFetcher(backend StateBackend, header *types.Header, ledger *state.WitnessLedger, logger *log.Logger) *fetcher {
	return &fetcher{
		backend:  backend,
		header:   header,
		ledger:   ledger,
		fetched:  make(map[fetchKey]bool),
		inflight: make(map[fetchKey]*fetchTask),
		log:      logger,
	}
}

// start launches the backend query for key unless it is already resolved or
// in flight, and returns the task handle to await.
func (f *fetcher) start(ctx context.Context, key fetchKey) *fetchTask {
	if f.fetched[key] {
		return nil
	}
	if task, ok := f.inflight[key]; ok {
		return task
	}
	task := &fetchTask{key: key, done: make(chan struct{})}
	f.inflight[key] = task
	go func() {
		defer close(task.done)
		switch key.kind {
		case fetchAccount:
			task.acct, task.err = f.backend.GetAccount(ctx, f.header, key.addr)
		case fetchStorage:
			task.value, task.err = f.backend.GetStorage(ctx, f.header, key.addr, key.slot)
		case fetchCode:
			task.code, task.err = f.backend.GetCode(ctx, f.header, key.addr)
		}
	}()
	return task
}

// await blocks until the task completes or ctx is cancelled, then writes the
// result into the ledger and marks the key fetched. Backend failures map to
// the engine's "Unable to get" errors; cancellation is propagated as-is.
func (f *fetcher) await(ctx context.Context, task *fetchTask) error {
	select {
	case <-task.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	delete(f.inflight, task.key)
	if task.err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.log.Debug("state fetch failed", "kind", task.key.kind, "addr", task.key.addr, "err", task.err)
		switch task.key.kind {
		case fetchAccount:
			return ErrUnableToGetAccount
		case fetchStorage:
			return ErrUnableToGetSlot
		default:
			return ErrUnableToGetCode
		}
	}
	switch task.key.kind {
	case fetchAccount:
		// Authoritative absence installs the zero account, so the key is
		// known-absent rather than unknown.
		acct := types.NewAccount()
		if task.acct != nil {
			acct = task.acct.Copy()
		}
		f.ledger.SeedAccount(task.key.addr, acct)
	case fetchStorage:
		var value types.Hash
		if task.value != nil {
			value = *task.value
		}
		f.ledger.SeedStorage(task.key.addr, task.key.slot, value)
	case fetchCode:
		f.ledger.SeedCode(task.key.addr, task.code)
	}
	f.fetched[task.key] = true
	return nil
}

// markFetched records a key as resolved without a backend round trip. Used
// for the pre-seeded callee code.
func (f *fetcher) markFetched(key fetchKey) {
	f.fetched[key] = true
}

// schedule builds the fetch plan for one prefetch iteration: it walks the
// witness in touch order and launches a query for every key not yet
// resolved. The returned tasks are in witness order; stateFetchDone reports
// whether anything is left to fetch, which is the conservative-mode
// termination signal. Zero-address references are skipped.
func (f *fetcher) schedule(ctx context.Context, witness *state.WitnessTable) (tasks []*fetchTask, stateFetchDone bool) {
	for _, wk := range witness.Keys() {
		if wk.Addr.IsZero() {
			continue
		}
		if wk.HasSlot {
			if task := f.start(ctx, storageKey(wk.Addr, wk.Slot)); task != nil {
				tasks = append(tasks, task)
			}
			continue
		}
		if task := f.start(ctx, accountKey(wk.Addr)); task != nil {
			tasks = append(tasks, task)
		}
		if witness.CodeTouched(wk.Addr) {
			if task := f.start(ctx, codeKey(wk.Addr)); task != nil {
				tasks = append(tasks, task)
			}
		}
	}
	return tasks, len(tasks) > 0
}
