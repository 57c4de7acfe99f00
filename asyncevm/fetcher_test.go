package asyncevm

import (
	"context"
	"errors"
	"testing"

	"github.com/lantern-eth/lantern/core/state"
	"github.com/lantern-eth/lantern/core/types"
	"github.com/lantern-eth/lantern/log"
)

func newTestFetcher(backend StateBackend) (*fetcher, *state.WitnessLedger) {
	ledger := state.NewWitnessLedger()
	return newFetcher(backend, testHeader(), ledger, log.Default().Module("test")), ledger
}

func TestFetcher_ScheduleSkipsZeroAddress(t *testing.T) {
	backend := NewMemoryBackend()
	f, _ := newTestFetcher(backend)

	w := state.NewWitnessTable()
	w.TouchAccount(types.Address{})
	w.TouchStorage(types.Address{}, testHash(1))

	tasks, done := f.schedule(context.Background(), w)
	if len(tasks) != 0 || done {
		t.Fatalf("zero address keys must not be scheduled, got %d tasks", len(tasks))
	}
}

func TestFetcher_ScheduleOrderAndKinds(t *testing.T) {
	backend := NewMemoryBackend()
	f, _ := newTestFetcher(backend)

	a := testAddr(1)
	w := state.NewWitnessTable()
	w.TouchCode(a)
	w.TouchStorage(a, testHash(7))

	tasks, done := f.schedule(context.Background(), w)
	if !done {
		t.Fatal("expected pending fetches")
	}
	if len(tasks) != 3 {
		t.Fatalf("expected account+code+storage tasks, got %d", len(tasks))
	}
	if tasks[0].key != accountKey(a) || tasks[1].key != codeKey(a) || tasks[2].key != storageKey(a, testHash(7)) {
		t.Fatalf("unexpected task order: %+v", []fetchKey{tasks[0].key, tasks[1].key, tasks[2].key})
	}
}

func TestFetcher_StartDeduplicates(t *testing.T) {
	backend := NewMemoryBackend()
	f, _ := newTestFetcher(backend)
	a := testAddr(1)

	t1 := f.start(context.Background(), accountKey(a))
	t2 := f.start(context.Background(), accountKey(a))
	if t1 != t2 {
		t.Fatal("in-flight keys must share one task")
	}
	if err := f.await(context.Background(), t1); err != nil {
		t.Fatalf("await failed: %v", err)
	}
	if task := f.start(context.Background(), accountKey(a)); task != nil {
		t.Fatal("fetched keys must not be re-queried")
	}
	if n := backend.AccountCalls(a); n != 1 {
		t.Fatalf("expected exactly one backend query, got %d", n)
	}
}

func TestFetcher_AwaitSeedsLedger(t *testing.T) {
	backend := NewMemoryBackend()
	a := testAddr(1)
	acct := types.NewAccount()
	acct.Nonce = 9
	backend.SetAccount(a, acct)
	backend.SetStorage(a, testHash(1), testHash(5))
	backend.SetCode(a, []byte{0x00})

	f, ledger := newTestFetcher(backend)
	for _, key := range []fetchKey{accountKey(a), storageKey(a, testHash(1)), codeKey(a)} {
		if err := f.await(context.Background(), f.start(context.Background(), key)); err != nil {
			t.Fatalf("await %+v failed: %v", key, err)
		}
	}

	if n := ledger.GetNonce(a); n != 9 {
		t.Fatalf("expected nonce 9 in ledger, got %d", n)
	}
	if v := ledger.GetState(a, testHash(1)); v != testHash(5) {
		t.Fatalf("expected slot value 5, got %s", v)
	}
	if code := ledger.GetCode(a); len(code) != 1 {
		t.Fatalf("expected 1 code byte, got %d", len(code))
	}
}

func TestFetcher_AbsenceSeedsZeroState(t *testing.T) {
	backend := NewMemoryBackend()
	a := testAddr(1)
	f, ledger := newTestFetcher(backend)

	if err := f.await(context.Background(), f.start(context.Background(), accountKey(a))); err != nil {
		t.Fatalf("await failed: %v", err)
	}
	if !ledger.Exist(a) {
		t.Fatal("authoritative absence must install the zero account")
	}
	if bal := ledger.GetBalance(a); !bal.IsZero() {
		t.Fatalf("expected zero balance, got %s", bal)
	}
}

func TestFetcher_FailureMapping(t *testing.T) {
	backend := NewMemoryBackend()
	a := testAddr(1)
	cause := errors.New("transport error")
	backend.FailAccount(a, cause)
	backend.FailStorage(a, testHash(1), cause)
	backend.FailCode(a, cause)

	f, _ := newTestFetcher(backend)
	cases := []struct {
		key  fetchKey
		want error
	}{
		{accountKey(a), ErrUnableToGetAccount},
		{storageKey(a, testHash(1)), ErrUnableToGetSlot},
		{codeKey(a), ErrUnableToGetCode},
	}
	for _, tc := range cases {
		err := f.await(context.Background(), f.start(context.Background(), tc.key))
		if !errors.Is(err, tc.want) {
			t.Fatalf("key %+v: expected %v, got %v", tc.key, tc.want, err)
		}
	}
}
