package future

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"
)

func TestAll_PreservesInputOrder(t *testing.T) {
	const n = 10

	promises := make([]*Promise[int], n)
	futures := make([]*Future[int], n)
	for i := range n {
		promises[i] = NewPromise[int]()
		futures[i] = promises[i].Future()
	}

	composite := All(futures...)

	// Resolve in randomized order with distinct delays so completion order
	// differs from index order.
	for i := range n {
		go func() {
			time.Sleep(time.Duration(rand.Intn(100)) * time.Millisecond)
			_ = promises[i].Resolve(i * 10)
		}()
	}

	results, err := composite.Await(5 * time.Second)
	if err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	if len(results) != n {
		t.Fatalf("expected %d results, got %d", n, len(results))
	}
	for i, v := range results {
		if v != i*10 {
			t.Errorf("index %d: expected %d, got %d", i, i*10, v)
		}
	}
}

func TestAll_ShortCircuitsOnFirstFailure(t *testing.T) {
	fast := NewPromise[int]()
	slow := NewPromise[int]()

	composite := All(fast.Future(), slow.Future())

	failure := errors.New("child failed")
	_ = fast.Fail(failure)

	// The composite must fail without waiting for the slow child.
	_, err := composite.Await(time.Second)
	if !errors.Is(err, failure) {
		t.Fatalf("expected child failure, got %v", err)
	}

	// A late success on the remaining child must not change the outcome.
	_ = slow.Resolve(1)
	if _, err := composite.Get(); !errors.Is(err, failure) {
		t.Errorf("late completion changed composite outcome: %v", err)
	}
}

func TestAll_Empty(t *testing.T) {
	results, err := All[int]().Await(time.Second)
	if err != nil {
		t.Fatalf("empty All failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
}

func TestAllSettled_CollectsEveryOutcome(t *testing.T) {
	ok := NewPromise[string]()
	bad := NewPromise[string]()

	composite := AllSettled(ok.Future(), bad.Future())

	failure := errors.New("second failed")
	_ = bad.Fail(failure)
	_ = ok.Resolve("fine")

	outcomes, err := composite.Await(time.Second)
	if err != nil {
		t.Fatalf("AllSettled must never fail, got %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Value != "fine" || outcomes[0].Err != nil {
		t.Errorf("outcome 0: got (%q, %v)", outcomes[0].Value, outcomes[0].Err)
	}
	if !errors.Is(outcomes[1].Err, failure) {
		t.Errorf("outcome 1: expected failure, got %v", outcomes[1].Err)
	}
}

func TestFirstCompleted(t *testing.T) {
	t.Run("fastest child wins", func(t *testing.T) {
		slow := NewPromise[string]()
		fast := NewPromise[string]()

		f := FirstCompleted(slow.Future(), fast.Future())

		_ = fast.Resolve("fast")

		v, err := f.Await(time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != "fast" {
			t.Errorf("expected 'fast', got %q", v)
		}

		_ = slow.Resolve("slow")
		if v, _ := f.Get(); v != "fast" {
			t.Errorf("late completion changed outcome to %q", v)
		}
	})

	t.Run("first failure wins too", func(t *testing.T) {
		a := NewPromise[string]()
		b := NewPromise[string]()

		f := FirstCompleted(a.Future(), b.Future())

		failure := errors.New("first to finish")
		_ = a.Fail(failure)

		if _, err := f.Await(time.Second); !errors.Is(err, failure) {
			t.Errorf("expected failure, got %v", err)
		}
	})

	t.Run("no futures fails immediately", func(t *testing.T) {
		if _, err := FirstCompleted[int]().Await(time.Second); !errors.Is(err, ErrNoFutures) {
			t.Errorf("expected ErrNoFutures, got %v", err)
		}
	})
}

func ExampleAll() {
	a := Completed(1)
	b := Completed(2)
	c := Completed(3)

	results, _ := All(a, b, c).Get()
	fmt.Println(results)
	// Output: [1 2 3]
}
