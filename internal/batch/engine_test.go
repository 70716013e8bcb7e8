package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func items(ids ...string) []Item {
	out := make([]Item, len(ids))
	for i, id := range ids {
		out[i] = Item{Identifier: id}
	}
	return out
}

func TestRunAllSucceed(t *testing.T) {
	e := NewEngine()
	var order []string

	res := e.Run(context.Background(), items("a", "b", "c"), func(_ context.Context, it Item) error {
		order = append(order, it.Identifier)
		return nil
	}, nil)

	if res.Total != 3 || res.Completed != 3 {
		t.Errorf("total/completed = %d/%d", res.Total, res.Completed)
	}
	if len(res.Succeeded) != 3 || len(res.Errors) != 0 {
		t.Errorf("succeeded=%d errors=%d", len(res.Succeeded), len(res.Errors))
	}
	if fmt.Sprint(order) != "[a b c]" {
		t.Errorf("order = %v, want input order", order)
	}
}

func TestRunProgressMonotonicEndsAt100(t *testing.T) {
	e := NewEngine()
	var seen []int

	e.Run(context.Background(), items("a", "b", "c"), func(context.Context, Item) error {
		return nil
	}, func(pct int) { seen = append(seen, pct) })

	if len(seen) != 3 {
		t.Fatalf("sink fired %d times, want 3", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Errorf("progress not monotonic: %v", seen)
		}
	}
	if seen[len(seen)-1] != 100 {
		t.Errorf("final progress = %d, want 100", seen[len(seen)-1])
	}
	if fmt.Sprint(seen) != "[33 67 100]" {
		t.Errorf("progress = %v, want [33 67 100]", seen)
	}
}

func TestRunPartialFailureContinues(t *testing.T) {
	e := NewEngine()

	res := e.Run(context.Background(), items("a", "b", "c", "d"), func(_ context.Context, it Item) error {
		if it.Identifier == "b" {
			return errors.New("ya existe")
		}
		return nil
	}, nil)

	if len(res.Succeeded) != 3 {
		t.Errorf("succeeded = %d, want 3", len(res.Succeeded))
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(res.Errors))
	}
	if res.Errors[0].Identifier != "b" || res.Errors[0].ErrorMessage != "ya existe" {
		t.Errorf("error = %+v", res.Errors[0])
	}
	if len(res.Succeeded)+len(res.Errors) != res.Completed || res.Completed != res.Total {
		t.Errorf("invariant broken: %+v", res)
	}
}

func TestRunEmptyInput(t *testing.T) {
	e := NewEngine()
	fired := false

	res := e.Run(context.Background(), nil, func(context.Context, Item) error {
		t.Fatal("op should not run")
		return nil
	}, func(int) { fired = true })

	if res.Total != 0 || res.Completed != 0 {
		t.Errorf("result = %+v", res)
	}
	if fired {
		t.Error("sink must not fire for an empty batch")
	}
}

func TestRunDuplicatesProcessedIndependently(t *testing.T) {
	e := NewEngine()
	count := 0

	res := e.Run(context.Background(), items("a", "a"), func(_ context.Context, it Item) error {
		count++
		if count == 2 {
			return errors.New("ya existe")
		}
		return nil
	}, nil)

	if count != 2 {
		t.Errorf("op ran %d times, want 2", count)
	}
	if len(res.Succeeded) != 1 || len(res.Errors) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestRunCanceledBetweenItems(t *testing.T) {
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())

	res := e.Run(ctx, items("a", "b", "c"), func(_ context.Context, it Item) error {
		if it.Identifier == "a" {
			cancel()
		}
		return nil
	}, nil)

	if !res.Canceled {
		t.Error("result should be marked canceled")
	}
	if res.Completed != 1 {
		t.Errorf("completed = %d, want 1", res.Completed)
	}
}

func TestRegistryTracksProgressAndResult(t *testing.T) {
	reg := NewRegistry(NewEngine())
	release := make(chan struct{})

	id := reg.Start(context.Background(), "delete", items("a", "b"), func(_ context.Context, it Item) error {
		<-release
		if it.Identifier == "b" {
			return errors.New("no existe")
		}
		return nil
	})

	if s, ok := reg.Get(id); !ok || s.Done {
		t.Fatalf("expected pending job, got %+v ok=%v", s, ok)
	}

	close(release)

	deadline := time.After(2 * time.Second)
	for {
		s, ok := reg.Get(id)
		if !ok {
			t.Fatal("job vanished")
		}
		if s.Done {
			if s.Percent != 100 || s.Completed != 2 {
				t.Errorf("snapshot = %+v", s)
			}
			if s.Result == nil || len(s.Result.Errors) != 1 {
				t.Errorf("result = %+v", s.Result)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("job never finished")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRegistryUnknownJob(t *testing.T) {
	reg := NewRegistry(NewEngine())
	if _, ok := reg.Get("missing"); ok {
		t.Error("unknown job should miss")
	}
}

func TestRegistryEvictsOldestFinishedJob(t *testing.T) {
	reg := NewRegistry(NewEngine())
	reg.maxJobs = 3

	waitDone := func(id string) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			if s, ok := reg.Get(id); ok && s.Done {
				return
			}
			select {
			case <-deadline:
				t.Fatalf("job %s never finished", id)
			case <-time.After(5 * time.Millisecond):
			}
		}
	}

	noop := func(context.Context, Item) error { return nil }

	var ids []string
	for i := 0; i < 3; i++ {
		id := reg.Start(context.Background(), "delete", items("a"), noop)
		waitDone(id)
		ids = append(ids, id)
	}

	extra := reg.Start(context.Background(), "delete", items("a"), noop)
	waitDone(extra)

	if _, ok := reg.Get(ids[0]); ok {
		t.Error("oldest finished job should be evicted")
	}
	if _, ok := reg.Get(ids[1]); !ok {
		t.Error("newer job evicted too early")
	}
	if _, ok := reg.Get(extra); !ok {
		t.Error("new job missing")
	}

	reg.mu.RLock()
	n := len(reg.jobs)
	reg.mu.RUnlock()
	if n > 3 {
		t.Errorf("registry holds %d jobs, want <= 3", n)
	}
}
