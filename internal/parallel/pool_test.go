package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Create(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit", 4, 4},
		{"zero uses GOMAXPROCS", 0, runtime.GOMAXPROCS(0)},
		{"negative uses GOMAXPROCS", -3, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers)
			defer pool.Close()
			if pool.Workers() != tt.want {
				t.Errorf("Workers() = %d, want %d", pool.Workers(), tt.want)
			}
			if !pool.IsRunning() {
				t.Error("pool should be running after creation")
			}
		})
	}
}

func TestWorkerPool_RunsEveryGroup(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	groups := Grid{Width: 100, Height: 70, GroupWidth: 16, GroupHeight: 32}.Split()
	var count atomic.Int64
	pool.run(groups, func(Group) { count.Add(1) })
	if int(count.Load()) != len(groups) {
		t.Errorf("ran %d groups, want %d", count.Load(), len(groups))
	}
}

func TestWorkerPool_WorkStealing(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	// Group 0 is slow; the others must not wait behind it.
	groups := make([]Group, 16)
	for i := range groups {
		groups[i] = Group{IX: i}
	}
	var fast atomic.Int64
	start := time.Now()
	pool.run(groups, func(g Group) {
		if g.IX == 0 {
			time.Sleep(50 * time.Millisecond)
			return
		}
		fast.Add(1)
	})
	if fast.Load() != 15 {
		t.Errorf("fast groups = %d, want 15", fast.Load())
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("dispatch took %v", elapsed)
	}
}

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()
	if pool.IsRunning() {
		t.Error("pool should not be running after Close")
	}
}

func TestWorkerPool_NoGoroutineLeak(t *testing.T) {
	before := runtime.NumGoroutine()
	for range 10 {
		pool := NewWorkerPool(8)
		Grid{Width: 64, Height: 64, GroupWidth: 16, GroupHeight: 16}.Dispatch(pool, func(Group) {})
		pool.Close()
	}
	time.Sleep(10 * time.Millisecond)
	if after := runtime.NumGoroutine(); after > before+2 {
		t.Errorf("goroutines before=%d after=%d", before, after)
	}
}

func TestWorkerPool_RunAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	groups := make([]Group, 10)
	var count atomic.Int64
	finished := make(chan struct{})
	go func() {
		pool.run(groups, func(Group) { count.Add(1) })
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("run on a closed pool did not return")
	}
	if count.Load() != int64(len(groups)) {
		t.Errorf("ran %d groups, want %d", count.Load(), len(groups))
	}
}

func TestWorkerPool_CloseDuringDispatch(t *testing.T) {
	for range 20 {
		pool := NewWorkerPool(4)
		grid := Grid{Width: 256, Height: 128, GroupWidth: 16, GroupHeight: 32}
		want := int64(len(grid.Split()))

		const dispatchers = 4
		counts := make([]atomic.Int64, dispatchers)
		finished := make(chan struct{}, dispatchers)
		for i := range dispatchers {
			go func() {
				for range 5 {
					grid.Dispatch(pool, func(Group) { counts[i].Add(1) })
				}
				finished <- struct{}{}
			}()
		}
		pool.Close()

		timeout := time.After(2 * time.Second)
		for range dispatchers {
			select {
			case <-finished:
			case <-timeout:
				t.Fatal("dispatch blocked after Close")
			}
		}
		for i := range counts {
			if got := counts[i].Load(); got != 5*want {
				t.Errorf("dispatcher %d ran %d groups, want %d", i, got, 5*want)
			}
		}
	}
}
