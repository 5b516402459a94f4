// Package parallel dispatches 2D grids of work groups onto goroutines.
//
// It is the CPU counterpart of a compute-shader dispatch: a texel domain is
// cut into fixed-size groups, every group is one unit of work, and Dispatch
// returns once every group has run.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// job is one work group queued for execution.
type job struct {
	fn    func(Group)
	group Group
	done  *sync.WaitGroup
}

func (j job) run() {
	defer j.done.Done()
	j.fn(j.group)
}

// WorkerPool is a fixed set of goroutines executing work groups.
//
// Every worker owns a queue. Groups are dealt round-robin; a worker whose
// queue is empty steals from the others, which evens out groups of uneven
// cost (e.g. groups fully outside the camera frustum finish early).
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan job
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// mu is held shared by run and exclusively by Close, so Close waits
	// for in-flight dispatches and no job is queued after done is closed.
	mu sync.RWMutex
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan job, workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan job, queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case j := <-own:
			j.run()
			continue
		default:
		}

		if j, ok := p.steal(id); ok {
			j.run()
			continue
		}

		select {
		case <-p.done:
			p.drain(own)
			return
		case j := <-own:
			j.run()
		}
	}
}

// drain runs whatever is left in a queue so that no Dispatch waits forever.
func (p *WorkerPool) drain(queue chan job) {
	for {
		select {
		case j := <-queue:
			j.run()
		default:
			return
		}
	}
}

// steal takes one job from another worker's queue.
func (p *WorkerPool) steal(self int) (job, bool) {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case j := <-p.queues[i]:
			return j, true
		default:
		}
	}
	return job{}, false
}

// run queues fn for every group and waits for all of them. On a closed
// pool the groups run on the caller.
func (p *WorkerPool) run(groups []Group, fn func(Group)) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running.Load() {
		for _, g := range groups {
			fn(g)
		}
		return
	}

	var done sync.WaitGroup
	done.Add(len(groups))
	for i, g := range groups {
		p.queues[i%p.workers] <- job{fn: fn, group: g, done: &done}
	}
	done.Wait()
}

// Close stops the workers after the queued groups have run. It waits for
// dispatches in progress to finish.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
