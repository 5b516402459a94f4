package envmap

import (
	"image"
	"sync"

	"github.com/gogpu/envmap/internal/parallel"
)

// SoftwareBackend runs the reprojection kernel on the CPU. Work groups of
// WorkGroupWidth×WorkGroupHeight texels are scheduled on a goroutine pool,
// mirroring the GPU dispatch grid.
type SoftwareBackend struct {
	workers int

	mu   sync.Mutex
	pool *parallel.WorkerPool
}

var _ ComputeBackend = (*SoftwareBackend)(nil)

// NewSoftwareBackend returns a CPU backend with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewSoftwareBackend(workers int) *SoftwareBackend {
	return &SoftwareBackend{workers: workers}
}

func (b *SoftwareBackend) Name() string { return "software" }

func (b *SoftwareBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool == nil {
		b.pool = parallel.NewWorkerPool(b.workers)
	}
	return nil
}

func (b *SoftwareBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
}

// NewKernel returns a CPU kernel for lookup. Init must have been called.
func (b *SoftwareBackend) NewKernel(lookup *DirectionLookup) (Kernel, error) {
	b.mu.Lock()
	pool := b.pool
	b.mu.Unlock()
	return &softwareKernel{lookup: lookup, pool: pool}, nil
}

// softwareKernel works on the caller's panorama directly; there is no
// resident copy to load.
type softwareKernel struct {
	lookup *DirectionLookup
	pool   *parallel.WorkerPool // nil runs groups sequentially
}

func (k *softwareKernel) Load(*Panorama) error { return nil }

func (k *softwareKernel) Dispatch(info *FrameInfo, src *image.RGBA, pano *Panorama) error {
	if err := checkDispatch(k.lookup, info, src, pano); err != nil {
		return err
	}
	p := newProjector(info)
	if !p.valid {
		return nil
	}
	lookup, dst, stride := k.lookup.Pix(), pano.Pix(), pano.Stride()
	grid := parallel.Grid{
		Width:       pano.Width(),
		Height:      pano.Height(),
		GroupWidth:  WorkGroupWidth,
		GroupHeight: WorkGroupHeight,
	}
	grid.Dispatch(k.pool, func(g parallel.Group) {
		reprojectRegion(&p, lookup, src, dst, stride, g.X0, g.Y0, g.X1, g.Y1)
	})
	return nil
}

func (k *softwareKernel) Release() {}
