package envmap

import (
	"fmt"
	"log/slog"
	"time"
)

// Option configures a Mapper during creation.
//
// Example:
//
//	// Software reprojection, 5 updates per second, exposure correction on
//	m, err := envmap.New(1024, color.Black,
//	    envmap.WithBackend(envmap.BackendSoftware),
//	    envmap.WithUpdatesPerSecond(5),
//	    envmap.WithExposureCorrection(true))
type Option func(*options)

// BackendKind selects how a Mapper executes the reprojection kernel.
type BackendKind int

const (
	// BackendAuto uses the registered GPU backend when one is registered and
	// accepts the panorama size, and the software backend otherwise.
	BackendAuto BackendKind = iota
	// BackendGPU requires the registered GPU backend. Construction fails with
	// ErrUnsupportedBackend when none is registered.
	BackendGPU
	// BackendSoftware always runs the kernel on the CPU.
	BackendSoftware
)

func (k BackendKind) String() string {
	switch k {
	case BackendAuto:
		return "auto"
	case BackendGPU:
		return "gpu"
	case BackendSoftware:
		return "software"
	default:
		return fmt.Sprintf("BackendKind(%d)", int(k))
	}
}

// DefaultUpdatesPerSecond is the admission rate used unless
// WithUpdatesPerSecond is given.
const DefaultUpdatesPerSecond = 10

type options struct {
	rate          int
	exposure      bool
	backendKind   BackendKind
	compute       ComputeBackend
	workers       int
	maxFrameWidth int
	clock         func() time.Time
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		rate:        DefaultUpdatesPerSecond,
		backendKind: BackendAuto,
		clock:       time.Now,
	}
}

func (o *options) validate() error {
	if o.rate <= 0 {
		return fmt.Errorf("%w: updates per second must be positive, got %d", ErrInvalidOption, o.rate)
	}
	switch o.backendKind {
	case BackendAuto, BackendGPU, BackendSoftware:
	default:
		return fmt.Errorf("%w: %v", ErrInvalidOption, o.backendKind)
	}
	if o.maxFrameWidth < 0 {
		return fmt.Errorf("%w: max frame width %d", ErrInvalidOption, o.maxFrameWidth)
	}
	if o.clock == nil {
		return fmt.Errorf("%w: nil clock", ErrInvalidOption)
	}
	return nil
}

// WithUpdatesPerSecond sets the maximum number of admitted updates per
// second. The rate must be positive.
func WithUpdatesPerSecond(n int) Option {
	return func(o *options) {
		o.rate = n
	}
}

// WithExposureCorrection enables normalization of frame brightness against
// the brightest light estimate seen since the last reset. This feature is
// experimental.
func WithExposureCorrection(enabled bool) Option {
	return func(o *options) {
		o.exposure = enabled
	}
}

// WithBackend selects the kernel backend.
func WithBackend(k BackendKind) Option {
	return func(o *options) {
		o.backendKind = k
	}
}

// WithComputeBackend injects a compute backend, bypassing the registry and
// WithBackend. The backend must be initialized; the Mapper does not close it.
func WithComputeBackend(b ComputeBackend) Option {
	return func(o *options) {
		o.compute = b
	}
}

// WithWorkers sets the goroutine count of the software backend. Zero or
// negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMaxFrameWidth downscales wider frames before reprojection. Zero keeps
// frames at their native size.
func WithMaxFrameWidth(px int) Option {
	return func(o *options) {
		o.maxFrameWidth = px
	}
}

// WithClock sets the time source used for frames without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithLogger sets a per-mapper logger. When unset the package logger
// (see SetLogger) is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
