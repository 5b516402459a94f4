package envmap

import (
	"errors"
	"image"
	"sync"
)

// ComputeBackend executes the reprojection kernel.
//
// The software backend is always available. A GPU backend is registered by
// blank-importing the gpu sub-package:
//
//	import _ "github.com/gogpu/envmap/gpu" // enables GPU reprojection
type ComputeBackend interface {
	// Name returns the backend name (e.g., "software", "wgpu-vulkan").
	Name() string

	// Init acquires the compute context. Called once during registration.
	Init() error

	// Close releases the compute context.
	Close()

	// NewKernel prepares a kernel bound to one direction lookup. The lookup
	// is immutable and may be retained by the kernel.
	NewKernel(lookup *DirectionLookup) (Kernel, error)
}

// Kernel is a reprojection kernel bound to one panorama resolution.
type Kernel interface {
	// Load (re)initializes the kernel's copy of the panorama. Called after
	// construction and after every reset.
	Load(pano *Panorama) error

	// Dispatch runs one update over the whole panorama and returns after
	// every work group has completed. On error pano must be left unchanged.
	Dispatch(info *FrameInfo, src *image.RGBA, pano *Panorama) error

	// Release frees the kernel's resources.
	Release()
}

// DeviceProviderAware is an optional interface for backends that can share
// a GPU device with a host application instead of opening their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	backendMu sync.RWMutex
	backend   ComputeBackend
)

// RegisterBackend registers the GPU compute backend used by BackendAuto and
// BackendGPU.
//
// Only one backend can be registered; later calls replace the previous one,
// which is closed. Init is called first and, if it fails, the backend is not
// registered and the error is returned.
func RegisterBackend(b ComputeBackend) error {
	if b == nil {
		return errors.New("envmap: backend must not be nil")
	}
	if err := b.Init(); err != nil {
		return err
	}
	propagateLogger(b, Logger())

	backendMu.Lock()
	old := backend
	backend = b
	backendMu.Unlock()
	if old != nil && old != b {
		old.Close()
	}
	return nil
}

// RegisteredBackend returns the registered compute backend, or nil.
func RegisteredBackend() ComputeBackend {
	backendMu.RLock()
	b := backend
	backendMu.RUnlock()
	return b
}

// SetBackendDeviceProvider passes a device provider to the registered backend.
// It is a no-op when no backend is registered or the backend cannot share
// devices.
//
// The provider should implement HalDevice() any and HalQueue() any returning
// wgpu/hal types.
func SetBackendDeviceProvider(provider any) error {
	b := RegisteredBackend()
	if b == nil {
		return nil
	}
	if dpa, ok := b.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
