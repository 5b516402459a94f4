//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/envmap"

	// Register every HAL backend available on this platform.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

// ErrNotReady is returned when a kernel is requested before a device is
// available.
var ErrNotReady = errors.New("envmap-gpu: no GPU device")

// backendOrder is the preference order when opening a standalone device.
var backendOrder = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// Reprojector runs the panorama reprojection kernel as a wgpu/hal compute
// shader. It implements envmap.ComputeBackend.
//
// Each kernel keeps its panorama resident in a storage buffer. A dispatch
// uploads the frame and the FrameInfo uniform, runs one compute pass over
// the whole panorama, then copies the result to a staging buffer that is
// mapped and read back into the caller's panorama.
type Reprojector struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	backend  gputypes.Backend
	adapter  string

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	kernels map[*kernel]struct{}

	ready          bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var (
	_ envmap.ComputeBackend      = (*Reprojector)(nil)
	_ envmap.DeviceProviderAware = (*Reprojector)(nil)
)

// Name returns "wgpu-<backend>", or "wgpu-shared" on a shared device.
func (r *Reprojector) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.externalDevice {
		return "wgpu-shared"
	}
	return "wgpu-" + strings.ToLower(r.backend.String())
}

// Adapter returns the name of the adapter in use, if known.
func (r *Reprojector) Adapter() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adapter
}

// Init opens a standalone device unless one is already set.
func (r *Reprojector) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}
	return r.initGPU()
}

// SetLogger routes the package's log output to l.
func (r *Reprojector) SetLogger(l *slog.Logger) {
	setLogger(l)
}

func (r *Reprojector) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseDevice()
}

// releaseDevice frees every kernel's buffers and the pipeline, then the
// device if it is owned.
func (r *Reprojector) releaseDevice() {
	for k := range r.kernels {
		k.destroyResources()
	}
	r.destroyPipeline()
	if !r.externalDevice {
		if r.device != nil {
			r.device.Destroy()
		}
		if r.instance != nil {
			r.instance.Destroy()
		}
	}
	r.device = nil
	r.queue = nil
	r.instance = nil
	r.adapter = ""
	r.ready = false
	r.externalDevice = false
}

// SetDeviceProvider switches the reprojector to a GPU device shared by the
// host application. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue. Providers that also
// implement gpucontext.DeviceProvider and report a software adapter are
// refused; the CPU backend is faster than a shader interpreter.
//
// Live kernels move to the new device on their next use.
func (r *Reprojector) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("envmap-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("envmap-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("envmap-gpu: provider HalQueue is not hal.Queue")
	}
	var adapter string
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		info := dp.AdapterInfo()
		if info.Type == gpucontext.AdapterTypeSoftware {
			return fmt.Errorf("envmap-gpu: shared adapter %q is a software renderer", info.Name)
		}
		adapter = info.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseDevice()
	r.device = device
	r.queue = queue
	r.backend = gputypes.BackendEmpty
	r.adapter = adapter
	r.externalDevice = true

	if err := r.createPipeline(); err != nil {
		return fmt.Errorf("envmap-gpu: create pipeline with shared device: %w", err)
	}
	r.ready = true
	slogger().Debug("envmap-gpu: switched to shared GPU device", "adapter", adapter)
	return nil
}

func (r *Reprojector) initGPU() error {
	var errs []error
	for _, kind := range backendOrder {
		hb, ok := hal.GetBackend(kind)
		if !ok {
			continue
		}
		err := r.openBackend(kind, hb)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%v: %w", kind, err))
	}
	if len(errs) == 0 {
		return errors.New("envmap-gpu: no HAL backend registered")
	}
	return fmt.Errorf("envmap-gpu: no usable GPU: %w", errors.Join(errs...))
}

func (r *Reprojector) openBackend(kind gputypes.Backend, hb hal.Backend) error {
	instance, err := hb.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	selected := selectAdapter(instance.EnumerateAdapters(nil))
	if selected == nil {
		instance.Destroy()
		return errors.New("no hardware adapter")
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("open device: %w", err)
	}

	r.instance = instance
	r.device = openDev.Device
	r.queue = openDev.Queue
	r.backend = kind
	if err := r.createPipeline(); err != nil {
		r.device.Destroy()
		instance.Destroy()
		r.instance, r.device, r.queue = nil, nil, nil
		return fmt.Errorf("create pipeline: %w", err)
	}
	r.adapter = selected.Info.Name
	r.ready = true
	slogger().Info("envmap-gpu: GPU initialized (standalone)", "backend", kind, "adapter", selected.Info.Name)
	return nil
}

// selectAdapter prefers discrete over integrated over virtual GPUs and never
// picks a CPU adapter.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	rank := func(t gputypes.DeviceType) int {
		switch t {
		case gputypes.DeviceTypeDiscreteGPU:
			return 3
		case gputypes.DeviceTypeIntegratedGPU:
			return 2
		case gputypes.DeviceTypeVirtualGPU:
			return 1
		default:
			return 0
		}
	}
	var best *hal.ExposedAdapter
	for i := range adapters {
		if rank(adapters[i].Info.DeviceType) == 0 {
			continue
		}
		if best == nil || rank(adapters[i].Info.DeviceType) > rank(best.Info.DeviceType) {
			best = &adapters[i]
		}
	}
	return best
}

func (r *Reprojector) createPipeline() error {
	src, err := shaderSource(r.backend)
	if err != nil {
		return err
	}
	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "envmap_reproject",
		Source: src,
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}
	r.shader = shader

	bindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "envmap_reproject_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		r.destroyPipeline()
		return fmt.Errorf("create bind group layout: %w", err)
	}
	r.bindLayout = bindLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "envmap_reproject_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		r.destroyPipeline()
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	pipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "envmap_reproject_pipeline", Layout: r.pipeLayout,
		Compute: hal.ComputeState{Module: r.shader, EntryPoint: "main"},
	})
	if err != nil {
		r.destroyPipeline()
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	r.pipeline = pipeline
	return nil
}

func (r *Reprojector) destroyPipeline() {
	if r.device == nil {
		return
	}
	if r.pipeline != nil {
		r.device.DestroyComputePipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bindLayout != nil {
		r.device.DestroyBindGroupLayout(r.bindLayout)
		r.bindLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

// NewKernel allocates the GPU buffers for one panorama resolution and
// uploads the direction lookup.
func (r *Reprojector) NewKernel(lookup *envmap.DirectionLookup) (envmap.Kernel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return nil, ErrNotReady
	}
	size := uint64(lookup.Width()) * uint64(lookup.Height()) * 4 //nolint:gosec // dimensions are positive
	if limit := gputypes.DefaultLimits().MaxStorageBufferBindingSize; size > limit {
		return nil, fmt.Errorf("envmap-gpu: panorama needs %d bytes, storage binding limit is %d", size, limit)
	}

	k := &kernel{r: r, lookup: lookup, width: lookup.Width(), height: lookup.Height(), size: size}
	if err := k.createResources(); err != nil {
		k.destroyResources()
		return nil, err
	}
	if r.kernels == nil {
		r.kernels = make(map[*kernel]struct{})
	}
	r.kernels[k] = struct{}{}
	slogger().Debug("envmap-gpu: kernel allocated", "width", k.width, "height", k.height, "bytes", size)
	return k, nil
}
