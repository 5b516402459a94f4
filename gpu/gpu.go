//go:build !nogpu

// Package gpu registers the wgpu compute backend for panorama reprojection.
//
// Import this package to run the reprojection kernel as a compute shader
// on Vulkan, Metal, DX12 or GL:
//
//	import _ "github.com/gogpu/envmap/gpu"
//
// If no hardware adapter can be opened, registration is skipped with a
// warning and Mappers using envmap.BackendAuto run on the CPU.
package gpu

import (
	"github.com/gogpu/envmap"
	gpuimpl "github.com/gogpu/envmap/internal/gpu"
)

var reprojector = &gpuimpl.Reprojector{}

func init() {
	if err := envmap.RegisterBackend(reprojector); err != nil {
		envmap.Logger().Warn("GPU reprojection not available", "err", err)
	}
}

// SetDeviceProvider moves the GPU backend onto a device shared by the host
// application, typically gogpu's App.GPUContextProvider(). The provider must
// implement HalDevice() any and HalQueue() any.
//
// Unlike envmap.SetBackendDeviceProvider, this also registers the backend
// when no standalone device could be opened at start-up.
func SetDeviceProvider(provider any) error {
	if err := reprojector.SetDeviceProvider(provider); err != nil {
		return err
	}
	if envmap.RegisteredBackend() != envmap.ComputeBackend(reprojector) {
		return envmap.RegisterBackend(reprojector)
	}
	return nil
}
