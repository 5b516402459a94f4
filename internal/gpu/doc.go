//go:build !nogpu

// Package gpu implements the panorama reprojection kernel on the GPU.
//
// It is an internal package registered by github.com/gogpu/envmap/gpu. The
// kernel is a WGSL compute shader run through gogpu/wgpu's HAL layer (Pure
// Go, zero CGO) on Vulkan, Metal, DX12 or OpenGL ES, whichever opens first.
// On Vulkan the shader is compiled to SPIR-V with gogpu/naga.
//
// # Buffers
//
// Every kernel owns five buffers:
//
//   - FrameInfo uniform (112 bytes, rewritten per update)
//   - direction lookup, read-only storage, uploaded once
//   - camera frame, read-only storage, grown on demand
//   - panorama, read-write storage, resident between updates
//   - staging, mapped for readback after every update
//
// Texels are one little-endian u32 each with R in the low byte.
//
// # Device Sharing
//
// A host application that already owns a device passes it through
// Reprojector.SetDeviceProvider. Live kernels move to the shared device on
// their next use.
package gpu
