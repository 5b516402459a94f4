// Package envmap builds a 360° equirectangular environment map from a
// pose-tracked camera stream.
//
// # Overview
//
// Every admitted camera frame is reprojected onto a panorama whose width is
// twice its height. For each panorama texel the kernel looks up the world
// direction the texel represents, intersects it with the camera's viewing
// frustum and, when the direction falls inside, overwrites the texel with the
// corresponding camera pixel. There is no blending: the most recent frame to
// see a direction wins.
//
// # Quick Start
//
//	m, err := envmap.New(1024, color.Black)
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//	m.Start()
//
//	// In the tracking session's frame callback:
//	m.UpdateMap(&envmap.Frame{
//	    Camera: envmap.Camera{Transform: pose, Intrinsics: intr},
//	    Image:  img,
//	})
//
//	// In the renderer:
//	tex, _ := m.CurrentMap(envmap.FormatTexture)
//
// # Conventions
//
// World space is right-handed with +Y up. A camera transform maps camera
// space to world space; the camera looks down its local -Z axis. Panorama
// row 0 lies next to +Y and row H-1 is -Y; column j sits at azimuth
// 2π(j+1)/W measured from +X toward +Z.
//
// # Backends
//
// The kernel runs on the CPU by default, split into work groups of
// WorkGroupWidth×WorkGroupHeight texels on a goroutine pool. Import the gpu
// sub-package to register a WebGPU compute backend:
//
//	import _ "github.com/gogpu/envmap/gpu"
//
// Mappers created with BackendAuto then use the GPU when a device is
// available and fall back to the CPU otherwise.
//
// # Logging
//
// envmap is silent unless a logger is configured with SetLogger or
// WithLogger. Every record of a Mapper carries its session ID.
//
// # Rate Limiting And Exposure
//
// A Mapper admits at most WithUpdatesPerSecond frames per second (10 by
// default) and drops the rest without side effects. With
// WithExposureCorrection, frames darker than the brightest light estimate
// seen so far are brightened before reprojection.
package envmap
