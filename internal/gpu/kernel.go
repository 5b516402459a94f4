//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/envmap"
)

// kernel holds the GPU buffers of one panorama resolution. All fields are
// guarded by the owning Reprojector's mutex.
type kernel struct {
	r      *Reprojector
	lookup *envmap.DirectionLookup

	width, height int
	size          uint64 // panorama bytes

	uniformBuf hal.Buffer
	lookupBuf  hal.Buffer
	panoBuf    hal.Buffer
	stagingBuf hal.Buffer
	frameBuf   hal.Buffer
	frameSize  uint64
	bindGroup  hal.BindGroup

	// resident is false after a device switch until the buffers are
	// recreated on the new device.
	resident bool
	released bool
}

var _ envmap.Kernel = (*kernel)(nil)

func (k *kernel) createResources() error {
	dev := k.r.device
	var err error

	k.uniformBuf, err = dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "envmap_frame_info", Size: envmap.FrameInfoSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}

	k.lookupBuf, err = dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "envmap_lookup", Size: k.size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create lookup buffer: %w", err)
	}

	k.panoBuf, err = dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "envmap_panorama", Size: k.size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create panorama buffer: %w", err)
	}

	k.stagingBuf, err = dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "envmap_staging", Size: k.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}

	if err := k.r.queue.WriteBuffer(k.lookupBuf, 0, packRGBA(k.lookup.Image())); err != nil {
		return fmt.Errorf("upload lookup: %w", err)
	}
	k.resident = true
	return nil
}

func (k *kernel) destroyResources() {
	dev := k.r.device
	k.resident = false
	if dev == nil {
		return
	}
	if k.bindGroup != nil {
		dev.DestroyBindGroup(k.bindGroup)
		k.bindGroup = nil
	}
	for _, b := range []*hal.Buffer{&k.uniformBuf, &k.lookupBuf, &k.panoBuf, &k.stagingBuf, &k.frameBuf} {
		if *b != nil {
			dev.DestroyBuffer(*b)
			*b = nil
		}
	}
	k.frameSize = 0
}

// ensureFrame grows the frame buffer to hold size bytes and rebuilds the
// bind group around it.
func (k *kernel) ensureFrame(size uint64) error {
	if k.frameBuf != nil && k.frameSize >= size {
		return nil
	}
	dev := k.r.device
	if k.bindGroup != nil {
		dev.DestroyBindGroup(k.bindGroup)
		k.bindGroup = nil
	}
	if k.frameBuf != nil {
		dev.DestroyBuffer(k.frameBuf)
		k.frameBuf = nil
		k.frameSize = 0
	}

	buf, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "envmap_frame", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create frame buffer: %w", err)
	}
	k.frameBuf, k.frameSize = buf, size

	bg, err := dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "envmap_reproject_bind", Layout: k.r.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: k.uniformBuf.NativeHandle(), Offset: 0, Size: envmap.FrameInfoSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: k.lookupBuf.NativeHandle(), Offset: 0, Size: k.size}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: k.frameBuf.NativeHandle(), Offset: 0, Size: k.frameSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: k.panoBuf.NativeHandle(), Offset: 0, Size: k.size}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	k.bindGroup = bg
	return nil
}

// usable recreates the buffers after a device switch.
func (k *kernel) usable() error {
	if k.released {
		return errors.New("envmap-gpu: kernel released")
	}
	if !k.r.ready {
		return ErrNotReady
	}
	if k.resident {
		return nil
	}
	if err := k.createResources(); err != nil {
		k.destroyResources()
		return err
	}
	return nil
}

func (k *kernel) checkPanorama(pano *envmap.Panorama) error {
	if pano.Width() != k.width || pano.Height() != k.height {
		return fmt.Errorf("envmap-gpu: panorama %dx%d, kernel built for %dx%d",
			pano.Width(), pano.Height(), k.width, k.height)
	}
	return nil
}

func (k *kernel) upload(pano *envmap.Panorama) error {
	view := &image.RGBA{Pix: pano.Pix(), Stride: pano.Stride(), Rect: pano.Bounds()}
	if err := k.r.queue.WriteBuffer(k.panoBuf, 0, packRGBA(view)); err != nil {
		return fmt.Errorf("upload panorama: %w", err)
	}
	return nil
}

// Load replaces the resident panorama.
func (k *kernel) Load(pano *envmap.Panorama) error {
	k.r.mu.Lock()
	defer k.r.mu.Unlock()
	if err := k.checkPanorama(pano); err != nil {
		return err
	}
	if err := k.usable(); err != nil {
		return err
	}
	return k.upload(pano)
}

// Dispatch runs one reprojection pass and reads the result back into pano.
// On failure the resident panorama is restored from pano, which is left
// unchanged.
func (k *kernel) Dispatch(info *envmap.FrameInfo, src *image.RGBA, pano *envmap.Panorama) error {
	k.r.mu.Lock()
	defer k.r.mu.Unlock()

	if err := k.checkPanorama(pano); err != nil {
		return err
	}
	if info.PanoramaWidth != k.width || info.PanoramaHeight != k.height {
		return fmt.Errorf("envmap-gpu: frame info panorama %dx%d, kernel built for %dx%d",
			info.PanoramaWidth, info.PanoramaHeight, k.width, k.height)
	}
	if src == nil || src.Rect.Dx() != info.SourceWidth || src.Rect.Dy() != info.SourceHeight {
		return fmt.Errorf("envmap-gpu: frame info source %dx%d does not match frame", info.SourceWidth, info.SourceHeight)
	}
	wasResident := k.resident
	if err := k.usable(); err != nil {
		return err
	}
	if !wasResident {
		if err := k.upload(pano); err != nil {
			return err
		}
	}

	frame := packRGBA(src)
	if err := k.ensureFrame(uint64(len(frame))); err != nil {
		return err
	}
	if err := k.r.queue.WriteBuffer(k.frameBuf, 0, frame); err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}
	if err := k.r.queue.WriteBuffer(k.uniformBuf, 0, info.Bytes()); err != nil {
		return fmt.Errorf("upload frame info: %w", err)
	}

	if err := k.run(pano); err != nil {
		if rerr := k.upload(pano); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

// run encodes the compute pass and the readback copy, submits them, waits
// for completion and unpacks the staging buffer into pano.
func (k *kernel) run(pano *envmap.Panorama) error {
	dev := k.r.device
	encoder, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "envmap_reproject_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("envmap_reproject"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	gx, gy := envmap.WorkGroups(k.width, k.height)
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "envmap_reproject_pass"})
	pass.SetPipeline(k.r.pipeline)
	pass.SetBindGroup(0, k.bindGroup, nil)
	pass.Dispatch(uint32(gx), uint32(gy), 1) //nolint:gosec // bounded by the panorama size
	pass.End()

	encoder.CopyBufferToBuffer(k.panoBuf, k.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: k.size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer dev.FreeCommandBuffer(cmdBuf)

	if _, err := k.r.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := dev.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}

	mapping, err := dev.MapBuffer(k.stagingBuf, 0, k.size)
	if err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	unpackRGBA(mappedBytes(mapping.Ptr, k.size), pano.Pix(), k.width*k.height)
	if err := dev.UnmapBuffer(k.stagingBuf); err != nil {
		slogger().Warn("envmap-gpu: unmap staging buffer", "err", err)
	}
	return nil
}

// Release frees the kernel's buffers.
func (k *kernel) Release() {
	k.r.mu.Lock()
	defer k.r.mu.Unlock()
	if k.released {
		return
	}
	k.destroyResources()
	k.released = true
	delete(k.r.kernels, k)
}
