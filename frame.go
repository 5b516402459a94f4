package envmap

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/draw"

	"github.com/gogpu/envmap/geom"
)

// Camera is the tracked camera state of one frame.
type Camera struct {
	// Transform is the camera-to-world transform. The camera looks down its
	// local -Z axis with +Y up.
	Transform geom.Mat4
	// Intrinsics are the pinhole parameters at Resolution.
	Intrinsics Intrinsics
	// Resolution is the sensor image size the intrinsics refer to. A zero
	// value means the size of Frame.Image.
	Resolution image.Point
}

// Frame is one camera frame delivered by the tracking session.
type Frame struct {
	// Timestamp is the capture time. A zero value means the Mapper's clock
	// is read on arrival.
	Timestamp time.Time
	Camera    Camera
	// Image is the captured frame. Row 0 is the top edge. Use
	// PixelBuffer.Image for camera-native buffers.
	Image image.Image
	// LightEstimate is the ambient intensity estimate, if the session
	// provides one.
	LightEstimate *float64
}

// PixelFormat identifies the memory layout of a PixelBuffer.
type PixelFormat int

const (
	// PixelFormatRGBA8 is 8-bit R, G, B, A in one plane.
	PixelFormatRGBA8 PixelFormat = iota
	// PixelFormatBGRA8 is 8-bit B, G, R, A in one plane.
	PixelFormatBGRA8
	// PixelFormatYCbCr420BiPlanar is NV12: a full-resolution Y plane
	// followed by a half-resolution plane of interleaved Cb, Cr pairs.
	PixelFormatYCbCr420BiPlanar
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8:
		return "RGBA8"
	case PixelFormatBGRA8:
		return "BGRA8"
	case PixelFormatYCbCr420BiPlanar:
		return "YCbCr420BiPlanar"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// PixelBuffer is a raw frame buffer in a camera-native layout.
type PixelBuffer struct {
	Format        PixelFormat
	Width, Height int
	// Planes holds one plane for packed formats and two (Y, CbCr) for NV12.
	Planes [][]byte
	// Strides holds the bytes per row of each plane.
	Strides []int
}

// Image converts the buffer to an image.Image. RGBA8 buffers are wrapped
// without copying; other formats are converted.
func (b *PixelBuffer) Image() (image.Image, error) {
	if b.Width <= 0 || b.Height <= 0 {
		return nil, fmt.Errorf("%w: pixel buffer %dx%d", ErrInvalidFrame, b.Width, b.Height)
	}
	switch b.Format {
	case PixelFormatRGBA8, PixelFormatBGRA8:
		if err := b.checkPlane(0, b.Width*4, b.Height); err != nil {
			return nil, err
		}
		img := &image.RGBA{Pix: b.Planes[0], Stride: b.Strides[0], Rect: image.Rect(0, 0, b.Width, b.Height)}
		if b.Format == PixelFormatBGRA8 {
			img = swapRB(img)
		}
		return img, nil
	case PixelFormatYCbCr420BiPlanar:
		cw, ch := (b.Width+1)/2, (b.Height+1)/2
		if err := b.checkPlane(0, b.Width, b.Height); err != nil {
			return nil, err
		}
		if err := b.checkPlane(1, cw*2, ch); err != nil {
			return nil, err
		}
		return b.nv12(cw, ch), nil
	default:
		return nil, fmt.Errorf("%w: unsupported pixel format %v", ErrInvalidFrame, b.Format)
	}
}

func (b *PixelBuffer) checkPlane(i, rowBytes, rows int) error {
	if len(b.Planes) <= i || len(b.Strides) <= i {
		return fmt.Errorf("%w: %v buffer missing plane %d", ErrInvalidFrame, b.Format, i)
	}
	if b.Strides[i] < rowBytes || len(b.Planes[i]) < b.Strides[i]*(rows-1)+rowBytes {
		return fmt.Errorf("%w: %v plane %d too small", ErrInvalidFrame, b.Format, i)
	}
	return nil
}

// swapRB returns a BGRA buffer as RGBA.
func swapRB(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	w := src.Rect.Dx() * 4
	for y := range src.Rect.Dy() {
		s := src.Pix[y*src.Stride : y*src.Stride+w]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for i := 0; i < w; i += 4 {
			d[i+0], d[i+1], d[i+2], d[i+3] = s[i+2], s[i+1], s[i+0], s[i+3]
		}
	}
	return dst
}

// nv12 de-interleaves the chroma plane into an image.YCbCr, which the
// image/draw converters understand.
func (b *PixelBuffer) nv12(cw, ch int) *image.YCbCr {
	img := image.NewYCbCr(image.Rect(0, 0, b.Width, b.Height), image.YCbCrSubsampleRatio420)
	for y := range b.Height {
		copy(img.Y[y*img.YStride:y*img.YStride+b.Width], b.Planes[0][y*b.Strides[0]:])
	}
	uv := b.Planes[1]
	for y := range ch {
		row := uv[y*b.Strides[1]:]
		for x := range cw {
			img.Cb[y*img.CStride+x] = row[2*x]
			img.Cr[y*img.CStride+x] = row[2*x+1]
		}
	}
	return img
}

// prepareFrame returns an owned RGBA copy of src, downscaled to maxWidth
// when src is wider. The copy is safe to modify in place.
func prepareFrame(src image.Image, maxWidth int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = max(1, h*maxWidth/w)
		w = maxWidth
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Rect, src, b, draw.Src, nil)
		return dst
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}
