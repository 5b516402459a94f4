//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"image"
	"unsafe"
)

// packRGBA serializes the texels of img into one little-endian u32 per
// texel, R in the low byte, rows tightly packed. img may be a sub-image.
func packRGBA(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, w*h*4)
	for y := range h {
		src := img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):]
		dst := out[y*w*4:]
		for x := range w {
			i := x * 4
			packed := uint32(src[i]) | uint32(src[i+1])<<8 | uint32(src[i+2])<<16 | uint32(src[i+3])<<24
			binary.LittleEndian.PutUint32(dst[i:], packed)
		}
	}
	return out
}

// unpackRGBA is the inverse of packRGBA for a tightly packed destination.
func unpackRGBA(packed []byte, dst []uint8, texels int) {
	for i := range texels {
		val := binary.LittleEndian.Uint32(packed[i*4:])
		o := i * 4
		dst[o+0] = uint8(val & 0xFF)         //nolint:gosec // masked to 8 bits
		dst[o+1] = uint8((val >> 8) & 0xFF)  //nolint:gosec // masked to 8 bits
		dst[o+2] = uint8((val >> 16) & 0xFF) //nolint:gosec // masked to 8 bits
		dst[o+3] = uint8((val >> 24) & 0xFF) //nolint:gosec // masked to 8 bits
	}
}

// mappedBytes views size bytes of a mapped buffer.
func mappedBytes(ptr unsafe.Pointer, size uint64) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // mapping is at least size bytes
}
