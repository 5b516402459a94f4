//go:build !nogpu

package gpu

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"
	"unsafe"
)

func TestPackRGBALayout(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	copy(img.Pix, []uint8{1, 2, 3, 4, 5, 6, 7, 8})

	packed := packRGBA(img)
	if len(packed) != 8 {
		t.Fatalf("len = %d, want 8", len(packed))
	}
	if got := binary.LittleEndian.Uint32(packed); got != 0x04030201 {
		t.Errorf("texel 0 = 0x%08X, want 0x04030201 (R in the low byte)", got)
	}
	if got := binary.LittleEndian.Uint32(packed[4:]); got != 0x08070605 {
		t.Errorf("texel 1 = 0x%08X, want 0x08070605", got)
	}
}

func TestPackRGBASubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)

	packed := packRGBA(sub)
	if len(packed) != 2*2*4 {
		t.Fatalf("len = %d, want 16", len(packed))
	}
	for y := range 2 {
		want := img.Pix[img.PixOffset(1, 1+y):img.PixOffset(3, 1+y)]
		if got := packed[y*8 : y*8+8]; !bytes.Equal(got, want) {
			t.Errorf("row %d = %v, want %v", y, got, want)
		}
	}
}

func TestUnpackRGBARoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(255 - i)
	}
	packed := packRGBA(img)

	dst := make([]uint8, len(img.Pix))
	unpackRGBA(mappedBytes(unsafe.Pointer(&packed[0]), uint64(len(packed))), dst, 6)
	if !bytes.Equal(dst, img.Pix) {
		t.Errorf("round trip = %v, want %v", dst, img.Pix)
	}
}
