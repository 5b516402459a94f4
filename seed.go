package envmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io/fs"
	"os"

	// Seed image decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mrjoshuak/go-openexr/exr"

	"github.com/gogpu/envmap/internal/color"
)

// exrMagic is the first word of every OpenEXR file.
const exrMagic = 20000630

// LoadSeedImage decodes a seed panorama. PNG, JPEG, GIF, BMP, TIFF, WebP and
// OpenEXR are recognized by content. EXR texels are clamped to [0, 1] and
// converted from linear light to sRGB.
func LoadSeedImage(data []byte) (image.Image, error) {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == exrMagic {
		img, err := exr.Decode(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: decode exr: %w", ErrSeedImage, err)
		}
		return exrToRGBA(img), nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeedImage, err)
	}
	return img, nil
}

func exrToRGBA(src *exr.RGBAImage) *image.RGBA {
	b := src.Rect
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		row := dst.Pix[y*dst.Stride:]
		for x := range b.Dx() {
			r, g, bl, a := src.RGBA(b.Min.X+x, b.Min.Y+y)
			o := x * 4
			row[o+0] = color.LinearToSRGBFast(r)
			row[o+1] = color.LinearToSRGBFast(g)
			row[o+2] = color.LinearToSRGBFast(bl)
			row[o+3] = unitToByte(a)
		}
	}
	return dst
}

func unitToByte(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func readSeedFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeedImage, err)
	}
	return LoadSeedImage(data)
}

func readSeedFS(fsys fs.FS, name string) (image.Image, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeedImage, err)
	}
	return LoadSeedImage(data)
}
