package envmap

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/envmap/geom"
)

// maxPanoramaHeight bounds the panorama so that width*height*4 bytes stays
// addressable by a 32-bit GPU index.
const maxPanoramaHeight = 1 << 14

// DirectionLookup maps every equirectangular texel to a unit world direction.
//
// Texel (j, i) stores the direction for polar angle θ = π(i+1)/H and azimuth
// φ = 2π(j+1)/W in a right-handed Y-up frame:
//
//	x = sinθ·cosφ
//	y = cosθ
//	z = sinθ·sinφ
//
// Row 0 lies next to +Y and row H-1 is exactly -Y. Each component v is
// stored as uint8((v+1)/2·255), truncated; alpha is 255. The lookup is
// immutable once built.
type DirectionLookup struct {
	img *image.RGBA
}

// unitFromByte decodes a stored component back to [-1, 1].
var unitFromByte [256]float64

func init() {
	for i := range unitFromByte {
		unitFromByte[i] = float64(i)/255*2 - 1
	}
}

// BuildDirectionLookup computes the lookup for a panorama of the given
// height. The width is always 2*height.
func BuildDirectionLookup(height int) (*DirectionLookup, error) {
	if height <= 0 || height > maxPanoramaHeight {
		return nil, fmt.Errorf("%w: direction lookup height %d", ErrAllocation, height)
	}
	width := 2 * height
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Azimuth terms are shared by every row.
	sinPhi := make([]float64, width)
	cosPhi := make([]float64, width)
	for j := range width {
		phi := 2 * math.Pi * float64(j+1) / float64(width)
		sinPhi[j], cosPhi[j] = math.Sincos(phi)
	}

	for i := range height {
		theta := math.Pi * float64(i+1) / float64(height)
		sinTheta, cosTheta := math.Sincos(theta)
		row := img.Pix[i*img.Stride : i*img.Stride+width*4]
		y := encodeUnit(cosTheta)
		for j := range width {
			o := j * 4
			row[o+0] = encodeUnit(sinTheta * cosPhi[j])
			row[o+1] = y
			row[o+2] = encodeUnit(sinTheta * sinPhi[j])
			row[o+3] = 255
		}
	}
	return &DirectionLookup{img: img}, nil
}

// encodeUnit maps v in [-1, 1] to [0, 255], truncating.
func encodeUnit(v float64) uint8 {
	s := (v + 1) / 2 * 255
	if s <= 0 {
		return 0
	}
	if s >= 255 {
		return 255
	}
	return uint8(s)
}

// Width returns the lookup width in texels.
func (l *DirectionLookup) Width() int { return l.img.Rect.Dx() }

// Height returns the lookup height in texels.
func (l *DirectionLookup) Height() int { return l.img.Rect.Dy() }

// Pix returns the encoded RGBA8 texels, row-major with no padding.
// The slice must not be modified.
func (l *DirectionLookup) Pix() []uint8 { return l.img.Pix }

// Image returns the lookup as an image, for inspection and debugging.
// The image must not be modified.
func (l *DirectionLookup) Image() *image.RGBA { return l.img }

// Direction decodes the direction stored at texel (x, y). The result has
// unit length up to quantization error.
func (l *DirectionLookup) Direction(x, y int) geom.Vec3 {
	o := l.img.PixOffset(x, y)
	return decodeDirection(l.img.Pix[o : o+3 : o+3])
}

func decodeDirection(p []uint8) geom.Vec3 {
	return geom.Vec3{
		X: unitFromByte[p[0]],
		Y: unitFromByte[p[1]],
		Z: unitFromByte[p[2]],
	}
}
