package envmap

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Panorama is the equirectangular RGBA8 texture being built. Its width is
// always twice its height and its dimensions never change. Texels are
// stored row-major without padding.
//
// A Panorama is owned by one Mapper and mutated only by the kernel.
type Panorama struct {
	width  int
	height int
	pix    []uint8
}

// NewPanorama creates a panorama of the given height filled with fill.
func NewPanorama(height int, fill color.Color) (*Panorama, error) {
	if height <= 0 || height > maxPanoramaHeight {
		return nil, fmt.Errorf("%w: height %d", ErrInvalidDimensions, height)
	}
	p := &Panorama{
		width:  2 * height,
		height: height,
		pix:    make([]uint8, 2*height*height*4),
	}
	p.Fill(fill)
	return p, nil
}

// NewPanoramaFromImage creates a panorama holding a copy of img, which must
// be exactly twice as wide as it is tall.
func NewPanoramaFromImage(img image.Image) (*Panorama, error) {
	b := img.Bounds()
	if err := checkAspect(b); err != nil {
		return nil, err
	}
	if b.Dy() > maxPanoramaHeight {
		return nil, fmt.Errorf("%w: height %d", ErrInvalidDimensions, b.Dy())
	}
	p := &Panorama{
		width:  b.Dx(),
		height: b.Dy(),
		pix:    make([]uint8, b.Dx()*b.Dy()*4),
	}
	p.drawImage(img)
	return p, nil
}

func checkAspect(b image.Rectangle) error {
	if b.Dy() <= 0 || b.Dx() != 2*b.Dy() {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidAspectRatio, b.Dx(), b.Dy())
	}
	return nil
}

// Width returns the panorama width in texels.
func (p *Panorama) Width() int { return p.width }

// Height returns the panorama height in texels.
func (p *Panorama) Height() int { return p.height }

// Stride returns the number of bytes per row.
func (p *Panorama) Stride() int { return p.width * 4 }

// Pix returns the RGBA8 texels. Kernels write through this slice.
func (p *Panorama) Pix() []uint8 { return p.pix }

// Bounds returns the panorama rectangle.
func (p *Panorama) Bounds() image.Rectangle { return image.Rect(0, 0, p.width, p.height) }

// RGBAAt returns the texel at (x, y), or transparent black outside.
func (p *Panorama) RGBAAt(x, y int) color.RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.RGBA{}
	}
	i := (y*p.width + x) * 4
	return color.RGBA{R: p.pix[i], G: p.pix[i+1], B: p.pix[i+2], A: p.pix[i+3]}
}

// Fill sets every texel to c.
func (p *Panorama) Fill(c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	if len(p.pix) == 0 {
		return
	}
	p.pix[0], p.pix[1], p.pix[2], p.pix[3] = rgba.R, rgba.G, rgba.B, rgba.A
	for n := 4; n < len(p.pix); n *= 2 {
		copy(p.pix[n:], p.pix[:n])
	}
}

// SetImage replaces the texels with img. An image with the panorama's
// aspect ratio but a different size is resampled to fit.
func (p *Panorama) SetImage(img image.Image) error {
	b := img.Bounds()
	if err := checkAspect(b); err != nil {
		return err
	}
	if b.Dx() == p.width && b.Dy() == p.height {
		p.drawImage(img)
		return nil
	}
	dst := p.view()
	draw.BiLinear.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return nil
}

func (p *Panorama) drawImage(img image.Image) {
	dst := p.view()
	draw.Draw(dst, dst.Rect, img, img.Bounds().Min, draw.Src)
}

// view wraps the texels as an *image.RGBA sharing storage.
func (p *Panorama) view() *image.RGBA {
	return &image.RGBA{Pix: p.pix, Stride: p.Stride(), Rect: p.Bounds()}
}

// ToImage returns a copy of the panorama as an *image.RGBA.
func (p *Panorama) ToImage() *image.RGBA {
	img := image.NewRGBA(p.Bounds())
	copy(img.Pix, p.pix)
	return img
}
