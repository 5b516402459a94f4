package envmap

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/envmap/geom"
)

var (
	colorFill   = color.RGBA{R: 20, G: 40, B: 60, A: 255}
	colorSample = color.RGBA{R: 250, G: 128, B: 3, A: 255}
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// quadrantImage colors the top-left, top-right, bottom-left and bottom-right
// quarters of an image red, blue, green and yellow.
func quadrantImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, quadrantColor(x < w/2, y < h/2))
		}
	}
	return img
}

func quadrantColor(left, top bool) color.RGBA {
	switch {
	case left && top:
		return color.RGBA{R: 255, A: 255}
	case !left && top:
		return color.RGBA{B: 255, A: 255}
	case left && !top:
		return color.RGBA{G: 255, A: 255}
	default:
		return color.RGBA{R: 255, G: 255, A: 255}
	}
}

// cubeFaces returns camera transforms looking along ±X, ±Y and ±Z.
func cubeFaces() []geom.Mat4 {
	yUp, zUp := geom.V3(0, 1, 0), geom.V3(0, 0, 1)
	return []geom.Mat4{
		geom.LookRotation(geom.Vec3{}, geom.V3(1, 0, 0), yUp),
		geom.LookRotation(geom.Vec3{}, geom.V3(-1, 0, 0), yUp),
		geom.LookRotation(geom.Vec3{}, geom.V3(0, 0, 1), yUp),
		geom.LookRotation(geom.Vec3{}, geom.V3(0, 0, -1), yUp),
		geom.LookRotation(geom.Vec3{}, geom.V3(0, 1, 0), zUp),
		geom.LookRotation(geom.Vec3{}, geom.V3(0, -1, 0), zUp),
	}
}

// cubeFaceHalfAngle is wide enough for six frustums to cover the sphere.
var cubeFaceHalfAngle = 50 * math.Pi / 180

// intrinsicsFor returns intrinsics giving the half angle on both axes for a
// square frame of size px.
func intrinsicsFor(halfAngle float64, px int) Intrinsics {
	f := float64(px) / (2 * math.Tan(halfAngle))
	return Intrinsics{Fx: f, Fy: f, Cx: float64(px) / 2, Cy: float64(px) / 2}
}

// frameInfoFor builds the FrameInfo of one update.
func frameInfoFor(m geom.Mat4, hHalf, vHalf float64, src *image.RGBA, pano *Panorama) FrameInfo {
	forward, _, _ := m.CameraBasis()
	corners := ComputeFrustum(m, hHalf, vHalf)
	return NewFrameInfo(corners, forward, src.Rect.Dx(), src.Rect.Dy(), pano.Width(), pano.Height())
}

func countColor(p *Panorama, c color.RGBA) int {
	n := 0
	for y := range p.Height() {
		for x := range p.Width() {
			if p.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}
