package envmap

import (
	"image"
	"math"

	"github.com/gogpu/envmap/internal/color"
)

// ExposureNormalizer brightens frames captured in darker conditions than the
// brightest seen so far, so that the panorama does not become a patchwork of
// exposures. It tracks the running maximum M of the ambient intensity
// estimates; M never decreases until Reset.
type ExposureNormalizer struct {
	max float64
}

// Observe folds estimate into the running maximum and returns the exposure
// adjustment for that frame, ev = 0.5·(M − estimate)/M. ev is in [0, 0.5]
// for estimates in [0, M] and 0 while M is 0. Negative or non-finite
// estimates are ignored and yield 0.
func (e *ExposureNormalizer) Observe(estimate float64) float64 {
	if estimate < 0 || math.IsNaN(estimate) || math.IsInf(estimate, 0) {
		return 0
	}
	e.max = math.Max(e.max, estimate)
	if e.max == 0 {
		return 0
	}
	return 0.5 * (e.max - estimate) / e.max
}

// Max returns the running maximum intensity.
func (e *ExposureNormalizer) Max() float64 { return e.max }

// Reset forgets the running maximum.
func (e *ExposureNormalizer) Reset() { e.max = 0 }

// ApplyExposure scales the linear-light RGB of img by 2^ev in place. Alpha
// is untouched; results saturate at white.
func ApplyExposure(img *image.RGBA, ev float64) {
	if ev == 0 {
		return
	}
	t := color.ExposureTable(ev)
	w := img.Rect.Dx() * 4
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		o := img.PixOffset(img.Rect.Min.X, y)
		color.ApplyTable(img.Pix[o:o+w], t)
	}
}
