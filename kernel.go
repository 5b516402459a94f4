package envmap

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/envmap/geom"
)

// Work group size of the reprojection kernel, in texels. The GPU shader
// declares the same @workgroup_size.
const (
	WorkGroupWidth  = 16
	WorkGroupHeight = 32
)

// kernelEpsilon rejects grazing rays and degenerate frustums.
const kernelEpsilon = 1e-6

// WorkGroups returns the dispatch grid for a panorama: ⌈w/16⌉ × ⌈h/32⌉.
// Lanes past the panorama edge do nothing.
func WorkGroups(width, height int) (x, y int) {
	return (width + WorkGroupWidth - 1) / WorkGroupWidth, (height + WorkGroupHeight - 1) / WorkGroupHeight
}

// projector maps directions onto the source frame for one FrameInfo.
//
// A direction d is visible when the ray along d hits the frustum's far
// rectangle: the plane through the corners with normal forward. The hit p is
// expressed in the rectangle's own basis (bottom-left origin, edges towards
// bottom-right and top-left), giving u, v in [0, 1].
type projector struct {
	valid   bool
	forward geom.Vec3
	origin  geom.Vec3 // corner0
	edgeU   geom.Vec3 // corner1 - corner0
	edgeV   geom.Vec3 // corner3 - corner0
	dist    float64   // corner0 · forward
	invU2   float64   // 1 / FrameWidth²
	invV2   float64   // 1 / FrameHeight²
	srcW    int
	srcH    int
}

func newProjector(fi *FrameInfo) projector {
	p := projector{
		forward: fi.Forward,
		origin:  fi.Corners[CornerBottomLeft],
		srcW:    fi.SourceWidth,
		srcH:    fi.SourceHeight,
	}
	p.edgeU = fi.Corners[CornerBottomRight].Sub(p.origin)
	p.edgeV = fi.Corners[CornerTopLeft].Sub(p.origin)
	p.dist = p.origin.Dot(p.forward)
	if fi.FrameWidth <= kernelEpsilon || fi.FrameHeight <= kernelEpsilon ||
		p.dist <= kernelEpsilon || p.srcW <= 0 || p.srcH <= 0 {
		return p
	}
	p.invU2 = 1 / (fi.FrameWidth * fi.FrameWidth)
	p.invV2 = 1 / (fi.FrameHeight * fi.FrameHeight)
	p.valid = true
	return p
}

// project returns the source pixel seen along d, or ok=false when d lies
// outside the frustum. Row 0 of the source is its top edge.
func (p *projector) project(d geom.Vec3) (x, y int, ok bool) {
	if !p.valid {
		return 0, 0, false
	}
	denom := d.Dot(p.forward)
	if denom <= kernelEpsilon {
		return 0, 0, false
	}
	rel := d.Mul(p.dist / denom).Sub(p.origin)
	u := rel.Dot(p.edgeU) * p.invU2
	v := rel.Dot(p.edgeV) * p.invV2
	if u < 0 || u > 1 || v < 0 || v > 1 || math.IsNaN(u) || math.IsNaN(v) {
		return 0, 0, false
	}
	x = min(int(u*float64(p.srcW)), p.srcW-1)
	y = min(int((1-v)*float64(p.srcH)), p.srcH-1)
	return x, y, true
}

// reprojectRegion runs the kernel over the texels [x0,x1)×[y0,y1). Visible
// texels are overwritten with the source sample, others are left untouched.
func reprojectRegion(p *projector, lookup []uint8, src *image.RGBA, pano []uint8, stride, x0, y0, x1, y1 int) {
	sx0, sy0 := src.Rect.Min.X, src.Rect.Min.Y
	for y := y0; y < y1; y++ {
		row := y * stride
		for x := x0; x < x1; x++ {
			o := row + x*4
			fx, fy, ok := p.project(decodeDirection(lookup[o : o+3 : o+3]))
			if !ok {
				continue
			}
			so := src.PixOffset(sx0+fx, sy0+fy)
			copy(pano[o:o+4], src.Pix[so:so+4])
		}
	}
}

// checkDispatch validates that the lookup, the frame record and the buffers
// of one update agree.
func checkDispatch(lookup *DirectionLookup, info *FrameInfo, src *image.RGBA, pano *Panorama) error {
	if lookup.Width() != pano.Width() || lookup.Height() != pano.Height() {
		return fmt.Errorf("lookup %dx%d does not match panorama %dx%d",
			lookup.Width(), lookup.Height(), pano.Width(), pano.Height())
	}
	if info.PanoramaWidth != pano.Width() || info.PanoramaHeight != pano.Height() {
		return fmt.Errorf("frame info panorama %dx%d does not match panorama %dx%d",
			info.PanoramaWidth, info.PanoramaHeight, pano.Width(), pano.Height())
	}
	if src == nil || info.SourceWidth != src.Rect.Dx() || info.SourceHeight != src.Rect.Dy() {
		return fmt.Errorf("frame info source %dx%d does not match frame", info.SourceWidth, info.SourceHeight)
	}
	return nil
}
