package envmap

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/gogpu/envmap/geom"
)

// Intrinsics holds the pinhole camera parameters in pixels.
type Intrinsics struct {
	Fx, Fy float64 // focal lengths
	Cx, Cy float64 // principal point
}

// FieldOfView returns the horizontal and vertical half field-of-view angles
// in radians for a camera with the given intrinsics and image resolution.
// Non-positive focal lengths or resolutions yield zero angles, which produce
// a degenerate frustum that writes nothing.
func FieldOfView(intr Intrinsics, res image.Point) (hHalf, vHalf float64) {
	if intr.Fx > 0 && res.X > 0 {
		hHalf = 2 * math.Atan(float64(res.X)/(2*intr.Fx)) / 2
	}
	if intr.Fy > 0 && res.Y > 0 {
		vHalf = 2 * math.Atan(float64(res.Y)/(2*intr.Fy)) / 2
	}
	return hHalf, vHalf
}

// fovCache holds the half angles computed on first use. Intrinsics are
// assumed constant for a session; a change of image resolution (a camera
// mode switch) invalidates the cache.
type fovCache struct {
	valid        bool
	res          image.Point
	hHalf, vHalf float64
}

func (c *fovCache) get(intr Intrinsics, res image.Point) (hHalf, vHalf float64) {
	if !c.valid || c.res != res {
		c.hHalf, c.vHalf = FieldOfView(intr, res)
		c.res = res
		c.valid = true
	}
	return c.hHalf, c.vHalf
}

func (c *fovCache) reset() { *c = fovCache{} }

// Frustum corner order.
const (
	CornerBottomLeft = iota
	CornerBottomRight
	CornerTopRight
	CornerTopLeft
)

// cornerSigns are the (horizontal, vertical) rotation signs per corner.
var cornerSigns = [4][2]float64{
	CornerBottomLeft:  {+1, +1},
	CornerBottomRight: {-1, +1},
	CornerTopRight:    {-1, -1},
	CornerTopLeft:     {+1, -1},
}

// ComputeFrustum returns the world-space directions of the four frustum
// corners of a camera, in the order bottom-left, bottom-right, top-right,
// top-left.
//
// For each corner, forward and left are rotated around up by ±hHalf, then
// the rotated forward is rotated around the rotated left by ±vHalf. With
// hHalf = vHalf = 0 every corner equals the camera forward.
func ComputeFrustum(transform geom.Mat4, hHalf, vHalf float64) [4]geom.Vec3 {
	forward, up, left := transform.CameraBasis()
	var corners [4]geom.Vec3
	for i, s := range cornerSigns {
		h := s[0] * hHalf
		l := left.Rotate(up, h)
		f := forward.Rotate(up, h)
		corners[i] = f.Rotate(l, s[1]*vHalf)
	}
	return corners
}

// FrameInfoSize is the size in bytes of the packed FrameInfo record.
const FrameInfoSize = 112

// FrameInfo is the per-update record consumed by the reprojection kernel.
type FrameInfo struct {
	Corners [4]geom.Vec3
	Forward geom.Vec3

	// FrameWidth and FrameHeight are the distances between adjacent corner
	// directions (corner1-corner0 and corner3-corner0), the angular extent
	// of the frustum's far rectangle. They are not pixel sizes.
	FrameWidth, FrameHeight float64

	SourceWidth, SourceHeight     int
	PanoramaWidth, PanoramaHeight int
}

// NewFrameInfo packages the frustum of one update with the dimensions of the
// buffers used by that update.
func NewFrameInfo(corners [4]geom.Vec3, forward geom.Vec3, srcW, srcH, panoW, panoH int) FrameInfo {
	return FrameInfo{
		Corners:        corners,
		Forward:        forward,
		FrameWidth:     corners[CornerBottomRight].Distance(corners[CornerBottomLeft]),
		FrameHeight:    corners[CornerTopLeft].Distance(corners[CornerBottomLeft]),
		SourceWidth:    srcW,
		SourceHeight:   srcH,
		PanoramaWidth:  panoW,
		PanoramaHeight: panoH,
	}
}

// Bytes packs the record in the little-endian layout of the WGSL FrameInfo
// uniform:
//
//	offset  0  corner0..corner3  4 × vec4<f32> (w = 1)
//	offset 64  forward           vec4<f32> (w = 1)
//	offset 80  frame_width       f32
//	offset 84  frame_height      f32
//	offset 88  src_width         u32
//	offset 92  src_height        u32
//	offset 96  pano_width        u32
//	offset 100 pano_height       u32
//	offset 104 padding           2 × u32
func (fi *FrameInfo) Bytes() []byte {
	buf := make([]byte, FrameInfoSize)
	off := 0
	putVec4 := func(v geom.Vec3) {
		for _, c := range [4]float64{v.X, v.Y, v.Z, 1} {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(c)))
			off += 4
		}
	}
	for _, c := range fi.Corners {
		putVec4(c)
	}
	putVec4(fi.Forward)
	binary.LittleEndian.PutUint32(buf[80:], math.Float32bits(float32(fi.FrameWidth)))
	binary.LittleEndian.PutUint32(buf[84:], math.Float32bits(float32(fi.FrameHeight)))
	binary.LittleEndian.PutUint32(buf[88:], uint32(fi.SourceWidth))     //nolint:gosec // frame sizes fit uint32
	binary.LittleEndian.PutUint32(buf[92:], uint32(fi.SourceHeight))    //nolint:gosec // frame sizes fit uint32
	binary.LittleEndian.PutUint32(buf[96:], uint32(fi.PanoramaWidth))   //nolint:gosec // bounded by maxPanoramaHeight
	binary.LittleEndian.PutUint32(buf[100:], uint32(fi.PanoramaHeight)) //nolint:gosec // bounded by maxPanoramaHeight
	return buf
}
