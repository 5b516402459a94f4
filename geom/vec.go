// Package geom provides the small amount of 3D vector math the mapper needs:
// vectors, rotation about an arbitrary axis and camera transforms.
//
// The world is right-handed and Y-up, matching the camera transforms delivered
// by AR tracking sessions: a camera with an identity rotation looks down -Z
// with +Y up and +X to its right.
package geom

import "math"

// Vec3 represents a 3D vector or direction.
type Vec3 struct {
	X, Y, Z float64
}

// V3 is a convenience function to create a Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Mul returns the vector scaled by a scalar.
func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Div returns the vector divided by a scalar.
func (v Vec3) Div(s float64) Vec3 {
	return v.Mul(1 / s)
}

// Neg returns the negation of the vector.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v × w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the magnitude of the vector.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns a unit vector in the same direction.
// The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Div(l)
}

// Distance returns the Euclidean distance between the tips of two vectors.
func (v Vec3) Distance(w Vec3) float64 {
	return v.Sub(w).Length()
}

// ApproxEqual reports whether every component differs by at most eps.
func (v Vec3) ApproxEqual(w Vec3, eps float64) bool {
	return math.Abs(v.X-w.X) <= eps && math.Abs(v.Y-w.Y) <= eps && math.Abs(v.Z-w.Z) <= eps
}

// Rotate rotates v around axis by theta radians using Rodrigues' formula:
//
//	v·cosθ + (axis × v)·sinθ + axis·(axis·v)·(1 − cosθ)
//
// axis must be unit length. It is not renormalized here; a non-unit axis
// scales and skews the result.
func (v Vec3) Rotate(axis Vec3, theta float64) Vec3 {
	sin, cos := math.Sincos(theta)
	r := v.Mul(cos)
	r = r.Add(axis.Cross(v).Mul(sin))
	return r.Add(axis.Mul(axis.Dot(v) * (1 - cos)))
}

// Vec4 is a homogeneous 4-component vector.
type Vec4 struct {
	X, Y, Z, W float64
}

// Extend returns v as a Vec4 with the given w component.
func (v Vec3) Extend(w float64) Vec4 {
	return Vec4{X: v.X, Y: v.Y, Z: v.Z, W: w}
}

// XYZ drops the w component.
func (v Vec4) XYZ() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}
