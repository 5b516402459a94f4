package geom

import "math"

// Mat4 is a 4x4 affine transform stored as four columns, the layout used by
// tracking sessions for camera-to-world transforms. Cols[3] holds the
// translation; the upper 3x3 block of Cols[0..2] is the rotation.
type Mat4 struct {
	Cols [4]Vec4
}

// Identity4 returns the identity transform.
func Identity4() Mat4 {
	return Mat4{Cols: [4]Vec4{
		{X: 1},
		{Y: 1},
		{Z: 1},
		{W: 1},
	}}
}

// Column returns the xyz part of column i.
func (m Mat4) Column(i int) Vec3 {
	return m.Cols[i].XYZ()
}

// Translation returns the translation part of the transform.
func (m Mat4) Translation() Vec3 {
	return m.Cols[3].XYZ()
}

// MulDir transforms a direction by the rotation part of m.
func (m Mat4) MulDir(d Vec3) Vec3 {
	return m.Column(0).Mul(d.X).Add(m.Column(1).Mul(d.Y)).Add(m.Column(2).Mul(d.Z))
}

// CameraBasis extracts the world-space forward, up and left vectors of a
// camera-to-world transform. The camera looks down its local -Z axis, so
// forward is the negated third column and left the negated first column.
// These signs must agree with the direction lookup's Y-up convention.
func (m Mat4) CameraBasis() (forward, up, left Vec3) {
	forward = m.Column(2).Neg()
	up = m.Column(1)
	left = m.Column(0).Neg()
	return forward, up, left
}

// LookRotation builds a camera-to-world transform at position eye whose camera
// looks along forward with the given approximate up vector. forward and up
// must not be parallel.
func LookRotation(eye, forward, up Vec3) Mat4 {
	f := forward.Normalize()
	right := f.Cross(up).Normalize()
	u := right.Cross(f)
	return Mat4{Cols: [4]Vec4{
		right.Extend(0),
		u.Extend(0),
		f.Neg().Extend(0),
		eye.Extend(1),
	}}
}

// YawPitch builds a camera transform at the origin rotated by yaw around +Y
// and then pitched by pitch around the camera's right axis. Positive pitch
// looks up. Angles are in radians.
func YawPitch(yaw, pitch float64) Mat4 {
	sy, cy := math.Sincos(yaw)
	sp, cp := math.Sincos(pitch)
	forward := Vec3{X: -sy * cp, Y: sp, Z: -cy * cp}
	up := Vec3{X: sy * sp, Y: cp, Z: cy * sp}
	return LookRotation(Vec3{}, forward, up)
}
