// Package color converts between sRGB-encoded bytes and linear light using
// lookup tables, and builds per-frame exposure tables on top of them.
//
// Exposure is a multiplication in linear light. Scaling sRGB bytes directly
// would bend the tone curve, so every gain goes through decode, scale and
// re-encode; the tables make that a single byte lookup per channel.
package color

import "math"

// sRGBToLinearLUT maps an sRGB byte to linear light in [0, 1].
var sRGBToLinearLUT [256]float32

// linearToSRGBLUT maps linear light quantized to 12 bits back to an sRGB
// byte. 4096 entries are enough to round-trip every 8-bit value.
var linearToSRGBLUT [4096]uint8

func init() {
	for i := range sRGBToLinearLUT {
		sRGBToLinearLUT[i] = SRGBToLinearSlow(uint8(i)) //nolint:gosec // i < 256
	}
	for i := range linearToSRGBLUT {
		linearToSRGBLUT[i] = LinearToSRGBSlow(float32(i) / 4095)
	}
}

// SRGBToLinearFast converts an sRGB byte to linear light.
//
//	SRGBToLinearFast(128) // ≈ 0.2159, not 0.5
func SRGBToLinearFast(s uint8) float32 {
	return sRGBToLinearLUT[s]
}

// LinearToSRGBFast converts linear light to an sRGB byte. Input outside
// [0, 1] is clamped, so over-exposed values saturate at 255.
func LinearToSRGBFast(l float32) uint8 {
	if !(l > 0) { // also catches NaN
		return 0
	}
	if l >= 1 {
		return 255
	}
	return linearToSRGBLUT[int(l*4095+0.5)]
}

// SRGBToLinearSlow is the math.Pow reference for SRGBToLinearFast.
func SRGBToLinearSlow(s uint8) float32 {
	sf := float64(s) / 255
	if sf <= 0.04045 {
		return float32(sf / 12.92)
	}
	return float32(math.Pow((sf+0.055)/1.055, 2.4))
}

// LinearToSRGBSlow is the math.Pow reference for LinearToSRGBFast.
func LinearToSRGBSlow(l float32) uint8 {
	lf := math.Min(math.Max(float64(l), 0), 1)
	var s float64
	if lf <= 0.0031308 {
		s = lf * 12.92
	} else {
		s = 1.055*math.Pow(lf, 1/2.4) - 0.055
	}
	return uint8(math.Min(math.Max(s*255+0.5, 0), 255)) //nolint:gosec // clamped to [0,255]
}

// ExposureTable maps every sRGB byte to the byte obtained by scaling its
// linear light by 2^ev. ev = 0 yields the identity table.
func ExposureTable(ev float64) *[256]uint8 {
	var t [256]uint8
	if ev == 0 {
		for i := range t {
			t[i] = uint8(i) //nolint:gosec // i < 256
		}
		return &t
	}
	gain := float32(math.Exp2(ev))
	for i := range t {
		t[i] = LinearToSRGBFast(sRGBToLinearLUT[i] * gain)
	}
	return &t
}

// ApplyTable rewrites the RGB channels of tightly packed or strided RGBA8
// rows through t. Alpha is left untouched.
func ApplyTable(pix []uint8, t *[256]uint8) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i+0] = t[pix[i+0]]
		pix[i+1] = t[pix[i+1]]
		pix[i+2] = t[pix[i+2]]
	}
}
