package color

import (
	"math"
	"testing"
)

func TestSRGBToLinearAccuracy(t *testing.T) {
	for i := range 256 {
		s := uint8(i)
		fast, slow := SRGBToLinearFast(s), SRGBToLinearSlow(s)
		if fast != slow {
			t.Errorf("SRGBToLinearFast(%d) = %v, want %v", s, fast, slow)
		}
	}
}

func TestSRGBRoundTrip(t *testing.T) {
	for i := range 256 {
		s := uint8(i)
		// 12-bit quantization allows one byte of error.
		if got := LinearToSRGBFast(SRGBToLinearFast(s)); absDiff(got, s) > 1 {
			t.Errorf("round trip %d -> %d", s, got)
		}
	}
}

func TestLinearToSRGBClamps(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{1, 255},
		{4, 255},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 255},
	}
	for _, tt := range tests {
		if got := LinearToSRGBFast(tt.in); got != tt.want {
			t.Errorf("LinearToSRGBFast(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestExposureTable(t *testing.T) {
	identity := ExposureTable(0)
	for i, v := range identity {
		if int(v) != i {
			t.Fatalf("ExposureTable(0)[%d] = %d", i, v)
		}
	}

	brighter := ExposureTable(0.5)
	darker := ExposureTable(-0.5)
	for i := range 256 {
		if int(brighter[i])+1 < i {
			t.Errorf("ExposureTable(+0.5)[%d] = %d, want >= %d", i, brighter[i], i)
		}
		if int(darker[i]) > i+1 {
			t.Errorf("ExposureTable(-0.5)[%d] = %d, want <= %d", i, darker[i], i)
		}
	}
	if brighter[0] != 0 || brighter[255] != 255 {
		t.Errorf("black/white endpoints moved: %d %d", brighter[0], brighter[255])
	}

	// One stop doubles linear light: mid-grey 0.2140 becomes 0.4280.
	want := LinearToSRGBSlow(SRGBToLinearSlow(128) * 2)
	if got := ExposureTable(1)[128]; absDiff(got, want) > 1 {
		t.Errorf("ExposureTable(1)[128] = %d, want %d", got, want)
	}
}

func TestApplyTablePreservesAlpha(t *testing.T) {
	pix := []uint8{10, 20, 30, 40, 200, 100, 50, 7}
	ApplyTable(pix, ExposureTable(1))
	if pix[3] != 40 || pix[7] != 7 {
		t.Errorf("alpha changed: %v", pix)
	}
	if pix[0] <= 10 || pix[4] <= 200 {
		t.Errorf("RGB not brightened: %v", pix)
	}
}

func BenchmarkExposureTable(b *testing.B) {
	for b.Loop() {
		_ = ExposureTable(0.37)
	}
}

func BenchmarkApplyTable(b *testing.B) {
	pix := make([]uint8, 640*480*4)
	tab := ExposureTable(0.25)
	for b.Loop() {
		ApplyTable(pix, tab)
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
