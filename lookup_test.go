package envmap

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestBuildDirectionLookupDimensions(t *testing.T) {
	for _, h := range []int{1, 2, 16, 64, 100} {
		l, err := BuildDirectionLookup(h)
		if err != nil {
			t.Fatalf("BuildDirectionLookup(%d): %v", h, err)
		}
		if l.Width() != 2*h || l.Height() != h {
			t.Errorf("BuildDirectionLookup(%d) = %dx%d, want %dx%d", h, l.Width(), l.Height(), 2*h, h)
		}
		if len(l.Pix()) != 2*h*h*4 {
			t.Errorf("len(Pix()) = %d, want %d", len(l.Pix()), 2*h*h*4)
		}
	}
}

func TestBuildDirectionLookupInvalidHeight(t *testing.T) {
	for _, h := range []int{0, -1, maxPanoramaHeight + 1} {
		if _, err := BuildDirectionLookup(h); !errors.Is(err, ErrAllocation) {
			t.Errorf("BuildDirectionLookup(%d) error = %v, want ErrAllocation", h, err)
		}
	}
}

func TestDirectionLookupUnitLength(t *testing.T) {
	const h = 64
	l, err := BuildDirectionLookup(h)
	if err != nil {
		t.Fatal(err)
	}
	for y := range l.Height() {
		for x := range l.Width() {
			d := l.Direction(x, y)
			if math.Abs(d.Length()-1) > 0.02 {
				t.Fatalf("|Direction(%d, %d)| = %v, want 1 ± 0.02", x, y, d.Length())
			}
		}
	}
	pix := l.Pix()
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 255 {
			t.Fatalf("alpha at byte %d = %d, want 255", i, pix[i])
		}
	}
}

func TestDirectionLookupPoles(t *testing.T) {
	const h = 64
	l, err := BuildDirectionLookup(h)
	if err != nil {
		t.Fatal(err)
	}
	for x := 0; x < l.Width(); x += 7 {
		top := l.Direction(x, 0)
		if top.Y < 0.99 {
			t.Errorf("row 0 Direction(%d).Y = %v, want near +1", x, top.Y)
		}
		bottom := l.Direction(x, h-1)
		if math.Abs(bottom.Y+1) > 1e-9 || math.Abs(bottom.X) > 0.01 || math.Abs(bottom.Z) > 0.01 {
			t.Errorf("row H-1 Direction(%d) = %v, want -Y", x, bottom)
		}
	}
}

func TestDirectionLookupAzimuth(t *testing.T) {
	const h = 32
	l, err := BuildDirectionLookup(h)
	if err != nil {
		t.Fatal(err)
	}
	// The last column closes the circle at φ = 2π, pointing along +X at the
	// equator.
	d := l.Direction(l.Width()-1, h/2-1)
	if d.X < 0.98 || math.Abs(d.Z) > 0.01 {
		t.Errorf("equator, last column = %v, want +X", d)
	}
	// A quarter turn in lands on +Z.
	d = l.Direction(l.Width()/4-1, h/2-1)
	if d.Z < 0.98 || math.Abs(d.X) > 0.01 {
		t.Errorf("equator, quarter column = %v, want +Z", d)
	}
}

func TestDirectionLookupDeterministic(t *testing.T) {
	a, err := BuildDirectionLookup(48)
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildDirectionLookup(48)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix(), b.Pix()) {
		t.Error("repeated builds of the same height differ")
	}
}
