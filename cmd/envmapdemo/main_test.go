package main

import (
	"image/color"
	"testing"

	"github.com/gogpu/envmap"
	"github.com/gogpu/envmap/geom"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    envmap.BackendKind
		wantErr bool
	}{
		{"auto", envmap.BackendAuto, false},
		{"gpu", envmap.BackendGPU, false},
		{"software", envmap.BackendSoftware, false},
		{"cuda", 0, true},
	}
	for _, tt := range tests {
		got, err := parseBackend(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBackend(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseBackend(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRoomSurfaces(t *testing.T) {
	tests := []struct {
		name string
		dir  geom.Vec3
		want color.RGBA
	}{
		{"ceiling light", geom.V3(0, 1, 0), color.RGBA{R: 255, G: 250, B: 230, A: 255}},
		{"window", geom.V3(0, 0.1, -1).Normalize(), color.RGBA{R: 140, G: 190, B: 240, A: 255}},
		{"back wall", geom.V3(0, 0, 1), color.RGBA{R: 60, G: 150, B: 70, A: 255}},
		{"right wall", geom.V3(1, 0, 0), color.RGBA{R: 60, G: 80, B: 170, A: 255}},
		{"left wall", geom.V3(-1, 0, 0), color.RGBA{R: 200, G: 170, B: 60, A: 255}},
	}
	for _, tt := range tests {
		if got := room(tt.dir); got != tt.want {
			t.Errorf("%s: room(%v) = %v, want %v", tt.name, tt.dir, got, tt.want)
		}
	}
}

func TestSweepAppliesFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping sweep in short mode")
	}
	m, err := envmap.New(32, color.RGBA{A: 255}, envmap.WithBackend(envmap.BackendSoftware), envmap.WithUpdatesPerSecond(30))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	m.Start()

	if got := sweep(m, 6); got != 6 {
		t.Errorf("sweep applied %d frames, want 6", got)
	}
}
