// Command envmapdemo builds an environment map of a procedural room by
// sweeping a virtual camera around it.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"math"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/envmap"
	"github.com/gogpu/envmap/geom"
	_ "github.com/gogpu/envmap/gpu" // Register the wgpu compute backend
)

const (
	frameWidth  = 320
	frameHeight = 240
	focal       = 260.0
)

func main() {
	var (
		height   = flag.Int("height", 512, "panorama height (width is twice this)")
		frames   = flag.Int("frames", 72, "number of camera frames in the sweep")
		backend  = flag.String("backend", "auto", "compute backend: auto, gpu or software")
		exposure = flag.Bool("exposure", false, "normalize frame exposure")
		output   = flag.String("output", "envmap.png", "PNG output file")
		exrOut   = flag.String("exr", "", "optional OpenEXR output file")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	envmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	kind, err := parseBackend(*backend)
	if err != nil {
		log.Fatal(err)
	}

	m, err := envmap.New(*height, color.RGBA{A: 255},
		envmap.WithBackend(kind),
		envmap.WithExposureCorrection(*exposure),
		envmap.WithUpdatesPerSecond(30))
	if err != nil {
		log.Fatalf("Failed to create mapper: %v", err)
	}
	defer m.Close()
	m.Start()

	start := time.Now()
	applied := sweep(m, *frames)
	elapsed := time.Since(start)

	if err := save(m, envmap.FormatPNG, *output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	if *exrOut != "" {
		if err := save(m, envmap.FormatEXR, *exrOut); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
	}

	p := message.NewPrinter(language.English)
	p.Printf("Backend:    %s\n", m.Backend())
	p.Printf("Panorama:   %d x %d (%d texels)\n", m.Width(), m.Height(), m.Width()*m.Height())
	p.Printf("Frames:     %d of %d applied in %v\n", applied, *frames, elapsed.Round(time.Millisecond))
	p.Printf("Saved to %s\n", *output)
}

func parseBackend(s string) (envmap.BackendKind, error) {
	for _, k := range []envmap.BackendKind{envmap.BackendAuto, envmap.BackendGPU, envmap.BackendSoftware} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown backend %q", s)
}

// sweep turns the camera through n poses on three pitch rings and feeds one
// frame per pose, 100ms apart.
func sweep(m *envmap.Mapper, n int) int {
	intr := envmap.Intrinsics{Fx: focal, Fy: focal, Cx: frameWidth / 2, Cy: frameHeight / 2}
	pitches := []float64{0, math.Pi / 4, -math.Pi / 4}
	epoch := time.Unix(0, 0)
	applied := 0

	for i := range n {
		ring := i % len(pitches)
		yaw := 2 * math.Pi * float64(i/len(pitches)) / math.Ceil(float64(n)/float64(len(pitches)))
		pose := geom.YawPitch(yaw, pitches[ring])

		// Simulated auto-exposure: darker frames report a lower intensity.
		light := 1000 * (0.6 + 0.4*math.Cos(yaw))
		frame := &envmap.Frame{
			Timestamp: epoch.Add(time.Duration(i) * 100 * time.Millisecond),
			Camera: envmap.Camera{
				Transform:  pose,
				Intrinsics: intr,
				Resolution: image.Pt(frameWidth, frameHeight),
			},
			Image:         renderFrame(pose, intr, light/1000),
			LightEstimate: &light,
		}
		ok, err := m.UpdateMap(frame)
		if err != nil {
			log.Printf("Frame %d: %v", i, err)
			continue
		}
		if ok {
			applied++
		}
	}
	return applied
}

// renderFrame ray-casts the room through a pinhole camera.
func renderFrame(pose geom.Mat4, intr envmap.Intrinsics, gain float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	for y := range frameHeight {
		for x := range frameWidth {
			d := geom.V3((float64(x)+0.5-intr.Cx)/intr.Fx, -(float64(y)+0.5-intr.Cy)/intr.Fy, -1)
			c := room(pose.MulDir(d).Normalize())
			img.SetRGBA(x, y, color.RGBA{
				R: scale(c.R, gain), G: scale(c.G, gain), B: scale(c.B, gain), A: 255,
			})
		}
	}
	return img
}

func scale(v uint8, gain float64) uint8 {
	return uint8(math.Min(255, float64(v)*gain))
}

// room returns the color seen along the unit direction d from the center of
// a 4 x 3 x 4 room: a checkered floor, a ceiling with a light panel and
// walls tinted by compass direction with a window on the -Z wall.
func room(d geom.Vec3) color.RGBA {
	const halfW, floorY, ceilY = 2.0, -1.5, 1.5

	// Distance to the first surface along d.
	t := math.Inf(1)
	if d.Y < 0 {
		t = floorY / d.Y
	} else if d.Y > 0 {
		t = ceilY / d.Y
	}
	if d.X != 0 {
		t = math.Min(t, halfW/math.Abs(d.X))
	}
	if d.Z != 0 {
		t = math.Min(t, halfW/math.Abs(d.Z))
	}
	p := d.Mul(t)

	switch {
	case math.Abs(p.Y-floorY) < 1e-6:
		if (int(math.Floor(p.X*2))+int(math.Floor(p.Z*2)))%2 == 0 {
			return color.RGBA{R: 170, G: 150, B: 120, A: 255}
		}
		return color.RGBA{R: 90, G: 70, B: 50, A: 255}
	case math.Abs(p.Y-ceilY) < 1e-6:
		if math.Abs(p.X) < 0.6 && math.Abs(p.Z) < 0.6 {
			return color.RGBA{R: 255, G: 250, B: 230, A: 255}
		}
		return color.RGBA{R: 200, G: 200, B: 200, A: 255}
	case math.Abs(p.Z+halfW) < 1e-6:
		if math.Abs(p.X) < 0.8 && p.Y > -0.3 && p.Y < 0.9 {
			return color.RGBA{R: 140, G: 190, B: 240, A: 255}
		}
		return color.RGBA{R: 180, G: 60, B: 60, A: 255}
	case math.Abs(p.Z-halfW) < 1e-6:
		return color.RGBA{R: 60, G: 150, B: 70, A: 255}
	case p.X > 0:
		return color.RGBA{R: 60, G: 80, B: 170, A: 255}
	default:
		return color.RGBA{R: 200, G: 170, B: 60, A: 255}
	}
}

func save(m *envmap.Mapper, f envmap.Format, path string) error {
	out, err := m.CurrentMap(f)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := out.(*envmap.EncodedMap).WriteTo(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
