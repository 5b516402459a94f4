package envmap

import (
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Mapper incrementally builds an equirectangular environment map from a
// stream of pose-tracked camera frames.
//
// A Mapper starts idle; call Start to begin accepting frames. Frames are
// delivered with UpdateMap, typically from the tracking session's frame
// callback. Admitted frames are reprojected onto the panorama and overwrite
// the texels they cover. The panorama can be read at any time with
// CurrentMap.
//
// All methods are safe for concurrent use. Updates run synchronously on the
// calling goroutine.
type Mapper struct {
	mu sync.Mutex

	id   string
	opts options

	lookup      *DirectionLookup
	pano        *Panorama
	backend     ComputeBackend
	ownsBackend bool
	kernel      Kernel

	sched    *UpdateScheduler
	exposure ExposureNormalizer
	fov      fovCache

	degraded       bool
	degradedLogged bool
	closed         bool

	revision uint64 // bumped whenever the panorama content changes
}

// New creates a Mapper with a panorama of the given height (width is twice
// the height) filled with fill.
func New(height int, fill color.Color, opts ...Option) (*Mapper, error) {
	pano, err := NewPanorama(height, fill)
	if err != nil {
		return nil, err
	}
	return newMapper(pano, opts)
}

// NewFromImage creates a Mapper seeded with a copy of img. The image must be
// exactly twice as wide as it is tall.
func NewFromImage(img image.Image, opts ...Option) (*Mapper, error) {
	pano, err := NewPanoramaFromImage(img)
	if err != nil {
		return nil, err
	}
	return newMapper(pano, opts)
}

// NewFromFile creates a Mapper seeded with the image file at path.
// See LoadSeedImage for the recognized formats.
func NewFromFile(path string, opts ...Option) (*Mapper, error) {
	img, err := readSeedFile(path)
	if err != nil {
		return nil, err
	}
	return NewFromImage(img, opts...)
}

// NewFromFS creates a Mapper seeded with the named image in fsys, such as
// an embed.FS of bundled assets.
func NewFromFS(fsys fs.FS, name string, opts ...Option) (*Mapper, error) {
	img, err := readSeedFS(fsys, name)
	if err != nil {
		return nil, err
	}
	return NewFromImage(img, opts...)
}

func newMapper(pano *Panorama, opts []Option) (*Mapper, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	lookup, err := BuildDirectionLookup(pano.Height())
	if err != nil {
		return nil, err
	}

	m := &Mapper{
		id:     uuid.NewString(),
		opts:   o,
		lookup: lookup,
		pano:   pano,
		sched:  NewUpdateScheduler(o.rate),
	}
	if err := m.openKernel(); err != nil {
		return nil, err
	}

	m.logger().Info("envmap: mapper created",
		"backend", m.backend.Name(),
		"width", pano.Width(),
		"height", pano.Height(),
		"rate", o.rate,
		"exposure", o.exposure)
	return m, nil
}

// openKernel selects the backend and loads the initial panorama into a new
// kernel.
func (m *Mapper) openKernel() error {
	if b := m.opts.compute; b != nil {
		return m.useBackend(b, false)
	}

	switch m.opts.backendKind {
	case BackendGPU:
		b := RegisteredBackend()
		if b == nil {
			return ErrUnsupportedBackend
		}
		return m.useBackend(b, false)

	case BackendAuto:
		if b := RegisteredBackend(); b != nil {
			err := m.useBackend(b, false)
			if err == nil {
				return nil
			}
			m.logger().Warn("envmap: compute backend unavailable, using software",
				"backend", b.Name(), "err", err)
		}
	}

	sw := NewSoftwareBackend(m.opts.workers)
	if err := sw.Init(); err != nil {
		return fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	if err := m.useBackend(sw, true); err != nil {
		sw.Close()
		return err
	}
	return nil
}

func (m *Mapper) useBackend(b ComputeBackend, owned bool) error {
	k, err := b.NewKernel(m.lookup)
	if err != nil {
		return fmt.Errorf("%w: %s kernel: %w", ErrAllocation, b.Name(), err)
	}
	if err := k.Load(m.pano); err != nil {
		k.Release()
		return fmt.Errorf("%w: %s load: %w", ErrAllocation, b.Name(), err)
	}
	m.backend, m.ownsBackend, m.kernel = b, owned, k
	return nil
}

func (m *Mapper) logger() *slog.Logger {
	l := m.opts.logger
	if l == nil {
		l = Logger()
	}
	return l.With("session", m.id)
}

// Start begins accepting frames.
func (m *Mapper) Start() {
	m.mu.Lock()
	m.sched.Start()
	m.mu.Unlock()
}

// Stop stops accepting frames. The panorama is kept.
func (m *Mapper) Stop() {
	m.mu.Lock()
	m.sched.Stop()
	m.mu.Unlock()
}

// Active reports whether the Mapper is accepting frames.
func (m *Mapper) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.State() == Active
}

// UpdateMap offers a frame to the Mapper and reports whether the panorama
// was updated from it.
//
// A frame is dropped without error while the Mapper is stopped, when it
// arrives too soon after the previous update, or while the Mapper is
// degraded. When the kernel fails the error wraps ErrDispatch and the
// panorama keeps its previous content.
func (m *Mapper) UpdateMap(frame *Frame) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrClosed
	}
	if frame == nil || frame.Image == nil || frame.Image.Bounds().Empty() {
		return false, ErrInvalidFrame
	}
	if m.sched.State() != Active {
		return false, nil
	}

	var ev float64
	if m.opts.exposure && frame.LightEstimate != nil {
		ev = m.exposure.Observe(*frame.LightEstimate)
	}

	now := frame.Timestamp
	if now.IsZero() {
		now = m.opts.clock()
	}
	if !m.sched.Admit(now) {
		return false, nil
	}

	if m.degraded {
		if !m.degradedLogged {
			m.logger().Warn("envmap: kernel unavailable, dropping updates until reset")
			m.degradedLogged = true
		}
		return false, nil
	}

	src := prepareFrame(frame.Image, m.opts.maxFrameWidth)
	ApplyExposure(src, ev)

	cam := frame.Camera
	res := cam.Resolution
	if res.X <= 0 || res.Y <= 0 {
		res = frame.Image.Bounds().Size()
	}
	hHalf, vHalf := m.fov.get(cam.Intrinsics, res)
	forward, _, _ := cam.Transform.CameraBasis()
	corners := ComputeFrustum(cam.Transform, hHalf, vHalf)
	info := NewFrameInfo(corners, forward, src.Rect.Dx(), src.Rect.Dy(), m.pano.Width(), m.pano.Height())

	if err := m.kernel.Dispatch(&info, src, m.pano); err != nil {
		m.logger().Warn("envmap: update dropped", "backend", m.backend.Name(), "err", err)
		return false, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	m.revision++

	m.logger().Debug("envmap: update applied",
		"frame", src.Rect.Size(),
		"extent_w", info.FrameWidth,
		"extent_h", info.FrameHeight,
		"ev", ev)
	return true, nil
}

// CurrentMap returns a copy of the panorama in the requested format.
func (m *Mapper) CurrentMap(f Format) (Map, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.pano.Export(f)
}

// Reset fills the panorama with c, discards the exposure history and lets
// the next frame through immediately.
func (m *Mapper) Reset(c color.Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.pano.Fill(c)
	return m.reload()
}

// ResetImage replaces the panorama with img and otherwise behaves like
// Reset. img must be twice as wide as it is tall; other sizes are resampled
// to the panorama size.
func (m *Mapper) ResetImage(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if err := m.pano.SetImage(img); err != nil {
		return err
	}
	return m.reload()
}

// reload pushes the reset panorama into the kernel. A failure leaves the
// Mapper degraded until a later reset succeeds.
func (m *Mapper) reload() error {
	m.revision++
	m.exposure.Reset()
	m.sched.Restart()
	if err := m.kernel.Load(m.pano); err != nil {
		m.degraded = true
		m.degradedLogged = false
		m.logger().Warn("envmap: kernel reload failed", "backend", m.backend.Name(), "err", err)
		return fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	m.degraded = false
	return nil
}

// Revision returns a counter that changes every time the panorama content
// changes through an update or a reset.
func (m *Mapper) Revision() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revision
}

// Width returns the panorama width in texels.
func (m *Mapper) Width() int { return m.pano.Width() }

// Height returns the panorama height in texels.
func (m *Mapper) Height() int { return m.pano.Height() }

// Backend returns the name of the compute backend running the kernel.
func (m *Mapper) Backend() string { return m.backend.Name() }

// SessionID returns the identifier attached to the Mapper's log records.
func (m *Mapper) SessionID() string { return m.id }

// Degraded reports whether updates are being skipped after a failed kernel
// reload.
func (m *Mapper) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// Close releases the kernel and, unless it was injected or registered, the
// compute backend. Close is idempotent.
func (m *Mapper) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.sched.Stop()
	m.kernel.Release()
	if m.ownsBackend {
		m.backend.Close()
	}
	m.logger().Info("envmap: mapper closed")
	return nil
}
