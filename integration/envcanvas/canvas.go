package envcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/envmap"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("envcanvas: canvas is closed")

	// ErrNilMapper is returned when New is called without a Mapper.
	ErrNilMapper = errors.New("envcanvas: nil Mapper")

	// ErrInvalidRenderer is returned when the draw context has no texture creator.
	ErrInvalidRenderer = errors.New("envcanvas: draw context has no TextureCreator")
)

// textureDestroyer matches the Destroy method of renderer textures.
type textureDestroyer interface {
	Destroy()
}

// Canvas mirrors a Mapper's panorama into a GPU texture.
type Canvas struct {
	mapper     *envmap.Mapper
	provider   gpucontext.DeviceProvider
	texture    gpucontext.Texture
	oldTexture gpucontext.Texture
	revision   uint64
	uploaded   bool
	closed     bool
}

// New creates a Canvas for m. provider may be nil; when set, the registered
// GPU backend is asked to share its device. A backend that cannot share keeps
// its own device.
func New(m *envmap.Mapper, provider gpucontext.DeviceProvider) (*Canvas, error) {
	if m == nil {
		return nil, ErrNilMapper
	}
	if provider != nil {
		if err := envmap.SetBackendDeviceProvider(provider); err != nil {
			envmap.Logger().Debug("envcanvas: device sharing unavailable", "err", err)
		}
	}
	return &Canvas{mapper: m, provider: provider}, nil
}

// Mapper returns the Mapper the canvas reads from.
func (c *Canvas) Mapper() *envmap.Mapper { return c.mapper }

// Provider returns the DeviceProvider passed to New.
// Returns nil if the canvas is closed.
func (c *Canvas) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}

// Size returns the panorama width and height.
func (c *Canvas) Size() (width, height int) {
	return c.mapper.Width(), c.mapper.Height()
}

// IsDirty reports whether the panorama changed since the last upload.
func (c *Canvas) IsDirty() bool {
	return !c.uploaded || c.mapper.Revision() != c.revision
}

// Texture returns the current GPU texture without flushing, or nil before
// the first Flush.
func (c *Canvas) Texture() gpucontext.Texture {
	return c.texture
}

// Flush uploads the panorama if it changed and returns the texture. The
// texture is created with creator on first use; later flushes update it in
// place when it implements gpucontext.TextureUpdater and recreate it
// otherwise.
func (c *Canvas) Flush(creator gpucontext.TextureCreator) (gpucontext.Texture, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}
	if !c.IsDirty() {
		return c.texture, nil
	}

	rev := c.mapper.Revision()
	m, err := c.mapper.CurrentMap(envmap.FormatTexture)
	if err != nil {
		return nil, fmt.Errorf("envcanvas: read panorama: %w", err)
	}
	tm := m.(*envmap.TextureMap)

	if c.texture != nil {
		if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
			if err := tm.UploadTo(updater); err != nil {
				return nil, fmt.Errorf("envcanvas: texture update failed: %w", err)
			}
			c.revision, c.uploaded = rev, true
			return c.texture, nil
		}
	}

	if creator == nil {
		return nil, ErrInvalidRenderer
	}
	tex, err := creator.NewTextureFromRGBA(tm.Width(), tm.Height(), tm.Data)
	if err != nil {
		return nil, fmt.Errorf("envcanvas: NewTextureFromRGBA failed: %w", err)
	}

	// The previous texture may still be referenced by in-flight commands; it
	// is destroyed on the next successful render.
	if c.texture != nil {
		destroy(c.oldTexture)
		c.oldTexture = c.texture
	}
	c.texture = tex
	c.revision, c.uploaded = rev, true
	return tex, nil
}

// Close destroys the textures. The Mapper is not closed. Close is
// idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	destroy(c.oldTexture)
	destroy(c.texture)
	c.oldTexture, c.texture = nil, nil
	c.provider = nil
	return nil
}

func destroy(tex gpucontext.Texture) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}
