package envcanvas

import "github.com/gogpu/gpucontext"

// RenderTo flushes the panorama and draws it at (0, 0).
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToPosition(dc, 0, 0)
}

// RenderToPosition flushes the panorama and draws it with its top-left
// corner at (x, y) in window pixels.
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}
	tex, err := c.Flush(dc.TextureCreator())
	if err != nil {
		return err
	}
	if err := dc.DrawTexture(tex, x, y); err != nil {
		return err
	}
	if c.oldTexture != nil {
		destroy(c.oldTexture)
		c.oldTexture = nil
	}
	return nil
}
