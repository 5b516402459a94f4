// Package envcanvas presents the panorama of an envmap.Mapper in a gogpu
// window.
//
// The data flow is:
//
//	Mapper (panorama) -> TextureMap (CPU) -> GPU Texture -> Window
//
// # Usage
//
//	canvas, err := envcanvas.New(mapper, app.GPUContextProvider())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer canvas.Close()
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
//
// The texture is created on the first render and re-uploaded only when the
// Mapper's revision changes. When a provider is passed to New, the GPU
// reprojection backend is moved onto the window's device.
//
// # Thread Safety
//
// Canvas is NOT safe for concurrent use. The Mapper it reads from may be
// updated from any goroutine.
package envcanvas
