package envmap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/mrjoshuak/go-openexr/half"

	"github.com/gogpu/envmap/internal/color"
)

// Format selects the representation returned by CurrentMap.
type Format int

const (
	// FormatTexture returns a *TextureMap: raw RGBA8 texels ready for
	// upload to a GPU texture.
	FormatTexture Format = iota
	// FormatImage returns an *ImageMap holding a decoded *image.RGBA.
	FormatImage
	// FormatPNG returns an *EncodedMap with PNG bytes.
	FormatPNG
	// FormatEXR returns an *EncodedMap with a half-float, linear-light
	// OpenEXR latitude-longitude environment map.
	FormatEXR
)

func (f Format) String() string {
	switch f {
	case FormatTexture:
		return "texture"
	case FormatImage:
		return "image"
	case FormatPNG:
		return "png"
	case FormatEXR:
		return "exr"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Map is an exported panorama. The concrete type is determined by the
// requested Format: *TextureMap, *ImageMap or *EncodedMap.
type Map interface {
	// Format returns the format the map was exported as.
	Format() Format
	// Bounds returns the panorama rectangle.
	Bounds() image.Rectangle

	isMap()
}

// TextureMap is the panorama as tightly packed RGBA8 texels. It implements
// gpucontext.Texture.
type TextureMap struct {
	// Data holds width*height*4 bytes, row-major.
	Data []byte
	// TextureFormat is always gputypes.TextureFormatRGBA8Unorm.
	TextureFormat gputypes.TextureFormat

	width, height int
}

var _ gpucontext.Texture = (*TextureMap)(nil)

func (m *TextureMap) Format() Format          { return FormatTexture }
func (m *TextureMap) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }
func (m *TextureMap) Width() int              { return m.width }
func (m *TextureMap) Height() int             { return m.height }
func (*TextureMap) isMap()                    {}

// UploadTo copies the texels into a renderer texture of the same size.
func (m *TextureMap) UploadTo(tex gpucontext.TextureUpdater) error {
	if t, ok := tex.(gpucontext.Texture); ok && (t.Width() != m.width || t.Height() != m.height) {
		return fmt.Errorf("envmap: texture is %dx%d, panorama is %dx%d", t.Width(), t.Height(), m.width, m.height)
	}
	return tex.UpdateData(m.Data)
}

// ImageMap is the panorama as a decoded image.
type ImageMap struct {
	Image *image.RGBA
}

func (m *ImageMap) Format() Format          { return FormatImage }
func (m *ImageMap) Bounds() image.Rectangle { return m.Image.Rect }
func (*ImageMap) isMap()                    {}

// EncodedMap is the panorama encoded in a file format.
type EncodedMap struct {
	Data []byte

	format        Format
	width, height int
}

func (m *EncodedMap) Format() Format          { return m.format }
func (m *EncodedMap) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }
func (*EncodedMap) isMap()                    {}

// ContentType returns the media type of Data.
func (m *EncodedMap) ContentType() string {
	if m.format == FormatEXR {
		return "image/x-exr"
	}
	return "image/png"
}

// WriteTo writes the encoded bytes to w.
func (m *EncodedMap) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m.Data)
	return int64(n), err
}

// Export copies the panorama into the requested format. The result does not
// alias the panorama.
func (p *Panorama) Export(f Format) (Map, error) {
	switch f {
	case FormatTexture:
		return &TextureMap{
			Data:          append([]byte(nil), p.pix...),
			TextureFormat: gputypes.TextureFormatRGBA8Unorm,
			width:         p.width,
			height:        p.height,
		}, nil
	case FormatImage:
		return &ImageMap{Image: p.ToImage()}, nil
	case FormatPNG:
		var buf bytes.Buffer
		if err := png.Encode(&buf, p.view()); err != nil {
			return nil, fmt.Errorf("envmap: encode png: %w", err)
		}
		return &EncodedMap{Data: buf.Bytes(), format: FormatPNG, width: p.width, height: p.height}, nil
	case FormatEXR:
		data, err := encodeLatLongEXR(p)
		if err != nil {
			return nil, fmt.Errorf("envmap: encode exr: %w", err)
		}
		return &EncodedMap{Data: data, format: FormatEXR, width: p.width, height: p.height}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
}

// encodeLatLongEXR writes the panorama as a ZIP-compressed half-float RGBA
// scanline file tagged as a latitude-longitude environment map. RGB is
// converted from sRGB to linear light; alpha is stored as is.
func encodeLatLongEXR(p *Panorama) ([]byte, error) {
	w, h := p.width, p.height

	hdr := exr.NewScanlineHeader(w, h)
	hdr.SetCompression(exr.CompressionZIP)
	hdr.SetEnvmap(exr.EnvMapLatLong)

	channels := exr.NewChannelList()
	fb := exr.NewFrameBuffer()
	for _, name := range []string{"R", "G", "B", "A"} {
		channels.Add(exr.Channel{Name: name, Type: exr.PixelTypeHalf, XSampling: 1, YSampling: 1})
		fb.Set(name, exr.NewSlice(exr.PixelTypeHalf, make([]byte, w*h*2), w, h))
	}
	hdr.SetChannels(channels)

	r, g, b, a := fb.Get("R"), fb.Get("G"), fb.Get("B"), fb.Get("A")
	for y := range h {
		row := p.pix[y*p.Stride():]
		for x := range w {
			o := x * 4
			r.SetHalf(x, y, half.FromFloat32(color.SRGBToLinearFast(row[o+0])))
			g.SetHalf(x, y, half.FromFloat32(color.SRGBToLinearFast(row[o+1])))
			b.SetHalf(x, y, half.FromFloat32(color.SRGBToLinearFast(row[o+2])))
			a.SetHalf(x, y, half.FromFloat32(float32(row[o+3])/255))
		}
	}

	var out seekBuffer
	sw, err := exr.NewScanlineWriter(&out, hdr)
	if err != nil {
		return nil, err
	}
	sw.SetFrameBuffer(fb)
	dw := hdr.DataWindow()
	if err := sw.WritePixels(int(dw.Min.Y), int(dw.Max.Y)); err != nil {
		return nil, err
	}
	if err := sw.Close(); err != nil {
		return nil, err
	}
	return out.buf, nil
}

// seekBuffer is an in-memory io.WriteSeeker. The EXR writer seeks back to
// patch the chunk offset table after the pixel data is written.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.pos + len(p); end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	n := copy(s.buf[s.pos:], p)
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(s.pos)
	case io.SeekEnd:
		base = int64(len(s.buf))
	default:
		return 0, errors.New("envmap: invalid whence")
	}
	pos := base + offset
	if pos < 0 {
		return 0, errors.New("envmap: negative seek position")
	}
	s.pos = int(pos)
	return pos, nil
}
