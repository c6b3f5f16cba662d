package backend

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"sync"

	types "github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
)

// init registers the software device on package import.
func init() {
	Register(NameSoftware, func() Device {
		return NewSoftwareDevice()
	})
}

// SoftwareDevice is a CPU-based resource factory. Every texture is backed
// by per-layer RGBA pixel buffers regardless of its nominal format, which
// is enough fidelity for a desktop preview; depth textures allocate
// storage but are never presented.
type SoftwareDevice struct {
	ctx softwareContext

	mu  sync.Mutex
	log *slog.Logger
}

// NewSoftwareDevice creates a new software device.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{}
}

// Name returns the backend identifier.
func (d *SoftwareDevice) Name() string { return NameSoftware }

// SetLogger configures the device's logger. Called by the runtime when a
// device is bound to a session.
func (d *SoftwareDevice) SetLogger(l *slog.Logger) {
	d.mu.Lock()
	d.log = l
	d.mu.Unlock()
}

func (d *SoftwareDevice) logger() *slog.Logger {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.log
}

// CreateTexture allocates a CPU-backed texture. Zero dimensions or layer
// counts are rejected rather than clamped here; the runtime clamps before
// calling.
func (d *SoftwareDevice) CreateTexture(desc *TextureDescriptor) (Texture, error) {
	if desc == nil {
		return nil, ErrInvalidTextureSize
	}
	if desc.Size.Width == 0 || desc.Size.Height == 0 || desc.Size.DepthOrArrayLayers == 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidTextureSize,
			desc.Size.Width, desc.Size.Height, desc.Size.DepthOrArrayLayers)
	}

	layers := make([]*image.RGBA, desc.Size.DepthOrArrayLayers)
	for i := range layers {
		layers[i] = image.NewRGBA(image.Rect(0, 0, int(desc.Size.Width), int(desc.Size.Height)))
	}
	return &SoftwareTexture{desc: *desc, layers: layers}, nil
}

// CreateSurface creates a presentable surface against a window. The
// target must accept CPU frames via FramePresenter.
func (d *SoftwareDevice) CreateSurface(target PresentTarget, width, height int, format types.TextureFormat) (Surface, error) {
	if target == nil || width <= 0 || height <= 0 {
		return nil, ErrInvalidTextureSize
	}
	presenter, ok := target.(FramePresenter)
	if !ok {
		return nil, fmt.Errorf("software: present target %T does not accept CPU frames", target)
	}
	switch format {
	case types.TextureFormatRGBA8Unorm, types.TextureFormatRGBA8UnormSrgb,
		types.TextureFormatBGRA8Unorm, types.TextureFormatBGRA8UnormSrgb:
	default:
		return nil, fmt.Errorf("%w: %v", ErrSurfaceFormatUnsupported, format)
	}
	if l := d.logger(); l != nil {
		l.Debug("software surface created", "width", width, "height", height, "format", format)
	}
	return &softwareSurface{
		img:       image.NewRGBA(image.Rect(0, 0, width, height)),
		format:    format,
		presenter: presenter,
	}, nil
}

// Context returns the device's command context.
func (d *SoftwareDevice) Context() Context { return &d.ctx }

// SoftwareTexture is a CPU-backed texture. Test and demo clients render
// into swapchain images by asserting the enumerated Texture values to
// *SoftwareTexture and writing the layer pixels directly.
type SoftwareTexture struct {
	desc      TextureDescriptor
	layers    []*image.RGBA
	destroyed bool
}

// Descriptor returns the creation descriptor.
func (t *SoftwareTexture) Descriptor() TextureDescriptor { return t.desc }

// Destroy releases the pixel storage. Idempotent.
func (t *SoftwareTexture) Destroy() {
	t.destroyed = true
	t.layers = nil
}

// Layer returns the pixel buffer for one array layer, or nil when the
// layer index is out of range or the texture is destroyed.
func (t *SoftwareTexture) Layer(i int) *image.RGBA {
	if t.destroyed || i < 0 || i >= len(t.layers) {
		return nil
	}
	return t.layers[i]
}

// softwareSurface is a CPU-backed presentable surface.
type softwareSurface struct {
	img       *image.RGBA
	format    types.TextureFormat
	presenter FramePresenter
	destroyed bool
}

func (s *softwareSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *softwareSurface) Format() types.TextureFormat { return s.format }

func (s *softwareSurface) Present() error {
	if s.destroyed {
		return ErrTextureDestroyed
	}
	return s.presenter.PresentFrame(s.img)
}

func (s *softwareSurface) Destroy() {
	s.destroyed = true
}

// softwareState snapshots the context's mutable pipeline state.
type softwareState struct {
	surface    *softwareSurface
	viewFormat types.TextureFormat
	viewport   image.Rectangle
}

// softwareContext implements Context over CPU pixel operations.
type softwareContext struct {
	surface    *softwareSurface
	viewFormat types.TextureFormat
	viewport   image.Rectangle
}

func (c *softwareContext) SaveState() State {
	return softwareState{surface: c.surface, viewFormat: c.viewFormat, viewport: c.viewport}
}

func (c *softwareContext) RestoreState(s State) {
	st, ok := s.(softwareState)
	if !ok {
		return
	}
	c.surface = st.surface
	c.viewFormat = st.viewFormat
	c.viewport = st.viewport
}

func (c *softwareContext) BindSurface(s Surface, viewFormat types.TextureFormat) error {
	ss, ok := s.(*softwareSurface)
	if !ok || ss.destroyed {
		return ErrNoSurfaceBound
	}
	c.surface = ss
	c.viewFormat = viewFormat
	c.viewport = ss.img.Bounds()
	return nil
}

func (c *softwareContext) SetViewport(r image.Rectangle) {
	c.viewport = r
}

func (c *softwareContext) Clear(col color.RGBA) error {
	if c.surface == nil {
		return ErrNoSurfaceBound
	}
	draw.Draw(c.surface.img, c.surface.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
	return nil
}

func (c *softwareContext) CopyRegion(dst, src Texture, srcLayer int, rect image.Rectangle) error {
	sd, ok1 := src.(*SoftwareTexture)
	dd, ok2 := dst.(*SoftwareTexture)
	if !ok1 || !ok2 {
		return fmt.Errorf("software: foreign texture type %T/%T", src, dst)
	}
	srcImg := sd.Layer(srcLayer)
	dstImg := dd.Layer(0)
	if srcImg == nil {
		return ErrLayerOutOfRange
	}
	if dstImg == nil {
		return ErrTextureDestroyed
	}
	draw.Draw(dstImg, image.Rect(0, 0, rect.Dx(), rect.Dy()), srcImg, rect.Min, draw.Src)
	return nil
}

// Resolve collapses a multisampled layer into dst. The software device
// stores one sample per pixel, so resolving is a full copy.
func (c *softwareContext) Resolve(dst, src Texture, srcLayer int) error {
	sd, ok := src.(*SoftwareTexture)
	if !ok {
		return fmt.Errorf("software: foreign texture type %T", src)
	}
	srcImg := sd.Layer(srcLayer)
	if srcImg == nil {
		return ErrLayerOutOfRange
	}
	return c.CopyRegion(dst, src, srcLayer, srcImg.Bounds())
}

func (c *softwareContext) Draw(src Texture, viewFormat types.TextureFormat) error {
	if c.surface == nil {
		return ErrNoSurfaceBound
	}
	sd, ok := src.(*SoftwareTexture)
	if !ok {
		return fmt.Errorf("software: foreign texture type %T", src)
	}
	srcImg := sd.Layer(0)
	if srcImg == nil {
		return ErrTextureDestroyed
	}
	xdraw.ApproxBiLinear.Scale(c.surface.img, c.viewport, srcImg, srcImg.Bounds(), xdraw.Src, nil)
	return nil
}

// Verify interface satisfaction.
var (
	_ Device  = (*SoftwareDevice)(nil)
	_ Texture = (*SoftwareTexture)(nil)
	_ Surface = (*softwareSurface)(nil)
	_ Context = (*softwareContext)(nil)
)
