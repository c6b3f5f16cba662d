package backend

import (
	"errors"
	"image"
	"image/color"
	"testing"

	types "github.com/gogpu/gputypes"
)

type testPresenter struct {
	frames int
	last   *image.RGBA
}

func (p *testPresenter) Size() (int, int) {
	if p.last == nil {
		return 0, 0
	}
	b := p.last.Bounds()
	return b.Dx(), b.Dy()
}

func (p *testPresenter) PresentFrame(img *image.RGBA) error {
	p.frames++
	p.last = img
	return nil
}

func newTestTexture(t *testing.T, d *SoftwareDevice, w, h, layers int) Texture {
	t.Helper()
	tex, err := d.CreateTexture(&TextureDescriptor{
		Size:          types.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: uint32(layers)},
		MipLevelCount: 1,
		SampleCount:   1,
		Format:        types.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	return tex
}

// TestCreateTextureRejectsZero verifies zero extents are an error at the
// device boundary.
func TestCreateTextureRejectsZero(t *testing.T) {
	d := NewSoftwareDevice()
	_, err := d.CreateTexture(&TextureDescriptor{
		Size: types.Extent3D{Width: 0, Height: 4, DepthOrArrayLayers: 1},
	})
	if !errors.Is(err, ErrInvalidTextureSize) {
		t.Fatalf("CreateTexture(0x4) = %v, want ErrInvalidTextureSize", err)
	}
	if _, err := d.CreateTexture(nil); !errors.Is(err, ErrInvalidTextureSize) {
		t.Fatalf("CreateTexture(nil) = %v, want ErrInvalidTextureSize", err)
	}
}

// TestTextureLayers verifies per-layer storage and the out-of-range and
// destroyed cases.
func TestTextureLayers(t *testing.T) {
	d := NewSoftwareDevice()
	tex := newTestTexture(t, d, 4, 4, 3).(*SoftwareTexture)
	for i := 0; i < 3; i++ {
		if tex.Layer(i) == nil {
			t.Errorf("layer %d = nil", i)
		}
	}
	if tex.Layer(3) != nil {
		t.Error("out-of-range layer not nil")
	}
	tex.Destroy()
	if tex.Layer(0) != nil {
		t.Error("destroyed texture still exposes layers")
	}
	tex.Destroy() // idempotent
}

// TestCreateSurfaceFormats verifies the four presentable formats are
// accepted and anything else is rejected.
func TestCreateSurfaceFormats(t *testing.T) {
	d := NewSoftwareDevice()
	p := &testPresenter{}
	good := []types.TextureFormat{
		types.TextureFormatRGBA8Unorm, types.TextureFormatRGBA8UnormSrgb,
		types.TextureFormatBGRA8Unorm, types.TextureFormatBGRA8UnormSrgb,
	}
	for _, f := range good {
		s, err := d.CreateSurface(p, 8, 8, f)
		if err != nil {
			t.Errorf("CreateSurface(%v): %v", f, err)
			continue
		}
		if s.Format() != f {
			t.Errorf("surface format = %v, want %v", s.Format(), f)
		}
		s.Destroy()
	}
	if _, err := d.CreateSurface(p, 8, 8, types.TextureFormatRGBA32Float); !errors.Is(err, ErrSurfaceFormatUnsupported) {
		t.Errorf("CreateSurface(RGBA32Float) = %v, want ErrSurfaceFormatUnsupported", err)
	}
}

// TestCreateSurfaceNeedsPresenter verifies a target without CPU frame
// acceptance is rejected.
func TestCreateSurfaceNeedsPresenter(t *testing.T) {
	d := NewSoftwareDevice()
	if _, err := d.CreateSurface(nil, 8, 8, types.TextureFormatRGBA8Unorm); err == nil {
		t.Error("CreateSurface(nil target) succeeded")
	}
}

// TestContextClearDrawPresent verifies the clear, scaled draw, and
// present path end to end on CPU pixels.
func TestContextClearDrawPresent(t *testing.T) {
	d := NewSoftwareDevice()
	p := &testPresenter{}
	surface, err := d.CreateSurface(p, 16, 8, types.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	ctx := d.Context()
	if err := ctx.BindSurface(surface, types.TextureFormatRGBA8Unorm); err != nil {
		t.Fatalf("BindSurface: %v", err)
	}
	bg := color.RGBA{R: 9, G: 9, B: 9, A: 255}
	if err := ctx.Clear(bg); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	src := newTestTexture(t, d, 4, 4, 1).(*SoftwareTexture)
	red := color.RGBA{R: 255, A: 255}
	img := src.Layer(0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, red)
		}
	}
	ctx.SetViewport(image.Rect(0, 0, 8, 8))
	if err := ctx.Draw(src, types.TextureFormatRGBA8Unorm); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := surface.Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}

	if p.frames != 1 {
		t.Fatalf("presented %d frames, want 1", p.frames)
	}
	if got := p.last.RGBAAt(4, 4); got != red {
		t.Errorf("viewport pixel = %v, want %v", got, red)
	}
	if got := p.last.RGBAAt(12, 4); got != bg {
		t.Errorf("outside-viewport pixel = %v, want %v", got, bg)
	}
}

// TestContextCopyRegion verifies a crop copy lands at the destination
// origin.
func TestContextCopyRegion(t *testing.T) {
	d := NewSoftwareDevice()
	ctx := d.Context()
	src := newTestTexture(t, d, 8, 8, 2).(*SoftwareTexture)
	dst := newTestTexture(t, d, 4, 4, 1)

	mark := color.RGBA{G: 200, A: 255}
	src.Layer(1).SetRGBA(5, 5, mark)
	if err := ctx.CopyRegion(dst, src, 1, image.Rect(4, 4, 8, 8)); err != nil {
		t.Fatalf("CopyRegion: %v", err)
	}
	got := dst.(*SoftwareTexture).Layer(0).RGBAAt(1, 1)
	if got != mark {
		t.Errorf("copied pixel = %v, want %v", got, mark)
	}

	if err := ctx.CopyRegion(dst, src, 5, image.Rect(0, 0, 1, 1)); !errors.Is(err, ErrLayerOutOfRange) {
		t.Errorf("CopyRegion(bad layer) = %v, want ErrLayerOutOfRange", err)
	}
}

// TestContextStateRoundTrip verifies saved pipeline state restores the
// bound surface and viewport.
func TestContextStateRoundTrip(t *testing.T) {
	d := NewSoftwareDevice()
	p := &testPresenter{}
	a, err := d.CreateSurface(p, 8, 8, types.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	b, err := d.CreateSurface(p, 4, 4, types.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}

	ctx := d.Context().(*softwareContext)
	if err := ctx.BindSurface(a, types.TextureFormatRGBA8Unorm); err != nil {
		t.Fatalf("BindSurface: %v", err)
	}
	saved := ctx.SaveState()

	if err := ctx.BindSurface(b, types.TextureFormatBGRA8Unorm); err != nil {
		t.Fatalf("BindSurface: %v", err)
	}
	ctx.SetViewport(image.Rect(1, 1, 2, 2))

	ctx.RestoreState(saved)
	if ctx.surface != a {
		t.Error("restored surface is not the saved one")
	}
	if ctx.viewFormat != types.TextureFormatRGBA8Unorm {
		t.Errorf("restored view format = %v", ctx.viewFormat)
	}
}
