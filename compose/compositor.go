// Package compose turns submitted stereo eye images into a side-by-side
// desktop preview. It owns the presentation surface, recreating it lazily
// as the window resizes and walking a fixed format fallback chain when
// the preferred surface format is rejected.
package compose

import (
	"image"
	"image/color"
	"log/slog"
	"sync"

	types "github.com/gogpu/gputypes"
	"github.com/gogpu/xrsim/backend"
	"github.com/gogpu/xrsim/window"
)

// Eye is one eye's resolved submission: the chosen swapchain image, the
// array layer to sample, and the crop rectangle within it.
type Eye struct {
	Texture     backend.Texture
	Layer       int
	Rect        image.Rectangle
	FullSize    image.Point
	SampleCount int
	Format      types.TextureFormat
}

// Frame is one composited frame. Two eyes land side by side; a single eye
// is mirrored into both halves; zero eyes clear the window.
type Frame struct {
	Eyes []Eye
}

// backgroundColor fills the letterbox around the eye images.
var backgroundColor = color.RGBA{R: 25, G: 25, B: 51, A: 255}

// surfaceFormatChain is the order surface formats are attempted in.
// Gamma-correct first; the linear twin of each before moving to the next
// channel order.
var surfaceFormatChain = []types.TextureFormat{
	types.TextureFormatRGBA8UnormSrgb,
	types.TextureFormatRGBA8Unorm,
	types.TextureFormatBGRA8UnormSrgb,
	types.TextureFormatBGRA8Unorm,
}

// Compositor owns the shared presentation surface and the per-frame blit
// sequence. One Compositor serves every session of a Runtime; the surface
// it caches outlives sessions on purpose, since clients recreate sessions
// far more often than windows.
type Compositor struct {
	mu      sync.Mutex
	surface backend.Surface
	width   int
	height  int

	log *slog.Logger
}

// New creates a Compositor.
func New() *Compositor {
	return &Compositor{}
}

// SetLogger configures the compositor's logger.
func (c *Compositor) SetLogger(l *slog.Logger) {
	c.mu.Lock()
	c.log = l
	c.mu.Unlock()
}

func (c *Compositor) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return slog.New(slog.DiscardHandler)
}

// Invalidate drops the cached surface so the next frame recreates it.
func (c *Compositor) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropSurfaceLocked()
}

func (c *Compositor) dropSurfaceLocked() {
	if c.surface != nil {
		c.surface.Destroy()
		c.surface = nil
	}
}

// Compose presents one frame onto the window. Per-eye failures are
// logged and abort only that eye; a presentation-surface failure aborts
// the frame. Device pipeline state present before the call is restored on
// every exit path.
func (c *Compositor) Compose(dev backend.Device, win window.Window, frame Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previewW, previewH := previewSize(frame)
	if previewW == 0 || previewH == 0 {
		w, h := win.Size()
		previewW, previewH = w, h
	}

	surface, err := c.ensureSurfaceLocked(dev, win, previewW, previewH)
	if err != nil {
		c.logger().Warn("presentation surface unavailable, dropping frame", "error", err)
		return
	}

	ctx := dev.Context()
	guard := captureState(ctx)
	defer guard.Restore()

	if err := ctx.BindSurface(surface, surface.Format()); err != nil {
		c.logger().Warn("surface bind failed, dropping frame", "error", err)
		return
	}
	if err := ctx.Clear(backgroundColor); err != nil {
		c.logger().Warn("clear failed, dropping frame", "error", err)
		return
	}

	halfW := previewW / 2
	for half := 0; half < 2; half++ {
		eye, ok := eyeForHalf(frame, half)
		if !ok {
			continue
		}
		viewport := image.Rect(half*halfW, 0, (half+1)*halfW, previewH)
		if err := c.blitEyeLocked(dev, ctx, eye, viewport); err != nil {
			c.logger().Warn("eye blit failed", "half", half, "error", err)
		}
	}

	if err := surface.Present(); err != nil {
		c.logger().Warn("present failed", "error", err)
	}
}

// previewSize is twice the widest eye by the tallest eye.
func previewSize(frame Frame) (int, int) {
	maxW, maxH := 0, 0
	for _, eye := range frame.Eyes {
		if w := eye.Rect.Dx(); w > maxW {
			maxW = w
		}
		if h := eye.Rect.Dy(); h > maxH {
			maxH = h
		}
	}
	return 2 * maxW, maxH
}

// eyeForHalf picks the eye shown in a window half. A single submitted
// eye mirrors into both halves.
func eyeForHalf(frame Frame, half int) (Eye, bool) {
	switch len(frame.Eyes) {
	case 0:
		return Eye{}, false
	case 1:
		return frame.Eyes[0], true
	}
	return frame.Eyes[half], true
}

// ensureSurfaceLocked returns a presentation surface matching the wanted
// size, creating or recreating it as needed. Formats are attempted in
// chain order; each fallback is logged at Info.
func (c *Compositor) ensureSurfaceLocked(dev backend.Device, win window.Window, w, h int) (backend.Surface, error) {
	if c.surface != nil && c.width == w && c.height == h {
		return c.surface, nil
	}
	c.dropSurfaceLocked()

	if rz, ok := win.(window.Resizer); ok {
		rz.Resize(w, h)
	}

	var lastErr error
	for i, format := range surfaceFormatChain {
		surface, err := dev.CreateSurface(win, w, h, format)
		if err != nil {
			lastErr = err
			c.logger().Info("surface format rejected, falling back",
				"format", format, "remaining", len(surfaceFormatChain)-i-1, "error", err)
			continue
		}
		if i > 0 {
			c.logger().Info("presentation surface created on fallback format", "format", format)
		}
		c.surface = surface
		c.width = w
		c.height = h
		return surface, nil
	}
	if lastErr == nil {
		lastErr = backend.ErrSurfaceFormatUnsupported
	}
	return nil, lastErr
}

// blitEyeLocked copies one eye into its window half: stage the sampled
// region down to a single-layer single-sample texture, then stretch it
// into the viewport.
func (c *Compositor) blitEyeLocked(dev backend.Device, ctx backend.Context, eye Eye, viewport image.Rectangle) error {
	full := eye.Rect.Dx() == eye.FullSize.X && eye.Rect.Dy() == eye.FullSize.Y
	source := eye.Texture

	// Staging is needed whenever the blit cannot sample the image
	// directly: array layers beyond 0, multisampling, or a crop.
	if eye.Layer != 0 || eye.SampleCount > 1 || !full {
		staging, err := dev.CreateTexture(&backend.TextureDescriptor{
			Label: "eye staging",
			Size: types.Extent3D{
				Width:              uint32(eye.Rect.Dx()),
				Height:             uint32(eye.Rect.Dy()),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Format:        eye.Format,
			Usage:         types.TextureUsageTextureBinding | types.TextureUsageCopyDst,
			ViewFormats:   []types.TextureFormat{eye.Format},
		})
		if err != nil {
			return err
		}
		defer staging.Destroy()

		if eye.SampleCount > 1 {
			err = ctx.Resolve(staging, eye.Texture, eye.Layer)
		} else {
			err = ctx.CopyRegion(staging, eye.Texture, eye.Layer, eye.Rect)
		}
		if err != nil {
			return err
		}
		source = staging
	}

	ctx.SetViewport(viewport)
	return ctx.Draw(source, eye.Format)
}
