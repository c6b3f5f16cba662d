// Package backend provides the graphics resource factories the runtime
// builds swapchain images and presentation surfaces from.
//
// A Device is an opaque factory for GPU-resident textures and presentable
// surfaces, plus a command Context the compositor drives. Backends are
// registered via Register and selected via Get or Default; the software
// device in this package is always available and is the fallback when no
// GPU backend is registered.
package backend

import (
	"errors"
	"image"
	"image/color"

	types "github.com/gogpu/gputypes"
)

// Common backend errors.
var (
	// ErrDeviceNotAvailable is returned when a requested device backend is
	// not available.
	ErrDeviceNotAvailable = errors.New("backend: device not available")

	// ErrTextureDestroyed is returned when operating on a destroyed texture.
	ErrTextureDestroyed = errors.New("backend: texture has been destroyed")

	// ErrInvalidTextureSize is returned when texture dimensions are invalid.
	ErrInvalidTextureSize = errors.New("backend: invalid texture size")

	// ErrSurfaceFormatUnsupported is returned when a presentation surface
	// cannot be created with the requested format.
	ErrSurfaceFormatUnsupported = errors.New("backend: surface format not supported")

	// ErrLayerOutOfRange is returned when a copy or resolve references an
	// array layer the source does not have.
	ErrLayerOutOfRange = errors.New("backend: array layer out of range")

	// ErrNoSurfaceBound is returned by drawing operations when no surface
	// is bound to the context.
	ErrNoSurfaceBound = errors.New("backend: no surface bound")
)

// TextureDescriptor describes a texture to allocate. Format is the storage
// format; ViewFormats lists the additional typed formats views of the
// allocation may use (for example the sRGB reading of a linear storage
// format).
type TextureDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the texture dimensions; DepthOrArrayLayers is the array
	// layer count (2 for stereo-in-one-texture layouts).
	Size types.Extent3D

	// MipLevelCount is the number of mip levels (1+ required).
	MipLevelCount uint32

	// SampleCount is the number of samples per pixel (1 for non-MSAA).
	SampleCount uint32

	// Format is the storage pixel format.
	Format types.TextureFormat

	// Usage specifies how the texture will be bound.
	Usage types.TextureUsage

	// ViewFormats are additional typed formats for texture views.
	ViewFormats []types.TextureFormat
}

// Texture is a GPU-resident image owned by a Device. Textures are never
// reallocated after creation; they are destroyed atomically with their
// owning swapchain.
type Texture interface {
	// Descriptor returns the creation descriptor (copied).
	Descriptor() TextureDescriptor

	// Destroy releases the texture. Destroy is idempotent.
	Destroy()
}

// PresentTarget is the minimal window contract a surface is created
// against. The window package's types satisfy it structurally.
type PresentTarget interface {
	// Size returns the target's current client area in pixels.
	Size() (width, height int)
}

// FramePresenter is implemented by present targets that accept finished
// CPU frames (headless windows, capture sinks). The software device
// requires its target to implement it.
type FramePresenter interface {
	// PresentFrame delivers a finished frame. The image must not be
	// retained past the call.
	PresentFrame(img *image.RGBA) error
}

// Surface is a presentable target bound to a window.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)

	// Format returns the format the surface was created with.
	Format() types.TextureFormat

	// Present submits the current contents for display.
	Present() error

	// Destroy releases the surface. Destroy is idempotent.
	Destroy()
}

// State is an opaque snapshot of a Context's mutable pipeline state,
// returned by SaveState and accepted by RestoreState.
type State any

// Context is the device's command context. It is not safe for concurrent
// use: a single logical render thread drives it.
type Context interface {
	// SaveState captures the mutable pipeline state (bound surface,
	// viewport, and related fixed-function state).
	SaveState() State

	// RestoreState restores a snapshot captured by SaveState.
	RestoreState(State)

	// BindSurface directs subsequent Clear and Draw calls at s, viewed
	// through viewFormat (which may be the sRGB pairing of the surface's
	// storage format).
	BindSurface(s Surface, viewFormat types.TextureFormat) error

	// SetViewport restricts subsequent Draw calls to r in surface
	// coordinates.
	SetViewport(r image.Rectangle)

	// Clear fills the entire bound surface with c.
	Clear(c color.RGBA) error

	// CopyRegion copies rect from array layer srcLayer of src into dst at
	// the origin. dst must be single-layer and single-sample.
	CopyRegion(dst, src Texture, srcLayer int, rect image.Rectangle) error

	// Resolve collapses the multisampled layer srcLayer of src into the
	// single-sample texture dst.
	Resolve(dst, src Texture, srcLayer int) error

	// Draw samples layer 0 of src across the current viewport of the
	// bound surface, scaling as needed.
	Draw(src Texture, viewFormat types.TextureFormat) error
}

// Device is the opaque resource factory a client binds to a session.
// The runtime borrows it; ownership stays with the client.
type Device interface {
	// Name returns the backend identifier (e.g. "software", "wgpu").
	Name() string

	// CreateTexture allocates a texture. A failed allocation leaves no
	// partial resources behind.
	CreateTexture(desc *TextureDescriptor) (Texture, error)

	// CreateSurface creates a presentable surface of the given size and
	// format against a window. Returns ErrSurfaceFormatUnsupported when
	// the format cannot be presented on this device.
	CreateSurface(target PresentTarget, width, height int, format types.TextureFormat) (Surface, error)

	// Context returns the device's command context.
	Context() Context
}
