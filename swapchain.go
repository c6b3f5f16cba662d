package xrsim

import (
	types "github.com/gogpu/gputypes"
	"github.com/gogpu/xrsim/backend"
)

// SwapchainHandle identifies a live swapchain.
type SwapchainHandle uint64

// SwapchainCreateInfo carries the arguments to CreateSwapchain. Zero
// Width, Height, ArraySize, MipCount, or SampleCount are clamped to 1
// rather than rejected.
type SwapchainCreateInfo struct {
	Format      types.TextureFormat
	Width       uint32
	Height      uint32
	ArraySize   uint32
	MipCount    uint32
	SampleCount uint32
	Usage       types.TextureUsage
}

// noImage marks the acquired/released cursors as unset.
const noImage = -1

// Swapchain is a fixed ring of images cycled by acquire/release. The
// image slice is allocated once at creation and its entries never change;
// clients may cache the enumerated textures for the swapchain's lifetime.
type Swapchain struct {
	handle SwapchainHandle
	info   SwapchainCreateInfo
	images []backend.Texture

	nextIndex    int
	lastAcquired int
	lastReleased int

	depthSkipLogged bool
}

// swapchainImageCount is the default ring depth, overridable by config.
const swapchainImageCount = 3

// CreateSwapchain allocates a ring of images for the session. Allocation
// is all-or-nothing: if any image fails, the ones already created are
// destroyed and the call fails with CodeResourceExhausted.
func (r *Runtime) CreateSwapchain(session SessionHandle, info SwapchainCreateInfo) (SwapchainHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.handle != session {
		return 0, resultErr("CreateSwapchain", CodeHandleInvalid)
	}
	if !formatSupported(info.Format) {
		return 0, resultErr("CreateSwapchain", CodeValidationFailure)
	}

	if info.Width == 0 {
		info.Width = 1
	}
	if info.Height == 0 {
		info.Height = 1
	}
	if info.ArraySize == 0 {
		info.ArraySize = 1
	}
	if info.MipCount == 0 {
		info.MipCount = 1
	}
	if info.SampleCount == 0 {
		info.SampleCount = 1
	}

	usage := types.TextureUsage(0)
	if isDepthFormat(info.Format) {
		usage = types.TextureUsageRenderAttachment
		if info.Usage&types.TextureUsageTextureBinding != 0 {
			usage |= types.TextureUsageTextureBinding
		}
	} else {
		usage = types.TextureUsageTextureBinding |
			types.TextureUsageRenderAttachment |
			types.TextureUsageCopySrc
		if info.Usage&types.TextureUsageStorageBinding != 0 {
			usage |= types.TextureUsageStorageBinding
		}
	}

	count := r.imageCount
	if count <= 0 {
		count = swapchainImageCount
	}

	images := make([]backend.Texture, 0, count)
	for i := 0; i < count; i++ {
		tex, err := r.session.device.CreateTexture(&backend.TextureDescriptor{
			Label: "swapchain image",
			Size: types.Extent3D{
				Width:              info.Width,
				Height:             info.Height,
				DepthOrArrayLayers: info.ArraySize,
			},
			MipLevelCount: info.MipCount,
			SampleCount:   info.SampleCount,
			Format:        storageFormat(info.Format),
			Usage:         usage,
			ViewFormats:   viewFormats(info.Format),
		})
		if err != nil {
			for _, t := range images {
				t.Destroy()
			}
			return 0, resultErrf("CreateSwapchain", CodeResourceExhausted, err)
		}
		images = append(images, tex)
	}

	r.nextHandle++
	sc := &Swapchain{
		handle:       SwapchainHandle(r.nextHandle),
		info:         info,
		images:       images,
		lastAcquired: noImage,
		lastReleased: noImage,
	}
	r.swapchains[sc.handle] = sc
	Logger().Info("swapchain created", "handle", sc.handle, "format", info.Format,
		"size", []uint32{info.Width, info.Height}, "images", count)
	return sc.handle, nil
}

// DestroySwapchain releases the swapchain's images and forgets the handle.
func (r *Runtime) DestroySwapchain(h SwapchainHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.swapchains[h]
	if !ok {
		return resultErr("DestroySwapchain", CodeHandleInvalid)
	}
	for _, t := range sc.images {
		t.Destroy()
	}
	delete(r.swapchains, h)
	Logger().Info("swapchain destroyed", "handle", h)
	return nil
}

// SwapchainImages enumerates the ring's images. The returned slice is a
// copy; the textures it references are stable for the swapchain's
// lifetime and are never regenerated.
func (r *Runtime) SwapchainImages(h SwapchainHandle) ([]backend.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.swapchains[h]
	if !ok {
		return nil, resultErr("SwapchainImages", CodeHandleInvalid)
	}
	out := make([]backend.Texture, len(sc.images))
	copy(out, sc.images)
	return out, nil
}

// AcquireSwapchainImage hands the client the next image in the ring and
// advances the cursor. It never blocks and never fails on a live handle:
// the simulated display imposes no availability constraint.
func (r *Runtime) AcquireSwapchainImage(h SwapchainHandle) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.swapchains[h]
	if !ok {
		return 0, resultErr("AcquireSwapchainImage", CodeHandleInvalid)
	}
	idx := sc.nextIndex
	sc.lastAcquired = idx
	sc.nextIndex = (sc.nextIndex + 1) % len(sc.images)
	return uint32(idx), nil
}

// WaitSwapchainImage waits for the most recently acquired image to be
// ready. Images are always ready here, so the wait succeeds immediately
// regardless of the timeout.
func (r *Runtime) WaitSwapchainImage(h SwapchainHandle, timeout Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.swapchains[h]; !ok {
		return resultErr("WaitSwapchainImage", CodeHandleInvalid)
	}
	return nil
}

// ReleaseSwapchainImage marks the most recently acquired image as the one
// the compositor should present. Releasing without a prior acquire is a
// client protocol error but is tolerated: the call succeeds, the release
// cursor stays unset, and the slip is logged at Warn.
func (r *Runtime) ReleaseSwapchainImage(h SwapchainHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.swapchains[h]
	if !ok {
		return resultErr("ReleaseSwapchainImage", CodeHandleInvalid)
	}
	if sc.lastAcquired == noImage {
		Logger().Warn("release without prior acquire", "handle", h)
		return nil
	}
	sc.lastReleased = sc.lastAcquired
	return nil
}

// presentIndex picks the ring image the compositor shows: the last
// released image, else the last acquired, else image 0. A swapchain that
// was never touched still presents deterministically.
func (sc *Swapchain) presentIndex() int {
	switch {
	case sc.lastReleased != noImage:
		return sc.lastReleased
	case sc.lastAcquired != noImage:
		return sc.lastAcquired
	}
	return 0
}
