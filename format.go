package xrsim

import types "github.com/gogpu/gputypes"

// supportedSwapchainFormats is the fixed, ordered list advertised to
// clients by SwapchainFormats. Gamma-correct color formats come first so
// clients that take the head of the list get correct output; depth formats
// trail because they are allocatable but never presented.
var supportedSwapchainFormats = []types.TextureFormat{
	types.TextureFormatRGBA8UnormSrgb,
	types.TextureFormatRGBA8Unorm,
	types.TextureFormatBGRA8UnormSrgb,
	types.TextureFormatBGRA8Unorm,
	types.TextureFormatRGBA16Float,
	types.TextureFormatRGBA32Float,
	types.TextureFormatDepth32Float,
	types.TextureFormatDepth24PlusStencil8,
	types.TextureFormatDepth16Unorm,
}

// SwapchainFormats returns the pixel formats a session's swapchains may be
// created with, in the runtime's preference order. The returned slice is a
// copy.
func (r *Runtime) SwapchainFormats(session SessionHandle) ([]types.TextureFormat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.handle != session {
		return nil, resultErr("SwapchainFormats", CodeHandleInvalid)
	}
	out := make([]types.TextureFormat, len(supportedSwapchainFormats))
	copy(out, supportedSwapchainFormats)
	return out, nil
}

// isDepthFormat reports whether f is a depth or depth-stencil format.
// Depth swapchains are allocated for clients that want them but are never
// presentable.
func isDepthFormat(f types.TextureFormat) bool {
	switch f {
	case types.TextureFormatDepth16Unorm,
		types.TextureFormatDepth24PlusStencil8,
		types.TextureFormatDepth32Float:
		return true
	}
	return false
}

// storageFormat returns the view-neutral format a texture is allocated
// with. Color images are stored linear and reinterpreted through typed
// views, so one allocation can serve both an sRGB-encoded and a linear
// reading of the same bytes. Depth formats store as themselves.
func storageFormat(f types.TextureFormat) types.TextureFormat {
	switch f {
	case types.TextureFormatRGBA8UnormSrgb:
		return types.TextureFormatRGBA8Unorm
	case types.TextureFormatBGRA8UnormSrgb:
		return types.TextureFormatBGRA8Unorm
	}
	return f
}

// viewFormats returns the typed view formats derivable from the storage
// allocation for a requested swapchain format. The requested format itself
// is always included.
func viewFormats(f types.TextureFormat) []types.TextureFormat {
	switch f {
	case types.TextureFormatRGBA8Unorm, types.TextureFormatRGBA8UnormSrgb:
		return []types.TextureFormat{types.TextureFormatRGBA8Unorm, types.TextureFormatRGBA8UnormSrgb}
	case types.TextureFormatBGRA8Unorm, types.TextureFormatBGRA8UnormSrgb:
		return []types.TextureFormat{types.TextureFormatBGRA8Unorm, types.TextureFormatBGRA8UnormSrgb}
	}
	return []types.TextureFormat{f}
}

// srgbVariant returns the gamma-encoded view of f, or f itself when no
// sRGB pairing exists.
func srgbVariant(f types.TextureFormat) types.TextureFormat {
	switch f {
	case types.TextureFormatRGBA8Unorm:
		return types.TextureFormatRGBA8UnormSrgb
	case types.TextureFormatBGRA8Unorm:
		return types.TextureFormatBGRA8UnormSrgb
	}
	return f
}

// formatSupported reports whether f appears in the advertised list.
func formatSupported(f types.TextureFormat) bool {
	for _, s := range supportedSwapchainFormats {
		if s == f {
			return true
		}
	}
	return false
}
