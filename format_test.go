package xrsim

import (
	"testing"

	types "github.com/gogpu/gputypes"
)

// TestSupportedFormatsOrder verifies gamma-correct color formats lead the
// advertised list so naive clients get correct output.
func TestSupportedFormatsOrder(t *testing.T) {
	if supportedSwapchainFormats[0] != types.TextureFormatRGBA8UnormSrgb {
		t.Fatalf("first advertised format = %v, want RGBA8UnormSrgb", supportedSwapchainFormats[0])
	}
	// Depth formats trail every color format.
	firstDepth := -1
	for i, f := range supportedSwapchainFormats {
		if isDepthFormat(f) {
			firstDepth = i
			break
		}
	}
	if firstDepth < 0 {
		t.Fatal("no depth format advertised")
	}
	for _, f := range supportedSwapchainFormats[firstDepth:] {
		if !isDepthFormat(f) {
			t.Errorf("color format %v listed after depth formats", f)
		}
	}
}

// TestStorageFormatStripsSRGB verifies sRGB formats allocate as their
// linear twin while depth and float formats store as themselves.
func TestStorageFormatStripsSRGB(t *testing.T) {
	if got := storageFormat(types.TextureFormatRGBA8UnormSrgb); got != types.TextureFormatRGBA8Unorm {
		t.Errorf("storageFormat(RGBA8UnormSrgb) = %v", got)
	}
	if got := storageFormat(types.TextureFormatBGRA8UnormSrgb); got != types.TextureFormatBGRA8Unorm {
		t.Errorf("storageFormat(BGRA8UnormSrgb) = %v", got)
	}
	if got := storageFormat(types.TextureFormatDepth32Float); got != types.TextureFormatDepth32Float {
		t.Errorf("storageFormat(Depth32Float) = %v", got)
	}
}

// TestViewFormatsPairSRGB verifies a color allocation exposes both the
// linear and gamma-encoded reading of its bytes.
func TestViewFormatsPairSRGB(t *testing.T) {
	vf := viewFormats(types.TextureFormatRGBA8Unorm)
	if len(vf) != 2 {
		t.Fatalf("viewFormats(RGBA8Unorm) has %d entries, want 2", len(vf))
	}
	vf = viewFormats(types.TextureFormatDepth16Unorm)
	if len(vf) != 1 || vf[0] != types.TextureFormatDepth16Unorm {
		t.Fatalf("viewFormats(Depth16Unorm) = %v", vf)
	}
}

// TestSRGBVariant verifies the gamma pairing and its fixed point on
// formats with no pairing.
func TestSRGBVariant(t *testing.T) {
	if got := srgbVariant(types.TextureFormatBGRA8Unorm); got != types.TextureFormatBGRA8UnormSrgb {
		t.Errorf("srgbVariant(BGRA8Unorm) = %v", got)
	}
	if got := srgbVariant(types.TextureFormatRGBA16Float); got != types.TextureFormatRGBA16Float {
		t.Errorf("srgbVariant(RGBA16Float) = %v", got)
	}
}
