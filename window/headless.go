package window

import (
	"image"
	"image/draw"
	"sync"
)

// Headless is an offscreen window. Focus and close requests are scripted
// through SetFocused and RequestClose; like a native message queue, the
// resulting notifications reach the registered handlers only when Pump
// runs. Presented frames are retained for inspection.
//
// Headless also accepts CPU frames from the software device (it implements
// the backend package's FramePresenter contract structurally).
type Headless struct {
	mu      sync.Mutex
	width   int
	height  int
	focused bool
	closed  bool

	pending []func()

	onFocus func(bool)
	onClose func()

	lastFrame  *image.RGBA
	frameCount int
}

// NewHeadless creates a headless window with the given client area.
// It starts unfocused.
func NewHeadless(width, height int) *Headless {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Headless{width: width, height: height}
}

// Size returns the current client area.
func (w *Headless) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Resize changes the client area.
func (w *Headless) Resize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if width > 0 {
		w.width = width
	}
	if height > 0 {
		w.height = height
	}
}

// Focused reports the current focus flag. The flag changes immediately on
// SetFocused; only the handler notification waits for Pump.
func (w *Headless) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

// SetFocused scripts a focus change. The handler notification is queued
// for the next Pump.
func (w *Headless) SetFocused(focused bool) {
	w.mu.Lock()
	if w.focused == focused {
		w.mu.Unlock()
		return
	}
	w.focused = focused
	handler := w.onFocus
	w.pending = append(w.pending, func() {
		if handler != nil {
			handler(focused)
		}
	})
	w.mu.Unlock()
}

// RequestClose scripts a close request, queued for the next Pump.
func (w *Headless) RequestClose() {
	w.mu.Lock()
	handler := w.onClose
	w.pending = append(w.pending, func() {
		if handler != nil {
			handler()
		}
	})
	w.mu.Unlock()
}

// Pump delivers queued notifications to their handlers, in arrival order.
func (w *Headless) Pump() {
	w.mu.Lock()
	queued := w.pending
	w.pending = nil
	w.mu.Unlock()

	for _, fn := range queued {
		fn()
	}
}

// SetFocusHandler registers the focus-change consumer.
func (w *Headless) SetFocusHandler(fn func(bool)) {
	w.mu.Lock()
	w.onFocus = fn
	w.mu.Unlock()
}

// SetCloseHandler registers the close-request consumer.
func (w *Headless) SetCloseHandler(fn func()) {
	w.mu.Lock()
	w.onClose = fn
	w.mu.Unlock()
}

// PresentFrame accepts a finished frame from the presenting surface,
// keeping a copy for LastFrame.
func (w *Headless) PresentFrame(img *image.RGBA) error {
	cp := image.NewRGBA(img.Bounds())
	draw.Draw(cp, cp.Bounds(), img, img.Bounds().Min, draw.Src)

	w.mu.Lock()
	w.lastFrame = cp
	w.frameCount++
	w.mu.Unlock()
	return nil
}

// LastFrame returns a copy of the most recently presented frame, or nil.
func (w *Headless) LastFrame() *image.RGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastFrame == nil {
		return nil
	}
	cp := image.NewRGBA(w.lastFrame.Bounds())
	draw.Draw(cp, cp.Bounds(), w.lastFrame, w.lastFrame.Bounds().Min, draw.Src)
	return cp
}

// FrameCount returns the number of frames presented so far.
func (w *Headless) FrameCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frameCount
}

// Close releases the window. Idempotent.
func (w *Headless) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

// Verify interface satisfaction.
var (
	_ Window    = (*Headless)(nil)
	_ Resizer   = (*Headless)(nil)
	_ FrameSink = (*Headless)(nil)
)
