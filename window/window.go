// Package window defines the presentation window collaborator the runtime
// composites into.
//
// The runtime consumes windows, it does not create them: real windowing
// (Win32, Wayland, ...) lives outside this module. The headless window in
// this package satisfies the contract for tests, CI, and capture use, and
// doubles as the default when no native window is supplied.
package window

import "image"

// Window is the presentation target the compositor draws to and the
// source of the asynchronous focus/close notifications the runtime funnels
// into its session state machine.
//
// Notifications are delivered only during Pump, mirroring message-pump
// windowing systems: producers may flag changes at any time, but handlers
// run on the thread that pumps.
type Window interface {
	// Size returns the current client area in pixels.
	Size() (width, height int)

	// Focused reports whether the window has input focus right now.
	Focused() bool

	// Pump processes pending window-system messages, invoking any
	// registered handlers for notifications that arrived since the last
	// call. The frame pacer calls it once per frame.
	Pump()

	// SetFocusHandler registers the single consumer of focus-change
	// notifications. Passing nil removes it.
	SetFocusHandler(func(focused bool))

	// SetCloseHandler registers the single consumer of close requests.
	// Passing nil removes it.
	SetCloseHandler(func())

	// Close releases the window.
	Close() error
}

// Resizer is an optional interface for windows whose client area the
// compositor may retarget when the preview size changes.
type Resizer interface {
	// Resize changes the client area to width x height pixels.
	Resize(width, height int)
}

// FrameSink is an optional interface for windows that retain the last
// presented frame for inspection.
type FrameSink interface {
	// LastFrame returns a copy of the most recently presented frame, or
	// nil when nothing has been presented.
	LastFrame() *image.RGBA

	// FrameCount returns the number of frames presented so far.
	FrameCount() int
}
