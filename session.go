package xrsim

import (
	"sync"

	"github.com/gogpu/xrsim/backend"
)

// SessionState is the authoritative session lifecycle state.
type SessionState int

const (
	// StateIdle is the initial state; no client work may be submitted.
	StateIdle SessionState = iota
	// StateReady indicates the session may be begun.
	StateReady
	// StateSynchronized indicates the frame loop is synchronized to the
	// display cadence.
	StateSynchronized
	// StateVisible indicates submitted frames are shown, without input focus.
	StateVisible
	// StateFocused indicates submitted frames are shown and the window has
	// input focus.
	StateFocused
	// StateStopping indicates the session is winding down after EndSession.
	StateStopping
	// StateLossPending indicates impending session loss. The simulator
	// never enters it spontaneously but clients may observe it in the
	// event stream of real runtimes, so it stays representable.
	StateLossPending
	// StateExiting indicates the client should destroy the session.
	StateExiting
)

// String returns the state's name.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReady:
		return "READY"
	case StateSynchronized:
		return "SYNCHRONIZED"
	case StateVisible:
		return "VISIBLE"
	case StateFocused:
		return "FOCUSED"
	case StateStopping:
		return "STOPPING"
	case StateLossPending:
		return "LOSS_PENDING"
	case StateExiting:
		return "EXITING"
	}
	return "UNKNOWN"
}

// SessionHandle identifies a live session.
type SessionHandle uint64

// SessionCreateInfo carries the arguments to CreateSession. Device is the
// graphics-device binding and is required: it is borrowed for the session's
// lifetime, never owned.
type SessionCreateInfo struct {
	System SystemID
	Device backend.Device
}

// Session is one client's connection to the simulated display. At most one
// session is live per Runtime at any time.
type Session struct {
	handle SessionHandle
	device backend.Device

	// mu guards state and focused against the window-callback producer.
	mu      sync.Mutex
	state   SessionState
	focused bool
}

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// pushState advances the session to next and enqueues exactly one
// corresponding event before returning, so a subsequent transition cannot
// overtake it in the queue.
func (r *Runtime) pushState(s *Session, next SessionState) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	ev := Event{
		Type:    EventSessionStateChanged,
		Session: s.handle,
		State:   next,
		Time:    r.pacer.now(),
	}
	r.events.push(ev)
	Logger().Info("session state", "session", s.handle, "state", next.String())
	if r.diag != nil {
		r.diag.PublishStateChange(uint64(s.handle), next.String(), int64(ev.Time))
	}
}

// CreateSession creates the session for a negotiated system. A graphics
// device binding is required; without one the call fails with
// CodeGraphicsDeviceInvalid and no session is left live.
//
// Creating a session while one is already live force-resets the existing
// one rather than failing. Engines probe capabilities by creating and
// destroying sessions in quick succession, and rejecting the second create
// breaks them; the reset is logged at Warn.
func (r *Runtime) CreateSession(info SessionCreateInfo) (SessionHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.instance == nil {
		return 0, resultErr("CreateSession", CodeHandleInvalid)
	}
	if info.System != systemIDHMD {
		return 0, resultErr("CreateSession", CodeHandleInvalid)
	}
	if info.Device == nil {
		return 0, resultErr("CreateSession", CodeGraphicsDeviceInvalid)
	}

	if r.session != nil && r.session.State() != StateIdle {
		Logger().Warn("session already live, force-resetting", "handle", r.session.handle, "state", r.session.State().String())
		r.resetSessionLocked()
	}

	r.sessionCount++
	s := &Session{
		handle: SessionHandle(0x1000 + r.sessionCount),
		device: info.Device,
		state:  StateIdle,
	}
	if r.win != nil {
		s.mu.Lock()
		s.focused = r.win.Focused()
		s.mu.Unlock()
	}
	r.session = s
	propagateLogger(info.Device)

	r.pushState(s, StateReady)
	return s.handle, nil
}

// DestroySession resets the session to idle and releases the runtime's
// reference to the borrowed device. The presentation window and surface
// survive: they are shared process-wide state, reused by the next session
// (clients recreate sessions rapidly during capability probing, and window
// recreation is slow and visually disruptive).
func (r *Runtime) DestroySession(h SessionHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.handle != h {
		return resultErr("DestroySession", CodeHandleInvalid)
	}
	r.resetSessionLocked()
	Logger().Info("session destroyed", "handle", h)
	return nil
}

// resetSessionLocked clears the live session without touching the shared
// window or presentation surface. Caller holds r.mu.
func (r *Runtime) resetSessionLocked() {
	r.session = nil
}

// BeginSession starts the session's frame loop. The runtime advances
// through SYNCHRONIZED and VISIBLE, then to FOCUSED only if the
// presentation window has input focus at this moment. Each step enqueues
// its event before the next proceeds.
func (r *Runtime) BeginSession(h SessionHandle, viewConfig ViewConfigurationType) error {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s == nil || s.handle != h {
		return resultErr("BeginSession", CodeHandleInvalid)
	}
	if viewConfig != ViewConfigurationPrimaryStereo {
		return resultErr("BeginSession", CodeValidationFailure)
	}

	r.pushState(s, StateSynchronized)
	r.pushState(s, StateVisible)

	s.mu.Lock()
	focused := s.focused
	s.mu.Unlock()
	if focused {
		r.pushState(s, StateFocused)
	}
	return nil
}

// EndSession winds the session down: STOPPING, then IDLE, in order.
func (r *Runtime) EndSession(h SessionHandle) error {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s == nil || s.handle != h {
		return resultErr("EndSession", CodeHandleInvalid)
	}
	r.pushState(s, StateStopping)
	r.pushState(s, StateIdle)
	return nil
}

// RequestExitSession asks the client to shut down; the session transitions
// to EXITING and the client is expected to destroy it after observing the
// event. Resources are not torn down here.
func (r *Runtime) RequestExitSession(h SessionHandle) error {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s == nil || s.handle != h {
		return resultErr("RequestExitSession", CodeHandleInvalid)
	}
	r.pushState(s, StateExiting)
	return nil
}

// handleFocusChange funnels a window focus notification into the state
// machine. VISIBLE gains focus into FOCUSED; FOCUSED loses it back to
// VISIBLE. Any other state only records the flag.
func (r *Runtime) handleFocusChange(focused bool) {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s == nil {
		return
	}

	s.mu.Lock()
	s.focused = focused
	state := s.state
	s.mu.Unlock()

	switch {
	case focused && state == StateVisible:
		r.pushState(s, StateFocused)
	case !focused && state == StateFocused:
		r.pushState(s, StateVisible)
	}
}

// handleCloseRequest funnels a window close request into the state
// machine as an exit request. Teardown stays with the explicit destroy
// calls.
func (r *Runtime) handleCloseRequest() {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s == nil {
		return
	}
	Logger().Info("window close requested")
	r.pushState(s, StateExiting)
}
