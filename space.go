package xrsim

import "sync"

// ReferenceSpaceType selects the origin convention of a reference space.
type ReferenceSpaceType int

const (
	// ReferenceSpaceView is head-locked.
	ReferenceSpaceView ReferenceSpaceType = iota + 1
	// ReferenceSpaceLocal is seated, origin at the initial head position.
	ReferenceSpaceLocal
	// ReferenceSpaceStage is standing, origin on the floor.
	ReferenceSpaceStage
)

// SpaceHandle identifies a created space.
type SpaceHandle uint64

// ActionSetHandle identifies a created action set.
type ActionSetHandle uint64

// ActionHandle identifies a created action.
type ActionHandle uint64

// Path is an interned semantic path such as "/user/hand/left".
type Path uint64

// ActionType tags what an action reads.
type ActionType int

const (
	ActionTypeBoolean ActionType = iota + 1
	ActionTypeFloat
	ActionTypeVector2
	ActionTypePose
	ActionTypeVibration
)

// ActionStateBoolean is a boolean action's sampled state.
type ActionStateBoolean struct {
	CurrentState bool
	IsActive     bool
}

// ActionStateFloat is a scalar action's sampled state.
type ActionStateFloat struct {
	CurrentState float64
	IsActive     bool
}

// Extent2D is a width/height pair in meters.
type Extent2D struct {
	Width  float64
	Height float64
}

// pathTable interns semantic path strings. Paths hash deterministically
// so a path looked up twice yields the same handle, and the reverse map
// recovers the string.
type pathTable struct {
	mu      sync.Mutex
	reverse map[Path]string
}

// hashPath is djb2 over the path string. Deterministic across runs, so
// recorded traces replay with stable handles.
func hashPath(s string) Path {
	var h uint64 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 + uint64(s[i])
	}
	return Path(h)
}

func (t *pathTable) intern(s string) Path {
	p := hashPath(s)
	t.mu.Lock()
	if t.reverse == nil {
		t.reverse = make(map[Path]string)
	}
	t.reverse[p] = s
	t.mu.Unlock()
	return p
}

func (t *pathTable) lookup(p Path) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.reverse[p]
	return s, ok
}

// StringToPath interns a semantic path and returns its handle.
func (r *Runtime) StringToPath(s string) (Path, error) {
	if s == "" || s[0] != '/' {
		return 0, resultErr("StringToPath", CodeValidationFailure)
	}
	return r.paths.intern(s), nil
}

// PathToString recovers the string form of an interned path.
func (r *Runtime) PathToString(p Path) (string, error) {
	s, ok := r.paths.lookup(p)
	if !ok {
		return "", resultErr("PathToString", CodeHandleInvalid)
	}
	return s, nil
}

// CreateReferenceSpace creates a reference space. Spaces carry no state
// here; the handle only has to stay distinct and destroyable.
func (r *Runtime) CreateReferenceSpace(session SessionHandle, _ ReferenceSpaceType, _ Posef) (SpaceHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.handle != session {
		return 0, resultErr("CreateReferenceSpace", CodeHandleInvalid)
	}
	r.nextHandle++
	return SpaceHandle(r.nextHandle), nil
}

// CreateActionSpace creates a pose-action space, as inert as a reference
// space.
func (r *Runtime) CreateActionSpace(session SessionHandle, _ ActionHandle, _ Posef) (SpaceHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.handle != session {
		return 0, resultErr("CreateActionSpace", CodeHandleInvalid)
	}
	r.nextHandle++
	return SpaceHandle(r.nextHandle), nil
}

// DestroySpace releases a space handle.
func (r *Runtime) DestroySpace(SpaceHandle) error { return nil }

// LocateSpace reports the identity transform between any two spaces,
// always valid and tracked. The simulator has one coordinate frame.
func (r *Runtime) LocateSpace(_, _ SpaceHandle, _ Time) (Posef, error) {
	return identityPose, nil
}

// ReferenceSpaceBounds reports the play area, a fixed 3 by 3 meters.
func (r *Runtime) ReferenceSpaceBounds(session SessionHandle, _ ReferenceSpaceType) (Extent2D, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.handle != session {
		return Extent2D{}, resultErr("ReferenceSpaceBounds", CodeHandleInvalid)
	}
	return Extent2D{Width: 3, Height: 3}, nil
}

// CreateActionSet creates an action set.
func (r *Runtime) CreateActionSet(name string) (ActionSetHandle, error) {
	if name == "" {
		return 0, resultErr("CreateActionSet", CodeValidationFailure)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextHandle++
	return ActionSetHandle(r.nextHandle), nil
}

// CreateAction creates an action inside a set.
func (r *Runtime) CreateAction(set ActionSetHandle, name string, _ ActionType) (ActionHandle, error) {
	if set == 0 || name == "" {
		return 0, resultErr("CreateAction", CodeValidationFailure)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextHandle++
	return ActionHandle(r.nextHandle), nil
}

// DestroyActionSet releases an action set.
func (r *Runtime) DestroyActionSet(ActionSetHandle) error { return nil }

// SuggestBindings accepts any binding profile. No physical device exists
// to bind to, so the suggestions are acknowledged and discarded.
func (r *Runtime) SuggestBindings(profile Path, _ map[ActionHandle]Path) error {
	if profile == 0 {
		return resultErr("SuggestBindings", CodeValidationFailure)
	}
	return nil
}

// AttachActionSets attaches action sets to a session.
func (r *Runtime) AttachActionSets(session SessionHandle, _ []ActionSetHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.handle != session {
		return resultErr("AttachActionSets", CodeHandleInvalid)
	}
	return nil
}

// SyncActions refreshes action state. There is no input hardware, so the
// call succeeds without effect.
func (r *Runtime) SyncActions(session SessionHandle, _ []ActionSetHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.handle != session {
		return resultErr("SyncActions", CodeHandleInvalid)
	}
	return nil
}

// ActionStateBool samples a boolean action: always inactive and false.
func (r *Runtime) ActionStateBool(ActionHandle) (ActionStateBoolean, error) {
	return ActionStateBoolean{}, nil
}

// ActionStateFloatValue samples a scalar action: always inactive and zero.
func (r *Runtime) ActionStateFloatValue(ActionHandle) (ActionStateFloat, error) {
	return ActionStateFloat{}, nil
}

// ApplyHapticFeedback accepts and discards a haptic pulse.
func (r *Runtime) ApplyHapticFeedback(ActionHandle) error { return nil }

// StopHapticFeedback accepts and discards a haptic stop.
func (r *Runtime) StopHapticFeedback(ActionHandle) error { return nil }
