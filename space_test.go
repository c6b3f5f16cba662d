package xrsim

import (
	"errors"
	"testing"
)

// TestPathRoundTrip verifies interned paths recover their string and
// hash deterministically.
func TestPathRoundTrip(t *testing.T) {
	r := newTestRuntime(t)
	p, err := r.StringToPath("/user/hand/left")
	if err != nil {
		t.Fatalf("StringToPath: %v", err)
	}
	p2, err := r.StringToPath("/user/hand/left")
	if err != nil {
		t.Fatalf("StringToPath: %v", err)
	}
	if p != p2 {
		t.Errorf("same string interned to %v and %v", p, p2)
	}
	s, err := r.PathToString(p)
	if err != nil {
		t.Fatalf("PathToString: %v", err)
	}
	if s != "/user/hand/left" {
		t.Errorf("PathToString = %q", s)
	}
}

// TestPathValidation verifies malformed paths and unknown handles are
// rejected.
func TestPathValidation(t *testing.T) {
	r := newTestRuntime(t)
	if _, err := r.StringToPath("no-leading-slash"); !errors.Is(err, ErrValidation) {
		t.Errorf("StringToPath without slash = %v", err)
	}
	if _, err := r.PathToString(Path(12345)); !errors.Is(err, ErrHandleInvalid) {
		t.Errorf("PathToString(unknown) = %v", err)
	}
}

// TestSpacesInert verifies spaces locate to the identity transform and
// the play area reports the fixed bounds.
func TestSpacesInert(t *testing.T) {
	r := newTestRuntime(t)
	sess := newTestSession(t, r)

	a, err := r.CreateReferenceSpace(sess, ReferenceSpaceLocal, identityPose)
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}
	b, err := r.CreateReferenceSpace(sess, ReferenceSpaceStage, identityPose)
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}
	if a == b {
		t.Error("spaces share a handle")
	}
	pose, err := r.LocateSpace(a, b, 0)
	if err != nil {
		t.Fatalf("LocateSpace: %v", err)
	}
	if pose != identityPose {
		t.Errorf("LocateSpace = %+v, want identity", pose)
	}
	bounds, err := r.ReferenceSpaceBounds(sess, ReferenceSpaceStage)
	if err != nil {
		t.Fatalf("ReferenceSpaceBounds: %v", err)
	}
	if bounds.Width != 3 || bounds.Height != 3 {
		t.Errorf("bounds = %+v, want 3x3", bounds)
	}
}

// TestActionsNeutral verifies the action surface accepts a full binding
// flow and samples everything inactive.
func TestActionsNeutral(t *testing.T) {
	r := newTestRuntime(t)
	sess := newTestSession(t, r)

	set, err := r.CreateActionSet("gameplay")
	if err != nil {
		t.Fatalf("CreateActionSet: %v", err)
	}
	action, err := r.CreateAction(set, "fire", ActionTypeBoolean)
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	profile, err := r.StringToPath("/interaction_profiles/khr/simple_controller")
	if err != nil {
		t.Fatalf("StringToPath: %v", err)
	}
	binding, err := r.StringToPath("/user/hand/right/input/select/click")
	if err != nil {
		t.Fatalf("StringToPath: %v", err)
	}
	if err := r.SuggestBindings(profile, map[ActionHandle]Path{action: binding}); err != nil {
		t.Fatalf("SuggestBindings: %v", err)
	}
	if err := r.AttachActionSets(sess, []ActionSetHandle{set}); err != nil {
		t.Fatalf("AttachActionSets: %v", err)
	}
	if err := r.SyncActions(sess, []ActionSetHandle{set}); err != nil {
		t.Fatalf("SyncActions: %v", err)
	}

	state, err := r.ActionStateBool(action)
	if err != nil {
		t.Fatalf("ActionStateBool: %v", err)
	}
	if state.IsActive || state.CurrentState {
		t.Errorf("boolean state = %+v, want inactive false", state)
	}
	if err := r.ApplyHapticFeedback(action); err != nil {
		t.Errorf("ApplyHapticFeedback: %v", err)
	}
}
