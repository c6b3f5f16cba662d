package xrsim

import (
	"math"
	"sync"
)

// Vector3 is a position or offset in meters.
type Vector3 struct {
	X, Y, Z float64
}

// Quaternion is a rotation. Identity is {0,0,0,1}.
type Quaternion struct {
	X, Y, Z, W float64
}

// Posef is a rigid transform: orientation then position.
type Posef struct {
	Orientation Quaternion
	Position    Vector3
}

// FOV holds the four half-angle tangent bounds of a view frustum, in
// radians. Left and Down are negative.
type FOV struct {
	AngleLeft  float64
	AngleRight float64
	AngleUp    float64
	AngleDown  float64
}

// View is one eye's pose and frustum for a given display time.
type View struct {
	Pose Posef
	FOV  FOV
}

// interPupillaryDistance separates the two synthesized eye views, in
// meters.
const interPupillaryDistance = 0.064

// viewHalfAngle is the symmetric frustum half-angle of the simulated
// display, in radians.
const viewHalfAngle = 0.7

// identityPose is the neutral transform.
var identityPose = Posef{Orientation: Quaternion{W: 1}}

// poseState is the ambient viewer pose. The window collaborator's input
// hooks write it; LocateViews reads it. One mutex keeps each read a
// consistent snapshot.
type poseState struct {
	mu       sync.Mutex
	yaw      float64
	pitch    float64
	position Vector3
}

func (p *poseState) set(yaw, pitch float64, pos Vector3) {
	p.mu.Lock()
	p.yaw = yaw
	p.pitch = pitch
	p.position = pos
	p.mu.Unlock()
}

func (p *poseState) snapshot() (yaw, pitch float64, pos Vector3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.yaw, p.pitch, p.position
}

// quatFromYawPitch builds the head orientation from yaw about +Y then
// pitch about +X.
func quatFromYawPitch(yaw, pitch float64) Quaternion {
	cy := math.Cos(yaw / 2)
	sy := math.Sin(yaw / 2)
	cp := math.Cos(pitch / 2)
	sp := math.Sin(pitch / 2)
	return Quaternion{
		X: sp * cy,
		Y: cp * sy,
		Z: -sp * sy,
		W: cp * cy,
	}
}

// rotate applies q to v.
func (q Quaternion) rotate(v Vector3) Vector3 {
	// v' = v + 2*cross(q.xyz, cross(q.xyz, v) + q.w*v)
	ux, uy, uz := q.X, q.Y, q.Z
	cx := uy*v.Z - uz*v.Y + q.W*v.X
	cy := uz*v.X - ux*v.Z + q.W*v.Y
	cz := ux*v.Y - uy*v.X + q.W*v.Z
	return Vector3{
		X: v.X + 2*(uy*cz-uz*cy),
		Y: v.Y + 2*(uz*cx-ux*cz),
		Z: v.Z + 2*(ux*cy-uy*cx),
	}
}

// SetViewerPose updates the ambient head pose used by LocateViews. Input
// layers call this from window hooks; the demo scripts it directly.
func (r *Runtime) SetViewerPose(yaw, pitch float64, position Vector3) {
	r.pose.set(yaw, pitch, position)
}

// LocateViews synthesizes the two eye views for a display time: the
// ambient head orientation, with each eye displaced half the
// inter-pupillary distance along the head's local X axis. Both views are
// always reported valid and tracked.
func (r *Runtime) LocateViews(session SessionHandle, displayTime Time) ([]View, error) {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s == nil || s.handle != session {
		return nil, resultErr("LocateViews", CodeHandleInvalid)
	}

	yaw, pitch, pos := r.pose.snapshot()
	orientation := quatFromYawPitch(yaw, pitch)

	fov := FOV{
		AngleLeft:  -viewHalfAngle,
		AngleRight: viewHalfAngle,
		AngleUp:    viewHalfAngle,
		AngleDown:  -viewHalfAngle,
	}

	views := make([]View, 2)
	for i := range views {
		offset := interPupillaryDistance / 2
		if i == 0 {
			offset = -offset
		}
		eye := orientation.rotate(Vector3{X: offset})
		views[i] = View{
			Pose: Posef{
				Orientation: orientation,
				Position:    Vector3{X: pos.X + eye.X, Y: pos.Y + eye.Y, Z: pos.Z + eye.Z},
			},
			FOV: fov,
		}
	}
	return views, nil
}
