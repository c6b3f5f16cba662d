package compose

import "github.com/gogpu/xrsim/backend"

// stateGuard restores captured device pipeline state exactly once. The
// compositor shares the client's device, so everything it binds must be
// unwound before the client renders again, on every exit path.
type stateGuard struct {
	ctx      backend.Context
	state    backend.State
	restored bool
}

// captureState snapshots the context's current pipeline state.
func captureState(ctx backend.Context) *stateGuard {
	return &stateGuard{ctx: ctx, state: ctx.SaveState()}
}

// Restore puts the captured state back. Safe to call more than once;
// only the first call acts.
func (g *stateGuard) Restore() {
	if g.restored {
		return
	}
	g.restored = true
	g.ctx.RestoreState(g.state)
}
