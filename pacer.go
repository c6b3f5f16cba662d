package xrsim

import (
	"time"

	"github.com/gogpu/xrsim/window"
)

// Time is a runtime timestamp in nanoseconds on the pacer's monotonic
// timeline. Zero is the moment the Runtime was created.
type Time int64

// FrameState is the pacing result handed back from WaitFrame.
type FrameState struct {
	// PredictedDisplayTime is when the next submitted frame is expected
	// to reach the display.
	PredictedDisplayTime Time
	// PredictedDisplayPeriod is the display refresh period.
	PredictedDisplayPeriod Time
	// ShouldRender reports whether the client should render this frame.
	// The simulated display is always on.
	ShouldRender bool
}

// framePacer throttles the frame loop to the display cadence.
//
// Deadlines are tracked against a monotonic start instant; predicted
// times go through float64 so a runaway nextTick cannot overflow the
// int64 nanosecond math.
type framePacer struct {
	period   time.Duration
	start    time.Time
	nextTick Time
}

// waitSlice bounds each sleep so window messages keep flowing while a
// frame deadline is pending.
const waitSlice = 5 * time.Millisecond

func newFramePacer(refreshRate float64) *framePacer {
	if refreshRate <= 0 {
		refreshRate = 90
	}
	return &framePacer{
		period: time.Duration(float64(time.Second) / refreshRate),
		start:  time.Now(),
	}
}

// now returns the current timestamp on the pacer's timeline.
func (p *framePacer) now() Time {
	return Time(time.Since(p.start))
}

// wait blocks until the next frame deadline, pumping the window between
// sleep slices, then returns the predicted timing for the frame about to
// be rendered.
func (p *framePacer) wait(win window.Window) FrameState {
	if p.nextTick == 0 {
		p.nextTick = p.now() + Time(p.period)
	}

	for {
		if win != nil {
			win.Pump()
		}
		remaining := time.Duration(p.nextTick - p.now())
		if remaining <= 0 {
			break
		}
		if remaining > waitSlice {
			remaining = waitSlice
		}
		time.Sleep(remaining)
	}

	p.nextTick += Time(p.period)

	predicted := Time(float64(p.now()) + float64(p.period))
	return FrameState{
		PredictedDisplayTime:   predicted,
		PredictedDisplayPeriod: Time(p.period),
		ShouldRender:           true,
	}
}
