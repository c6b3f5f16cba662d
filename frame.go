package xrsim

import (
	"image"

	"github.com/gogpu/xrsim/compose"
)

// CompositionLayer is a layer submitted through EndFrame. Only projection
// layers are composited; other layer kinds are accepted and ignored.
type CompositionLayer interface {
	compositionLayer()
}

// SubImage selects the portion of a swapchain the compositor samples.
// A zero ImageRect means the full image.
type SubImage struct {
	Swapchain  SwapchainHandle
	ImageRect  image.Rectangle
	ArrayIndex uint32
}

// ProjectionView is one eye's submission: its rendered pose and the
// swapchain region holding the pixels.
type ProjectionView struct {
	Pose     Posef
	FOV      FOV
	SubImage SubImage
}

// LayerProjection is a stereo projection layer. Views holds one entry per
// eye; a single view is mirrored into both window halves.
type LayerProjection struct {
	Views []ProjectionView
}

func (LayerProjection) compositionLayer() {}

// LayerQuad is a world-locked quad layer. The desktop preview has no
// place to show it, so it is accepted and ignored.
type LayerQuad struct {
	Pose     Posef
	SubImage SubImage
	Width    float64
	Height   float64
}

func (LayerQuad) compositionLayer() {}

// FrameEndInfo carries the arguments to EndFrame.
type FrameEndInfo struct {
	DisplayTime Time
	Layers      []CompositionLayer
}

// WaitFrame blocks until the display is ready for the next frame and
// returns its predicted timing. It also pumps the presentation window, so
// a client that loops on WaitFrame keeps focus and close notifications
// flowing without a separate pump.
func (r *Runtime) WaitFrame(session SessionHandle) (FrameState, error) {
	r.mu.Lock()
	s := r.session
	win := r.win
	r.mu.Unlock()
	if s == nil || s.handle != session {
		return FrameState{}, resultErr("WaitFrame", CodeHandleInvalid)
	}
	return r.pacer.wait(win), nil
}

// BeginFrame marks the start of client rendering for the frame returned
// by the last WaitFrame. The simulated display needs no per-frame setup.
func (r *Runtime) BeginFrame(session SessionHandle) error {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s == nil || s.handle != session {
		return resultErr("BeginFrame", CodeHandleInvalid)
	}
	return nil
}

// EndFrame submits the frame's layers. The first projection layer is
// composited side-by-side onto the presentation window; further
// projection layers and all other layer kinds are ignored. Per-eye
// compositor failures are contained and logged, never returned: a client
// must not lose its frame loop to a preview problem.
func (r *Runtime) EndFrame(session SessionHandle, info FrameEndInfo) error {
	r.mu.Lock()
	s := r.session
	win := r.win
	r.mu.Unlock()
	if s == nil || s.handle != session {
		return resultErr("EndFrame", CodeHandleInvalid)
	}

	var projection *LayerProjection
	for _, layer := range info.Layers {
		if p, ok := layer.(LayerProjection); ok {
			projection = &p
			break
		}
	}

	if projection != nil && win != nil {
		frame, err := r.resolveProjection(projection)
		if err != nil {
			return err
		}
		r.compositor.Compose(s.device, win, frame)
	}

	if r.diag != nil {
		r.diag.PublishFrame(uint64(s.handle), int64(info.DisplayTime), len(info.Layers))
	}
	return nil
}

// resolveProjection turns a projection layer's swapchain references into
// concrete eye submissions for the compositor. Depth-format swapchains
// are skipped: they are allocatable for rendering but have no place on a
// color preview. The skip is logged once per swapchain at Debug.
func (r *Runtime) resolveProjection(layer *LayerProjection) (compose.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var frame compose.Frame
	for _, view := range layer.Views {
		sc, ok := r.swapchains[view.SubImage.Swapchain]
		if !ok {
			return compose.Frame{}, resultErr("EndFrame", CodeHandleInvalid)
		}
		if isDepthFormat(sc.info.Format) {
			if !sc.depthSkipLogged {
				Logger().Debug("depth swapchain submitted to projection layer, skipping", "handle", sc.handle)
				sc.depthSkipLogged = true
			}
			continue
		}

		full := image.Rect(0, 0, int(sc.info.Width), int(sc.info.Height))
		rect := view.SubImage.ImageRect
		if rect.Empty() {
			rect = full
		} else {
			rect = rect.Intersect(full)
			if rect.Empty() {
				rect = full
			}
		}

		layerIdx := int(view.SubImage.ArrayIndex)
		if layerIdx >= int(sc.info.ArraySize) {
			return compose.Frame{}, resultErr("EndFrame", CodeValidationFailure)
		}

		frame.Eyes = append(frame.Eyes, compose.Eye{
			Texture:     sc.images[sc.presentIndex()],
			Layer:       layerIdx,
			Rect:        rect,
			FullSize:    full.Max,
			SampleCount: int(sc.info.SampleCount),
			Format:      sc.info.Format,
		})
	}
	return frame, nil
}
