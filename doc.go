// Package xrsim provides a simulated head-mounted display runtime.
//
// # Overview
//
// xrsim implements the server side of an OpenXR-style hardware abstraction
// contract without any headset attached. Client applications negotiate an
// instance, bind a graphics device to a session, stream rendered stereo
// frames through swapchain image rings, and observe session state through a
// polled event queue, exactly as they would against real hardware. The
// submitted frames are composited side-by-side onto a desktop preview
// window instead of an HMD panel.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/xrsim"
//	    "github.com/gogpu/xrsim/backend"
//	    "github.com/gogpu/xrsim/window"
//	)
//
//	win := window.NewHeadless(1920, 540)
//	rt, _ := xrsim.New(xrsim.WithWindow(win))
//
//	inst, _ := rt.CreateInstance(xrsim.InstanceCreateInfo{ApplicationName: "demo"})
//	sys, _ := rt.System(inst, xrsim.FormFactorHMD)
//	sess, _ := rt.CreateSession(xrsim.SessionCreateInfo{
//	    System: sys,
//	    Device: backend.MustDefault(),
//	})
//	rt.BeginSession(sess, xrsim.ViewConfigurationPrimaryStereo)
//
//	for {
//	    state, _ := rt.WaitFrame(sess)
//	    // acquire, render into, and release swapchain images...
//	    rt.EndFrame(sess, xrsim.FrameEndInfo{DisplayTime: state.PredictedDisplayTime, Layers: layers})
//	}
//
// # Architecture
//
// The library is organized into:
//   - Root package: runtime facade, session state machine, event queue,
//     swapchain registry, frame pacer, view pose synthesis
//   - compose: the stereo-to-window compositor
//   - backend: pluggable graphics resource factories (software included)
//   - window: the presentation window collaborator (headless included)
//
// # Logging
//
// xrsim produces no log output by default. Call [SetLogger] to enable it.
package xrsim
