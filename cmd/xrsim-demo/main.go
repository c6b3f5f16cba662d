// Command xrsim-demo drives the simulated HMD runtime through a full
// client lifecycle: negotiation, session, swapchains, a frame loop with
// synthetic eye images, and teardown. It renders with the software
// device into a headless window and reports what was presented.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"net/http"
	"os"

	"github.com/gogpu/xrsim"
	"github.com/gogpu/xrsim/backend"
	"github.com/gogpu/xrsim/diag"
	"github.com/gogpu/xrsim/internal/config"
	"github.com/gogpu/xrsim/window"
)

func main() {
	frames := flag.Int("frames", 90, "number of frames to submit")
	diagAddr := flag.String("diag", "", "serve the diagnostics stream on this address")
	configPath := flag.String("config", "", "runtime config file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	xrsim.SetLogger(log)

	if err := run(*frames, *diagAddr, *configPath, log); err != nil {
		log.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run(frames int, diagAddr, configPath string, log *slog.Logger) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	win := window.NewHeadless(cfg.Display.WindowWidth, cfg.Display.WindowHeight)
	win.SetFocused(true)

	opts := []xrsim.Option{
		xrsim.WithWindow(win),
		xrsim.WithRefreshRate(cfg.Display.RefreshRate),
		xrsim.WithImageCount(cfg.Swapchain.ImageCount),
	}
	if diagAddr != "" {
		b := diag.NewBroadcaster(log)
		mux := http.NewServeMux()
		mux.Handle("/ws", b)
		srv := &http.Server{Addr: diagAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("diagnostics server stopped", "error", err)
			}
		}()
		defer srv.Close()
		log.Info("diagnostics stream listening", "addr", diagAddr)
		opts = append(opts, xrsim.WithDiagnostics(b))
	}

	rt, err := xrsim.New(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	instance, err := rt.CreateInstance(xrsim.InstanceCreateInfo{ApplicationName: "xrsim-demo"})
	if err != nil {
		return err
	}
	defer rt.DestroyInstance(instance)

	props, err := rt.InstanceProperties(instance)
	if err != nil {
		return err
	}
	log.Info("runtime", "name", props.RuntimeName, "version", props.RuntimeVersion)

	system, err := rt.System(instance, xrsim.FormFactorHMD)
	if err != nil {
		return err
	}
	views, err := rt.ViewConfigurationViews(instance, system, xrsim.ViewConfigurationPrimaryStereo)
	if err != nil {
		return err
	}

	device := backend.MustDefault()
	session, err := rt.CreateSession(xrsim.SessionCreateInfo{System: system, Device: device})
	if err != nil {
		return err
	}
	defer rt.DestroySession(session)

	if err := awaitState(rt, xrsim.StateReady); err != nil {
		return err
	}
	if err := rt.BeginSession(session, xrsim.ViewConfigurationPrimaryStereo); err != nil {
		return err
	}

	formats, err := rt.SwapchainFormats(session)
	if err != nil {
		return err
	}

	eyes := make([]xrsim.SwapchainHandle, 2)
	for i := range eyes {
		eyes[i], err = rt.CreateSwapchain(session, xrsim.SwapchainCreateInfo{
			Format: formats[0],
			Width:  views[i].RecommendedWidth,
			Height: views[i].RecommendedHeight,
		})
		if err != nil {
			return err
		}
		defer rt.DestroySwapchain(eyes[i])
	}

	for frame := 0; frame < frames; frame++ {
		state, err := rt.WaitFrame(session)
		if err != nil {
			return err
		}
		if err := rt.BeginFrame(session); err != nil {
			return err
		}

		drainEvents(rt, log)

		projViews := make([]xrsim.ProjectionView, 2)
		poses, err := rt.LocateViews(session, state.PredictedDisplayTime)
		if err != nil {
			return err
		}
		for i, sc := range eyes {
			idx, err := rt.AcquireSwapchainImage(sc)
			if err != nil {
				return err
			}
			if err := rt.WaitSwapchainImage(sc, 0); err != nil {
				return err
			}
			if err := paintEye(rt, sc, idx, i, frame); err != nil {
				return err
			}
			if err := rt.ReleaseSwapchainImage(sc); err != nil {
				return err
			}
			projViews[i] = xrsim.ProjectionView{
				Pose:     poses[i].Pose,
				FOV:      poses[i].FOV,
				SubImage: xrsim.SubImage{Swapchain: sc},
			}
		}

		err = rt.EndFrame(session, xrsim.FrameEndInfo{
			DisplayTime: state.PredictedDisplayTime,
			Layers:      []xrsim.CompositionLayer{xrsim.LayerProjection{Views: projViews}},
		})
		if err != nil {
			return err
		}
	}

	if err := rt.EndSession(session); err != nil {
		return err
	}
	drainEvents(rt, log)

	fmt.Printf("presented %d frames, last frame %v\n", win.FrameCount(), frameSize(win))
	return nil
}

// paintEye fills the acquired software image with a flat per-eye color
// that drifts with the frame number, so motion is visible in the preview.
func paintEye(rt *xrsim.Runtime, sc xrsim.SwapchainHandle, idx uint32, eye, frame int) error {
	images, err := rt.SwapchainImages(sc)
	if err != nil {
		return err
	}
	tex, ok := images[idx].(*backend.SoftwareTexture)
	if !ok {
		return fmt.Errorf("demo: expected a software texture, got %T", images[idx])
	}
	img := tex.Layer(0)
	if img == nil {
		return fmt.Errorf("demo: swapchain image has no layer 0")
	}
	shade := uint8(frame * 2 % 256)
	col := color.RGBA{R: shade, G: 64, B: 192, A: 255}
	if eye == 1 {
		col = color.RGBA{R: 64, G: shade, B: 192, A: 255}
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
	return nil
}

// awaitState polls until the expected session state event arrives.
func awaitState(rt *xrsim.Runtime, want xrsim.SessionState) error {
	for {
		ev, err := rt.PollEvent()
		if err != nil {
			return fmt.Errorf("demo: state %v never arrived: %w", want, err)
		}
		if ev.Type == xrsim.EventSessionStateChanged && ev.State == want {
			return nil
		}
	}
}

func drainEvents(rt *xrsim.Runtime, log *slog.Logger) {
	for {
		ev, err := rt.PollEvent()
		if err != nil {
			return
		}
		log.Info("event", "state", ev.State.String())
	}
}

func frameSize(win *window.Headless) image.Point {
	f := win.LastFrame()
	if f == nil {
		return image.Point{}
	}
	return f.Bounds().Size()
}
