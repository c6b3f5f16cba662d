package xrsim

import (
	"net/http"
	"sync"

	"github.com/gogpu/xrsim/compose"
	"github.com/gogpu/xrsim/diag"
	"github.com/gogpu/xrsim/internal/config"
	"github.com/gogpu/xrsim/window"
)

// Version is the runtime version reported by InstanceProperties.
const Version = "0.3.0"

// runtimeName is the runtime identifier reported to clients.
const runtimeName = "xrsim"

// InstanceHandle identifies a live instance.
type InstanceHandle uint64

// InstanceCreateInfo carries the arguments to CreateInstance.
type InstanceCreateInfo struct {
	ApplicationName string
	Extensions      []string
}

// InstanceProperties describes the runtime to a client.
type InstanceProperties struct {
	RuntimeName    string
	RuntimeVersion string
}

// Instance is one client's negotiation context.
type Instance struct {
	handle     InstanceHandle
	appName    string
	extensions []string
}

// supportedExtensions is the fixed extension set CreateInstance accepts.
var supportedExtensions = []string{
	"XR_KHR_composition_layer_depth",
	"XR_EXT_debug_utils",
}

// FormFactor is the physical shape of a negotiated system.
type FormFactor int

const (
	// FormFactorHMD is a head-mounted display, the only form factor here.
	FormFactorHMD FormFactor = iota + 1
	// FormFactorHandheld is a handheld device; unsupported.
	FormFactorHandheld
)

// SystemID identifies a negotiated system.
type SystemID uint64

// systemIDHMD is the single system the simulator exposes.
const systemIDHMD SystemID = 1

// SystemProperties describes the simulated device.
type SystemProperties struct {
	SystemName          string
	VendorID            uint32
	MaxImageWidth       uint32
	MaxImageHeight      uint32
	MaxLayerCount       uint32
	OrientationTracking bool
	PositionTracking    bool
}

// ViewConfigurationType selects how views are arranged.
type ViewConfigurationType int

const (
	// ViewConfigurationPrimaryStereo is two side-by-side eye views, the
	// only configuration the simulator runs.
	ViewConfigurationPrimaryStereo ViewConfigurationType = iota + 1
	// ViewConfigurationPrimaryMono is a single view; enumerable contexts
	// may reference it but BeginSession rejects it.
	ViewConfigurationPrimaryMono
)

// ViewConfigurationView is one view's size envelope.
type ViewConfigurationView struct {
	RecommendedWidth       uint32
	RecommendedHeight      uint32
	MaxWidth               uint32
	MaxHeight              uint32
	RecommendedSampleCount uint32
	MaxSampleCount         uint32
}

// EnvironmentBlendMode is how rendered layers mix with the real world.
type EnvironmentBlendMode int

const (
	// BlendModeOpaque fully replaces the view, as any VR display does.
	BlendModeOpaque EnvironmentBlendMode = iota + 1
)

// Runtime is the simulated HMD runtime: one per process is typical. It
// owns the session state machine, the swapchain registry, the frame
// pacer, and the compositor, and borrows the presentation window and the
// client's graphics device.
type Runtime struct {
	mu sync.Mutex

	cfg config.Config
	win window.Window

	instance      *Instance
	instanceCount uint64
	session       *Session
	sessionCount  uint64

	events     eventQueue
	swapchains map[SwapchainHandle]*Swapchain
	nextHandle uint64
	imageCount int

	pacer      *framePacer
	compositor *compose.Compositor
	pose       poseState
	paths      pathTable

	diag    *diag.Broadcaster
	diagSrv *http.Server
}

// Option configures a Runtime.
type Option func(*runtimeOptions)

type runtimeOptions struct {
	win        window.Window
	configPath string
	refresh    float64
	imageCount int
	winW, winH int
	diag       *diag.Broadcaster
}

// WithWindow sets the presentation window. Without one the runtime still
// runs the full protocol but composites nothing.
func WithWindow(w window.Window) Option {
	return func(o *runtimeOptions) { o.win = w }
}

// WithConfigFile loads configuration from a YAML file. A missing file
// falls back to defaults.
func WithConfigFile(path string) Option {
	return func(o *runtimeOptions) { o.configPath = path }
}

// WithRefreshRate overrides the simulated display cadence in Hz.
func WithRefreshRate(hz float64) Option {
	return func(o *runtimeOptions) { o.refresh = hz }
}

// WithImageCount overrides the swapchain ring depth.
func WithImageCount(n int) Option {
	return func(o *runtimeOptions) { o.imageCount = n }
}

// WithWindowSize overrides the initial window size applied to resizable
// windows.
func WithWindowSize(w, h int) Option {
	return func(o *runtimeOptions) { o.winW, o.winH = w, h }
}

// WithDiagnostics attaches an externally served diagnostics broadcaster.
// It takes precedence over the config file's diagnostics section.
func WithDiagnostics(b *diag.Broadcaster) Option {
	return func(o *runtimeOptions) { o.diag = b }
}

// New creates a Runtime. Config precedence: options override the config
// file, which overrides defaults.
func New(opts ...Option) (*Runtime, error) {
	var o runtimeOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, resultErrf("New", CodeValidationFailure, err)
		}
		cfg = loaded
	}
	if o.refresh > 0 {
		cfg.Display.RefreshRate = o.refresh
	}
	if o.imageCount > 0 {
		cfg.Swapchain.ImageCount = o.imageCount
	}
	if o.winW > 0 && o.winH > 0 {
		cfg.Display.WindowWidth = o.winW
		cfg.Display.WindowHeight = o.winH
	}

	r := &Runtime{
		cfg:        cfg,
		win:        o.win,
		swapchains: make(map[SwapchainHandle]*Swapchain),
		imageCount: cfg.Swapchain.ImageCount,
		pacer:      newFramePacer(cfg.Display.RefreshRate),
		compositor: compose.New(),
		diag:       o.diag,
	}
	r.compositor.SetLogger(Logger())

	if r.win != nil {
		if rz, ok := r.win.(window.Resizer); ok {
			rz.Resize(cfg.Display.WindowWidth, cfg.Display.WindowHeight)
		}
		r.win.SetFocusHandler(r.handleFocusChange)
		r.win.SetCloseHandler(r.handleCloseRequest)
	}

	if r.diag == nil && cfg.Diagnostics.Enabled {
		r.diag = diag.NewBroadcaster(Logger())
		mux := http.NewServeMux()
		mux.Handle("/ws", r.diag)
		r.diagSrv = &http.Server{Addr: cfg.Diagnostics.Addr, Handler: mux}
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				Logger().Warn("diagnostics server stopped", "error", err)
			}
		}(r.diagSrv)
		Logger().Info("diagnostics stream listening", "addr", cfg.Diagnostics.Addr)
	}

	return r, nil
}

// Close tears the runtime down: swapchains, session, the diagnostics
// server, and the compositor's cached surface. The window is borrowed and
// stays open.
func (r *Runtime) Close() error {
	r.mu.Lock()
	for h, sc := range r.swapchains {
		for _, t := range sc.images {
			t.Destroy()
		}
		delete(r.swapchains, h)
	}
	r.session = nil
	r.instance = nil
	srv := r.diagSrv
	r.diagSrv = nil
	r.mu.Unlock()

	r.compositor.Invalidate()
	if srv != nil {
		return srv.Close()
	}
	return nil
}

// CreateInstance opens a negotiation context. Requesting an extension the
// runtime does not implement fails the whole call with
// CodeExtensionNotPresent.
func (r *Runtime) CreateInstance(info InstanceCreateInfo) (InstanceHandle, error) {
	for _, ext := range info.Extensions {
		if !extensionSupported(ext) {
			Logger().Warn("unsupported extension requested", "extension", ext)
			return 0, resultErr("CreateInstance", CodeExtensionNotPresent)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance != nil {
		return 0, resultErr("CreateInstance", CodeValidationFailure)
	}
	r.instanceCount++
	r.instance = &Instance{
		handle:     InstanceHandle(0x100 + r.instanceCount),
		appName:    info.ApplicationName,
		extensions: append([]string(nil), info.Extensions...),
	}
	Logger().Info("instance created", "handle", r.instance.handle, "app", info.ApplicationName)
	return r.instance.handle, nil
}

// DestroyInstance closes the negotiation context and any session under
// it. The window and presentation surface stay alive for the next
// instance.
func (r *Runtime) DestroyInstance(h InstanceHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil || r.instance.handle != h {
		return resultErr("DestroyInstance", CodeHandleInvalid)
	}
	r.instance = nil
	r.session = nil
	Logger().Info("instance destroyed", "handle", h)
	return nil
}

// InstanceProperties reports the runtime's identity.
func (r *Runtime) InstanceProperties(h InstanceHandle) (InstanceProperties, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil || r.instance.handle != h {
		return InstanceProperties{}, resultErr("InstanceProperties", CodeHandleInvalid)
	}
	return InstanceProperties{RuntimeName: runtimeName, RuntimeVersion: Version}, nil
}

// Extensions returns the runtime's supported extension names.
func (r *Runtime) Extensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

func extensionSupported(name string) bool {
	for _, ext := range supportedExtensions {
		if ext == name {
			return true
		}
	}
	return false
}

// System negotiates the device for a form factor. Only the HMD form
// factor resolves; anything else fails with CodeFormFactorUnsupported.
func (r *Runtime) System(h InstanceHandle, ff FormFactor) (SystemID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil || r.instance.handle != h {
		return 0, resultErr("System", CodeHandleInvalid)
	}
	if ff != FormFactorHMD {
		return 0, resultErr("System", CodeFormFactorUnsupported)
	}
	return systemIDHMD, nil
}

// SystemProperties describes the simulated HMD.
func (r *Runtime) SystemProperties(h InstanceHandle, sys SystemID) (SystemProperties, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil || r.instance.handle != h || sys != systemIDHMD {
		return SystemProperties{}, resultErr("SystemProperties", CodeHandleInvalid)
	}
	return SystemProperties{
		SystemName:          "xrsim simulated HMD",
		VendorID:            0x5853, // "XS"
		MaxImageWidth:       4096,
		MaxImageHeight:      4096,
		MaxLayerCount:       16,
		OrientationTracking: true,
		PositionTracking:    true,
	}, nil
}

// ViewConfigurations enumerates the supported view arrangements.
func (r *Runtime) ViewConfigurations(h InstanceHandle, sys SystemID) ([]ViewConfigurationType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil || r.instance.handle != h || sys != systemIDHMD {
		return nil, resultErr("ViewConfigurations", CodeHandleInvalid)
	}
	return []ViewConfigurationType{ViewConfigurationPrimaryStereo}, nil
}

// ViewConfigurationViews returns the per-eye size envelopes for a view
// configuration.
func (r *Runtime) ViewConfigurationViews(h InstanceHandle, sys SystemID, vc ViewConfigurationType) ([]ViewConfigurationView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil || r.instance.handle != h || sys != systemIDHMD {
		return nil, resultErr("ViewConfigurationViews", CodeHandleInvalid)
	}
	if vc != ViewConfigurationPrimaryStereo {
		return nil, resultErr("ViewConfigurationViews", CodeValidationFailure)
	}
	view := ViewConfigurationView{
		RecommendedWidth:       1280,
		RecommendedHeight:      720,
		MaxWidth:               4096,
		MaxHeight:              4096,
		RecommendedSampleCount: 1,
		MaxSampleCount:         4,
	}
	return []ViewConfigurationView{view, view}, nil
}

// EnvironmentBlendModes enumerates how layers mix with the environment.
// A simulated VR display is opaque, always.
func (r *Runtime) EnvironmentBlendModes(h InstanceHandle, sys SystemID) ([]EnvironmentBlendMode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil || r.instance.handle != h || sys != systemIDHMD {
		return nil, resultErr("EnvironmentBlendModes", CodeHandleInvalid)
	}
	return []EnvironmentBlendMode{BlendModeOpaque}, nil
}
