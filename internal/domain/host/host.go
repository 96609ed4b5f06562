package host

import (
	"strconv"
	"sync"

	"github.com/GriffinCanCode/rnpad/internal/domain/device"
	"github.com/GriffinCanCode/rnpad/internal/domain/preview"
)

// Capabilities granted to the embedded preview
const (
	Allow   = "camera; microphone; geolocation"
	Sandbox = "allow-scripts allow-same-origin allow-forms allow-popups allow-modals"
	Title   = "App Preview"
)

// Frame is everything needed to render the device chrome and its preview
type Frame struct {
	Device     device.Profile `json:"device"`
	URL        string         `json:"url"`
	Generation uint64         `json:"generation"`
	MountKey   string         `json:"mountKey"`
	Allow      string         `json:"allow"`
	Sandbox    string         `json:"sandbox"`
	Title      string         `json:"title"`
}

// HasURL reports whether there is anything to embed
func (f Frame) HasURL() bool {
	return f.URL != ""
}

// MountKey identifies one mounted instance of the preview surface
func MountKey(generation uint64) string {
	return "preview-" + strconv.FormatUint(generation, 10)
}

// Host tracks the mounted preview surface of one workspace
type Host struct {
	selector *device.Selector

	mu        sync.Mutex
	mounted   bool
	mountGen  uint64
	onRemount func(Frame)
}

// New creates a host that renders the profile chosen in selector
func New(selector *device.Selector) *Host {
	return &Host{selector: selector}
}

// OnRemount registers fn to be called for every remount
func (h *Host) OnRemount(fn func(Frame)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRemount = fn
}

// Frame builds the frame for snap without changing what is mounted
func (h *Host) Frame(snap preview.Snapshot) Frame {
	return Frame{
		Device:     h.selector.Current(),
		URL:        snap.LastURL,
		Generation: snap.Generation,
		MountKey:   MountKey(snap.Generation),
		Allow:      Allow,
		Sandbox:    Sandbox,
		Title:      Title,
	}
}

// Observe feeds a session snapshot to the host. The second result is true
// when the surface must be torn down and mounted again, which happens on the
// first observation and whenever the generation changes, even if the URL did
// not.
func (h *Host) Observe(snap preview.Snapshot) (Frame, bool) {
	frame := h.Frame(snap)

	h.mu.Lock()
	remount := !h.mounted || h.mountGen != snap.Generation
	h.mounted = true
	h.mountGen = snap.Generation
	hook := h.onRemount
	h.mu.Unlock()

	if remount && hook != nil {
		hook(frame)
	}
	return frame, remount
}

// Mounted returns the generation currently mounted
func (h *Host) Mounted() (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mountGen, h.mounted
}
