// Package gputest provides a recording fake of the gpu interfaces.
//
// Every object created from an Instance shares one Recorder, which keeps
// an ordered log of calls, a count of live objects per kind and a list of
// protocol violations (submitting while a frame is in flight, destroying a
// swapchain before its views, and so on). Device work completes when the
// host waits for it, either on a fence or with WaitIdle.
package gputest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/jarmungular/engine/gpu"
)

// Recorder logs calls made against fake objects.
type Recorder struct {
	Calls      []string
	Violations []string

	live map[string]int
}

func newRecorder() *Recorder {
	return &Recorder{live: make(map[string]int)}
}

func (r *Recorder) record(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

func (r *Recorder) violate(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// Count returns how many logged calls start with prefix.
func (r *Recorder) Count(prefix string) int {
	n := 0
	for _, c := range r.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Index returns the position of the first call starting with prefix,
// or -1.
func (r *Recorder) Index(prefix string) int {
	for i, c := range r.Calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

// LastIndex returns the position of the last call starting with prefix,
// or -1.
func (r *Recorder) LastIndex(prefix string) int {
	for i := len(r.Calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(r.Calls[i], prefix) {
			return i
		}
	}
	return -1
}

// Live returns the number of objects of the given kind that were created
// and not yet destroyed.
func (r *Recorder) Live(kind string) int {
	return r.live[kind]
}

// ClearCalls forgets the call log. Live counts and violations are kept.
func (r *Recorder) ClearCalls() {
	r.Calls = nil
}

type object struct {
	rec       *Recorder
	kind      string
	destroyed bool
}

func newObject(rec *Recorder, kind string) object {
	rec.live[kind]++
	rec.record("create %s", kind)
	return object{rec: rec, kind: kind}
}

func (o *object) release() {
	if o.destroyed {
		o.rec.violate("%s destroyed twice", o.kind)
		return
	}
	o.destroyed = true
	o.rec.live[o.kind]--
	o.rec.record("destroy %s", o.kind)
}

// Window is a fake native window.
type Window struct {
	Width, Height int
}

// DrawableSize implements gpu.Window.
func (w *Window) DrawableSize() (int, int) {
	return w.Width, w.Height
}

// Instance is a fake gpu.Instance.
type Instance struct {
	*Recorder

	Devices []*PhysicalDevice

	destroyed bool
}

// NewInstance returns an instance exposing the given physical devices.
func NewInstance(devices ...*PhysicalDevice) *Instance {
	rec := newRecorder()
	for _, d := range devices {
		d.rec = rec
	}
	return &Instance{Recorder: rec, Devices: devices}
}

// PhysicalDevices implements gpu.Instance.
func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	devices := make([]gpu.PhysicalDevice, len(i.Devices))
	for n, d := range i.Devices {
		devices[n] = d
	}
	return devices, nil
}

// CreateSurface implements gpu.Instance.
func (i *Instance) CreateSurface(win gpu.Window) (gpu.Surface, error) {
	return &Surface{object: newObject(i.Recorder, "surface"), Window: win}, nil
}

// Destroy implements gpu.Destroyer.
func (i *Instance) Destroy() {
	if i.destroyed {
		i.violate("instance destroyed twice")
		return
	}
	i.destroyed = true
	if i.live["device"] > 0 || i.live["surface"] > 0 {
		i.violate("instance destroyed with live children")
	}
	i.record("destroy instance")
}

// Surface is a fake gpu.Surface.
type Surface struct {
	object
	Window gpu.Window

	swapchains int
}

// Destroy implements gpu.Destroyer.
func (s *Surface) Destroy() {
	if s.swapchains > 0 {
		s.rec.violate("surface destroyed before its swapchain")
	}
	s.release()
}

// PhysicalDevice is a fake gpu.PhysicalDevice. Its exported fields may be
// changed freely between calls.
type PhysicalDevice struct {
	rec *Recorder

	Props    gpu.DeviceProperties
	Families []gpu.QueueFamily

	// Present reports, per family, whether presentation is supported.
	Present []bool

	ExtensionNames []string
	Support        gpu.SwapchainSupport
	Memory         []core1_0.MemoryType

	// Device is the last logical device created from this one.
	Device *Device
}

// Memory type indices used by NewPhysicalDevice.
const (
	MemoryDeviceLocal = 0
	MemoryHostVisible = 1
)

// NewPhysicalDevice returns a device with one graphics and presentation
// family of four queues, the swapchain extension, a single
// BGRA8 sRGB format, FIFO and mailbox present modes, a minimum of two
// images and two memory types (device local, then host visible and
// coherent).
func NewPhysicalDevice(name string, typ gpu.DeviceType) *PhysicalDevice {
	return &PhysicalDevice{
		Props: gpu.DeviceProperties{
			Name:              name,
			Type:              typ,
			DeviceID:          0x1234,
			APIVersion:        common.Vulkan1_2,
			PipelineCacheUUID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		},
		Families: []gpu.QueueFamily{
			{Flags: core1_0.QueueGraphics, Count: 4},
		},
		Present:        []bool{true},
		ExtensionNames: []string{khr_swapchain.ExtensionName},
		Support: gpu.SwapchainSupport{
			Capabilities: &khr_surface.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
				MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
			},
			Formats: []khr_surface.SurfaceFormat{
				{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
			},
			PresentModes: []khr_surface.PresentMode{
				khr_surface.PresentModeFIFO,
				khr_surface.PresentModeMailbox,
			},
		},
		Memory: []core1_0.MemoryType{
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
		},
	}
}

// Properties implements gpu.PhysicalDevice.
func (p *PhysicalDevice) Properties() (*gpu.DeviceProperties, error) {
	props := p.Props
	return &props, nil
}

// QueueFamilies implements gpu.PhysicalDevice.
func (p *PhysicalDevice) QueueFamilies() []gpu.QueueFamily {
	return append([]gpu.QueueFamily(nil), p.Families...)
}

// SurfaceSupport implements gpu.PhysicalDevice.
func (p *PhysicalDevice) SurfaceSupport(surface gpu.Surface, family int) (bool, error) {
	if family < 0 || family >= len(p.Present) {
		return false, nil
	}
	return p.Present[family], nil
}

// Extensions implements gpu.PhysicalDevice.
func (p *PhysicalDevice) Extensions() (map[string]struct{}, error) {
	return gpu.NameSet(p.ExtensionNames...), nil
}

// SwapchainSupport implements gpu.PhysicalDevice. The returned value is a
// copy.
func (p *PhysicalDevice) SwapchainSupport(surface gpu.Surface) (*gpu.SwapchainSupport, error) {
	support := gpu.SwapchainSupport{
		Formats:      append([]khr_surface.SurfaceFormat(nil), p.Support.Formats...),
		PresentModes: append([]khr_surface.PresentMode(nil), p.Support.PresentModes...),
	}
	if p.Support.Capabilities != nil {
		caps := *p.Support.Capabilities
		support.Capabilities = &caps
	}
	return &support, nil
}

// MemoryTypes implements gpu.PhysicalDevice.
func (p *PhysicalDevice) MemoryTypes() []core1_0.MemoryType {
	return append([]core1_0.MemoryType(nil), p.Memory...)
}

// CreateDevice implements gpu.PhysicalDevice.
func (p *PhysicalDevice) CreateDevice(info gpu.DeviceCreateInfo) (gpu.Device, error) {
	d := &Device{
		object:   newObject(p.rec, "device"),
		Info:     info,
		physical: p,
		queues:   make(map[[2]int]*Queue),
	}
	p.Device = d
	return d, nil
}
