package render

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/jarmungular/engine/gpu"
)

// QueueFamilies holds the resolved graphics and present families.
type QueueFamilies struct {
	Graphics int
	Present  int
}

// Unique returns the distinct families, graphics first.
func (f QueueFamilies) Unique() []int {
	if f.Graphics == f.Present {
		return []int{f.Graphics}
	}
	return []int{f.Graphics, f.Present}
}

// FindQueueFamilies picks the graphics family with the most queues and a
// present family, preferring the graphics family itself. ok is false if
// either cannot be resolved.
func FindQueueFamilies(device gpu.PhysicalDevice, surface gpu.Surface) (families QueueFamilies, ok bool, err error) {
	graphics, present := -1, -1
	mostQueues := 0

	queueFamilies := device.QueueFamilies()
	for i, family := range queueFamilies {
		if family.Flags&core1_0.QueueGraphics != 0 && family.Count > mostQueues {
			graphics = i
			mostQueues = family.Count
		}
	}

	if graphics >= 0 {
		supported, err := device.SurfaceSupport(surface, graphics)
		if err != nil {
			return families, false, errors.Wrap(err, "query surface support")
		}
		if supported {
			present = graphics
		}
	}

	for i := 0; present < 0 && i < len(queueFamilies); i++ {
		supported, err := device.SurfaceSupport(surface, i)
		if err != nil {
			return families, false, errors.Wrap(err, "query surface support")
		}
		if supported {
			present = i
		}
	}

	if graphics < 0 || present < 0 {
		return families, false, nil
	}
	return QueueFamilies{Graphics: graphics, Present: present}, true, nil
}

// ScoreDevice rates a physical device for rendering to surface.
// Discrete GPUs score 10 and integrated GPUs 5. The score is 0 if the
// device lacks graphics or present queues, any required extension, or
// any surface format or present mode.
func ScoreDevice(device gpu.PhysicalDevice, surface gpu.Surface, extensions []string) (int, QueueFamilies, error) {
	props, err := device.Properties()
	if err != nil {
		return 0, QueueFamilies{}, errors.Wrap(err, "query device properties")
	}

	score := 0
	switch props.Type {
	case gpu.DeviceTypeDiscrete:
		score += 10
	case gpu.DeviceTypeIntegrated:
		score += 5
	}

	families, ok, err := FindQueueFamilies(device, surface)
	if err != nil {
		return 0, families, err
	}
	if !ok {
		return 0, families, nil
	}

	available, err := device.Extensions()
	if err != nil {
		return 0, families, errors.Wrap(err, "enumerate device extensions")
	}
	if len(gpu.MissingNames(available, extensions)) > 0 {
		return 0, families, nil
	}

	support, err := device.SwapchainSupport(surface)
	if err != nil {
		return 0, families, errors.Wrap(err, "query swapchain support")
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return 0, families, nil
	}

	return score, families, nil
}

// PickPhysicalDevice returns the highest scoring device. It fails with
// gpu.ErrNoSuitableDevice if every device scores 0.
func PickPhysicalDevice(instance gpu.Instance, surface gpu.Surface, extensions []string) (gpu.PhysicalDevice, QueueFamilies, error) {
	devices, err := instance.PhysicalDevices()
	if err != nil {
		return nil, QueueFamilies{}, errors.Wrap(err, "enumerate physical devices")
	}

	var best gpu.PhysicalDevice
	var bestFamilies QueueFamilies
	bestScore := 0

	for _, device := range devices {
		score, families, err := ScoreDevice(device, surface, extensions)
		if err != nil {
			return nil, QueueFamilies{}, err
		}
		logDevice(device, score)

		if score > bestScore {
			best, bestFamilies, bestScore = device, families, score
		}
	}

	if best == nil {
		return nil, QueueFamilies{}, errors.Wrapf(gpu.ErrNoSuitableDevice, "%d devices checked", len(devices))
	}
	return best, bestFamilies, nil
}

func logDevice(device gpu.PhysicalDevice, score int) {
	props, err := device.Properties()
	if err != nil {
		return
	}
	log.Printf("Device %q: type %s, id 0x%x, api %v, pipeline cache %s, score %d",
		props.Name, props.Type, props.DeviceID, props.APIVersion, props.PipelineCacheUUID, score)
	for i, family := range device.QueueFamilies() {
		log.Printf("  queue family %d: %d queues, flags %v", i, family.Count, family.Flags)
	}
}

// DeviceContext is a logical device with its graphics and present queues.
type DeviceContext struct {
	Physical gpu.PhysicalDevice
	Device   gpu.Device
	Families QueueFamilies

	GraphicsQueue gpu.Queue
	PresentQueue  gpu.Queue
}

// NewDeviceContext selects a physical device for surface and opens it,
// requesting one queue from each unique family.
func NewDeviceContext(instance gpu.Instance, surface gpu.Surface, cfg Config) (*DeviceContext, error) {
	physical, families, err := PickPhysicalDevice(instance, surface, cfg.DeviceExtensions)
	if err != nil {
		return nil, err
	}

	var queues []gpu.QueueCreateInfo
	for _, family := range families.Unique() {
		queues = append(queues, gpu.QueueCreateInfo{
			Family:     family,
			Priorities: []float32{1.0},
		})
	}

	info := gpu.DeviceCreateInfo{
		Queues:     queues,
		Extensions: cfg.DeviceExtensions,
	}
	if cfg.Validation {
		info.Layers = cfg.ValidationLayers
	}

	device, err := physical.CreateDevice(info)
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}

	return &DeviceContext{
		Physical:      physical,
		Device:        device,
		Families:      families,
		GraphicsQueue: device.Queue(families.Graphics, 0),
		PresentQueue:  device.Queue(families.Present, 0),
	}, nil
}

// Destroy destroys the logical device.
func (c *DeviceContext) Destroy() {
	c.Device.Destroy()
}
