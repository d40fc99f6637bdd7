package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/jarmungular/engine/gpu"
)

// PhysicalDevice is a core1_0.PhysicalDevice of an Instance.
type PhysicalDevice struct {
	instance *Instance
	handle   core1_0.PhysicalDevice
}

func deviceType(t core1_0.PhysicalDeviceType) gpu.DeviceType {
	switch t {
	case core1_0.PhysicalDeviceTypeIntegratedGPU:
		return gpu.DeviceTypeIntegrated
	case core1_0.PhysicalDeviceTypeDiscreteGPU:
		return gpu.DeviceTypeDiscrete
	case core1_0.PhysicalDeviceTypeVirtualGPU:
		return gpu.DeviceTypeVirtual
	case core1_0.PhysicalDeviceTypeCPU:
		return gpu.DeviceTypeCPU
	}
	return gpu.DeviceTypeOther
}

// Properties implements gpu.PhysicalDevice.
func (p *PhysicalDevice) Properties() (*gpu.DeviceProperties, error) {
	props, err := p.instance.driver.GetPhysicalDeviceProperties(p.handle)
	if err != nil {
		return nil, errors.Wrap(err, "get physical device properties")
	}

	return &gpu.DeviceProperties{
		Name:              props.DriverName,
		Type:              deviceType(props.DriverType),
		DeviceID:          props.DeviceID,
		APIVersion:        props.APIVersion,
		PipelineCacheUUID: props.PipelineCacheUUID,
	}, nil
}

// QueueFamilies implements gpu.PhysicalDevice.
func (p *PhysicalDevice) QueueFamilies() []gpu.QueueFamily {
	props := p.instance.driver.GetPhysicalDeviceQueueFamilyProperties(p.handle)

	families := make([]gpu.QueueFamily, 0, len(props))
	for _, family := range props {
		families = append(families, gpu.QueueFamily{Flags: family.QueueFlags, Count: family.QueueCount})
	}
	return families
}

// SurfaceSupport implements gpu.PhysicalDevice.
func (p *PhysicalDevice) SurfaceSupport(surface gpu.Surface, family int) (bool, error) {
	supported, _, err := p.instance.surfaceExtension.GetPhysicalDeviceSurfaceSupport(surface.(*Surface).handle, p.handle, family)
	if err != nil {
		return false, errors.Wrapf(err, "query presentation support of family %d", family)
	}
	return supported, nil
}

// Extensions implements gpu.PhysicalDevice.
func (p *PhysicalDevice) Extensions() (map[string]struct{}, error) {
	extensions, _, err := p.instance.driver.EnumerateDeviceExtensionProperties(p.handle)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}

	names := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		names[name] = struct{}{}
	}
	return names, nil
}

// SwapchainSupport implements gpu.PhysicalDevice.
func (p *PhysicalDevice) SwapchainSupport(surface gpu.Surface) (*gpu.SwapchainSupport, error) {
	var details gpu.SwapchainSupport
	var err error

	ext := p.instance.surfaceExtension
	handle := surface.(*Surface).handle

	details.Capabilities, _, err = ext.GetPhysicalDeviceSurfaceCapabilities(handle, p.handle)
	if err != nil {
		return nil, errors.Wrap(err, "get surface capabilities")
	}

	details.Formats, _, err = ext.GetPhysicalDeviceSurfaceFormats(handle, p.handle)
	if err != nil {
		return nil, errors.Wrap(err, "get surface formats")
	}

	details.PresentModes, _, err = ext.GetPhysicalDeviceSurfacePresentModes(handle, p.handle)
	if err != nil {
		return nil, errors.Wrap(err, "get surface present modes")
	}
	return &details, nil
}

// MemoryTypes implements gpu.PhysicalDevice.
func (p *PhysicalDevice) MemoryTypes() []core1_0.MemoryType {
	return p.instance.driver.GetPhysicalDeviceMemoryProperties(p.handle).MemoryTypes
}

// CreateDevice implements gpu.PhysicalDevice. The portability subset
// extension is enabled whenever the device reports it.
func (p *PhysicalDevice) CreateDevice(info gpu.DeviceCreateInfo) (gpu.Device, error) {
	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queue := range info.Queues {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queue.Family,
			QueuePriorities:  queue.Priorities,
		})
	}

	extensionNames := append([]string(nil), info.Extensions...)

	// Required on MoltenVK.
	available, err := p.Extensions()
	if err != nil {
		return nil, err
	}
	_, supported := available[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	driver, _, err := p.instance.driver.CreateDevice(p.handle, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledExtensionNames: extensionNames,
		EnabledLayerNames:     info.Layers,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}

	return &Device{
		driver:             driver,
		swapchainExtension: khr_swapchain.CreateExtensionDriverFromCoreDriver(driver),
	}, nil
}
