// Package vk implements the gpu interfaces on top of vkngwrapper and SDL2.
package vk

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/jarmungular/engine/gpu"
)

// Window adapts an SDL window created with sdl.WINDOW_VULKAN.
type Window struct {
	*sdl.Window
}

// DrawableSize implements gpu.Window.
func (w Window) DrawableSize() (int, int) {
	width, height := w.VulkanGetDrawableSize()
	return int(width), int(height)
}

// InstanceOptions selects what the instance enables on top of the
// extensions SDL needs for presentation.
type InstanceOptions struct {
	ApplicationName string
	Extensions      []string

	// Validation enables the layers below and a debug messenger that
	// forwards warnings and errors to the log.
	Validation bool
	Layers     []string
}

// Instance is a Vulkan instance with the surface extension loaded.
type Instance struct {
	driver           core1_0.CoreInstanceDriver
	surfaceExtension khr_surface.ExtensionDriver

	debugDriver    ext_debug_utils.ExtensionDriver
	debugMessenger ext_debug_utils.DebugUtilsMessenger
}

// NewInstance loads Vulkan through SDL and creates an instance able to
// present to window.
func NewInstance(window Window, opts InstanceOptions) (*Instance, error) {
	globalDriver, err := core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         opts.ApplicationName,
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := globalDriver.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate instance extensions")
	}
	available := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		available[name] = struct{}{}
	}

	required := append(window.VulkanGetInstanceExtensions(), opts.Extensions...)
	if opts.Validation {
		required = append(required, ext_debug_utils.ExtensionName)
	}
	err = gpu.RequireNames("instance extension", available, required)
	if err != nil {
		return nil, err
	}
	instanceOptions.EnabledExtensionNames = required

	_, enumerationSupported := available[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if opts.Validation {
		layers, _, err := globalDriver.AvailableLayers()
		if err != nil {
			return nil, errors.Wrap(err, "enumerate instance layers")
		}
		availableLayers := make(map[string]struct{}, len(layers))
		for name := range layers {
			availableLayers[name] = struct{}{}
		}
		err = gpu.RequireNames("layer", availableLayers, opts.Layers)
		if err != nil {
			return nil, errors.WithHint(err, "install the LunarG Vulkan SDK")
		}
		instanceOptions.EnabledLayerNames = opts.Layers
		instanceOptions.Next = debugMessengerOptions()
	}
	log.Printf("Instance extensions: %v", instanceOptions.EnabledExtensionNames)

	instance := &Instance{}
	instance.driver, _, err = globalDriver.CreateInstance(nil, instanceOptions)
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}
	instance.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(instance.driver)

	if opts.Validation {
		instance.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(instance.driver)
		instance.debugMessenger, _, err = instance.debugDriver.CreateDebugUtilsMessenger(nil, debugMessengerOptions())
		if err != nil {
			instance.Destroy()
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}
	return instance, nil
}

func debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDebug,
	}
}

func logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] - %s", severity, msgType, data.Message)
	return false
}

// PhysicalDevices implements gpu.Instance.
func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	handles, _, err := i.driver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	devices := make([]gpu.PhysicalDevice, 0, len(handles))
	for _, handle := range handles {
		devices = append(devices, &PhysicalDevice{instance: i, handle: handle})
	}
	return devices, nil
}

// CreateSurface implements gpu.Instance. win must be a Window.
func (i *Instance) CreateSurface(win gpu.Window) (gpu.Surface, error) {
	window, ok := win.(Window)
	if !ok {
		return nil, errors.Newf("cannot create a surface for %T", win)
	}

	handle, err := vkng_sdl2.CreateSurface(i.driver.Instance(), i.surfaceExtension, window.Window)
	if err != nil {
		return nil, errors.Wrap(err, "create surface")
	}
	return &Surface{instance: i, handle: handle}, nil
}

// Destroy implements gpu.Destroyer. Every surface and device must be
// destroyed first.
func (i *Instance) Destroy() {
	if i.debugMessenger.Initialized() {
		i.debugDriver.DestroyDebugUtilsMessenger(i.debugMessenger, nil)
	}
	i.driver.DestroyInstance(nil)
}

// Surface is a khr_surface.Surface.
type Surface struct {
	instance *Instance
	handle   khr_surface.Surface
}

// Destroy implements gpu.Destroyer.
func (s *Surface) Destroy() {
	s.instance.surfaceExtension.DestroySurface(s.handle, nil)
}
