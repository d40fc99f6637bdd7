// Package gpu defines the graphics backend interfaces the renderer is
// written against.
//
// The interfaces are a thin, Vulkan-shaped layer: every object maps to one
// backend handle and every method to one backend call. Value types such as
// formats, extents and pipeline state come straight from vkngwrapper so
// that no translation is needed in the common case. The Vulkan
// implementation lives in package gpu/vk; package gpu/gputest provides a
// recording fake.
//
// Objects are destroyed explicitly, in the reverse order of their
// creation. Nothing in this package relies on finalizers.
package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// ErrOutOfDate is returned by Swapchain.AcquireNextImage and Queue.Present
// when the swapchain no longer matches its surface and must be rebuilt.
var ErrOutOfDate = errors.New("gpu: swapchain out of date")

// ErrNoSuitableDevice is returned when no physical device can render to
// the target surface.
var ErrNoSuitableDevice = errors.New("gpu: no suitable device")

// ErrNoMemoryType is returned when no memory type satisfies both a
// resource's requirements and the requested properties.
var ErrNoMemoryType = errors.New("gpu: no suitable memory type")

// Destroyer is the interface that wraps the Destroy method.
// Destroy releases the backend handle. It must be called exactly once.
type Destroyer interface {
	Destroy()
}

// Window is the part of the native window the backend needs.
type Window interface {
	// DrawableSize returns the current size of the drawable area,
	// in pixels. Either dimension may be zero (e.g. when minimized).
	DrawableSize() (width, height int)
}

// Instance is the root backend object.
type Instance interface {
	Destroyer

	// PhysicalDevices enumerates the devices visible to the instance.
	PhysicalDevices() ([]PhysicalDevice, error)

	// CreateSurface wraps a native window into a presentable surface.
	CreateSurface(win Window) (Surface, error)
}

// Surface is a presentable surface created from a native window.
type Surface interface {
	Destroyer
}

// DeviceType is the kind of a physical device.
type DeviceType int

// Device types.
const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegrated
	DeviceTypeDiscrete
	DeviceTypeVirtual
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegrated:
		return "IntegratedGPU"
	case DeviceTypeDiscrete:
		return "DiscreteGPU"
	case DeviceTypeVirtual:
		return "VirtualGPU"
	case DeviceTypeCPU:
		return "CPU"
	}
	return "Other"
}

// DeviceProperties describes a physical device.
type DeviceProperties struct {
	Name              string
	Type              DeviceType
	DeviceID          uint32
	APIVersion        common.APIVersion
	PipelineCacheUUID uuid.UUID
}

// QueueFamily describes one queue family of a physical device.
type QueueFamily struct {
	Flags core1_0.QueueFlags
	Count int
}

// SwapchainSupport is what a surface reports for a given physical device.
type SwapchainSupport struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// PhysicalDevice is a device that can be opened as a logical Device.
type PhysicalDevice interface {
	Properties() (*DeviceProperties, error)
	QueueFamilies() []QueueFamily
	SurfaceSupport(surface Surface, family int) (bool, error)
	Extensions() (map[string]struct{}, error)
	SwapchainSupport(surface Surface) (*SwapchainSupport, error)
	MemoryTypes() []core1_0.MemoryType
	CreateDevice(info DeviceCreateInfo) (Device, error)
}

// QueueCreateInfo requests queues from a single family.
type QueueCreateInfo struct {
	Family     int
	Priorities []float32
}

// DeviceCreateInfo describes a logical device.
type DeviceCreateInfo struct {
	Queues     []QueueCreateInfo
	Extensions []string
	Layers     []string
}

// Device is a logical device.
type Device interface {
	Destroyer

	// Queue returns queue index of the given family. The family must
	// have been requested in DeviceCreateInfo.
	Queue(family, index int) Queue

	// WaitIdle blocks until all work submitted to the device completes.
	WaitIdle() error

	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	CreateImageView(image Image, format core1_0.Format) (ImageView, error)
	CreateRenderPass(info core1_0.RenderPassCreateInfo) (RenderPass, error)
	CreateFramebuffer(renderPass RenderPass, view ImageView, extent core1_0.Extent2D) (Framebuffer, error)
	CreateShaderModule(code []byte) (ShaderModule, error)
	CreatePipelineLayout(pushConstants []PushConstantRange) (PipelineLayout, error)
	CreateGraphicsPipeline(info PipelineInfo) (Pipeline, error)
	CreateBuffer(size int, usage core1_0.BufferUsageFlags) (Buffer, error)
	AllocateMemory(size, memoryTypeIndex int) (Memory, error)
	CreateCommandPool(info CommandPoolInfo) (CommandPool, error)
	CreateSemaphore() (Semaphore, error)

	// CreateFence creates a fence, optionally in the signaled state.
	CreateFence(signaled bool) (Fence, error)
}
