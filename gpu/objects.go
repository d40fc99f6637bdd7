package gpu

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// SwapchainCreateInfo describes a swapchain.
type SwapchainCreateInfo struct {
	Surface       Surface
	MinImageCount int
	Format        khr_surface.SurfaceFormat
	Extent        core1_0.Extent2D
	PresentMode   khr_surface.PresentMode

	// SharingMode is SharingModeConcurrent when QueueFamilies holds
	// more than one family.
	SharingMode   core1_0.SharingMode
	QueueFamilies []int

	// Capabilities are the surface capabilities the swapchain was
	// derived from. The current transform is taken from them.
	Capabilities *khr_surface.SurfaceCapabilities
}

// Swapchain is a chain of presentable images.
type Swapchain interface {
	Destroyer

	// Images returns the presentable images, in presentation-engine order.
	Images() ([]Image, error)

	// AcquireNextImage returns the index of the next image, signaling
	// the semaphore once it is available. It waits without timeout.
	// ErrOutOfDate is returned if the swapchain must be rebuilt.
	AcquireNextImage(signal Semaphore) (int, error)
}

// Image is a presentable image owned by a Swapchain.
// It is released together with its swapchain.
type Image interface{}

// ImageView is a view of an Image.
type ImageView interface {
	Destroyer
}

// RenderPass is a compiled render pass.
type RenderPass interface {
	Destroyer
}

// Framebuffer binds image views to a render pass.
type Framebuffer interface {
	Destroyer
}

// ShaderModule holds shader bytecode.
type ShaderModule interface {
	Destroyer
}

// PushConstantRange is a push-constant block visible to some stages.
type PushConstantRange struct {
	Stages core1_0.ShaderStageFlags
	Offset int
	Size   int
}

// PipelineLayout is a pipeline layout.
type PipelineLayout interface {
	Destroyer
}

// DynamicState is a piece of pipeline state set by command.
type DynamicState int

// Dynamic states.
const (
	DynamicViewport DynamicState = iota
	DynamicScissor
)

// PipelineInfo describes a graphics pipeline with one vertex and one
// fragment stage.
type PipelineInfo struct {
	VertexShader   ShaderModule
	FragmentShader ShaderModule
	EntryPoint     string

	VertexInput   *core1_0.PipelineVertexInputStateCreateInfo
	InputAssembly *core1_0.PipelineInputAssemblyStateCreateInfo
	Rasterization *core1_0.PipelineRasterizationStateCreateInfo
	Multisample   *core1_0.PipelineMultisampleStateCreateInfo
	ColorBlend    *core1_0.PipelineColorBlendStateCreateInfo

	// DepthStencil may be nil, which disables depth and stencil tests.
	DepthStencil *core1_0.PipelineDepthStencilStateCreateInfo

	// Extent sizes the viewport and scissor. Both are ignored when
	// listed in DynamicStates.
	Extent        core1_0.Extent2D
	DynamicStates []DynamicState

	Layout     PipelineLayout
	RenderPass RenderPass
	Subpass    int
}

// Pipeline is a compiled graphics pipeline.
type Pipeline interface {
	Destroyer
}

// MemoryRequirements are the real requirements of a resource.
type MemoryRequirements struct {
	Size           int
	Alignment      int
	MemoryTypeBits uint32
}

// Buffer is a device buffer.
type Buffer interface {
	Destroyer
	MemoryRequirements() MemoryRequirements
	BindMemory(memory Memory, offset int) error
}

// Memory is a device memory allocation. Destroy frees it.
type Memory interface {
	Destroyer

	// Map returns a host view of size bytes starting at offset.
	// The slice is valid until Unmap.
	Map(offset, size int) ([]byte, error)
	Unmap()
}

// CommandPoolInfo describes a command pool.
type CommandPoolInfo struct {
	Family int

	// Transient hints that buffers are short lived.
	Transient bool

	// ResetCommandBuffer allows buffers to be reset individually.
	ResetCommandBuffer bool
}

// CommandPool allocates command buffers.
type CommandPool interface {
	Destroyer
	AllocateCommandBuffer() (CommandBuffer, error)
}

// RenderPassBeginInfo starts a render pass instance.
type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	RenderArea  core1_0.Rect2D
	ClearColor  [4]float32
}

// CommandBuffer is a primary command buffer.
type CommandBuffer interface {
	// Free returns the buffer to its pool.
	Free()

	Reset() error
	Begin(oneTimeSubmit bool) error
	End() error

	BeginRenderPass(info RenderPassBeginInfo) error
	EndRenderPass()
	BindPipeline(pipeline Pipeline)
	BindVertexBuffer(buffer Buffer, offset int)
	PushConstants(layout PipelineLayout, stages core1_0.ShaderStageFlags, offset int, data []byte) error
	SetViewport(viewport core1_0.Viewport)
	SetScissor(scissor core1_0.Rect2D)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance int)
	CopyBuffer(src, dst Buffer, size int) error
}

// Semaphore orders work on the device. It is never waited on by the host.
type Semaphore interface {
	Destroyer
}

// Fence is signaled by the device when a submission completes.
type Fence interface {
	Destroyer

	// Wait blocks until the fence is signaled, without timeout.
	Wait() error

	// Reset returns the fence to the unsignaled state.
	Reset() error
}

// SubmitInfo is a single batch for Queue.Submit.
type SubmitInfo struct {
	CommandBuffers   []CommandBuffer
	WaitSemaphores   []Semaphore
	WaitStages       []core1_0.PipelineStageFlags
	SignalSemaphores []Semaphore
}

// PresentInfo presents one swapchain image.
type PresentInfo struct {
	Swapchain      Swapchain
	ImageIndex     int
	WaitSemaphores []Semaphore
}

// Queue is a device queue.
type Queue interface {
	// Submit submits a batch. fence may be nil.
	Submit(info SubmitInfo, fence Fence) error

	// Present queues an image for presentation.
	// ErrOutOfDate is returned if the swapchain must be rebuilt.
	Present(info PresentInfo) error

	WaitIdle() error
}
