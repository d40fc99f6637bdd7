package vk

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/jarmungular/engine/gpu"
)

// Device is a logical device with the swapchain extension loaded.
type Device struct {
	driver             core1_0.CoreDeviceDriver
	swapchainExtension khr_swapchain.ExtensionDriver
}

// Destroy implements gpu.Destroyer.
func (d *Device) Destroy() {
	d.driver.DestroyDevice(nil)
}

// Queue implements gpu.Device.
func (d *Device) Queue(family, index int) gpu.Queue {
	return &Queue{device: d, handle: d.driver.GetQueue(family, index)}
}

// WaitIdle implements gpu.Device.
func (d *Device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return errors.Wrap(err, "wait for device idle")
}

// CreateSwapchain implements gpu.Device.
func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	handle, _, err := d.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: info.Surface.(*Surface).handle,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      info.Format.Format,
		ImageColorSpace:  info.Format.ColorSpace,
		ImageExtent:      info.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   info.SharingMode,
		QueueFamilyIndices: info.QueueFamilies,

		PreTransform:   info.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    info.PresentMode,
		Clipped:        true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}
	return &Swapchain{device: d, handle: handle}, nil
}

// CreateImageView implements gpu.Device. image must come from
// Swapchain.Images.
func (d *Device) CreateImageView(image gpu.Image, format core1_0.Format) (gpu.ImageView, error) {
	handle, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image.(core1_0.Image),
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image view")
	}
	return &ImageView{device: d, handle: handle}, nil
}

// CreateRenderPass implements gpu.Device.
func (d *Device) CreateRenderPass(info core1_0.RenderPassCreateInfo) (gpu.RenderPass, error) {
	handle, _, err := d.driver.CreateRenderPass(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	return &RenderPass{device: d, handle: handle}, nil
}

// CreateFramebuffer implements gpu.Device.
func (d *Device) CreateFramebuffer(renderPass gpu.RenderPass, view gpu.ImageView, extent core1_0.Extent2D) (gpu.Framebuffer, error) {
	handle, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  renderPass.(*RenderPass).handle,
		Layers:      1,
		Attachments: []core1_0.ImageView{view.(*ImageView).handle},
		Width:       extent.Width,
		Height:      extent.Height,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}
	return &Framebuffer{device: d, handle: handle}, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = common.ByteOrder.Uint32(b[i*4:])
	}
	return byteCode
}

// CreateShaderModule implements gpu.Device.
func (d *Device) CreateShaderModule(code []byte) (gpu.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("shader code of %d bytes is not SPIR-V", len(code))
	}

	handle, _, err := d.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(code),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create shader module")
	}
	return &ShaderModule{device: d, handle: handle}, nil
}

// CreatePipelineLayout implements gpu.Device.
func (d *Device) CreatePipelineLayout(pushConstants []gpu.PushConstantRange) (gpu.PipelineLayout, error) {
	var ranges []core1_0.PushConstantRange
	for _, r := range pushConstants {
		ranges = append(ranges, core1_0.PushConstantRange{
			Stages: r.Stages,
			Offset: r.Offset,
			Size:   r.Size,
		})
	}

	handle, _, err := d.driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		PushConstantRanges: ranges,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}
	return &PipelineLayout{device: d, handle: handle}, nil
}

// CreateGraphicsPipeline implements gpu.Device. The viewport and scissor
// cover info.Extent; list them in info.DynamicStates to set them at draw
// time instead.
func (d *Device) CreateGraphicsPipeline(info gpu.PipelineInfo) (gpu.Pipeline, error) {
	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: info.VertexShader.(*ShaderModule).handle,
		Name:   info.EntryPoint,
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: info.FragmentShader.(*ShaderModule).handle,
		Name:   info.EntryPoint,
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(info.Extent.Width),
				Height:   float32(info.Extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: info.Extent,
			},
		},
	}

	var dynamicState *core1_0.PipelineDynamicStateCreateInfo
	if len(info.DynamicStates) > 0 {
		dynamicState = &core1_0.PipelineDynamicStateCreateInfo{}
		for _, state := range info.DynamicStates {
			switch state {
			case gpu.DynamicViewport:
				dynamicState.DynamicStates = append(dynamicState.DynamicStates, core1_0.DynamicStateViewport)
			case gpu.DynamicScissor:
				dynamicState.DynamicStates = append(dynamicState.DynamicStates, core1_0.DynamicStateScissor)
			}
		}
	}

	pipelines, _, err := d.driver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   info.VertexInput,
			InputAssemblyState: info.InputAssembly,
			ViewportState:      viewport,
			RasterizationState: info.Rasterization,
			MultisampleState:   info.Multisample,
			DepthStencilState:  info.DepthStencil,
			ColorBlendState:    info.ColorBlend,
			DynamicState:       dynamicState,
			Layout:             info.Layout.(*PipelineLayout).handle,
			RenderPass:         info.RenderPass.(*RenderPass).handle,
			Subpass:            info.Subpass,
			BasePipelineIndex:  -1,
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "create graphics pipeline")
	}
	return &Pipeline{device: d, handle: pipelines[0]}, nil
}

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(size int, usage core1_0.BufferUsageFlags) (gpu.Buffer, error) {
	handle, _, err := d.driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}
	return &Buffer{device: d, handle: handle}, nil
}

// AllocateMemory implements gpu.Device.
func (d *Device) AllocateMemory(size, memoryTypeIndex int) (gpu.Memory, error) {
	handle, _, err := d.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d bytes of memory type %d", size, memoryTypeIndex)
	}
	return &Memory{device: d, handle: handle}, nil
}

// Swapchain is a khr_swapchain.Swapchain.
type Swapchain struct {
	device *Device
	handle khr_swapchain.Swapchain
}

// Images implements gpu.Swapchain. Each image is a core1_0.Image.
func (s *Swapchain) Images() ([]gpu.Image, error) {
	handles, _, err := s.device.swapchainExtension.GetSwapchainImages(s.handle)
	if err != nil {
		return nil, errors.Wrap(err, "get swapchain images")
	}

	images := make([]gpu.Image, len(handles))
	for i, handle := range handles {
		images[i] = handle
	}
	return images, nil
}

// AcquireNextImage implements gpu.Swapchain.
func (s *Swapchain) AcquireNextImage(signal gpu.Semaphore) (int, error) {
	semaphore := signal.(*Semaphore).handle
	imageIndex, res, err := s.device.swapchainExtension.AcquireNextImage(s.handle, common.NoTimeout, &semaphore, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, errors.Wrap(gpu.ErrOutOfDate, "acquire")
	} else if err != nil {
		return 0, err
	}
	return imageIndex, nil
}

// Destroy implements gpu.Destroyer.
func (s *Swapchain) Destroy() {
	s.device.swapchainExtension.DestroySwapchain(s.handle, nil)
}

// ImageView is a core1_0.ImageView.
type ImageView struct {
	device *Device
	handle core1_0.ImageView
}

// Destroy implements gpu.Destroyer.
func (v *ImageView) Destroy() {
	v.device.driver.DestroyImageView(v.handle, nil)
}

// RenderPass is a core1_0.RenderPass.
type RenderPass struct {
	device *Device
	handle core1_0.RenderPass
}

// Destroy implements gpu.Destroyer.
func (r *RenderPass) Destroy() {
	r.device.driver.DestroyRenderPass(r.handle, nil)
}

// Framebuffer is a core1_0.Framebuffer.
type Framebuffer struct {
	device *Device
	handle core1_0.Framebuffer
}

// Destroy implements gpu.Destroyer.
func (f *Framebuffer) Destroy() {
	f.device.driver.DestroyFramebuffer(f.handle, nil)
}

// ShaderModule is a core1_0.ShaderModule.
type ShaderModule struct {
	device *Device
	handle core1_0.ShaderModule
}

// Destroy implements gpu.Destroyer.
func (m *ShaderModule) Destroy() {
	m.device.driver.DestroyShaderModule(m.handle, nil)
}

// PipelineLayout is a core1_0.PipelineLayout.
type PipelineLayout struct {
	device *Device
	handle core1_0.PipelineLayout
}

// Destroy implements gpu.Destroyer.
func (l *PipelineLayout) Destroy() {
	l.device.driver.DestroyPipelineLayout(l.handle, nil)
}

// Pipeline is a core1_0.Pipeline.
type Pipeline struct {
	device *Device
	handle core1_0.Pipeline
}

// Destroy implements gpu.Destroyer.
func (p *Pipeline) Destroy() {
	p.device.driver.DestroyPipeline(p.handle, nil)
}

// Buffer is a core1_0.Buffer.
type Buffer struct {
	device *Device
	handle core1_0.Buffer
}

// MemoryRequirements implements gpu.Buffer.
func (b *Buffer) MemoryRequirements() gpu.MemoryRequirements {
	reqs := b.device.driver.GetBufferMemoryRequirements(b.handle)
	return gpu.MemoryRequirements{
		Size:           reqs.Size,
		Alignment:      reqs.Alignment,
		MemoryTypeBits: reqs.MemoryTypeBits,
	}
}

// BindMemory implements gpu.Buffer.
func (b *Buffer) BindMemory(memory gpu.Memory, offset int) error {
	_, err := b.device.driver.BindBufferMemory(b.handle, memory.(*Memory).handle, offset)
	return errors.Wrap(err, "bind buffer memory")
}

// Destroy implements gpu.Destroyer.
func (b *Buffer) Destroy() {
	b.device.driver.DestroyBuffer(b.handle, nil)
}

// Memory is a core1_0.DeviceMemory.
type Memory struct {
	device *Device
	handle core1_0.DeviceMemory
}

// Map implements gpu.Memory. The slice is valid until Unmap.
func (m *Memory) Map(offset, size int) ([]byte, error) {
	ptr, _, err := m.device.driver.MapMemory(m.handle, offset, size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "map memory")
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

// Unmap implements gpu.Memory.
func (m *Memory) Unmap() {
	m.device.driver.UnmapMemory(m.handle)
}

// Destroy implements gpu.Destroyer.
func (m *Memory) Destroy() {
	m.device.driver.FreeMemory(m.handle, nil)
}
