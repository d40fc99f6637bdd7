package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/jarmungular/engine/gpu"
)

// Queue is a core1_0.Queue.
type Queue struct {
	device *Device
	handle core1_0.Queue
}

func semaphoreHandles(semaphores []gpu.Semaphore) []core1_0.Semaphore {
	handles := make([]core1_0.Semaphore, len(semaphores))
	for i, s := range semaphores {
		handles[i] = s.(*Semaphore).handle
	}
	return handles
}

// Submit implements gpu.Queue.
func (q *Queue) Submit(info gpu.SubmitInfo, fence gpu.Fence) error {
	buffers := make([]core1_0.CommandBuffer, len(info.CommandBuffers))
	for i, b := range info.CommandBuffers {
		buffers[i] = b.(*CommandBuffer).handle
	}

	var fenceHandle *core1_0.Fence
	if fence != nil {
		fenceHandle = &fence.(*Fence).handle
	}

	_, err := q.device.driver.QueueSubmit(q.handle, fenceHandle,
		core1_0.SubmitInfo{
			WaitSemaphores:   semaphoreHandles(info.WaitSemaphores),
			WaitDstStageMask: info.WaitStages,
			CommandBuffers:   buffers,
			SignalSemaphores: semaphoreHandles(info.SignalSemaphores),
		},
	)
	return errors.Wrap(err, "queue submit")
}

// Present implements gpu.Queue. A suboptimal swapchain is reported as
// out of date.
func (q *Queue) Present(info gpu.PresentInfo) error {
	res, err := q.device.swapchainExtension.QueuePresent(q.handle, khr_swapchain.PresentInfo{
		WaitSemaphores: semaphoreHandles(info.WaitSemaphores),
		Swapchains:     []khr_swapchain.Swapchain{info.Swapchain.(*Swapchain).handle},
		ImageIndices:   []int{info.ImageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return errors.Wrap(gpu.ErrOutOfDate, "present")
	}
	return errors.Wrap(err, "queue present")
}

// WaitIdle implements gpu.Queue.
func (q *Queue) WaitIdle() error {
	_, err := q.device.driver.QueueWaitIdle(q.handle)
	return errors.Wrap(err, "wait for queue idle")
}

// CreateCommandPool implements gpu.Device.
func (d *Device) CreateCommandPool(info gpu.CommandPoolInfo) (gpu.CommandPool, error) {
	var flags core1_0.CommandPoolCreateFlags
	if info.Transient {
		flags |= core1_0.CommandPoolCreateTransient
	}
	if info.ResetCommandBuffer {
		flags |= core1_0.CommandPoolCreateResetBuffer
	}

	handle, _, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: info.Family,
		Flags:            flags,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create command pool on family %d", info.Family)
	}
	return &CommandPool{device: d, handle: handle}, nil
}

// CreateSemaphore implements gpu.Device.
func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	handle, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}
	return &Semaphore{device: d, handle: handle}, nil
}

// CreateFence implements gpu.Device.
func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}

	handle, _, err := d.driver.CreateFence(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	return &Fence{device: d, handle: handle}, nil
}

// Semaphore is a core1_0.Semaphore.
type Semaphore struct {
	device *Device
	handle core1_0.Semaphore
}

// Destroy implements gpu.Destroyer.
func (s *Semaphore) Destroy() {
	s.device.driver.DestroySemaphore(s.handle, nil)
}

// Fence is a core1_0.Fence.
type Fence struct {
	device *Device
	handle core1_0.Fence
}

// Wait implements gpu.Fence. It blocks without a timeout.
func (f *Fence) Wait() error {
	_, err := f.device.driver.WaitForFences(true, common.NoTimeout, f.handle)
	return errors.Wrap(err, "wait for fence")
}

// Reset implements gpu.Fence.
func (f *Fence) Reset() error {
	_, err := f.device.driver.ResetFences(f.handle)
	return errors.Wrap(err, "reset fence")
}

// Destroy implements gpu.Destroyer.
func (f *Fence) Destroy() {
	f.device.driver.DestroyFence(f.handle, nil)
}

// CommandPool is a core1_0.CommandPool.
type CommandPool struct {
	device *Device
	handle core1_0.CommandPool
}

// AllocateCommandBuffer implements gpu.CommandPool.
func (p *CommandPool) AllocateCommandBuffer() (gpu.CommandBuffer, error) {
	buffers, _, err := p.device.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.handle,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffer")
	}
	return &CommandBuffer{device: p.device, handle: buffers[0]}, nil
}

// Destroy implements gpu.Destroyer. Buffers allocated from the pool are
// freed with it.
func (p *CommandPool) Destroy() {
	p.device.driver.DestroyCommandPool(p.handle, nil)
}

// CommandBuffer is a primary core1_0.CommandBuffer.
type CommandBuffer struct {
	device *Device
	handle core1_0.CommandBuffer
}

// Free implements gpu.CommandBuffer.
func (c *CommandBuffer) Free() {
	c.device.driver.FreeCommandBuffers(c.handle)
}

// Reset implements gpu.CommandBuffer.
func (c *CommandBuffer) Reset() error {
	_, err := c.device.driver.ResetCommandBuffer(c.handle, 0)
	return errors.Wrap(err, "reset command buffer")
}

// Begin implements gpu.CommandBuffer.
func (c *CommandBuffer) Begin(oneTimeSubmit bool) error {
	var info core1_0.CommandBufferBeginInfo
	if oneTimeSubmit {
		info.Flags = core1_0.CommandBufferUsageOneTimeSubmit
	}

	_, err := c.device.driver.BeginCommandBuffer(c.handle, info)
	return errors.Wrap(err, "begin command buffer")
}

// End implements gpu.CommandBuffer.
func (c *CommandBuffer) End() error {
	_, err := c.device.driver.EndCommandBuffer(c.handle)
	return errors.Wrap(err, "end command buffer")
}

// BeginRenderPass implements gpu.CommandBuffer.
func (c *CommandBuffer) BeginRenderPass(info gpu.RenderPassBeginInfo) error {
	return c.device.driver.CmdBeginRenderPass(c.handle, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  info.RenderPass.(*RenderPass).handle,
			Framebuffer: info.Framebuffer.(*Framebuffer).handle,
			RenderArea:  info.RenderArea,
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(info.ClearColor),
			},
		})
}

// EndRenderPass implements gpu.CommandBuffer.
func (c *CommandBuffer) EndRenderPass() {
	c.device.driver.CmdEndRenderPass(c.handle)
}

// BindPipeline implements gpu.CommandBuffer.
func (c *CommandBuffer) BindPipeline(pipeline gpu.Pipeline) {
	c.device.driver.CmdBindPipeline(c.handle, core1_0.PipelineBindPointGraphics, pipeline.(*Pipeline).handle)
}

// BindVertexBuffer implements gpu.CommandBuffer.
func (c *CommandBuffer) BindVertexBuffer(buffer gpu.Buffer, offset int) {
	c.device.driver.CmdBindVertexBuffers(c.handle, 0, []core1_0.Buffer{buffer.(*Buffer).handle}, []int{offset})
}

// PushConstants implements gpu.CommandBuffer.
func (c *CommandBuffer) PushConstants(layout gpu.PipelineLayout, stages core1_0.ShaderStageFlags, offset int, data []byte) error {
	c.device.driver.CmdPushConstants(c.handle, layout.(*PipelineLayout).handle, stages, offset, data)
	return nil
}

// SetViewport implements gpu.CommandBuffer.
func (c *CommandBuffer) SetViewport(viewport core1_0.Viewport) {
	c.device.driver.CmdSetViewport(c.handle, viewport)
}

// SetScissor implements gpu.CommandBuffer.
func (c *CommandBuffer) SetScissor(scissor core1_0.Rect2D) {
	c.device.driver.CmdSetScissor(c.handle, scissor)
}

// Draw implements gpu.CommandBuffer.
func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	c.device.driver.CmdDraw(c.handle, vertexCount, instanceCount, uint32(firstVertex), uint32(firstInstance))
}

// CopyBuffer implements gpu.CommandBuffer.
func (c *CommandBuffer) CopyBuffer(src, dst gpu.Buffer, size int) error {
	return c.device.driver.CmdCopyBuffer(c.handle, src.(*Buffer).handle, dst.(*Buffer).handle,
		core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	)
}
