package gputest

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/jarmungular/engine/gpu"
)

// Queue is a fake gpu.Queue.
type Queue struct {
	dev    *Device
	Family int
}

// Submit implements gpu.Queue. Copies recorded in the submitted command
// buffers are carried out immediately.
func (q *Queue) Submit(info gpu.SubmitInfo, fence gpu.Fence) error {
	rec := q.dev.rec
	rec.record("submit")
	if q.dev.inFlight() {
		rec.violate("submit while a previous submission is in flight")
	}
	if len(info.WaitStages) != len(info.WaitSemaphores) {
		return errors.New("gputest: wait stage count mismatch")
	}
	for _, s := range info.WaitSemaphores {
		sem := s.(*Semaphore)
		if !sem.signaled {
			rec.violate("submit waits on a semaphore that is never signaled")
		}
		sem.signaled = false
	}
	for _, c := range info.CommandBuffers {
		buf := c.(*CommandBuffer)
		if buf.state != stateExecutable {
			rec.violate("submit of a command buffer that is not executable")
		}
		for _, cp := range buf.copies {
			copy(cp.dst.Memory.Data[:cp.size], cp.src.Memory.Data[:cp.size])
		}
		buf.Submissions++
	}
	for _, s := range info.SignalSemaphores {
		s.(*Semaphore).signaled = true
	}
	if fence != nil {
		f := fence.(*Fence)
		if f.signaled {
			rec.violate("submit with a fence that is still signaled")
		}
		f.pending = true
	}
	return nil
}

// Present implements gpu.Queue.
func (q *Queue) Present(info gpu.PresentInfo) error {
	rec := q.dev.rec
	rec.record("present %d", info.ImageIndex)
	for _, s := range info.WaitSemaphores {
		sem := s.(*Semaphore)
		if !sem.signaled {
			rec.violate("present waits on a semaphore that is never signaled")
		}
		sem.signaled = false
	}
	sc := info.Swapchain.(*Swapchain)
	if sc.destroyed {
		rec.violate("present on destroyed swapchain")
	}
	if info.ImageIndex < 0 || info.ImageIndex >= len(sc.images) {
		return errors.Newf("gputest: present of image %d out of range", info.ImageIndex)
	}
	if len(q.dev.PresentErrors) > 0 {
		err := q.dev.PresentErrors[0]
		q.dev.PresentErrors = q.dev.PresentErrors[1:]
		return err
	}
	return nil
}

// WaitIdle implements gpu.Queue.
func (q *Queue) WaitIdle() error {
	q.dev.rec.record("queue wait idle")
	q.dev.complete()
	return nil
}

// Semaphore is a fake gpu.Semaphore.
type Semaphore struct {
	object

	signaled bool
}

// Destroy implements gpu.Destroyer.
func (s *Semaphore) Destroy() {
	s.release()
}

// Fence is a fake gpu.Fence. Submitted work completes when Wait is called.
type Fence struct {
	object

	signaled bool
	pending  bool
}

// Signaled reports whether the fence is signaled.
func (f *Fence) Signaled() bool {
	return f.signaled
}

// Wait implements gpu.Fence.
func (f *Fence) Wait() error {
	f.rec.record("wait fence")
	if f.pending {
		f.pending = false
		f.signaled = true
	}
	if !f.signaled {
		f.rec.violate("wait on a fence that will never be signaled")
		return errors.New("gputest: deadlock")
	}
	return nil
}

// Reset implements gpu.Fence.
func (f *Fence) Reset() error {
	f.rec.record("reset fence")
	if f.pending {
		f.rec.violate("reset of a fence with pending work")
	}
	f.signaled = false
	return nil
}

// Destroy implements gpu.Destroyer.
func (f *Fence) Destroy() {
	if f.pending {
		f.rec.violate("fence destroyed with pending work")
	}
	f.release()
}

// CommandPool is a fake gpu.CommandPool.
type CommandPool struct {
	object

	Info gpu.CommandPoolInfo

	buffers int
}

// AllocateCommandBuffer implements gpu.CommandPool.
func (p *CommandPool) AllocateCommandBuffer() (gpu.CommandBuffer, error) {
	p.buffers++
	return &CommandBuffer{object: newObject(p.rec, "command buffer"), pool: p}, nil
}

// Destroy implements gpu.Destroyer. Buffers still allocated from the pool
// are released with it.
func (p *CommandPool) Destroy() {
	p.rec.live["command buffer"] -= p.buffers
	p.buffers = 0
	p.release()
}

type commandBufferState int

const (
	stateInitial commandBufferState = iota
	stateRecording
	stateExecutable
)

type bufferCopy struct {
	src, dst *Buffer
	size     int
}

// CommandBuffer is a fake gpu.CommandBuffer. Recorded commands are kept as
// text in Commands until the next Reset or Begin.
type CommandBuffer struct {
	object

	Commands    []string
	Submissions int

	// State captured from the last recording.
	Framebuffer gpu.Framebuffer
	ClearColor  [4]float32
	PushData    []byte
	Viewport    core1_0.Viewport
	Scissor     core1_0.Rect2D
	VertexCount int

	pool   *CommandPool
	state  commandBufferState
	copies []bufferCopy
}

func (c *CommandBuffer) cmd(format string, args ...any) {
	if c.state != stateRecording {
		c.rec.violate("command %q outside recording", fmt.Sprintf(format, args...))
	}
	c.Commands = append(c.Commands, fmt.Sprintf(format, args...))
}

// Free implements gpu.CommandBuffer.
func (c *CommandBuffer) Free() {
	if !c.destroyed {
		c.pool.buffers--
	}
	c.release()
}

// Reset implements gpu.CommandBuffer.
func (c *CommandBuffer) Reset() error {
	if !c.pool.Info.ResetCommandBuffer {
		return errors.New("gputest: pool does not allow individual reset")
	}
	c.rec.record("reset command buffer")
	c.state = stateInitial
	c.Commands = nil
	c.copies = nil
	return nil
}

// Begin implements gpu.CommandBuffer.
func (c *CommandBuffer) Begin(oneTimeSubmit bool) error {
	if c.state == stateExecutable && !c.pool.Info.ResetCommandBuffer {
		return errors.New("gputest: implicit reset not allowed by pool")
	}
	c.rec.record("begin command buffer")
	c.state = stateRecording
	c.Commands = nil
	c.copies = nil
	return nil
}

// End implements gpu.CommandBuffer.
func (c *CommandBuffer) End() error {
	if c.state != stateRecording {
		return errors.New("gputest: end outside recording")
	}
	c.rec.record("end command buffer")
	c.state = stateExecutable
	return nil
}

// BeginRenderPass implements gpu.CommandBuffer.
func (c *CommandBuffer) BeginRenderPass(info gpu.RenderPassBeginInfo) error {
	c.cmd("begin render pass")
	c.Framebuffer = info.Framebuffer
	c.ClearColor = info.ClearColor
	return nil
}

// EndRenderPass implements gpu.CommandBuffer.
func (c *CommandBuffer) EndRenderPass() {
	c.cmd("end render pass")
}

// BindPipeline implements gpu.CommandBuffer.
func (c *CommandBuffer) BindPipeline(pipeline gpu.Pipeline) {
	c.cmd("bind pipeline")
}

// BindVertexBuffer implements gpu.CommandBuffer.
func (c *CommandBuffer) BindVertexBuffer(buffer gpu.Buffer, offset int) {
	c.cmd("bind vertex buffer %d", offset)
}

// PushConstants implements gpu.CommandBuffer.
func (c *CommandBuffer) PushConstants(layout gpu.PipelineLayout, stages core1_0.ShaderStageFlags, offset int, data []byte) error {
	c.cmd("push constants %d+%d", offset, len(data))
	c.PushData = append([]byte(nil), data...)
	return nil
}

// SetViewport implements gpu.CommandBuffer.
func (c *CommandBuffer) SetViewport(viewport core1_0.Viewport) {
	c.cmd("set viewport")
	c.Viewport = viewport
}

// SetScissor implements gpu.CommandBuffer.
func (c *CommandBuffer) SetScissor(scissor core1_0.Rect2D) {
	c.cmd("set scissor")
	c.Scissor = scissor
}

// Draw implements gpu.CommandBuffer.
func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	c.cmd("draw %d %d", vertexCount, instanceCount)
	c.VertexCount = vertexCount
}

// CopyBuffer implements gpu.CommandBuffer.
func (c *CommandBuffer) CopyBuffer(src, dst gpu.Buffer, size int) error {
	c.cmd("copy buffer %d", size)
	s, d := src.(*Buffer), dst.(*Buffer)
	if s.Memory == nil || d.Memory == nil {
		return errors.New("gputest: copy between unbound buffers")
	}
	if size > s.Size || size > d.Size {
		return errors.Newf("gputest: copy of %d bytes exceeds buffer size", size)
	}
	c.copies = append(c.copies, bufferCopy{src: s, dst: d, size: size})
	return nil
}
