package render

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/jarmungular/engine/gpu"
)

// FrameState is a step of the per-frame protocol.
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameAcquiring
	FrameRecording
	FrameSubmitted
	FramePresenting
	FrameSkipped
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "Idle"
	case FrameAcquiring:
		return "Acquiring"
	case FrameRecording:
		return "Recording"
	case FrameSubmitted:
		return "Submitted"
	case FramePresenting:
		return "Presenting"
	case FrameSkipped:
		return "Skipped"
	}
	return "Unknown"
}

// FrameResult tells the caller what became of a frame.
type FrameResult int

const (
	// FramePresented means the frame was submitted and queued for
	// presentation.
	FramePresented FrameResult = iota

	// FrameZeroSize means the window had a zero dimension and nothing
	// was done.
	FrameZeroSize

	// FrameAcquireOutOfDate means the swapchain was stale on acquire.
	// Nothing was recorded or submitted.
	FrameAcquireOutOfDate

	// FramePresentOutOfDate means the frame was rendered but the
	// swapchain was stale on present.
	FramePresentOutOfDate
)

// Stale reports whether the swapchain must be recreated.
func (r FrameResult) Stale() bool {
	return r == FrameAcquireOutOfDate || r == FramePresentOutOfDate
}

func (r FrameResult) String() string {
	switch r {
	case FramePresented:
		return "Presented"
	case FrameZeroSize:
		return "ZeroSize"
	case FrameAcquireOutOfDate:
		return "AcquireOutOfDate"
	case FramePresentOutOfDate:
		return "PresentOutOfDate"
	}
	return "Unknown"
}

// Frame is what one frame draws.
type Frame struct {
	Swapchain *Swapchain
	Pipeline  *Pipeline
	Vertices  *VertexBuffer

	// Window is the current drawable size.
	Window core1_0.Extent2D

	// RenderMatrix is the combined view-projection transform.
	RenderMatrix mgl32.Mat4
}

// FrameRenderer draws frames with exactly one frame in flight. It owns a
// single command buffer, re-recorded every frame, and one set of
// synchronization objects.
type FrameRenderer struct {
	device        gpu.Device
	graphicsQueue gpu.Queue
	presentQueue  gpu.Queue
	clearColor    [4]float32

	pool    gpu.CommandPool
	command gpu.CommandBuffer

	imageAvailable gpu.Semaphore
	renderFinished gpu.Semaphore
	inFlight       gpu.Fence

	state FrameState
}

// NewFrameRenderer creates the command buffer and the synchronization
// objects. The in-flight fence starts signaled so the first frame does
// not wait.
func NewFrameRenderer(ctx *DeviceContext, clearColor [4]float32) (*FrameRenderer, error) {
	f := &FrameRenderer{
		device:        ctx.Device,
		graphicsQueue: ctx.GraphicsQueue,
		presentQueue:  ctx.PresentQueue,
		clearColor:    clearColor,
	}
	err := f.create(ctx.Families.Graphics)
	if err != nil {
		f.Destroy()
		return nil, err
	}
	return f, nil
}

func (f *FrameRenderer) create(family int) error {
	var err error
	f.pool, err = f.device.CreateCommandPool(gpu.CommandPoolInfo{
		Family:             family,
		ResetCommandBuffer: true,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	f.command, err = f.pool.AllocateCommandBuffer()
	if err != nil {
		return errors.Wrap(err, "allocate command buffer")
	}

	f.imageAvailable, err = f.device.CreateSemaphore()
	if err != nil {
		return errors.Wrap(err, "create image available semaphore")
	}

	f.renderFinished, err = f.device.CreateSemaphore()
	if err != nil {
		return errors.Wrap(err, "create render finished semaphore")
	}

	f.inFlight, err = f.device.CreateFence(true)
	if err != nil {
		return errors.Wrap(err, "create in flight fence")
	}
	return nil
}

// State returns the state the last frame ended in.
func (f *FrameRenderer) State() FrameState {
	return f.state
}

// Draw runs one acquire, record, submit and present cycle. A stale
// swapchain is reported through the result, never as an error; every
// error is fatal.
func (f *FrameRenderer) Draw(frame Frame) (FrameResult, error) {
	if zeroExtent(frame.Window) {
		f.state = FrameIdle
		return FrameZeroSize, nil
	}

	err := f.inFlight.Wait()
	if err != nil {
		return FramePresented, errors.Wrap(err, "wait for in flight fence")
	}

	f.state = FrameAcquiring
	imageIndex, err := frame.Swapchain.Handle.AcquireNextImage(f.imageAvailable)
	if errors.Is(err, gpu.ErrOutOfDate) {
		f.state = FrameSkipped
		return FrameAcquireOutOfDate, nil
	} else if err != nil {
		return FramePresented, errors.Wrap(err, "acquire swapchain image")
	}

	f.state = FrameRecording
	err = f.record(frame, imageIndex)
	if err != nil {
		return FramePresented, err
	}

	err = f.inFlight.Reset()
	if err != nil {
		return FramePresented, errors.Wrap(err, "reset in flight fence")
	}

	err = f.graphicsQueue.Submit(gpu.SubmitInfo{
		CommandBuffers:   []gpu.CommandBuffer{f.command},
		WaitSemaphores:   []gpu.Semaphore{f.imageAvailable},
		WaitStages:       []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
		SignalSemaphores: []gpu.Semaphore{f.renderFinished},
	}, f.inFlight)
	if err != nil {
		return FramePresented, errors.Wrap(err, "submit frame")
	}
	f.state = FrameSubmitted

	f.state = FramePresenting
	err = f.presentQueue.Present(gpu.PresentInfo{
		Swapchain:      frame.Swapchain.Handle,
		ImageIndex:     imageIndex,
		WaitSemaphores: []gpu.Semaphore{f.renderFinished},
	})
	if errors.Is(err, gpu.ErrOutOfDate) {
		f.state = FrameSkipped
		return FramePresentOutOfDate, nil
	} else if err != nil {
		return FramePresented, errors.Wrap(err, "present frame")
	}

	f.state = FrameIdle
	return FramePresented, nil
}

func (f *FrameRenderer) record(frame Frame, imageIndex int) error {
	extent := frame.Swapchain.Extent
	buffer := f.command

	err := buffer.Reset()
	if err != nil {
		return errors.Wrap(err, "reset command buffer")
	}

	err = buffer.Begin(false)
	if err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	err = buffer.BeginRenderPass(gpu.RenderPassBeginInfo{
		RenderPass:  frame.Pipeline.RenderPass,
		Framebuffer: frame.Swapchain.Framebuffers[imageIndex],
		RenderArea: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearColor: f.clearColor,
	})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	buffer.BindPipeline(frame.Pipeline.Handle)
	buffer.BindVertexBuffer(frame.Vertices.Buffer, 0)

	err = buffer.PushConstants(frame.Pipeline.Layout, core1_0.StageVertex, 0, EncodeMatrix(frame.RenderMatrix))
	if err != nil {
		return errors.Wrap(err, "push render matrix")
	}

	buffer.SetViewport(core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	buffer.SetScissor(core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: extent,
	})

	buffer.Draw(frame.Vertices.Count, 1, 0, 0)
	buffer.EndRenderPass()

	return errors.Wrap(buffer.End(), "end command buffer")
}

// Destroy destroys the synchronization objects and the command pool,
// which frees the command buffer. The device must be idle.
func (f *FrameRenderer) Destroy() {
	if f.renderFinished != nil {
		f.renderFinished.Destroy()
	}
	if f.imageAvailable != nil {
		f.imageAvailable.Destroy()
	}
	if f.inFlight != nil {
		f.inFlight.Destroy()
	}
	if f.command != nil {
		f.command.Free()
	}
	if f.pool != nil {
		f.pool.Destroy()
	}
}
