package gputest

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/jarmungular/engine/gpu"
)

// Device is a fake gpu.Device.
type Device struct {
	object

	Info gpu.DeviceCreateInfo

	// AcquireErrors and PresentErrors are returned, one per call and in
	// order, by Swapchain.AcquireNextImage and Queue.Present.
	AcquireErrors []error
	PresentErrors []error

	// Swapchain is the last swapchain created.
	Swapchain *Swapchain

	// Pipeline is the last pipeline info passed to CreateGraphicsPipeline.
	Pipeline *gpu.PipelineInfo

	// RenderPass is the last render pass info passed to CreateRenderPass.
	RenderPass *core1_0.RenderPassCreateInfo

	// PushConstants is the last range list passed to CreatePipelineLayout.
	PushConstants []gpu.PushConstantRange

	physical *PhysicalDevice
	queues   map[[2]int]*Queue
	fences   []*Fence
}

// Destroy implements gpu.Destroyer.
func (d *Device) Destroy() {
	for kind, n := range d.rec.live {
		if kind != "device" && kind != "surface" && n > 0 {
			d.rec.violate("device destroyed with %d live %s", n, kind)
		}
	}
	d.release()
}

// Queue implements gpu.Device.
func (d *Device) Queue(family, index int) gpu.Queue {
	key := [2]int{family, index}
	q, ok := d.queues[key]
	if !ok {
		requested := false
		for _, qi := range d.Info.Queues {
			if qi.Family == family && index < len(qi.Priorities) {
				requested = true
			}
		}
		if !requested {
			d.rec.violate("queue %d/%d was not requested", family, index)
		}
		q = &Queue{dev: d, Family: family}
		d.queues[key] = q
	}
	return q
}

// WaitIdle implements gpu.Device. All pending work completes.
func (d *Device) WaitIdle() error {
	d.rec.record("wait idle")
	d.complete()
	return nil
}

func (d *Device) complete() {
	for _, f := range d.fences {
		if f.pending {
			f.pending = false
			f.signaled = true
		}
	}
}

func (d *Device) inFlight() bool {
	for _, f := range d.fences {
		if f.pending && !f.destroyed {
			return true
		}
	}
	return false
}

// CreateSwapchain implements gpu.Device. The fake presentation engine
// creates exactly MinImageCount images.
func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	surface, ok := info.Surface.(*Surface)
	if !ok || surface.destroyed {
		return nil, errors.New("gputest: swapchain on invalid surface")
	}
	if info.MinImageCount <= 0 {
		return nil, errors.Newf("gputest: invalid image count %d", info.MinImageCount)
	}
	if info.Extent.Width <= 0 || info.Extent.Height <= 0 {
		return nil, errors.Newf("gputest: invalid extent %dx%d", info.Extent.Width, info.Extent.Height)
	}
	s := &Swapchain{object: newObject(d.rec, "swapchain"), dev: d, surface: surface, Info: info}
	for i := 0; i < info.MinImageCount; i++ {
		s.images = append(s.images, &Image{Swapchain: s, Index: i})
	}
	surface.swapchains++
	d.Swapchain = s
	return s, nil
}

// CreateImageView implements gpu.Device.
func (d *Device) CreateImageView(image gpu.Image, format core1_0.Format) (gpu.ImageView, error) {
	img, ok := image.(*Image)
	if !ok || img.Swapchain.destroyed {
		return nil, errors.New("gputest: view of invalid image")
	}
	img.views++
	return &ImageView{object: newObject(d.rec, "image view"), Image: img, Format: format}, nil
}

// CreateRenderPass implements gpu.Device.
func (d *Device) CreateRenderPass(info core1_0.RenderPassCreateInfo) (gpu.RenderPass, error) {
	d.RenderPass = &info
	return &handle{object: newObject(d.rec, "render pass")}, nil
}

// CreateFramebuffer implements gpu.Device.
func (d *Device) CreateFramebuffer(renderPass gpu.RenderPass, view gpu.ImageView, extent core1_0.Extent2D) (gpu.Framebuffer, error) {
	v, ok := view.(*ImageView)
	if !ok || v.destroyed {
		return nil, errors.New("gputest: framebuffer on invalid view")
	}
	v.framebuffers++
	return &Framebuffer{object: newObject(d.rec, "framebuffer"), View: v, Extent: extent}, nil
}

// CreateShaderModule implements gpu.Device.
func (d *Device) CreateShaderModule(code []byte) (gpu.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("gputest: invalid shader code size %d", len(code))
	}
	return &handle{object: newObject(d.rec, "shader module")}, nil
}

// CreatePipelineLayout implements gpu.Device.
func (d *Device) CreatePipelineLayout(pushConstants []gpu.PushConstantRange) (gpu.PipelineLayout, error) {
	d.PushConstants = append([]gpu.PushConstantRange(nil), pushConstants...)
	return &handle{object: newObject(d.rec, "pipeline layout")}, nil
}

// CreateGraphicsPipeline implements gpu.Device.
func (d *Device) CreateGraphicsPipeline(info gpu.PipelineInfo) (gpu.Pipeline, error) {
	for _, m := range []gpu.ShaderModule{info.VertexShader, info.FragmentShader} {
		h, ok := m.(*handle)
		if !ok || h.destroyed {
			return nil, errors.New("gputest: pipeline with invalid shader module")
		}
	}
	d.Pipeline = &info
	return &handle{object: newObject(d.rec, "pipeline")}, nil
}

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(size int, usage core1_0.BufferUsageFlags) (gpu.Buffer, error) {
	if size <= 0 {
		return nil, errors.Newf("gputest: invalid buffer size %d", size)
	}
	return &Buffer{
		object: newObject(d.rec, "buffer"),
		Size:   size,
		Usage:  usage,
		types:  uint32(1)<<len(d.physical.Memory) - 1,
	}, nil
}

// AllocateMemory implements gpu.Device.
func (d *Device) AllocateMemory(size, memoryTypeIndex int) (gpu.Memory, error) {
	if memoryTypeIndex < 0 || memoryTypeIndex >= len(d.physical.Memory) {
		return nil, errors.Newf("gputest: invalid memory type %d", memoryTypeIndex)
	}
	return &Memory{
		object: newObject(d.rec, "memory"),
		Type:   memoryTypeIndex,
		Data:   make([]byte, size),
	}, nil
}

// CreateCommandPool implements gpu.Device.
func (d *Device) CreateCommandPool(info gpu.CommandPoolInfo) (gpu.CommandPool, error) {
	return &CommandPool{object: newObject(d.rec, "command pool"), Info: info}, nil
}

// CreateSemaphore implements gpu.Device.
func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	return &Semaphore{object: newObject(d.rec, "semaphore")}, nil
}

// CreateFence implements gpu.Device.
func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	f := &Fence{object: newObject(d.rec, "fence"), signaled: signaled}
	d.fences = append(d.fences, f)
	return f, nil
}

type handle struct {
	object
}

func (h *handle) Destroy() {
	h.release()
}

// Swapchain is a fake gpu.Swapchain.
type Swapchain struct {
	object

	Info gpu.SwapchainCreateInfo

	dev     *Device
	surface *Surface
	images  []*Image
	next    int
}

// ImageCount returns the number of images in the swapchain.
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// Destroy implements gpu.Destroyer.
func (s *Swapchain) Destroy() {
	for _, img := range s.images {
		if img.views > 0 {
			s.rec.violate("swapchain destroyed before its image views")
			break
		}
	}
	if s.dev.inFlight() {
		s.rec.violate("swapchain destroyed while a frame is in flight")
	}
	if !s.destroyed {
		s.surface.swapchains--
	}
	s.release()
}

// Images implements gpu.Swapchain.
func (s *Swapchain) Images() ([]gpu.Image, error) {
	images := make([]gpu.Image, len(s.images))
	for i, img := range s.images {
		images[i] = img
	}
	return images, nil
}

// AcquireNextImage implements gpu.Swapchain. Images are handed out in
// round-robin order.
func (s *Swapchain) AcquireNextImage(signal gpu.Semaphore) (int, error) {
	s.rec.record("acquire")
	if s.destroyed {
		s.rec.violate("acquire on destroyed swapchain")
	}
	if len(s.dev.AcquireErrors) > 0 {
		err := s.dev.AcquireErrors[0]
		s.dev.AcquireErrors = s.dev.AcquireErrors[1:]
		if err != nil {
			return 0, err
		}
	}
	sem := signal.(*Semaphore)
	if sem.signaled {
		s.rec.violate("acquire signals a semaphore that is already signaled")
	}
	sem.signaled = true
	index := s.next
	s.next = (s.next + 1) % len(s.images)
	return index, nil
}

// Image is a fake swapchain image.
type Image struct {
	Swapchain *Swapchain
	Index     int

	views int
}

// ImageView is a fake gpu.ImageView.
type ImageView struct {
	object

	Image  *Image
	Format core1_0.Format

	framebuffers int
}

// Destroy implements gpu.Destroyer.
func (v *ImageView) Destroy() {
	if v.framebuffers > 0 {
		v.rec.violate("image view destroyed before its framebuffer")
	}
	if !v.destroyed {
		v.Image.views--
	}
	v.release()
}

// Framebuffer is a fake gpu.Framebuffer.
type Framebuffer struct {
	object

	View   *ImageView
	Extent core1_0.Extent2D
}

// Destroy implements gpu.Destroyer.
func (f *Framebuffer) Destroy() {
	if !f.destroyed {
		f.View.framebuffers--
	}
	f.release()
}

// Buffer is a fake gpu.Buffer.
type Buffer struct {
	object

	Size   int
	Usage  core1_0.BufferUsageFlags
	Memory *Memory

	types uint32
}

// MemoryRequirements implements gpu.Buffer. Sizes are rounded up to
// 256 bytes.
func (b *Buffer) MemoryRequirements() gpu.MemoryRequirements {
	return gpu.MemoryRequirements{
		Size:           (b.Size + 255) &^ 255,
		Alignment:      256,
		MemoryTypeBits: b.types,
	}
}

// BindMemory implements gpu.Buffer.
func (b *Buffer) BindMemory(memory gpu.Memory, offset int) error {
	m := memory.(*Memory)
	if b.Memory != nil {
		return errors.New("gputest: buffer memory bound twice")
	}
	if offset+b.Size > len(m.Data) {
		return errors.New("gputest: buffer exceeds its memory")
	}
	b.Memory = m
	m.buffers++
	return nil
}

// Bytes returns the contents of the buffer.
func (b *Buffer) Bytes() []byte {
	if b.Memory == nil {
		return nil
	}
	return b.Memory.Data[:b.Size]
}

// Destroy implements gpu.Destroyer.
func (b *Buffer) Destroy() {
	if !b.destroyed && b.Memory != nil {
		b.Memory.buffers--
	}
	b.release()
}

// Memory is a fake gpu.Memory backed by a byte slice.
type Memory struct {
	object

	Type int
	Data []byte

	mapped  bool
	buffers int
}

// Map implements gpu.Memory.
func (m *Memory) Map(offset, size int) ([]byte, error) {
	if m.mapped {
		return nil, errors.New("gputest: memory mapped twice")
	}
	if offset < 0 || offset+size > len(m.Data) {
		return nil, errors.Newf("gputest: map range %d+%d out of bounds", offset, size)
	}
	m.mapped = true
	return m.Data[offset : offset+size], nil
}

// Unmap implements gpu.Memory.
func (m *Memory) Unmap() {
	if !m.mapped {
		m.rec.violate("unmap of unmapped memory")
	}
	m.mapped = false
}

// Destroy implements gpu.Destroyer.
func (m *Memory) Destroy() {
	if m.buffers > 0 {
		m.rec.violate("memory freed before its buffer")
	}
	m.release()
}
