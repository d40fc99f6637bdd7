package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/jarmungular/engine/gpu"
)

// FindMemoryType returns the first memory type allowed by typeBits whose
// property flags include all of properties.
func FindMemoryType(types []core1_0.MemoryType, typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range types {
		typeBit := uint32(1 << i)

		if (typeBits&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Wrapf(gpu.ErrNoMemoryType, "type bits %#b, properties %v", typeBits, properties)
}

// DeviceBuffer is a buffer bound at offset 0 to its own allocation.
type DeviceBuffer struct {
	Buffer gpu.Buffer
	Memory gpu.Memory
	Size   int
}

// Destroy destroys the buffer, then frees its memory.
func (b *DeviceBuffer) Destroy() {
	b.Buffer.Destroy()
	b.Memory.Destroy()
}

// VertexBuffer is a device-local buffer of encoded vertices.
type VertexBuffer struct {
	DeviceBuffer
	Count int
}

// Transfer creates buffers and copies between them on the graphics queue.
// Copies block until the device has finished them.
type Transfer struct {
	device      gpu.Device
	memoryTypes []core1_0.MemoryType
	queue       gpu.Queue
	pool        gpu.CommandPool
}

func NewTransfer(ctx *DeviceContext) (*Transfer, error) {
	pool, err := ctx.Device.CreateCommandPool(gpu.CommandPoolInfo{
		Family:    ctx.Families.Graphics,
		Transient: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create transfer command pool")
	}

	return &Transfer{
		device:      ctx.Device,
		memoryTypes: ctx.Physical.MemoryTypes(),
		queue:       ctx.GraphicsQueue,
		pool:        pool,
	}, nil
}

// CreateBuffer creates an exclusive buffer of size bytes and binds it to
// fresh memory of a type with the given properties. The allocation is
// sized by the buffer's real requirements, which may exceed size.
func (t *Transfer) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*DeviceBuffer, error) {
	buffer, err := t.device.CreateBuffer(size, usage)
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}

	memRequirements := buffer.MemoryRequirements()
	memoryTypeIndex, err := FindMemoryType(t.memoryTypes, memRequirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy()
		return nil, err
	}

	memory, err := t.device.AllocateMemory(memRequirements.Size, memoryTypeIndex)
	if err != nil {
		buffer.Destroy()
		return nil, errors.Wrap(err, "allocate buffer memory")
	}

	err = buffer.BindMemory(memory, 0)
	if err != nil {
		buffer.Destroy()
		memory.Destroy()
		return nil, errors.Wrap(err, "bind buffer memory")
	}

	return &DeviceBuffer{Buffer: buffer, Memory: memory, Size: size}, nil
}

// CopyBuffer copies size bytes from src to dst with a one-shot command
// buffer and waits on a dedicated fence for the copy to finish.
func (t *Transfer) CopyBuffer(src, dst gpu.Buffer, size int) error {
	buffer, err := t.pool.AllocateCommandBuffer()
	if err != nil {
		return errors.Wrap(err, "allocate copy command buffer")
	}
	defer buffer.Free()

	err = buffer.Begin(true)
	if err != nil {
		return errors.Wrap(err, "begin copy command buffer")
	}

	err = buffer.CopyBuffer(src, dst, size)
	if err != nil {
		return errors.Wrap(err, "record buffer copy")
	}

	err = buffer.End()
	if err != nil {
		return errors.Wrap(err, "end copy command buffer")
	}

	fence, err := t.device.CreateFence(false)
	if err != nil {
		return errors.Wrap(err, "create copy fence")
	}
	defer fence.Destroy()

	err = t.queue.Submit(gpu.SubmitInfo{CommandBuffers: []gpu.CommandBuffer{buffer}}, fence)
	if err != nil {
		return errors.Wrap(err, "submit buffer copy")
	}

	return errors.Wrap(fence.Wait(), "wait for buffer copy")
}

// Upload creates a device-local buffer holding data. The data goes
// through a host-visible, host-coherent staging buffer that is destroyed
// once the copy completes.
func (t *Transfer) Upload(data []byte, usage core1_0.BufferUsageFlags) (*DeviceBuffer, error) {
	size := len(data)
	if size == 0 {
		return nil, errors.New("upload of empty buffer")
	}

	staging, err := t.CreateBuffer(size, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}
	defer staging.Destroy()

	mapped, err := staging.Memory.Map(0, size)
	if err != nil {
		return nil, errors.Wrap(err, "map staging buffer")
	}
	copy(mapped, data)
	staging.Memory.Unmap()

	final, err := t.CreateBuffer(size, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	err = t.CopyBuffer(staging.Buffer, final.Buffer, size)
	if err != nil {
		final.Destroy()
		return nil, err
	}
	return final, nil
}

// UploadVertices uploads vertices into a device-local vertex buffer.
func (t *Transfer) UploadVertices(vertices []Vertex) (*VertexBuffer, error) {
	data, err := EncodeVertices(vertices)
	if err != nil {
		return nil, errors.Wrap(err, "encode vertices")
	}

	buffer, err := t.Upload(data, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return nil, errors.Wrap(err, "upload vertices")
	}
	return &VertexBuffer{DeviceBuffer: *buffer, Count: len(vertices)}, nil
}

// Destroy destroys the transfer command pool.
func (t *Transfer) Destroy() {
	t.pool.Destroy()
}
