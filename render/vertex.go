package render

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Vertex is the vertex record read by the pipeline: a homogeneous
// position followed by an RGB color, tightly packed.
type Vertex struct {
	Position mgl32.Vec4
	Color    mgl32.Vec3
}

// VertexSize is the size of an encoded Vertex in bytes.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

func vertexBindingDescriptions() []core1_0.VertexInputBindingDescription {
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    VertexSize,
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

func vertexAttributeDescriptions() []core1_0.VertexInputAttributeDescription {
	v := Vertex{}
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32A32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
	}
}

// EncodeVertices lays out vertices exactly as the vertex buffer expects.
func EncodeVertices(vertices []Vertex) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(vertices)*VertexSize))
	err := binary.Write(buf, common.ByteOrder, vertices)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
