package render

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

// PushConstantSize is the size of the vertex-stage push-constant block:
// one column-major 4x4 float matrix.
const PushConstantSize = 64

// EncodeMatrix packs m into the push-constant layout, little-endian and
// column-major.
func EncodeMatrix(m mgl32.Mat4) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, PushConstantSize))
	// Writes to a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, m)
	return buf.Bytes()
}

// DecodeMatrix is the inverse of EncodeMatrix.
func DecodeMatrix(b []byte) (mgl32.Mat4, error) {
	var m mgl32.Mat4
	if len(b) != PushConstantSize {
		return m, errors.Newf("push constant block is %d bytes, want %d", len(b), PushConstantSize)
	}
	err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &m)
	return m, err
}
