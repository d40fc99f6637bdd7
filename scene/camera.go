// Package scene holds the first-person camera, the player entity and the
// mesh the engine draws.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera defaults.
const (
	FovY = 0.7
	Near = 1
	Far  = 10000
)

// Up is the camera's up vector. World y grows downwards on screen.
var Up = mgl32.Vec3{0, -1, 0}

// Camera is a right-handed first-person camera projecting depth onto
// [0, 1].
type Camera struct {
	pos mgl32.Vec3
	dir mgl32.Vec3

	FovY   float32
	Aspect float32
	Near   float32
	Far    float32

	// Sensitivity is the view rotation in degrees per mouse count.
	Sensitivity float32

	view       mgl32.Mat4
	projection mgl32.Mat4
	render     mgl32.Mat4
}

// NewCamera returns a camera at pos looking at target. If target equals
// pos the camera looks along +x.
func NewCamera(pos, target mgl32.Vec3, aspect, sensitivity float32) *Camera {
	c := &Camera{
		pos:         pos,
		dir:         normalizeOr(target.Sub(pos), mgl32.Vec3{1, 0, 0}),
		FovY:        FovY,
		Aspect:      aspect,
		Near:        Near,
		Far:         Far,
		Sensitivity: sensitivity,
	}
	c.update()
	return c
}

func normalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return fallback
	}
	return v.Mul(1 / l)
}

// LookTo is the right-handed view matrix of an eye at pos facing dir.
func LookTo(pos, dir, up mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(pos, pos.Add(dir), up)
}

// Perspective is a right-handed perspective projection mapping the view
// volume between near and far onto depth [0, 1]. mgl32.Perspective maps
// onto [-1, 1] instead.
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	h := float32(1 / math.Tan(float64(fovY)/2))
	w := h / aspect
	r := far / (near - far)

	return mgl32.Mat4{
		w, 0, 0, 0,
		0, h, 0, 0,
		0, 0, r, -1,
		0, 0, r * near, 0,
	}
}

func (c *Camera) update() {
	c.view = LookTo(c.pos, c.dir, Up)
	c.projection = Perspective(c.FovY, c.Aspect, c.Near, c.Far)
	c.render = c.projection.Mul4(c.view)
}

// Pos returns the eye position.
func (c *Camera) Pos() mgl32.Vec3 {
	return c.pos
}

// SetPos moves the eye.
func (c *Camera) SetPos(pos mgl32.Vec3) {
	c.pos = pos
	c.update()
}

// Dir returns the normalized view direction.
func (c *Camera) Dir() mgl32.Vec3 {
	return c.dir
}

// Forward returns the view direction projected onto the ground plane and
// normalized. It is zero when looking straight up or down.
func (c *Camera) Forward() mgl32.Vec3 {
	return normalizeOr(mgl32.Vec3{c.dir.X(), 0, c.dir.Z()}, mgl32.Vec3{})
}

// RotateView turns the camera by a mouse motion of x, y counts. Vertical
// motion rotates about the x axis before horizontal motion rotates about
// the y axis.
func (c *Camera) RotateView(x, y float32) {
	xAngle := mgl32.DegToRad(y * c.Sensitivity)
	yAngle := mgl32.DegToRad(x * c.Sensitivity)

	rotation := mgl32.Rotate3DY(yAngle).Mul3(mgl32.Rotate3DX(xAngle))
	c.dir = normalizeOr(rotation.Mul3x1(c.dir), c.dir)
	c.update()
}

// Resize updates the aspect ratio for a drawable of width × height. Zero
// sizes are ignored.
func (c *Camera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
	c.update()
}

// View returns the view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return c.view
}

// Projection returns the projection matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return c.projection
}

// RenderMatrix returns projection × view.
func (c *Camera) RenderMatrix() mgl32.Mat4 {
	return c.render
}
