package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/jarmungular/engine/render"
)

// TestTriangle is the mesh drawn by the engine.
var TestTriangle = []render.Vertex{
	{Position: mgl32.Vec4{0, 100, 0, 1}, Color: mgl32.Vec3{1, 0, 0}},
	{Position: mgl32.Vec4{5, -5, 0, 1}, Color: mgl32.Vec3{0, 1, 0}},
	{Position: mgl32.Vec4{-5, -5, 0, 1}, Color: mgl32.Vec3{0, 0, 1}},
}

var (
	startPos    = mgl32.Vec3{0, 0, 20}
	startTarget = mgl32.Vec3{0, 100, 0}
)

// Scene is everything updated once per frame.
type Scene struct {
	Camera *Camera
	Player *Player

	// EyeHeight offsets the camera from the player along y.
	EyeHeight float32

	Mesh []render.Vertex
}

// New returns the starting scene for a drawable with the given aspect
// ratio.
func New(aspect, sensitivity float32) *Scene {
	return &Scene{
		Camera: NewCamera(startPos, startTarget, aspect, sensitivity),
		Player: NewPlayer(startPos),
		Mesh:   TestTriangle,
	}
}

// Update steps the player and puts the camera at its eye.
func (s *Scene) Update() {
	s.Player.Update()
	s.Camera.SetPos(s.Player.Pos.Add(mgl32.Vec3{0, s.EyeHeight, 0}))
}

// RenderMatrix returns the camera's view-projection transform.
func (s *Scene) RenderMatrix() mgl32.Mat4 {
	return s.Camera.RenderMatrix()
}
