package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(FovY, 16.0/9.0, Near, Far)

	tests := []struct {
		name  string
		z     float32
		depth float32
	}{
		{"near plane", -Near, 0},
		{"far plane", -Far, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clip := p.Mul4x1(mgl32.Vec4{0, 0, tc.z, 1})
			depth := clip.Z() / clip.W()
			if !mgl32.FloatEqualThreshold(depth, tc.depth, eps) {
				t.Errorf("depth = %v, want %v", depth, tc.depth)
			}
		})
	}
}

func TestLookToMatchesLookAt(t *testing.T) {
	pos := mgl32.Vec3{1, 2, 3}
	dir := mgl32.Vec3{0, 0, -1}

	got := LookTo(pos, dir, Up)
	want := mgl32.LookAtV(pos, mgl32.Vec3{1, 2, 2}, Up)
	if !got.ApproxEqualThreshold(want, eps) {
		t.Errorf("LookTo = %v, want %v", got, want)
	}

	eye := got.Mul4x1(pos.Vec4(1))
	if !eye.Vec3().ApproxEqualThreshold(mgl32.Vec3{}, eps) {
		t.Errorf("eye maps to %v, want origin", eye)
	}
}

func TestNewCameraDirection(t *testing.T) {
	tests := []struct {
		name   string
		target mgl32.Vec3
		dir    mgl32.Vec3
	}{
		{"towards target", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{"target at eye", mgl32.Vec3{0, 0, 10}, mgl32.Vec3{1, 0, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCamera(mgl32.Vec3{0, 0, 10}, tc.target, 1, 1)
			if !c.Dir().ApproxEqualThreshold(tc.dir, eps) {
				t.Errorf("Dir = %v, want %v", c.Dir(), tc.dir)
			}
		})
	}
}

func TestRotateView(t *testing.T) {
	tests := []struct {
		name string
		x, y float32
		dir  mgl32.Vec3
	}{
		{"no motion", 0, 0, mgl32.Vec3{0, 0, -1}},
		{"horizontal", 90, 0, mgl32.Vec3{-1, 0, 0}},
		{"vertical", 0, 90, mgl32.Vec3{0, 1, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 1, 1)
			c.RotateView(tc.x, tc.y)
			if !c.Dir().ApproxEqualThreshold(tc.dir, eps) {
				t.Errorf("Dir = %v, want %v", c.Dir(), tc.dir)
			}
		})
	}
}

func TestRotateViewSensitivity(t *testing.T) {
	c := NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 1, 0.04)
	for i := 0; i < 100; i++ {
		c.RotateView(22.5, 0)
	}
	// 100 × 22.5 counts × 0.04°/count = 90°.
	if !c.Dir().ApproxEqualThreshold(mgl32.Vec3{-1, 0, 0}, eps) {
		t.Errorf("Dir = %v after 90 degrees", c.Dir())
	}
	if l := c.Dir().Len(); !mgl32.FloatEqualThreshold(l, 1, eps) {
		t.Errorf("|Dir| = %v", l)
	}
}

func TestForward(t *testing.T) {
	c := NewCamera(mgl32.Vec3{}, mgl32.Vec3{3, 4, 0}, 1, 1)
	if !c.Forward().ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, eps) {
		t.Errorf("Forward = %v", c.Forward())
	}

	c = NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 5, 0}, 1, 1)
	if c.Forward() != (mgl32.Vec3{}) {
		t.Errorf("Forward looking straight up = %v", c.Forward())
	}
}

func TestResize(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 20}, mgl32.Vec3{0, 100, 0}, 1280.0/720.0, 0.04)
	before := c.RenderMatrix()

	c.Resize(0, 600)
	if c.RenderMatrix() != before {
		t.Error("zero width changed the projection")
	}

	c.Resize(800, 800)
	if c.Aspect != 1 {
		t.Errorf("Aspect = %v, want 1", c.Aspect)
	}
	want := Perspective(FovY, 1, Near, Far).Mul4(c.View())
	if !c.RenderMatrix().ApproxEqualThreshold(want, eps) {
		t.Errorf("RenderMatrix = %v, want %v", c.RenderMatrix(), want)
	}
}

func TestMoveGrounded(t *testing.T) {
	p := NewPlayer(mgl32.Vec3{})

	p.MoveGrounded(mgl32.Vec3{0, 0, 5})
	if !p.Vel.ApproxEqualThreshold(mgl32.Vec3{0, 0, 0.15}, eps) {
		t.Fatalf("kickoff Vel = %v, want 0.15", p.Vel)
	}

	p.MoveGrounded(mgl32.Vec3{0, 0, 1})
	if !p.Vel.ApproxEqualThreshold(mgl32.Vec3{0, 0, 0.25}, eps) {
		t.Fatalf("Vel = %v, want 0.25", p.Vel)
	}

	for i := 0; i < 20; i++ {
		p.MoveGrounded(mgl32.Vec3{1, 0, 0})
	}
	if l := p.Vel.Len(); !mgl32.FloatEqualThreshold(l, p.Move.MaxSpeed, eps) {
		t.Errorf("|Vel| = %v, want capped at %v", l, p.Move.MaxSpeed)
	}

	p = NewPlayer(mgl32.Vec3{})
	p.MoveGrounded(mgl32.Vec3{})
	if p.Vel != (mgl32.Vec3{}) {
		t.Errorf("zero direction gave Vel = %v", p.Vel)
	}
}

func TestPlayerUpdate(t *testing.T) {
	tests := []struct {
		name     string
		pos, vel mgl32.Vec3
		wantPos  mgl32.Vec3
		wantVel  mgl32.Vec3
	}{
		{
			name:    "friction then motion",
			vel:     mgl32.Vec3{0.15, 0, 0},
			wantPos: mgl32.Vec3{0.132, 0, 0},
			wantVel: mgl32.Vec3{0.132, 0, 0},
		},
		{
			name:    "slow stops",
			pos:     mgl32.Vec3{1, 0, 1},
			vel:     mgl32.Vec3{0.01, 0, 0.01},
			wantPos: mgl32.Vec3{1, 0, 1},
		},
		{
			name:    "ground clamp",
			pos:     mgl32.Vec3{0, 0.5, 0},
			vel:     mgl32.Vec3{0, -1, 0},
			wantPos: mgl32.Vec3{0, 0, 0},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlayer(tc.pos)
			p.Vel = tc.vel
			p.Update()
			if !p.Pos.ApproxEqualThreshold(tc.wantPos, eps) {
				t.Errorf("Pos = %v, want %v", p.Pos, tc.wantPos)
			}
			if !p.Vel.ApproxEqualThreshold(tc.wantVel, eps) {
				t.Errorf("Vel = %v, want %v", p.Vel, tc.wantVel)
			}
		})
	}
}

func TestSceneUpdate(t *testing.T) {
	s := New(1280.0/720.0, 0.04)
	if !s.Camera.Pos().ApproxEqualThreshold(mgl32.Vec3{0, 0, 20}, eps) {
		t.Fatalf("camera starts at %v", s.Camera.Pos())
	}
	if len(s.Mesh) != 3 {
		t.Fatalf("mesh has %d vertices", len(s.Mesh))
	}

	s.EyeHeight = 2
	s.Player.Vel = mgl32.Vec3{1, 0, 0}
	s.Update()

	want := mgl32.Vec3{1 - 0.018, 2, 20}
	if !s.Camera.Pos().ApproxEqualThreshold(want, eps) {
		t.Errorf("camera at %v, want %v", s.Camera.Pos(), want)
	}
	if s.RenderMatrix() != s.Camera.RenderMatrix() {
		t.Error("scene render matrix differs from camera")
	}
}
