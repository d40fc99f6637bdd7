package scene

import "github.com/go-gl/mathgl/mgl32"

// MoveConstants tune grounded movement. Velocities are in units per
// update.
type MoveConstants struct {
	Accel float32
	// Kickoff multiplies Accel when starting from a standstill.
	Kickoff  float32
	MaxSpeed float32
	Friction float32
}

// DefaultMoveConstants returns the movement the engine ships with.
func DefaultMoveConstants() MoveConstants {
	return MoveConstants{
		Accel:    0.1,
		Kickoff:  1.5,
		MaxSpeed: 1.0,
		Friction: 0.018,
	}
}

// Player is an entity walking on the y = 0 ground plane.
type Player struct {
	Pos mgl32.Vec3
	Vel mgl32.Vec3

	Move MoveConstants
}

// NewPlayer returns a player standing still at pos.
func NewPlayer(pos mgl32.Vec3) *Player {
	return &Player{Pos: pos, Move: DefaultMoveConstants()}
}

// MoveGrounded accelerates the player along dir. Only the direction of dir
// matters.
func (p *Player) MoveGrounded(dir mgl32.Vec3) {
	dir = normalizeOr(dir, mgl32.Vec3{})

	accel := p.Move.Accel
	if p.Vel.LenSqr() == 0 {
		accel *= p.Move.Kickoff
	}
	p.Vel = p.Vel.Add(dir.Mul(accel))

	if p.Vel.LenSqr() > p.Move.MaxSpeed*p.Move.MaxSpeed {
		p.Vel = normalizeOr(p.Vel, mgl32.Vec3{}).Mul(p.Move.MaxSpeed)
	}
}

// Update advances the player one step: friction, then motion, then the
// ground clamp.
func (p *Player) Update() {
	if p.Vel.LenSqr() > p.Move.Friction*p.Move.Friction {
		p.Vel = p.Vel.Sub(normalizeOr(p.Vel, mgl32.Vec3{}).Mul(p.Move.Friction))
	} else {
		p.Vel = mgl32.Vec3{}
	}

	p.Pos = p.Pos.Add(p.Vel)

	if p.Pos.Y() < 0 {
		p.Pos[1] = 0
		p.Vel[1] = 0
	}
}
