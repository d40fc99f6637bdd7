// Package controls turns SDL input events into camera and player motion.
// Events are queued as they arrive and applied once per frame.
package controls

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/jarmungular/engine/scene"
)

// Vertical eye speeds in units per frame.
const (
	EyeSpeed       = 0.2
	SprintEyeSpeed = 0.8
)

// Window is what controls may change about the window.
type Window interface {
	// SetCursorCaptured hides and confines the cursor, or releases it.
	SetCursorCaptured(captured bool)
	Close()
}

// Queues collects the input of one frame and tracks held keys and
// buttons across frames.
type Queues struct {
	keys    []sdl.KeyboardEvent
	buttons []sdl.MouseButtonEvent
	motion  []sdl.MouseMotionEvent

	held        map[sdl.Keycode]bool
	heldButtons map[uint8]bool

	midi uint8
}

// NewQueues returns empty queues with nothing held.
func NewQueues() *Queues {
	return &Queues{
		held:        make(map[sdl.Keycode]bool),
		heldButtons: make(map[uint8]bool),
	}
}

// Push queues event if it is input, and reports whether it was. Repeated
// key presses are dropped.
func (q *Queues) Push(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return true
		}
		q.keys = append(q.keys, *e)
	case *sdl.MouseButtonEvent:
		q.buttons = append(q.buttons, *e)
	case *sdl.MouseMotionEvent:
		q.motion = append(q.motion, *e)
	default:
		return false
	}
	return true
}

// Clear empties the per-frame queues. Held keys are kept.
func (q *Queues) Clear() {
	q.keys = q.keys[:0]
	q.buttons = q.buttons[:0]
	q.motion = q.motion[:0]
}

// Held reports whether key is down.
func (q *Queues) Held(key sdl.Keycode) bool {
	return q.held[key]
}

// HeldButton reports whether a mouse button is down.
func (q *Queues) HeldButton(button uint8) bool {
	return q.heldButtons[button]
}

// Execute applies the queued events of this frame, then everything that
// repeats while held.
func (q *Queues) Execute(s *scene.Scene, win Window) {
	q.executeKeys(win)
	q.executeButtons(win)
	q.executeMotion(s)
	q.executeHolds(s)
}

func (q *Queues) executeKeys(win Window) {
	for _, e := range q.keys {
		key := e.Keysym.Sym
		switch e.State {
		case sdl.PRESSED:
			q.held[key] = true
		case sdl.RELEASED:
			delete(q.held, key)
		}

		if e.State != sdl.PRESSED {
			continue
		}
		switch key {
		case sdl.K_ESCAPE:
			log.Printf("Escape pressed, stopping")
			win.Close()
		case sdl.K_F1:
			err := WriteMidiPreset(log.Writer())
			if err != nil {
				log.Printf("%+v", err)
			}
		}
	}
}

func (q *Queues) executeButtons(win Window) {
	for _, e := range q.buttons {
		switch e.State {
		case sdl.PRESSED:
			q.heldButtons[e.Button] = true
		case sdl.RELEASED:
			delete(q.heldButtons, e.Button)
		}

		if e.State != sdl.PRESSED {
			continue
		}
		switch e.Button {
		case sdl.BUTTON_RIGHT:
			win.SetCursorCaptured(false)
		case sdl.BUTTON_LEFT:
			win.SetCursorCaptured(true)
		}
	}
}

func (q *Queues) executeMotion(s *scene.Scene) {
	for _, e := range q.motion {
		s.Camera.RotateView(float32(e.XRel), -float32(e.YRel))
	}
}

// Ground directions relative to the camera heading, by key.
var headings = []struct {
	key   sdl.Keycode
	angle float32
}{
	{sdl.K_w, 0},
	{sdl.K_a, math.Pi / 2},
	{sdl.K_s, math.Pi},
	{sdl.K_d, 3 * math.Pi / 2},
}

func (q *Queues) executeHolds(s *scene.Scene) {
	speed := float32(EyeSpeed)
	if q.held[sdl.K_LSHIFT] || q.held[sdl.K_RSHIFT] {
		speed = SprintEyeSpeed
	}

	forward := s.Camera.Forward()
	for _, h := range headings {
		if q.held[h.key] {
			dir := mgl32.Rotate3DY(h.angle).Mul3x1(forward)
			s.Player.MoveGrounded(mgl32.Vec3{dir.X(), 0, dir.Z()})
		}
	}

	if q.held[sdl.K_SPACE] {
		s.EyeHeight += speed
	}
	if q.held[sdl.K_LCTRL] || q.held[sdl.K_RCTRL] {
		s.EyeHeight -= speed
	}

	midi := q.MidiValue()
	if midi != q.midi {
		log.Printf("MIDI value %d", midi)
		q.midi = midi
	}
}
