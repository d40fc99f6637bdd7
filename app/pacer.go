package app

import (
	"log"
	"time"

	"github.com/loov/hrtime"
)

// Pacer holds a loop to a fixed frame rate by sleeping off whatever is
// left of each frame.
type Pacer struct {
	FPS   float64
	Frame time.Duration

	Now   func() time.Duration
	Sleep func(time.Duration)
}

// NewPacer returns a pacer for fps frames per second on the
// high-resolution clock.
func NewPacer(fps float64) *Pacer {
	return &Pacer{
		FPS:   fps,
		Frame: time.Duration(float64(time.Second) / fps),
		Now:   hrtime.Now,
		Sleep: time.Sleep,
	}
}

// Start marks the beginning of a frame.
func (p *Pacer) Start() time.Duration {
	return p.Now()
}

// Finish sleeps until one frame after start. It reports false, and sleeps
// nothing, when the frame already overran.
func (p *Pacer) Finish(start time.Duration) bool {
	elapsed := p.Now() - start
	if elapsed >= p.Frame {
		log.Printf("Skipped frame at %v fps", p.FPS)
		return false
	}
	p.Sleep(p.Frame - elapsed)
	return true
}
