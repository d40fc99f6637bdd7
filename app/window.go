package app

import (
	"log"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/jarmungular/engine/gpu/vk"
)

// SDLWindow is the SDL window as seen by controls and the renderer.
type SDLWindow struct {
	vk.Window
}

// SetCursorCaptured switches relative mouse mode, which hides the cursor
// and keeps it inside the window.
func (w SDLWindow) SetCursorCaptured(captured bool) {
	sdl.SetRelativeMouseMode(captured)
}

// Close queues a quit event for the app to pick up.
func (w SDLWindow) Close() {
	_, err := sdl.PushEvent(&sdl.QuitEvent{Type: sdl.QUIT})
	if err != nil {
		log.Printf("push quit event: %+v", err)
	}
}
