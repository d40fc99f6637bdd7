// Package app runs the engine: it dispatches window events, steps the
// scene and draws one frame per tick at a fixed rate.
package app

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/jarmungular/engine/controls"
	"github.com/jarmungular/engine/render"
	"github.com/jarmungular/engine/scene"
)

const (
	Title  = "Jarmungular Engine"
	Width  = 1280
	Height = 720

	FPS = 240

	// Sensitivity is the mouse-look rate in degrees per count.
	Sensitivity = 0.04
)

// Window is the window frames are drawn into.
type Window interface {
	controls.Window
	DrawableSize() (int, int)
}

// Renderer draws frames. *render.Renderer is the real one.
type Renderer interface {
	DrawFrame(renderMatrix mgl32.Mat4) (render.FrameResult, error)
	Recreate() (bool, error)
	Destroy()
}

type session struct {
	window   Window
	renderer Renderer
}

// App starts suspended. Input is queued while suspended, but nothing is
// drawn until Resume hands it a window and a renderer.
type App struct {
	Scene  *scene.Scene
	Queues *controls.Queues
	Pacer  *Pacer

	// PollEvent returns the next pending event or nil.
	PollEvent func() sdl.Event

	session *session
	closed  bool
}

// New returns a suspended app with the starting scene.
func New() *App {
	return &App{
		Scene:     scene.New(float32(Width)/float32(Height), Sensitivity),
		Queues:    controls.NewQueues(),
		Pacer:     NewPacer(FPS),
		PollEvent: sdl.PollEvent,
	}
}

// Suspended reports whether the app has no renderer.
func (a *App) Suspended() bool {
	return a.session == nil
}

// Closed reports whether the app was asked to stop.
func (a *App) Closed() bool {
	return a.closed
}

// Resume starts drawing into window with renderer. The camera takes the
// window's aspect ratio.
func (a *App) Resume(window Window, renderer Renderer) error {
	if a.session != nil {
		return errors.New("app already resumed")
	}
	a.session = &session{window: window, renderer: renderer}
	a.Scene.Camera.Resize(window.DrawableSize())
	return nil
}

// Suspend destroys the renderer. The window stays with the caller.
func (a *App) Suspend() {
	if a.session == nil {
		return
	}
	a.session.renderer.Destroy()
	a.session = nil
}

// HandleEvent dispatches one window event.
func (a *App) HandleEvent(event sdl.Event) error {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		log.Printf("Quit requested, stopping")
		a.closed = true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			a.closed = true
		case sdl.WINDOWEVENT_RESIZED:
			return a.resize()
		}
	default:
		a.Queues.Push(event)
	}
	return nil
}

// resize rebuilds the swapchain for the window's drawable size and
// matches the camera to it. Zero sizes are left alone.
func (a *App) resize() error {
	if a.session == nil {
		return nil
	}
	width, height := a.session.window.DrawableSize()
	if width <= 0 || height <= 0 {
		return nil
	}

	_, err := a.session.renderer.Recreate()
	if err != nil {
		return err
	}
	a.Scene.Camera.Resize(width, height)
	return nil
}

// Tick runs one frame: controls, scene update and draw. It returns after
// the pacer's frame time.
func (a *App) Tick() error {
	if a.session == nil {
		return errors.New("tick on a suspended app")
	}
	start := a.Pacer.Start()

	a.Queues.Execute(a.Scene, a.session.window)
	a.Queues.Clear()

	a.Scene.Update()

	res, err := a.session.renderer.DrawFrame(a.Scene.RenderMatrix())
	if err != nil {
		return errors.Wrap(err, "draw frame")
	}
	if res.Stale() {
		err = a.resize()
		if err != nil {
			return err
		}
	}

	a.Pacer.Finish(start)
	return nil
}

// Run pumps events and ticks until the app is closed.
func (a *App) Run() error {
	for !a.closed {
		for event := a.PollEvent(); event != nil; event = a.PollEvent() {
			err := a.HandleEvent(event)
			if err != nil {
				return err
			}
		}
		if a.closed {
			break
		}

		err := a.Tick()
		if err != nil {
			return err
		}
	}
	return nil
}
