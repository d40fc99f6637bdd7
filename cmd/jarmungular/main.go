package main

import (
	"context"
	"log"
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/jarmungular/engine/app"
	"github.com/jarmungular/engine/assets"
	"github.com/jarmungular/engine/gpu/vk"
	"github.com/jarmungular/engine/render"
)

func setIcon(window *sdl.Window, icon assets.Icon) error {
	surface, err := sdl.CreateRGBSurfaceFrom(unsafe.Pointer(&icon.Pixels[0]),
		int32(icon.Width), int32(icon.Height), 32, icon.Width*4,
		0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000)
	if err != nil {
		return errors.Wrap(err, "create icon surface")
	}
	defer surface.Free()

	window.SetIcon(surface)
	return nil
}

func run() error {
	loaded, err := assets.Load(context.Background())
	if err != nil {
		return err
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "init SDL")
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(app.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		app.Width, app.Height, sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	defer window.Destroy()

	err = setIcon(window, loaded.Icon)
	if err != nil {
		return err
	}

	cfg := render.DefaultConfig()
	win := app.SDLWindow{Window: vk.Window{Window: window}}

	instance, err := vk.NewInstance(win.Window, vk.InstanceOptions{
		ApplicationName: cfg.ApplicationName,
		Extensions:      cfg.InstanceExtensions,
		Validation:      cfg.Validation,
		Layers:          cfg.ValidationLayers,
	})
	if err != nil {
		return err
	}
	defer instance.Destroy()

	engine := app.New()
	renderer, err := render.New(instance, win.Window, cfg, loaded.Shaders, engine.Scene.Mesh)
	if err != nil {
		return err
	}

	err = engine.Resume(win, renderer)
	if err != nil {
		renderer.Destroy()
		return err
	}
	defer engine.Suspend()

	win.SetCursorCaptured(true)
	return engine.Run()
}

func main() {
	runtime.LockOSThread()

	err := run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
