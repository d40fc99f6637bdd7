// Package render implements the frame lifecycle of the engine: device
// selection, the swapchain and its recreation, the fixed graphics
// pipeline, vertex upload and the single-frame-in-flight renderer.
package render

import (
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// Config is the static renderer configuration.
type Config struct {
	ApplicationName string

	// PresentModes are tried in order before the built-in fallbacks
	// (mailbox, immediate, FIFO).
	PresentModes []khr_surface.PresentMode

	Validation       bool
	ValidationLayers []string

	// InstanceExtensions are required in addition to those the window
	// system needs.
	InstanceExtensions []string
	DeviceExtensions   []string

	ClearColor [4]float32
}

// DefaultConfig returns the configuration the engine ships with.
func DefaultConfig() Config {
	return Config{
		ApplicationName:  "Jarmungular Engine",
		PresentModes:     []khr_surface.PresentMode{khr_surface.PresentModeMailbox},
		Validation:       false,
		ValidationLayers: []string{"VK_LAYER_KHRONOS_validation"},
		DeviceExtensions: []string{khr_swapchain.ExtensionName},
		ClearColor:       [4]float32{0, 0, 0, 1},
	}
}
