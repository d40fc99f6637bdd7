package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/jarmungular/engine/gpu"
)

// preferredFormats are the 8-bit sRGB formats, most preferred first.
var preferredFormats = []core1_0.Format{
	core1_0.FormatR8G8B8A8SRGB,
	core1_0.FormatB8G8R8A8SRGB,
}

// ChooseSurfaceFormat returns a preferred sRGB format in the sRGB
// nonlinear color space if the surface supports one, and the first
// supported format otherwise. formats must not be empty.
func ChooseSurfaceFormat(formats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, preferred := range preferredFormats {
		for _, format := range formats {
			if format.Format == preferred && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
				return format
			}
		}
	}
	return formats[0]
}

// ChoosePresentMode returns the first supported mode among desired,
// then mailbox, then immediate. FIFO is always supported and is the
// final fallback.
func ChoosePresentMode(available []khr_surface.PresentMode, desired []khr_surface.PresentMode) khr_surface.PresentMode {
	supported := make(map[khr_surface.PresentMode]bool, len(available))
	for _, mode := range available {
		supported[mode] = true
	}

	candidates := append(append([]khr_surface.PresentMode(nil), desired...),
		khr_surface.PresentModeMailbox,
		khr_surface.PresentModeImmediate,
	)
	for _, mode := range candidates {
		if supported[mode] {
			return mode
		}
	}
	return khr_surface.PresentModeFIFO
}

// ChooseImageCount returns how many images to request for mode: one more
// than the minimum for mailbox, at least two for FIFO when the surface
// allows double buffering, and the minimum otherwise. The result never
// exceeds a nonzero maximum.
func ChooseImageCount(mode khr_surface.PresentMode, caps *khr_surface.SurfaceCapabilities) int {
	count := caps.MinImageCount
	switch {
	case mode == khr_surface.PresentModeMailbox:
		count = caps.MinImageCount + 1
	case mode == khr_surface.PresentModeFIFO && caps.MinImageCount >= 2:
		count = max(2, caps.MinImageCount)
	}

	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseExtent clamps the window size to the surface's image extent limits,
// independently on each axis.
func ChooseExtent(window core1_0.Extent2D, caps *khr_surface.SurfaceCapabilities) core1_0.Extent2D {
	return core1_0.Extent2D{
		Width:  clamp(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// ChooseSharingMode returns concurrent sharing across both families when
// they differ, and exclusive ownership otherwise.
func ChooseSharingMode(families QueueFamilies) (core1_0.SharingMode, []int) {
	if families.Graphics != families.Present {
		return core1_0.SharingModeConcurrent, []int{families.Graphics, families.Present}
	}
	return core1_0.SharingModeExclusive, nil
}

// Swapchain owns the presentable images of a surface together with one
// view and one framebuffer per image.
type Swapchain struct {
	ctx          *DeviceContext
	surface      *Surface
	presentModes []khr_surface.PresentMode
	renderPass   gpu.RenderPass

	Handle      gpu.Swapchain
	Format      khr_surface.SurfaceFormat
	PresentMode khr_surface.PresentMode
	Extent      core1_0.Extent2D

	Images       []gpu.Image
	Views        []gpu.ImageView
	Framebuffers []gpu.Framebuffer
}

// NewSwapchain creates a swapchain with its image views. Framebuffers are
// created once a render pass is attached with CreateFramebuffers. The
// window must have a nonzero size.
func NewSwapchain(ctx *DeviceContext, surface *Surface, presentModes []khr_surface.PresentMode) (*Swapchain, error) {
	s := &Swapchain{
		ctx:          ctx,
		surface:      surface,
		presentModes: presentModes,
	}

	if zeroExtent(surface.Extent()) {
		return nil, errors.New("create swapchain: window has zero size")
	}

	err := s.create()
	if err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// ImageCount returns the number of presentable images.
func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

func (s *Swapchain) create() error {
	support, err := s.ctx.Physical.SwapchainSupport(s.surface.Handle)
	if err != nil {
		return errors.Wrap(err, "query swapchain support")
	}
	if len(support.Formats) == 0 {
		return errors.New("surface reports no formats")
	}

	s.Format = ChooseSurfaceFormat(support.Formats)
	s.PresentMode = ChoosePresentMode(support.PresentModes, s.presentModes)
	s.Extent = ChooseExtent(s.surface.Extent(), support.Capabilities)
	imageCount := ChooseImageCount(s.PresentMode, support.Capabilities)
	sharingMode, families := ChooseSharingMode(s.ctx.Families)

	s.Handle, err = s.ctx.Device.CreateSwapchain(gpu.SwapchainCreateInfo{
		Surface:       s.surface.Handle,
		MinImageCount: imageCount,
		Format:        s.Format,
		Extent:        s.Extent,
		PresentMode:   s.PresentMode,
		SharingMode:   sharingMode,
		QueueFamilies: families,
		Capabilities:  support.Capabilities,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}

	s.Images, err = s.Handle.Images()
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}

	for i, image := range s.Images {
		view, err := s.ctx.Device.CreateImageView(image, s.Format.Format)
		if err != nil {
			return errors.Wrapf(err, "create image view %d", i)
		}
		s.Views = append(s.Views, view)
	}
	return nil
}

// CreateFramebuffers creates one framebuffer per image view for
// renderPass. The render pass is kept and reused on recreation.
func (s *Swapchain) CreateFramebuffers(renderPass gpu.RenderPass) error {
	s.renderPass = renderPass
	for i, view := range s.Views {
		framebuffer, err := s.ctx.Device.CreateFramebuffer(renderPass, view, s.Extent)
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		s.Framebuffers = append(s.Framebuffers, framebuffer)
	}
	return nil
}

// Recreate rebuilds the swapchain for the current window size. Nothing
// happens if the window has a zero dimension, in which case recreated is
// false. The device is drained first, then framebuffers, views and the
// swapchain are destroyed and rebuilt. The surface, render pass and
// pipeline are kept.
func (s *Swapchain) Recreate() (recreated bool, err error) {
	if zeroExtent(s.surface.Extent()) {
		return false, nil
	}

	err = s.ctx.Device.WaitIdle()
	if err != nil {
		return false, errors.Wrap(err, "wait for device idle")
	}

	s.destroy()

	err = s.create()
	if err != nil {
		return false, err
	}

	if s.renderPass != nil {
		err = s.CreateFramebuffers(s.renderPass)
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Swapchain) destroy() {
	for _, framebuffer := range s.Framebuffers {
		framebuffer.Destroy()
	}
	s.Framebuffers = nil

	for _, view := range s.Views {
		view.Destroy()
	}
	s.Views = nil
	s.Images = nil

	if s.Handle != nil {
		s.Handle.Destroy()
		s.Handle = nil
	}
}

// Destroy destroys framebuffers, image views and the swapchain, in that
// order. The device must be idle.
func (s *Swapchain) Destroy() {
	s.destroy()
}
