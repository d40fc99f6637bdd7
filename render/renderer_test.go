package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/jarmungular/engine/gpu"
	"github.com/jarmungular/engine/gpu/gputest"
)

// spirvMagic is the first word of every SPIR-V module.
var spirvMagic = []byte{0x03, 0x02, 0x23, 0x07}

var testShaders = Shaders{Vertex: spirvMagic, Fragment: spirvMagic}

var testMesh = []Vertex{
	{Position: mgl32.Vec4{0, -0.5, 0, 1}, Color: mgl32.Vec3{1, 0, 0}},
	{Position: mgl32.Vec4{0.5, 0.5, 0, 1}, Color: mgl32.Vec3{0, 1, 0}},
	{Position: mgl32.Vec4{-0.5, 0.5, 0, 1}, Color: mgl32.Vec3{0, 0, 1}},
}

type testRig struct {
	renderer *Renderer
	instance *gputest.Instance
	physical *gputest.PhysicalDevice
	window   *gputest.Window
}

func (r *testRig) device() *gputest.Device {
	return r.physical.Device
}

func newTestRig(t *testing.T, width, height int) *testRig {
	t.Helper()
	physical := gputest.NewPhysicalDevice("test gpu", gpu.DeviceTypeDiscrete)
	rig := &testRig{
		instance: gputest.NewInstance(physical),
		physical: physical,
		window:   &gputest.Window{Width: width, Height: height},
	}

	var err error
	rig.renderer, err = New(rig.instance, rig.window, DefaultConfig(), testShaders, testMesh)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rig
}

func checkViolations(t *testing.T, rec *gputest.Recorder) {
	t.Helper()
	for _, v := range rec.Violations {
		t.Errorf("protocol violation: %s", v)
	}
}

func checkSwapchain(t *testing.T, s *Swapchain, images int, extent core1_0.Extent2D) {
	t.Helper()
	if n := s.ImageCount(); n != images {
		t.Errorf("image count: got %d, want %d", n, images)
	}
	if len(s.Views) != s.ImageCount() || len(s.Framebuffers) != s.ImageCount() {
		t.Errorf("count mismatch: %d images, %d views, %d framebuffers",
			s.ImageCount(), len(s.Views), len(s.Framebuffers))
	}
	if s.Extent != extent {
		t.Errorf("extent: got %v, want %v", s.Extent, extent)
	}
}

func TestRendererLifecycle(t *testing.T) {
	rig := newTestRig(t, 800, 600)
	r := rig.renderer

	want := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	if r.Swapchain.Format != want {
		t.Errorf("format: got %v, want %v", r.Swapchain.Format, want)
	}
	if r.Swapchain.PresentMode != khr_surface.PresentModeMailbox {
		t.Errorf("present mode: got %v, want mailbox", r.Swapchain.PresentMode)
	}
	checkSwapchain(t, r.Swapchain, 3, core1_0.Extent2D{Width: 800, Height: 600})

	res, err := r.DrawFrame(mgl32.Ident4())
	if err != nil || res != FramePresented {
		t.Fatalf("DrawFrame: %v, %v", res, err)
	}

	// Minimized.
	rig.window.Width, rig.window.Height = 0, 0
	rig.instance.ClearCalls()

	recreated, err := r.Recreate()
	if err != nil {
		t.Fatalf("Recreate at zero size: %v", err)
	}
	if recreated {
		t.Error("Recreate at zero size: recreated")
	}
	res, err = r.DrawFrame(mgl32.Ident4())
	if err != nil || res != FrameZeroSize {
		t.Errorf("DrawFrame at zero size: %v, %v", res, err)
	}
	for _, call := range []string{"create framebuffer", "destroy framebuffer", "acquire", "submit", "present"} {
		if n := rig.instance.Count(call); n != 0 {
			t.Errorf("%q called %d times at zero size", call, n)
		}
	}

	rig.window.Width, rig.window.Height = 400, 300
	recreated, err = r.Recreate()
	if err != nil || !recreated {
		t.Fatalf("Recreate: %v, %v", recreated, err)
	}
	checkSwapchain(t, r.Swapchain, 3, core1_0.Extent2D{Width: 400, Height: 300})
	if n := rig.instance.Count("create render pass") + rig.instance.Count("create pipeline"); n != 0 {
		t.Errorf("pipeline state rebuilt on recreation (%d calls)", n)
	}
	if n := rig.instance.Count("create surface"); n != 0 {
		t.Errorf("surface recreated (%d calls)", n)
	}

	res, err = r.DrawFrame(mgl32.Ident4())
	if err != nil || res != FramePresented {
		t.Fatalf("DrawFrame after resize: %v, %v", res, err)
	}

	r.Destroy()
	rig.instance.Destroy()
	checkViolations(t, rig.instance.Recorder)

	for _, kind := range []string{"surface", "device", "swapchain", "image view", "framebuffer", "render pass",
		"pipeline layout", "pipeline", "buffer", "memory", "command pool", "command buffer", "semaphore", "fence"} {
		if n := rig.instance.Live(kind); n != 0 {
			t.Errorf("%d %s left after Destroy", n, kind)
		}
	}
}

func TestRendererTeardownOrder(t *testing.T) {
	rig := newTestRig(t, 640, 480)
	rig.instance.ClearCalls()
	rig.renderer.Destroy()

	order := []string{
		"wait idle",
		"destroy fence",
		"destroy buffer",
		"destroy framebuffer",
		"destroy image view",
		"destroy swapchain",
		"destroy pipeline",
		"destroy render pass",
		"destroy surface",
		"destroy device",
	}
	last := -1
	for _, call := range order {
		i := rig.instance.LastIndex(call)
		if i < 0 {
			t.Fatalf("%q not called", call)
		}
		if i < last {
			t.Errorf("%q out of order", call)
		}
		last = i
	}
	checkViolations(t, rig.instance.Recorder)
}

func TestRendererNoDevice(t *testing.T) {
	physical := gputest.NewPhysicalDevice("no present", gpu.DeviceTypeDiscrete)
	physical.Present = []bool{false}
	instance := gputest.NewInstance(physical)

	_, err := New(instance, &gputest.Window{Width: 800, Height: 600}, DefaultConfig(), testShaders, testMesh)
	if err == nil {
		t.Fatal("New: no error")
	}
	if n := instance.Live("surface"); n != 0 {
		t.Errorf("%d surfaces left after failed New", n)
	}
	checkViolations(t, instance.Recorder)
}
