package render

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/jarmungular/engine/gpu"
	"github.com/jarmungular/engine/gpu/gputest"
)

func TestDrawFrameRecording(t *testing.T) {
	rig := newTestRig(t, 800, 600)
	defer rig.renderer.Destroy()

	m := mgl32.Translate3D(1, 2, 3)
	res, err := rig.renderer.DrawFrame(m)
	if err != nil || res != FramePresented {
		t.Fatalf("DrawFrame: %v, %v", res, err)
	}

	cmd := rig.renderer.Frames.command.(*gputest.CommandBuffer)
	want := []string{
		"begin render pass",
		"bind pipeline",
		"bind vertex buffer 0",
		"push constants 0+64",
		"set viewport",
		"set scissor",
		"draw 3 1",
		"end render pass",
	}
	if strings.Join(cmd.Commands, "|") != strings.Join(want, "|") {
		t.Errorf("commands:\n got %v\nwant %v", cmd.Commands, want)
	}

	got, err := DecodeMatrix(cmd.PushData)
	if err != nil || got != m {
		t.Errorf("pushed matrix: got %v, %v", got, err)
	}
	if cmd.ClearColor != [4]float32{0, 0, 0, 1} {
		t.Errorf("clear color: got %v", cmd.ClearColor)
	}
	wantViewport := core1_0.Viewport{Width: 800, Height: 600, MinDepth: 0, MaxDepth: 1}
	if cmd.Viewport != wantViewport {
		t.Errorf("viewport: got %+v", cmd.Viewport)
	}
	if cmd.Scissor.Extent != (core1_0.Extent2D{Width: 800, Height: 600}) {
		t.Errorf("scissor: got %+v", cmd.Scissor)
	}
	if cmd.Framebuffer != rig.renderer.Swapchain.Framebuffers[0] {
		t.Error("first frame not rendered into framebuffer 0")
	}
	if rig.instance.Index("present 0") < 0 {
		t.Errorf("image 0 not presented: %v", rig.instance.Calls)
	}
	if s := rig.renderer.Frames.State(); s != FrameIdle {
		t.Errorf("state: got %v", s)
	}
	checkViolations(t, rig.instance.Recorder)
}

func TestDrawFrameOrder(t *testing.T) {
	rig := newTestRig(t, 800, 600)
	defer rig.renderer.Destroy()
	rig.instance.ClearCalls()

	_, err := rig.renderer.DrawFrame(mgl32.Ident4())
	if err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}

	order := []string{
		"wait fence",
		"acquire",
		"reset command buffer",
		"begin command buffer",
		"end command buffer",
		"reset fence",
		"submit",
		"present",
	}
	last := -1
	for _, call := range order {
		i := rig.instance.Index(call)
		if i < 0 {
			t.Fatalf("%q not called", call)
		}
		if i < last {
			t.Errorf("%q out of order in %v", call, rig.instance.Calls)
		}
		last = i
	}
}

// Over many frames, with stale swapchains and resizes mixed in, every
// submission must follow a wait on the in-flight fence.
func TestDrawFrameInFlight(t *testing.T) {
	rig := newTestRig(t, 800, 600)
	defer rig.renderer.Destroy()
	dev := rig.device()
	rig.instance.ClearCalls()

	presented := 0
	for i := 0; i < 200; i++ {
		switch {
		case i%7 == 3:
			dev.AcquireErrors = append(dev.AcquireErrors, errors.Wrap(gpu.ErrOutOfDate, "acquire"))
		case i%11 == 5:
			dev.PresentErrors = append(dev.PresentErrors, gpu.ErrOutOfDate)
		case i%23 == 0:
			rig.window.Width = 600 + i
		}

		res, err := rig.renderer.DrawFrame(mgl32.Ident4())
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		switch res {
		case FramePresented:
			presented++
		case FrameAcquireOutOfDate, FramePresentOutOfDate:
			if rig.renderer.Frames.State() != FrameSkipped {
				t.Errorf("frame %d: state %v after %v", i, rig.renderer.Frames.State(), res)
			}
			_, err = rig.renderer.Recreate()
			if err != nil {
				t.Fatalf("frame %d: Recreate: %v", i, err)
			}
		}
	}

	waited := false
	submits := 0
	for _, call := range rig.instance.Calls {
		switch {
		case call == "wait fence" || call == "wait idle":
			waited = true
		case call == "submit":
			if !waited {
				t.Fatalf("submit %d without waiting for the previous frame", submits)
			}
			waited = false
			submits++
		}
	}
	if submits == 0 || presented == 0 {
		t.Errorf("%d submits, %d frames presented", submits, presented)
	}
	checkViolations(t, rig.instance.Recorder)
}

func TestDrawFrameZeroSize(t *testing.T) {
	for _, size := range [][2]int{{0, 600}, {800, 0}, {0, 0}} {
		rig := newTestRig(t, 800, 600)
		rig.window.Width, rig.window.Height = size[0], size[1]
		rig.instance.ClearCalls()

		for i := 0; i < 3; i++ {
			res, err := rig.renderer.DrawFrame(mgl32.Ident4())
			if err != nil || res != FrameZeroSize {
				t.Errorf("DrawFrame at %v: %v, %v", size, res, err)
			}
		}
		for _, call := range []string{"wait fence", "acquire", "submit", "present"} {
			if n := rig.instance.Count(call); n != 0 {
				t.Errorf("%q called %d times at %v", call, n, size)
			}
		}
		rig.renderer.Destroy()
	}
}

func TestDrawFrameAcquireOutOfDate(t *testing.T) {
	rig := newTestRig(t, 800, 600)
	defer rig.renderer.Destroy()
	rig.device().AcquireErrors = []error{gpu.ErrOutOfDate}
	rig.instance.ClearCalls()

	res, err := rig.renderer.DrawFrame(mgl32.Ident4())
	if err != nil || res != FrameAcquireOutOfDate || !res.Stale() {
		t.Fatalf("DrawFrame: %v, %v", res, err)
	}
	for _, call := range []string{"reset command buffer", "reset fence", "submit", "present"} {
		if n := rig.instance.Count(call); n != 0 {
			t.Errorf("%q called %d times after stale acquire", call, n)
		}
	}

	// The fence was left signaled, so the next frame does not block.
	res, err = rig.renderer.DrawFrame(mgl32.Ident4())
	if err != nil || res != FramePresented {
		t.Fatalf("DrawFrame after stale acquire: %v, %v", res, err)
	}
	checkViolations(t, rig.instance.Recorder)
}

func TestDrawFramePresentOutOfDate(t *testing.T) {
	rig := newTestRig(t, 800, 600)
	defer rig.renderer.Destroy()
	rig.device().PresentErrors = []error{gpu.ErrOutOfDate}

	res, err := rig.renderer.DrawFrame(mgl32.Ident4())
	if err != nil || res != FramePresentOutOfDate {
		t.Fatalf("DrawFrame: %v, %v", res, err)
	}

	res, err = rig.renderer.DrawFrame(mgl32.Ident4())
	if err != nil || res != FramePresented {
		t.Fatalf("DrawFrame after stale present: %v, %v", res, err)
	}
	checkViolations(t, rig.instance.Recorder)
}

func TestDrawFrameFatalErrors(t *testing.T) {
	lost := errors.New("device lost")

	rig := newTestRig(t, 800, 600)
	defer rig.renderer.Destroy()

	rig.device().AcquireErrors = []error{lost}
	_, err := rig.renderer.DrawFrame(mgl32.Ident4())
	if !errors.Is(err, lost) {
		t.Errorf("acquire: got %v, want %v", err, lost)
	}

	rig.device().PresentErrors = []error{lost}
	_, err = rig.renderer.DrawFrame(mgl32.Ident4())
	if !errors.Is(err, lost) {
		t.Errorf("present: got %v, want %v", err, lost)
	}
}
