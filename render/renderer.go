package render

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/jarmungular/engine/gpu"
)

// Renderer owns every object of the frame lifecycle, from the surface
// down to the per-frame synchronization objects.
type Renderer struct {
	instance gpu.Instance

	Surface   *Surface
	Context   *DeviceContext
	Swapchain *Swapchain
	Pipeline  *Pipeline
	Transfer  *Transfer
	Vertices  *VertexBuffer
	Frames    *FrameRenderer
}

// New builds the renderer for win on instance and uploads mesh. The
// instance stays owned by the caller. On failure everything created so
// far is destroyed.
func New(instance gpu.Instance, win gpu.Window, cfg Config, shaders Shaders, mesh []Vertex) (*Renderer, error) {
	r := &Renderer{instance: instance}
	err := r.init(win, cfg, shaders, mesh)
	if err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init(win gpu.Window, cfg Config, shaders Shaders, mesh []Vertex) error {
	var err error
	r.Surface, err = NewSurface(r.instance, win)
	if err != nil {
		return err
	}

	r.Context, err = NewDeviceContext(r.instance, r.Surface.Handle, cfg)
	if err != nil {
		return err
	}

	r.Swapchain, err = NewSwapchain(r.Context, r.Surface, cfg.PresentModes)
	if err != nil {
		return err
	}
	log.Printf("Swapchain: %d images, format %v, present mode %v, extent %dx%d",
		r.Swapchain.ImageCount(), r.Swapchain.Format.Format, r.Swapchain.PresentMode,
		r.Swapchain.Extent.Width, r.Swapchain.Extent.Height)

	r.Pipeline, err = NewPipeline(r.Context.Device, r.Swapchain.Format.Format, r.Swapchain.Extent, shaders)
	if err != nil {
		return err
	}

	err = r.Swapchain.CreateFramebuffers(r.Pipeline.RenderPass)
	if err != nil {
		return err
	}

	r.Frames, err = NewFrameRenderer(r.Context, cfg.ClearColor)
	if err != nil {
		return err
	}

	r.Transfer, err = NewTransfer(r.Context)
	if err != nil {
		return err
	}

	r.Vertices, err = r.Transfer.UploadVertices(mesh)
	return err
}

// DrawFrame draws one frame with the given view-projection matrix.
func (r *Renderer) DrawFrame(renderMatrix mgl32.Mat4) (FrameResult, error) {
	return r.Frames.Draw(Frame{
		Swapchain:    r.Swapchain,
		Pipeline:     r.Pipeline,
		Vertices:     r.Vertices,
		Window:       r.Surface.Extent(),
		RenderMatrix: renderMatrix,
	})
}

// Recreate rebuilds the swapchain for the current window size. It does
// nothing while the window has a zero dimension.
func (r *Renderer) Recreate() (bool, error) {
	recreated, err := r.Swapchain.Recreate()
	if err != nil {
		return false, errors.Wrap(err, "recreate swapchain")
	}
	if recreated {
		log.Printf("Swapchain recreated: %d images, extent %dx%d",
			r.Swapchain.ImageCount(), r.Swapchain.Extent.Width, r.Swapchain.Extent.Height)
	}
	return recreated, nil
}

// Destroy waits for the device to go idle and destroys everything in the
// reverse order of creation: synchronization objects and command pools,
// the vertex buffer, the swapchain, the pipeline, the surface and
// finally the logical device. The instance is left to the caller.
func (r *Renderer) Destroy() {
	if r.Context != nil {
		err := r.Context.Device.WaitIdle()
		if err != nil {
			log.Printf("wait for device idle: %+v", err)
		}
	}

	if r.Frames != nil {
		r.Frames.Destroy()
		r.Frames = nil
	}
	if r.Vertices != nil {
		r.Vertices.Destroy()
		r.Vertices = nil
	}
	if r.Transfer != nil {
		r.Transfer.Destroy()
		r.Transfer = nil
	}
	if r.Swapchain != nil {
		r.Swapchain.Destroy()
		r.Swapchain = nil
	}
	if r.Pipeline != nil {
		r.Pipeline.Destroy()
		r.Pipeline = nil
	}
	if r.Surface != nil {
		r.Surface.Destroy()
		r.Surface = nil
	}
	if r.Context != nil {
		r.Context.Destroy()
		r.Context = nil
	}
}
