package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/jarmungular/engine/gpu"
)

// Surface is a presentable surface bound to a native window.
type Surface struct {
	Window gpu.Window
	Handle gpu.Surface
}

func NewSurface(instance gpu.Instance, win gpu.Window) (*Surface, error) {
	handle, err := instance.CreateSurface(win)
	if err != nil {
		return nil, errors.Wrap(err, "create surface")
	}
	return &Surface{Window: win, Handle: handle}, nil
}

// Extent returns the current drawable size of the window.
func (s *Surface) Extent() core1_0.Extent2D {
	w, h := s.Window.DrawableSize()
	return core1_0.Extent2D{Width: w, Height: h}
}

func (s *Surface) Destroy() {
	s.Handle.Destroy()
}

func zeroExtent(e core1_0.Extent2D) bool {
	return e.Width <= 0 || e.Height <= 0
}
