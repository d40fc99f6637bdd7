// Package assets embeds the engine's shaders and window icon.
package assets

import (
	"context"
	"embed"
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"golang.org/x/sync/errgroup"

	"github.com/jarmungular/engine/render"
)

//go:generate glslc shaders/shader.vert -o shaders/vert.spv
//go:generate glslc shaders/shader.frag -o shaders/frag.spv

//go:embed shaders/*.spv icon.rgba
var files embed.FS

// File names inside the asset tree.
const (
	VertexShaderFile   = "shaders/vert.spv"
	FragmentShaderFile = "shaders/frag.spv"
	IconFile           = "icon.rgba"
)

// IconSize is the width and height of the window icon in pixels.
const IconSize = 32

// SpirVMagic is the first word of every SPIR-V module.
const SpirVMagic = 0x07230203

const spirVHeaderSize = 20

// Icon is a raw 8-bit RGBA image.
type Icon struct {
	Width, Height int
	Pixels        []byte
}

// Assets is everything loaded at startup.
type Assets struct {
	Shaders render.Shaders
	Icon    Icon
}

// Load reads the embedded assets.
func Load(ctx context.Context) (*Assets, error) {
	return LoadFS(ctx, files)
}

// LoadFS reads and checks every asset of fsys concurrently.
func LoadFS(ctx context.Context, fsys fs.FS) (*Assets, error) {
	var assets Assets
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error
		assets.Shaders.Vertex, err = readShader(ctx, fsys, VertexShaderFile)
		return err
	})
	group.Go(func() error {
		var err error
		assets.Shaders.Fragment, err = readShader(ctx, fsys, FragmentShaderFile)
		return err
	})
	group.Go(func() error {
		var err error
		assets.Icon, err = readIcon(ctx, fsys, IconFile)
		return err
	})

	err := group.Wait()
	if err != nil {
		return nil, err
	}
	return &assets, nil
}

func readShader(ctx context.Context, fsys fs.FS, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", name)
	}
	err = CheckSpirV(code)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", name)
	}
	return code, nil
}

// CheckSpirV reports whether code looks like a SPIR-V module: whole words,
// a complete header and the magic number.
func CheckSpirV(code []byte) error {
	if len(code) < spirVHeaderSize {
		return errors.Newf("%d bytes is shorter than a SPIR-V header", len(code))
	}
	if len(code)%4 != 0 {
		return errors.Newf("%d bytes is not a whole number of words", len(code))
	}
	magic := common.ByteOrder.Uint32(code)
	if magic != SpirVMagic {
		return errors.Newf("bad magic number %#08x", magic)
	}
	return nil
}

func readIcon(ctx context.Context, fsys fs.FS, name string) (Icon, error) {
	if err := ctx.Err(); err != nil {
		return Icon{}, err
	}
	pixels, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Icon{}, errors.Wrapf(err, "read icon %s", name)
	}
	if len(pixels) != IconSize*IconSize*4 {
		return Icon{}, errors.Newf("icon %s has %d bytes, want %dx%d RGBA", name, len(pixels), IconSize, IconSize)
	}
	return Icon{Width: IconSize, Height: IconSize, Pixels: pixels}, nil
}
