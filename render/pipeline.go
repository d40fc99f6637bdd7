package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/jarmungular/engine/gpu"
)

// Shaders holds SPIR-V bytecode for the two pipeline stages.
type Shaders struct {
	Vertex   []byte
	Fragment []byte
}

// RenderPassInfo describes the single-subpass render pass: one cleared
// color attachment of the given format that ends ready for presentation.
// The external dependency keeps color output from starting before the
// acquired image is available.
func RenderPassInfo(format core1_0.Format) core1_0.RenderPassCreateInfo {
	return core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	}
}

// PushConstantRanges is the layout's only push-constant block, the
// render matrix, read by the vertex stage.
var PushConstantRanges = []gpu.PushConstantRange{
	{Stages: core1_0.StageVertex, Offset: 0, Size: PushConstantSize},
}

// Pipeline is the fixed graphics pipeline and the render pass it was
// built for. It survives swapchain recreation since viewport and scissor
// are dynamic.
type Pipeline struct {
	device gpu.Device

	RenderPass gpu.RenderPass
	Layout     gpu.PipelineLayout
	Handle     gpu.Pipeline
}

// NewPipeline builds the render pass for format and the pipeline on top
// of it. The shader modules are destroyed before NewPipeline returns.
func NewPipeline(device gpu.Device, format core1_0.Format, extent core1_0.Extent2D, shaders Shaders) (*Pipeline, error) {
	p := &Pipeline{device: device}
	err := p.create(format, extent, shaders)
	if err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) create(format core1_0.Format, extent core1_0.Extent2D, shaders Shaders) error {
	var err error
	p.RenderPass, err = p.device.CreateRenderPass(RenderPassInfo(format))
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}

	vertShader, err := p.device.CreateShaderModule(shaders.Vertex)
	if err != nil {
		return errors.Wrap(err, "create vertex shader module")
	}
	defer vertShader.Destroy()

	fragShader, err := p.device.CreateShaderModule(shaders.Fragment)
	if err != nil {
		return errors.Wrap(err, "create fragment shader module")
	}
	defer fragShader.Destroy()

	p.Layout, err = p.device.CreatePipelineLayout(PushConstantRanges)
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions:   vertexBindingDescriptions(),
		VertexAttributeDescriptions: vertexAttributeDescriptions(),
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceCounterClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	p.Handle, err = p.device.CreateGraphicsPipeline(gpu.PipelineInfo{
		VertexShader:   vertShader,
		FragmentShader: fragShader,
		EntryPoint:     "main",

		VertexInput:   vertexInput,
		InputAssembly: inputAssembly,
		Rasterization: rasterization,
		Multisample:   multisample,
		ColorBlend:    colorBlend,

		Extent:        extent,
		DynamicStates: []gpu.DynamicState{gpu.DynamicViewport, gpu.DynamicScissor},

		Layout:     p.Layout,
		RenderPass: p.RenderPass,
		Subpass:    0,
	})
	if err != nil {
		return errors.Wrap(err, "create graphics pipeline")
	}
	return nil
}

// Destroy destroys the pipeline, its layout and the render pass.
func (p *Pipeline) Destroy() {
	if p.Handle != nil {
		p.Handle.Destroy()
		p.Handle = nil
	}
	if p.Layout != nil {
		p.Layout.Destroy()
		p.Layout = nil
	}
	if p.RenderPass != nil {
		p.RenderPass.Destroy()
		p.RenderPass = nil
	}
}
