package render

import (
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/jarmungular/engine/gpu"
	"github.com/jarmungular/engine/gpu/gputest"
)

func TestPipelineState(t *testing.T) {
	rig := newTestRig(t, 800, 600)
	defer rig.renderer.Destroy()

	info := rig.device().Pipeline
	if info == nil {
		t.Fatal("no pipeline created")
	}

	if len(info.DynamicStates) != 2 || info.DynamicStates[0] != gpu.DynamicViewport || info.DynamicStates[1] != gpu.DynamicScissor {
		t.Errorf("dynamic states: got %v", info.DynamicStates)
	}
	if info.Rasterization.CullMode != core1_0.CullModeBack || info.Rasterization.FrontFace != core1_0.FrontFaceCounterClockwise {
		t.Errorf("rasterization: got %+v", info.Rasterization)
	}
	if info.InputAssembly.Topology != core1_0.PrimitiveTopologyTriangleList {
		t.Errorf("topology: got %v", info.InputAssembly.Topology)
	}
	if info.DepthStencil != nil {
		t.Error("depth testing enabled")
	}
	if len(info.ColorBlend.Attachments) != 1 || info.ColorBlend.Attachments[0].BlendEnabled {
		t.Errorf("color blend: got %+v", info.ColorBlend.Attachments)
	}
	if info.EntryPoint != "main" {
		t.Errorf("entry point: got %q", info.EntryPoint)
	}
	if len(info.VertexInput.VertexAttributeDescriptions) != 2 {
		t.Errorf("vertex attributes: got %+v", info.VertexInput.VertexAttributeDescriptions)
	}

	ranges := rig.device().PushConstants
	if len(ranges) != 1 || ranges[0].Stages != core1_0.StageVertex || ranges[0].Offset != 0 || ranges[0].Size != PushConstantSize {
		t.Errorf("push constant ranges: got %+v", ranges)
	}

	if n := rig.instance.Live("shader module"); n != 0 {
		t.Errorf("%d shader modules left after pipeline creation", n)
	}
	checkViolations(t, rig.instance.Recorder)
}

func TestRenderPassInfo(t *testing.T) {
	info := RenderPassInfo(core1_0.FormatB8G8R8A8SRGB)

	if len(info.Attachments) != 1 {
		t.Fatalf("attachments: got %d", len(info.Attachments))
	}
	a := info.Attachments[0]
	if a.Format != core1_0.FormatB8G8R8A8SRGB {
		t.Errorf("format: got %v", a.Format)
	}
	if a.LoadOp != core1_0.AttachmentLoadOpClear || a.StoreOp != core1_0.AttachmentStoreOpStore {
		t.Errorf("load/store: got %v/%v", a.LoadOp, a.StoreOp)
	}
	if a.InitialLayout != core1_0.ImageLayoutUndefined || a.FinalLayout != khr_swapchain.ImageLayoutPresentSrc {
		t.Errorf("layouts: got %v -> %v", a.InitialLayout, a.FinalLayout)
	}

	if len(info.Subpasses) != 1 || len(info.Subpasses[0].ColorAttachments) != 1 {
		t.Fatalf("subpasses: got %+v", info.Subpasses)
	}
	if len(info.SubpassDependencies) != 1 {
		t.Fatalf("dependencies: got %d", len(info.SubpassDependencies))
	}
	d := info.SubpassDependencies[0]
	if d.SrcSubpass != core1_0.SubpassExternal || d.DstSubpass != 0 {
		t.Errorf("dependency subpasses: got %d -> %d", d.SrcSubpass, d.DstSubpass)
	}
	if d.SrcStageMask != core1_0.PipelineStageColorAttachmentOutput || d.DstStageMask != core1_0.PipelineStageColorAttachmentOutput {
		t.Errorf("dependency stages: got %v -> %v", d.SrcStageMask, d.DstStageMask)
	}
	if d.DstAccessMask != core1_0.AccessColorAttachmentWrite {
		t.Errorf("dependency access: got %v", d.DstAccessMask)
	}
}

func TestNewPipelineBadShader(t *testing.T) {
	physical := gputest.NewPhysicalDevice("bad shader", gpu.DeviceTypeDiscrete)
	instance := gputest.NewInstance(physical)
	ctx, err := NewDeviceContext(instance, testSurface(t, instance), DefaultConfig())
	if err != nil {
		t.Fatalf("NewDeviceContext: %v", err)
	}
	defer ctx.Destroy()

	tests := []struct {
		name    string
		shaders Shaders
	}{
		{"empty vertex", Shaders{Vertex: nil, Fragment: spirvMagic}},
		{"truncated fragment", Shaders{Vertex: spirvMagic, Fragment: spirvMagic[:3]}},
	}
	for _, tc := range tests {
		_, err := NewPipeline(ctx.Device, core1_0.FormatB8G8R8A8SRGB, core1_0.Extent2D{Width: 1, Height: 1}, tc.shaders)
		if err == nil {
			t.Errorf("%s: no error", tc.name)
		}
		for _, kind := range []string{"render pass", "shader module", "pipeline layout", "pipeline"} {
			if n := instance.Live(kind); n != 0 {
				t.Errorf("%s: %d %s left", tc.name, n, kind)
			}
		}
	}
	checkViolations(t, instance.Recorder)
}
