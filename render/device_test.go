package render

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/jarmungular/engine/gpu"
	"github.com/jarmungular/engine/gpu/gputest"
)

func testSurface(t *testing.T, instance *gputest.Instance) gpu.Surface {
	t.Helper()
	surface, err := instance.CreateSurface(&gputest.Window{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	return surface
}

func TestScoreDevice(t *testing.T) {
	extensions := DefaultConfig().DeviceExtensions

	tests := []struct {
		name   string
		modify func(d *gputest.PhysicalDevice)
		want   int
	}{
		{"discrete", func(d *gputest.PhysicalDevice) {}, 10},
		{"integrated", func(d *gputest.PhysicalDevice) { d.Props.Type = gpu.DeviceTypeIntegrated }, 5},
		{"cpu", func(d *gputest.PhysicalDevice) { d.Props.Type = gpu.DeviceTypeCPU }, 0},
		{"no graphics", func(d *gputest.PhysicalDevice) { d.Families[0].Flags = 0 }, 0},
		{"no present", func(d *gputest.PhysicalDevice) { d.Present = []bool{false} }, 0},
		{"no swapchain extension", func(d *gputest.PhysicalDevice) { d.ExtensionNames = nil }, 0},
		{"no formats", func(d *gputest.PhysicalDevice) { d.Support.Formats = nil }, 0},
		{"no present modes", func(d *gputest.PhysicalDevice) { d.Support.PresentModes = nil }, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			physical := gputest.NewPhysicalDevice(tc.name, gpu.DeviceTypeDiscrete)
			tc.modify(physical)
			instance := gputest.NewInstance(physical)

			score, _, err := ScoreDevice(physical, testSurface(t, instance), extensions)
			if err != nil {
				t.Fatalf("ScoreDevice: %v", err)
			}
			if score != tc.want {
				t.Errorf("score: got %d, want %d", score, tc.want)
			}
		})
	}
}

func TestPickPhysicalDevice(t *testing.T) {
	extensions := DefaultConfig().DeviceExtensions

	integrated := gputest.NewPhysicalDevice("integrated", gpu.DeviceTypeIntegrated)
	discrete := gputest.NewPhysicalDevice("discrete", gpu.DeviceTypeDiscrete)
	instance := gputest.NewInstance(integrated, discrete)
	surface := testSurface(t, instance)

	picked, _, err := PickPhysicalDevice(instance, surface, extensions)
	if err != nil {
		t.Fatalf("PickPhysicalDevice: %v", err)
	}
	if picked != discrete {
		t.Errorf("picked %q, want discrete", picked.(*gputest.PhysicalDevice).Props.Name)
	}

	discrete.Support.PresentModes = nil
	picked, _, err = PickPhysicalDevice(instance, surface, extensions)
	if err != nil {
		t.Fatalf("PickPhysicalDevice: %v", err)
	}
	if picked != integrated {
		t.Errorf("picked %q, want integrated", picked.(*gputest.PhysicalDevice).Props.Name)
	}

	integrated.ExtensionNames = nil
	_, _, err = PickPhysicalDevice(instance, surface, extensions)
	if !errors.Is(err, gpu.ErrNoSuitableDevice) {
		t.Errorf("no suitable device: got %v", err)
	}
}

func TestFindQueueFamilies(t *testing.T) {
	tests := []struct {
		name     string
		families []gpu.QueueFamily
		present  []bool
		want     QueueFamilies
		ok       bool
	}{
		{
			name:     "most queues",
			families: []gpu.QueueFamily{{Flags: core1_0.QueueGraphics, Count: 1}, {Flags: core1_0.QueueGraphics, Count: 8}},
			present:  []bool{true, true},
			want:     QueueFamilies{Graphics: 1, Present: 1},
			ok:       true,
		},
		{
			name:     "present prefers graphics",
			families: []gpu.QueueFamily{{Flags: 0, Count: 4}, {Flags: core1_0.QueueGraphics, Count: 2}},
			present:  []bool{true, true},
			want:     QueueFamilies{Graphics: 1, Present: 1},
			ok:       true,
		},
		{
			name:     "separate present",
			families: []gpu.QueueFamily{{Flags: core1_0.QueueGraphics, Count: 16}, {Flags: 0, Count: 1}, {Flags: 0, Count: 1}},
			present:  []bool{false, true, true},
			want:     QueueFamilies{Graphics: 0, Present: 1},
			ok:       true,
		},
		{
			name:     "no present",
			families: []gpu.QueueFamily{{Flags: core1_0.QueueGraphics, Count: 16}},
			present:  []bool{false},
			ok:       false,
		},
		{
			name:     "no graphics",
			families: []gpu.QueueFamily{{Flags: 0, Count: 16}},
			present:  []bool{true},
			ok:       false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			physical := gputest.NewPhysicalDevice(tc.name, gpu.DeviceTypeDiscrete)
			physical.Families = tc.families
			physical.Present = tc.present
			instance := gputest.NewInstance(physical)

			got, ok, err := FindQueueFamilies(physical, testSurface(t, instance))
			if err != nil {
				t.Fatalf("FindQueueFamilies: %v", err)
			}
			if ok != tc.ok {
				t.Fatalf("ok: got %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNewDeviceContextQueues(t *testing.T) {
	tests := []struct {
		name    string
		present []bool
		queues  int
	}{
		{"shared family", []bool{true, true}, 1},
		{"separate families", []bool{false, true}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			physical := gputest.NewPhysicalDevice(tc.name, gpu.DeviceTypeDiscrete)
			physical.Families = []gpu.QueueFamily{
				{Flags: core1_0.QueueGraphics, Count: 4},
				{Flags: 0, Count: 1},
			}
			physical.Present = tc.present
			instance := gputest.NewInstance(physical)

			ctx, err := NewDeviceContext(instance, testSurface(t, instance), DefaultConfig())
			if err != nil {
				t.Fatalf("NewDeviceContext: %v", err)
			}
			defer ctx.Destroy()

			info := physical.Device.Info
			if len(info.Queues) != tc.queues {
				t.Fatalf("queue create infos: got %d, want %d", len(info.Queues), tc.queues)
			}
			for _, q := range info.Queues {
				if len(q.Priorities) != 1 || q.Priorities[0] != 1.0 {
					t.Errorf("family %d priorities: got %v", q.Family, q.Priorities)
				}
			}
			if len(info.Extensions) != 1 || info.Extensions[0] != DefaultConfig().DeviceExtensions[0] {
				t.Errorf("extensions: got %v", info.Extensions)
			}
			checkViolations(t, instance.Recorder)
		})
	}
}
