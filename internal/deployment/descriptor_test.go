package deployment

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func scenarioFields() Fields {
	return Fields{
		ModelPath:     "EleutherAI/gpt-neo-2.7B",
		GPUType:       "V100",
		CPUCount:      4,
		MemoryGB:      16,
		CloudProvider: "AWS",
		Region:        "us-west-2",
		DiskSizeGB:    100,
		DiskType:      "ssd",
	}
}

func TestBuildValid(t *testing.T) {
	d, err := Build(scenarioFields())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if d.ModelPath() != "EleutherAI/gpt-neo-2.7B" {
		t.Errorf("ModelPath = %q", d.ModelPath())
	}
	if d.GPUType() != GPUV100 || d.CloudProvider() != CloudAWS || d.DiskType() != DiskSSD {
		t.Errorf("enums = %s/%s/%s", d.GPUType(), d.CloudProvider(), d.DiskType())
	}
	if d.CPUCount() != 4 || d.MemoryGB() != 16 || d.DiskSizeGB() != 100 {
		t.Errorf("numbers = %d/%d/%d", d.CPUCount(), d.MemoryGB(), d.DiskSizeGB())
	}
	if d.Region() != "us-west-2" {
		t.Errorf("Region = %q", d.Region())
	}
	if d.ServingPort() != 8080 {
		t.Errorf("ServingPort = %d", d.ServingPort())
	}
	if diff := cmp.Diff(scenarioFields(), d.Fields()); diff != "" {
		t.Errorf("Fields round trip (-want +got):\n%s", diff)
	}
}

func TestBuildNormalizes(t *testing.T) {
	f := scenarioFields()
	f.ModelPath = "  org/model  "
	f.GPUType = "t4"
	f.CloudProvider = "azure"
	f.DiskType = "SSD"
	f.Region = "   "

	d, err := Build(f)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if d.ModelPath() != "org/model" || d.GPUType() != GPUT4 || d.CloudProvider() != CloudAzure || d.DiskType() != DiskSSD {
		t.Errorf("unexpected descriptor %+v", d.Fields())
	}
	if d.Region() != "" {
		t.Errorf("blank region should fall back to provider default, got %q", d.Region())
	}
}

func TestBuildBounds(t *testing.T) {
	tests := []struct {
		name  string
		field string
		set   func(*Fields, int)
		rng   Range
	}{
		{"cpu", "cpu_count", func(f *Fields, v int) { f.CPUCount = v }, CPURange()},
		{"memory", "memory_gb", func(f *Fields, v int) { f.MemoryGB = v }, MemoryGBRange()},
		{"disk", "disk_size_gb", func(f *Fields, v int) { f.DiskSizeGB = v }, DiskSizeRange()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range []int{tt.rng.Min, tt.rng.Max} {
				f := scenarioFields()
				tt.set(&f, v)
				if _, err := Build(f); err != nil {
					t.Errorf("value %d on the bound rejected: %v", v, err)
				}
			}
			for _, v := range []int{tt.rng.Min - 1, tt.rng.Max + 1, 0, -5} {
				f := scenarioFields()
				tt.set(&f, v)
				_, err := Build(f)
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("value %d: err = %v, want ValidationError", v, err)
				}
				if verr.Field != tt.field {
					t.Errorf("value %d: field = %q, want %q", v, verr.Field, tt.field)
				}
			}
		})
	}
}

func TestBuildCPUOutOfRange(t *testing.T) {
	f := scenarioFields()
	f.CPUCount = 20

	d, err := Build(f)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "cpu_count" {
		t.Fatalf("err = %v, want cpu_count ValidationError", err)
	}
	if d != (Descriptor{}) {
		t.Errorf("partial descriptor returned: %+v", d.Fields())
	}
}

func TestBuildValidationOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Fields)
		field  string
	}{
		{
			name:   "presence before ranges",
			mutate: func(f *Fields) { f.DiskType = ""; f.CPUCount = 99 },
			field:  "disk_type",
		},
		{
			name:   "presence order",
			mutate: func(f *Fields) { f.ModelPath = " "; f.CloudProvider = "" },
			field:  "model_path",
		},
		{
			name:   "cloud before gpu presence",
			mutate: func(f *Fields) { f.CloudProvider = ""; f.GPUType = "" },
			field:  "cloud_provider",
		},
		{
			name:   "ranges before enums",
			mutate: func(f *Fields) { f.GPUType = "A100"; f.MemoryGB = 2 },
			field:  "memory_gb",
		},
		{
			name:   "range order",
			mutate: func(f *Fields) { f.MemoryGB = 2; f.DiskSizeGB = 5000 },
			field:  "memory_gb",
		},
		{
			name:   "enum order",
			mutate: func(f *Fields) { f.CloudProvider = "OCI"; f.DiskType = "nvme" },
			field:  "cloud_provider",
		},
		{
			name:   "unknown gpu",
			mutate: func(f *Fields) { f.GPUType = "A100" },
			field:  "gpu_type",
		},
		{
			name:   "unknown disk",
			mutate: func(f *Fields) { f.DiskType = "nvme" },
			field:  "disk_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := scenarioFields()
			tt.mutate(&f)
			_, err := Build(f)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q (%v)", verr.Field, tt.field, err)
			}
		})
	}
}

func TestDefaultFieldsNeedOnlyModelPath(t *testing.T) {
	f := DefaultFields()
	if _, err := Build(f); err == nil {
		t.Fatal("defaults without model path must not validate")
	}
	f.ModelPath = "EleutherAI/gpt-neo-2.7B"
	d, err := Build(f)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if d.GPUType() != GPUV100 || d.CPUCount() != 4 || d.MemoryGB() != 16 || d.CloudProvider() != CloudAWS || d.DiskSizeGB() != 100 || d.DiskType() != DiskSSD {
		t.Errorf("unexpected defaults %+v", d.Fields())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "cpu_count", Reason: "20 is outside [1, 16]"}
	if got := err.Error(); got != "invalid cpu_count: 20 is outside [1, 16]" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRangesAreFixed(t *testing.T) {
	r := CPURange()
	r.Max = 128

	if got := CPURange(); got != (Range{Min: 1, Max: 16}) {
		t.Errorf("CPURange() = %+v after mutating a copy", got)
	}
	if got := MemoryGBRange(); got != (Range{Min: 4, Max: 64}) {
		t.Errorf("MemoryGBRange() = %+v", got)
	}
	if got := DiskSizeRange(); got != (Range{Min: 20, Max: 1000}) {
		t.Errorf("DiskSizeRange() = %+v", got)
	}

	f := scenarioFields()
	f.CPUCount = 64
	if _, err := Build(f); err == nil {
		t.Error("cpu_count 64 accepted")
	}
}
