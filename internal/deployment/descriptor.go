// Package deployment turns the flat set of fields collected by a form, the
// JSON API or the CLI into a validated, immutable Descriptor.
package deployment

import (
	"strings"

	"github.com/terabiome/skyvllm/pkg/constants"
)

// Fields is the raw field set as supplied by a caller.
type Fields struct {
	ModelPath     string
	GPUType       string
	CPUCount      int
	MemoryGB      int
	CloudProvider string
	Region        string
	DiskSizeGB    int
	DiskType      string
}

// DefaultFields returns the values the deploy form starts out with.
func DefaultFields() Fields {
	return Fields{
		GPUType:       string(GPUV100),
		CPUCount:      4,
		MemoryGB:      16,
		CloudProvider: string(CloudAWS),
		DiskSizeGB:    100,
		DiskType:      string(DiskSSD),
	}
}

// Descriptor describes one requested deployment. The zero value is not
// valid; obtain one through Build.
type Descriptor struct {
	modelPath     string
	gpuType       GPUType
	cpuCount      int
	memoryGB      int
	cloudProvider CloudProvider
	region        string
	diskSizeGB    int
	diskType      DiskType
}

func (d Descriptor) ModelPath() string            { return d.modelPath }
func (d Descriptor) GPUType() GPUType             { return d.gpuType }
func (d Descriptor) CPUCount() int                { return d.cpuCount }
func (d Descriptor) MemoryGB() int                { return d.memoryGB }
func (d Descriptor) CloudProvider() CloudProvider { return d.cloudProvider }
func (d Descriptor) DiskSizeGB() int              { return d.diskSizeGB }
func (d Descriptor) DiskType() DiskType           { return d.diskType }

// Region is empty when the provider default applies.
func (d Descriptor) Region() string { return d.region }

func (d Descriptor) ServingPort() int { return constants.ServingPort }

// Fields returns the descriptor as a field set; Build(d.Fields()) == d.
func (d Descriptor) Fields() Fields {
	return Fields{
		ModelPath:     d.modelPath,
		GPUType:       string(d.gpuType),
		CPUCount:      d.cpuCount,
		MemoryGB:      d.memoryGB,
		CloudProvider: string(d.cloudProvider),
		Region:        d.region,
		DiskSizeGB:    d.diskSizeGB,
		DiskType:      string(d.diskType),
	}
}

// Build validates f and returns the descriptor. Checks run in a fixed order
// (presence, then numeric ranges, then enum membership) and the first
// failure is returned as a *ValidationError.
func Build(f Fields) (Descriptor, error) {
	required := []struct {
		field string
		value string
	}{
		{"model_path", f.ModelPath},
		{"cloud_provider", f.CloudProvider},
		{"gpu_type", f.GPUType},
		{"disk_type", f.DiskType},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Descriptor{}, missing(r.field)
		}
	}

	bounded := []struct {
		field string
		value int
		rng   Range
	}{
		{"cpu_count", f.CPUCount, CPURange()},
		{"memory_gb", f.MemoryGB, MemoryGBRange()},
		{"disk_size_gb", f.DiskSizeGB, DiskSizeRange()},
	}
	for _, b := range bounded {
		if !b.rng.Contains(b.value) {
			return Descriptor{}, outOfRange(b.field, b.value, b.rng)
		}
	}

	gpu, ok := ParseGPUType(f.GPUType)
	if !ok {
		return Descriptor{}, notOneOf("gpu_type", f.GPUType, gpuTypes)
	}
	cloud, ok := ParseCloudProvider(f.CloudProvider)
	if !ok {
		return Descriptor{}, notOneOf("cloud_provider", f.CloudProvider, cloudProviders)
	}
	disk, ok := ParseDiskType(f.DiskType)
	if !ok {
		return Descriptor{}, notOneOf("disk_type", f.DiskType, diskTypes)
	}

	return Descriptor{
		modelPath:     strings.TrimSpace(f.ModelPath),
		gpuType:       gpu,
		cpuCount:      f.CPUCount,
		memoryGB:      f.MemoryGB,
		cloudProvider: cloud,
		region:        strings.TrimSpace(f.Region),
		diskSizeGB:    f.DiskSizeGB,
		diskType:      disk,
	}, nil
}
