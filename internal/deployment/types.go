package deployment

import "strings"

// GPUType is the accelerator requested for the serving node.
type GPUType string

const (
	GPUV100 GPUType = "V100"
	GPUP100 GPUType = "P100"
	GPUT4   GPUType = "T4"
)

var gpuTypes = []GPUType{GPUV100, GPUP100, GPUT4}

// CloudProvider is the cloud the orchestrator provisions on.
type CloudProvider string

const (
	CloudAWS   CloudProvider = "AWS"
	CloudGCP   CloudProvider = "GCP"
	CloudAzure CloudProvider = "Azure"
)

var cloudProviders = []CloudProvider{CloudAWS, CloudGCP, CloudAzure}

// DiskType is the boot disk class.
type DiskType string

const (
	DiskStandard DiskType = "standard"
	DiskSSD      DiskType = "ssd"
)

var diskTypes = []DiskType{DiskStandard, DiskSSD}

func GPUTypes() []GPUType             { return append([]GPUType(nil), gpuTypes...) }
func CloudProviders() []CloudProvider { return append([]CloudProvider(nil), cloudProviders...) }
func DiskTypes() []DiskType           { return append([]DiskType(nil), diskTypes...) }

func ParseGPUType(s string) (GPUType, bool) {
	for _, g := range gpuTypes {
		if strings.EqualFold(string(g), strings.TrimSpace(s)) {
			return g, true
		}
	}
	return "", false
}

func ParseCloudProvider(s string) (CloudProvider, bool) {
	for _, c := range cloudProviders {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

func ParseDiskType(s string) (DiskType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range diskTypes {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Range is an inclusive integer bound.
type Range struct {
	Min, Max int
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

const (
	MinCPUCount   = 1
	MaxCPUCount   = 16
	MinMemoryGB   = 4
	MaxMemoryGB   = 64
	MinDiskSizeGB = 20
	MaxDiskSizeGB = 1000
)

func CPURange() Range      { return Range{Min: MinCPUCount, Max: MaxCPUCount} }
func MemoryGBRange() Range { return Range{Min: MinMemoryGB, Max: MaxMemoryGB} }
func DiskSizeRange() Range { return Range{Min: MinDiskSizeGB, Max: MaxDiskSizeGB} }
