// Package adapter converts transport contracts (HTTP, form, CLI file) into
// service parameters.
package adapter

import (
	"errors"
	"fmt"
	"io"

	"github.com/terabiome/skyvllm/internal/api"
	"github.com/terabiome/skyvllm/internal/deployment"
	"github.com/terabiome/skyvllm/internal/service"
	"gopkg.in/yaml.v3"
)

func AdaptDeploy(req api.DeployRequest) service.DeployParams {
	return service.DeployParams{
		ClusterName: req.ClusterName,
		Fields: deployment.Fields{
			ModelPath:     req.ModelPath,
			GPUType:       req.GPUType,
			CPUCount:      req.CPUCount,
			MemoryGB:      req.MemoryGB,
			CloudProvider: req.CloudProvider,
			Region:        req.Region,
			DiskSizeGB:    req.DiskSizeGB,
			DiskType:      req.DiskType,
		},
	}
}

func AdaptInfer(req api.InferRequest) service.InferParams {
	return service.InferParams{
		ClusterName: req.ClusterName,
		Prompt:      req.Prompt,
	}
}

// DefaultDeployRequest is a deploy request prefilled with the form defaults.
func DefaultDeployRequest() api.DeployRequest {
	f := deployment.DefaultFields()
	return api.DeployRequest{
		ModelPath:     f.ModelPath,
		GPUType:       f.GPUType,
		CPUCount:      f.CPUCount,
		MemoryGB:      f.MemoryGB,
		CloudProvider: f.CloudProvider,
		Region:        f.Region,
		DiskSizeGB:    f.DiskSizeGB,
		DiskType:      f.DiskType,
	}
}

// DecodeDeployRequest reads a deploy request from YAML or JSON. Fields
// missing from the document keep their form defaults.
func DecodeDeployRequest(r io.Reader) (api.DeployRequest, error) {
	req := DefaultDeployRequest()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return api.DeployRequest{}, fmt.Errorf("failed to decode deploy request: %w", err)
	}
	return req, nil
}
