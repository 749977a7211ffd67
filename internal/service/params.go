package service

import "github.com/terabiome/skyvllm/internal/deployment"

// DeployParams contains transport-agnostic parameters for a deployment.
type DeployParams struct {
	// ClusterName is optional; a unique name is generated when empty.
	ClusterName string
	Fields      deployment.Fields
}

// InferParams contains transport-agnostic parameters for one inference call.
type InferParams struct {
	ClusterName string
	Prompt      string
}
