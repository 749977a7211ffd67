// Package registry is the single point of contact with the cluster
// orchestrator: it asks for clusters to be provisioned and resolves cluster
// names to network addresses. Backends live in sub-packages.
package registry

import (
	"context"
	"fmt"

	"github.com/terabiome/skyvllm/internal/deployment"
)

// ClusterHandle names a cluster the orchestrator accepted. Its lifecycle
// belongs to the orchestrator.
type ClusterHandle struct {
	Name string `json:"cluster_name"`
}

// NetworkAddress is the host or IP a cluster's serving process is reachable on.
type NetworkAddress string

type ProvisionRequest struct {
	ClusterName string
	Descriptor  deployment.Descriptor
}

// Client provisions clusters and resolves their addresses. Implementations
// hold no cluster state: every call is a fresh round trip and nothing is
// retried.
type Client interface {
	// Provision returns once the orchestrator has accepted the request; the
	// cluster may still be coming up.
	Provision(ctx context.Context, req ProvisionRequest) (ClusterHandle, error)
	ResolveAddress(ctx context.Context, clusterName string) (NetworkAddress, error)
}

// ProvisioningError carries the orchestrator's rejection message verbatim.
type ProvisioningError struct {
	Cluster string
	Message string
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning cluster %q failed: %s", e.Cluster, e.Message)
}

type ClusterNotFoundError struct {
	Cluster string
}

func (e *ClusterNotFoundError) Error() string {
	return fmt.Sprintf("cluster %q not found", e.Cluster)
}

// ClusterUnreachableError means the cluster exists but has no usable address
// yet, or the orchestrator could not be asked.
type ClusterUnreachableError struct {
	Cluster string
	Reason  string
}

func (e *ClusterUnreachableError) Error() string {
	return fmt.Sprintf("cluster %q is unreachable: %s", e.Cluster, e.Reason)
}
