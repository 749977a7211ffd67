// Package rest implements registry.Client against an orchestrator that
// exposes a small JSON API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terabiome/skyvllm/internal/registry"
)

const maxErrorBody = 4 << 10

// DescriptorPayload is the flat descriptor as sent on the wire.
type DescriptorPayload struct {
	ModelPath     string `json:"model_path"`
	GPUType       string `json:"gpu_type"`
	CPUCount      int    `json:"cpu_count"`
	MemoryGB      int    `json:"memory_gb"`
	CloudProvider string `json:"cloud_provider"`
	Region        string `json:"region,omitempty"`
	DiskSizeGB    int    `json:"disk_size_gb"`
	DiskType      string `json:"disk_type"`
	ServingPort   int    `json:"serving_port"`
}

type ProvisionRequest struct {
	ClusterName string            `json:"cluster_name"`
	Descriptor  DescriptorPayload `json:"descriptor"`
	Task        registry.Task     `json:"task"`
}

type ProvisionResponse struct {
	Accepted    bool   `json:"accepted"`
	ClusterName string `json:"cluster_name,omitempty"`
	Error       string `json:"error,omitempty"`
}

type AddressResponse struct {
	Address string `json:"address"`
	Error   string `json:"error,omitempty"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client

	tasks  *registry.TaskBuilder
	logger *slog.Logger
}

func New(baseURL string, timeout time.Duration, tasks *registry.TaskBuilder, logger *slog.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: timeout,
		},
		tasks:  tasks,
		logger: logger.With(slog.String("component", "rest-orchestrator")),
	}
}

func (c *Client) Provision(ctx context.Context, req registry.ProvisionRequest) (registry.ClusterHandle, error) {
	task, err := c.tasks.Build(req.Descriptor)
	if err != nil {
		return registry.ClusterHandle{}, err
	}

	d := req.Descriptor
	body, err := json.Marshal(ProvisionRequest{
		ClusterName: req.ClusterName,
		Descriptor: DescriptorPayload{
			ModelPath:     d.ModelPath(),
			GPUType:       string(d.GPUType()),
			CPUCount:      d.CPUCount(),
			MemoryGB:      d.MemoryGB(),
			CloudProvider: string(d.CloudProvider()),
			Region:        d.Region(),
			DiskSizeGB:    d.DiskSizeGB(),
			DiskType:      string(d.DiskType()),
			ServingPort:   d.ServingPort(),
		},
		Task: task,
	})
	if err != nil {
		return registry.ClusterHandle{}, fmt.Errorf("failed to encode provision request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/clusters", bytes.NewReader(body))
	if err != nil {
		return registry.ClusterHandle{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return registry.ClusterHandle{}, &registry.ProvisioningError{Cluster: req.ClusterName, Message: err.Error()}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err != nil {
		return registry.ClusterHandle{}, &registry.ProvisioningError{Cluster: req.ClusterName, Message: err.Error()}
	}

	var out ProvisionResponse
	decodeErr := json.Unmarshal(raw, &out)

	if res.StatusCode/100 != 2 || decodeErr != nil || !out.Accepted {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = fmt.Sprintf("orchestrator returned status %d", res.StatusCode)
		}
		return registry.ClusterHandle{}, &registry.ProvisioningError{Cluster: req.ClusterName, Message: msg}
	}

	name := out.ClusterName
	if name == "" {
		name = req.ClusterName
	}
	c.logger.Info("provision accepted", slog.String("cluster", name))
	return registry.ClusterHandle{Name: name}, nil
}

func (c *Client) ResolveAddress(ctx context.Context, clusterName string) (registry.NetworkAddress, error) {
	endpoint := c.BaseURL + "/clusters/" + url.PathEscape(clusterName) + "/address"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", &registry.ClusterUnreachableError{Cluster: clusterName, Reason: err.Error()}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return "", &registry.ClusterNotFoundError{Cluster: clusterName}
	case res.StatusCode/100 != 2:
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		reason := strings.TrimSpace(string(raw))
		var out AddressResponse
		if json.Unmarshal(raw, &out) == nil && out.Error != "" {
			reason = out.Error
		}
		if reason == "" {
			reason = fmt.Sprintf("orchestrator returned status %d", res.StatusCode)
		}
		return "", &registry.ClusterUnreachableError{Cluster: clusterName, Reason: reason}
	}

	var out AddressResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", &registry.ClusterUnreachableError{Cluster: clusterName, Reason: fmt.Sprintf("malformed address response: %v", err)}
	}
	if strings.TrimSpace(out.Address) == "" {
		return "", &registry.ClusterUnreachableError{Cluster: clusterName, Reason: "no address assigned yet"}
	}

	return registry.NetworkAddress(strings.TrimSpace(out.Address)), nil
}
