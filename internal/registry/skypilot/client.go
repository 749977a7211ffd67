// Package skypilot implements registry.Client on top of the sky CLI.
package skypilot

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/terabiome/skyvllm/internal/registry"
	"github.com/terabiome/skyvllm/pkg/executor"
	"github.com/terabiome/skyvllm/pkg/executor/skycli"
)

type Config struct {
	// Binary is the sky executable; defaults to "sky" on PATH.
	Binary string
	// Timeout bounds each sky invocation. Zero means no bound beyond ctx.
	Timeout time.Duration
}

type Client struct {
	exec   executor.Executor
	tasks  *registry.TaskBuilder
	cfg    Config
	logger *slog.Logger
}

func New(exec executor.Executor, tasks *registry.TaskBuilder, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		exec:   exec,
		tasks:  tasks,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "skypilot"), slog.String("executor", exec.Name())),
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

func (c *Client) Provision(ctx context.Context, req registry.ProvisionRequest) (registry.ClusterHandle, error) {
	task, err := c.tasks.Build(req.Descriptor)
	if err != nil {
		return registry.ClusterHandle{}, err
	}

	c.logger.Debug("launching cluster",
		slog.String("cluster", req.ClusterName),
		slog.String("accelerators", task.Resources.Accelerators),
		slog.String("cloud", task.Resources.Cloud),
	)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := skycli.Launch(ctx, c.exec, skycli.LaunchOptions{
		Binary:       c.cfg.Binary,
		ClusterName:  req.ClusterName,
		Accelerators: task.Resources.Accelerators,
		CPUs:         task.Resources.CPUs,
		MemoryGB:     task.Resources.MemoryGB,
		DiskSizeGB:   task.Resources.DiskSizeGB,
		DiskTier:     task.Resources.DiskTier,
		Cloud:        task.Resources.Cloud,
		Region:       task.Resources.Region,
		Ports:        task.Resources.Ports,
		Envs:         task.Envs,
		Entrypoint:   task.Entrypoint(),
	})
	if err != nil {
		msg := strings.TrimSpace(result.Output())
		if msg == "" {
			msg = err.Error()
		}
		return registry.ClusterHandle{}, &registry.ProvisioningError{Cluster: req.ClusterName, Message: msg}
	}

	c.logger.Info("launch accepted", slog.String("cluster", req.ClusterName))
	return registry.ClusterHandle{Name: req.ClusterName}, nil
}

func (c *Client) ResolveAddress(ctx context.Context, clusterName string) (registry.NetworkAddress, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := skycli.StatusIP(ctx, c.exec, skycli.StatusOptions{
		Binary:      c.cfg.Binary,
		ClusterName: clusterName,
	})
	if err != nil {
		output := strings.TrimSpace(result.Stderr + "\n" + result.Stdout)
		if result.ExitCode != exitCommandNotFound && isNotFound(output) {
			return "", &registry.ClusterNotFoundError{Cluster: clusterName}
		}
		if output == "" {
			output = err.Error()
		}
		return "", &registry.ClusterUnreachableError{Cluster: clusterName, Reason: output}
	}

	addr := lastLine(result.Stdout)
	if net.ParseIP(addr) == nil {
		return "", &registry.ClusterUnreachableError{
			Cluster: clusterName,
			Reason:  fmt.Sprintf("no address assigned yet (status output: %q)", addr),
		}
	}

	c.logger.Debug("resolved cluster address", slog.String("cluster", clusterName), slog.String("address", addr))
	return registry.NetworkAddress(addr), nil
}

// exitCommandNotFound is what a shell returns when the sky binary is missing
// on the control host.
const exitCommandNotFound = 127

// notFoundPatterns match the messages sky prints for a cluster it has no
// record of. "sky status --ip" reports "No cluster found. Please specify an
// existing cluster to show its IP address."; other commands name the cluster.
var notFoundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bno (existing )?clusters? found\b`),
	regexp.MustCompile(`(?i)\bcluster '?[a-z0-9-]+'? (not found|does not exist)\b`),
}

func isNotFound(output string) bool {
	for _, p := range notFoundPatterns {
		if p.MatchString(output) {
			return true
		}
	}
	return false
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
