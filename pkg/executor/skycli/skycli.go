package skycli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/terabiome/skyvllm/pkg/executor"
)

const DefaultBinary = "sky"

type LaunchOptions struct {
	Binary       string
	ClusterName  string
	Accelerators string
	CPUs         int
	MemoryGB     int
	DiskSizeGB   int
	DiskTier     string
	Cloud        string
	Region       string
	Ports        []int
	Envs         map[string]string
	Entrypoint   string
}

// LaunchArgs returns the argument vector for `sky launch`. The launch is
// asynchronous: sky returns once the request has been accepted.
func LaunchArgs(opts LaunchOptions) []string {
	args := []string{
		"launch",
		"--cluster", opts.ClusterName,
		"--yes",
		"--detach-run",
		"--async",
	}
	if opts.Accelerators != "" {
		args = append(args, "--gpus", opts.Accelerators)
	}
	if opts.CPUs > 0 {
		args = append(args, "--cpus", strconv.Itoa(opts.CPUs))
	}
	if opts.MemoryGB > 0 {
		args = append(args, "--memory", strconv.Itoa(opts.MemoryGB))
	}
	if opts.DiskSizeGB > 0 {
		args = append(args, "--disk-size", strconv.Itoa(opts.DiskSizeGB))
	}
	if opts.DiskTier != "" {
		args = append(args, "--disk-tier", opts.DiskTier)
	}
	if opts.Cloud != "" {
		args = append(args, "--cloud", opts.Cloud)
	}
	if opts.Region != "" {
		args = append(args, "--region", opts.Region)
	}
	for _, port := range opts.Ports {
		args = append(args, "--ports", strconv.Itoa(port))
	}

	keys := make([]string, 0, len(opts.Envs))
	for k := range opts.Envs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--env", fmt.Sprintf("%s=%s", k, opts.Envs[k]))
	}

	return append(args, opts.Entrypoint)
}

func Launch(ctx context.Context, exec executor.Executor, opts LaunchOptions) (*executor.Result, error) {
	return executor.RunAndCapture(ctx, exec, binary(opts.Binary), LaunchArgs(opts)...)
}

type StatusOptions struct {
	Binary      string
	ClusterName string
}

// StatusIP runs `sky status --ip`, which prints the head node address of an
// UP cluster.
func StatusIP(ctx context.Context, exec executor.Executor, opts StatusOptions) (*executor.Result, error) {
	return executor.RunAndCapture(ctx, exec, binary(opts.Binary), "status", "--ip", opts.ClusterName)
}

func binary(b string) string {
	if b == "" {
		return DefaultBinary
	}
	return b
}
