package main

import (
	"fmt"
	"io"
	"os"

	"github.com/terabiome/skyvllm/internal/adapter"
	"github.com/terabiome/skyvllm/internal/api"
	"github.com/terabiome/skyvllm/internal/registry"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func deployFlags() []cli.Flag {
	defaults := adapter.DefaultDeployRequest()
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "YAML or JSON deploy request; flags override its values"},
		&cli.StringFlag{Name: "cluster-name", Usage: "Cluster name (generated when empty)"},
		&cli.StringFlag{Name: "model-path", Aliases: []string{"m"}, Usage: "Model path or hub id, e.g. EleutherAI/gpt-neo-2.7B"},
		&cli.StringFlag{Name: "gpu-type", Usage: "GPU type (V100, P100, T4)", Value: defaults.GPUType},
		&cli.IntFlag{Name: "cpus", Usage: "CPU count", Value: defaults.CPUCount},
		&cli.IntFlag{Name: "memory", Usage: "Memory in GB", Value: defaults.MemoryGB},
		&cli.StringFlag{Name: "cloud", Usage: "Cloud provider (AWS, GCP, Azure)", Value: defaults.CloudProvider},
		&cli.StringFlag{Name: "region", Usage: "Region (provider default when empty)"},
		&cli.IntFlag{Name: "disk-size", Usage: "Disk size in GB", Value: defaults.DiskSizeGB},
		&cli.StringFlag{Name: "disk-type", Usage: "Disk type (standard, ssd)", Value: defaults.DiskType},
		&cli.BoolFlag{Name: "dry-run", Usage: "Print the task that would be submitted and exit"},
	}
}

// deployRequestFromCLI starts from the form defaults, applies the request
// file if given, then every flag the user set explicitly.
func deployRequestFromCLI(cliCtx *cli.Context) (api.DeployRequest, error) {
	req := adapter.DefaultDeployRequest()

	if path := cliCtx.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return api.DeployRequest{}, err
		}
		defer f.Close()

		if req, err = adapter.DecodeDeployRequest(f); err != nil {
			return api.DeployRequest{}, err
		}
	}

	stringFlags := map[string]*string{
		"cluster-name": &req.ClusterName,
		"model-path":   &req.ModelPath,
		"gpu-type":     &req.GPUType,
		"cloud":        &req.CloudProvider,
		"region":       &req.Region,
		"disk-type":    &req.DiskType,
	}
	for name, dst := range stringFlags {
		if cliCtx.IsSet(name) {
			*dst = cliCtx.String(name)
		}
	}

	intFlags := map[string]*int{
		"cpus":      &req.CPUCount,
		"memory":    &req.MemoryGB,
		"disk-size": &req.DiskSizeGB,
	}
	for name, dst := range intFlags {
		if cliCtx.IsSet(name) {
			*dst = cliCtx.Int(name)
		}
	}

	return req, nil
}

func printTask(w io.Writer, clusterName string, task registry.Task) error {
	out, err := yaml.Marshal(struct {
		ClusterName string        `yaml:"cluster_name"`
		Task        registry.Task `yaml:"task"`
	}{clusterName, task})
	if err != nil {
		return fmt.Errorf("unable to marshal task: %w", err)
	}
	_, err = w.Write(out)
	return err
}
