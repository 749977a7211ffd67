package registry

import (
	"fmt"
	"strings"

	"github.com/terabiome/skyvllm/internal/deployment"
	"github.com/terabiome/skyvllm/pkg/constants"
	"github.com/terabiome/skyvllm/pkg/templator"
)

// Resources mirrors the resources block of a SkyPilot task.
type Resources struct {
	Cloud        string `json:"cloud" yaml:"cloud"`
	Region       string `json:"region,omitempty" yaml:"region,omitempty"`
	Accelerators string `json:"accelerators" yaml:"accelerators"`
	CPUs         int    `json:"cpus" yaml:"cpus"`
	MemoryGB     int    `json:"memory" yaml:"memory"`
	DiskSizeGB   int    `json:"disk_size" yaml:"disk_size"`
	DiskTier     string `json:"disk_tier" yaml:"disk_tier"`
	Ports        []int  `json:"ports" yaml:"ports"`
}

// Task is the serving workload submitted for a cluster.
type Task struct {
	Name      string            `json:"name" yaml:"name"`
	Setup     string            `json:"setup,omitempty" yaml:"setup,omitempty"`
	Run       string            `json:"run" yaml:"run"`
	Envs      map[string]string `json:"envs" yaml:"envs"`
	Resources Resources         `json:"resources" yaml:"resources"`
}

// Entrypoint folds setup and run into one shell command line.
func (t Task) Entrypoint() string {
	if strings.TrimSpace(t.Setup) == "" {
		return t.Run
	}
	return t.Setup + " && " + t.Run
}

var (
	cloudNames = map[deployment.CloudProvider]string{
		deployment.CloudAWS:   "aws",
		deployment.CloudGCP:   "gcp",
		deployment.CloudAzure: "azure",
	}
	diskTiers = map[deployment.DiskType]string{
		deployment.DiskStandard: "low",
		deployment.DiskSSD:      "high",
	}
)

type runTemplateData struct {
	ModelPath string
	Port      int
}

// TaskBuilder derives the serving task from a descriptor. The run command
// comes from the templator engine under constants.TemplateServingRun.
type TaskBuilder struct {
	engine *templator.Engine
	setup  string
}

func NewTaskBuilder(engine *templator.Engine, setup string) (*TaskBuilder, error) {
	if !engine.HasTemplate(constants.TemplateServingRun) {
		return nil, fmt.Errorf("template %s not loaded", constants.TemplateServingRun)
	}
	return &TaskBuilder{engine: engine, setup: setup}, nil
}

// DefaultTaskBuilder uses the built-in run template.
func DefaultTaskBuilder() *TaskBuilder {
	engine := templator.NewEngine()
	if err := engine.ParseTemplate(constants.TemplateServingRun, constants.DefaultServingRunTemplate); err != nil {
		panic(err)
	}
	return &TaskBuilder{engine: engine, setup: constants.DefaultServingSetup}
}

func (b *TaskBuilder) Build(d deployment.Descriptor) (Task, error) {
	run, err := b.engine.RenderToString(constants.TemplateServingRun, runTemplateData{
		ModelPath: d.ModelPath(),
		Port:      d.ServingPort(),
	})
	if err != nil {
		return Task{}, fmt.Errorf("failed to render serving command: %w", err)
	}

	return Task{
		Name:  constants.DefaultTaskName,
		Setup: b.setup,
		Run:   strings.TrimSpace(run),
		Envs: map[string]string{
			constants.ModelPathEnv: d.ModelPath(),
		},
		Resources: Resources{
			Cloud:        cloudNames[d.CloudProvider()],
			Region:       d.Region(),
			Accelerators: fmt.Sprintf("%s:1", d.GPUType()),
			CPUs:         d.CPUCount(),
			MemoryGB:     d.MemoryGB(),
			DiskSizeGB:   d.DiskSizeGB(),
			DiskTier:     diskTiers[d.DiskType()],
			Ports:        []int{d.ServingPort()},
		},
	}, nil
}
