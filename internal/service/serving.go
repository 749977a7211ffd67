package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terabiome/skyvllm/internal/deployment"
	"github.com/terabiome/skyvllm/internal/inference"
	"github.com/terabiome/skyvllm/internal/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// ServingService wires descriptor validation, provisioning and inference
// forwarding together. Construct one per process and pass it to every
// surface (HTTP, UI, CLI).
type ServingService struct {
	registry  registry.Client
	forwarder *inference.Forwarder
	tasks     *registry.TaskBuilder
	logger    *slog.Logger
	newID     func() uuid.UUID

	deployCounter  metric.Int64Counter
	inferCounter   metric.Int64Counter
	deployDuration metric.Float64Histogram
	inferDuration  metric.Float64Histogram
}

// NewServingService creates a new ServingService.
func NewServingService(
	reg registry.Client,
	forwarder *inference.Forwarder,
	tasks *registry.TaskBuilder,
	logger *slog.Logger,
) *ServingService {
	meter := otel.Meter("skyvllm/service")

	deployCounter, err := meter.Int64Counter(
		"skyvllm.deploy",
		metric.WithDescription("Number of deploy operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		logger.Warn("failed to create deployCounter metric", slog.String("error", err.Error()))
	}

	inferCounter, err := meter.Int64Counter(
		"skyvllm.infer",
		metric.WithDescription("Number of inference operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		logger.Warn("failed to create inferCounter metric", slog.String("error", err.Error()))
	}

	deployDuration, err := meter.Float64Histogram(
		"skyvllm.deploy.duration",
		metric.WithDescription("Duration of deploy operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create deployDuration metric", slog.String("error", err.Error()))
	}

	inferDuration, err := meter.Float64Histogram(
		"skyvllm.infer.duration",
		metric.WithDescription("Duration of inference operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create inferDuration metric", slog.String("error", err.Error()))
	}

	return &ServingService{
		registry:       reg,
		forwarder:      forwarder,
		tasks:          tasks,
		logger:         logger.With(slog.String("service", "serving")),
		newID:          uuid.New,
		deployCounter:  deployCounter,
		inferCounter:   inferCounter,
		deployDuration: deployDuration,
		inferDuration:  inferDuration,
	}
}

// Deploy validates the fields, picks a cluster name and submits the
// provision request. Validation failures never reach the orchestrator.
func (s *ServingService) Deploy(ctx context.Context, params DeployParams) (registry.ClusterHandle, error) {
	tracer := otel.Tracer("skyvllm/service")
	ctx, span := tracer.Start(ctx, "Deploy")
	defer span.End()

	start := time.Now()

	descriptor, name, err := s.prepare(params)
	if err != nil {
		s.record(ctx, s.deployCounter, s.deployDuration, start, err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Info("deploy rejected", slog.String("error", err.Error()))
		return registry.ClusterHandle{}, err
	}

	span.SetAttributes(
		attribute.String("cluster.name", name),
		attribute.String("model.path", descriptor.ModelPath()),
		attribute.String("gpu.type", string(descriptor.GPUType())),
		attribute.String("cloud.provider", string(descriptor.CloudProvider())),
	)

	s.logger.Info("provisioning cluster",
		slog.String("cluster", name),
		slog.String("model_path", descriptor.ModelPath()),
		slog.String("gpu_type", string(descriptor.GPUType())),
		slog.Int("cpus", descriptor.CPUCount()),
		slog.Int("memory_gb", descriptor.MemoryGB()),
		slog.String("cloud", string(descriptor.CloudProvider())),
		slog.String("region", descriptor.Region()),
		slog.Int("disk_size_gb", descriptor.DiskSizeGB()),
		slog.String("disk_type", string(descriptor.DiskType())),
	)

	handle, err := s.registry.Provision(ctx, registry.ProvisionRequest{
		ClusterName: name,
		Descriptor:  descriptor,
	})
	s.record(ctx, s.deployCounter, s.deployDuration, start, err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("provisioning failed", slog.String("cluster", name), slog.String("error", err.Error()))
		return registry.ClusterHandle{}, err
	}

	s.logger.Info("provision request accepted", slog.String("cluster", handle.Name))
	return handle, nil
}

// Infer forwards the prompt to the named cluster. Errors from resolution and
// from the serving process are returned unchanged.
func (s *ServingService) Infer(ctx context.Context, params InferParams) (string, error) {
	tracer := otel.Tracer("skyvllm/service")
	ctx, span := tracer.Start(ctx, "Infer")
	defer span.End()

	params.ClusterName = strings.TrimSpace(params.ClusterName)
	span.SetAttributes(attribute.String("cluster.name", params.ClusterName))
	start := time.Now()

	if params.ClusterName == "" {
		err := &deployment.ValidationError{Field: "cluster_name", Reason: "is required"}
		s.record(ctx, s.inferCounter, s.inferDuration, start, err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	out, err := s.forwarder.Infer(ctx, params.ClusterName, params.Prompt)
	s.record(ctx, s.inferCounter, s.inferDuration, start, err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("inference failed", slog.String("cluster", params.ClusterName), slog.String("error", err.Error()))
		return "", err
	}

	s.logger.Info("inference completed",
		slog.String("cluster", params.ClusterName),
		slog.Int("prompt_bytes", len(params.Prompt)),
		slog.Int("output_bytes", len(out)),
	)
	return out, nil
}

// Resolve looks up the current address of a cluster.
func (s *ServingService) Resolve(ctx context.Context, clusterName string) (registry.NetworkAddress, error) {
	clusterName = strings.TrimSpace(clusterName)
	if clusterName == "" {
		return "", &deployment.ValidationError{Field: "cluster_name", Reason: "is required"}
	}
	return s.registry.ResolveAddress(ctx, clusterName)
}

// RenderTask builds the task a deploy would submit, without submitting it.
func (s *ServingService) RenderTask(params DeployParams) (string, registry.Task, error) {
	descriptor, name, err := s.prepare(params)
	if err != nil {
		return "", registry.Task{}, err
	}
	task, err := s.tasks.Build(descriptor)
	if err != nil {
		return "", registry.Task{}, err
	}
	return name, task, nil
}

func (s *ServingService) prepare(params DeployParams) (deployment.Descriptor, string, error) {
	descriptor, err := deployment.Build(params.Fields)
	if err != nil {
		return deployment.Descriptor{}, "", err
	}

	name := strings.TrimSpace(params.ClusterName)
	if name == "" {
		name = newClusterName(descriptor, s.newID())
	} else if err := validateClusterName(name); err != nil {
		return deployment.Descriptor{}, "", err
	}

	return descriptor, name, nil
}

func (s *ServingService) record(ctx context.Context, counter metric.Int64Counter, hist metric.Float64Histogram, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome(err)))
	if counter != nil {
		counter.Add(ctx, 1, attrs)
	}
	if hist != nil {
		hist.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

func outcome(err error) string {
	var verr *deployment.ValidationError
	var perr *registry.ProvisioningError
	var nf *registry.ClusterNotFoundError
	var ur *registry.ClusterUnreachableError
	var ierr *inference.InferenceError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr):
		return "invalid"
	case errors.As(err, &perr):
		return "rejected"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ur):
		return "unreachable"
	case errors.As(err, &ierr):
		return "inference_error"
	default:
		return "error"
	}
}
