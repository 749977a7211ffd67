package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/terabiome/skyvllm/internal/deployment"
	"github.com/terabiome/skyvllm/internal/inference"
	"github.com/terabiome/skyvllm/internal/registry"
)

// fakeRegistry records provision requests and resolves the clusters it
// has provisioned.
type fakeRegistry struct {
	provisioned []registry.ProvisionRequest
	addrs       map[string]registry.NetworkAddress
	handleName  string
	err         error
}

func (f *fakeRegistry) Provision(_ context.Context, req registry.ProvisionRequest) (registry.ClusterHandle, error) {
	f.provisioned = append(f.provisioned, req)
	if f.err != nil {
		return registry.ClusterHandle{}, f.err
	}
	if f.addrs == nil {
		f.addrs = map[string]registry.NetworkAddress{}
	}
	f.addrs[req.ClusterName] = "10.0.0.5"
	name := req.ClusterName
	if f.handleName != "" {
		name = f.handleName
	}
	return registry.ClusterHandle{Name: name}, nil
}

func (f *fakeRegistry) ResolveAddress(_ context.Context, name string) (registry.NetworkAddress, error) {
	addr, ok := f.addrs[name]
	if !ok {
		return "", &registry.ClusterNotFoundError{Cluster: name}
	}
	return addr, nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestService(reg *fakeRegistry, transport http.RoundTripper) *ServingService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fwd := inference.NewForwarder(reg, 0, logger)
	if transport != nil {
		fwd.HTTP.Transport = transport
	}
	s := NewServingService(reg, fwd, registry.DefaultTaskBuilder(), logger)
	s.newID = func() uuid.UUID { return uuid.MustParse("1f3a9c0e-0000-4000-8000-000000000000") }
	return s
}

func scenarioFields() deployment.Fields {
	return deployment.Fields{
		ModelPath:     "EleutherAI/gpt-neo-2.7B",
		GPUType:       "V100",
		CPUCount:      4,
		MemoryGB:      16,
		CloudProvider: "AWS",
		Region:        "us-west-2",
		DiskSizeGB:    100,
		DiskType:      "ssd",
	}
}

func TestDeployScenario(t *testing.T) {
	reg := &fakeRegistry{}
	s := newTestService(reg, nil)

	handle, err := s.Deploy(context.Background(), DeployParams{ClusterName: "vllm-cluster", Fields: scenarioFields()})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if handle.Name != "vllm-cluster" {
		t.Errorf("handle = %q, want vllm-cluster", handle.Name)
	}
	if len(reg.provisioned) != 1 {
		t.Fatalf("provision called %d times, want 1", len(reg.provisioned))
	}
	got := reg.provisioned[0]
	if got.ClusterName != "vllm-cluster" {
		t.Errorf("cluster name = %q", got.ClusterName)
	}
	if diff := cmp.Diff(scenarioFields(), got.Descriptor.Fields()); diff != "" {
		t.Errorf("descriptor passed to provision (-want +got):\n%s", diff)
	}
	if got.Descriptor.ServingPort() != 8080 {
		t.Errorf("serving port = %d", got.Descriptor.ServingPort())
	}
}

func TestDeployReturnsOrchestratorHandle(t *testing.T) {
	reg := &fakeRegistry{handleName: "vllm-cluster"}
	handle, err := newTestService(reg, nil).Deploy(context.Background(), DeployParams{Fields: scenarioFields()})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if handle.Name != "vllm-cluster" {
		t.Errorf("handle = %q", handle.Name)
	}
}

func TestDeployGeneratesUniqueNames(t *testing.T) {
	reg := &fakeRegistry{}
	s := newTestService(reg, nil)
	s.newID = uuid.New

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		handle, err := s.Deploy(context.Background(), DeployParams{Fields: scenarioFields()})
		if err != nil {
			t.Fatalf("Deploy: %v", err)
		}
		if seen[handle.Name] {
			t.Fatalf("duplicate cluster name %q", handle.Name)
		}
		seen[handle.Name] = true
		if err := validateClusterName(handle.Name); err != nil {
			t.Errorf("generated name %q is invalid: %v", handle.Name, err)
		}
	}
}

func TestDeployGeneratedName(t *testing.T) {
	reg := &fakeRegistry{}
	handle, err := newTestService(reg, nil).Deploy(context.Background(), DeployParams{Fields: scenarioFields()})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if handle.Name != "vllm-gpt-neo-2-7b-v100-1f3a9c0e" {
		t.Errorf("name = %q", handle.Name)
	}
}

func TestDeployValidationNeverReachesOrchestrator(t *testing.T) {
	tests := []struct {
		name   string
		params DeployParams
		field  string
	}{
		{
			name:   "cpus out of range",
			params: DeployParams{Fields: func() deployment.Fields { f := scenarioFields(); f.CPUCount = 20; return f }()},
			field:  "cpu_count",
		},
		{
			name:   "memory out of range",
			params: DeployParams{Fields: func() deployment.Fields { f := scenarioFields(); f.MemoryGB = 128; return f }()},
			field:  "memory_gb",
		},
		{
			name:   "disk out of range",
			params: DeployParams{Fields: func() deployment.Fields { f := scenarioFields(); f.DiskSizeGB = 10; return f }()},
			field:  "disk_size_gb",
		},
		{
			name:   "bad cluster name",
			params: DeployParams{ClusterName: "Bad_Name", Fields: scenarioFields()},
			field:  "cluster_name",
		},
		{
			name:   "cluster name too long",
			params: DeployParams{ClusterName: "a" + strings.Repeat("b", 63), Fields: scenarioFields()},
			field:  "cluster_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &fakeRegistry{}
			_, err := newTestService(reg, nil).Deploy(context.Background(), tt.params)
			var verr *deployment.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("err = %v, want %s ValidationError", err, tt.field)
			}
			if len(reg.provisioned) != 0 {
				t.Errorf("provision was called %d times", len(reg.provisioned))
			}
		})
	}
}

func TestDeployPropagatesProvisioningError(t *testing.T) {
	perr := &registry.ProvisioningError{Cluster: "c1", Message: "quota exceeded"}
	reg := &fakeRegistry{err: perr}

	_, err := newTestService(reg, nil).Deploy(context.Background(), DeployParams{ClusterName: "c1", Fields: scenarioFields()})
	if err != perr {
		t.Fatalf("err = %v, want the orchestrator error unchanged", err)
	}
}

func TestProvisionThenInfer(t *testing.T) {
	reg := &fakeRegistry{}
	s := newTestService(reg, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.String() != "http://10.0.0.5:8080" {
			t.Errorf("url = %s", r.URL)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"outputs":"Hello world, how can I help?"}`)),
		}, nil
	}))

	handle, err := s.Deploy(context.Background(), DeployParams{ClusterName: "vllm-cluster", Fields: scenarioFields()})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	addr, err := s.Resolve(context.Background(), handle.Name)
	if err != nil || addr == "" {
		t.Fatalf("Resolve: addr=%q err=%v", addr, err)
	}

	out, err := s.Infer(context.Background(), InferParams{ClusterName: handle.Name, Prompt: "Hello world"})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if out != "Hello world, how can I help?" {
		t.Errorf("out = %q", out)
	}
}

func TestInferUnknownCluster(t *testing.T) {
	s := newTestService(&fakeRegistry{}, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request may be sent for an unknown cluster")
		return nil, nil
	}))

	_, err := s.Resolve(context.Background(), "unknown-cluster")
	if _, ok := err.(*registry.ClusterNotFoundError); !ok {
		t.Fatalf("Resolve err = %T, want *registry.ClusterNotFoundError", err)
	}

	_, err = s.Infer(context.Background(), InferParams{ClusterName: "unknown-cluster", Prompt: "Hello world"})
	if _, ok := err.(*registry.ClusterNotFoundError); !ok {
		t.Fatalf("Infer err = %T, want *registry.ClusterNotFoundError", err)
	}
}

func TestInferRequiresClusterName(t *testing.T) {
	_, err := newTestService(&fakeRegistry{}, nil).Infer(context.Background(), InferParams{Prompt: "hi"})
	var verr *deployment.ValidationError
	if !errors.As(err, &verr) || verr.Field != "cluster_name" {
		t.Fatalf("err = %v, want cluster_name ValidationError", err)
	}
}

func TestRenderTask(t *testing.T) {
	reg := &fakeRegistry{}
	name, task, err := newTestService(reg, nil).RenderTask(DeployParams{Fields: scenarioFields()})
	if err != nil {
		t.Fatalf("RenderTask: %v", err)
	}
	if name != "vllm-gpt-neo-2-7b-v100-1f3a9c0e" {
		t.Errorf("name = %q", name)
	}
	if task.Resources.Accelerators != "V100:1" || task.Envs["MODEL_PATH"] != "EleutherAI/gpt-neo-2.7B" {
		t.Errorf("unexpected task %+v", task)
	}
	if len(reg.provisioned) != 0 {
		t.Error("RenderTask must not provision")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&deployment.ValidationError{}, "invalid"},
		{&registry.ProvisioningError{}, "rejected"},
		{&registry.ClusterNotFoundError{}, "not_found"},
		{&registry.ClusterUnreachableError{}, "unreachable"},
		{&inference.InferenceError{}, "inference_error"},
		{errors.New("x"), "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%T) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestBlankClusterNameIsRejected(t *testing.T) {
	reg := &fakeRegistry{addrs: map[string]registry.NetworkAddress{" ": "10.0.0.9"}}
	s := newTestService(reg, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request may be sent for a blank cluster name")
		return nil, nil
	}))

	var verr *deployment.ValidationError
	if _, err := s.Infer(context.Background(), InferParams{ClusterName: " \t", Prompt: "hi"}); !errors.As(err, &verr) || verr.Field != "cluster_name" {
		t.Errorf("Infer err = %v, want cluster_name ValidationError", err)
	}
	if _, err := s.Resolve(context.Background(), " "); !errors.As(err, &verr) || verr.Field != "cluster_name" {
		t.Errorf("Resolve err = %v, want cluster_name ValidationError", err)
	}
}

func TestClusterNameIsTrimmed(t *testing.T) {
	reg := &fakeRegistry{}
	s := newTestService(reg, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"outputs":"ok"}`))}, nil
	}))

	handle, err := s.Deploy(context.Background(), DeployParams{ClusterName: " vllm-cluster\n", Fields: scenarioFields()})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if handle.Name != "vllm-cluster" || reg.provisioned[0].ClusterName != "vllm-cluster" {
		t.Errorf("handle = %q, provisioned = %q", handle.Name, reg.provisioned[0].ClusterName)
	}

	if addr, err := s.Resolve(context.Background(), " vllm-cluster "); err != nil || addr != "10.0.0.5" {
		t.Errorf("Resolve: addr=%q err=%v", addr, err)
	}
	if out, err := s.Infer(context.Background(), InferParams{ClusterName: "vllm-cluster ", Prompt: "hi"}); err != nil || out != "ok" {
		t.Errorf("Infer: out=%q err=%v", out, err)
	}
}
