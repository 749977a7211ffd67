package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/terabiome/skyvllm/internal/adapter"
	"github.com/terabiome/skyvllm/internal/api"
	"github.com/terabiome/skyvllm/internal/service"
)

// DeployedMessage is the confirmation shown after a successful deploy.
func DeployedMessage(clusterName string) string {
	return fmt.Sprintf("VLLM model deployed on SkyPilot with cluster name: %s", clusterName)
}

// Serving handles deploy and inference HTTP requests
type Serving struct {
	service *service.ServingService
	logger  *slog.Logger
}

// NewServing creates a new Serving handler
func NewServing(svc *service.ServingService, logger *slog.Logger) *Serving {
	return &Serving{
		service: svc,
		logger:  logger,
	}
}

// Deploy handles POST /deploy requests
func (h *Serving) Deploy(writer http.ResponseWriter, request *http.Request) {
	var deployRequest api.DeployRequest
	if !parseBody(writer, request, &deployRequest) {
		return
	}

	handle, err := h.service.Deploy(request.Context(), adapter.AdaptDeploy(deployRequest))
	if err != nil {
		writeResult(writer, StatusFor(err), GenericResponse{
			Message: "failed to deploy model",
			Error:   err.Error(),
		})
		return
	}

	writeResult(writer, http.StatusOK, GenericResponse{
		Body: api.DeployResponse{
			ClusterName: handle.Name,
			Message:     DeployedMessage(handle.Name),
		},
		Message: "deployment request accepted",
	})
}

// Infer handles POST /infer requests
func (h *Serving) Infer(writer http.ResponseWriter, request *http.Request) {
	var inferRequest api.InferRequest
	if !parseBody(writer, request, &inferRequest) {
		return
	}

	output, err := h.service.Infer(request.Context(), adapter.AdaptInfer(inferRequest))
	if err != nil {
		writeResult(writer, StatusFor(err), GenericResponse{
			Message: "failed to run inference",
			Error:   err.Error(),
		})
		return
	}

	writeResult(writer, http.StatusOK, GenericResponse{
		Body: api.InferResponse{
			ClusterName: inferRequest.ClusterName,
			Output:      output,
		},
		Message: "inference completed",
	})
}

// ResolveAddress handles GET /clusters/{name}/address requests
func (h *Serving) ResolveAddress(writer http.ResponseWriter, request *http.Request) {
	name := request.PathValue("name")

	addr, err := h.service.Resolve(request.Context(), name)
	if err != nil {
		writeResult(writer, StatusFor(err), GenericResponse{
			Message: "failed to resolve cluster address",
			Error:   err.Error(),
		})
		return
	}

	writeResult(writer, http.StatusOK, GenericResponse{
		Body: api.AddressResponse{
			ClusterName: name,
			Address:     string(addr),
		},
		Message: "resolved cluster address",
	})
}

// FormatRequest handles POST /format requests to format contract examples
func (h *Serving) FormatRequest(writer http.ResponseWriter, request *http.Request) {
	contractGeneratorMap := map[string]func() any{
		"deploy": func() any { r := adapter.DefaultDeployRequest(); return &r },
		"infer":  func() any { return &api.InferRequest{} },
	}

	queries := request.URL.Query()

	contractGenerator, ok := contractGeneratorMap[queries.Get("contract")]
	if !ok {
		writeResult(writer, http.StatusNotFound, GenericResponse{
			Message: "no matching contract to format request",
		})
		return
	}
	inputData := contractGenerator()

	if request.ContentLength != 0 {
		if !parseBody(writer, request, inputData) {
			return
		}
	}

	outputData, err := json.MarshalIndent(inputData, "", "  ")
	if err != nil {
		writeResult(writer, http.StatusInternalServerError, GenericResponse{
			Message: "could not serialize data",
			Error:   err.Error(),
		})
		return
	}

	writeBytes(writer, http.StatusOK, outputData)
}
