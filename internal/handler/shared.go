package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/terabiome/skyvllm/internal/deployment"
	"github.com/terabiome/skyvllm/internal/inference"
	"github.com/terabiome/skyvllm/internal/registry"
)

// GenericResponse is a standard API response structure
type GenericResponse struct {
	Body    any    `json:"body,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// parseBody decodes the JSON request body into target and writes a 400 on failure
func parseBody(writer http.ResponseWriter, request *http.Request, target any) bool {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		writeResult(writer, http.StatusBadRequest, GenericResponse{
			Message: "invalid request body",
			Error:   err.Error(),
		})
		return false
	}
	return true
}

// writeResult writes a JSON response with the given status code
func writeResult(writer http.ResponseWriter, statusCode int, response GenericResponse) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	json.NewEncoder(writer).Encode(response)
}

// writeBytes writes raw bytes with the given status code
func writeBytes(writer http.ResponseWriter, statusCode int, data []byte) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	writer.Write(data)
}

// StatusFor maps a domain error onto an HTTP status code.
func StatusFor(err error) int {
	var (
		verr        *deployment.ValidationError
		perr        *registry.ProvisioningError
		notFound    *registry.ClusterNotFoundError
		unreachable *registry.ClusterUnreachableError
		ierr        *inference.InferenceError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &perr), errors.As(err, &ierr):
		return http.StatusBadGateway
	case errors.As(err, &unreachable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
