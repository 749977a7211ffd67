// Package ui renders the two-panel page: one form deploys a model, the other
// sends a prompt to a running cluster. It only translates form values; all
// validation happens in the service.
package ui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/terabiome/skyvllm/internal/adapter"
	"github.com/terabiome/skyvllm/internal/api"
	"github.com/terabiome/skyvllm/internal/deployment"
	"github.com/terabiome/skyvllm/internal/handler"
	"github.com/terabiome/skyvllm/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

type Handler struct {
	service   *service.ServingService
	templates *template.Template
	logger    *slog.Logger
}

func NewHandler(svc *service.ServingService, logger *slog.Logger) (*Handler, error) {
	tpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Handler{service: svc, templates: tpl, logger: logger.With(slog.String("component", "ui"))}, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /ui/deploy", h.deploy)
	mux.HandleFunc("POST /ui/infer", h.infer)
}

type result struct {
	Text    string
	IsError bool
}

type page struct {
	Deploy       api.DeployRequest
	Infer        api.InferRequest
	DeployResult *result
	InferResult  *result

	GPUTypes       []deployment.GPUType
	CloudProviders []deployment.CloudProvider
	DiskTypes      []deployment.DiskType
	CPURange       deployment.Range
	MemoryRange    deployment.Range
	DiskRange      deployment.Range
}

func newPage() page {
	return page{
		Deploy:         adapter.DefaultDeployRequest(),
		GPUTypes:       deployment.GPUTypes(),
		CloudProviders: deployment.CloudProviders(),
		DiskTypes:      deployment.DiskTypes(),
		CPURange:       deployment.CPURange(),
		MemoryRange:    deployment.MemoryGBRange(),
		DiskRange:      deployment.DiskSizeRange(),
	}
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, newPage())
}

func (h *Handler) deploy(w http.ResponseWriter, r *http.Request) {
	p := newPage()
	if err := r.ParseForm(); err != nil {
		p.DeployResult = &result{Text: err.Error(), IsError: true}
		h.render(w, http.StatusBadRequest, p)
		return
	}

	req, err := deployRequestFromForm(r)
	p.Deploy = req
	if err != nil {
		p.DeployResult = &result{Text: err.Error(), IsError: true}
		h.render(w, handler.StatusFor(err), p)
		return
	}

	handle, err := h.service.Deploy(r.Context(), adapter.AdaptDeploy(req))
	if err != nil {
		p.DeployResult = &result{Text: err.Error(), IsError: true}
		h.render(w, handler.StatusFor(err), p)
		return
	}

	p.DeployResult = &result{Text: handler.DeployedMessage(handle.Name)}
	p.Infer.ClusterName = handle.Name
	h.render(w, http.StatusOK, p)
}

func (h *Handler) infer(w http.ResponseWriter, r *http.Request) {
	p := newPage()
	if err := r.ParseForm(); err != nil {
		p.InferResult = &result{Text: err.Error(), IsError: true}
		h.render(w, http.StatusBadRequest, p)
		return
	}

	p.Infer = api.InferRequest{
		ClusterName: strings.TrimSpace(r.PostFormValue("cluster_name")),
		Prompt:      r.PostFormValue("prompt"),
	}

	out, err := h.service.Infer(r.Context(), adapter.AdaptInfer(p.Infer))
	if err != nil {
		p.InferResult = &result{Text: err.Error(), IsError: true}
		h.render(w, handler.StatusFor(err), p)
		return
	}

	p.InferResult = &result{Text: out}
	h.render(w, http.StatusOK, p)
}

// deployRequestFromForm reads the deploy form. It returns the request even
// when a number fails to parse so the form can be re-rendered as submitted.
func deployRequestFromForm(r *http.Request) (api.DeployRequest, error) {
	req := api.DeployRequest{
		ClusterName:   strings.TrimSpace(r.PostFormValue("cluster_name")),
		ModelPath:     r.PostFormValue("model_path"),
		GPUType:       r.PostFormValue("gpu_type"),
		CloudProvider: r.PostFormValue("cloud_provider"),
		Region:        r.PostFormValue("region"),
		DiskType:      r.PostFormValue("disk_type"),
	}

	numbers := []struct {
		field string
		dst   *int
	}{
		{"cpu_count", &req.CPUCount},
		{"memory_gb", &req.MemoryGB},
		{"disk_size_gb", &req.DiskSizeGB},
	}
	var firstErr error
	for _, n := range numbers {
		v, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue(n.field)))
		if err != nil {
			if firstErr == nil {
				firstErr = &deployment.ValidationError{Field: n.field, Reason: "must be an integer"}
			}
			continue
		}
		*n.dst = v
	}
	return req, firstErr
}

func (h *Handler) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "index.html", p); err != nil {
		h.logger.Error("failed to render page", slog.String("error", err.Error()))
	}
}
