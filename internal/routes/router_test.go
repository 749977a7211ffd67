package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/terabiome/skyvllm/internal/handler"
	"github.com/terabiome/skyvllm/internal/inference"
	"github.com/terabiome/skyvllm/internal/registry"
	"github.com/terabiome/skyvllm/internal/service"
	"github.com/terabiome/skyvllm/internal/ui"
	"github.com/terabiome/skyvllm/pkg/logger"
)

type staticRegistry map[string]registry.NetworkAddress

func (s staticRegistry) Provision(_ context.Context, req registry.ProvisionRequest) (registry.ClusterHandle, error) {
	return registry.ClusterHandle{Name: req.ClusterName}, nil
}

func (s staticRegistry) ResolveAddress(_ context.Context, name string) (registry.NetworkAddress, error) {
	addr, ok := s[name]
	if !ok {
		return "", &registry.ClusterNotFoundError{Cluster: name}
	}
	return addr, nil
}

func newRouter(t *testing.T, withPage bool) *Router {
	t.Helper()
	log := logger.Discard()
	reg := staticRegistry{"vllm-cluster": "10.0.0.5"}
	svc := service.NewServingService(reg, inference.NewForwarder(reg, 0, log), registry.DefaultTaskBuilder(), log)

	var page *ui.Handler
	if withPage {
		var err error
		if page, err = ui.NewHandler(svc, log); err != nil {
			t.Fatal(err)
		}
	}
	return SetupMux(handler.NewServing(svc, log), page)
}

func TestRoutes(t *testing.T) {
	router := newRouter(t, true)

	tests := []struct {
		method string
		target string
		body   string
		want   int
	}{
		{http.MethodGet, "/heartbeat", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/api/v1/clusters/vllm-cluster/address", "", http.StatusOK},
		{http.MethodGet, "/api/v1/clusters/other/address", "", http.StatusNotFound},
		{http.MethodPost, "/api/v1/format?contract=infer", "", http.StatusOK},
		{http.MethodGet, "/api/v1/deploy", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRoutesWithoutPage(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
}
