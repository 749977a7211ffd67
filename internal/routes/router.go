package routes

import (
	"net/http"

	"github.com/terabiome/skyvllm/internal/handler"
	"github.com/terabiome/skyvllm/internal/ui"
)

// Router wraps http.ServeMux and provides route setup
type Router struct {
	*http.ServeMux
}

// V1Handler returns a handler for v1 API routes
func (router *Router) V1Handler(servingHandler *handler.Serving) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /deploy", servingHandler.Deploy)
	mux.HandleFunc("POST /infer", servingHandler.Infer)
	mux.HandleFunc("GET /clusters/{name}/address", servingHandler.ResolveAddress)
	mux.HandleFunc("POST /format", servingHandler.FormatRequest)

	return mux
}

// SetupMux creates and configures the main router. The page handler is
// optional so API-only servers can skip it.
func SetupMux(servingHandler *handler.Serving, pageHandler *ui.Handler) *Router {
	router := Router{http.NewServeMux()}

	router.ServeMux.Handle("/api/v1/", http.StripPrefix("/api/v1", router.V1Handler(servingHandler)))

	router.ServeMux.HandleFunc("/heartbeat", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
		writer.Write([]byte("i have not exploded"))
	})

	if pageHandler != nil {
		pageHandler.Register(router.ServeMux)
	}

	return &router
}
