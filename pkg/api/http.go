package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"docchat/pkg/api/handlers"
	"docchat/pkg/gateway"
	"docchat/pkg/threads"
)

// NewRouter builds the docchat API router over an injected thread store
// and gateway client.
func NewRouter(st *threads.Store, gw gateway.Client) *mux.Router {
	r := mux.NewRouter()

	// Liveness probe used by deployment systems and CI
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterThreads(v1, st, gw)
	handlers.RegisterDocuments(v1, gw)
	return r
}
