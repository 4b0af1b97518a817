package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h *HTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/maintenance/ping", h.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/api/v1/posts", h.HandleGetPosts).Methods("GET")
	r.HandleFunc("/api/v1/posts", h.HandleCreatePost).Methods("POST")
	r.HandleFunc("/api/v1/posts/{postId}", h.HandleGetPost).Methods("GET")
	r.HandleFunc("/api/v1/posts/{postId}", h.HandlePatchPost).Methods("PATCH")
	r.HandleFunc("/api/v1/posts/{postId}", h.HandleDeletePost).Methods("DELETE")
	r.HandleFunc("/api/v1/posts/{postId}/comments", h.HandleGetComments).Methods("GET")
	r.HandleFunc("/api/v1/posts/{postId}/comments", h.HandleCreateComment).Methods("POST")
	r.HandleFunc("/api/v1/comments", h.HandleGetComments).Methods("GET")
	r.HandleFunc("/api/v1/comments", h.HandleCreateComment).Methods("POST")

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
}

// Wrap puts the router behind the timeout guard and CORS, with every request
// (preflights included) going through the access log.
func Wrap(router http.Handler, opts TimeoutGuardOptions) http.Handler {
	return AccessLog(CORS(NewTimeoutGuard(router, opts)))
}
