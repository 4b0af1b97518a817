package handlers

import (
	"bulletin/storage"
	"net/http"
)

type HealthResponse struct {
	Status string `json:"status"`
	storage.Health
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJson(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Health: h.Store.Health(),
	})
}
