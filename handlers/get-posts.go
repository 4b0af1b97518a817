package handlers

import (
	"bulletin/storage/models"
	"net/http"
)

type PostsResponse struct {
	Posts []models.Post `json:"posts"`
}

func (h *HTTPHandler) HandleGetPosts(w http.ResponseWriter, r *http.Request) {
	posts := h.Board.ListPosts(r.Context())
	writeJson(w, http.StatusOK, PostsResponse{Posts: posts})
}
