package handlers

import (
	"bulletin/board"
	"bulletin/storage/models"
	"encoding/json"
	"net/http"
)

type PostWriteResponse struct {
	models.Post
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning,omitempty"`
}

func (h *HTTPHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	var data board.NewPost
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	post, res, err := h.Board.CreatePost(r.Context(), data)
	if err != nil {
		writeBoardError(w, "create_post", err)
		return
	}
	writeJson(w, http.StatusCreated, PostWriteResponse{
		Post:      post,
		Persisted: res.Persisted,
		Warning:   warningFor(res),
	})
}
