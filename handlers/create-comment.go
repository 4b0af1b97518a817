package handlers

import (
	"bulletin/board"
	"bulletin/storage/models"
	"encoding/json"
	"net/http"
)

type CommentWriteResponse struct {
	models.Comment
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning,omitempty"`
}

func (h *HTTPHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	var data board.NewComment
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if postId := postIdFrom(r); postId != "" {
		data.PostId = postId
	}

	comment, res, err := h.Board.AddComment(r.Context(), data)
	if err != nil {
		writeBoardError(w, "create_comment", err)
		return
	}
	writeJson(w, http.StatusCreated, CommentWriteResponse{
		Comment:   comment,
		Persisted: res.Persisted,
		Warning:   warningFor(res),
	})
}
