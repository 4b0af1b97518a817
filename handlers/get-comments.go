package handlers

import (
	"bulletin/storage/models"
	"net/http"
)

type CommentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

func (h *HTTPHandler) HandleGetComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Board.ListComments(r.Context(), postIdFrom(r))
	if err != nil {
		writeBoardError(w, "get_comments", err)
		return
	}
	writeJson(w, http.StatusOK, CommentsResponse{Comments: comments})
}
