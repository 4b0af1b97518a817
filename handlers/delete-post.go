package handlers

import (
	"net/http"
)

type DeleteResponse struct {
	Deleted   string `json:"deleted"`
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning,omitempty"`
}

func (h *HTTPHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	postId := postIdFrom(r)
	res, err := h.Board.DeletePost(r.Context(), postId)
	if err != nil {
		writeBoardError(w, "delete_post", err)
		return
	}
	writeJson(w, http.StatusOK, DeleteResponse{
		Deleted:   postId,
		Persisted: res.Persisted,
		Warning:   warningFor(res),
	})
}
