package handlers

import (
	"net/http"
)

func (h *HTTPHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	postId := postIdFrom(r)
	post, err := h.Board.GetPost(r.Context(), postId)
	if err != nil {
		writeBoardError(w, "get_post", err)
		return
	}
	writeJson(w, http.StatusOK, post)
}
