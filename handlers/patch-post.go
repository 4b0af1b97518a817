package handlers

import (
	"bulletin/storage/models"
	"encoding/json"
	"log/slog"
	"net/http"
)

// HandlePatchPost accepts only likes, comments, shares and liked; other
// fields in the body are ignored.
func (h *HTTPHandler) HandlePatchPost(w http.ResponseWriter, r *http.Request) {
	postId := postIdFrom(r)
	var patch models.PostPatch
	err := json.NewDecoder(r.Body).Decode(&patch)
	if err != nil {
		slog.Info("Failed to decode patch body", "postId", postId, "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	post, res, err := h.Board.PatchPost(r.Context(), postId, patch)
	if err != nil {
		writeBoardError(w, "patch_post", err)
		return
	}
	writeJson(w, http.StatusOK, PostWriteResponse{
		Post:      post,
		Persisted: res.Persisted,
		Warning:   warningFor(res),
	})
}
