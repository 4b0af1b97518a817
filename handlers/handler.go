package handlers

import (
	"bulletin/board"
	"bulletin/storage"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

const (
	INTERNAL_ERROR_MESSAGE = "Internal error"
	BEST_EFFORT_WARNING    = "Saved in memory only; the change may not persist."
)

type HTTPHandler struct {
	Board *board.Board
	Store storage.Store
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJson(w http.ResponseWriter, status int, v interface{}) {
	rawResponse, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to dump response to json", "error", err)
		writeError(w, http.StatusInternalServerError, INTERNAL_ERROR_MESSAGE)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(rawResponse); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeBoardError maps not found errors to 404, other client errors to 400
// and anything else to 500.
func writeBoardError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.NotFoundError) {
		slog.Info("Not found", "op", op, "error", err)
		writeError(w, http.StatusNotFound, "Post not found.")
		return
	}
	if errors.Is(err, storage.ClientError) {
		slog.Info("Client error", "op", op, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("Internal error", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, INTERNAL_ERROR_MESSAGE)
}

func warningFor(res storage.WriteResult) string {
	if res.Persisted {
		return ""
	}
	return BEST_EFFORT_WARNING
}

// postIdFrom reads the post id from the route, falling back to ?postId=.
func postIdFrom(r *http.Request) string {
	if id := mux.Vars(r)["postId"]; id != "" {
		return id
	}
	return r.URL.Query().Get("postId")
}
