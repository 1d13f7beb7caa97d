package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"

	"pair-viewer/internal/session"
)

type openOriginalRequest struct {
	// Index selects a pair other than the current one.
	Index *int `json:"index"`
}

type openOriginalResponse struct {
	Success bool   `json:"success"`
	File    string `json:"file"`
	Message string `json:"message"`
}

// OpenOriginal opens the original file of the current pair, or of the pair
// named in the body, in the configured editor.
func (h *Handlers) OpenOriginal(w http.ResponseWriter, r *http.Request) {
	var req openOriginalRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, "open_original", err)
		return
	}

	index := h.session.Status().CurrentIndex
	if req.Index != nil {
		index = *req.Index
	}
	if index < 0 {
		writeError(w, r, "open_original", fmt.Errorf("%w: nothing selected", session.ErrNotLoaded))
		return
	}

	path, err := h.session.PathFor(index, session.FileOriginal)
	if err != nil {
		writeError(w, r, "open_original", err)
		return
	}
	if err := h.opener.Open(path); err != nil {
		writeError(w, r, "open_original", err)
		return
	}

	writeJSONStatus(w, http.StatusOK, openOriginalResponse{
		Success: true,
		File:    filepath.Base(path),
		Message: "opened " + filepath.Base(path),
	})
}
