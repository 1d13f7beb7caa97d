package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"pair-viewer/internal/database"
	"pair-viewer/internal/session"
)

type historyResponse struct {
	Success bool                  `json:"success"`
	History database.HistoryEntry `json:"history"`
}

type saveHistoryRequest struct {
	PrimaryFolder  string `json:"primary_folder"`
	OriginalFolder string `json:"original_folder"`
	LastIndex      *int   `json:"last_index"`
	SortOrder      string `json:"sort_order"`
}

type foldersResponse struct {
	Success bool `json:"success"`
	database.Folders
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GetHistory returns the saved position for ?primary_folder=.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	folder := strings.TrimSpace(r.URL.Query().Get("primary_folder"))
	if folder == "" {
		writeError(w, r, "get_history", fmt.Errorf("%w: primary_folder is required", errBadRequest))
		return
	}

	entry, err := h.db.GetHistory(r.Context(), historyKey(folder))
	if err != nil {
		writeError(w, r, "get_history", err)
		return
	}
	writeJSONStatus(w, http.StatusOK, historyResponse{Success: true, History: entry})
}

// SaveHistory stores a position for a primary folder.
func (h *Handlers) SaveHistory(w http.ResponseWriter, r *http.Request) {
	var req saveHistoryRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, "save_history", err)
		return
	}
	if strings.TrimSpace(req.PrimaryFolder) == "" || req.LastIndex == nil {
		writeError(w, r, "save_history", fmt.Errorf("%w: primary_folder and last_index are required", errBadRequest))
		return
	}
	order, err := session.ParseSortOrder(req.SortOrder)
	if err != nil {
		writeError(w, r, "save_history", err)
		return
	}

	entry := database.HistoryEntry{
		PrimaryFolder: historyKey(strings.TrimSpace(req.PrimaryFolder)),
		LastIndex:     *req.LastIndex,
		SortOrder:     string(order),
	}
	if original := strings.TrimSpace(req.OriginalFolder); original != "" {
		entry.OriginalFolder = historyKey(original)
	}
	if err := h.db.SaveHistory(r.Context(), entry); err != nil {
		writeError(w, r, "save_history", err)
		return
	}
	writeJSONStatus(w, http.StatusOK, messageResponse{Success: true, Message: "history saved"})
}

// GetDefaultFolders returns the saved default folders, falling back to
// the configured ones for any never saved.
func (h *Handlers) GetDefaultFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.db.GetDefaultFolders(r.Context())
	if err != nil {
		writeError(w, r, "get_default_folders", err)
		return
	}
	if folders.PrimaryFolder == "" {
		folders.PrimaryFolder = h.config.DefaultPrimaryFolder
	}
	if folders.OriginalFolder == "" {
		folders.OriginalFolder = h.config.DefaultOriginalFolder
	}
	writeJSONStatus(w, http.StatusOK, foldersResponse{Success: true, Folders: folders})
}

// SaveDefaultFolders stores the folders offered on the next start.
func (h *Handlers) SaveDefaultFolders(w http.ResponseWriter, r *http.Request) {
	var folders database.Folders
	if err := decodeJSON(w, r, &folders, false); err != nil {
		writeError(w, r, "save_default_folders", err)
		return
	}
	folders.PrimaryFolder = strings.TrimSpace(folders.PrimaryFolder)
	folders.OriginalFolder = strings.TrimSpace(folders.OriginalFolder)

	if err := h.db.SaveDefaultFolders(r.Context(), folders); err != nil {
		writeError(w, r, "save_default_folders", err)
		return
	}
	writeJSONStatus(w, http.StatusOK, messageResponse{Success: true, Message: "default folders saved"})
}
