package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"pair-viewer/internal/database"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/session"
)

// statusResponse is a session snapshot as sent to the client.
type statusResponse struct {
	Success bool `json:"success"`
	session.Status
}

type pairInfo struct {
	Index       int    `json:"index"`
	BaseName    string `json:"base_name"`
	HasOriginal bool   `json:"has_original"`
}

type loadFoldersRequest struct {
	PrimaryFolder  string `json:"primary_folder"`
	OriginalFolder string `json:"original_folder"`
	InitialIndex   *int   `json:"initial_index"`
	SortOrder      string `json:"sort_order"`
}

type loadFoldersResponse struct {
	statusResponse
	Pairs []pairInfo `json:"pairs"`
	// Resumed reports that the position came from saved history.
	Resumed bool `json:"resumed"`
}

// GetStatus returns the session status.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, http.StatusOK, statusResponse{Success: true, Status: h.session.Status()})
}

// LoadFolders matches a primary folder against an original folder and
// replaces the session's pair list. Without an explicit initial_index or
// sort_order, the saved history for the primary folder supplies them.
func (h *Handlers) LoadFolders(w http.ResponseWriter, r *http.Request) {
	var req loadFoldersRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, "load_folders", err)
		return
	}
	req.PrimaryFolder = strings.TrimSpace(req.PrimaryFolder)
	req.OriginalFolder = strings.TrimSpace(req.OriginalFolder)
	if req.PrimaryFolder == "" {
		writeError(w, r, "load_folders", fmt.Errorf("%w: primary_folder is required", errBadRequest))
		return
	}
	if req.InitialIndex != nil && *req.InitialIndex < 0 {
		writeError(w, r, "load_folders", fmt.Errorf("%w: initial_index must not be negative", errBadRequest))
		return
	}

	opts := session.LoadOptions{
		InitialIndex: req.InitialIndex,
		SortOrder:    session.SortOrder(req.SortOrder),
	}
	resumed, sortFromHistory := false, false
	if req.InitialIndex == nil || req.SortOrder == "" {
		if entry, ok := h.lookupHistory(r.Context(), req.PrimaryFolder); ok {
			if opts.InitialIndex == nil {
				last := entry.LastIndex
				opts.InitialIndex = &last
				resumed = true
			}
			if opts.SortOrder == "" && entry.SortOrder != "" {
				opts.SortOrder = session.SortOrder(entry.SortOrder)
				sortFromHistory = true
			}
		}
	}

	logging.Info("Loading folders: primary=%q original=%q", req.PrimaryFolder, req.OriginalFolder)
	status, err := h.session.Load(req.PrimaryFolder, req.OriginalFolder, opts)
	if err != nil && sortFromHistory && errors.Is(err, session.ErrInvalidSortOrder) {
		// A stale token in history must not block loading.
		opts.SortOrder = ""
		status, err = h.session.Load(req.PrimaryFolder, req.OriginalFolder, opts)
	}
	if err != nil {
		writeError(w, r, "load_folders", err)
		return
	}
	h.rememberPosition(r.Context(), status)

	pairs := h.session.Pairs()
	resp := loadFoldersResponse{
		statusResponse: statusResponse{Success: true, Status: status},
		Pairs:          make([]pairInfo, len(pairs)),
		Resumed:        resumed && status.CurrentIndex == *opts.InitialIndex,
	}
	for i, p := range pairs {
		resp.Pairs[i] = pairInfo{Index: i, BaseName: p.BaseName, HasOriginal: p.HasOriginal()}
	}
	writeJSONStatus(w, http.StatusOK, resp)
}

// SelectImage selects the pair at {index}.
func (h *Handlers) SelectImage(w http.ResponseWriter, r *http.Request) {
	i, err := indexVar(r)
	if err != nil {
		writeError(w, r, "select_image", err)
		return
	}
	h.navigate(w, r, "select_image", func() (session.Status, error) { return h.session.Select(i) })
}

// NextImage advances the selection, stopping at the last pair.
func (h *Handlers) NextImage(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, "next_image", h.session.Next)
}

// PreviousImage moves the selection back, stopping at the first pair.
func (h *Handlers) PreviousImage(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, "previous_image", h.session.Prev)
}

func (h *Handlers) navigate(w http.ResponseWriter, r *http.Request, op string, move func() (session.Status, error)) {
	status, err := move()
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	h.rememberPosition(r.Context(), status)
	writeJSONStatus(w, http.StatusOK, statusResponse{Success: true, Status: status})
}

// lookupHistory returns the saved position for primaryFolder, keyed by
// its absolute path.
func (h *Handlers) lookupHistory(ctx context.Context, primaryFolder string) (database.HistoryEntry, bool) {
	if h.db == nil {
		return database.HistoryEntry{}, false
	}
	entry, err := h.db.GetHistory(ctx, historyKey(primaryFolder))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logging.Warn("Failed to read history for %s: %v", primaryFolder, err)
		}
		return database.HistoryEntry{}, false
	}
	return entry, true
}

// rememberPosition saves the session position. Failures are logged; the
// navigation itself already succeeded.
func (h *Handlers) rememberPosition(ctx context.Context, status session.Status) {
	if h.db == nil || !status.Loaded {
		return
	}
	err := h.db.SaveHistory(ctx, database.HistoryEntry{
		PrimaryFolder:  status.PrimaryFolder,
		OriginalFolder: status.OriginalFolder,
		LastIndex:      status.CurrentIndex,
		SortOrder:      string(status.SortOrder),
	})
	if err != nil {
		logging.Warn("Failed to save history for %s: %v", status.PrimaryFolder, err)
	}
}

// historyKey normalises a folder path the way the session records it.
func historyKey(folder string) string {
	if abs, err := filepath.Abs(folder); err == nil {
		return abs
	}
	return filepath.Clean(folder)
}
