package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pair-viewer/internal/logging"
	"pair-viewer/internal/media"
	"pair-viewer/internal/metadata"
	"pair-viewer/internal/middleware"
	"pair-viewer/internal/session"
	"pair-viewer/internal/streaming"
)

type metadataResponse struct {
	Success  bool                   `json:"success"`
	Index    int                    `json:"index"`
	BaseName string                 `json:"base_name"`
	Metadata metadata.ImageMetadata `json:"metadata"`

	// Stored pixel size of the primary image, before EXIF rotation.
	// Omitted when the header cannot be read.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// GetThumbnail serves the cached thumbnail of the primary image at {index}.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path, ok := h.primaryPath(w, r, "thumbnail")
	if !ok {
		return
	}

	if err := h.limiter.Acquire(r.Context()); err != nil {
		writeError(w, r, "thumbnail", err)
		return
	}
	data, err := h.thumbGen.GetThumbnail(path)
	h.limiter.Release()
	if err != nil {
		writeError(w, r, "thumbnail", err)
		return
	}

	writeImage(w, r, "thumbnail", data)
}

// GetPreview serves a large, uncached rendering of the primary image at
// {index}.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	path, ok := h.primaryPath(w, r, "preview")
	if !ok {
		return
	}

	if err := h.limiter.Acquire(r.Context()); err != nil {
		writeError(w, r, "preview", err)
		return
	}
	data, err := media.RenderPreview(path, h.config.PreviewMaxDimension)
	h.limiter.Release()
	if err != nil {
		writeError(w, r, "preview", err)
		return
	}

	writeImage(w, r, "preview", data)
}

// GetMetadata returns the EXIF display fields of the pair at {index}.
func (h *Handlers) GetMetadata(w http.ResponseWriter, r *http.Request) {
	i, err := indexVar(r)
	if err != nil {
		writeError(w, r, "metadata", err)
		return
	}
	pair, err := h.session.Pair(i)
	if err != nil {
		writeError(w, r, "metadata", err)
		return
	}
	md, err := h.session.Metadata(i)
	if err != nil {
		writeError(w, r, "metadata", err)
		return
	}

	resp := metadataResponse{
		Success:  true,
		Index:    i,
		BaseName: pair.BaseName,
		Metadata: md,
	}
	if dims, err := media.GetImageDimensions(pair.PrimaryPath); err != nil {
		logging.Debug("No dimensions for %s: %v", pair.PrimaryPath, err)
	} else {
		resp.Width, resp.Height = dims.Width, dims.Height
	}

	writeJSONStatus(w, http.StatusOK, resp)
}

func (h *Handlers) primaryPath(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	i, err := indexVar(r)
	if err != nil {
		writeError(w, r, op, err)
		return "", false
	}
	path, err := h.session.PathFor(i, session.FilePrimary)
	if err != nil {
		writeError(w, r, op, err)
		return "", false
	}
	return path, true
}

// writeImage sends JPEG bytes. Index URLs are reused across folder loads,
// so clients must revalidate.
func writeImage(w http.ResponseWriter, r *http.Request, op string, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")

	if _, err := streaming.Write(r.Context(), w, data, streaming.DefaultConfig()); err != nil {
		if errors.Is(err, streaming.ErrClientGone) {
			logging.Debug("%s: client went away: %v", op, err)
			return
		}
		logging.Warn("%s: failed to send %d bytes [%s]: %v", op, len(data), middleware.RequestIDFromContext(r.Context()), err)
	}
}
