package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pair-viewer/internal/database"
	"pair-viewer/internal/launcher"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/media"
	"pair-viewer/internal/middleware"
	"pair-viewer/internal/pairing"
	"pair-viewer/internal/session"
	"pair-viewer/internal/thumbcache"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// errBadRequest marks malformed requests.
var errBadRequest = errors.New("invalid request")

// Error codes returned in the "code" field.
const (
	codeInvalidInput     = "invalid_input"
	codeInvalidIndex     = "invalid_index"
	codeNotLoaded        = "not_loaded"
	codeFolderNotFound   = "folder_not_found"
	codeFolderUnreadable = "folder_unreadable"
	codeNoPairs          = "no_pairs"
	codeNoOriginal       = "no_original"
	codeFileNotFound     = "file_not_found"
	codeNotFound         = "not_found"
	codeRenderFailed     = "render_failed"
	codeLaunchFailed     = "launch_failed"
	codeUnavailable      = "unavailable"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes v as JSON with the given status code.
func writeJSONStatus(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSONStatus(w, statusCode, errorResponse{Success: false, Code: code, Message: message})
}

// writeError maps err to a status code and error code and writes it.
// Server-side failures are logged with the request ID.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		logging.Error("%s failed [%s]: %v", op, middleware.RequestIDFromContext(r.Context()), err)
	} else {
		logging.Debug("%s rejected: %v", op, err)
	}
	writeJSONError(w, status, code, err.Error())
}

// classifyError returns the HTTP status and error code for err.
func classifyError(err error) (int, string) {
	var renderErr *media.RenderError
	var keyErr *thumbcache.KeyError

	switch {
	case errors.Is(err, session.ErrInvalidIndex):
		return http.StatusBadRequest, codeInvalidIndex
	case errors.Is(err, session.ErrNotLoaded):
		return http.StatusBadRequest, codeNotLoaded
	case errors.Is(err, errBadRequest),
		errors.Is(err, pairing.ErrInvalidInput),
		errors.Is(err, database.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidSortOrder),
		errors.Is(err, thumbcache.ErrInvalidParams):
		return http.StatusBadRequest, codeInvalidInput
	case errors.Is(err, pairing.ErrDirectoryNotFound):
		return http.StatusNotFound, codeFolderNotFound
	case errors.Is(err, pairing.ErrNoPairsFound):
		return http.StatusNotFound, codeNoPairs
	case errors.Is(err, pairing.ErrDirectoryUnreadable):
		return http.StatusInternalServerError, codeFolderUnreadable
	case errors.Is(err, session.ErrNoOriginal):
		return http.StatusNotFound, codeNoOriginal
	case errors.Is(err, thumbcache.ErrSourceNotFound),
		errors.Is(err, launcher.ErrFileNotFound):
		return http.StatusNotFound, codeFileNotFound
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, thumbcache.ErrRenderFailed),
		errors.As(err, &renderErr),
		errors.As(err, &keyErr):
		return http.StatusInternalServerError, codeRenderFailed
	case errors.Is(err, launcher.ErrLaunchFailed):
		return http.StatusInternalServerError, codeLaunchFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// indexVar parses the {index} route variable.
func indexVar(r *http.Request) (int, error) {
	raw := mux.Vars(r)["index"]
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %q", session.ErrInvalidIndex, raw)
	}
	return i, nil
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: body must be a JSON object: %v", errBadRequest, err)
	}
	return nil
}
