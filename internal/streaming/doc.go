/*
Package streaming writes large response bodies with per-chunk write
deadlines.

# Overview

Previews of full-size originals can be several megabytes, and the HTTP
server runs without a global WriteTimeout so that slow renders are not
cut off. Write bounds the transfer instead: the body is split into chunks
and every chunk gets a fresh deadline through http.ResponseController. A
client that stops reading is detected within one WriteTimeout.

# Basic Usage

	func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
		data, err := render(...)
		...
		w.Header().Set("Content-Type", "image/jpeg")
		_, err = streaming.Write(r.Context(), w, data, streaming.DefaultConfig())
		if err != nil && !errors.Is(err, streaming.ErrClientGone) {
			logging.Warn("Preview write failed: %v", err)
		}
	}

# Errors

  - ErrWriteTimeout: a chunk missed its deadline
  - ErrClientGone: the request context ended mid-transfer

Any other error is returned unchanged from the underlying writer.

# Middleware Compatibility

Response writer wrappers must implement Unwrap() http.ResponseWriter for
the deadline to reach the connection. When it cannot, Write falls back to
plain chunked writes.
*/
package streaming
