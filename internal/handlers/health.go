package handlers

import (
	"net/http"
	"runtime"
	"time"

	"pair-viewer/internal/media"
	"pair-viewer/internal/startup"
)

const statusHealthy = "healthy"

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Session info
	Loaded     bool `json:"loaded"`
	TotalPairs int  `json:"totalPairs"`

	// Imaging
	CacheEnabled bool `json:"cacheEnabled"`
	Vips         bool `json:"vips"`
	RendersBusy  int  `json:"rendersBusy"`
	RenderSlots  int  `json:"renderSlots"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.session.Status()

	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Loaded:       status.Loaded,
		TotalPairs:   status.Total,
		CacheEnabled: h.thumbGen.CacheEnabled(),
		Vips:         media.IsVipsAvailable(),
		RendersBusy:  h.limiter.InUse(),
		RenderSlots:  h.limiter.Size(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, response)
	}
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// versionResponse is the build information plus the active imaging backend.
type versionResponse struct {
	startup.BuildInfo
	Imaging string `json:"imaging"`
}

// GetVersion returns build information and which decoder serves previews.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	backend := "imaging"
	if media.IsVipsAvailable() {
		backend = "libvips"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, versionResponse{BuildInfo: startup.GetBuildInfo(), Imaging: backend})
}
