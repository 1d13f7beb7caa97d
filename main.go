package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"pair-viewer/internal/database"
	"pair-viewer/internal/filesystem"
	"pair-viewer/internal/handlers"
	"pair-viewer/internal/launcher"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/media"
	"pair-viewer/internal/memory"
	"pair-viewer/internal/metadata"
	"pair-viewer/internal/metrics"
	"pair-viewer/internal/middleware"
	"pair-viewer/internal/session"
	"pair-viewer/internal/startup"
	"pair-viewer/internal/thumbcache"
	"pair-viewer/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// cacheStatsInterval is how often the cache size gauges are refreshed.
const cacheStatsInterval = time.Minute

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// MEMORY_LIMIT may come from the .env file, so this runs after LoadConfig
	mem := memory.ConfigureFromEnv()
	startup.LogMemoryConfig(startup.MemoryConfig{
		Configured:     mem.Configured,
		Source:         mem.Source,
		ContainerLimit: mem.ContainerLimit,
		GoMemLimit:     mem.GoMemLimit,
		Ratio:          mem.Ratio,
	})

	// Metrics wiring
	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, runtime.Version()).Set(1)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"cache":    config.CacheDir,
		"database": config.DatabaseDir,
		"primary":  config.DefaultPrimaryFolder,
		"original": config.DefaultOriginalFolder,
	}))

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(config.DatabasePath, time.Since(dbStart))

	// Initialize imaging
	var vipsErr error
	if config.VipsEnabled {
		vipsErr = media.InitVips()
	}
	startup.LogImagingInit(config, vipsErr)

	cacheDir := ""
	if config.CacheEnabled {
		cacheDir = config.CacheDir
	}
	cache := thumbcache.New(cacheDir)
	thumbGen := media.NewThumbnailGenerator(cache, nil, config.Thumbnail)

	collector := metrics.NewCollector(cache, cacheStatsInterval)
	collector.Start()

	// Initialize handlers
	limiter := workers.NewLimiter(workers.ForCPU(0))
	sess := session.New(metadata.NewExtractor())
	h := handlers.New(db, sess, thumbGen, launcher.New(config.EditorPath), limiter, config)

	// Setup router
	router := setupRouter(h, config.StaticDir)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Request IDs must exist before the access log line is written
	handler := middleware.RequestID(loggedHandler)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler = middleware.Compression(compressionConfig)(handler)

	// Create server. Previews of large originals can take a while, so
	// there is no write timeout.
	srv := &http.Server{
		Addr:         config.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, collector, db)
		close(done)
	}()

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Addr:            config.Addr(),
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers, staticDir string) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET", "HEAD")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET", "HEAD")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Session
	api.HandleFunc("/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/load_folders", h.LoadFolders).Methods("POST")
	api.HandleFunc("/select_image/{index}", h.SelectImage).Methods("POST")
	api.HandleFunc("/next_image", h.NextImage).Methods("POST")
	api.HandleFunc("/previous_image", h.PreviousImage).Methods("POST")

	// Images
	api.HandleFunc("/image/thumbnail/{index}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/image/preview/{index}", h.GetPreview).Methods("GET")
	api.HandleFunc("/image/metadata/{index}", h.GetMetadata).Methods("GET")

	// Editor
	api.HandleFunc("/open_original", h.OpenOriginal).Methods("POST")

	// History and settings
	api.HandleFunc("/history", h.GetHistory).Methods("GET")
	api.HandleFunc("/history", h.SaveHistory).Methods("POST")
	api.HandleFunc("/settings/folders", h.GetDefaultFolders).Methods("GET")
	api.HandleFunc("/settings/folders", h.SaveDefaultFolders).Methods("POST")

	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}

// newMetricsServer serves Prometheus metrics on its own port so the
// application listener can stay bound to localhost.
func newMetricsServer(port string) *http.Server {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              ":" + port,
		Handler:           m,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, db *database.Database) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Releasing libvips")
	media.ShutdownVips()
	startup.LogShutdownStepComplete("libvips released")

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
