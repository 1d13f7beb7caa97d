package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"pair-viewer/internal/database"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/media"
	"pair-viewer/internal/thumbcache"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Host            string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	CacheDir        string
	DatabaseDir     string
	StaticDir       string
	LogStaticFiles  bool
	LogHealthChecks bool

	Thumbnail           thumbcache.RenderParams
	PreviewMaxDimension int
	VipsEnabled         bool
	EditorPath          string

	DefaultPrimaryFolder  string
	DefaultOriginalFolder string

	// Derived paths
	DatabasePath string
	EnvFile      string

	// Feature flags based on directory availability
	CacheEnabled bool
}

// Addr is the application listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// LoadConfig loads and validates configuration from the environment,
// after merging an optional .env file into it.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	envFile := LoadEnvFile(getEnv("ENV_FILE", ".env"))
	applyLogLevel()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	thumbnail := ThumbnailParamsFromEnv()

	host := getEnv("HOST", "127.0.0.1")
	port := getEnv("PORT", "5000")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	cacheDir := getEnv("CACHE_DIR", "./app_cache")
	databaseDir := getEnv("DATABASE_DIR", "./data")
	staticDir := getEnv("STATIC_DIR", "./static")
	previewMax := getEnvInt("PREVIEW_MAX_DIMENSION", media.MaxImageDimension)
	vipsEnabled := getEnvBool("VIPS_ENABLED", false)
	editorPath := getEnv("EDITOR_PATH", "")
	defaultPrimary := getEnv("DEFAULT_PRIMARY_FOLDER", "")
	defaultOriginal := getEnv("DEFAULT_ORIGINAL_FOLDER", "")
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)

	logging.Info("  ENV_FILE:                %s", orNone(envFile))
	logging.Info("  HOST:                    %s", host)
	logging.Info("  PORT:                    %s", port)
	logging.Info("  METRICS_PORT:            %s", metricsPort)
	logging.Info("  METRICS_ENABLED:         %v", metricsEnabled)
	logging.Info("  CACHE_DIR:               %s", cacheDir)
	logging.Info("  DATABASE_DIR:            %s", databaseDir)
	logging.Info("  STATIC_DIR:              %s", staticDir)
	logging.Info("  THUMBNAIL_WIDTH:         %d", thumbnail.Width)
	logging.Info("  THUMBNAIL_HEIGHT:        %d", thumbnail.Height)
	logging.Info("  THUMBNAIL_QUALITY:       %d", thumbnail.Quality)
	logging.Info("  PREVIEW_MAX_DIMENSION:   %d", previewMax)
	logging.Info("  VIPS_ENABLED:            %v", vipsEnabled)
	logging.Info("  EDITOR_PATH:             %s", orNone(editorPath))
	logging.Info("  DEFAULT_PRIMARY_FOLDER:  %s", orNone(defaultPrimary))
	logging.Info("  DEFAULT_ORIGINAL_FOLDER: %s", orNone(defaultOriginal))
	logging.Info("  LOG_STATIC_FILES:        %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:       %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:               %s", logging.GetLevel())

	if err := thumbnail.Validate(); err != nil {
		return nil, fmt.Errorf("thumbnail settings: %w", err)
	}
	if previewMax <= 0 {
		return nil, fmt.Errorf("PREVIEW_MAX_DIMENSION must be positive, got %d", previewMax)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
	}

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	cacheDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", cacheDir)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	config := &Config{
		Host:                  host,
		Port:                  port,
		MetricsPort:           metricsPort,
		MetricsEnabled:        metricsEnabled,
		CacheDir:              cacheDir,
		DatabaseDir:           databaseDir,
		StaticDir:             staticDir,
		LogStaticFiles:        logStaticFiles,
		LogHealthChecks:       logHealthChecks,
		Thumbnail:             thumbnail,
		PreviewMaxDimension:   previewMax,
		VipsEnabled:           vipsEnabled,
		EditorPath:            editorPath,
		DefaultPrimaryFolder:  defaultPrimary,
		DefaultOriginalFolder: defaultOriginal,
		DatabasePath:          filepath.Join(databaseDir, database.FileName),
		EnvFile:               envFile,
	}

	// Ensure base database directory exists (required for database)
	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	// Thumbnail cache (optional)
	config.CacheEnabled = setupOptionalDir(cacheDir, "thumbnail cache")

	if editorPath != "" {
		if _, err := os.Stat(editorPath); err != nil {
			logging.Warn("  EDITOR_PATH %s is not usable (%v); originals will open with the OS default", editorPath, err)
		}
	}

	// Summary
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:        ENABLED (required)")
	logging.Info("    Thumbnail cache: %s", enabledString(config.CacheEnabled))
	logging.Info("    libvips:         %s", enabledString(config.VipsEnabled))
	logging.Info("    Metrics:         %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// ThumbnailParamsFromEnv returns the default render parameters with
// THUMBNAIL_WIDTH, THUMBNAIL_HEIGHT and THUMBNAIL_QUALITY applied. The
// result is not validated.
func ThumbnailParamsFromEnv() thumbcache.RenderParams {
	p := thumbcache.DefaultRenderParams()
	p.Width = getEnvInt("THUMBNAIL_WIDTH", p.Width)
	p.Height = getEnvInt("THUMBNAIL_HEIGHT", p.Height)
	p.Quality = getEnvInt("THUMBNAIL_QUALITY", p.Quality)
	return p
}

// LoadEnvFile merges path into the process environment without overriding
// variables that are already set. It returns the absolute path loaded, or
// "" when there is no such file.
func LoadEnvFile(path string) string {
	if path == "" {
		return ""
	}
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Failed to load %s: %v", path, err)
		}
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// applyLogLevel re-reads LOG_LEVEL, which may have come from the .env file.
func applyLogLevel() {
	name := os.Getenv("LOG_LEVEL")
	if name == "" {
		return
	}
	level, ok := logging.ParseLevel(name)
	if !ok {
		logging.Warn("Invalid LOG_LEVEL %q, keeping %s", name, logging.GetLevel())
		return
	}
	logging.SetLevel(level)
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(path string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Path: %s", path)
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogImagingInit logs the thumbnail and preview pipeline setup.
func LogImagingInit(config *Config, vipsErr error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("IMAGING INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Thumbnails: %s", config.Thumbnail.Summary())
	if config.CacheEnabled {
		logging.Info("  Thumbnail cache: %s", config.CacheDir)
	} else {
		logging.Warn("  Thumbnail cache disabled (directory not writable)")
		logging.Warn("  Thumbnails will be rendered on every request")
	}

	switch {
	case !config.VipsEnabled:
		logging.Info("  Previews: imaging (set VIPS_ENABLED=true for libvips)")
	case vipsErr != nil:
		logging.Warn("  libvips unavailable: %v", vipsErr)
		logging.Warn("  Previews will use the pure Go decoder")
	default:
		logging.Info("  [OK] Previews: libvips")
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			pathTemplate, err = route.GetPathRegexp()
			if err != nil {
				return nil
			}
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	// api/image/thumbnail -> api/image
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Addr            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://%s", config.Addr)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____        _          _    ___
   / __ \____ _(_)____    | |  / (_)__ _      _____  _____
  / /_/ / __ '/ / ___/____| | / / / _ \ | /| / / _ \/ ___/
 / ____/ /_/ / / /  /_____/ |/ / /  __/ |/ |/ /  __/ /
/_/    \__,_/_/_/         |___/_/\___/|__/|__/\___/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// MemoryConfig describes how the Go memory limit was configured.
type MemoryConfig struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// LogMemoryConfig logs the memory limit setup. Decoding large originals is
// the main allocation spike, so the limit is worth surfacing.
func LogMemoryConfig(mc MemoryConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if !mc.Configured {
		logging.Info("  GOMEMLIMIT: not set (set MEMORY_LIMIT or GOMEMLIMIT to bound the heap)")
		return
	}

	switch mc.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT: %s (from environment)", formatBytesStartup(mc.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("  Memory limit:  %s", formatBytesStartup(mc.ContainerLimit))
		logging.Info("  Heap ratio:    %.0f%%", mc.Ratio*100)
		logging.Info("  GOMEMLIMIT:    %s", formatBytesStartup(mc.GoMemLimit))
	default:
		logging.Info("  GOMEMLIMIT: %s (%s)", formatBytesStartup(mc.GoMemLimit), mc.Source)
	}
}

func formatBytesStartup(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
